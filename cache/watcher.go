package cache

import (
	"log"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher watches a set of parent directories and invalidates their
// entries in a DirExistenceCache whenever the filesystem changes
// underneath them, so the EnumerateItems disambiguator (spec.md
// §4.3.g) never makes a decision against a stale directory listing.
//
// Grounded on the teacher's go.mod, which already declares
// github.com/fsnotify/fsnotify as a direct dependency that its own
// tree never imports (see SPEC_FULL.md's DOMAIN STACK); this is where
// this module wires it in.
type DirWatcher struct {
	cache   *DirExistenceCache
	watcher *fsnotify.Watcher
	debug   bool

	mu      sync.Mutex
	watched map[string]struct{}

	done chan struct{}
}

// NewDirWatcher creates a watcher that invalidates entries in cache.
func NewDirWatcher(cache *DirExistenceCache, debug bool) (*DirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dw := &DirWatcher{
		cache:   cache,
		watcher: w,
		debug:   debug,
		watched: make(map[string]struct{}),
		done:    make(chan struct{}),
	}

	go dw.run()
	return dw, nil
}

// Watch adds dir to the watch set. Safe to call repeatedly for the
// same directory; duplicates are ignored.
func (dw *DirWatcher) Watch(dir string) {
	dw.mu.Lock()
	_, already := dw.watched[dir]
	if !already {
		dw.watched[dir] = struct{}{}
	}
	dw.mu.Unlock()

	if already {
		return
	}

	if err := dw.watcher.Add(dir); err != nil && dw.debug {
		log.Printf("⚠️ dirwatcher: failed to watch %s: %v", dir, err)
	}
}

func (dw *DirWatcher) run() {
	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			dw.cache.Invalidate(event.Name)
			// The change may also affect the containing directory's
			// listing (a create/remove/rename inside it).
			if dir := parentOf(event.Name); dir != "" {
				dw.cache.Invalidate(dir)
			}
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			if dw.debug {
				log.Printf("⚠️ dirwatcher: %v", err)
			}
		case <-dw.done:
			return
		}
	}
}

func parentOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[:i]
		}
	}
	return ""
}

// Close stops the watcher and releases its OS resources.
func (dw *DirWatcher) Close() error {
	close(dw.done)
	return dw.watcher.Close()
}
