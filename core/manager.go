package core

import (
	"context"
	"log"
	"sync"
)

// Manager is the central coordinator of spec.md §4 (C7): it owns an
// ItemStore and an EventMulticaster, drives a cancellable preview pass
// and a commit pass, and mediates access to a RegexAdapter — the Go
// equivalent of original_source/SmartRenameLib/SmartRenameManager.cpp's
// CSmartRenameManager, with its message-window pump replaced by
// channels (spec.md §9's redesign note) — a commit's messages are
// drained on the goroutine that called Rename, a preview run's on a
// dispatch goroutine of its own — and its manual-reset events replaced
// by context.Context.
type Manager struct {
	store  *ItemStore
	events *EventMulticaster

	debug bool

	mu      sync.Mutex // guards adapter, adapterCookie, renamer, flags, shut down
	adapter RegexAdapter
	adapterCookie uint64
	renamer FileRenamer
	flags   Flags
	shutdown bool

	dirCache    DirExistenceChecker
	replayCache ReplaceCache

	reentrancy sync.Mutex // TryLock-guarded; held while the prior preview is joined and the next one started
	previewCancel context.CancelFunc
	previewDone   chan struct{}
}

// ManagerOptions configures optional collaborators. A nil field uses
// the matching no-op/default behavior.
type ManagerOptions struct {
	DirCache    DirExistenceChecker
	ReplayCache ReplaceCache
	Renamer     FileRenamer
	Debug       bool
}

// NewManager constructs a Manager rooted at basePath (used by
// ExcludeSubfolderItems) with a DefaultRegexAdapter already installed,
// grounded on _Init's unconditional creation of its message window and
// synchronization events.
func NewManager(basePath string, opts ManagerOptions) *Manager {
	m := &Manager{
		store:       NewItemStore(basePath),
		events:      NewEventMulticaster(),
		debug:       opts.Debug,
		renamer:     opts.Renamer,
		dirCache:    opts.DirCache,
		replayCache: opts.ReplayCache,
	}
	_ = m.SetRegexAdapter(NewDefaultRegexAdapter())
	if m.debug {
		log.Printf("🔧 rename manager initialized at %q", basePath)
	}
	return m
}

// Advise registers an Observer and returns its cookie (spec.md §4.1).
func (m *Manager) Advise(observer Observer) uint64 {
	return m.events.Advise(observer)
}

// Unadvise removes a previously registered Observer.
func (m *Manager) Unadvise(cookie uint64) bool {
	return m.events.Unadvise(cookie)
}

// AddItem appends item to the store and dispatches OnItemAdded,
// mirroring AddItem's lock-then-notify order (notify happens outside
// the store's own lock, same as _OnItemAdded being called after the
// scoped CSRWExclusiveAutoLock releases).
func (m *Manager) AddItem(item *Item) error {
	if m.isShutdown() {
		return &ErrShutdown{}
	}
	m.store.Append(item)
	m.events.dispatchItemAdded(item)
	return nil
}

// GetItemCount returns the number of items in the store.
func (m *Manager) GetItemCount() int { return m.store.Len() }

// GetItemByIndex returns the item at i.
func (m *Manager) GetItemByIndex(i int) (*Item, error) {
	item, ok := m.store.GetByIndex(i)
	if !ok {
		return nil, &LookupMissError{Kind: "index", Key: i}
	}
	return item, nil
}

// GetItemByID returns the item with the given id.
func (m *Manager) GetItemByID(id int) (*Item, error) {
	item, ok := m.store.GetByID(id)
	if !ok {
		return nil, &LookupMissError{Kind: "id", Key: id}
	}
	return item, nil
}

// GetSelectedCount returns the number of items with Selected() == true.
func (m *Manager) GetSelectedCount() int {
	count := 0
	for _, item := range m.store.Snapshot() {
		if item.Selected() {
			count++
		}
	}
	return count
}

// GetRenameCount returns the number of items the manager's current
// flags would actually rename.
func (m *Manager) GetRenameCount() int {
	flags := m.GetFlags()
	count := 0
	for _, item := range m.store.Snapshot() {
		if m.store.ShouldRename(item, flags) {
			count++
		}
	}
	return count
}

// GetFlags returns the current rename flags.
func (m *Manager) GetFlags() Flags {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags
}

// PutFlags updates the rename flags and, if they changed, propagates
// them to the adapter and re-triggers a preview — grounded on
// put_flags's "if changed, update regex flags" plus OnFlagsChanged's
// own _PerformRegExRename call.
func (m *Manager) PutFlags(flags Flags) error {
	if m.isShutdown() {
		return &ErrShutdown{}
	}

	m.mu.Lock()
	changed := flags != m.flags
	m.flags = flags
	adapter := m.adapter
	m.mu.Unlock()

	if !changed {
		return nil
	}
	if adapter != nil {
		adapter.SetFlags(flags)
	}
	m.performPreview(context.Background())
	return nil
}

// GetRegexAdapter returns the currently installed adapter.
func (m *Manager) GetRegexAdapter() RegexAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adapter
}

// SetRegexAdapter installs a new adapter, unsubscribing from the old
// one and subscribing to the new one. Unlike put_smartRenameRegEx
// (which only ever unsubscribes), this always does both halves
// symmetrically — SPEC_FULL.md's supplemented fix for a real leak in
// the original: swapping adapters twice in a row with the original
// logic would leave the second adapter without a subscription.
func (m *Manager) SetRegexAdapter(adapter RegexAdapter) error {
	if m.isShutdown() {
		return &ErrShutdown{}
	}
	if adapter == nil {
		return &AdapterUnavailableError{Err: &ValidationError{Field: "adapter", Value: "nil", Message: "adapter must not be nil"}}
	}

	m.mu.Lock()
	old := m.adapter
	oldCookie := m.adapterCookie
	m.adapter = adapter
	m.mu.Unlock()

	if old != nil && oldCookie != 0 {
		old.Unadvise(oldCookie)
	}

	cookie := adapter.Advise(managerAdapterObserver{m})
	m.mu.Lock()
	m.adapterCookie = cookie
	m.mu.Unlock()

	return nil
}

// managerAdapterObserver forwards RegexAdapter notifications into a
// preview re-trigger, grounded on the manager's own
// OnSearchTermChanged/OnReplaceTermChanged/OnFlagsChanged methods.
type managerAdapterObserver struct{ m *Manager }

func (o managerAdapterObserver) OnSearchTermChanged(string)  { o.m.performPreview(context.Background()) }
func (o managerAdapterObserver) OnReplaceTermChanged(string) { o.m.performPreview(context.Background()) }
func (o managerAdapterObserver) OnFlagsChanged(flags Flags) {
	o.m.mu.Lock()
	o.m.flags = flags
	o.m.mu.Unlock()
	o.m.performPreview(context.Background())
}

// TriggerPreview requests a new preview pass over the current item set
// (the caller-facing equivalent of OnSearchTermChanged/
// OnReplaceTermChanged being invoked directly by a UI).
func (m *Manager) TriggerPreview() error {
	if m.isShutdown() {
		return &ErrShutdown{}
	}
	m.performPreview(context.Background())
	return nil
}

// performPreview cancels any in-flight preview and starts a new one,
// coalescing reentrant calls exactly once via a try-lock — grounded on
// _PerformRegExRename's TryEnterCriticalSection: a caller that reenters
// while a preview is starting is dropped rather than queued, since the
// in-flight preview (once canceled and restarted) supersedes it anyway.
//
// The try-lock is held only across the join of the prior preview
// worker and the spawning of the new one — not across the new run
// itself (spec.md:145). Both the new worker's Run and the draining of
// its messages happen on goroutines of their own, so performPreview
// returns to its caller as soon as the new run is under way.
func (m *Manager) performPreview(ctx context.Context) {
	if !m.reentrancy.TryLock() {
		return
	}
	defer m.reentrancy.Unlock()

	m.cancelPreviewLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.mu.Lock()
	m.previewCancel = cancel
	m.previewDone = done
	adapter := m.adapter
	m.mu.Unlock()

	messages := make(chan workerMessage, 16)
	worker := NewPreviewWorker(m.store, adapter, m.dirCache, m.replayCache, messages)

	go func() {
		defer close(messages)
		worker.Run(runCtx)
	}()

	go func() {
		defer close(done)
		for msg := range messages {
			m.dispatch(msg)
		}
	}()
}

// cancelPreviewLocked cancels and waits for any in-flight preview run.
// Must be called while holding m.reentrancy.
func (m *Manager) cancelPreviewLocked() {
	m.mu.Lock()
	cancel := m.previewCancel
	done := m.previewDone
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Manager) dispatch(msg workerMessage) {
	switch msg.kind {
	case workerRegExStarted:
		m.events.dispatchRegExStarted()
	case workerRegExCanceled:
		m.events.dispatchRegExCanceled()
	case workerRegExCompleted:
		m.events.dispatchRegExCompleted()
	case workerItemUpdated:
		if item, ok := m.store.GetByID(msg.itemID); ok {
			m.events.dispatchUpdate(item)
		}
	case workerRenameStarted:
		m.events.dispatchRenameStarted()
	case workerRenameCompleted:
		m.events.dispatchRenameCompleted()
	}
}

// Rename commits the current preview (spec.md §4.4): it waits for any
// in-flight preview to finish, then runs the commit worker, draining
// its messages on the calling goroutine (a preview run's messages, by
// contrast, are drained on a goroutine of their own).
// Returns NoWorkError if there are zero eligible items, matching
// _PerformFileOperation's GetRenameItemCount()==0 short-circuit.
func (m *Manager) Rename(ctx context.Context) (*RenameBatchResult, error) {
	if m.isShutdown() {
		return nil, &ErrShutdown{}
	}

	m.mu.Lock()
	renamer := m.renamer
	flags := m.flags
	m.mu.Unlock()

	if renamer == nil {
		return nil, &AdapterUnavailableError{Err: &ValidationError{Field: "renamer", Value: "nil", Message: "no FileRenamer configured"}}
	}

	m.reentrancy.Lock()
	m.mu.Lock()
	previewDone := m.previewDone
	m.mu.Unlock()
	if previewDone != nil {
		<-previewDone
	}
	m.reentrancy.Unlock()

	messages := make(chan workerMessage, 4)
	worker := NewCommitWorker(m.store, renamer, messages)

	var result *RenameBatchResult
	var runErr error
	go func() {
		defer close(messages)
		result, runErr = worker.Run(ctx, flags)
	}()

	for msg := range messages {
		m.dispatch(msg)
	}

	return result, runErr
}

// Reset cancels any in-flight preview, clears every item's computed
// new name and then drops all items from the store, leaving observers
// and the regex adapter in place (SPEC_FULL.md's supplemented Reset,
// grounded on ISmartRenameManager::Reset's stated intent — "Reset all
// rename items" — which the original left unimplemented (E_NOTIMPL)).
func (m *Manager) Reset() error {
	if m.isShutdown() {
		return &ErrShutdown{}
	}

	m.reentrancy.Lock()
	m.cancelPreviewLocked()
	m.reentrancy.Unlock()

	for _, item := range m.store.Snapshot() {
		item.Reset()
	}
	m.store.Clear()
	return nil
}

func (m *Manager) isShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// Shutdown tears the manager down: cancels any in-flight preview,
// unsubscribes from the adapter, clears observers and items, and marks
// every subsequent public call an ErrShutdown — grounded on
// Shutdown/_Cleanup's order (_ClearRegEx before _Cleanup, which itself
// destroys the message window and events before the item/observer
// lists). Idempotent.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	adapter := m.adapter
	cookie := m.adapterCookie
	m.mu.Unlock()

	m.reentrancy.Lock()
	m.cancelPreviewLocked()
	m.reentrancy.Unlock()

	if adapter != nil && cookie != 0 {
		adapter.Unadvise(cookie)
	}

	m.events.Clear()
	m.store.Clear()

	if m.debug {
		log.Printf("🔧 rename manager shut down")
	}
	return nil
}
