package core

import "sync"

// ItemStore is the ordered, id-indexed collection of Items (spec.md §3,
// §4.6 — C3). Mutation (Append, Clear) takes an exclusive lock; reads
// (Len, GetByIndex, GetByID) take a shared lock. Ordering is insertion
// order and is the rename enumeration order.
type ItemStore struct {
	mu       sync.RWMutex
	items    []*Item
	byID     map[int]int // id -> index
	basePath string      // root of the session, used by ExcludeSubfolderItems
}

// NewItemStore creates an empty store rooted at basePath. basePath may
// be empty if the session spans multiple unrelated roots, in which
// case ExcludeSubfolderItems has no effect.
func NewItemStore(basePath string) *ItemStore {
	return &ItemStore{
		items:    make([]*Item, 0, 64),
		byID:     make(map[int]int),
		basePath: basePath,
	}
}

// Append adds item to the end of the store under an exclusive lock.
func (s *ItemStore) Append(item *Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[item.ID()] = len(s.items)
	s.items = append(s.items, item)
}

// Clear drops all items, under an exclusive lock.
func (s *ItemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.items[:0]
	s.byID = make(map[int]int)
}

// Len returns the current item count under a shared lock.
func (s *ItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// GetByIndex returns the item at i, or ok=false if i is out of range —
// tolerated as a benign race with removal per spec.md §4.3.b (removal
// is not performed by this core, but the lookup contract stays safe).
func (s *ItemStore) GetByIndex(i int) (*Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i < 0 || i >= len(s.items) {
		return nil, false
	}
	return s.items[i], true
}

// GetByID looks id up through the id->index map rather than scanning
// the item slice.
func (s *ItemStore) GetByID(id int) (*Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok || idx < 0 || idx >= len(s.items) {
		return nil, false
	}
	return s.items[idx], true
}

// Snapshot returns a copy of the current item slice for callers that
// need a stable view without holding the store's lock for the
// duration of their work (spec.md §4.6).
func (s *ItemStore) Snapshot() []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Item, len(s.items))
	copy(out, s.items)
	return out
}

// BasePath returns the session root used by ExcludeSubfolderItems.
func (s *ItemStore) BasePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.basePath
}

// eligible applies the ExcludeSubfolderItems predicate, which needs
// the store's session root and so cannot live on Item alone.
func (s *ItemStore) eligible(item *Item, flags Flags) bool {
	if flags.has(ExcludeSubfolderItems) && s.basePath != "" {
		if item.ParentPath() != s.basePath {
			return false
		}
	}
	return true
}

// ShouldRename combines Item.ShouldRename with the store-level
// ExcludeSubfolderItems predicate (spec.md §3's should_rename, §4.7's
// "exact set is the observable contract").
func (s *ItemStore) ShouldRename(item *Item, flags Flags) bool {
	s.mu.RLock()
	ok := s.eligible(item, flags)
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return item.ShouldRename(flags)
}
