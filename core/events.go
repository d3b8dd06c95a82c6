package core

import "sync"

// Observer receives lifecycle/progress callbacks from the Manager.
// OnItemAdded runs on the goroutine that called AddItem, and
// OnRenameStarted/OnRenameCompleted on the goroutine that called
// Rename; the preview callbacks (OnRegExStarted, OnUpdate,
// OnRegExCanceled, OnRegExCompleted) run on a dispatch goroutine the
// Manager starts for each preview run, not on the goroutine that
// triggered it. Observers must not mutate registrations
// (Advise/Unadvise) from within a callback — see spec.md §4.5.
type Observer interface {
	OnItemAdded(item *Item)
	OnUpdate(item *Item)
	OnError(item *Item)
	OnRegExStarted()
	OnRegExCanceled()
	OnRegExCompleted()
	OnRenameStarted()
	OnRenameCompleted()
}

// BaseObserver can be embedded to satisfy Observer while overriding
// only the callbacks a caller cares about.
type BaseObserver struct{}

func (BaseObserver) OnItemAdded(*Item)    {}
func (BaseObserver) OnUpdate(*Item)       {}
func (BaseObserver) OnError(*Item)        {}
func (BaseObserver) OnRegExStarted()      {}
func (BaseObserver) OnRegExCanceled()     {}
func (BaseObserver) OnRegExCompleted()    {}
func (BaseObserver) OnRenameStarted()     {}
func (BaseObserver) OnRenameCompleted()   {}

type observerSlot struct {
	cookie   uint64
	observer Observer
}

// EventMulticaster is the cookie-keyed observer registry and fan-out
// dispatcher of spec.md §4.5 (C4). Registration/deregistration takes
// an exclusive lock; dispatch takes a shared lock. Cookie 0 is
// reserved and denotes a vacated slot.
type EventMulticaster struct {
	mu      sync.RWMutex
	nextID  uint64
	slots   []observerSlot
}

// NewEventMulticaster creates an empty multicaster.
func NewEventMulticaster() *EventMulticaster {
	return &EventMulticaster{}
}

// Advise registers observer and returns a non-zero cookie. Safe to
// call concurrently.
func (m *EventMulticaster) Advise(observer Observer) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	cookie := m.nextID
	m.slots = append(m.slots, observerSlot{cookie: cookie, observer: observer})
	return cookie
}

// Unadvise removes the observer registered under cookie. Idempotent;
// returns false if cookie is unknown or already vacated.
func (m *EventMulticaster) Unadvise(cookie uint64) bool {
	if cookie == 0 {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.slots {
		if m.slots[i].cookie == cookie {
			m.slots[i].cookie = 0
			m.slots[i].observer = nil
			return true
		}
	}
	return false
}

// Clear vacates every slot, for manager teardown.
func (m *EventMulticaster) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = nil
}

func (m *EventMulticaster) each(fn func(Observer)) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, slot := range m.slots {
		if slot.observer != nil {
			fn(slot.observer)
		}
	}
}

func (m *EventMulticaster) dispatchItemAdded(item *Item)  { m.each(func(o Observer) { o.OnItemAdded(item) }) }
func (m *EventMulticaster) dispatchUpdate(item *Item)     { m.each(func(o Observer) { o.OnUpdate(item) }) }
func (m *EventMulticaster) dispatchError(item *Item)      { m.each(func(o Observer) { o.OnError(item) }) }
func (m *EventMulticaster) dispatchRegExStarted()         { m.each(func(o Observer) { o.OnRegExStarted() }) }
func (m *EventMulticaster) dispatchRegExCanceled()        { m.each(func(o Observer) { o.OnRegExCanceled() }) }
func (m *EventMulticaster) dispatchRegExCompleted()       { m.each(func(o Observer) { o.OnRegExCompleted() }) }
func (m *EventMulticaster) dispatchRenameStarted()        { m.each(func(o Observer) { o.OnRenameStarted() }) }
func (m *EventMulticaster) dispatchRenameCompleted()      { m.each(func(o Observer) { o.OnRenameCompleted() }) }
