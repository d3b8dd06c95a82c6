package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver is safe for concurrent use: the Manager now
// dispatches preview events from goroutines of its own, so
// tests observing it from the calling goroutine need a lock rather
// than bare slice access.
type recordingObserver struct {
	BaseObserver
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) record(event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

func (o *recordingObserver) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = nil
}

func (o *recordingObserver) OnItemAdded(*Item)  { o.record("added") }
func (o *recordingObserver) OnUpdate(*Item)     { o.record("update") }
func (o *recordingObserver) OnRegExStarted()    { o.record("started") }
func (o *recordingObserver) OnRegExCanceled()   { o.record("canceled") }
func (o *recordingObserver) OnRegExCompleted()  { o.record("completed") }
func (o *recordingObserver) OnRenameStarted()   { o.record("rename_started") }
func (o *recordingObserver) OnRenameCompleted() { o.record("rename_completed") }

func TestEventMulticasterDispatchesToAllObservers(t *testing.T) {
	m := NewEventMulticaster()
	first := &recordingObserver{}
	second := &recordingObserver{}

	m.Advise(first)
	m.Advise(second)

	m.dispatchRegExStarted()
	m.dispatchRegExCompleted()

	assert.Equal(t, []string{"started", "completed"}, first.snapshot())
	assert.Equal(t, []string{"started", "completed"}, second.snapshot())
}

func TestEventMulticasterUnadvise(t *testing.T) {
	m := NewEventMulticaster()
	obs := &recordingObserver{}
	cookie := m.Advise(obs)

	require.True(t, m.Unadvise(cookie))
	assert.False(t, m.Unadvise(cookie), "unadvising an already-vacated cookie fails")
	assert.False(t, m.Unadvise(0), "cookie 0 is reserved and never valid")

	m.dispatchRegExStarted()
	assert.Empty(t, obs.snapshot(), "a removed observer receives nothing further")
}

func TestEventMulticasterCookiesAreMonotonic(t *testing.T) {
	m := NewEventMulticaster()
	c1 := m.Advise(&recordingObserver{})
	c2 := m.Advise(&recordingObserver{})
	assert.Less(t, c1, c2)
	assert.NotZero(t, c1)
}

func TestEventMulticasterClear(t *testing.T) {
	m := NewEventMulticaster()
	obs := &recordingObserver{}
	m.Advise(obs)
	m.Clear()

	m.dispatchRegExStarted()
	assert.Empty(t, obs.snapshot())
}

func TestBaseObserverIsNoOp(t *testing.T) {
	var obs Observer = BaseObserver{}
	obs.OnItemAdded(nil)
	obs.OnUpdate(nil)
	obs.OnError(nil)
	obs.OnRegExStarted()
	obs.OnRegExCanceled()
	obs.OnRegExCompleted()
	obs.OnRenameStarted()
	obs.OnRenameCompleted()
}
