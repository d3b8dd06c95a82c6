package core

// workerKind distinguishes the messages a worker goroutine posts back to
// the Manager's dispatch loop. This channel-based handoff replaces the
// PostMessage/message-window pump in
// original_source/SmartRenameManager.cpp, per spec.md §9's redesign note.
type workerKind int

const (
	workerItemUpdated workerKind = iota
	workerRegExStarted
	workerRegExCanceled
	workerRegExCompleted
	workerRenameStarted
	workerRenameCompleted
)

// workerMessage is the single message type posted by the preview and
// commit workers. Only the fields relevant to kind are populated.
type workerMessage struct {
	kind   workerKind
	itemID int
	result *RenameBatchResult
}
