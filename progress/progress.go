// Package progress delivers build progress to a consumer-supplied sink.
//
// Events carry an enumerated Stage rather than free-form text, so consumers
// map progress to a fraction by tag instead of matching on wording. The
// human-readable message is an annotation only.
package progress

import "sync"

// Stage identifies a pipeline phase.
type Stage int

const (
	StageValidate Stage = iota + 1
	StageStaging
	StageRender
	StageCreateImage
	StageMount
	StageStyle
	StageUnmount
	StageCompress
	// StageToolOutput carries verbatim output from an external tool run. It
	// is emitted between the surrounding stage events and, on failure, before
	// the error propagates.
	StageToolOutput
	StageDone
)

// String returns a stable label for the stage.
func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validate"
	case StageStaging:
		return "staging"
	case StageRender:
		return "render"
	case StageCreateImage:
		return "create-image"
	case StageMount:
		return "mount"
	case StageStyle:
		return "style"
	case StageUnmount:
		return "unmount"
	case StageCompress:
		return "compress"
	case StageToolOutput:
		return "tool-output"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is a single progress notification.
type Event struct {
	Stage   Stage
	Message string
}

// Sink receives progress events. A nil Sink discards them.
type Sink func(Event)

// Reporter serializes event delivery through a single dispatcher goroutine:
// the sink is only ever invoked from that goroutine, in submission order, so
// consumers can update shared state without their own locking.
type Reporter struct {
	events chan Event

	once sync.Once
	done chan struct{}
}

// NewReporter starts a reporter dispatching to sink. Close must be called to
// drain and release the dispatcher.
func NewReporter(sink Sink) *Reporter {
	r := &Reporter{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for event := range r.events {
			if sink != nil {
				sink(event)
			}
		}
	}()
	return r
}

// Report submits an event for ordered delivery.
func (r *Reporter) Report(stage Stage, message string) {
	if r == nil {
		return
	}
	r.events <- Event{Stage: stage, Message: message}
}

// Close drains pending events and stops the dispatcher. It is safe to call
// more than once.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		close(r.events)
	})
	<-r.done
}
