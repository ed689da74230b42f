package events

import "time"

// EventType identifies the kind of event emitted during a run.
type EventType string

const (
	EventSpecCompiled   EventType = "spec.compiled"
	EventSpecLoaded     EventType = "spec.loaded"
	EventRunStart       EventType = "run.start"
	EventRunVerdict     EventType = "run.verdict"
	EventRunComplete    EventType = "run.complete"
	EventBranchSelected EventType = "branch.selected"
	EventDispatchResult EventType = "dispatch.result"
	EventCrawlComplete  EventType = "crawl.complete"
)

// Event is a single run-lifecycle event.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"runId,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// New creates an Event stamped with the current time.
func New(typ EventType, runID string, data any) Event {
	return Event{
		Type:      typ,
		Timestamp: time.Now(),
		RunID:     runID,
		Data:      data,
	}
}
