package events

import "time"

// Type categorizes simulation lifecycle events.
type Type string

const (
	// Run lifecycle events
	TypeRunStarted   Type = "run.started"
	TypeRunResumed   Type = "run.resumed"
	TypeRunCompleted Type = "run.completed"

	// Persistence events
	TypeCheckpointSaved Type = "checkpoint.saved"
	TypeFrameSaved      Type = "movie.frame_saved"
)

// Event represents one entry in the simulation's lifecycle log.
type Event struct {
	// RunID identifies the run this event belongs to.
	RunID string `json:"run_id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type Type `json:"type"`

	// Moves is the move count at the time of the event.
	Moves uint64 `json:"moves"`

	// Path is the artifact written, for persistence events.
	Path string `json:"path,omitempty"`

	// Elapsed is how long the triggering step took, when measured.
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// New constructs an event stamped with the current time.
func New(runID string, typ Type, moves uint64) *Event {
	return &Event{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Type:      typ,
		Moves:     moves,
	}
}
