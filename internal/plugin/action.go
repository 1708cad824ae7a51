package plugin

// Action is what a plugin asks the manager to do in a dispatch cycle.
// Actions are totally ordered by urgency; Exit implies Save implies Log.
type Action int

const (
	// ActionNone means nothing special need be done.
	ActionNone Action = iota

	// ActionLog requests that interesting information be logged.
	ActionLog

	// ActionSave requests a checkpoint.
	ActionSave

	// ActionExit requests that the simulation terminate.
	ActionExit
)

// And merges two actions; the more urgent one wins.
func (a Action) And(other Action) Action {
	if other > a {
		return other
	}
	return a
}

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionLog:
		return "log"
	case ActionSave:
		return "save"
	case ActionExit:
		return "exit"
	default:
		return "unknown"
	}
}

// TimeToRunKind tags a TimeToRun value.
type TimeToRunKind uint8

const (
	// RunNever means the plugin never needs to run.
	RunNever TimeToRunKind = iota

	// RunTotalMoves means the plugin needs to run once the total move
	// count reaches Count.
	RunTotalMoves

	// RunEvery means the plugin needs to run every Count moves.
	RunEvery
)

// TimeToRun is a plugin's declared upper bound on how long it can go
// without being invoked again. It is persisted inside checkpoints, so
// the field layout is part of the checkpoint format.
type TimeToRun struct {
	Kind  TimeToRunKind `cbor:"kind" json:"kind"`
	Count uint64        `cbor:"count,omitempty" json:"count,omitempty"`
}

// Never reports that a plugin never needs to run.
func Never() TimeToRun {
	return TimeToRun{Kind: RunNever}
}

// TotalMoves requests a run once the total move count reaches n.
func TotalMoves(n uint64) TimeToRun {
	return TimeToRun{Kind: RunTotalMoves, Count: n}
}

// Every requests a run every n moves.
func Every(n uint64) TimeToRun {
	return TimeToRun{Kind: RunEvery, Count: n}
}
