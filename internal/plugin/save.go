package plugin

import "time"

// SaveParams configures the checkpoint schedule.
type SaveParams struct {
	// SaveTime is the target real time between saves, in hours
	// (nil = no time target, pure exponential backoff by move count).
	SaveTime *float64
}

// DefaultSaveParams returns the default schedule of one save per hour.
func DefaultSaveParams() SaveParams {
	oneHour := 1.0
	return SaveParams{SaveTime: &oneHour}
}

// Save schedules checkpoints at an adaptive real-time interval: it
// estimates the move rate from elapsed wall-clock time and converts the
// target interval into a move count, ramping up exponentially while the
// rate estimate is still unreliable.
type Save struct {
	NopPlugin

	// nextOutput is the next move count at which a save is due.
	// Monotonically non-decreasing.
	nextOutput uint64

	// When and at what move count the run started.
	startTime  time.Time
	startMoves uint64

	saveTimeSeconds *float64
}

// NewSave creates a Save from params, capturing the wall-clock baseline now.
func NewSave(params SaveParams) *Save {
	return &Save{
		nextOutput:      1,
		startTime:       time.Now(),
		startMoves:      0,
		saveTimeSeconds: hoursToSeconds(params.SaveTime),
	}
}

// UpdateFrom lets a resuming simulation pick up a new save interval
// without discarding its scheduling state.
func (s *Save) UpdateFrom(params SaveParams) {
	s.saveTimeSeconds = hoursToSeconds(params.SaveTime)
}

// NextOutput returns the next move count at which a save is due.
func (s *Save) NextOutput() uint64 {
	return s.nextOutput
}

// ShallISave reports whether a save is due at this move count, and if so
// also advances the schedule. Run deliberately does not call this: Run
// only tests the existing threshold, so the manager can classify the
// cycle's action before any plugin mutates its schedule; the threshold
// advances when the manager later calls Save.
func (s *Save) ShallISave(moves uint64) bool {
	savePlease := moves > s.nextOutput
	if savePlease {
		// We are definitely saving now, and also decide when to save next.
		if s.saveTimeSeconds != nil {
			runtime := time.Since(s.startTime).Seconds()
			timePerMove := runtime / float64(moves-s.startMoves)
			movesPerPeriod := 1 + uint64(*s.saveTimeSeconds/timePerMove)
			if movesPerPeriod < moves {
				s.nextOutput = moves + movesPerPeriod
			} else if float64(moves)+1.0 < 1.0/timePerMove {
				s.nextOutput = uint64(1.0 / timePerMove)
			} else {
				s.nextOutput = moves * 2
			}
		} else {
			s.nextOutput *= 2
		}
	}
	return savePlease
}

// Run requests a save once the scheduled move count is reached.
func (s *Save) Run(host Host, _ System) Action {
	if host.NumMoves() >= s.nextOutput {
		return ActionSave
	}
	return ActionNone
}

// RunPeriod reports the scheduled save point.
func (s *Save) RunPeriod() TimeToRun {
	return TotalMoves(s.nextOutput)
}

// Save advances the schedule now that the checkpoint has been written.
func (s *Save) Save(host Host, _ System) {
	s.ShallISave(host.NumMoves())
}

// SaveSnapshot is the portion of Save state carried in checkpoints. The
// schedule itself is transient and cheap to rebuild on resume.
type SaveSnapshot struct {
	SaveTimeSeconds *float64 `cbor:"save_time_seconds,omitempty" json:"save_time_seconds,omitempty"`
}

// Snapshot returns the persistent portion of the save state.
func (s *Save) Snapshot() SaveSnapshot {
	return SaveSnapshot{SaveTimeSeconds: s.saveTimeSeconds}
}

// resumeHorizon is the move horizon the save schedule bootstraps with
// after a resume, before a fresh rate estimate exists.
const resumeHorizon = 1 << 20

// RestoreSave rebuilds a Save from a checkpoint snapshot with a fresh
// wall-clock baseline at the given move count.
func RestoreSave(snap SaveSnapshot, moves uint64) *Save {
	return &Save{
		nextOutput:      moves + resumeHorizon,
		startTime:       time.Now(),
		startMoves:      moves,
		saveTimeSeconds: snap.SaveTimeSeconds,
	}
}

func hoursToSeconds(hours *float64) *float64 {
	if hours == nil {
		return nil
	}
	secs := *hours * 60 * 60
	return &secs
}
