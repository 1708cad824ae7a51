package plugin

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Holmesle/sad-monte-carlo/internal/events"
	"github.com/Holmesle/sad-monte-carlo/internal/format"
	"github.com/Holmesle/sad-monte-carlo/internal/logging"
)

// maxDispatchPeriod bounds how far the manager will let the move loop run
// between dispatch cycles, even if every plugin reports Never. This keeps
// the system observable no matter what the plugins ask for.
const maxDispatchPeriod = uint64(1) << 40

// slowCheckpointThreshold is how long a checkpoint step may take before
// the manager emits a diagnostic.
const slowCheckpointThreshold = 5 * time.Second

// Manager dispatches a fixed set of plugins around a move loop. Its
// Dispatch method is called once per move; almost every call returns after
// a single counter increment, and the rare dispatch cycle merges every
// plugin's decision and recomputes how long it can next stay out of the way.
//
// A Manager is single-writer state: it must only be driven from the thread
// that runs the move loop, and always with the same set of plugins.
type Manager struct {
	// moves counts calls since the last dispatch cycle.
	moves uint64

	// period is the cached dispatch threshold.
	period uint64

	runID  string
	logger zerolog.Logger
	pub    events.Publisher
	exit   func(code int)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPublisher attaches an event publisher; checkpoint and completion
// events are published under the given run ID.
func WithPublisher(pub events.Publisher, runID string) ManagerOption {
	return func(m *Manager) {
		m.pub = pub
		m.runID = runID
	}
}

// WithExitFunc overrides how the manager terminates the process, both for
// a plugin-requested Exit and for a failed consistency check. Tests use
// this to observe termination.
func WithExitFunc(fn func(code int)) ManagerOption {
	return func(m *Manager) {
		m.exit = fn
	}
}

// NewManager creates a plugin manager. The first call to Dispatch always
// runs a full cycle, which seeds the adaptive period from the plugins.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		period: 1,
		logger: logging.Component("plugin-manager"),
		exit:   os.Exit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatch is called once per simulated move. If the cached period has not
// elapsed it returns immediately. Otherwise it runs one dispatch cycle:
// merge every plugin's decision, log and/or checkpoint as requested,
// terminate on Exit, and recompute the dispatch period.
func (m *Manager) Dispatch(host Host, system System, plugins []Plugin) {
	m.moves++
	if m.moves < m.period {
		return
	}
	m.moves = 0

	todo := ActionNone
	for _, p := range plugins {
		todo = todo.And(p.Run(host, system))
	}

	if todo >= ActionLog {
		if err := system.VerifyEnergy(); err != nil {
			m.logger.WithLevel(zerolog.FatalLevel).
				Err(err).
				Uint64("moves", host.NumMoves()).
				Msg("energy bookkeeping diverged from recomputation")
			m.exit(1)
			// Reached only when the exit func is stubbed out in tests.
			return
		}
		for _, p := range plugins {
			p.Log(host, system)
		}
	}

	if todo >= ActionSave {
		start := time.Now()
		host.Checkpoint()
		for _, p := range plugins {
			p.Save(host, system)
		}
		elapsed := time.Since(start)
		if elapsed > slowCheckpointThreshold {
			m.logger.Warn().
				Str("elapsed", format.Duration(uint64(elapsed.Seconds()))).
				Msg("checkpointing is slow")
		}
		if m.pub != nil {
			ev := events.New(m.runID, events.TypeCheckpointSaved, host.NumMoves())
			ev.Path = host.SaveAs()
			ev.Elapsed = elapsed
			m.pub.Publish(ev)
		}
	}

	if todo >= ActionExit {
		if m.pub != nil {
			m.pub.Publish(events.New(m.runID, events.TypeRunCompleted, host.NumMoves()))
		}
		m.exit(0)
		// Reached only when the exit func is stubbed out in tests.
		return
	}

	newPeriod := maxDispatchPeriod
	now := host.NumMoves()
	for _, p := range plugins {
		switch ttr := p.RunPeriod(); ttr.Kind {
		case RunNever:
		case RunTotalMoves:
			if ttr.Count > now && ttr.Count-now < newPeriod {
				newPeriod = ttr.Count - now
			}
		case RunEvery:
			if ttr.Count < newPeriod {
				newPeriod = ttr.Count
			}
		}
	}
	m.period = newPeriod
}
