package cli

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Holmesle/sad-monte-carlo/internal/config"
	"github.com/Holmesle/sad-monte-carlo/internal/events"
	"github.com/Holmesle/sad-monte-carlo/internal/ledger"
	"github.com/Holmesle/sad-monte-carlo/internal/logging"
	"github.com/Holmesle/sad-monte-carlo/internal/plugin"
	"github.com/Holmesle/sad-monte-carlo/internal/sim"
)

// runner owns the wiring shared by the run and resume commands: the event
// publisher, the optional ledger, and the move loop itself.
type runner struct {
	cfg    *config.Config
	runID  string
	logger zerolog.Logger

	pub   *events.InMemoryPublisher
	store *ledger.Store
}

func newRunner(cfg *config.Config, runID string) *runner {
	return &runner{
		cfg:    cfg,
		runID:  runID,
		logger: logging.WithRun("runner", runID),
		pub:    events.NewInMemoryPublisher(),
	}
}

// openLedger opens the run ledger and subscribes it to this run's events.
// Ledger failures are reported but never block the simulation.
func (r *runner) openLedger(ctx context.Context) {
	if !r.cfg.Ledger.Enabled {
		return
	}
	store, err := ledger.Open(r.cfg.LedgerPath())
	if err != nil {
		r.logger.Warn().Err(err).Str("path", r.cfg.LedgerPath()).Msg("ledger unavailable, continuing without it")
		return
	}
	r.store = store

	if err := store.RecordRunStarted(ctx, r.runID, r.cfg.Run.SaveAs, r.cfg.Run.Seed); err != nil {
		r.logger.Warn().Err(err).Msg("failed to record run start")
	}
	if err := store.Attach(r.pub, r.runID); err != nil {
		r.logger.Warn().Err(err).Msg("failed to attach ledger to event stream")
	}
	err = r.pub.Subscribe("ledger-complete:"+r.runID, events.Filter{
		RunID: r.runID,
		Types: []events.Type{events.TypeRunCompleted},
	}, func(ev *events.Event) {
		if err := store.CompleteRun(context.Background(), ev.RunID, ev.Moves); err != nil {
			r.logger.Warn().Err(err).Msg("failed to mark run complete")
		}
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to subscribe completion recorder")
	}
}

func (r *runner) close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to close ledger")
		}
	}
	r.pub.Close()
}

// loop drives the sampler until a plugin requests exit or the process is
// interrupted. On interrupt it writes a final checkpoint so the run can be
// resumed.
func (r *runner) loop(w *sim.TwoWells, plugins []plugin.Plugin) {
	mgr := plugin.NewManager(plugin.WithPublisher(r.pub, r.runID))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var interrupted atomic.Bool
	go func() {
		<-sigCh
		interrupted.Store(true)
	}()

	for !interrupted.Load() {
		w.MoveOnce()
		mgr.Dispatch(w, w, plugins)
	}

	r.logger.Info().Uint64("moves", w.NumMoves()).Msg("interrupted, writing checkpoint")
	w.Checkpoint()
	ev := events.New(r.runID, events.TypeCheckpointSaved, w.NumMoves())
	ev.Path = w.SaveAs()
	r.pub.Publish(ev)
}
