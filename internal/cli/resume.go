package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Holmesle/sad-monte-carlo/internal/events"
	"github.com/Holmesle/sad-monte-carlo/internal/plugin"
	"github.com/Holmesle/sad-monte-carlo/internal/sim"
)

func newResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a checkpointed simulation",
		Long:  "Restores the sampler and its plugins from the checkpoint at the save-as path and continues the run. Parameter flags passed here override the checkpointed values.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyRunFlags(cmd)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("create directories: %w", err)
			}

			w, cp, err := sim.Resume(cfg.SimParams())
			if err != nil {
				if errors.Is(err, sim.ErrNoCheckpoint) {
					return fmt.Errorf("no checkpoint at %s; use 'mcsim run' to start fresh", cfg.Run.SaveAs)
				}
				return fmt.Errorf("resume: %w", err)
			}

			r := newRunner(cfg, cp.RunID)
			defer r.close()

			ctx := context.Background()
			r.openLedger(ctx)

			moves := w.NumMoves()
			report := plugin.RestoreReport(cp.Report, moves)
			save := plugin.RestoreSave(cp.Save, moves)
			movie := plugin.RestoreMovie(cp.Movie, plugin.WithMoviePublisher(r.pub, cp.RunID))

			// Checkpointed parameters win unless this invocation overrides them.
			flags := cmd.Flags()
			if flags.Changed("max-iter") || flags.Changed("max-independent-samples") || flags.Changed("quiet") {
				report.UpdateFrom(cfg.ReportParams())
			}
			if flags.Changed("save-time") {
				save.UpdateFrom(cfg.SaveParams())
			}

			w.AttachPlugins(report, save, movie)

			r.logger.Info().
				Str("save_as", cfg.Run.SaveAs).
				Uint64("moves", moves).
				Msg("resuming simulation")
			r.pub.Publish(events.New(cp.RunID, events.TypeRunResumed, moves))

			r.loop(w, []plugin.Plugin{report, save, movie})
			return nil
		},
	}
	addParamFlags(cmd)
	return cmd
}
