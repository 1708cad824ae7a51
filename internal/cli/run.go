package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Holmesle/sad-monte-carlo/internal/events"
	"github.com/Holmesle/sad-monte-carlo/internal/ledger"
	"github.com/Holmesle/sad-monte-carlo/internal/plugin"
	"github.com/Holmesle/sad-monte-carlo/internal/sim"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a new simulation",
		Long:  "Starts a fresh two-wells simulation and drives it until a completion target is reached or the process is interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyRunFlags(cmd)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("create directories: %w", err)
			}

			runID := ledger.NewRunID()
			r := newRunner(cfg, runID)
			defer r.close()

			ctx := context.Background()
			r.openLedger(ctx)

			w := sim.New(cfg.SimParams(), runID)
			report := plugin.NewReport(cfg.ReportParams())
			save := plugin.NewSave(cfg.SaveParams())
			movie := plugin.NewMovie(cfg.MovieParams(), plugin.WithMoviePublisher(r.pub, runID))
			w.AttachPlugins(report, save, movie)

			r.logger.Info().
				Str("save_as", cfg.Run.SaveAs).
				Int64("seed", cfg.Run.Seed).
				Float64("temperature", cfg.Run.Temperature).
				Msg("starting simulation")
			r.pub.Publish(events.New(runID, events.TypeRunStarted, 0))

			r.loop(w, []plugin.Plugin{report, save, movie})
			return nil
		},
	}
	addParamFlags(cmd)
	return cmd
}

// addParamFlags registers the simulation parameter flags shared by run and
// resume. Flags override the loaded config only when explicitly set.
func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().String("save-as", "", "base path for checkpoint and movie output")
	cmd.Flags().Int64("seed", 0, "random seed for the proposal generator")
	cmd.Flags().Float64("temperature", 0, "Metropolis acceptance temperature")
	cmd.Flags().Float64("translation-scale", 0, "proposal step width")
	cmd.Flags().Uint64("max-iter", 0, "stop after this many moves")
	cmd.Flags().Uint64("max-independent-samples", 0, "stop after this many independent samples")
	cmd.Flags().Bool("quiet", false, "suppress progress reports")
	cmd.Flags().Float64("save-time", 0, "target hours between checkpoints (0 disables the time budget)")
	cmd.Flags().Float64("movie-time", 0, "exponential movie frame base (>1 enables movie capture)")
	cmd.Flags().Bool("no-ledger", false, "disable the run ledger")
}

func applyRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("save-as") {
		cfg.Run.SaveAs, _ = flags.GetString("save-as")
	}
	if flags.Changed("seed") {
		cfg.Run.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("temperature") {
		cfg.Run.Temperature, _ = flags.GetFloat64("temperature")
	}
	if flags.Changed("translation-scale") {
		cfg.Run.TranslationScale, _ = flags.GetFloat64("translation-scale")
	}
	if flags.Changed("max-iter") {
		cfg.Report.MaxIter, _ = flags.GetUint64("max-iter")
	}
	if flags.Changed("max-independent-samples") {
		cfg.Report.MaxIndependentSamples, _ = flags.GetUint64("max-independent-samples")
	}
	if flags.Changed("quiet") {
		cfg.Report.Quiet, _ = flags.GetBool("quiet")
	}
	if flags.Changed("save-time") {
		cfg.Save.SaveTime, _ = flags.GetFloat64("save-time")
	}
	if flags.Changed("movie-time") {
		cfg.Movie.MovieTime, _ = flags.GetFloat64("movie-time")
	}
	if flags.Changed("no-ledger") {
		noLedger, _ := flags.GetBool("no-ledger")
		cfg.Ledger.Enabled = !noLedger
	}
}
