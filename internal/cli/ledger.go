package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Holmesle/sad-monte-carlo/internal/ledger"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the run ledger",
	}
	cmd.AddCommand(
		newLedgerListCmd(),
		newLedgerEventsCmd(),
	)
	return cmd
}

func newLedgerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLedgerStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(context.Background())
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				status := "running"
				ended := ""
				if run.EndedAt != nil {
					status = "completed"
					ended = run.EndedAt.Local().Format(time.RFC3339)
				}
				rows = append(rows, []string{
					run.ID,
					run.SaveAs,
					strconv.FormatInt(run.Seed, 10),
					run.StartedAt.Local().Format(time.RFC3339),
					ended,
					strconv.FormatUint(run.FinalMoves, 10),
					status,
				})
			}
			return writeTable(os.Stdout,
				[]string{"RUN ID", "SAVE AS", "SEED", "STARTED", "ENDED", "MOVES", "STATUS"},
				rows)
		},
	}
}

func newLedgerEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <run-id>",
		Short: "List persistence events for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLedgerStore()
			if err != nil {
				return err
			}
			defer store.Close()

			evs, err := store.ListEvents(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("list events: %w", err)
			}
			if len(evs) == 0 {
				fmt.Printf("No events recorded for run %s.\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(evs))
			for _, ev := range evs {
				elapsed := ""
				if ev.Elapsed > 0 {
					elapsed = ev.Elapsed.String()
				}
				rows = append(rows, []string{
					ev.CreatedAt.Local().Format(time.RFC3339),
					string(ev.Type),
					strconv.FormatUint(ev.Moves, 10),
					ev.Path,
					elapsed,
				})
			}
			return writeTable(os.Stdout,
				[]string{"TIME", "TYPE", "MOVES", "PATH", "ELAPSED"},
				rows)
		},
	}
}

func openLedgerStore() (*ledger.Store, error) {
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("open ledger at %s: %w", cfg.LedgerPath(), err)
	}
	return store, nil
}
