package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/Holmesle/sad-monte-carlo/internal/config"
)

func newFlagTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	addParamFlags(cmd)
	return cmd
}

func TestApplyRunFlags_OverridesOnlyChanged(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.Run.SaveAs = "from-config.cbor"
	cfg.Report.MaxIter = 500

	cmd := newFlagTestCmd()
	require.NoError(t, cmd.Flags().Parse([]string{
		"--seed", "42",
		"--max-independent-samples", "10",
		"--quiet",
	}))
	applyRunFlags(cmd)

	require.Equal(t, int64(42), cfg.Run.Seed)
	require.Equal(t, uint64(10), cfg.Report.MaxIndependentSamples)
	require.True(t, cfg.Report.Quiet)

	// Untouched flags leave config values alone.
	require.Equal(t, "from-config.cbor", cfg.Run.SaveAs)
	require.Equal(t, uint64(500), cfg.Report.MaxIter)
	require.Equal(t, 1.0, cfg.Save.SaveTime)
}

func TestApplyRunFlags_NoLedger(t *testing.T) {
	cfg = config.DefaultConfig()
	require.True(t, cfg.Ledger.Enabled)

	cmd := newFlagTestCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--no-ledger"}))
	applyRunFlags(cmd)
	require.False(t, cfg.Ledger.Enabled)
}

func TestApplyRunFlags_ZeroDisablesSaveTime(t *testing.T) {
	cfg = config.DefaultConfig()

	cmd := newFlagTestCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--save-time", "0"}))
	applyRunFlags(cmd)

	require.Equal(t, 0.0, cfg.Save.SaveTime)
	require.Nil(t, cfg.SaveParams().SaveTime)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd("test")
	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"run", "resume", "ledger"} {
		require.True(t, names[want], "missing subcommand %s", want)
	}
}
