// Package cli implements the mcsim command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Holmesle/sad-monte-carlo/internal/config"
	"github.com/Holmesle/sad-monte-carlo/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mcsim",
		Short:         "Monte Carlo simulation runner",
		Long:          "mcsim runs flat-histogram style Monte Carlo simulations with periodic reporting, checkpointing, and movie capture.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, loader, err := loadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded

			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if logFormat != "" {
				cfg.Logging.Format = logFormat
			}
			logCfg := logging.Config{
				Level:        cfg.Logging.Level,
				Format:       cfg.Logging.Format,
				EnableCaller: cfg.Logging.EnableCaller,
			}
			if cfg.Logging.File != "" {
				f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				logCfg.Output = f
			}
			logging.Init(logCfg)
			if used := loader.ConfigFileUsed(); used != "" {
				cliLog := logging.Component("cli")
				cliLog.Debug().Str("config_file", used).Msg("loaded config file")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/mcsim/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override logging format (json, console)")

	cmd.AddCommand(
		newRunCmd(),
		newResumeCmd(),
		newLedgerCmd(),
	)

	return cmd
}

func loadConfig(path string) (*config.Config, *config.Loader, error) {
	loader := config.NewLoader()
	if path != "" {
		loader.SetConfigFile(path)
	}
	cfg, err := loader.Load()
	return cfg, loader, err
}
