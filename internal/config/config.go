// Package config handles simulation configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Holmesle/sad-monte-carlo/internal/plugin"
	"github.com/Holmesle/sad-monte-carlo/internal/sim"
)

// Config is the root configuration structure for a simulation run.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Run settings for the sampler itself
	Run RunConfig `yaml:"run" mapstructure:"run"`

	// Report settings (progress output and stop conditions)
	Report ReportConfig `yaml:"report" mapstructure:"report"`

	// Save settings (checkpoint schedule)
	Save SaveConfig `yaml:"save" mapstructure:"save"`

	// Movie settings (snapshot capture schedule)
	Movie MovieConfig `yaml:"movie" mapstructure:"movie"`

	// Ledger settings (run history database)
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir is where run artifacts live when paths are relative
	// (default: ~/.local/share/mcsim).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// RunConfig contains sampler settings.
type RunConfig struct {
	// Seed seeds the proposal RNG.
	Seed int64 `yaml:"seed" mapstructure:"seed"`

	// SaveAs is the base path for checkpoint and movie artifacts.
	SaveAs string `yaml:"save_as" mapstructure:"save_as"`

	// Temperature is the Metropolis acceptance temperature.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`

	// TranslationScale is the proposal step width.
	TranslationScale float64 `yaml:"translation_scale" mapstructure:"translation_scale"`
}

// ReportConfig contains progress-report settings. Zero values mean
// "not configured".
type ReportConfig struct {
	// MaxIter is the maximum number of moves to run (0 = unbounded).
	MaxIter uint64 `yaml:"max_iter" mapstructure:"max_iter"`

	// MaxIndependentSamples is the maximum number of independent samples
	// to find (0 = unbounded).
	MaxIndependentSamples uint64 `yaml:"max_independent_samples" mapstructure:"max_independent_samples"`

	// Quiet suppresses all report output.
	Quiet bool `yaml:"quiet" mapstructure:"quiet"`
}

// SaveConfig contains checkpoint-schedule settings.
type SaveConfig struct {
	// SaveTime is the target real time between saves in hours
	// (0 = no time target, pure exponential backoff by move count).
	SaveTime float64 `yaml:"save_time" mapstructure:"save_time"`
}

// MovieConfig contains movie-capture settings.
type MovieConfig struct {
	// MovieTime is the exponential base of the capture schedule
	// (0 = disabled; 2.0 means a frame every time iterations double).
	MovieTime float64 `yaml:"movie_time" mapstructure:"movie_time"`
}

// LedgerConfig contains run-history settings.
type LedgerConfig struct {
	// Enabled turns run-history recording on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file path (default: DataDir/ledger.db).
	Path string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir: filepath.Join(homeDir, ".local", "share", "mcsim"),
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		Run: RunConfig{
			Seed:             1,
			SaveAs:           "run.cbor",
			Temperature:      0.5,
			TranslationScale: 0.05,
		},
		Report: ReportConfig{
			MaxIter:               0,
			MaxIndependentSamples: 0,
			Quiet:                 false,
		},
		Save: SaveConfig{
			SaveTime: 1.0,
		},
		Movie: MovieConfig{
			MovieTime: 0,
		},
		Ledger: LedgerConfig{
			Enabled: true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Run.SaveAs == "" {
		return fmt.Errorf("run.save_as is required")
	}
	if c.Run.Temperature <= 0 {
		return fmt.Errorf("run.temperature must be positive")
	}
	if c.Run.TranslationScale <= 0 {
		return fmt.Errorf("run.translation_scale must be positive")
	}
	if c.Save.SaveTime < 0 {
		return fmt.Errorf("save.save_time must not be negative")
	}
	if c.Movie.MovieTime != 0 && c.Movie.MovieTime <= 1 {
		return fmt.Errorf("movie.movie_time must be greater than 1")
	}
	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Global.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Global.DataDir, err)
	}
	return nil
}

// LedgerPath returns the full ledger database path.
func (c *Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	return filepath.Join(c.Global.DataDir, "ledger.db")
}

// ReportParams converts the report section into plugin parameters.
func (c *Config) ReportParams() plugin.ReportParams {
	params := plugin.ReportParams{Quiet: c.Report.Quiet}
	if c.Report.MaxIter > 0 {
		maxIter := c.Report.MaxIter
		params.MaxIter = &maxIter
	}
	if c.Report.MaxIndependentSamples > 0 {
		maxSamples := c.Report.MaxIndependentSamples
		params.MaxSamples = &maxSamples
	}
	return params
}

// SaveParams converts the save section into plugin parameters.
func (c *Config) SaveParams() plugin.SaveParams {
	if c.Save.SaveTime <= 0 {
		return plugin.SaveParams{}
	}
	hours := c.Save.SaveTime
	return plugin.SaveParams{SaveTime: &hours}
}

// MovieParams converts the movie section into plugin parameters.
func (c *Config) MovieParams() plugin.MovieParams {
	if c.Movie.MovieTime <= 0 {
		return plugin.MovieParams{}
	}
	base := c.Movie.MovieTime
	return plugin.MovieParams{MovieTime: &base}
}

// SimParams converts the run section into sampler parameters.
func (c *Config) SimParams() sim.Params {
	return sim.Params{
		Seed:             c.Run.Seed,
		Temperature:      c.Run.Temperature,
		TranslationScale: c.Run.TranslationScale,
		SaveAs:           c.Run.SaveAs,
	}
}
