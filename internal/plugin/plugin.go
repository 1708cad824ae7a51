// Package plugin implements the scheduling core that surrounds a Monte
// Carlo move loop: a set of independently-configured plugins (progress
// reports, checkpoints, movie frames) and a manager that amortizes their
// cost so the per-move overhead stays O(1).
package plugin

// Host is the surface a Monte Carlo engine exposes to its plugins.
// All methods are read-only except Checkpoint, which atomically persists
// the engine's full resumable state.
type Host interface {
	// NumMoves returns the total number of moves taken so far. Monotonic.
	NumMoves() uint64

	// NumAcceptedMoves returns how many moves were accepted.
	NumAcceptedMoves() uint64

	// IndependentSamples estimates how many decorrelated observations
	// have been collected. Monotonic.
	IndependentSamples() uint64

	// Checkpoint atomically persists the full resumable state.
	Checkpoint()

	// SaveAs returns the base path for checkpoint and movie artifacts.
	SaveAs() string
}

// System is the simulated physical system.
type System interface {
	// VerifyEnergy recomputes the system's energy bookkeeping from
	// scratch and returns an error if it has diverged. A failure here
	// invalidates all subsequent statistics and is treated as fatal.
	VerifyEnergy() error
}

// A Plugin hooks into the move loop at a frequency it declares itself.
// Plugins receive read access to host and system state; any bookkeeping
// they mutate must be state they alone own.
type Plugin interface {
	// Run decides what, if anything, needs to happen this cycle.
	Run(host Host, system System) Action

	// RunPeriod declares how long the plugin can go without being run
	// again. This is an upper bound, not a lower bound, and may change
	// every time the plugin is called, so it must be cheap.
	RunPeriod() TimeToRun

	// Save is called in response to ActionSave and ActionExit, after
	// the host has checkpointed.
	Save(host Host, system System)

	// Log is called in response to ActionLog, ActionSave and ActionExit.
	Log(host Host, system System)
}

// NopPlugin provides default implementations of every Plugin operation.
// Concrete plugins embed it and override the subset they care about.
type NopPlugin struct{}

// Run does nothing.
func (NopPlugin) Run(Host, System) Action { return ActionNone }

// RunPeriod reports that the plugin never needs to run.
func (NopPlugin) RunPeriod() TimeToRun { return Never() }

// Save does nothing.
func (NopPlugin) Save(Host, System) {}

// Log does nothing.
func (NopPlugin) Log(Host, System) {}
