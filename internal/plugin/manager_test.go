package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_FastPathSkipsPlugins(t *testing.T) {
	host := &fakeHost{}
	system := &fakeSystem{}
	p := &recordingPlugin{action: ActionNone, period: Every(10)}
	m := NewManager()

	// First call always dispatches and caches the plugin's period.
	host.moves = 1
	m.Dispatch(host, system, []Plugin{p})
	require.Equal(t, 1, p.runs)
	require.Equal(t, uint64(10), m.period)

	// The next nine calls stay on the fast path.
	for i := 0; i < 9; i++ {
		host.moves++
		m.Dispatch(host, system, []Plugin{p})
	}
	require.Equal(t, 1, p.runs)

	// The tenth reaches the cached period and dispatches again.
	host.moves++
	m.Dispatch(host, system, []Plugin{p})
	require.Equal(t, 2, p.runs)
}

func TestManager_LivenessCeiling(t *testing.T) {
	host := &fakeHost{moves: 1}
	system := &fakeSystem{}
	p := &recordingPlugin{action: ActionNone, period: Never()}
	m := NewManager()

	m.Dispatch(host, system, []Plugin{p})

	// Every plugin said Never, so the dispatch period falls back to the
	// hard ceiling instead of stalling forever.
	require.Equal(t, uint64(1)<<40, m.period)
}

func TestManager_PeriodIsMinimumOverPlugins(t *testing.T) {
	host := &fakeHost{moves: 10}
	system := &fakeSystem{}
	every := &recordingPlugin{period: Every(100)}
	total := &recordingPlugin{period: TotalMoves(17)}
	stale := &recordingPlugin{period: TotalMoves(3)} // already passed
	m := NewManager()

	m.Dispatch(host, system, []Plugin{every, total, stale})

	// TotalMoves(17) at move 10 means 7 moves from now; the stale
	// TotalMoves(3) contributes nothing.
	require.Equal(t, uint64(7), m.period)
}

func TestManager_LogRunsConsistencyCheckFirst(t *testing.T) {
	host := &fakeHost{moves: 1}
	system := &fakeSystem{}
	p := &recordingPlugin{action: ActionLog}
	m := NewManager()

	m.Dispatch(host, system, []Plugin{p})

	require.Equal(t, 1, system.verified)
	require.Equal(t, 1, p.logs)
	require.Zero(t, host.checkpoints)
	require.Zero(t, p.saves)
}

func TestManager_SaveImpliesLog(t *testing.T) {
	host := &fakeHost{moves: 1}
	system := &fakeSystem{}
	p := &recordingPlugin{action: ActionSave}
	m := NewManager()

	m.Dispatch(host, system, []Plugin{p})

	require.Equal(t, 1, system.verified)
	require.Equal(t, 1, p.logs)
	require.Equal(t, 1, host.checkpoints)
	require.Equal(t, 1, p.saves)
}

func TestManager_ExitImpliesSaveAndLog(t *testing.T) {
	host := &fakeHost{moves: 1}
	system := &fakeSystem{}
	p := &recordingPlugin{action: ActionExit}

	exitCode := -1
	m := NewManager(WithExitFunc(func(code int) { exitCode = code }))

	m.Dispatch(host, system, []Plugin{p})

	require.Equal(t, 0, exitCode)
	require.Equal(t, 1, system.verified)
	require.Equal(t, 1, p.logs)
	require.Equal(t, 1, host.checkpoints)
	require.Equal(t, 1, p.saves)
}

func TestManager_MergesMostUrgentAction(t *testing.T) {
	host := &fakeHost{moves: 1}
	system := &fakeSystem{}
	quiet := &recordingPlugin{action: ActionNone}
	saver := &recordingPlugin{action: ActionSave}
	m := NewManager()

	m.Dispatch(host, system, []Plugin{quiet, saver})

	// The merged Save action triggers every plugin's log and save hooks,
	// not just the requester's.
	require.Equal(t, 1, quiet.logs)
	require.Equal(t, 1, quiet.saves)
	require.Equal(t, 1, host.checkpoints)
}

func TestManager_NoActionNoSideEffects(t *testing.T) {
	host := &fakeHost{moves: 1}
	system := &fakeSystem{}
	p := &recordingPlugin{action: ActionNone}
	m := NewManager()

	m.Dispatch(host, system, []Plugin{p})

	require.Zero(t, system.verified)
	require.Zero(t, p.logs)
	require.Zero(t, p.saves)
	require.Zero(t, host.checkpoints)
}

// One Save plugin with no time target and an initial threshold of 1,
// driven for five moves, advances its threshold by pure doubling.
func TestManager_SaveBackoffScenario(t *testing.T) {
	host := &fakeHost{saveAs: "test.cbor"}
	system := &fakeSystem{}
	s := NewSave(SaveParams{SaveTime: nil})
	m := NewManager()

	require.Equal(t, uint64(1), s.NextOutput())

	// The first move exceeds the initial period of 1 and dispatches.
	host.moves = 1
	m.Dispatch(host, system, []Plugin{s})
	require.Equal(t, 1, host.checkpoints)

	for host.moves < 5 {
		host.moves++
		m.Dispatch(host, system, []Plugin{s})
	}

	// Exercise the threshold advance directly: each hit doubles.
	require.True(t, s.ShallISave(2))
	require.Equal(t, uint64(2), s.NextOutput())
	require.True(t, s.ShallISave(3))
	require.Equal(t, uint64(4), s.NextOutput())
	require.False(t, s.ShallISave(4))
	require.Equal(t, uint64(4), s.NextOutput())
}

func TestManager_ConsistencyFailureAborts(t *testing.T) {
	host := &fakeHost{moves: 1, saveAs: "test.cbor"}
	system := &fakeSystem{verifyErr: errEnergyMismatch}
	p := &recordingPlugin{action: ActionSave}
	exitCode := -1
	m := NewManager(WithExitFunc(func(code int) { exitCode = code }))

	m.Dispatch(host, system, []Plugin{p})

	require.Equal(t, 1, exitCode)
	require.Equal(t, 1, system.verified)

	// A failed consistency check stops the cycle before any log or save
	// hook can observe the corrupted state.
	require.Zero(t, p.logs)
	require.Zero(t, p.saves)
	require.Zero(t, host.checkpoints)
}
