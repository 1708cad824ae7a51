package plugin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSave_RunTestsWithoutAdvancing(t *testing.T) {
	s := NewSave(SaveParams{SaveTime: nil})
	host := &fakeHost{moves: 5}

	// Run only tests the threshold; the schedule must not move until the
	// manager calls Save.
	require.Equal(t, ActionSave, s.Run(host, nil))
	require.Equal(t, uint64(1), s.NextOutput())

	s.Save(host, nil)
	require.Equal(t, uint64(2), s.NextOutput())
}

func TestSave_RunBelowThreshold(t *testing.T) {
	s := NewSave(SaveParams{SaveTime: nil})
	s.nextOutput = 100
	host := &fakeHost{moves: 99}

	require.Equal(t, ActionNone, s.Run(host, nil))
	require.Equal(t, TotalMoves(100), s.RunPeriod())
}

func TestSave_NextOutputMonotonic(t *testing.T) {
	s := NewSave(SaveParams{SaveTime: nil})
	prev := s.NextOutput()
	for moves := uint64(2); moves < 1<<20; moves *= 3 {
		if s.ShallISave(moves) {
			require.GreaterOrEqual(t, s.NextOutput(), prev)
			prev = s.NextOutput()
		}
	}
}

func TestSave_AdaptiveIntervalSteadyState(t *testing.T) {
	interval := 1.0 // hours
	s := NewSave(SaveParams{SaveTime: &interval})

	// Simulate a run that has done 10^9 moves in one hour: the rate
	// estimate is solid and one interval's worth of moves is far below
	// the move count, so the schedule lands one interval ahead.
	s.startTime = time.Now().Add(-time.Hour)
	s.nextOutput = 1

	moves := uint64(1_000_000_000)
	require.True(t, s.ShallISave(moves))

	// moves_per_period = 1 + interval/time_per_move ~= 1e9.
	require.Greater(t, s.NextOutput(), moves)
	require.Less(t, s.NextOutput(), 3*moves)
}

func TestSave_AdaptiveIntervalRampUp(t *testing.T) {
	interval := 1.0
	s := NewSave(SaveParams{SaveTime: &interval})

	// A young, fast run: 1000 moves in ~1ms. One interval's worth of
	// moves dwarfs the move count, and even 1/time_per_move exceeds the
	// bootstrap horizon, so the schedule doubles.
	s.startTime = time.Now().Add(-time.Millisecond)
	s.nextOutput = 1

	before := time.Now()
	require.True(t, s.ShallISave(1000))
	require.WithinDuration(t, before, time.Now(), time.Second)

	// Either the bootstrap branch (1/time_per_move) or the doubling
	// branch fired; both leave the threshold at or above moves*2 here.
	require.GreaterOrEqual(t, s.NextOutput(), uint64(2000))
}

func TestSave_UpdateFromChangesIntervalOnly(t *testing.T) {
	s := NewSave(SaveParams{SaveTime: nil})
	s.nextOutput = 64

	half := 0.5
	s.UpdateFrom(SaveParams{SaveTime: &half})

	require.Equal(t, uint64(64), s.NextOutput())
	require.NotNil(t, s.saveTimeSeconds)
	require.InDelta(t, 1800.0, *s.saveTimeSeconds, 1e-9)
}

func TestSave_SnapshotRoundTrip(t *testing.T) {
	s := NewSave(DefaultSaveParams())
	snap := s.Snapshot()
	require.NotNil(t, snap.SaveTimeSeconds)
	require.InDelta(t, 3600.0, *snap.SaveTimeSeconds, 1e-9)

	restored := RestoreSave(snap, 500)
	require.Equal(t, uint64(500+resumeHorizon), restored.NextOutput())
	require.InDelta(t, 3600.0, *restored.saveTimeSeconds, 1e-9)
}

func TestDefaultSaveParams(t *testing.T) {
	params := DefaultSaveParams()
	require.NotNil(t, params.SaveTime)
	require.Equal(t, 1.0, *params.SaveTime)
}
