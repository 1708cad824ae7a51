package plugin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func uintPtr(v uint64) *uint64 { return &v }

func TestReport_AmAllDone(t *testing.T) {
	tests := []struct {
		name    string
		params  ReportParams
		moves   uint64
		samples uint64
		want    bool
	}{
		{
			name:   "below move target",
			params: ReportParams{MaxIter: uintPtr(100), Quiet: true},
			moves:  99, samples: 0,
			want: false,
		},
		{
			name:   "at move target",
			params: ReportParams{MaxIter: uintPtr(100), Quiet: true},
			moves:  100, samples: 0,
			want: true,
		},
		{
			name:   "past move target",
			params: ReportParams{MaxIter: uintPtr(100), Quiet: true},
			moves:  101, samples: 0,
			want: true,
		},
		{
			name:   "no targets configured",
			params: ReportParams{Quiet: true},
			moves:  1 << 50, samples: 1 << 50,
			want: false,
		},
		{
			name:   "sample target alone suffices",
			params: ReportParams{MaxIter: uintPtr(1000), MaxSamples: uintPtr(10), Quiet: true},
			moves:  5, samples: 10,
			want: true,
		},
		{
			name:   "move target alone suffices",
			params: ReportParams{MaxIter: uintPtr(100), MaxSamples: uintPtr(1000), Quiet: true},
			moves:  100, samples: 0,
			want: true,
		},
		{
			name:   "neither target reached",
			params: ReportParams{MaxIter: uintPtr(100), MaxSamples: uintPtr(10), Quiet: true},
			moves:  99, samples: 9,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReport(tt.params)
			if got := r.AmAllDone(tt.moves, tt.samples); got != tt.want {
				t.Errorf("AmAllDone(%d, %d) = %v, want %v", tt.moves, tt.samples, got, tt.want)
			}
		})
	}
}

func TestReport_RunExitsWhenDone(t *testing.T) {
	r := NewReport(ReportParams{MaxIter: uintPtr(100), Quiet: true})

	require.Equal(t, ActionNone, r.Run(&fakeHost{moves: 99}, nil))
	require.Equal(t, ActionExit, r.Run(&fakeHost{moves: 100}, nil))
}

func TestReport_RunPeriodIsMoveTargetOnly(t *testing.T) {
	r := NewReport(ReportParams{MaxIter: uintPtr(100), MaxSamples: uintPtr(10), Quiet: true})
	require.Equal(t, TotalMoves(100), r.RunPeriod())

	// Without a move target the manager is not informed of any schedule;
	// sample completion is only noticed on dispatches triggered by others.
	r = NewReport(ReportParams{MaxSamples: uintPtr(10), Quiet: true})
	require.Equal(t, Never(), r.RunPeriod())
}

func TestReport_PrintQuiet(t *testing.T) {
	r := NewReport(ReportParams{MaxIter: uintPtr(100), Quiet: true})
	var buf strings.Builder
	r.SetOutput(&buf)

	r.Print(50, 0)
	require.Empty(t, buf.String())
}

func TestReport_PrintWithMoveTarget(t *testing.T) {
	r := NewReport(ReportParams{MaxIter: uintPtr(200)})
	var buf strings.Builder
	r.SetOutput(&buf)

	r.Print(50, 0)
	out := buf.String()
	require.Contains(t, out, "25% complete")
	require.Contains(t, out, "us per move")
	require.True(t, strings.HasSuffix(out, "\n"))
}

func TestReport_PrintWithoutTarget(t *testing.T) {
	r := NewReport(ReportParams{})
	var buf strings.Builder
	r.SetOutput(&buf)

	r.Print(50, 0)
	out := buf.String()
	require.NotContains(t, out, "complete")
	require.Contains(t, out, "us per move")
}

func TestReport_PrintWithSampleTarget(t *testing.T) {
	r := NewReport(ReportParams{MaxSamples: uintPtr(20)})
	var buf strings.Builder
	r.SetOutput(&buf)

	r.Print(1000, 5)
	out := buf.String()
	require.Contains(t, out, "25% done")
	require.Contains(t, out, "per sample")
}

func TestReport_SavePrintsAcceptance(t *testing.T) {
	r := NewReport(ReportParams{})
	var buf strings.Builder
	r.SetOutput(&buf)

	r.Save(&fakeHost{moves: 200, accepted: 100}, nil)
	require.Contains(t, buf.String(), "Accepted 100/200 = 50% of the moves")

	buf.Reset()
	r.Quiet = true
	r.Save(&fakeHost{moves: 200, accepted: 100}, nil)
	require.Empty(t, buf.String())
}

func TestReport_UpdateFrom(t *testing.T) {
	r := NewReport(ReportParams{MaxIter: uintPtr(100), Quiet: true})
	r.UpdateFrom(ReportParams{MaxIter: uintPtr(500), MaxSamples: uintPtr(50), Quiet: false})

	require.Equal(t, TotalMoves(500), r.RunPeriod())
	require.False(t, r.Quiet)
	require.False(t, r.AmAllDone(100, 0))
	require.True(t, r.AmAllDone(500, 0))
	require.True(t, r.AmAllDone(0, 50))
}

func TestReport_SnapshotRoundTrip(t *testing.T) {
	r := NewReport(ReportParams{MaxIter: uintPtr(100), MaxSamples: uintPtr(10), Quiet: true})
	snap := r.Snapshot()

	restored := RestoreReport(snap, 42)
	require.Equal(t, TotalMoves(100), restored.RunPeriod())
	require.True(t, restored.Quiet)
	require.True(t, restored.AmAllDone(0, 10))
	require.Equal(t, uint64(42), restored.startMoves)
}
