package plugin

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/Holmesle/sad-monte-carlo/internal/format"
)

// ReportParams configures progress reporting and the stop conditions that
// are part of it.
type ReportParams struct {
	// MaxIter is the maximum number of moves to run (nil = unbounded).
	MaxIter *uint64

	// MaxSamples is the maximum number of independent samples to find
	// (nil = unbounded).
	MaxSamples *uint64

	// Quiet suppresses all report output.
	Quiet bool
}

// Report estimates progress and decides when the simulation is done, by
// move count, independent-sample count, or both.
type Report struct {
	maxIter    TimeToRun
	maxSamples *uint64

	// When and at what move count the run started. Captured once at
	// construction and never reset.
	startTime  time.Time
	startMoves uint64

	// Quiet suppresses all report output.
	Quiet bool

	out io.Writer
}

// NewReport creates a Report from params, capturing the wall-clock
// baseline now.
func NewReport(params ReportParams) *Report {
	r := &Report{
		maxIter:    Never(),
		maxSamples: params.MaxSamples,
		startTime:  time.Now(),
		startMoves: 0,
		Quiet:      params.Quiet,
		out:        os.Stdout,
	}
	if params.MaxIter != nil {
		r.maxIter = TotalMoves(*params.MaxIter)
	}
	return r
}

// UpdateFrom lets a resuming simulation pick up new report parameters
// without discarding its scheduling state.
func (r *Report) UpdateFrom(params ReportParams) {
	r.maxIter = Never()
	if params.MaxIter != nil {
		r.maxIter = TotalMoves(*params.MaxIter)
	}
	r.maxSamples = params.MaxSamples
	r.Quiet = params.Quiet
}

// SetOutput redirects report output, which defaults to stdout.
func (r *Report) SetOutput(w io.Writer) {
	r.out = w
}

// Print writes one progress line: percent complete, elapsed time,
// projected time remaining and the measured move rate, plus a sample
// projection when a sample target is configured.
func (r *Report) Print(moves, independentSamples uint64) {
	if r.Quiet {
		return
	}
	runtime := time.Since(r.startTime)
	timePerMove := runtime.Seconds() / float64(moves-r.startMoves)

	if r.maxIter.Kind == RunTotalMoves {
		max := r.maxIter.Count
		fracComplete := float64(moves) / float64(max)
		var movesLeft uint64
		if max >= moves {
			movesLeft = max - moves
		}
		timeLeft := uint64(timePerMove * float64(movesLeft))
		fmt.Fprintf(r.out, "[%s] %d%% complete after %s (%s left, %.1fus per move)",
			prettyFloat(float64(moves)),
			int(100*fracComplete),
			format.Duration(uint64(runtime.Seconds())),
			format.Duration(timeLeft),
			timePerMove*1e6,
		)
	} else {
		fmt.Fprintf(r.out, "[%s] after %s (%.1fus per move)",
			prettyFloat(float64(moves)),
			format.Duration(uint64(runtime.Seconds())),
			timePerMove*1e6,
		)
	}

	if r.maxSamples != nil {
		max := *r.maxSamples
		fracComplete := float64(independentSamples) / float64(max)
		var samplesLeft uint64
		if max >= independentSamples {
			samplesLeft = max - independentSamples
		}
		// The +1 avoids dividing by zero before any sample exists.
		movesPerSample := float64(moves) / (1.0 + float64(independentSamples))
		timeLeft := uint64(timePerMove * float64(samplesLeft) * movesPerSample)
		timePerSample := timePerMove * movesPerSample
		if timePerSample < 2.0 {
			fmt.Fprintf(r.out, "%d%% done (%s left, %.2f s per sample)\n",
				int(100*fracComplete),
				format.Duration(timeLeft),
				timePerSample,
			)
		} else {
			fmt.Fprintf(r.out, "%d%% done (%s left, %s per sample)\n",
				int(100*fracComplete),
				format.Duration(timeLeft),
				format.Duration(uint64(timePerSample)),
			)
		}
	} else {
		fmt.Fprintln(r.out)
	}
}

// AmAllDone reports whether either configured target has been reached.
// The move target and the sample target are independent; reaching either
// one alone finishes the run.
func (r *Report) AmAllDone(moves, independentSamples uint64) bool {
	if r.maxIter.Kind == RunTotalMoves && moves >= r.maxIter.Count {
		return true
	}
	if r.maxSamples != nil {
		return independentSamples >= *r.maxSamples
	}
	return false
}

// Run requests Exit once either stop condition is met.
func (r *Report) Run(host Host, _ System) Action {
	if r.AmAllDone(host.NumMoves(), host.IndependentSamples()) {
		return ActionExit
	}
	return ActionNone
}

// RunPeriod reports the move-count target only. The sample target has no
// schedule of its own, so sample-based completion is picked up whenever
// the manager dispatches for some other reason.
func (r *Report) RunPeriod() TimeToRun {
	return r.maxIter
}

// Log prints a progress line.
func (r *Report) Log(host Host, _ System) {
	r.Print(host.NumMoves(), host.IndependentSamples())
}

// Save prints an acceptance-ratio summary.
func (r *Report) Save(host Host, _ System) {
	if r.Quiet {
		return
	}
	accepted := host.NumAcceptedMoves()
	moves := host.NumMoves()
	fmt.Fprintf(r.out, "        Accepted %s/%s = %.0f%% of the moves\n",
		prettyFloat(float64(accepted)),
		prettyFloat(float64(moves)),
		100.0*float64(accepted)/float64(moves),
	)
}

// ReportSnapshot is the portion of Report state carried in checkpoints.
// The wall-clock baseline is transient and reinitialized on resume.
type ReportSnapshot struct {
	MaxIter    TimeToRun `cbor:"max_iter" json:"max_iter"`
	MaxSamples *uint64   `cbor:"max_independent_samples,omitempty" json:"max_independent_samples,omitempty"`
	Quiet      bool      `cbor:"quiet" json:"quiet"`
}

// Snapshot returns the persistent portion of the report state.
func (r *Report) Snapshot() ReportSnapshot {
	return ReportSnapshot{
		MaxIter:    r.maxIter,
		MaxSamples: r.maxSamples,
		Quiet:      r.Quiet,
	}
}

// RestoreReport rebuilds a Report from a checkpoint snapshot with a fresh
// wall-clock baseline at the given move count.
func RestoreReport(snap ReportSnapshot, moves uint64) *Report {
	return &Report{
		maxIter:    snap.MaxIter,
		maxSamples: snap.MaxSamples,
		startTime:  time.Now(),
		startMoves: moves,
		Quiet:      snap.Quiet,
		out:        os.Stdout,
	}
}

// prettyFloat renders large counts compactly: 1e+06 rather than 1000000.
func prettyFloat(v float64) string {
	abs := math.Abs(v)
	if abs >= 1e4 || (abs > 0 && abs < 1e-3) {
		return fmt.Sprintf("%.3g", v)
	}
	return fmt.Sprintf("%v", v)
}
