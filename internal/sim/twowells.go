// Package sim provides the Monte Carlo engine surface the scheduling core
// drives, plus a small reference sampler used by the CLI and tests.
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/Holmesle/sad-monte-carlo/internal/checkpoint"
	"github.com/Holmesle/sad-monte-carlo/internal/logging"
	"github.com/Holmesle/sad-monte-carlo/internal/plugin"
)

// Params configures a TwoWells engine.
type Params struct {
	// Seed seeds the proposal RNG.
	Seed int64

	// Temperature sets the Metropolis acceptance temperature.
	Temperature float64

	// TranslationScale is the proposal step width.
	TranslationScale float64

	// SaveAs is the base path for checkpoint and movie artifacts.
	SaveAs string
}

// DefaultParams returns a reasonable sampler configuration.
func DefaultParams() Params {
	return Params{
		Seed:             1,
		Temperature:      0.5,
		TranslationScale: 0.05,
		SaveAs:           "two-wells.cbor",
	}
}

// State is the resumable portion of the sampler, as stored in checkpoints.
type State struct {
	Position   float64 `cbor:"position" json:"position"`
	Energy     float64 `cbor:"energy" json:"energy"`
	Moves      uint64  `cbor:"moves" json:"moves"`
	Accepted   uint64  `cbor:"accepted" json:"accepted"`
	RoundTrips uint64  `cbor:"round_trips" json:"round_trips"`
	LastWell   int8    `cbor:"last_well" json:"last_well"`
}

// Checkpoint is the full resumable snapshot written to the save-as path:
// the sampler state plus the persistent portion of every plugin.
type Checkpoint struct {
	RunID  string                `cbor:"run_id" json:"run_id"`
	Seed   int64                 `cbor:"seed" json:"seed"`
	State  State                 `cbor:"state" json:"state"`
	Report plugin.ReportSnapshot `cbor:"report" json:"report"`
	Save   plugin.SaveSnapshot   `cbor:"save" json:"save"`
	Movie  plugin.MovieSnapshot  `cbor:"movie" json:"movie"`
}

// TwoWells samples a one-dimensional double-well energy landscape with a
// Gaussian random-walk proposal and Metropolis acceptance. It exists to
// exercise the scheduling core end to end; the physics is deliberately
// tiny. Independent samples are estimated as completed well-to-well round
// trips, the slowest decorrelating motion this landscape has.
type TwoWells struct {
	params Params
	state  State
	rng    *rand.Rand
	runID  string

	report *plugin.Report
	save   *plugin.Save
	movie  *plugin.Movie

	logger zerolog.Logger
	exit   func(code int)
}

// New creates a TwoWells engine at the bottom of the left well.
func New(params Params, runID string) *TwoWells {
	w := &TwoWells{
		params: params,
		rng:    rand.New(rand.NewSource(params.Seed)),
		runID:  runID,
		logger: logging.WithRun("sim", runID),
		exit:   os.Exit,
	}
	w.state.Position = -1
	w.state.Energy = wellEnergy(w.state.Position)
	w.state.LastWell = -1
	return w
}

// AttachPlugins registers the plugins whose persistent state rides along
// in checkpoints. Any of them may be nil.
func (w *TwoWells) AttachPlugins(report *plugin.Report, save *plugin.Save, movie *plugin.Movie) {
	w.report = report
	w.save = save
	w.movie = movie
}

// wellEnergy is the double-well potential (x^2 - 1)^2, with minima at ±1
// and a unit barrier at the origin.
func wellEnergy(x float64) float64 {
	d := x*x - 1
	return d * d
}

// MoveOnce proposes one Gaussian displacement and accepts or rejects it
// by the Metropolis criterion.
func (w *TwoWells) MoveOnce() {
	w.state.Moves++

	proposal := w.state.Position + w.rng.NormFloat64()*w.params.TranslationScale
	newEnergy := wellEnergy(proposal)
	de := newEnergy - w.state.Energy
	if de <= 0 || w.rng.Float64() < math.Exp(-de/w.params.Temperature) {
		w.state.Position = proposal
		w.state.Energy = newEnergy
		w.state.Accepted++

		// A round trip completes each time we cross from the well we
		// last fully visited into the opposite one.
		well := int8(0)
		switch {
		case w.state.Position < -0.5:
			well = -1
		case w.state.Position > 0.5:
			well = 1
		}
		if well != 0 && well != w.state.LastWell {
			if w.state.LastWell != 0 {
				w.state.RoundTrips++
			}
			w.state.LastWell = well
		}
	}
}

// NumMoves returns the total number of moves taken so far.
func (w *TwoWells) NumMoves() uint64 { return w.state.Moves }

// NumAcceptedMoves returns how many moves were accepted.
func (w *TwoWells) NumAcceptedMoves() uint64 { return w.state.Accepted }

// IndependentSamples estimates decorrelated observations as completed
// round trips between the wells.
func (w *TwoWells) IndependentSamples() uint64 { return w.state.RoundTrips }

// SaveAs returns the base path for checkpoint and movie artifacts.
func (w *TwoWells) SaveAs() string { return w.params.SaveAs }

// RunID returns the run identifier.
func (w *TwoWells) RunID() string { return w.runID }

// State returns a copy of the sampler state.
func (w *TwoWells) State() State { return w.state }

// snapshot assembles the full resumable snapshot: sampler state plus the
// persistent portion of every attached plugin.
func (w *TwoWells) snapshot() Checkpoint {
	snap := Checkpoint{
		RunID: w.runID,
		Seed:  w.params.Seed,
		State: w.state,
	}
	if w.report != nil {
		snap.Report = w.report.Snapshot()
	}
	if w.save != nil {
		snap.Save = w.save.Snapshot()
	}
	if w.movie != nil {
		snap.Movie = w.movie.Snapshot()
	}
	return snap
}

// MarshalCBOR encodes the full engine snapshot. Movie frames and
// checkpoints share this representation, so a frame is itself resumable.
func (w *TwoWells) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(w.snapshot())
}

// Checkpoint atomically persists the full resumable state. Failure to
// persist is fatal: silently continuing past a failed save would leave a
// long run unresumable without anyone noticing.
func (w *TwoWells) Checkpoint() {
	snap := w.snapshot()
	if err := checkpoint.Write(w.params.SaveAs, &snap); err != nil {
		w.logger.WithLevel(zerolog.FatalLevel).Err(err).Str("path", w.params.SaveAs).Msg("failed to write checkpoint")
		w.exit(1)
	}
}

// VerifyEnergy recomputes the energy from the position and compares it to
// the cached value.
func (w *TwoWells) VerifyEnergy() error {
	expected := wellEnergy(w.state.Position)
	if math.Abs(expected-w.state.Energy) > 1e-9 {
		return fmt.Errorf("cached energy %v does not match recomputed %v at x=%v",
			w.state.Energy, expected, w.state.Position)
	}
	return nil
}

// ErrNoCheckpoint is returned by Resume when the save-as path is absent.
var ErrNoCheckpoint = errors.New("no checkpoint to resume from")

// Resume rebuilds an engine from the checkpoint at params.SaveAs. The RNG
// is reseeded from the stored seed and move count; plugin snapshots are
// returned so the caller can rebuild the plugins around fresh transients.
func Resume(params Params) (*TwoWells, *Checkpoint, error) {
	var snap Checkpoint
	if err := checkpoint.Read(params.SaveAs, &snap); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoCheckpoint, err)
	}

	w := &TwoWells{
		params: params,
		state:  snap.State,
		rng:    rand.New(rand.NewSource(snap.Seed + int64(snap.State.Moves))),
		runID:  snap.RunID,
		logger: logging.WithRun("sim", snap.RunID),
		exit:   os.Exit,
	}
	w.params.Seed = snap.Seed
	return w, &snap, nil
}
