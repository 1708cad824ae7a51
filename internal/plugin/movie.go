package plugin

import (
	"math"
	"os"

	"github.com/rs/zerolog"

	"github.com/Holmesle/sad-monte-carlo/internal/checkpoint"
	"github.com/Holmesle/sad-monte-carlo/internal/events"
	"github.com/Holmesle/sad-monte-carlo/internal/logging"
)

// MovieParams configures movie-frame capture.
type MovieParams struct {
	// MovieTime is the exponential base of the capture schedule: 2.0
	// means a frame every time the move count doubles. nil disables
	// movie capture entirely.
	MovieTime *float64
}

// Movie captures full-state snapshots on an exponential schedule: frame k
// is due at movieTime^k moves. Frames are written as CBOR files named by
// a zero-padded move count, in a directory derived from the checkpoint path.
type Movie struct {
	NopPlugin

	movieTime  *float64
	whichFrame int

	// period caches the next frame's move count as TotalMoves, or Never
	// when capture is disabled.
	period TimeToRun

	runID  string
	logger zerolog.Logger
	pub    events.Publisher
	exit   func(code int)
}

// MovieOption configures a Movie.
type MovieOption func(*Movie)

// WithMoviePublisher attaches an event publisher; frame events are
// published under the given run ID.
func WithMoviePublisher(pub events.Publisher, runID string) MovieOption {
	return func(m *Movie) {
		m.pub = pub
		m.runID = runID
	}
}

// NewMovie creates a Movie from params.
func NewMovie(params MovieParams, opts ...MovieOption) *Movie {
	m := &Movie{
		movieTime: params.MovieTime,
		period:    Never(),
		logger:    logging.Component("movie"),
		exit:      os.Exit,
	}
	if params.MovieTime != nil {
		m.period = TotalMoves(1)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ShallISave reports whether a frame is due at exactly this move count.
// On a hit it advances the frame counter past every threshold the manager
// may have skipped and caches the next target.
func (m *Movie) ShallISave(moves uint64) bool {
	if m.movieTime == nil {
		return false
	}
	if m.period != TotalMoves(moves) {
		return false
	}

	whichFrame := m.whichFrame + 1
	nextTime := uint64(math.Pow(*m.movieTime, float64(whichFrame)) + 0.5)
	for nextTime <= moves {
		whichFrame++
		nextTime = uint64(math.Pow(*m.movieTime, float64(whichFrame)) + 0.5)
	}
	m.whichFrame = whichFrame
	m.period = TotalMoves(nextTime)
	return true
}

// SaveFrame writes one frame of the movie. Any failure to create or write
// the frame is fatal: a long-running simulation must never silently
// continue past a failed persistence attempt.
func (m *Movie) SaveFrame(saveAs string, moves uint64, system System) {
	dir := checkpoint.FrameDir(saveAs)
	path := checkpoint.FramePath(saveAs, moves)
	m.logger.Info().Str("path", path).Msg("saving movie frame")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.logger.WithLevel(zerolog.FatalLevel).Err(err).Str("dir", dir).Msg("failed to create movie directory")
		m.exit(1)
		return
	}
	if err := checkpoint.Write(path, system); err != nil {
		m.logger.WithLevel(zerolog.FatalLevel).Err(err).Str("path", path).Msg("failed to write movie frame")
		m.exit(1)
		return
	}

	if m.pub != nil {
		ev := events.New(m.runID, events.TypeFrameSaved, moves)
		ev.Path = path
		m.pub.Publish(ev)
	}
}

// Run captures a frame when one is due and requests a save.
func (m *Movie) Run(host Host, system System) Action {
	if m.ShallISave(host.NumMoves()) {
		m.SaveFrame(host.SaveAs(), host.NumMoves(), system)
		return ActionSave
	}
	return ActionNone
}

// RunPeriod reports the cached next-frame target.
func (m *Movie) RunPeriod() TimeToRun {
	return m.period
}

// MovieSnapshot is the Movie state carried in checkpoints. Unlike the
// other plugins, the whole schedule is persisted: frame numbering must
// continue across a resume or frames would be overwritten.
type MovieSnapshot struct {
	MovieTime  *float64  `cbor:"movie_time,omitempty" json:"movie_time,omitempty"`
	WhichFrame int       `cbor:"which_frame" json:"which_frame"`
	Period     TimeToRun `cbor:"period" json:"period"`
}

// Snapshot returns the persistent movie state.
func (m *Movie) Snapshot() MovieSnapshot {
	return MovieSnapshot{
		MovieTime:  m.movieTime,
		WhichFrame: m.whichFrame,
		Period:     m.period,
	}
}

// RestoreMovie rebuilds a Movie from a checkpoint snapshot.
func RestoreMovie(snap MovieSnapshot, opts ...MovieOption) *Movie {
	m := &Movie{
		movieTime:  snap.MovieTime,
		whichFrame: snap.WhichFrame,
		period:     snap.Period,
		logger:     logging.Component("movie"),
		exit:       os.Exit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
