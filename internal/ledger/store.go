// Package ledger records simulation runs and their persistence events in
// a SQLite database, so long-running campaigns can be audited after the
// fact: which runs exist, when they checkpointed, which movie frames were
// captured.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Holmesle/sad-monte-carlo/internal/events"
	"github.com/Holmesle/sad-monte-carlo/internal/logging"
)

// Store is a SQLite-backed run ledger.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID         string
	SaveAs     string
	Seed       int64
	StartedAt  time.Time
	EndedAt    *time.Time
	FinalMoves uint64
}

// EventRecord is one persistence event recorded for a run.
type EventRecord struct {
	RunID     string
	Type      events.Type
	Moves     uint64
	Path      string
	Elapsed   time.Duration
	CreatedAt time.Time
}

// NewRunID generates a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to ledger database: %w", err)
	}

	store := &Store{db: db, logger: logging.Component("ledger")}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			save_as TEXT NOT NULL,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			final_moves INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS run_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			type TEXT NOT NULL,
			moves INTEGER NOT NULL,
			path TEXT,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS run_events_run_idx ON run_events(run_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize ledger schema: %w", err)
		}
	}
	return nil
}

// RecordRunStarted registers a new run.
func (s *Store) RecordRunStarted(ctx context.Context, runID, saveAs string, seed int64) error {
	if s == nil || s.db == nil {
		return errors.New("ledger unavailable")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO runs (id, save_as, seed, started_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, runID, saveAs, seed, now)
		if err != nil {
			return fmt.Errorf("failed to record run start: %w", err)
		}
		return nil
	})
}

// RecordEvent appends one lifecycle event to the ledger.
func (s *Store) RecordEvent(ctx context.Context, ev *events.Event) error {
	if s == nil || s.db == nil {
		return errors.New("ledger unavailable")
	}
	if ev == nil {
		return errors.New("nil event")
	}
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO run_events (run_id, type, moves, path, elapsed_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, ev.RunID, string(ev.Type), ev.Moves, ev.Path, ev.Elapsed.Milliseconds(),
			ev.Timestamp.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to record run event: %w", err)
		}
		return nil
	})
}

// CompleteRun marks a run finished at the given move count.
func (s *Store) CompleteRun(ctx context.Context, runID string, finalMoves uint64) error {
	if s == nil || s.db == nil {
		return errors.New("ledger unavailable")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE runs SET ended_at = ?, final_moves = ? WHERE id = ?
		`, now, finalMoves, runID)
		if err != nil {
			return fmt.Errorf("failed to complete run: %w", err)
		}
		return nil
	})
}

// ListRuns returns all recorded runs, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("ledger unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, save_as, seed, started_at, ended_at, final_moves
		FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			rec        RunRecord
			startedRaw string
			endedRaw   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.SaveAs, &rec.Seed, &startedRaw, &endedRaw, &rec.FinalMoves); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		rec.StartedAt = parseTime(startedRaw)
		if endedRaw.Valid {
			ended := parseTime(endedRaw.String)
			rec.EndedAt = &ended
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run query error: %w", err)
	}
	return runs, nil
}

// ListEvents returns the events recorded for one run, oldest first.
func (s *Store) ListEvents(ctx context.Context, runID string) ([]EventRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("ledger unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, type, moves, path, elapsed_ms, created_at
		FROM run_events WHERE run_id = ? ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run events: %w", err)
	}
	defer rows.Close()

	var recs []EventRecord
	for rows.Next() {
		var (
			rec        EventRecord
			typ        string
			path       sql.NullString
			elapsedMs  int64
			createdRaw string
		)
		if err := rows.Scan(&rec.RunID, &typ, &rec.Moves, &path, &elapsedMs, &createdRaw); err != nil {
			return nil, fmt.Errorf("failed to scan run event: %w", err)
		}
		rec.Type = events.Type(typ)
		rec.Path = path.String
		rec.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		rec.CreatedAt = parseTime(createdRaw)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run event query error: %w", err)
	}
	return recs, nil
}

// Attach subscribes the ledger to a publisher so lifecycle events are
// recorded as they happen. Recording is best effort: a ledger failure is
// logged but never interferes with checkpointing.
func (s *Store) Attach(pub events.Publisher, runID string) error {
	return pub.Subscribe("ledger:"+runID, events.Filter{RunID: runID}, func(ev *events.Event) {
		if err := s.RecordEvent(context.Background(), ev); err != nil {
			s.logger.Warn().Err(err).Str("run_id", ev.RunID).Msg("failed to record event")
		}
	})
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
