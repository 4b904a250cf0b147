// Package runstore persists Run records and their event logs (SPEC_FULL.md's
// [SUPPLEMENT] Run type) to SQLite, grounded on the teacher's
// internal/db.NewSQLite/Store (single serialized connection, goose
// migrations) generalized from chat sessions to agent runs.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nebolabs/webagent/internal/events"
	"github.com/nebolabs/webagent/internal/runstore/migrations"
)

// Status is a Run's terminal or in-progress state.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Run is one recorded task execution.
type Run struct {
	ID        string
	Task      string
	Plan      string
	Status    Status
	Answer    string
	Error     string
	StartedAt time.Time
	EndedAt   *time.Time
}

// EventRecord is one persisted entry of a Run's event log.
type EventRecord struct {
	RunID     string
	Type      events.Type
	Payload   json.RawMessage
	Timestamp int64
}

// Store is the run-history sink. A single *sql.DB connection is shared and
// serialized (MaxOpenConns=1), matching the teacher's "SQLite doesn't handle
// concurrent writers well" rationale in internal/db/sqlite.go.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at cfg.SQLitePath and runs
// pending migrations. An empty path opens an in-memory database, useful for
// tests and one-shot CLI invocations that don't need persistence across
// process restarts.
func Open(cfg Config) (*Store, error) {
	path := cfg.SQLitePath
	dsn := ":memory:"
	if path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create run store directory: %w", err)
			}
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping run store: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		return nil, fmt.Errorf("migrate run store: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// CreateRun inserts a new run row in the running state.
func (s *Store) CreateRun(ctx context.Context, id, task string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, task, status, started_at) VALUES (?, ?, ?, ?)`,
		id, task, StatusRunning, time.Now().UnixMilli())
	return err
}

// SetPlan records the planner's output against an already-created run.
func (s *Store) SetPlan(ctx context.Context, id, plan string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET plan = ? WHERE id = ?`, plan, id)
	return err
}

// Finish marks a run terminal with the final status, answer, and optional
// error message.
func (s *Store) Finish(ctx context.Context, id string, status Status, answer, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, answer = ?, error = ?, ended_at = ? WHERE id = ?`,
		status, answer, errMsg, time.Now().UnixMilli(), id)
	return err
}

// AppendEvent persists one event envelope against run id.
func (s *Store) AppendEvent(ctx context.Context, runID string, env events.Envelope) error {
	payload, err := json.Marshal(env.Data)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_events (run_id, type, payload, timestamp_ms) VALUES (?, ?, ?, ?)`,
		runID, string(env.Type), string(payload), env.Timestamp)
	return err
}

// GetRun loads a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, task, plan, status, answer, error, started_at, ended_at FROM runs WHERE id = ?`, id)

	var (
		r                    Run
		plan, answer, errMsg sql.NullString
		startedAtMS          int64
		endedAtMS            sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.Task, &plan, &r.Status, &answer, &errMsg, &startedAtMS, &endedAtMS); err != nil {
		return nil, err
	}
	r.Plan = plan.String
	r.Answer = answer.String
	r.Error = errMsg.String
	r.StartedAt = time.UnixMilli(startedAtMS)
	if endedAtMS.Valid {
		t := time.UnixMilli(endedAtMS.Int64)
		r.EndedAt = &t
	}
	return &r, nil
}

// ListEvents returns a run's event log in emission order.
func (s *Store) ListEvents(ctx context.Context, runID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, type, payload, timestamp_ms FROM run_events WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		var typ, payload string
		if err := rows.Scan(&rec.RunID, &typ, &payload, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Type = events.Type(typ)
		rec.Payload = json.RawMessage(payload)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Sink subscribes a Store to bus, persisting every emitted event against
// runID. It is the "run-history sink" of SPEC_FULL.md §4.9, a second
// OnAll listener alongside the console sink (spec.md's ordering guarantee
// means listener registration order is the console/run-history order).
func (s *Store) Sink(ctx context.Context, bus *events.Bus, runID string) []events.Subscription {
	return bus.OnAll(func(_ context.Context, env events.Envelope) error {
		return s.AppendEvent(ctx, runID, env)
	})
}
