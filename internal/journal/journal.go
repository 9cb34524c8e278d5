// Package journal keeps a local sqlite record of the Minion jobs this client
// followed. It is a history for the user; job state is always fetched fresh
// from the server and never read back from here.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lanraragi/lrrctl/internal/model"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyFinished = errors.New("already finished")
)

type Entry struct {
	ID            int
	JobID         model.JobID
	Kind          string
	InProgress    bool
	Success       *bool
	FailureReason *string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

func (e Entry) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("job: %q, kind: %q, in_progress: %t", e.JobID, e.Kind, e.InProgress))
	if e.Success != nil {
		sb.WriteString(fmt.Sprintf(", success: %t", *e.Success))
	} else {
		sb.WriteString(", success: nil")
	}
	if e.FailureReason != nil {
		sb.WriteString(fmt.Sprintf(", failure_reason: %q", *e.FailureReason))
	}
	return sb.String()
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database file and its parent directory when missing.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite has a single writer
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			in_progress BOOLEAN NOT NULL,
			success BOOLEAN DEFAULT NULL,
			failure_reason TEXT DEFAULT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER DEFAULT NULL
		)`,
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func rollback(ctx context.Context, tx *sql.Tx, id model.JobID) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.ErrorContext(ctx, "Calling `tx.Rollback()` failed.", slog.String("job_id", id.String()))
	}
}

// Started records that job id is being followed. Following a finished job
// again reopens its entry.
func (s *Store) Started(ctx context.Context, id model.JobID, kind string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(ctx, tx, id)

	var inProgress bool
	err = tx.QueryRowContext(ctx,
		`SELECT in_progress FROM jobs WHERE job_id=?`, id.String(),
	).Scan(&inProgress)
	switch {
	case err == nil && inProgress:
		return nil
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE jobs
			 SET
				kind = ?,
				in_progress = true,
				success = NULL,
				failure_reason = NULL,
				started_at = ?,
				finished_at = NULL
			WHERE job_id = ?;
			`, kind, s.now().UnixMilli(), id.String(),
		)
		if err != nil {
			return fmt.Errorf("executing sql update failed: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO jobs (job_id, kind, in_progress, started_at) VALUES (?,?,?,?);`,
			id.String(), kind, true, s.now().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("executing sql insert failed: %w", err)
		}
	default:
		return fmt.Errorf("executing sql query failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction failed: %w", err)
	}
	return nil
}

// Finished records the outcome of job id, a nil jobErr is a success.
// ErrNotFound is returned for a job which was never started and
// ErrAlreadyFinished when the outcome is already known.
func (s *Store) Finished(ctx context.Context, id model.JobID, jobErr error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(ctx, tx, id)

	var inProgress bool
	err = tx.QueryRowContext(ctx,
		`SELECT in_progress FROM jobs WHERE job_id=?`, id.String(),
	).Scan(&inProgress)
	switch {
	case err == nil && !inProgress:
		return ErrAlreadyFinished
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("executing sql query failed: %w", err)
	}

	var reason *string
	if jobErr != nil {
		r := jobErr.Error()
		reason = &r
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE jobs
		 SET
			in_progress = false,
			success = ?,
			failure_reason = ?,
			finished_at = ?
		WHERE job_id = ?;
		`, jobErr == nil, reason, s.now().UnixMilli(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("executing sql update failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction failed: %w", err)
	}
	return nil
}

const selectEntry = `SELECT id, job_id, kind, in_progress, success, failure_reason, started_at, finished_at FROM jobs`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e        Entry
		jobID    string
		started  int64
		finished sql.NullInt64
	)
	err := row.Scan(&e.ID, &jobID, &e.Kind, &e.InProgress, &e.Success, &e.FailureReason, &started, &finished)
	if err != nil {
		return Entry{}, err
	}
	e.JobID = model.JobID(jobID)
	e.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		t := time.UnixMilli(finished.Int64)
		e.FinishedAt = &t
	}
	return e, nil
}

// Get returns the entry of job id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id model.JobID) (Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectEntry+` WHERE job_id=?`, id.String()))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Entry{}, ErrNotFound
	case err != nil:
		return Entry{}, fmt.Errorf("executing sql query failed: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, most recently started first.
// A limit <= 0 returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectEntry+` ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("executing sql query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
