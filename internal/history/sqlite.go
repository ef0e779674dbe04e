// Package history keeps a local record of launches in SQLite so operators can
// see what was submitted from this machine and how each wrapper exited.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/saalfeldlab/n5-spark-launcher/internal/job"
	"github.com/saalfeldlab/n5-spark-launcher/internal/report"
)

// Status of a recorded launch
const (
	StatusRunning     = "running"
	StatusFinished    = "finished"
	StatusSpawnFailed = "spawn_failed"
	StatusFailed      = "failed"
)

// ErrLaunchNotFound is returned when a launch ID is not in the store.
var ErrLaunchNotFound = errors.New("launch not found")

// Launch is one row of the history.
type Launch struct {
	ID         string     `json:"id" yaml:"id"`
	Job        string     `json:"job" yaml:"job"`
	Nodes      int        `json:"nodes" yaml:"nodes"`
	Wrapper    string     `json:"wrapper" yaml:"wrapper"`
	Args       []string   `json:"args" yaml:"args"`
	Status     string     `json:"status" yaml:"status"`
	PID        int        `json:"pid,omitempty" yaml:"pid,omitempty"`
	ExitCode   *int       `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	ExitReason string     `json:"exit_reason,omitempty" yaml:"exit_reason,omitempty"`
	Error      string     `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Store is a SQLite-backed launch history
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and creates if needed) the history database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	// WAL + busy timeout: two launchers started at once must not fail on a lock
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS launches (
		id TEXT PRIMARY KEY,
		job TEXT NOT NULL,
		nodes INTEGER NOT NULL,
		wrapper TEXT NOT NULL,
		args TEXT NOT NULL,
		status TEXT NOT NULL,
		pid INTEGER,
		exit_code INTEGER,
		exit_reason TEXT,
		error TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_launches_started ON launches(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordStart inserts a running launch
func (s *Store) RecordStart(id string, inv *job.Invocation, startedAt time.Time) error {
	args, err := json.Marshal(inv.Args)
	if err != nil {
		return fmt.Errorf("failed to marshal args: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO launches (id, job, nodes, wrapper, args, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, inv.Job, inv.Nodes, inv.Path, string(args), StatusRunning, startedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record launch %s: %w", id, err)
	}
	return nil
}

// RecordResult marks a launch finished
func (s *Store) RecordResult(r *report.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE launches
		SET status = ?, pid = ?, exit_code = ?, exit_reason = ?, finished_at = ?
		WHERE id = ?
	`, StatusFinished, r.PID, r.ExitCode, r.ExitReason, r.EndTime.UTC(), r.LaunchID)
	if err != nil {
		return fmt.Errorf("failed to update launch %s: %w", r.LaunchID, err)
	}
	return expectOneRow(res, r.LaunchID)
}

// RecordFailure marks a launch that produced no result, with status
// StatusSpawnFailed or StatusFailed
func (s *Store) RecordFailure(id, status string, cause error, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE launches SET status = ?, error = ?, finished_at = ? WHERE id = ?
	`, status, cause.Error(), at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update launch %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

// Get returns a single launch
func (s *Store) Get(id string) (*Launch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT id, job, nodes, wrapper, args, status, pid, exit_code, exit_reason, error, started_at, finished_at
		FROM launches WHERE id = ?
	`, id)
	l, err := scanLaunch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLaunchNotFound, id)
	}
	return l, err
}

// Recent returns up to limit launches, newest first
func (s *Store) Recent(limit int) ([]*Launch, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, job, nodes, wrapper, args, status, pid, exit_code, exit_reason, error, started_at, finished_at
		FROM launches ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query launches: %w", err)
	}
	defer rows.Close()

	var launches []*Launch
	for rows.Next() {
		l, err := scanLaunch(rows)
		if err != nil {
			return nil, err
		}
		launches = append(launches, l)
	}
	return launches, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLaunch(row scanner) (*Launch, error) {
	var (
		l          Launch
		args       string
		pid        sql.NullInt64
		exitCode   sql.NullInt64
		exitReason sql.NullString
		errText    sql.NullString
		finishedAt sql.NullTime
	)

	err := row.Scan(&l.ID, &l.Job, &l.Nodes, &l.Wrapper, &args, &l.Status,
		&pid, &exitCode, &exitReason, &errText, &l.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(args), &l.Args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args of %s: %w", l.ID, err)
	}
	if pid.Valid {
		l.PID = int(pid.Int64)
	}
	if exitCode.Valid {
		code := int(exitCode.Int64)
		l.ExitCode = &code
	}
	l.ExitReason = exitReason.String
	l.Error = errText.String
	if finishedAt.Valid {
		t := finishedAt.Time
		l.FinishedAt = &t
	}
	return &l, nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrLaunchNotFound, id)
	}
	return nil
}
