// Package store keeps the results of analysis runs in a SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id            TEXT PRIMARY KEY,
		traj              TEXT NOT NULL,
		frames            BIGINT,
		created_at        BIGINT
	);
	CREATE TABLE IF NOT EXISTS descriptors (
		run_id            TEXT NOT NULL,
		name              TEXT NOT NULL,
		frame             BIGINT NOT NULL,
		value             DOUBLE,
		PRIMARY KEY (run_id, name, frame),
		FOREIGN KEY(run_id) REFERENCES runs(run_id)
	);
	CREATE TABLE IF NOT EXISTS selections (
		run_id            TEXT NOT NULL,
		kind              TEXT NOT NULL,
		frame             BIGINT,
		mode              DOUBLE,
		PRIMARY KEY (run_id, kind),
		FOREIGN KEY(run_id) REFERENCES runs(run_id)
	);
`

// Run is one analysis of a trajectory.
type Run struct {
	RunID     string
	Traj      string
	Frames    int
	CreatedAt int64
}

// Selection is a representative frame chosen during a run. Kind names the
// descriptor(s) it was chosen on, such as "rms" or "rc1rc2".
type Selection struct {
	RunID string
	Kind  string
	Frame int
	Mode  float64
}

// Store is a results database.
type Store struct {
	db *sql.DB
}

// Open opens (and creates when needed) the database stored in path.
// ":memory:" gives an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection, so that ":memory:" is a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertRun persists r. If RunID is empty, a UUID is generated.
func (s *Store) InsertRun(r *Run) error {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixNano()
	}

	_, err := s.db.Exec(`INSERT INTO runs (run_id, traj, frames, created_at) VALUES (?, ?, ?, ?)`,
		r.RunID, r.Traj, r.Frames, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Run returns the run runID.
func (s *Store) Run(runID string) (*Run, error) {
	r := &Run{}
	err := s.db.QueryRow(`SELECT run_id, traj, frames, created_at FROM runs WHERE run_id = ?`, runID).
		Scan(&r.RunID, &r.Traj, &r.Frames, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	return r, nil
}

// InsertSeries persists a descriptor series of a run, one row per frame.
func (s *Store) InsertSeries(runID, name string, values []float64) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`INSERT INTO descriptors (run_id, name, frame, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, v := range values {
		if _, err = stmt.Exec(runID, name, i, v); err != nil {
			return fmt.Errorf("insert %s frame %d: %w", name, i, err)
		}
	}
	return tx.Commit()
}

// Series returns the descriptor series name of a run ordered by frame.
func (s *Store) Series(runID, name string) ([]float64, error) {
	rows, err := s.db.Query(`SELECT value FROM descriptors WHERE run_id = ? AND name = ? ORDER BY frame`, runID, name)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// InsertSelection persists a representative frame.
func (s *Store) InsertSelection(sel Selection) error {
	_, err := s.db.Exec(`INSERT INTO selections (run_id, kind, frame, mode) VALUES (?, ?, ?, ?)`,
		sel.RunID, sel.Kind, sel.Frame, sel.Mode)
	if err != nil {
		return fmt.Errorf("insert selection: %w", err)
	}
	return nil
}

// Selections returns the representative frames of a run ordered by kind.
func (s *Store) Selections(runID string) ([]Selection, error) {
	rows, err := s.db.Query(`SELECT run_id, kind, frame, mode FROM selections WHERE run_id = ? ORDER BY kind`, runID)
	if err != nil {
		return nil, fmt.Errorf("query selections: %w", err)
	}
	defer rows.Close()

	var out []Selection
	for rows.Next() {
		var sel Selection
		if err := rows.Scan(&sel.RunID, &sel.Kind, &sel.Frame, &sel.Mode); err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, rows.Err()
}
