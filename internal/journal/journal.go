// Package journal records per-frame decisions in a SQLite database.
//
// Each run is one row in runs, keyed by the runner's UUID, and every
// processed frame adds one row to decisions. The database is plain SQLite
// (modernc.org/sqlite, no cgo) and can be inspected with any SQLite client.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/lane-pilot/internal/config"
	"github.com/ironsheep/lane-pilot/internal/decision"
	"github.com/ironsheep/lane-pilot/internal/pipeline"
)

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		source TEXT,
		config TEXT,
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS decisions (
		decision_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		frame INTEGER NOT NULL,
		command TEXT NOT NULL,
		intent TEXT NOT NULL,
		potholes INTEGER NOT NULL,
		nearest_m DOUBLE,
		boxes INTEGER NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(run_id) REFERENCES runs(run_id)
	);
	CREATE INDEX IF NOT EXISTS decisions_run_frame ON decisions(run_id, frame);
`

// Journal is an open decision database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" is accepted for
// throwaway journals.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// one connection keeps :memory: databases coherent
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Run is one row of the runs table.
type Run struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	Config    string    `json:"config"`
	StartedAt time.Time `json:"started_at"`
}

// Entry is one row of the decisions table.
type Entry struct {
	RunID    string           `json:"run_id"`
	Frame    int              `json:"frame"`
	Command  decision.Command `json:"command"`
	Intent   string           `json:"intent"`
	Potholes int              `json:"potholes"`
	NearestM *float64         `json:"nearest_m"`
	Boxes    int              `json:"boxes"`
}

// StartRun registers a run with the tuning it used.
func (j *Journal) StartRun(ctx context.Context, runID, source string, cfg config.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = j.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, source, config) VALUES (?, ?, ?)",
		runID, source, string(data))
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", runID, err)
	}
	return nil
}

// Record inserts the decision for one frame.
func (j *Journal) Record(ctx context.Context, runID string, res pipeline.Result) error {
	var nearest sql.NullFloat64
	if d, ok := res.Hazard.Nearest(); ok {
		nearest = sql.NullFloat64{Float64: d, Valid: true}
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO decisions (run_id, frame, command, intent, potholes, nearest_m, boxes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Frame, res.Command.String(), res.Intent.String(),
		res.Hazard.Count, nearest, len(res.Boxes))
	if err != nil {
		return fmt.Errorf("failed to record frame %d: %w", res.Frame, err)
	}
	return nil
}

// Runs lists recorded runs, newest first.
func (j *Journal) Runs(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT run_id, source, config, started_at FROM runs ORDER BY started_at DESC, rowid DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Source, &r.Config, &r.StartedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Decisions returns the decisions of one run in frame order.
func (j *Journal) Decisions(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, frame, command, intent, potholes, nearest_m, boxes
		 FROM decisions WHERE run_id = ? ORDER BY frame`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			command string
			nearest sql.NullFloat64
		)
		if err := rows.Scan(&e.RunID, &e.Frame, &command, &e.Intent, &e.Potholes, &nearest, &e.Boxes); err != nil {
			return nil, err
		}
		if e.Command, err = decision.Parse(command); err != nil {
			return nil, fmt.Errorf("frame %d: %w", e.Frame, err)
		}
		if nearest.Valid {
			d := nearest.Float64
			e.NearestM = &d
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// CommandCounts returns how many frames of a run got each command.
func (j *Journal) CommandCounts(ctx context.Context, runID string) (map[decision.Command]int, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT command, COUNT(*) FROM decisions WHERE run_id = ? GROUP BY command", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[decision.Command]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		c, err := decision.Parse(name)
		if err != nil {
			return nil, err
		}
		counts[c] = n
	}
	return counts, rows.Err()
}

// Sink records the results of one run.
type Sink struct {
	journal *Journal
	runID   string
	mu      sync.Mutex
}

// Sink returns a pipeline.Sink writing to j under runID. Closing the sink
// leaves the journal open.
func (j *Journal) Sink(runID string) *Sink {
	return &Sink{journal: j, runID: runID}
}

// Write records res.
func (s *Sink) Write(ctx context.Context, _ pipeline.Frame, res pipeline.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journal.Record(ctx, s.runID, res)
}

// Close is a no-op.
func (s *Sink) Close() error {
	return nil
}
