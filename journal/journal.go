// Package journal records training runs and predictions in SQLite so that
// past sessions can be inspected after the process exits.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/neurlang/lightcurve/inference"
	"github.com/neurlang/lightcurve/trainer"
)

// Journal wraps the SQLite database.
type Journal struct{ sql *sql.DB }

// Open opens or creates the journal at path. ":memory:" is accepted.
func Open(path string) (*Journal, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "journal: open")
	}
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, errors.Wrap(err, "journal: pragma")
	}
	j := &Journal{sql: d}
	if err := j.migrate(); err != nil {
		_ = d.Close()
		return nil, errors.Wrap(err, "journal: migrate")
	}
	return j, nil
}

func (j *Journal) Close() error { return j.sql.Close() }

func (j *Journal) migrate() error {
	_, err := j.sql.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
	  id TEXT PRIMARY KEY,
	  started INTEGER NOT NULL,
	  finished INTEGER,
	  status TEXT NOT NULL,
	  samples INTEGER NOT NULL,
	  seq_len INTEGER NOT NULL,
	  epochs INTEGER NOT NULL,
	  report_every INTEGER NOT NULL,
	  model_path TEXT NOT NULL,
	  device TEXT NOT NULL DEFAULT '',
	  best_loss REAL,
	  error TEXT
	);
	CREATE TABLE IF NOT EXISTS reports (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  run_id TEXT NOT NULL REFERENCES runs(id),
	  epoch INTEGER NOT NULL,
	  loss REAL NOT NULL,
	  best REAL NOT NULL,
	  checkpointed INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_run ON reports(run_id, epoch);
	CREATE TABLE IF NOT EXISTS checkpoints (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  run_id TEXT NOT NULL REFERENCES runs(id),
	  ts INTEGER NOT NULL,
	  epoch INTEGER NOT NULL,
	  loss REAL NOT NULL,
	  path TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS predictions (
	  id TEXT PRIMARY KEY,
	  ts INTEGER NOT NULL,
	  seq_len INTEGER NOT NULL,
	  points INTEGER NOT NULL,
	  class INTEGER NOT NULL,
	  logits TEXT NOT NULL
	);
	`)
	return err
}

// RunInfo describes a training run when it starts.
type RunInfo struct {
	Samples     int
	SeqLen      int
	Epochs      int
	ReportEvery int
	ModelPath   string
	Device      string // device.Info of the host
}

// Run is an open training run.
type Run struct {
	ID string
	j  *Journal
}

// StartRun inserts a running run and returns its handle.
func (j *Journal) StartRun(ctx context.Context, info RunInfo) (*Run, error) {
	id := uuid.NewString()
	_, err := j.sql.ExecContext(ctx,
		`INSERT INTO runs(id, started, status, samples, seq_len, epochs, report_every, model_path, device) VALUES(?,?,?,?,?,?,?,?,?)`,
		id, time.Now().UnixNano(), "running", info.Samples, info.SeqLen, info.Epochs, info.ReportEvery, info.ModelPath, info.Device)
	if err != nil {
		return nil, errors.Wrap(err, "journal: start run")
	}
	return &Run{ID: id, j: j}, nil
}

// Report stores one progress report.
func (r *Run) Report(ctx context.Context, p trainer.Progress) error {
	_, err := r.j.sql.ExecContext(ctx,
		`INSERT INTO reports(run_id, epoch, loss, best, checkpointed) VALUES(?,?,?,?,?)`,
		r.ID, p.Epoch, p.Loss, p.Best, p.Checkpointed)
	return errors.Wrap(err, "journal: report")
}

// Checkpoint stores a saved checkpoint.
func (r *Run) Checkpoint(ctx context.Context, epoch int, loss float64, path string) error {
	_, err := r.j.sql.ExecContext(ctx,
		`INSERT INTO checkpoints(run_id, ts, epoch, loss, path) VALUES(?,?,?,?,?)`,
		r.ID, time.Now().UnixNano(), epoch, loss, path)
	return errors.Wrap(err, "journal: checkpoint")
}

// Finish closes the run as completed, or failed when runErr is not nil.
func (r *Run) Finish(ctx context.Context, res trainer.Result, runErr error) error {
	status, msg := "completed", sql.NullString{}
	if runErr != nil {
		status = "failed"
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	var best sql.NullFloat64
	if res.Checkpoints > 0 {
		best = sql.NullFloat64{Float64: res.BestLoss, Valid: true}
	}
	_, err := r.j.sql.ExecContext(ctx,
		`UPDATE runs SET finished=?, status=?, best_loss=?, error=? WHERE id=?`,
		time.Now().UnixNano(), status, best, msg, r.ID)
	return errors.Wrap(err, "journal: finish run")
}

// RecordPrediction stores a prediction and returns its id.
func (j *Journal) RecordPrediction(ctx context.Context, seqLen int, p inference.Prediction) (string, error) {
	logits, err := json.Marshal(p.Logits)
	if err != nil {
		return "", errors.Wrap(err, "journal: encode logits")
	}
	id := uuid.NewString()
	_, err = j.sql.ExecContext(ctx,
		`INSERT INTO predictions(id, ts, seq_len, points, class, logits) VALUES(?,?,?,?,?,?)`,
		id, time.Now().UnixNano(), seqLen, p.Points, p.Class, string(logits))
	if err != nil {
		return "", errors.Wrap(err, "journal: record prediction")
	}
	return id, nil
}
