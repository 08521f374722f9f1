package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/neurlang/lightcurve/trainer"
)

// RunRecord is a stored run.
type RunRecord struct {
	ID        string
	Started   time.Time
	Finished  time.Time // zero while running
	Status    string
	Samples   int
	SeqLen    int
	Epochs    int
	ModelPath string
	Device    string
	BestLoss  float64 // valid when HasBest
	HasBest   bool
	Error     string
}

// PredictionRecord is a stored prediction.
type PredictionRecord struct {
	ID     string
	Time   time.Time
	SeqLen int
	Points int
	Class  int
	Logits []float64
}

// Runs lists runs, newest first.
func (j *Journal) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := j.sql.QueryContext(ctx,
		`SELECT id, started, finished, status, samples, seq_len, epochs, model_path, device, best_loss, error FROM runs ORDER BY started DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "journal: runs")
	}
	defer rows.Close()
	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var started int64
		var finished sql.NullInt64
		var best sql.NullFloat64
		var msg sql.NullString
		if err := rows.Scan(&r.ID, &started, &finished, &r.Status, &r.Samples, &r.SeqLen, &r.Epochs, &r.ModelPath, &r.Device, &best, &msg); err != nil {
			return nil, errors.Wrap(err, "journal: scan run")
		}
		r.Started = time.Unix(0, started).UTC()
		if finished.Valid {
			r.Finished = time.Unix(0, finished.Int64).UTC()
		}
		r.BestLoss, r.HasBest = best.Float64, best.Valid
		r.Error = msg.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reports returns the progress reports of a run in epoch order.
func (j *Journal) Reports(ctx context.Context, runID string) ([]trainer.Progress, error) {
	rows, err := j.sql.QueryContext(ctx,
		`SELECT r.epoch, r.loss, r.best, r.checkpointed, u.epochs FROM reports r JOIN runs u ON u.id = r.run_id WHERE r.run_id=? ORDER BY r.epoch`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "journal: reports")
	}
	defer rows.Close()
	var out []trainer.Progress
	for rows.Next() {
		var p trainer.Progress
		if err := rows.Scan(&p.Epoch, &p.Loss, &p.Best, &p.Checkpointed, &p.Epochs); err != nil {
			return nil, errors.Wrap(err, "journal: scan report")
		}
		p.Percent = 100 * float64(p.Epoch) / float64(p.Epochs)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Checkpoints returns how many checkpoints a run saved.
func (j *Journal) Checkpoints(ctx context.Context, runID string) (int, error) {
	var n int
	err := j.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM checkpoints WHERE run_id=?`, runID).Scan(&n)
	return n, errors.Wrap(err, "journal: count checkpoints")
}

// Predictions lists stored predictions, oldest first.
func (j *Journal) Predictions(ctx context.Context) ([]PredictionRecord, error) {
	rows, err := j.sql.QueryContext(ctx, `SELECT id, ts, seq_len, points, class, logits FROM predictions ORDER BY ts`)
	if err != nil {
		return nil, errors.Wrap(err, "journal: predictions")
	}
	defer rows.Close()
	var out []PredictionRecord
	for rows.Next() {
		var p PredictionRecord
		var ts int64
		var logits string
		if err := rows.Scan(&p.ID, &ts, &p.SeqLen, &p.Points, &p.Class, &logits); err != nil {
			return nil, errors.Wrap(err, "journal: scan prediction")
		}
		if err := json.Unmarshal([]byte(logits), &p.Logits); err != nil {
			return nil, errors.Wrap(err, "journal: decode logits")
		}
		p.Time = time.Unix(0, ts).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
