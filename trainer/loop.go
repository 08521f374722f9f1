package trainer

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/neurlang/lightcurve/datasets/lightcurve"
	"github.com/neurlang/lightcurve/metrics"
)

// Run trains on batch until Config.Epochs and returns the summary. Config
// and batch are validated before the trainer leaves Initializing. A
// checkpoint that cannot be saved ends the run with the save error.
func (t *Trainer) Run(batch lightcurve.Batch) (Result, error) {
	if t.state != Initializing {
		return Result{}, errors.Wrap(ErrState, t.state.String())
	}
	if err := t.cfg.validate(); err != nil {
		return Result{}, err
	}
	if err := t.check(batch); err != nil {
		return Result{}, err
	}

	t.state = Running
	t.log.Info("training started",
		zap.Int("samples", batch.Len()),
		zap.Int("seq_len", batch.SeqLen),
		zap.Int("epochs", t.cfg.Epochs),
		zap.Int("report_every", t.cfg.ReportEvery))

	res := Result{SeqLen: batch.SeqLen, CheckpointPath: t.cfg.CheckpointPath}
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		start := time.Now()
		loss, err := t.step(batch)
		if err != nil {
			return res, errors.Wrapf(err, "epoch %d", epoch)
		}
		t.epoch = epoch
		res.Epochs = epoch
		metrics.ObserveEpoch(start, loss)

		if !t.boundary(epoch) {
			continue
		}
		p, err := t.evaluate(epoch, loss, batch.SeqLen)
		if p.Checkpointed {
			res.Checkpoints++
		}
		res.BestLoss = t.best
		if err != nil {
			return res, err
		}
		res.Reports++
		for _, r := range t.reporters {
			r(p)
		}
	}

	t.state = Completed
	res.BestLoss = t.best
	t.log.Info("training finished",
		zap.Int("epochs", res.Epochs),
		zap.Float64("best_loss", res.BestLoss),
		zap.Int("checkpoints", res.Checkpoints))
	return res, nil
}

func (t *Trainer) check(batch lightcurve.Batch) error {
	if batch.X == nil || batch.Len() == 0 {
		return errors.Wrap(ErrBatch, "no samples")
	}
	if batch.SeqLen <= 0 {
		return errors.Wrapf(ErrBatch, "seq_len %d", batch.SeqLen)
	}
	if shape := batch.X.Shape(); len(shape) != 3 || shape[0] != batch.Len() || shape[1] != batch.SeqLen {
		return errors.Wrapf(ErrBatch, "tensor shape %v for %d samples of %d", shape, batch.Len(), batch.SeqLen)
	}
	classes := t.model.Classes()
	for i, y := range batch.Labels {
		if y < 0 || y >= classes {
			name := ""
			if i < len(batch.Names) {
				name = batch.Names[i]
			}
			return errors.Wrapf(ErrBatch, "%s: label %d outside [0, %d)", name, y, classes)
		}
	}
	return nil
}

// step runs one forward, loss and backward pass over the whole batch.
func (t *Trainer) step(batch lightcurve.Batch) (float64, error) {
	logits, err := t.model.Forward(batch.X)
	if err != nil {
		return 0, errors.Wrap(err, "forward")
	}
	loss, err := t.model.Loss(logits, batch.Labels)
	if err != nil {
		return 0, errors.Wrap(err, "loss")
	}
	if err := t.model.BackwardStep(loss); err != nil {
		return 0, errors.Wrap(err, "backward")
	}
	return loss.Value(), nil
}

func (t *Trainer) boundary(epoch int) bool {
	return epoch%t.cfg.ReportEvery == 0 || epoch == t.cfg.Epochs
}
