package trainer

import (
	"time"

	"go.uber.org/zap"

	"github.com/neurlang/lightcurve/checkpoint"
	"github.com/neurlang/lightcurve/metrics"
)

// Progress is emitted at every reporting boundary.
type Progress struct {
	Epoch        int
	Epochs       int
	Percent      float64
	Loss         float64
	Best         float64
	Checkpointed bool
}

// Result summarizes a completed run.
type Result struct {
	Epochs         int
	BestLoss       float64
	Reports        int
	Checkpoints    int
	SeqLen         int
	CheckpointPath string
}

// evaluate handles a reporting boundary: the loss becomes the new best and
// is checkpointed only when strictly lower than the current best. Best is
// left unchanged when the save fails.
func (t *Trainer) evaluate(epoch int, loss float64, seqLen int) (Progress, error) {
	p := Progress{
		Epoch:   epoch,
		Epochs:  t.cfg.Epochs,
		Percent: 100 * float64(epoch) / float64(t.cfg.Epochs),
		Loss:    loss,
		Best:    t.best,
	}
	if loss < t.best {
		meta := checkpoint.Meta{SeqLen: seqLen, Created: time.Now(), Epoch: epoch, Loss: loss}
		if err := t.store.Save(t.model, meta); err != nil {
			metrics.CheckpointErrors.Inc()
			t.log.Error("checkpoint failed", zap.Int("epoch", epoch), zap.Error(err))
			return p, err
		}
		t.best = loss
		p.Best = loss
		p.Checkpointed = true
		metrics.Checkpoints.Inc()
		metrics.BestLoss.Set(loss)
	}
	t.log.Info("epoch",
		zap.Int("epoch", epoch),
		zap.Float64("percent", p.Percent),
		zap.Float64("loss", loss),
		zap.Float64("best", p.Best),
		zap.Bool("checkpointed", p.Checkpointed))
	return p, nil
}
