package inference

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorgonia.org/tensor"

	"github.com/neurlang/lightcurve/classifier"
	"github.com/neurlang/lightcurve/datasets/lightcurve"
	"github.com/neurlang/lightcurve/metrics"
)

// ErrDegenerateInput is returned by Predict for an empty point list.
var ErrDegenerateInput = errors.New("inference: no data points entered")

// Model computes logits for a (N, seq_len, 2) batch.
type Model interface {
	Forward(x *tensor.Dense) (*tensor.Dense, error)
}

// Prediction is the decoded output for one light curve.
type Prediction struct {
	Class  int
	Logits []float64

	// Points is how many points were entered, before alignment.
	Points int
}

// Pipeline holds a trained model and the sequence length it was trained on.
type Pipeline struct {
	Model  Model
	SeqLen int
	Log    *zap.Logger
}

// New returns a Pipeline. A nil logger disables logging.
func New(model Model, seqLen int, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{Model: model, SeqLen: seqLen, Log: log}
}

// Predict normalizes points against their own statistics, aligns them to
// SeqLen and returns the class with the largest logit.
func (p *Pipeline) Predict(points []lightcurve.Point) (Prediction, error) {
	if len(points) == 0 {
		return Prediction{}, ErrDegenerateInput
	}
	if p.SeqLen <= 0 {
		return Prediction{}, errors.Wrapf(lightcurve.ErrShapeMismatch, "seq_len %d", p.SeqLen)
	}
	normalized, err := lightcurve.Normalize(points)
	if err != nil {
		return Prediction{}, err
	}
	x := lightcurve.Sequence(lightcurve.Align(normalized, p.SeqLen))

	logits, err := p.Model.Forward(x)
	if err != nil {
		return Prediction{}, errors.Wrap(err, "inference: forward")
	}
	row, err := classifier.Row(logits, 0)
	if err != nil {
		return Prediction{}, err
	}
	out := Prediction{
		Class:  classifier.Argmax(row),
		Logits: append([]float64(nil), row...),
		Points: len(points),
	}

	metrics.IncPrediction(out.Class)
	p.logger().Info("prediction",
		zap.Int("points", out.Points),
		zap.Int("seq_len", p.SeqLen),
		zap.Int("class", out.Class))
	return out, nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}
