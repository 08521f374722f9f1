// Package classifier defines the sequence classifier capability driven by the
// trainer and the inference pipeline. How logits are computed, how gradients
// flow and how parameters are updated is up to the implementation.
package classifier

import (
	"io"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

var (
	// ErrIncompatible is returned by ReadWeights when the stored weights do
	// not fit the constructed network.
	ErrIncompatible = errors.New("classifier: weights do not match the network")

	// ErrShape is returned for inputs of the wrong shape or type.
	ErrShape = errors.New("classifier: unexpected input shape")

	// ErrLabel is returned for labels outside [0, Classes()).
	ErrLabel = errors.New("classifier: label out of range")
)

// Loss is a scalar training loss. Implementations keep whatever they need to
// backpropagate it.
type Loss interface {
	Value() float64
}

// Classifier maps a (N, seq_len, channels) batch to (N, classes) logits.
type Classifier interface {
	// Classes is the number of output classes.
	Classes() int

	// Forward computes the logits of a batch.
	Forward(x *tensor.Dense) (*tensor.Dense, error)

	// Loss is the mean cross-entropy of logits against integer labels.
	Loss(logits *tensor.Dense, labels []int) (Loss, error)

	// BackwardStep computes the gradients of loss and updates the parameters.
	BackwardStep(loss Loss) error

	// WriteWeights serializes all parameters.
	WriteWeights(w io.Writer) error

	// ReadWeights replaces all parameters, failing with ErrIncompatible when
	// the shapes differ.
	ReadWeights(r io.Reader) error
}

// Argmax returns the index of the largest value, the first one on ties, or
// -1 for an empty row.
func Argmax(row []float64) int {
	best := -1
	for i, v := range row {
		if best < 0 || v > row[best] {
			best = i
		}
	}
	return best
}

// Row returns row i of a (N, C) float64 logits tensor.
func Row(logits *tensor.Dense, i int) ([]float64, error) {
	shape := logits.Shape()
	if len(shape) != 2 || i < 0 || i >= shape[0] {
		return nil, errors.Wrapf(ErrShape, "row %d of %v", i, shape)
	}
	data, ok := logits.Data().([]float64)
	if !ok {
		return nil, errors.Wrapf(ErrShape, "logits dtype %v", logits.Dtype())
	}
	c := shape[1]
	return data[i*c : (i+1)*c], nil
}
