package recurrent

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/neurlang/lightcurve/classifier"
)

type weights struct {
	Input   int                  `json:"input"`
	Hidden  int                  `json:"hidden"`
	Classes int                  `json:"classes"`
	Tensors map[string][]float64 `json:"tensors"`
}

func (n *Network) tensors() map[string][]float64 {
	return map[string][]float64{
		"wx": n.wx,
		"wh": n.wh,
		"b":  n.b,
		"wy": n.wy,
		"by": n.by,
	}
}

// WriteWeights encodes the dimensions and every parameter tensor as JSON.
func (n *Network) WriteWeights(w io.Writer) error {
	err := json.NewEncoder(w).Encode(weights{
		Input:   n.input,
		Hidden:  n.hidden,
		Classes: n.classes,
		Tensors: n.tensors(),
	})
	return errors.Wrap(err, "recurrent: encode weights")
}

// ReadWeights decodes weights written by WriteWeights. The network is left
// untouched unless every dimension and tensor length matches. Optimizer
// moments start over afterwards.
func (n *Network) ReadWeights(r io.Reader) error {
	var in weights
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return errors.Wrapf(classifier.ErrIncompatible, "decode weights: %v", err)
	}
	if in.Input != n.input || in.Hidden != n.hidden || in.Classes != n.classes {
		return errors.Wrapf(classifier.ErrIncompatible,
			"stored %dx%dx%d, network %dx%dx%d",
			in.Input, in.Hidden, in.Classes, n.input, n.hidden, n.classes)
	}
	dst := n.tensors()
	if len(in.Tensors) != len(dst) {
		return errors.Wrapf(classifier.ErrIncompatible, "%d tensors, want %d", len(in.Tensors), len(dst))
	}
	for name, t := range dst {
		src, ok := in.Tensors[name]
		if !ok {
			return errors.Wrapf(classifier.ErrIncompatible, "tensor %q missing", name)
		}
		if len(src) != len(t) {
			return errors.Wrapf(classifier.ErrIncompatible, "tensor %q has %d values, want %d", name, len(src), len(t))
		}
	}
	for name, t := range dst {
		copy(t, in.Tensors[name])
	}
	n.opt.reset()
	return nil
}
