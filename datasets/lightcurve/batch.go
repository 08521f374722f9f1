package lightcurve

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Channels is the number of values per timestep: flux and time.
const Channels = 2

// Batch is the whole corpus stacked as one (N, seq_len, 2) tensor with the
// labels in the same order.
type Batch struct {
	X      *tensor.Dense
	Labels []int
	Names  []string
	SeqLen int
}

// Len returns the number of samples.
func (b Batch) Len() int {
	return len(b.Labels)
}

// Assemble stacks samples in the given order. Every sample must already
// be aligned to seqLen.
func Assemble(samples []AlignedSample, seqLen int) (Batch, error) {
	if len(samples) == 0 {
		return Batch{}, ErrNoSamples
	}
	if seqLen <= 0 {
		return Batch{}, errors.Wrapf(ErrShapeMismatch, "seq_len %d", seqLen)
	}
	data := make([]float64, 0, len(samples)*seqLen*Channels)
	labels := make([]int, len(samples))
	names := make([]string, len(samples))
	for i, s := range samples {
		if len(s.Points) != seqLen {
			return Batch{}, errors.Wrapf(ErrShapeMismatch, "%s has %d timesteps, want %d", s.Name, len(s.Points), seqLen)
		}
		if s.Label < 0 {
			return Batch{}, errors.Wrapf(ErrNegativeLabel, "%s has label %d", s.Name, s.Label)
		}
		for _, p := range s.Points {
			data = append(data, p.Flux, p.Time)
		}
		labels[i] = s.Label
		names[i] = s.Name
	}
	x := tensor.New(tensor.WithShape(len(samples), seqLen, Channels), tensor.WithBacking(data))
	return Batch{X: x, Labels: labels, Names: names, SeqLen: seqLen}, nil
}

// Sequence builds the (1, seq_len, 2) tensor of a single aligned sequence.
func Sequence(points []Point) *tensor.Dense {
	data := make([]float64, 0, len(points)*Channels)
	for _, p := range points {
		data = append(data, p.Flux, p.Time)
	}
	return tensor.New(tensor.WithShape(1, len(points), Channels), tensor.WithBacking(data))
}
