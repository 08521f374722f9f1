package recurrent

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/neurlang/lightcurve/classifier"
	"github.com/neurlang/lightcurve/parallel"
)

// Options configures a Network. Zero sizes, rate and worker count take the
// defaults of DefaultOptions, the seed is used as given.
type Options struct {
	Input        int     // values per timestep
	Hidden       int     // LSTM state size
	Classes      int     // output classes
	LearningRate float64 // Adam step size
	Seed         int64   // initialization seed
	Workers      int     // goroutines sharing a batch
}

// DefaultOptions is a 2 channel input, 64 unit LSTM and a 10 class head.
func DefaultOptions() Options {
	return Options{
		Input:        2,
		Hidden:       64,
		Classes:      10,
		LearningRate: 1e-3,
		Seed:         42,
		Workers:      1,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Input <= 0 {
		o.Input = d.Input
	}
	if o.Hidden <= 0 {
		o.Hidden = d.Hidden
	}
	if o.Classes <= 0 {
		o.Classes = d.Classes
	}
	if o.LearningRate <= 0 {
		o.LearningRate = d.LearningRate
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	return o
}

// Network is the LSTM classifier. Gates are stacked input, forget, cell,
// output in the 4*hidden rows of wx, wh and b.
type Network struct {
	input, hidden, classes int
	workers                int

	// theta holds every parameter, the named slices are views into it
	theta             []float64
	wx, wh, b, wy, by []float64

	opt *adam

	// input of the latest Forward, needed to backpropagate its loss
	last *tensor.Dense
}

var _ classifier.Classifier = (*Network)(nil)

// New builds a Network with weights drawn uniformly from ±1/√hidden.
func New(opts Options) *Network {
	opts = opts.withDefaults()
	n := &Network{
		input:   opts.Input,
		hidden:  opts.Hidden,
		classes: opts.Classes,
		workers: opts.Workers,
	}
	n.theta = make([]float64, n.size())
	n.wx, n.wh, n.b, n.wy, n.by = n.views(n.theta)

	rng := rand.New(rand.NewSource(opts.Seed))
	k := 1 / math.Sqrt(float64(n.hidden))
	for i := range n.theta {
		n.theta[i] = (2*rng.Float64() - 1) * k
	}
	n.opt = newAdam(opts.LearningRate, len(n.theta))
	return n
}

func (n *Network) size() int {
	g := 4 * n.hidden
	return g*n.input + g*n.hidden + g + n.classes*n.hidden + n.classes
}

// views cuts a parameter sized buffer into the named tensors.
func (n *Network) views(buf []float64) (wx, wh, b, wy, by []float64) {
	off := 0
	take := func(k int) []float64 {
		s := buf[off : off+k : off+k]
		off += k
		return s
	}
	g := 4 * n.hidden
	wx = take(g * n.input)
	wh = take(g * n.hidden)
	b = take(g)
	wy = take(n.classes * n.hidden)
	by = take(n.classes)
	return
}

// Classes returns the size of the output layer.
func (n *Network) Classes() int {
	return n.classes
}

// Params returns the number of trainable parameters.
func (n *Network) Params() int {
	return len(n.theta)
}

func (n *Network) batch(x *tensor.Dense) (data []float64, samples, steps int, err error) {
	if x == nil {
		return nil, 0, 0, errors.Wrap(classifier.ErrShape, "nil batch")
	}
	shape := x.Shape()
	if len(shape) != 3 || shape[0] <= 0 || shape[1] <= 0 || shape[2] != n.input {
		return nil, 0, 0, errors.Wrapf(classifier.ErrShape, "batch shape %v, want (N, T, %d)", shape, n.input)
	}
	data, ok := x.Data().([]float64)
	if !ok {
		return nil, 0, 0, errors.Wrapf(classifier.ErrShape, "batch dtype %v, want float64", x.Dtype())
	}
	return data, shape[0], shape[1], nil
}

// Forward runs every sequence of x through the LSTM and the head.
func (n *Network) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	data, samples, steps, err := n.batch(x)
	if err != nil {
		return nil, err
	}
	stride := steps * n.input
	logits := make([]float64, samples*n.classes)

	parallel.ForEachChunk(samples, n.workers, func(_, lo, hi int) {
		s := newState(n.hidden)
		for i := lo; i < hi; i++ {
			h := n.run(data[i*stride:(i+1)*stride], steps, s)
			n.head(h, logits[i*n.classes:(i+1)*n.classes])
		}
	})

	n.last = x
	return tensor.New(tensor.WithShape(samples, n.classes), tensor.WithBacking(logits)), nil
}

// Loss computes the mean cross-entropy of logits produced by the latest
// Forward.
func (n *Network) Loss(logits *tensor.Dense, labels []int) (classifier.Loss, error) {
	if n.last == nil {
		return nil, errors.New("recurrent: loss requested before forward")
	}
	shape := logits.Shape()
	if len(shape) != 2 || shape[1] != n.classes || shape[0] != n.last.Shape()[0] {
		return nil, errors.Wrapf(classifier.ErrShape, "logits shape %v", shape)
	}
	if len(labels) != shape[0] {
		return nil, errors.Wrapf(classifier.ErrShape, "%d labels for %d samples", len(labels), shape[0])
	}
	data, ok := logits.Data().([]float64)
	if !ok {
		return nil, errors.Wrapf(classifier.ErrShape, "logits dtype %v", logits.Dtype())
	}
	value, grad, err := crossEntropy(data, labels, n.classes)
	if err != nil {
		return nil, err
	}
	return &loss{value: value, grad: grad, x: n.last, net: n}, nil
}

// BackwardStep backpropagates loss through time and applies one Adam step.
func (n *Network) BackwardStep(l classifier.Loss) error {
	ce, ok := l.(*loss)
	if !ok || ce.net != n {
		return errors.New("recurrent: loss was not produced by this network")
	}
	grads, err := n.gradient(ce)
	if err != nil {
		return err
	}
	n.opt.update(n.theta, grads)
	return nil
}

// gradient returns dLoss/dtheta. Each chunk of samples accumulates into its
// own buffer and the buffers are summed in chunk order.
func (n *Network) gradient(ce *loss) ([]float64, error) {
	data, samples, steps, err := n.batch(ce.x)
	if err != nil {
		return nil, err
	}
	stride := steps * n.input
	chunks := make([][]float64, parallel.Chunks(samples, n.workers))

	parallel.ForEachChunk(samples, n.workers, func(chunk, lo, hi int) {
		g := make([]float64, len(n.theta))
		tr := newTrace(steps, n.hidden)
		for i := lo; i < hi; i++ {
			n.backward(data[i*stride:(i+1)*stride], steps, ce.grad[i*n.classes:(i+1)*n.classes], tr, g)
		}
		chunks[chunk] = g
	})

	total := chunks[0]
	for _, g := range chunks[1:] {
		for i, v := range g {
			total[i] += v
		}
	}
	return total, nil
}

type loss struct {
	value float64
	grad  []float64 // dLoss/dlogits, (N, classes)
	x     *tensor.Dense
	net   *Network
}

func (l *loss) Value() float64 {
	return l.value
}

// crossEntropy returns the mean negative log-likelihood and its gradient with
// respect to the logits.
func crossEntropy(logits []float64, labels []int, classes int) (float64, []float64, error) {
	samples := len(labels)
	grad := make([]float64, len(logits))
	var total float64
	for i, y := range labels {
		if y < 0 || y >= classes {
			return 0, nil, errors.Wrapf(classifier.ErrLabel, "label %d with %d classes", y, classes)
		}
		row := logits[i*classes : (i+1)*classes]
		m := row[0]
		for _, v := range row[1:] {
			if v > m {
				m = v
			}
		}
		var sum float64
		for _, v := range row {
			sum += math.Exp(v - m)
		}
		lse := m + math.Log(sum)
		total += lse - row[y]

		g := grad[i*classes : (i+1)*classes]
		for k, v := range row {
			g[k] = math.Exp(v-lse) / float64(samples)
		}
		g[y] -= 1 / float64(samples)
	}
	return total / float64(samples), grad, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
