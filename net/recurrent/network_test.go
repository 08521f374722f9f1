package recurrent

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/neurlang/lightcurve/classifier"
)

func tiny(workers int) *Network {
	return New(Options{Input: 2, Hidden: 3, Classes: 4, LearningRate: 1e-2, Seed: 7, Workers: workers})
}

func randomBatch(samples, steps int, seed int64) *tensor.Dense {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, samples*steps*2)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return tensor.New(tensor.WithShape(samples, steps, 2), tensor.WithBacking(data))
}

func lossValue(t *testing.T, n *Network, x *tensor.Dense, labels []int) float64 {
	logits, err := n.Forward(x)
	require.NoError(t, err)
	l, err := n.Loss(logits, labels)
	require.NoError(t, err)
	return l.Value()
}

func TestDefaultOptions(t *testing.T) {
	n := New(Options{})
	assert.Equal(t, 10, n.Classes())
	// 4*64*2 + 4*64*64 + 4*64 + 10*64 + 10
	assert.Equal(t, 17802, n.Params())
}

func TestForwardShape(t *testing.T) {
	n := tiny(2)
	logits, err := n.Forward(randomBatch(5, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{5, 4}, logits.Shape())

	_, err = n.Forward(tensor.New(tensor.WithShape(2, 3, 3), tensor.WithBacking(make([]float64, 18))))
	assert.True(t, errors.Is(err, classifier.ErrShape))

	_, err = n.Forward(tensor.New(tensor.WithShape(2, 3, 2), tensor.WithBacking(make([]float32, 12))))
	assert.True(t, errors.Is(err, classifier.ErrShape))
}

func TestSeedDeterministic(t *testing.T) {
	a, b := tiny(1), tiny(1)
	assert.Equal(t, a.theta, b.theta)

	c := New(Options{Input: 2, Hidden: 3, Classes: 4, Seed: 8})
	assert.NotEqual(t, a.theta, c.theta)
}

func TestLossLabels(t *testing.T) {
	n := tiny(1)
	logits, err := n.Forward(randomBatch(2, 3, 1))
	require.NoError(t, err)

	_, err = n.Loss(logits, []int{0, 4})
	assert.True(t, errors.Is(err, classifier.ErrLabel))

	_, err = n.Loss(logits, []int{-1, 0})
	assert.True(t, errors.Is(err, classifier.ErrLabel))

	_, err = n.Loss(logits, []int{0})
	assert.True(t, errors.Is(err, classifier.ErrShape))
}

func TestLossBeforeForward(t *testing.T) {
	n := tiny(1)
	logits := tensor.New(tensor.WithShape(1, 4), tensor.WithBacking(make([]float64, 4)))
	_, err := n.Loss(logits, []int{0})
	assert.Error(t, err)
}

func TestCrossEntropyUniform(t *testing.T) {
	value, grad, err := crossEntropy(make([]float64, 8), []int{1, 3}, 4)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(4), value, 1e-12)

	// rows of the gradient sum to zero
	for i := 0; i < 2; i++ {
		var s float64
		for _, g := range grad[i*4 : (i+1)*4] {
			s += g
		}
		assert.InDelta(t, 0, s, 1e-12)
	}
	assert.InDelta(t, 0.25/2-0.5, grad[1], 1e-12)
}

func TestGradientMatchesFiniteDifferences(t *testing.T) {
	n := tiny(2)
	x := randomBatch(3, 4, 3)
	labels := []int{0, 2, 3}

	logits, err := n.Forward(x)
	require.NoError(t, err)
	l, err := n.Loss(logits, labels)
	require.NoError(t, err)
	grads, err := n.gradient(l.(*loss))
	require.NoError(t, err)

	const h = 1e-6
	for i := range n.theta {
		orig := n.theta[i]
		n.theta[i] = orig + h
		up := lossValue(t, n, x, labels)
		n.theta[i] = orig - h
		down := lossValue(t, n, x, labels)
		n.theta[i] = orig

		numeric := (up - down) / (2 * h)
		assert.InDelta(t, numeric, grads[i], 1e-6, "parameter %d", i)
	}
}

func TestTrainingReducesLoss(t *testing.T) {
	n := tiny(2)
	x := randomBatch(6, 5, 4)
	labels := []int{0, 1, 2, 3, 0, 1}

	first := lossValue(t, n, x, labels)
	for i := 0; i < 200; i++ {
		logits, err := n.Forward(x)
		require.NoError(t, err)
		l, err := n.Loss(logits, labels)
		require.NoError(t, err)
		require.NoError(t, n.BackwardStep(l))
	}
	last := lossValue(t, n, x, labels)
	assert.Less(t, last, first)
}

func TestBackwardStepForeignLoss(t *testing.T) {
	a, b := tiny(1), tiny(1)
	x := randomBatch(1, 2, 5)
	logits, err := a.Forward(x)
	require.NoError(t, err)
	l, err := a.Loss(logits, []int{1})
	require.NoError(t, err)

	assert.Error(t, b.BackwardStep(l))
}

func train(n *Network, x *tensor.Dense, labels []int, steps int) error {
	for i := 0; i < steps; i++ {
		logits, err := n.Forward(x)
		if err != nil {
			return err
		}
		l, err := n.Loss(logits, labels)
		if err != nil {
			return err
		}
		if err := n.BackwardStep(l); err != nil {
			return err
		}
	}
	return nil
}

func TestWorkersDeterministic(t *testing.T) {
	x := randomBatch(7, 4, 6)
	labels := []int{0, 1, 2, 3, 0, 1, 2}

	a, b := tiny(3), tiny(3)
	require.NoError(t, train(a, x, labels, 10))
	require.NoError(t, train(b, x, labels, 10))
	assert.Equal(t, a.theta, b.theta)

	serial := tiny(1)
	require.NoError(t, train(serial, x, labels, 10))
	for i := range serial.theta {
		assert.InDelta(t, serial.theta[i], a.theta[i], 1e-9)
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	src := tiny(1)
	x := randomBatch(2, 3, 9)
	require.NoError(t, train(src, x, []int{1, 2}, 5))

	var buf bytes.Buffer
	require.NoError(t, src.WriteWeights(&buf))

	dst := New(Options{Input: 2, Hidden: 3, Classes: 4, Seed: 99})
	require.NoError(t, dst.ReadWeights(&buf))
	assert.Equal(t, src.theta, dst.theta)

	want, err := src.Forward(x)
	require.NoError(t, err)
	got, err := dst.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())
}

func TestReadWeightsIncompatible(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tiny(1).WriteWeights(&buf))

	other := New(Options{Input: 2, Hidden: 5, Classes: 4})
	before := append([]float64(nil), other.theta...)
	err := other.ReadWeights(bytes.NewReader(buf.Bytes()))
	assert.True(t, errors.Is(err, classifier.ErrIncompatible))
	assert.Equal(t, before, other.theta)

	err = tiny(1).ReadWeights(bytes.NewReader([]byte("not json")))
	assert.True(t, errors.Is(err, classifier.ErrIncompatible))

	err = tiny(1).ReadWeights(bytes.NewReader([]byte(`{"input":2,"hidden":3,"classes":4,"tensors":{"wx":[1]}}`)))
	assert.True(t, errors.Is(err, classifier.ErrIncompatible))
}
