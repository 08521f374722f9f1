package recurrent

import "math"

// adam implements the Adam optimizer with bias correction.
//
//	m[i] = β1·m[i] + (1-β1)·g[i]
//	v[i] = β2·v[i] + (1-β2)·g[i]²
//	w[i] = w[i] - lr · m̂[i] / (√v̂[i] + ε)
type adam struct {
	lr           float64
	beta1, beta2 float64
	eps          float64
	m, v         []float64
	step         int
}

func newAdam(lr float64, size int) *adam {
	return &adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		m:     make([]float64, size),
		v:     make([]float64, size),
	}
}

func (a *adam) update(params, grads []float64) {
	a.step++
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))

	for i, g := range grads {
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*g
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*g*g

		mHat := a.m[i] / c1
		vHat := a.v[i] / c2

		params[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
}

func (a *adam) reset() {
	for i := range a.m {
		a.m[i] = 0
		a.v[i] = 0
	}
	a.step = 0
}
