package recurrent

import "math"

// state is the rolling buffer of a forward-only pass.
type state struct {
	h, c, hNext, cNext, z []float64
}

func newState(hidden int) *state {
	return &state{
		h:     make([]float64, hidden),
		c:     make([]float64, hidden),
		hNext: make([]float64, hidden),
		cNext: make([]float64, hidden),
		z:     make([]float64, 4*hidden),
	}
}

// trace keeps every timestep of a pass for backpropagation. Step t reads
// h[t], c[t] and writes h[t+1], c[t+1].
type trace struct {
	z, h, c []float64

	// backward scratch
	dz, dh, dc []float64
}

func newTrace(steps, hidden int) *trace {
	return &trace{
		z:  make([]float64, steps*4*hidden),
		h:  make([]float64, (steps+1)*hidden),
		c:  make([]float64, (steps+1)*hidden),
		dz: make([]float64, 4*hidden),
		dh: make([]float64, hidden),
		dc: make([]float64, hidden),
	}
}

// cell advances one timestep. z receives the activated gates.
func (n *Network) cell(x, hPrev, cPrev, z, h, c []float64) {
	H, I := n.hidden, n.input
	for r := 0; r < 4*H; r++ {
		s := n.b[r]
		wx := n.wx[r*I : (r+1)*I]
		for j, v := range x {
			s += wx[j] * v
		}
		wh := n.wh[r*H : (r+1)*H]
		for j, v := range hPrev {
			s += wh[j] * v
		}
		z[r] = s
	}
	for j := 0; j < H; j++ {
		i := sigmoid(z[j])
		f := sigmoid(z[H+j])
		g := math.Tanh(z[2*H+j])
		o := sigmoid(z[3*H+j])
		z[j], z[H+j], z[2*H+j], z[3*H+j] = i, f, g, o
		c[j] = f*cPrev[j] + i*g
		h[j] = o * math.Tanh(c[j])
	}
}

// run returns the last hidden state of seq. The result aliases s.
func (n *Network) run(seq []float64, steps int, s *state) []float64 {
	for j := range s.h {
		s.h[j], s.c[j] = 0, 0
	}
	for t := 0; t < steps; t++ {
		n.cell(seq[t*n.input:(t+1)*n.input], s.h, s.c, s.z, s.hNext, s.cNext)
		s.h, s.hNext = s.hNext, s.h
		s.c, s.cNext = s.cNext, s.c
	}
	return s.h
}

// head writes wy·h + by into out.
func (n *Network) head(h, out []float64) {
	H := n.hidden
	for k := range out {
		s := n.by[k]
		row := n.wy[k*H : (k+1)*H]
		for j, v := range h {
			s += row[j] * v
		}
		out[k] = s
	}
}

func (n *Network) record(seq []float64, steps int, tr *trace) {
	H, I := n.hidden, n.input
	for j := 0; j < H; j++ {
		tr.h[j], tr.c[j] = 0, 0
	}
	for t := 0; t < steps; t++ {
		n.cell(seq[t*I:(t+1)*I],
			tr.h[t*H:(t+1)*H], tr.c[t*H:(t+1)*H],
			tr.z[t*4*H:(t+1)*4*H],
			tr.h[(t+1)*H:(t+2)*H], tr.c[(t+1)*H:(t+2)*H])
	}
}

// backward adds the gradient of one sample, given dLoss/dlogits, into g.
func (n *Network) backward(seq []float64, steps int, dlogits []float64, tr *trace, g []float64) {
	H, I := n.hidden, n.input
	gwx, gwh, gb, gwy, gby := n.views(g)

	n.record(seq, steps, tr)

	dz, dh, dc := tr.dz, tr.dh, tr.dc
	for j := 0; j < H; j++ {
		dh[j], dc[j] = 0, 0
	}
	hT := tr.h[steps*H : (steps+1)*H]
	for k, d := range dlogits {
		gby[k] += d
		row := n.wy[k*H : (k+1)*H]
		grow := gwy[k*H : (k+1)*H]
		for j := 0; j < H; j++ {
			grow[j] += d * hT[j]
			dh[j] += row[j] * d
		}
	}

	for t := steps - 1; t >= 0; t-- {
		z := tr.z[t*4*H : (t+1)*4*H]
		cPrev := tr.c[t*H : (t+1)*H]
		c := tr.c[(t+1)*H : (t+2)*H]
		hPrev := tr.h[t*H : (t+1)*H]
		x := seq[t*I : (t+1)*I]

		for j := 0; j < H; j++ {
			i, f, gg, o := z[j], z[H+j], z[2*H+j], z[3*H+j]
			tc := math.Tanh(c[j])
			do := dh[j] * tc
			dcj := dc[j] + dh[j]*o*(1-tc*tc)
			dc[j] = dcj * f

			dz[j] = dcj * gg * i * (1 - i)
			dz[H+j] = dcj * cPrev[j] * f * (1 - f)
			dz[2*H+j] = dcj * i * (1 - gg*gg)
			dz[3*H+j] = do * o * (1 - o)
		}

		for j := range dh {
			dh[j] = 0
		}
		for r, d := range dz {
			if d == 0 {
				continue
			}
			gb[r] += d
			grx := gwx[r*I : (r+1)*I]
			for j, v := range x {
				grx[j] += d * v
			}
			grh := gwh[r*H : (r+1)*H]
			wh := n.wh[r*H : (r+1)*H]
			for j, v := range hPrev {
				grh[j] += d * v
				dh[j] += wh[j] * d
			}
		}
	}
}
