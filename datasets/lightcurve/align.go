package lightcurve

// AlignedSample is a NormalizedSample forced to exactly seq_len timesteps.
type AlignedSample struct {
	Name   string
	Points []Point
	Label  int
}

// Align returns a copy of points truncated from the end or padded with
// (0, 0) at the end so that it holds exactly seqLen points.
func Align(points []Point, seqLen int) []Point {
	if seqLen <= 0 {
		return []Point{}
	}
	out := make([]Point, seqLen)
	copy(out, points)
	return out
}

// AlignSample aligns s to seqLen.
func AlignSample(s NormalizedSample, seqLen int) AlignedSample {
	return AlignedSample{Name: s.Name, Points: Align(s.Points, seqLen), Label: s.Label}
}
