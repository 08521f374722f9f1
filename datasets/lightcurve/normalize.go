package lightcurve

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// NormalizedSample is a RawSample with each channel rescaled to zero mean and
// unit variance using the sample's own statistics.
type NormalizedSample struct {
	Name   string
	Points []Point
	Label  int
}

// NormalizeSample normalizes s, keeping its name and label.
func NormalizeSample(s RawSample) (NormalizedSample, error) {
	points, err := Normalize(s.Points)
	if err != nil {
		return NormalizedSample{}, &RecordError{File: s.Name, Err: err}
	}
	return NormalizedSample{Name: s.Name, Points: points, Label: s.Label}, nil
}

// Normalize z-scores the flux and time channels independently using the
// population standard deviation. A constant channel becomes all zeros.
func Normalize(points []Point) ([]Point, error) {
	if len(points) == 0 {
		return nil, ErrDegenerateSample
	}
	flux := make(stats.Float64Data, len(points))
	times := make(stats.Float64Data, len(points))
	for i, p := range points {
		flux[i] = p.Flux
		times[i] = p.Time
	}
	fz, err := zscore(flux)
	if err != nil {
		return nil, errors.Wrap(err, "lightcurve: flux channel")
	}
	tz, err := zscore(times)
	if err != nil {
		return nil, errors.Wrap(err, "lightcurve: time channel")
	}
	out := make([]Point, len(points))
	for i := range out {
		out[i] = Point{Flux: fz[i], Time: tz[i]}
	}
	return out, nil
}

func zscore(values stats.Float64Data) ([]float64, error) {
	out := make([]float64, len(values))
	lo, err := stats.Min(values)
	if err != nil {
		return nil, err
	}
	hi, err := stats.Max(values)
	if err != nil {
		return nil, err
	}
	// equal values can still leave a rounding residue in the std
	if lo == hi {
		return out, nil
	}
	mean, std, err := moments(values)
	if err != nil {
		return nil, err
	}
	if !finite(mean) || !finite(std) || std == 0 {
		// the squared deviations overflowed or underflowed, the z-score
		// does not change when every value is divided by the same scale
		scale := math.Max(math.Abs(lo), math.Abs(hi))
		scaled := make(stats.Float64Data, len(values))
		for i, v := range values {
			scaled[i] = v / scale
		}
		values = scaled
		if mean, std, err = moments(values); err != nil {
			return nil, err
		}
		if std == 0 {
			return out, nil
		}
	}
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out, nil
}

func moments(values stats.Float64Data) (mean, std float64, err error) {
	if mean, err = stats.Mean(values); err != nil {
		return 0, 0, err
	}
	std, err = stats.StandardDeviationPopulation(values)
	return mean, std, err
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
