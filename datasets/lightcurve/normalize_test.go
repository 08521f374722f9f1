package lightcurve

import (
	"math"
	"math/rand"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func channel(points []Point, flux bool) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		if flux {
			out[i] = p.Flux
		} else {
			out[i] = p.Time
		}
	}
	return out
}

func TestNormalizeTwoPoints(t *testing.T) {
	out, err := Normalize([]Point{{1, 0}, {2, 1}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, 1}, channel(out, true), epsilon)
	assert.InDeltaSlice(t, []float64{-1, 1}, channel(out, false), epsilon)
}

func TestNormalizeUnitStatistics(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 2; n < 200; n += 17 {
		points := make([]Point, n)
		for i := range points {
			points[i] = Point{Flux: 1 + rng.NormFloat64()*0.01, Time: 130 + float64(i)*0.02}
		}
		out, err := Normalize(points)
		require.NoError(t, err)
		for _, flux := range []bool{true, false} {
			ch := channel(out, flux)
			mean, _ := stats.Mean(ch)
			std, _ := stats.StandardDeviationPopulation(ch)
			assert.InDelta(t, 0, mean, 1e-9, "n=%d", n)
			assert.InDelta(t, 1, std, 1e-9, "n=%d", n)
		}
	}
}

func TestNormalizeConstantChannel(t *testing.T) {
	points := []Point{{0.1, 5}, {0.1, 6}, {0.1, 7}}
	out, err := Normalize(points)
	require.NoError(t, err)
	for _, v := range channel(out, true) {
		assert.Equal(t, 0.0, v)
	}
	assert.False(t, math.IsNaN(out[0].Time))

	single, err := Normalize([]Point{{3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 0}}, single)
}

func TestNormalizeExtremeMagnitudes(t *testing.T) {
	points := []Point{{Flux: 1e200, Time: 1e-200}, {Flux: 3e200, Time: 3e-200}}
	out, err := Normalize(points)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, 1}, channel(out, true), epsilon)
	assert.InDeltaSlice(t, []float64{-1, 1}, channel(out, false), epsilon)

	// the sum of the values overflows as well
	out, err = Normalize([]Point{{Flux: 1.5e308, Time: 0}, {Flux: 1.7e308, Time: 1}, {Flux: 1.6e308, Time: 2}})
	require.NoError(t, err)
	flux := channel(out, true)
	for _, v := range flux {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	assert.InDeltaSlice(t, []float64{-math.Sqrt(1.5), math.Sqrt(1.5), 0}, flux, 1e-6)
}

func TestNormalizeEmpty(t *testing.T) {
	_, err := Normalize(nil)
	assert.True(t, errors.Is(err, ErrDegenerateSample))
}

func TestNormalizeSampleKeepsLabel(t *testing.T) {
	n, err := NormalizeSample(RawSample{Name: "learn1.txt", Points: []Point{{1, 0}, {2, 1}}, Label: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n.Label)
	assert.Equal(t, "learn1.txt", n.Name)
	assert.InDelta(t, -1.0, n.Points[0].Flux, epsilon)
	assert.InDelta(t, 1.0, n.Points[1].Flux, epsilon)
}
