package lightcurve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignLength(t *testing.T) {
	seq := []Point{{1, 1}, {2, 2}, {3, 3}, {4, 4}}
	for seqLen := 0; seqLen < 10; seqLen++ {
		assert.Len(t, Align(seq, seqLen), seqLen)
	}
	assert.Len(t, Align(seq, -3), 0)
}

func TestAlignTruncatesPrefix(t *testing.T) {
	seq := []Point{{1, 1}, {2, 2}, {3, 3}, {4, 4}}
	for seqLen := 1; seqLen <= len(seq); seqLen++ {
		assert.Equal(t, seq[:seqLen], Align(seq, seqLen))
	}
}

func TestAlignPadsWithZeros(t *testing.T) {
	seq := []Point{{1, 1}, {2, 2}}
	out := Align(seq, 5)
	assert.Equal(t, seq, out[:2])
	for _, p := range out[2:] {
		assert.Equal(t, Point{}, p)
	}
}

func TestAlignCopies(t *testing.T) {
	seq := []Point{{1, 1}, {2, 2}}
	out := Align(seq, 2)
	out[0].Flux = 9
	assert.Equal(t, 1.0, seq[0].Flux)
}

func TestSeqLen(t *testing.T) {
	assert.Equal(t, DefaultSeqLen, SeqLen(nil))
	assert.Equal(t, 3, SeqLen([]RawSample{
		{Points: make([]Point, 2)},
		{Points: make([]Point, 3)},
		{Points: make([]Point, 1)},
	}))
}
