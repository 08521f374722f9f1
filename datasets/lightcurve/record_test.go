package lightcurve

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabelAndPoints(t *testing.T) {
	s, err := Parse("learn1.txt", strings.NewReader("1.0 0.0\n2.0 1.0\nresult 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Label)
	assert.Equal(t, []Point{{1, 0}, {2, 1}}, s.Points)
	assert.Equal(t, "learn1.txt", s.Name)
}

func TestParseAnyOrder(t *testing.T) {
	s, err := Parse("x", strings.NewReader("result 2\n\n0.5 10\n  \n0.25 11\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Label)
	assert.Equal(t, 2, s.Len())
}

func TestParseMissingLabelDefaultsToZero(t *testing.T) {
	s, err := Parse("x", strings.NewReader("1 2\n3 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Label)
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{
		"1.0\n",
		"1.0 2.0 3.0\n",
		"abc 2.0\n",
		"1.0 NaN\n",
		"1.0 +Inf\n",
		"1 2\nresult\n",
		"1 2\nresult x\n",
		"1 2\nresult 1 2\n",
	} {
		_, err := Parse("learn9.txt", strings.NewReader(input))
		require.Error(t, err, "input %q", input)
		assert.True(t, errors.Is(err, ErrMalformedRecord), "input %q: %v", input, err)

		var rec *RecordError
		require.True(t, errors.As(err, &rec))
		assert.Equal(t, "learn9.txt", rec.File)
		assert.NotZero(t, rec.Line)
		assert.Contains(t, err.Error(), "learn9.txt")
	}
}

func TestParseDegenerate(t *testing.T) {
	for _, input := range []string{"", "result 1\n", "\n\n"} {
		_, err := Parse("empty.txt", strings.NewReader(input))
		assert.True(t, errors.Is(err, ErrDegenerateSample), "input %q: %v", input, err)
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(afero.NewMemMapFs(), "learn1.txt")
	assert.Error(t, err)
}

func TestParseFilesStopsAtFirstFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "learn1.txt", []byte("1 2\nresult 1\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "learn2.txt", []byte("1 x\n"), 0o644))

	_, err := ParseFiles(fs, []string{"learn1.txt", "learn2.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "learn2.txt:1")
}
