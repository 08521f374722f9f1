package lightcurve

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// labelToken starts the line carrying the sample's class.
const labelToken = "result"

// Point is one flux measurement and its timestamp.
type Point struct {
	Flux float64
	Time float64
}

// RawSample is a parsed sample file. A file without a label line gets label 0.
type RawSample struct {
	Name   string
	Points []Point
	Label  int
}

// Len returns the number of data points.
func (s RawSample) Len() int {
	return len(s.Points)
}

// ParseFile opens path on fs and parses it.
func ParseFile(fs afero.Fs, path string) (RawSample, error) {
	f, err := fs.Open(path)
	if err != nil {
		return RawSample{}, errors.Wrapf(err, "lightcurve: opening %s", path)
	}
	defer f.Close()
	return Parse(path, f)
}

// ParseFiles parses every path in order and stops at the first failure.
func ParseFiles(fs afero.Fs, paths []string) ([]RawSample, error) {
	samples := make([]RawSample, 0, len(paths))
	for _, path := range paths {
		s, err := ParseFile(fs, path)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// Parse reads one sample. Lines may come in any order, blank lines are
// skipped and a later label line overrides an earlier one.
func Parse(name string, r io.Reader) (RawSample, error) {
	s := RawSample{Name: name}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == labelToken {
			label, err := parseLabel(fields)
			if err != nil {
				return RawSample{}, &RecordError{File: name, Line: line, Content: text, Err: err}
			}
			s.Label = label
			continue
		}
		p, err := ParsePoint(fields)
		if err != nil {
			return RawSample{}, &RecordError{File: name, Line: line, Content: text, Err: err}
		}
		s.Points = append(s.Points, p)
	}
	if err := sc.Err(); err != nil {
		return RawSample{}, errors.Wrapf(err, "lightcurve: reading %s", name)
	}
	if len(s.Points) == 0 {
		return RawSample{}, &RecordError{File: name, Err: ErrDegenerateSample}
	}
	return s, nil
}

// ParsePoint parses the two tokens of a data line. NaN and infinities are
// rejected, they would poison the sample's statistics.
func ParsePoint(fields []string) (Point, error) {
	if len(fields) != 2 {
		return Point{}, errors.Wrapf(ErrMalformedRecord, "expected 2 tokens, got %d", len(fields))
	}
	flux, err := parseFinite(fields[0])
	if err != nil {
		return Point{}, err
	}
	t, err := parseFinite(fields[1])
	if err != nil {
		return Point{}, err
	}
	return Point{Flux: flux, Time: t}, nil
}

func parseFinite(token string) (float64, error) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrMalformedRecord, "bad number %q", token)
	}
	return v, nil
}

func parseLabel(fields []string) (int, error) {
	if len(fields) != 2 {
		return 0, errors.Wrapf(ErrMalformedRecord, "label line expects 1 value, got %d", len(fields)-1)
	}
	label, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedRecord, "bad label %q", fields[1])
	}
	return label, nil
}
