package lightcurve

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoSamples is returned when discovery finds no sample files.
	ErrNoSamples = errors.New("lightcurve: no sample files found")

	// ErrMalformedRecord marks a data or label line that cannot be parsed.
	ErrMalformedRecord = errors.New("lightcurve: malformed record")

	// ErrDegenerateSample marks a sample without any data points.
	ErrDegenerateSample = errors.New("lightcurve: sample has no data points")

	// ErrShapeMismatch marks a sequence whose length differs from seq_len.
	ErrShapeMismatch = errors.New("lightcurve: sequence length does not match seq_len")

	// ErrNegativeLabel marks a label that cannot index a class.
	ErrNegativeLabel = errors.New("lightcurve: negative label")
)

// RecordError reports which file, and for line level failures which line,
// could not be parsed.
type RecordError struct {
	File    string
	Line    int
	Content string
	Err     error
}

func (e *RecordError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v (line %q)", e.File, e.Line, e.Err, e.Content)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
