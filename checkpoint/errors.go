package checkpoint

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMissing is returned by Load when no checkpoint exists.
	ErrMissing = errors.New("checkpoint: not found")

	// ErrIncompatible marks a checkpoint that cannot be read back into the
	// model: a foreign header, a corrupt stream or different weight shapes.
	ErrIncompatible = errors.New("checkpoint: incompatible")

	// ErrPersistence marks any other filesystem failure.
	ErrPersistence = errors.New("checkpoint: persistence failure")
)

// Error describes a failed checkpoint operation. errors.Is matches both the
// Kind sentinel and the underlying cause.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func newError(op, path string, kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
