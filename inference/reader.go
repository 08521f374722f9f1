package inference

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/neurlang/lightcurve/datasets/lightcurve"
)

// EndToken terminates interactive input.
const EndToken = "end"

// InvalidInput is printed for every line that is not a flux/time pair.
const InvalidInput = "Invalid input, expected 'flux time'"

// ReadSamples reads "flux time" lines from r until a line reading EndToken
// or the end of input. Malformed lines are reported on w and skipped, blank
// lines are skipped silently. Lines have no length limit.
func ReadSamples(r io.Reader, w io.Writer) ([]lightcurve.Point, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	var points []lightcurve.Point
	for {
		raw, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return points, errors.Wrap(err, "inference: read samples")
		}
		line := strings.TrimSpace(raw)
		if line == EndToken {
			return points, nil
		}
		if line != "" {
			p, perr := lightcurve.ParsePoint(strings.Fields(line))
			if perr != nil {
				if _, werr := fmt.Fprintln(w, InvalidInput); werr != nil {
					return points, errors.Wrap(werr, "inference: write prompt")
				}
			} else {
				points = append(points, p)
			}
		}
		if err == io.EOF {
			return points, nil
		}
	}
}
