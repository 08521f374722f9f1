package trainer

import (
	"github.com/pkg/errors"

	"github.com/neurlang/lightcurve/checkpoint"
)

// Loader restores a checkpoint. *checkpoint.Store implements it.
type Loader interface {
	Load(r checkpoint.WeightReader) (checkpoint.Meta, error)
}

// Resume loads the checkpoint into model when one exists. A missing
// checkpoint is not an error and reports ok false. The returned loss is
// meant for WithBestLoss.
func Resume(model checkpoint.WeightReader, store Loader, seqLen int) (meta checkpoint.Meta, ok bool, err error) {
	meta, err = store.Load(model)
	if errors.Is(err, checkpoint.ErrMissing) {
		return checkpoint.Meta{}, false, nil
	}
	if err != nil {
		return checkpoint.Meta{}, false, err
	}
	if meta.SeqLen != seqLen {
		return checkpoint.Meta{}, false, errors.Wrapf(checkpoint.ErrIncompatible,
			"checkpoint seq_len %d, corpus seq_len %d", meta.SeqLen, seqLen)
	}
	return meta, true, nil
}
