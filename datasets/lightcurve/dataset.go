package lightcurve

import (
	"github.com/spf13/afero"
)

// Dataset is the prepared training corpus.
type Dataset struct {
	Files   []string
	Samples []RawSample
	SeqLen  int
	Batch   Batch
}

// Load discovers, parses, normalizes, aligns and stacks every sample file in
// dir. A single bad file fails the whole load.
func Load(fs afero.Fs, dir string) (Dataset, error) {
	files, err := Discover(fs, dir)
	if err != nil {
		return Dataset{}, err
	}
	return LoadFiles(fs, files)
}

// LoadFiles is Load over an explicit file list.
func LoadFiles(fs afero.Fs, files []string) (Dataset, error) {
	if len(files) == 0 {
		return Dataset{}, ErrNoSamples
	}
	samples, err := ParseFiles(fs, files)
	if err != nil {
		return Dataset{}, err
	}
	seqLen := SeqLen(samples)
	batch, err := Prepare(samples, seqLen)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Files: files, Samples: samples, SeqLen: seqLen, Batch: batch}, nil
}

// Prepare normalizes and aligns samples to seqLen and assembles the batch.
func Prepare(samples []RawSample, seqLen int) (Batch, error) {
	aligned := make([]AlignedSample, 0, len(samples))
	for _, s := range samples {
		n, err := NormalizeSample(s)
		if err != nil {
			return Batch{}, err
		}
		aligned = append(aligned, AlignSample(n, seqLen))
	}
	return Assemble(aligned, seqLen)
}
