// Package checkpoint persists classifier weights together with the sequence
// length they were trained on.
//
// A checkpoint file starts with one text header line
//
//	lightcurve/v1 <seq_len> <created, RFC 3339> <epoch> <loss>
//
// followed by a zlib stream holding whatever the classifier writes.
package checkpoint

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/neurlang/lightcurve/classifier"
)

// Magic opens every checkpoint header.
const Magic = "lightcurve/v1"

// WeightWriter serializes model parameters.
type WeightWriter interface {
	WriteWeights(w io.Writer) error
}

// WeightReader restores model parameters.
type WeightReader interface {
	ReadWeights(r io.Reader) error
}

// Meta is stored in the header next to the weights.
type Meta struct {
	SeqLen  int
	Created time.Time
	Epoch   int
	Loss    float64
}

// Store saves and loads one checkpoint file.
type Store struct {
	Fs   afero.Fs
	Path string
}

// New returns a Store for path on fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, path string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{Fs: fs, Path: path}
}

// Exists reports whether a checkpoint file is present.
func (s *Store) Exists() bool {
	ok, err := afero.Exists(s.Fs, s.Path)
	return err == nil && ok
}

// Save writes the weights of w to a temporary file beside Path and renames
// it into place, so a reader sees either the previous checkpoint or the new
// one in full.
func (s *Store) Save(w WeightWriter, meta Meta) (err error) {
	if meta.SeqLen <= 0 {
		return newError("save", s.Path, ErrPersistence, errors.Errorf("seq_len %d", meta.SeqLen))
	}
	if meta.Created.IsZero() {
		meta.Created = time.Now()
	}

	dir, base := filepath.Split(s.Path)
	if dir == "" {
		dir = "."
	}
	tmp, err := afero.TempFile(s.Fs, dir, base+".tmp-*")
	if err != nil {
		return newError("create", s.Path, ErrPersistence, err)
	}
	name := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			s.Fs.Remove(name)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if _, err = io.WriteString(bw, header(meta)); err != nil {
		return newError("write", s.Path, ErrPersistence, err)
	}
	zw := zlib.NewWriter(bw)
	if err = w.WriteWeights(zw); err != nil {
		return newError("write", s.Path, ErrPersistence, err)
	}
	if err = zw.Close(); err != nil {
		return newError("write", s.Path, ErrPersistence, err)
	}
	if err = bw.Flush(); err != nil {
		return newError("write", s.Path, ErrPersistence, err)
	}
	if err = tmp.Sync(); err != nil {
		return newError("sync", s.Path, ErrPersistence, err)
	}
	if err = tmp.Close(); err != nil {
		return newError("close", s.Path, ErrPersistence, err)
	}
	if err = s.Fs.Rename(name, s.Path); err != nil {
		return newError("rename", s.Path, ErrPersistence, err)
	}
	return nil
}

// Load reads the header and hands the decompressed weights to r. The stream
// is decompressed and checksummed in full before r sees any of it.
func (s *Store) Load(r WeightReader) (Meta, error) {
	f, err := s.Fs.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, newError("open", s.Path, ErrMissing, err)
		}
		return Meta{}, newError("open", s.Path, ErrPersistence, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	line, err := br.ReadString('\n')
	if err != nil {
		return Meta{}, newError("header", s.Path, ErrIncompatible, err)
	}
	meta, err := parseHeader(line)
	if err != nil {
		return Meta{}, newError("header", s.Path, ErrIncompatible, err)
	}

	zr, err := zlib.NewReader(br)
	if err != nil {
		return Meta{}, newError("decompress", s.Path, ErrIncompatible, err)
	}
	defer zr.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return Meta{}, newError("decompress", s.Path, ErrIncompatible, err)
	}

	if err := r.ReadWeights(&buf); err != nil {
		if errors.Is(err, classifier.ErrIncompatible) {
			return Meta{}, newError("weights", s.Path, ErrIncompatible, err)
		}
		return Meta{}, newError("weights", s.Path, ErrPersistence, err)
	}
	return meta, nil
}

func header(m Meta) string {
	return fmt.Sprintf("%s %d %s %d %s\n", Magic, m.SeqLen,
		m.Created.UTC().Format(time.RFC3339Nano), m.Epoch,
		strconv.FormatFloat(m.Loss, 'g', -1, 64))
}

func parseHeader(line string) (Meta, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 || fields[0] != Magic {
		return Meta{}, errors.Errorf("bad header %q", strings.TrimSpace(line))
	}
	seqLen, err := strconv.Atoi(fields[1])
	if err != nil || seqLen <= 0 {
		return Meta{}, errors.Errorf("bad seq_len %q", fields[1])
	}
	created, err := time.Parse(time.RFC3339Nano, fields[2])
	if err != nil {
		return Meta{}, errors.Wrap(err, "bad creation time")
	}
	epoch, err := strconv.Atoi(fields[3])
	if err != nil {
		return Meta{}, errors.Errorf("bad epoch %q", fields[3])
	}
	loss, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Meta{}, errors.Errorf("bad loss %q", fields[4])
	}
	return Meta{SeqLen: seqLen, Created: created, Epoch: epoch, Loss: loss}, nil
}
