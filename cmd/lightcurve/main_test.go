package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/lightcurve/config"
	"github.com/neurlang/lightcurve/journal"
)

func TestRunExitCodes(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/empty", 0o755))

	var out, errOut bytes.Buffer
	code := run(fs, args{Config: config.DefaultPath, Dir: "/missing", Mode: "1"}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "error: ")
	assert.Contains(t, errOut.String(), "/missing")

	out.Reset()
	errOut.Reset()
	code = run(fs, args{Config: config.DefaultPath, Dir: "/empty", Mode: "1"}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), noFiles)
	assert.Empty(t, errOut.String())
}

func TestRunInvalidConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("train:\n  epochs: -1\n"), 0o644))

	var errOut bytes.Buffer
	code := run(fs, args{Config: "bad.yaml"}, strings.NewReader(""), &bytes.Buffer{}, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "error: ")
}

func TestRunFailureClosesJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	fs := corpus(t)
	require.NoError(t, afero.WriteFile(fs, "/data/learn9.txt", []byte("1 2 3\n"), 0o644))
	cfg := "data:\n  dir: /data\njournal:\n  path: " + path + "\nlog:\n  level: off\n"
	require.NoError(t, afero.WriteFile(fs, "lc.yaml", []byte(cfg), 0o644))

	var errOut bytes.Buffer
	code := run(fs, args{Config: "lc.yaml", Mode: "1"}, strings.NewReader(""), &bytes.Buffer{}, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "learn9.txt")

	// the journal was closed on the way out and opens cleanly again
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()
	runs, err := j.Runs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}
