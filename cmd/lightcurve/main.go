package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/spf13/afero"

	"github.com/neurlang/lightcurve/config"
	"github.com/neurlang/lightcurve/journal"
	"github.com/neurlang/lightcurve/logging"
	"github.com/neurlang/lightcurve/metrics"
)

type args struct {
	Config string `arg:"--config" help:"YAML configuration file, defaults apply when missing"`
	Dir    string `arg:"--dir" help:"folder holding the learn*.txt samples"`
	Model  string `arg:"--model" help:"checkpoint file"`
	Mode   string `arg:"--mode" help:"train (1) or predict (2), skips the prompt"`
	Epochs int    `arg:"--epochs" help:"override the number of training epochs"`
	Resume bool   `arg:"--resume" help:"continue from the existing checkpoint"`
}

func (args) Description() string {
	return "Trains and queries a light-curve planet-count classifier."
}

func main() {
	a := args{Config: config.DefaultPath}
	arg.MustParse(&a)
	os.Exit(run(afero.NewOsFs(), a, os.Stdin, os.Stdout, os.Stderr))
}

// run executes one session and returns the process exit code. Deferred
// cleanup has finished by the time it returns.
func run(fs afero.Fs, a args, in io.Reader, out, errOut io.Writer) int {
	fail := func(err error) int {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	cfg, err := config.Load(fs, a.Config)
	if err != nil {
		return fail(err)
	}
	a.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return fail(err)
	}

	log, err := logging.NewWithWriter(cfg.Log.Level, errOut)
	if err != nil {
		return fail(err)
	}
	defer log.Sync()

	if srv := metrics.StartServer(cfg.Metrics.Addr); srv != nil {
		defer srv.Close()
	}

	var j *journal.Journal
	if cfg.Journal.Path != "" {
		if j, err = journal.Open(cfg.Journal.Path); err != nil {
			return fail(err)
		}
		defer j.Close()
	}

	app := &App{
		Fs:      fs,
		In:      bufio.NewReader(in),
		Out:     out,
		Config:  cfg,
		Log:     log,
		Journal: j,
		Resume:  a.Resume,
	}
	if err := app.Run(a.Mode); err != nil {
		return fail(err)
	}
	return 0
}

// apply copies the flags that were given over cfg.
func (a args) apply(cfg *config.Config) {
	if a.Dir != "" {
		cfg.Data.Dir = a.Dir
	}
	if a.Model != "" {
		cfg.Model.Path = a.Model
	}
	if a.Epochs > 0 {
		cfg.Train.Epochs = a.Epochs
	}
}
