package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/neurlang/lightcurve/checkpoint"
	"github.com/neurlang/lightcurve/config"
	"github.com/neurlang/lightcurve/datasets/lightcurve"
	"github.com/neurlang/lightcurve/device"
	"github.com/neurlang/lightcurve/inference"
	"github.com/neurlang/lightcurve/journal"
	"github.com/neurlang/lightcurve/net/recurrent"
	"github.com/neurlang/lightcurve/trainer"
)

const (
	choicePrompt  = "Enter 1 to train, 2 to predict:"
	noFiles       = "No learn*.txt files found in current folder."
	invalidChoice = "Invalid choice"
	samplesPrompt = "Enter flux and time (like '0.998 131.2'), one per line. Type 'end' to finish:"
)

// App is one interactive session.
type App struct {
	Fs      afero.Fs
	In      *bufio.Reader
	Out     io.Writer
	Config  config.Config
	Log     *zap.Logger
	Journal *journal.Journal // optional
	Resume  bool
}

// Run asks for the mode unless one is given and runs it. Only failures the
// user cannot fix by answering differently are returned.
func (a *App) Run(mode string) error {
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	if mode == "" {
		fmt.Fprintln(a.Out, choicePrompt)
		line, err := a.In.ReadString('\n')
		if err != nil && err != io.EOF {
			return errors.Wrap(err, "read choice")
		}
		mode = line
	}
	mode = strings.TrimSpace(mode)

	files, err := lightcurve.DiscoverMatching(a.Fs, a.Config.Data.Dir, a.Config.Data.Prefix, a.Config.Data.Suffix)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(a.Out, noFiles)
		return nil
	}

	switch mode {
	case "1", "train":
		return a.train(files)
	case "2", "predict":
		return a.predict(files)
	default:
		fmt.Fprintln(a.Out, invalidChoice)
		return nil
	}
}

// network builds the classifier for this host. The device is only
// reported, the LSTM always runs on the CPU workers.
func (a *App) network() (*recurrent.Network, device.Info) {
	dev := device.Probe()
	workers := dev.Workers(a.Config.Train.Workers)
	a.Log.Info("device", zap.Stringer("device", dev), zap.Int("workers", workers))
	return recurrent.New(recurrent.Options{
		Input:        lightcurve.Channels,
		Hidden:       a.Config.Train.Hidden,
		Classes:      a.Config.Train.Classes,
		LearningRate: a.Config.Train.LearningRate,
		Seed:         a.Config.Train.Seed,
		Workers:      workers,
	}), dev
}

func (a *App) train(files []string) error {
	ds, err := lightcurve.LoadFiles(a.Fs, files)
	if err != nil {
		return err
	}
	net, dev := a.network()
	store := checkpoint.New(a.Fs, a.Config.Model.Path)
	cfg := trainer.Config{
		Epochs:         a.Config.Train.Epochs,
		ReportEvery:    a.Config.Train.ReportEvery,
		CheckpointPath: a.Config.Model.Path,
	}

	opts := []trainer.Option{
		trainer.WithLogger(a.Log),
		trainer.WithReporter(func(p trainer.Progress) {
			fmt.Fprintf(a.Out, "\nCompleted %4d epochs (%.1f %% done) - current error: %.4f\n", p.Epoch, p.Percent, p.Loss)
		}),
	}
	if a.Resume {
		meta, ok, err := trainer.Resume(net, store, ds.SeqLen)
		if err != nil {
			return err
		}
		if ok {
			a.Log.Info("resumed", zap.Int("epoch", meta.Epoch), zap.Float64("loss", meta.Loss))
			opts = append(opts, trainer.WithBestLoss(meta.Loss))
		}
	}

	ctx := context.Background()
	var run *journal.Run
	if a.Journal != nil {
		run, err = a.Journal.StartRun(ctx, journal.RunInfo{
			Samples:     ds.Batch.Len(),
			SeqLen:      ds.SeqLen,
			Epochs:      cfg.Epochs,
			ReportEvery: cfg.ReportEvery,
			ModelPath:   cfg.CheckpointPath,
			Device:      dev.String(),
		})
		if err != nil {
			return err
		}
		opts = append(opts, trainer.WithReporter(func(p trainer.Progress) {
			if err := run.Report(ctx, p); err != nil {
				a.Log.Warn("journal report", zap.Error(err))
			}
			if p.Checkpointed {
				if err := run.Checkpoint(ctx, p.Epoch, p.Loss, cfg.CheckpointPath); err != nil {
					a.Log.Warn("journal checkpoint", zap.Error(err))
				}
			}
		}))
	}

	fmt.Fprintf(a.Out, "\nStarting training on %d files for %d epochs...\n", len(files), cfg.Epochs)
	res, err := trainer.New(cfg, net, store, opts...).Run(ds.Batch)
	if run != nil {
		if jerr := run.Finish(ctx, res, err); jerr != nil {
			a.Log.Warn("journal finish", zap.Error(jerr))
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "\nTraining finished. Best model saved as %s\n\n", a.Config.Model.Path)
	return nil
}

func (a *App) predict(files []string) error {
	samples, err := lightcurve.ParseFiles(a.Fs, files)
	if err != nil {
		return err
	}
	seqLen := lightcurve.SeqLen(samples)

	net, _ := a.network()
	store := checkpoint.New(a.Fs, a.Config.Model.Path)
	meta, err := store.Load(net)
	switch {
	case errors.Is(err, checkpoint.ErrMissing):
		fmt.Fprintf(a.Out, "No trained model found at %s. Train first (enter 1).\n", a.Config.Model.Path)
		return nil
	case errors.Is(err, checkpoint.ErrIncompatible):
		a.Log.Warn("incompatible checkpoint", zap.Error(err))
		fmt.Fprintf(a.Out, "Model %s does not fit the current configuration. Train again (enter 1).\n", a.Config.Model.Path)
		return nil
	case err != nil:
		return err
	}
	if meta.SeqLen != seqLen {
		a.Log.Warn("incompatible checkpoint",
			zap.Error(checkpoint.ErrIncompatible),
			zap.Int("checkpoint_seq_len", meta.SeqLen),
			zap.Int("seq_len", seqLen))
		fmt.Fprintf(a.Out, "Model %s was trained on sequences of %d points but the samples now give %d. Train again (enter 1).\n",
			a.Config.Model.Path, meta.SeqLen, seqLen)
		return nil
	}

	fmt.Fprintf(a.Out, "\n%s\n\n", samplesPrompt)
	points, err := inference.ReadSamples(a.In, a.Out)
	if err != nil {
		return err
	}
	pred, err := inference.New(net, seqLen, a.Log).Predict(points)
	if errors.Is(err, inference.ErrDegenerateInput) {
		fmt.Fprintln(a.Out, "No data entered.")
		return nil
	}
	if err != nil {
		return err
	}

	if a.Journal != nil {
		if _, err := a.Journal.RecordPrediction(context.Background(), seqLen, pred); err != nil {
			a.Log.Warn("journal prediction", zap.Error(err))
		}
	}
	fmt.Fprintf(a.Out, "\nPredicted number of planets: %d\n\n", pred.Class)
	return nil
}
