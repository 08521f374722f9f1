package trainer

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/neurlang/lightcurve/checkpoint"
	"github.com/neurlang/lightcurve/classifier"
)

var (
	// ErrConfig marks an unusable Config.
	ErrConfig = errors.New("trainer: invalid config")

	// ErrBatch marks a batch that cannot be trained on.
	ErrBatch = errors.New("trainer: invalid batch")

	// ErrState is returned by Run on a trainer that already left
	// Initializing.
	ErrState = errors.New("trainer: already run")
)

// Config holds the loop constants.
type Config struct {
	Epochs      int
	ReportEvery int

	// CheckpointPath is only reported back, the Saver decides where
	// checkpoints go.
	CheckpointPath string
}

// DefaultConfig trains 2000 epochs and reports every 50.
func DefaultConfig() Config {
	return Config{Epochs: 2000, ReportEvery: 50}
}

func (c Config) validate() error {
	if c.Epochs <= 0 {
		return errors.Wrapf(ErrConfig, "epochs %d", c.Epochs)
	}
	if c.ReportEvery <= 0 {
		return errors.Wrapf(ErrConfig, "report interval %d", c.ReportEvery)
	}
	return nil
}

// Saver persists a checkpoint. *checkpoint.Store implements it.
type Saver interface {
	Save(w checkpoint.WeightWriter, meta checkpoint.Meta) error
}

// State is the lifecycle position of a Trainer.
type State int

const (
	Initializing State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Option customizes a Trainer.
type Option func(*Trainer)

// WithReporter adds a callback invoked at every reporting boundary.
func WithReporter(r func(Progress)) Option {
	return func(t *Trainer) {
		if r != nil {
			t.reporters = append(t.reporters, r)
		}
	}
}

// WithLogger sets the logger, zap.NewNop by default.
func WithLogger(l *zap.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.log = l
		}
	}
}

// WithBestLoss starts the loop with a known best loss, typically the loss
// stored in a resumed checkpoint. Only strictly lower losses are saved.
func WithBestLoss(loss float64) Option {
	return func(t *Trainer) {
		t.best = loss
	}
}

// Trainer drives a classifier through Config.Epochs full-batch epochs.
type Trainer struct {
	cfg       Config
	model     classifier.Classifier
	store     Saver
	reporters []func(Progress)
	log       *zap.Logger

	state State
	epoch int
	best  float64
}

// New returns a Trainer in state Initializing.
func New(cfg Config, model classifier.Classifier, store Saver, opts ...Option) *Trainer {
	t := &Trainer{
		cfg:   cfg,
		model: model,
		store: store,
		log:   zap.NewNop(),
		best:  math.Inf(1),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// State returns the current state.
func (t *Trainer) State() State {
	return t.state
}

// Epoch returns the last completed epoch.
func (t *Trainer) Epoch() int {
	return t.epoch
}

// Best returns the lowest loss seen at a reporting boundary, +Inf before the
// first one.
func (t *Trainer) Best() float64 {
	return t.best
}
