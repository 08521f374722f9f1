// Package config loads the YAML configuration of the lightcurve command.
package config

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the command looks for its configuration.
const DefaultPath = "lightcurve.yaml"

var validate = validator.New()

// Config is the application's configuration model.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Train   TrainConfig   `yaml:"train"`
	Model   ModelConfig   `yaml:"model"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Journal JournalConfig `yaml:"journal"`
}

// DataConfig locates the sample files.
type DataConfig struct {
	Dir    string `yaml:"dir" validate:"required"`
	Prefix string `yaml:"prefix"`
	Suffix string `yaml:"suffix"`
}

type TrainConfig struct {
	Epochs       int     `yaml:"epochs" validate:"gt=0"`
	ReportEvery  int     `yaml:"report_every" validate:"gt=0"`
	LearningRate float64 `yaml:"learning_rate" validate:"gt=0"`
	Hidden       int     `yaml:"hidden" validate:"gt=0"`
	Classes      int     `yaml:"classes" validate:"gt=0"`
	Seed         int64   `yaml:"seed"`
	// Workers bounds the goroutines of one batch, 0 picks the core count.
	Workers int `yaml:"workers" validate:"gte=0"`
}

type ModelConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error off"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, e.g. ":9090"
	Addr string `yaml:"addr" validate:"omitempty,contains=:"`
}

type JournalConfig struct {
	// Path of the SQLite run journal, empty disables it
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Data: DataConfig{Dir: ".", Prefix: "learn", Suffix: ".txt"},
		Train: TrainConfig{
			Epochs:       2000,
			ReportEvery:  50,
			LearningRate: 1e-3,
			Hidden:       64,
			Classes:      10,
			Seed:         42,
		},
		Model: ModelConfig{Path: "planet_model.ckpt"},
		Log:   LogConfig{Level: "warn"},
	}
}

// ResolveEnv overrides fields from LIGHTCURVE_MODEL, LIGHTCURVE_DIR and
// METRICS_ADDR when they are set.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("LIGHTCURVE_MODEL"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("LIGHTCURVE_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
}

// Validate checks every field constraint.
func (c Config) Validate() error {
	return errors.Wrap(validate.Struct(c), "config")
}

// Load reads YAML config from path on top of Default. A missing file yields
// the defaults. Environment overrides apply in both cases and the result is
// validated.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	b, err := afero.ReadFile(fs, path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, errors.Wrapf(err, "config: read %s", path)
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "config: parse %s", path)
		}
	}
	cfg.ResolveEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(fs afero.Fs, path string, cfg Config) error {
	if path == "" {
		return errors.New("config: empty path")
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "config: create directory")
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "config: encode")
	}
	return errors.Wrap(afero.WriteFile(fs, path, b, 0o644), "config: write")
}
