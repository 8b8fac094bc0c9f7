package driver

import (
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/alexmckenley/hermes/pkg/errors"
	"github.com/alexmckenley/hermes/pkg/vm"
)

// Config configures a Hermes session. It can be loaded from YAML.
type Config struct {
	// ES6Symbol installs the Symbol constructor on the global object.
	ES6Symbol bool `yaml:"es6Symbol"`
	// MaxHeapCells bounds the runtime heap; 0 means unlimited.
	MaxHeapCells int `yaml:"maxHeapCells"`
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"logLevel"`

	// Stdout receives the output of the global print function.
	Stdout io.Writer `yaml:"-"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ES6Symbol: true,
		LogLevel:  logrus.InfoLevel.String(),
		Stdout:    os.Stdout,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, pkgerrors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, pkgerrors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid field as a *errors.ConfigError.
func (c Config) Validate() error {
	if c.MaxHeapCells < 0 {
		return &errors.ConfigError{Field: "maxHeapCells", Msg: "must not be negative"}
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return (&errors.ConfigError{Field: "logLevel", Msg: "unknown level " + c.LogLevel}).CausedBy(err)
		}
	}
	return nil
}

// runtimeConfig is the part of c the runtime consumes.
func (c Config) runtimeConfig() vm.Config {
	return vm.Config{ES6Symbol: c.ES6Symbol, MaxHeapCells: c.MaxHeapCells}
}

// logger builds the logger for a session.
func (c Config) logger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		l.SetLevel(level)
	}
	return l
}
