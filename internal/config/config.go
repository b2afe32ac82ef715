// Package config resolves qlinear settings from defaults, an optional
// YAML file (~/.config/qlinear/config.yaml) and QLINEAR_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/qlinear/internal/logger"
	"github.com/samcharles93/qlinear/pkg/quant"
)

// Config is the resolved configuration used by the pipeline, API and CLI.
type Config struct {
	Data             string
	TargetColumn     string
	TestSize         float64
	Seed             uint64
	SyntheticSamples int

	ArtifactsDir string
	Scheme       string
	FixedScale   float64
	Compress     bool

	Database Database

	LogLevel      string
	LogFormat     string
	ServerAddress string
}

// Database selects the run registry backend. Postgres wins when both are
// set. Replicas are read-only postgres DSNs.
type Database struct {
	SQLite   string   `yaml:"sqlite"`
	Postgres string   `yaml:"postgres"`
	Replicas []string `yaml:"replicas"`
	Disabled bool     `yaml:"disabled"`
}

func (d Database) Enabled() bool { return !d.Disabled && (d.SQLite != "" || d.Postgres != "") }

// DefaultSQLite is the run database file name used inside the artifacts
// directory when neither sqlite nor postgres is configured.
const DefaultSQLite = "runs.db"

// RunDatabase resolves the registry backend. Without an explicit backend
// the run history is an sqlite file in ArtifactsDir.
func (c Config) RunDatabase() Database {
	d := c.Database
	if d.Disabled || d.Enabled() {
		return d
	}
	d.SQLite = filepath.Join(c.ArtifactsDir, DefaultSQLite)
	return d
}

// file mirrors the YAML layout. Pointer fields distinguish "not set" from
// zero values.
type file struct {
	Data             *string  `yaml:"data"`
	TargetColumn     *string  `yaml:"target_column"`
	TestSize         *float64 `yaml:"test_size"`
	Seed             *uint64  `yaml:"seed"`
	SyntheticSamples *int     `yaml:"synthetic_samples"`

	ArtifactsDir *string  `yaml:"artifacts_dir"`
	Scheme       *string  `yaml:"scheme"`
	FixedScale   *float64 `yaml:"fixed_scale"`
	Compress     *bool    `yaml:"compress"`

	Database *Database `yaml:"database"`

	LogLevel      *string `yaml:"log_level"`
	LogFormat     *string `yaml:"log_format"`
	ServerAddress *string `yaml:"server_address"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TestSize:         0.2,
		Seed:             42,
		SyntheticSamples: 2000,
		ArtifactsDir:     "models",
		Scheme:           quant.SchemeSymmetricInt8,
		LogLevel:         "info",
		LogFormat:        logger.FormatPretty,
		ServerAddress:    "127.0.0.1:8080",
	}
}

// DefaultPath is the per-user config file location, or "" when the user
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "qlinear", "config.yaml")
}

// Load overlays the YAML file at path onto Default, then QLINEAR_*
// environment variables. An empty path means DefaultPath, which may be
// absent. An explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.overlay(data); err != nil {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Environment variables recognised by Load. They override the file and
// are overridden by flags.
const (
	EnvData          = "QLINEAR_DATA"
	EnvArtifactsDir  = "QLINEAR_ARTIFACTS_DIR"
	EnvSQLite        = "QLINEAR_SQLITE"
	EnvPostgres      = "QLINEAR_POSTGRES"
	EnvLogLevel      = "QLINEAR_LOG_LEVEL"
	EnvLogFormat     = "QLINEAR_LOG_FORMAT"
	EnvServerAddress = "QLINEAR_SERVER_ADDRESS"
)

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvData, &c.Data)
	str(EnvArtifactsDir, &c.ArtifactsDir)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvLogFormat, &c.LogFormat)
	str(EnvServerAddress, &c.ServerAddress)
	if v, ok := lookup(EnvPostgres); ok && v != "" {
		c.Database.Postgres = v
	} else if v, ok := lookup(EnvSQLite); ok && v != "" {
		c.Database = Database{SQLite: v}
	}
}

// Parse overlays YAML bytes onto Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.overlay(data); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) overlay(data []byte) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	setIf(&c.Data, f.Data)
	setIf(&c.TargetColumn, f.TargetColumn)
	setIf(&c.TestSize, f.TestSize)
	setIf(&c.Seed, f.Seed)
	setIf(&c.SyntheticSamples, f.SyntheticSamples)
	setIf(&c.ArtifactsDir, f.ArtifactsDir)
	setIf(&c.Scheme, f.Scheme)
	setIf(&c.FixedScale, f.FixedScale)
	setIf(&c.Compress, f.Compress)
	setIf(&c.Database, f.Database)
	setIf(&c.LogLevel, f.LogLevel)
	setIf(&c.LogFormat, f.LogFormat)
	setIf(&c.ServerAddress, f.ServerAddress)
	return c.Validate()
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks ranges and names that would otherwise fail deep inside
// the pipeline.
func (c Config) Validate() error {
	if !(c.TestSize > 0 && c.TestSize < 1) {
		return fmt.Errorf("test_size %v must be in (0, 1)", c.TestSize)
	}
	if c.SyntheticSamples <= 0 {
		return fmt.Errorf("synthetic_samples must be positive, got %d", c.SyntheticSamples)
	}
	if c.ArtifactsDir == "" {
		return errors.New("artifacts_dir must not be empty")
	}
	if _, err := c.QuantScheme(); err != nil {
		return err
	}
	return logger.CheckFormat(c.LogFormat)
}

// QuantScheme resolves the configured quantization scheme.
func (c Config) QuantScheme() (quant.Scheme, error) {
	return quant.SchemeByName(c.Scheme, c.FixedScale)
}
