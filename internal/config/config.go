// Package config loads and validates tablefold configuration.
//
// Configuration is read from YAML (default: $XDG_CONFIG_HOME/tablefold/config.yaml),
// layered over built-in defaults, then overridden by TABLEFOLD_* environment
// variables and finally by CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/rshade/tablefold/internal/rowkey"
)

// SchemaVersion is the config schema written by this build.
const SchemaVersion = "1.0.0"

// supportedSchema is the range of schema versions this build reads.
const supportedSchema = "^1.0.0"

// Defaults.
const (
	DefaultTableHeight  = 20
	DefaultRowHeight    = 1
	DefaultSubRowHeight = 6
)

// ErrInvalidConfig is returned for configs that fail validation.
var ErrInvalidConfig = errors.New("invalid config")

// VirtualisationConfig turns on the virtualized body. Heights are in
// terminal lines.
type VirtualisationConfig struct {
	TableHeight  int `yaml:"table_height"`
	RowHeight    int `yaml:"row_height"`
	SubRowHeight int `yaml:"sub_row_height"`
}

// Validate checks that heights are usable.
func (v *VirtualisationConfig) Validate() error {
	if v == nil {
		return nil
	}
	if v.TableHeight <= 0 {
		return fmt.Errorf("%w: virtualisation.table_height must be > 0, got %d", ErrInvalidConfig, v.TableHeight)
	}
	if v.RowHeight <= 0 {
		return fmt.Errorf("%w: virtualisation.row_height must be > 0, got %d", ErrInvalidConfig, v.RowHeight)
	}
	if v.SubRowHeight < v.RowHeight {
		return fmt.Errorf("%w: virtualisation.sub_row_height (%d) must be >= row_height (%d)",
			ErrInvalidConfig, v.SubRowHeight, v.RowHeight)
	}
	return nil
}

// TableConfig holds table body presentation settings.
type TableConfig struct {
	KeyProp        string `yaml:"key_prop"`
	FixedHeader    bool   `yaml:"fixed_header"`
	ShowCheckboxes bool   `yaml:"show_checkboxes"`
}

// Config is the top-level configuration.
type Config struct {
	SchemaVersion  string                `yaml:"schema_version"`
	Table          TableConfig           `yaml:"table"`
	Virtualisation *VirtualisationConfig `yaml:"virtualisation,omitempty"`
	Logging        LoggingConfig         `yaml:"logging"`
}

// New returns a Config with defaults applied.
func New() *Config {
	return &Config{
		SchemaVersion: SchemaVersion,
		Table: TableConfig{
			KeyProp:     rowkey.DefaultField,
			FixedHeader: true,
		},
		Virtualisation: &VirtualisationConfig{
			TableHeight:  DefaultTableHeight,
			RowHeight:    DefaultRowHeight,
			SubRowHeight: DefaultSubRowHeight,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   defaultLogFile(),
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := New()
	if err := ShallowMergeYAML(cfg, path); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := New()
		cfg.ApplyEnv(os.LookupEnv)
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// ApplyEnv applies TABLEFOLD_* overrides.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("TABLEFOLD_LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup("TABLEFOLD_LOG_FORMAT"); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookup("TABLEFOLD_LOG_FILE"); ok {
		c.Logging.File = v
	}
	if v, ok := lookup("TABLEFOLD_KEY_PROP"); ok && v != "" {
		c.Table.KeyProp = v
	}
}

// Validate checks schema version and section values.
func (c *Config) Validate() error {
	if c.SchemaVersion != "" {
		v, err := semver.NewVersion(c.SchemaVersion)
		if err != nil {
			return fmt.Errorf("%w: schema_version %q: %w", ErrInvalidConfig, c.SchemaVersion, err)
		}
		constraint, err := semver.NewConstraint(supportedSchema)
		if err != nil {
			return fmt.Errorf("parsing supported schema range: %w", err)
		}
		if !constraint.Check(v) {
			return fmt.Errorf("%w: schema_version %s is not supported (want %s)",
				ErrInvalidConfig, c.SchemaVersion, supportedSchema)
		}
	}
	if c.Table.KeyProp == "" {
		return fmt.Errorf("%w: table.key_prop must not be empty", ErrInvalidConfig)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: logging.format must be json or console, got %q", ErrInvalidConfig, c.Logging.Format)
	}
	return c.Virtualisation.Validate()
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
