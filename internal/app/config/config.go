package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghalamif/SignalGuard/internal/adapters/csvload"
	"github.com/ghalamif/SignalGuard/internal/adapters/opcua"
	"gopkg.in/yaml.v3"
)

const (
	FormatCSV     = "csv"
	FormatYAML    = "yaml"
	FormatCapture = "capture"
	FormatOPCUA   = "opcua"
)

type Config struct {
	Rules   RulesConfig   `yaml:"rules"`
	Samples SamplesConfig `yaml:"samples"`
	Select  string        `yaml:"select"`
	OPCUA   *opcua.Config `yaml:"opcua"`
	Report  ReportConfig  `yaml:"report"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
	Strict  bool          `yaml:"strict"`
}

type RulesConfig struct {
	Path      string              `yaml:"path"`
	Format    string              `yaml:"format"`
	Delimiter string              `yaml:"delimiter"`
	Columns   csvload.RuleColumns `yaml:"columns"`
}

type SamplesConfig struct {
	Path      string                `yaml:"path"`
	Format    string                `yaml:"format"`
	Delimiter string                `yaml:"delimiter"`
	Columns   csvload.SampleColumns `yaml:"columns"`
}

type ReportConfig struct {
	Text      TextConfig      `yaml:"text"`
	Timescale TimescaleConfig `yaml:"timescale"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
}

type TextConfig struct {
	Disabled bool `yaml:"disabled"`
	Verbose  bool `yaml:"verbose"`
}

type TimescaleConfig struct {
	ConnString  string `yaml:"conn_string"`
	Table       string `yaml:"table"`
	CreateTable bool   `yaml:"create_table"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file and applies defaults. Relative paths in the
// file are taken relative to the file itself. Path-dependent settings are
// checked by Finalize, after flag overrides.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.resolvePaths(filepath.Dir(path))
	cfg.applyDefaults()
	if err := cfg.validateStatic(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePaths makes relative file paths in the config relative to dir.
func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.Rules.Path, &c.Samples.Path, &c.Report.SQLite.Path, &c.Metrics.Textfile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Finalize re-applies defaults and validates the complete config. Call it
// once every override is in place.
func (c *Config) Finalize() error {
	if err := c.Normalize(); err != nil {
		return err
	}
	return c.validate()
}

func (c *Config) applyDefaults() {
	if c.Rules.Delimiter == "" {
		c.Rules.Delimiter = ","
	}
	if c.Samples.Delimiter == "" {
		c.Samples.Delimiter = ","
	}
	c.Rules.Format = strings.ToLower(c.Rules.Format)
	c.Samples.Format = strings.ToLower(c.Samples.Format)
	if c.Report.Timescale.Table == "" {
		c.Report.Timescale.Table = "signal_verdicts"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.OPCUA != nil {
		c.OPCUA.ApplyDefaults()
	}
}

// validateStatic checks the settings a flag cannot override.
func (c *Config) validateStatic() error {
	if _, err := csvload.ParseDelimiter(c.Rules.Delimiter); err != nil {
		return fmt.Errorf("rules.delimiter: %w", err)
	}
	if _, err := csvload.ParseDelimiter(c.Samples.Delimiter); err != nil {
		return fmt.Errorf("samples.delimiter: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.OPCUA != nil {
		if err := c.OPCUA.Validate(); err != nil {
			return fmt.Errorf("opcua config: %w", err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Rules.Path == "" {
		return errors.New("rules.path is required")
	}
	switch f := c.RuleFormat(); f {
	case FormatCSV, FormatYAML:
	default:
		return fmt.Errorf("rules.format %q is not supported", f)
	}
	switch f := c.SampleFormat(); f {
	case FormatCSV, FormatCapture:
		if c.Samples.Path == "" {
			return errors.New("samples.path is required")
		}
	case FormatOPCUA:
		if c.OPCUA == nil {
			return errors.New("samples.format opcua requires an opcua section")
		}
	case "":
		return errors.New("samples.path is required")
	default:
		return fmt.Errorf("samples.format %q is not supported", f)
	}
	return nil
}

// Normalize applies defaults and checks the settings that do not depend on
// which loaders are used.
func (c *Config) Normalize() error {
	c.applyDefaults()
	return c.validateStatic()
}

// ValidateRulesOnly checks what a rules-only command needs.
func (c *Config) ValidateRulesOnly() error {
	if err := c.Normalize(); err != nil {
		return err
	}
	if c.Rules.Path == "" {
		return errors.New("rules.path is required")
	}
	switch f := c.RuleFormat(); f {
	case FormatCSV, FormatYAML:
		return nil
	default:
		return fmt.Errorf("rules.format %q is not supported", f)
	}
}

// RuleFormat is rules.format, or the format implied by the file extension.
func (c *Config) RuleFormat() string {
	if c.Rules.Format != "" {
		return c.Rules.Format
	}
	return ruleFormatFor(c.Rules.Path)
}

// SampleFormat is samples.format, or the format implied by the file
// extension, or opcua when only an opcua section is present.
func (c *Config) SampleFormat() string {
	switch {
	case c.Samples.Format != "":
		return c.Samples.Format
	case c.Samples.Path != "":
		return sampleFormatFor(c.Samples.Path)
	case c.OPCUA != nil:
		return FormatOPCUA
	default:
		return ""
	}
}

func ruleFormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatCSV
	}
}

func sampleFormatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".cap") {
		return FormatCapture
	}
	return FormatCSV
}
