package signalguard

import (
	"github.com/ghalamif/SignalGuard/internal/adapters/csvload"
	"github.com/ghalamif/SignalGuard/internal/adapters/opcua"
	"github.com/ghalamif/SignalGuard/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// RulesConfig locates the rule file.
	RulesConfig = config.RulesConfig
	// SamplesConfig locates the sample log.
	SamplesConfig = config.SamplesConfig
	// RuleColumns names the header fields of a delimited rule file.
	RuleColumns = csvload.RuleColumns
	// SampleColumns names the header fields of a delimited log.
	SampleColumns = csvload.SampleColumns
	// OPCUAConfig holds connection, history window and node details.
	OPCUAConfig = opcua.Config
	// OPCUANodeConfig maps a historized node to a signal.
	OPCUANodeConfig = opcua.NodeConfig
	// ReportConfig enables the report sinks.
	ReportConfig = config.ReportConfig
	// TextConfig configures the stdout report.
	TextConfig = config.TextConfig
	// TimescaleConfig configures the Postgres verdict table.
	TimescaleConfig = config.TimescaleConfig
	// SQLiteConfig configures the local report archive.
	SQLiteConfig = config.SQLiteConfig
	// MetricsConfig configures the node-exporter textfile.
	MetricsConfig = config.MetricsConfig
	// LogConfig selects log level and format.
	LogConfig = config.LogConfig
)

// Sample and rule source formats.
const (
	FormatCSV     = config.FormatCSV
	FormatYAML    = config.FormatYAML
	FormatCapture = config.FormatCapture
	FormatOPCUA   = config.FormatOPCUA
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns a config with defaults applied and no inputs set.
func DefaultConfig() *Config {
	return config.Default()
}
