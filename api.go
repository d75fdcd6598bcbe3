package signalguard

import (
	"context"
	"io"

	base "github.com/ghalamif/SignalGuard/pkg/signalguard"
)

// Re-exported errors for convenience.
var (
	ErrMalformedRule       = base.ErrMalformedRule
	ErrMalformedSample     = base.ErrMalformedSample
	ErrDuplicateSignalRule = base.ErrDuplicateSignalRule
	ErrChannelSinkClosed   = base.ErrChannelSinkClosed
	ErrRunNotFound         = base.ErrRunNotFound
)

const (
	StatusPass = base.StatusPass
	StatusFail = base.StatusFail
)

// Sample and rule source formats.
const (
	FormatCSV     = base.FormatCSV
	FormatYAML    = base.FormatYAML
	FormatCapture = base.FormatCapture
	FormatOPCUA   = base.FormatOPCUA
)

// Type aliases so consumers can import github.com/ghalamif/SignalGuard directly.
type (
	Config                   = base.Config
	RulesConfig              = base.RulesConfig
	SamplesConfig            = base.SamplesConfig
	RuleColumns              = base.RuleColumns
	SampleColumns            = base.SampleColumns
	OPCUAConfig              = base.OPCUAConfig
	OPCUANodeConfig          = base.OPCUANodeConfig
	ReportConfig             = base.ReportConfig
	TextConfig               = base.TextConfig
	TimescaleConfig          = base.TimescaleConfig
	SQLiteConfig             = base.SQLiteConfig
	MetricsConfig            = base.MetricsConfig
	LogConfig                = base.LogConfig
	Flow                     = base.Flow
	FlowOption               = base.FlowOption
	InOption                 = base.InOption
	OutOption                = base.OutOption
	Runtime                  = base.Runtime
	RuntimeOption            = base.RuntimeOption
	Rule                     = base.Rule
	RuleSet                  = base.RuleSet
	Sample                   = base.Sample
	Verdict                  = base.Verdict
	Status                   = base.Status
	Report                   = base.Report
	RuleLoader               = base.RuleLoader
	SampleLoader             = base.SampleLoader
	RuleSelector             = base.RuleSelector
	Sink                     = base.Sink
	ReportCallback           = base.ReportCallback
	Observability            = base.Observability
	Field                    = base.Field
	MalformedRuleError       = base.MalformedRuleError
	MalformedSampleError     = base.MalformedSampleError
	DuplicateSignalRuleError = base.DuplicateSignalRuleError
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

// In-memory validation.
func Validate(rules []Rule, samples []Sample) ([]Verdict, error) {
	return base.Validate(rules, samples)
}

func NewRuleSet() *RuleSet {
	return base.NewRuleSet()
}

// Report archive helpers.
func LoadArchivedReport(ctx context.Context, path, runID string) (*Report, error) {
	return base.LoadArchivedReport(ctx, path, runID)
}

func PrintReport(w io.Writer, report *Report, verbose bool) error {
	return base.PrintReport(w, report, verbose)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func InRules(l RuleLoader) InOption {
	return base.InRules(l)
}

func InSamples(l SampleLoader) InOption {
	return base.InSamples(l)
}

func InSelector(s RuleSelector) InOption {
	return base.InSelector(s)
}

func OutSink(s Sink) OutOption {
	return base.OutSink(s)
}

func OutObservability(obs Observability) OutOption {
	return base.OutObservability(obs)
}

func OutCallback(name string, fn ReportCallback) OutOption {
	return base.OutCallback(name, fn)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithRuleLoader(l RuleLoader) RuntimeOption {
	return base.WithRuleLoader(l)
}

func WithSampleLoader(l SampleLoader) RuntimeOption {
	return base.WithSampleLoader(l)
}

func WithSelector(s RuleSelector) RuntimeOption {
	return base.WithSelector(s)
}

func WithSink(s Sink) RuntimeOption {
	return base.WithSink(s)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithOutput(w io.Writer) RuntimeOption {
	return base.WithOutput(w)
}

func WithLogOutput(w io.Writer) RuntimeOption {
	return base.WithLogOutput(w)
}

func WithRunID(id string) RuntimeOption {
	return base.WithRunID(id)
}

// Sink adapters.
func NewCallbackSink(name string, fn ReportCallback) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan *Report, func()) {
	return base.NewChannelSink(name, buffer)
}
