package signalguard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/SignalGuard/internal/adapters/capture"
	"github.com/ghalamif/SignalGuard/internal/adapters/csvload"
	"github.com/ghalamif/SignalGuard/internal/adapters/observability"
	"github.com/ghalamif/SignalGuard/internal/adapters/opcua"
	"github.com/ghalamif/SignalGuard/internal/adapters/selector"
	"github.com/ghalamif/SignalGuard/internal/adapters/sink"
	"github.com/ghalamif/SignalGuard/internal/adapters/yamlrules"
	"github.com/ghalamif/SignalGuard/internal/app/config"
	"github.com/ghalamif/SignalGuard/internal/app/run"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	rules         RuleLoader
	samples       SampleLoader
	selector      RuleSelector
	sinks         []Sink
	observability Observability
	output        io.Writer
	logOutput     io.Writer
	runID         string
}

// WithRuleLoader replaces the configured rule file.
func WithRuleLoader(l RuleLoader) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.rules = l
	}
}

// WithSampleLoader replaces the configured sample source.
func WithSampleLoader(l SampleLoader) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.samples = l
	}
}

// WithSelector replaces the configured select expression.
func WithSelector(s RuleSelector) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.selector = s
	}
}

// WithSink adds a sink after the configured ones.
func WithSink(s Sink) RuntimeOption {
	return func(o *runtimeOverrides) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}

// WithObservability plugs in a custom observability backend. The metrics
// textfile is only written by the built-in Prometheus backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithOutput sets where the text report goes. Defaults to stdout.
func WithOutput(w io.Writer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.output = w
	}
}

// WithLogOutput sets where logs go. Defaults to stderr.
func WithLogOutput(w io.Writer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.logOutput = w
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.runID = id
	}
}

// Runtime wires loaders, selector, engine and sinks for validation runs.
type Runtime struct {
	cfg     *Config
	in      run.Inputs
	sinks   sink.Multi
	prom    *observability.PromObs
	closers []io.Closer
}

// NewRuntime bootstraps the default adapters from cfg: delimited, YAML,
// capture or OPC UA loaders, the CEL selector, and text, Timescale and
// SQLite sinks. RuntimeOption values override any of them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	rt := &Runtime{cfg: cfg}
	obs := overrides.observability
	if obs == nil {
		logOut := overrides.logOutput
		if logOut == nil {
			logOut = os.Stderr
		}
		logger, err := observability.NewLogger(logOut, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return nil, err
		}
		rt.prom = observability.NewPromObs(prometheus.NewRegistry(), logger)
		obs = rt.prom
	}

	rules := overrides.rules
	if rules == nil {
		var err error
		if rules, err = newRuleLoader(cfg); err != nil {
			return nil, err
		}
	}

	samples := overrides.samples
	if samples == nil {
		var err error
		if samples, err = newSampleLoader(cfg, obs); err != nil {
			return nil, err
		}
	}

	sel := overrides.selector
	if sel == nil {
		compiled, err := selector.Compile(cfg.Select)
		if err != nil {
			return nil, err
		}
		if compiled != nil {
			sel = compiled
		}
	}

	sinks, err := rt.newSinks(cfg, overrides.output)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.sinks = append(sink.Multi(sinks), overrides.sinks...)

	rt.in = run.Inputs{
		Rules:    rules,
		Samples:  samples,
		Selector: sel,
		Sink:     rt.sinks,
		Obs:      obs,
		RunID:    overrides.runID,
	}
	return rt, nil
}

// Run performs one validation run and writes the metrics textfile when
// configured. The report is returned even when a sink failed.
func (r *Runtime) Run(ctx context.Context) (*Report, error) {
	in := r.in
	report, err := run.Execute(ctx, in)
	if report == nil {
		return nil, err
	}
	if r.prom != nil && r.cfg.Metrics.Textfile != "" {
		if werr := r.prom.WriteTextfile(r.cfg.Metrics.Textfile); werr != nil {
			err = errors.Join(err, fmt.Errorf("write metrics textfile: %w", werr))
		}
	}
	return report, err
}

// LoadRules loads and selects the rule set without reading samples.
func (r *Runtime) LoadRules(ctx context.Context) (*RuleSet, error) {
	if r.in.Rules == nil {
		return nil, errors.New("rules.path is required")
	}
	return run.LoadRules(ctx, r.in.Rules, r.in.Selector, r.in.Obs)
}

// Export writes every sample of the configured source to a capture file
// and returns the record count.
func (r *Runtime) Export(ctx context.Context, path string) (int, error) {
	if r.in.Samples == nil {
		return 0, errors.New("no sample source configured")
	}
	w, err := capture.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create capture: %w", err)
	}
	n, err := run.Export(ctx, r.in.Samples, w, r.in.Obs)
	if cerr := w.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close capture: %w", cerr)
	}
	return n, err
}

// Observability returns the backend in use.
func (r *Runtime) Observability() Observability { return r.in.Obs }

// Close releases database handles held by sinks.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Runtime) newSinks(cfg *Config, output io.Writer) ([]Sink, error) {
	var sinks []Sink
	if !cfg.Report.Text.Disabled {
		if output == nil {
			output = os.Stdout
		}
		sinks = append(sinks, sink.NewTextSink(output, cfg.Report.Text.Verbose))
	}
	if ts := cfg.Report.Timescale; ts.ConnString != "" {
		s, err := sink.OpenTimescale(ts.ConnString, ts.Table, sink.WithCreateTable(ts.CreateTable))
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, s)
		sinks = append(sinks, s)
	}
	if path := cfg.Report.SQLite.Path; path != "" {
		s, err := sink.NewSQLiteSink(path)
		if err != nil {
			return nil, fmt.Errorf("sqlite archive: %w", err)
		}
		r.closers = append(r.closers, s)
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// newRuleLoader returns nil when no rule file is configured; commands that
// only move samples do not need one.
func newRuleLoader(cfg *Config) (RuleLoader, error) {
	if cfg.Rules.Path == "" {
		return nil, nil
	}
	switch f := cfg.RuleFormat(); f {
	case config.FormatYAML:
		return yamlrules.NewLoader(cfg.Rules.Path), nil
	case config.FormatCSV:
		comma, err := csvload.ParseDelimiter(cfg.Rules.Delimiter)
		if err != nil {
			return nil, err
		}
		return csvload.NewRuleLoader(cfg.Rules.Path,
			csvload.WithDelimiter(comma),
			csvload.WithRuleColumns(cfg.Rules.Columns),
		), nil
	default:
		return nil, fmt.Errorf("rules.format %q is not supported", f)
	}
}

func newSampleLoader(cfg *Config, obs ports.Observability) (SampleLoader, error) {
	f := cfg.SampleFormat()
	if (f == config.FormatCSV || f == config.FormatCapture) && cfg.Samples.Path == "" {
		return nil, errors.New("samples.path is required")
	}
	switch f {
	case config.FormatCSV:
		comma, err := csvload.ParseDelimiter(cfg.Samples.Delimiter)
		if err != nil {
			return nil, err
		}
		return csvload.NewSampleLoader(cfg.Samples.Path,
			csvload.WithDelimiter(comma),
			csvload.WithSampleColumns(cfg.Samples.Columns),
		), nil
	case config.FormatCapture:
		return capture.NewLoader(cfg.Samples.Path), nil
	case config.FormatOPCUA:
		if cfg.OPCUA == nil {
			return nil, errors.New("samples.format opcua requires an opcua section")
		}
		l, err := opcua.NewHistoryLoader(*cfg.OPCUA, opcua.WithObservability(obs))
		if err != nil {
			return nil, fmt.Errorf("opcua config: %w", err)
		}
		return l, nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("samples.format %q is not supported", f)
	}
}
