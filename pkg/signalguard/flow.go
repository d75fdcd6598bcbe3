package signalguard

import (
	"context"
	"fmt"
)

// Flow is a convenience builder that lets callers say Conf → In → Out
// without touching the underlying hexagonal wiring.
type Flow struct {
	cfg  *Config
	opts []RuntimeOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// InOption configures the rule and sample side of a run.
type InOption func(*Flow)

// OutOption configures the report and observability side of a run.
type OutOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the underlying configuration so callers can tweak it before building a runtime.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw RuntimeOption values to the builder for advanced scenarios.
func (f *Flow) Options(opts ...RuntimeOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// In records input-side overrides.
func (f *Flow) In(opts ...InOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Out records output-side overrides and builds a Runtime ready to run.
func (f *Flow) Out(opts ...OutOption) (*Runtime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return NewRuntime(f.cfg, f.opts...)
}

// Run is a shortcut for Out + Runtime.Run + Runtime.Close.
func (f *Flow) Run(ctx context.Context, opts ...OutOption) (*Report, error) {
	rt, err := f.Out(opts...)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	return rt.Run(ctx)
}

// WithFlowOptions appends RuntimeOption values during Conf.
func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

// InRules injects a custom rule loader (database, API, generated, etc.).
func InRules(l RuleLoader) InOption {
	return func(f *Flow) {
		if f != nil && l != nil {
			f.appendOptions(WithRuleLoader(l))
		}
	}
}

// InSamples injects a custom sample source.
func InSamples(l SampleLoader) InOption {
	return func(f *Flow) {
		if f != nil && l != nil {
			f.appendOptions(WithSampleLoader(l))
		}
	}
}

// InSelector overrides the configured select expression.
func InSelector(s RuleSelector) InOption {
	return func(f *Flow) {
		if f != nil && s != nil {
			f.appendOptions(WithSelector(s))
		}
	}
}

// OutSink adds a custom Sink implementation.
func OutSink(s Sink) OutOption {
	return func(f *Flow) {
		if f != nil && s != nil {
			f.appendOptions(WithSink(s))
		}
	}
}

// OutObservability replaces the default observability backend.
func OutObservability(obs Observability) OutOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

// OutCallback installs a sink built from a simple callback function.
func OutCallback(name string, fn ReportCallback) OutOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(WithSink(NewCallbackSink(name, fn)))
		}
	}
}

func (f *Flow) appendOptions(opts ...RuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
