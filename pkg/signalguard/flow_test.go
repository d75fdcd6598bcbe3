package signalguard

import (
	"context"
	"testing"
)

func TestConfFromConfigAndBuilder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Report.Text.Disabled = true

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	rules := &stubRules{}
	samples := &stubSamples{}
	sink := &stubSink{}

	rt, err := flow.
		In(
			InRules(rules),
			InSamples(samples),
		).
		Out(
			OutSink(sink),
			OutObservability(&stubObservability{}),
		)
	if err != nil {
		t.Fatalf("Out returned error: %v", err)
	}
	if rt.in.Rules != rules {
		t.Fatalf("expected custom rule loader to be wired")
	}
	if len(rt.sinks) != 1 || rt.sinks[0] != sink {
		t.Fatalf("expected custom sink to be wired")
	}
}

func TestFlowRunWithCallback(t *testing.T) {
	flow, err := Conf(writeFile(t, t.TempDir(), "config.yaml", "report:\n  text:\n    disabled: true\n"))
	if err != nil {
		t.Fatalf("Conf returned error: %v", err)
	}

	cfg := benchConfig(t)
	flow.Config().Rules = cfg.Rules
	flow.Config().Samples = cfg.Samples

	var seen []Verdict
	report, err := flow.
		In(InSelector(selectAll{})).
		Run(context.Background(),
			OutObservability(&stubObservability{}),
			OutCallback("collect", func(r *Report) error {
				seen = append(seen, r.Verdicts...)
				return nil
			}),
		)
	if err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
	if report.FailedCount() != 1 {
		t.Fatalf("expected one failed signal, got %d", report.FailedCount())
	}
	if len(seen) != 2 {
		t.Fatalf("expected callback to see 2 verdicts, got %d", len(seen))
	}
}

func TestNilFlow(t *testing.T) {
	var f *Flow
	if f.In() != nil || f.Config() != nil {
		t.Fatalf("nil flow should stay nil")
	}
	if _, err := f.Out(); err == nil {
		t.Fatalf("expected error from nil flow")
	}
	if _, err := ConfFromConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

type selectAll struct{}

func (selectAll) Select(Rule) (bool, error) { return true, nil }
