package sink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ghalamif/SignalGuard/internal/domain"
)

func TestTextSink(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextSink(&buf, false).Write(context.Background(), sampleReport()); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "EngineSpeed: FAIL\nCoolantTemp: PASS\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestTextSinkVerbose(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextSink(&buf, true).Write(context.Background(), sampleReport()); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", lines)
	}
	if lines[0] != "EngineSpeed: FAIL (failed at t=150)" {
		t.Fatalf("unexpected fail line %q", lines[0])
	}
	if lines[1] != "CoolantTemp: PASS" {
		t.Fatalf("unexpected pass line %q", lines[1])
	}
	if lines[2] != "-- run run-1: 2 signals, 1 failed, 7 samples processed, 1 skipped" {
		t.Fatalf("unexpected summary %q", lines[2])
	}
}

func TestMultiAttemptsEverySink(t *testing.T) {
	boom := errors.New("disk full")
	var calls []string
	record := func(name string, err error) *Func {
		return NewFunc(name, func(_ context.Context, r *domain.Report) error {
			calls = append(calls, name+":"+r.RunID)
			return err
		})
	}

	m := Multi{record("first", boom), nil, record("second", nil)}
	err := m.Write(context.Background(), sampleReport())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !strings.Contains(err.Error(), "sink first") {
		t.Fatalf("error should name the sink, got %v", err)
	}
	if len(calls) != 2 || calls[1] != "second:run-1" {
		t.Fatalf("expected both sinks to run, got %v", calls)
	}
	if NewFunc("", nil).Name() != "callback" {
		t.Fatalf("unexpected default callback name")
	}
}
