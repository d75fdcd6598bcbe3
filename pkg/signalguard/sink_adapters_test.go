package signalguard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewCallbackSink(t *testing.T) {
	var received []*Report
	sink := NewCallbackSink("cb", func(r *Report) error {
		received = append(received, r)
		return nil
	})

	input := &Report{
		RunID:    "run-1",
		Verdicts: []Verdict{{Signal: "EngineSpeed", Status: StatusFail, FailedAt: 150}},
	}
	if err := sink.Write(context.Background(), input); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if len(received) != 1 || received[0] != input {
		t.Fatalf("expected the report to be passed through, got %+v", received)
	}
	if sink.Name() != "cb" {
		t.Fatalf("unexpected sink name %q", sink.Name())
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	if err := sink.Write(context.Background(), &Report{}); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	input := &Report{RunID: "run-2"}
	errCh := make(chan error, 1)

	go func() {
		errCh <- sink.Write(context.Background(), input)
	}()

	var got *Report
	select {
	case got = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel report")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if got.RunID != input.RunID {
		t.Fatalf("unexpected report: %+v", got)
	}

	closeFn()
	if err := sink.Write(context.Background(), input); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
}

func TestChannelSinkHonoursContext(t *testing.T) {
	sink, _, closeFn := NewChannelSink("", 0)
	defer closeFn()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Write(ctx, &Report{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled with no reader, got %v", err)
	}
	if sink.Name() != "channel" {
		t.Fatalf("unexpected default name %q", sink.Name())
	}
}
