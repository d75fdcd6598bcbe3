package signalguard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ghalamif/SignalGuard/internal/adapters/sink"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("signalguard: channel sink closed")

// ReportCallback is invoked with every finished report.
type ReportCallback func(*Report) error

// NewCallbackSink adapts a ReportCallback into a Sink so callers can plug
// arbitrary functions without defining structs.
func NewCallbackSink(name string, fn ReportCallback) Sink {
	return sink.NewFunc(name, func(_ context.Context, r *Report) error {
		if fn == nil {
			return fmt.Errorf("callback sink %q: nil handler", name)
		}
		return fn(r)
	})
}

// NewChannelSink exposes reports via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown.
func NewChannelSink(name string, buffer int) (Sink, <-chan *Report, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan *Report, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type channelSink struct {
	name   string
	ch     chan *Report
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) Write(ctx context.Context, report *Report) error {
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if report == nil {
		return nil
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- report:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}
