package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

// Func adapts a function to a ReportSink.
type Func struct {
	name string
	fn   func(context.Context, *domain.Report) error
}

func NewFunc(name string, fn func(context.Context, *domain.Report) error) *Func {
	if name == "" {
		name = "callback"
	}
	return &Func{name: name, fn: fn}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Write(ctx context.Context, report *domain.Report) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, report)
}

// Multi writes a report to every sink in order. Every sink is attempted;
// failures are joined.
type Multi []ports.ReportSink

func (m Multi) Name() string { return "multi" }

func (m Multi) Write(ctx context.Context, report *domain.Report) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

var (
	_ ports.ReportSink = (*Func)(nil)
	_ ports.ReportSink = Multi(nil)
)
