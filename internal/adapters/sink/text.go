package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

// TextSink prints one "<signal>: PASS|FAIL" line per verdict.
type TextSink struct {
	w       io.Writer
	verbose bool
}

func NewTextSink(w io.Writer, verbose bool) *TextSink {
	return &TextSink{w: w, verbose: verbose}
}

func (t *TextSink) Name() string { return "text" }

func (t *TextSink) Write(_ context.Context, report *domain.Report) error {
	if report == nil {
		return nil
	}
	for _, v := range report.Verdicts {
		var err error
		if t.verbose && v.Failed() {
			_, err = fmt.Fprintf(t.w, "%s: %s (failed at t=%d)\n", v.Signal, v.Status, v.FailedAt)
		} else {
			_, err = fmt.Fprintf(t.w, "%s: %s\n", v.Signal, v.Status)
		}
		if err != nil {
			return fmt.Errorf("write verdict: %w", err)
		}
	}
	if t.verbose {
		_, err := fmt.Fprintf(t.w, "-- run %s: %d signals, %d failed, %d samples processed, %d skipped\n",
			report.RunID, len(report.Verdicts), report.FailedCount(), report.Processed, report.Skipped)
		if err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

var _ ports.ReportSink = (*TextSink)(nil)
