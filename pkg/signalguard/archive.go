package signalguard

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ghalamif/SignalGuard/internal/adapters/sink"
)

// ErrRunNotFound is returned by LoadArchivedReport for an unknown run id.
var ErrRunNotFound = sink.ErrRunNotFound

// LoadArchivedReport reads a finished run back from a SQLite report archive.
func LoadArchivedReport(ctx context.Context, path, runID string) (*Report, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	archive, err := sink.NewSQLiteSink(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()
	return archive.LoadReport(ctx, runID)
}

// PrintReport writes report in the same text format as the run output.
func PrintReport(w io.Writer, report *Report, verbose bool) error {
	return sink.NewTextSink(w, verbose).Write(context.Background(), report)
}
