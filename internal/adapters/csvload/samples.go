package csvload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

var (
	errMissingField = errors.New("field missing from record")
	errEmptySignal  = errors.New("signal name is empty")
)

// SampleLoader reads a log file from disk.
type SampleLoader struct {
	path string
	opts []Option
}

func NewSampleLoader(path string, opts ...Option) *SampleLoader {
	return &SampleLoader{path: path, opts: opts}
}

func (l *SampleLoader) Source() string { return l.path }

func (l *SampleLoader) LoadSamples(ctx context.Context) ([]domain.Sample, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	return ReadSamples(ctx, f, l.path, l.opts...)
}

// ReadSamples parses samples from r in file order.
func ReadSamples(ctx context.Context, r io.Reader, source string, opts ...Option) ([]domain.Sample, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return readSamples(ctx, r, source, o)
}

func readSamples(ctx context.Context, r io.Reader, source string, o options) ([]domain.Sample, error) {
	cols := o.sampleColumns
	t, err := newTable(r, source, o.comma)
	if err != nil {
		return nil, err
	}
	if missing, ok := t.require(cols.Timestamp, cols.Signal, cols.Value); !ok {
		return nil, &domain.MalformedSampleError{Source: source, Line: 1, Field: missing, Err: errMissingColumn}
	}

	var out []domain.Sample
	for {
		rec, line, err := t.next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			if line > 0 {
				return nil, &domain.MalformedSampleError{Source: source, Line: line, Err: err}
			}
			return nil, err
		}

		s, err := parseSample(t, rec, cols)
		if err != nil {
			var ms *domain.MalformedSampleError
			if errors.As(err, &ms) {
				ms.Source, ms.Line = source, line
			}
			return nil, err
		}
		out = append(out, s)
	}
}

func parseSample(t *table, rec []string, cols SampleColumns) (domain.Sample, error) {
	var s domain.Sample
	get := func(name string) (string, error) {
		v, ok := t.field(rec, name)
		if !ok {
			return "", &domain.MalformedSampleError{Field: name, Err: errMissingField}
		}
		return v, nil
	}

	raw, err := get(cols.Timestamp)
	if err != nil {
		return s, err
	}
	if s.Timestamp, err = strconv.ParseInt(raw, 10, 64); err != nil {
		return s, &domain.MalformedSampleError{Field: cols.Timestamp, Value: raw, Err: err}
	}

	if s.Signal, err = get(cols.Signal); err != nil {
		return s, err
	}
	if s.Signal == "" {
		return s, &domain.MalformedSampleError{Field: cols.Signal, Err: errEmptySignal}
	}

	if raw, err = get(cols.Value); err != nil {
		return s, err
	}
	if s.Value, err = strconv.ParseFloat(raw, 64); err != nil {
		return s, &domain.MalformedSampleError{Field: cols.Value, Value: raw, Err: err}
	}
	return s, nil
}

var _ ports.SampleLoader = (*SampleLoader)(nil)
