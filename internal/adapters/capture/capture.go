// Package capture reads and writes framed sample captures.
//
// A capture is a sequence of records, each
// [8 bytes seq][4 bytes len][len bytes JSON sample], big endian.
// Sequence numbers start at 1 and increase by one per record. Non-finite
// values are stored as the strings "NaN", "+Inf" and "-Inf".
package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

const (
	recordHeaderLen = 12
	// maxRecordLen bounds a single JSON body; anything larger is corruption.
	maxRecordLen = 1 << 20
)

var (
	errTruncated = errors.New("truncated record")
	errSequence  = errors.New("sequence out of order")
	errTooLarge  = errors.New("record length exceeds limit")
)

// record is the JSON body of one capture record.
type record struct {
	Timestamp int64  `json:"ts"`
	Signal    string `json:"signal_name"`
	Value     value  `json:"value"`
}

// value is a float64 that survives JSON when it is NaN or infinite.
type value float64

func (v value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Marshal(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return json.Marshal(f)
}

func (v *value) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("value %q: %w", s, err)
		}
		*v = value(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = value(f)
	return nil
}

type Writer struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	seq    uint64
}

// Create truncates or creates the capture at path.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{file: f, writer: bufio.NewWriterSize(f, 1<<16)}, nil
}

func (w *Writer) Append(s domain.Sample) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	b, err := json.Marshal(record{Timestamp: s.Timestamp, Signal: s.Signal, Value: value(s.Value)})
	if err != nil {
		return 0, err
	}
	seq := w.seq + 1

	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], seq)
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(b)))
	if _, err := w.writer.Write(hdr[:]); err != nil {
		return 0, err
	}
	if _, err := w.writer.Write(b); err != nil {
		return 0, err
	}

	w.seq = seq
	return seq, nil
}

// Count reports the number of records appended so far.
func (w *Writer) Count() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	ferr := w.writer.Flush()
	serr := w.file.Sync()
	cerr := w.file.Close()
	w.file = nil
	return errors.Join(ferr, serr, cerr)
}

type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

func (l *Loader) Source() string { return l.path }

func (l *Loader) LoadSamples(ctx context.Context) ([]domain.Sample, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()
	return Read(ctx, f, l.path)
}

// Read decodes every record in r. The Line of a MalformedSampleError is the
// 1-based record index.
func Read(ctx context.Context, r io.Reader, source string) ([]domain.Sample, error) {
	br := bufio.NewReader(r)
	var out []domain.Sample

	for idx := 1; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		malformed := func(field string, err error) error {
			return &domain.MalformedSampleError{Source: source, Line: idx, Field: field, Err: err}
		}

		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, malformed("header", errTruncated)
			}
			return nil, fmt.Errorf("capture read header: %w", err)
		}
		seq := binary.BigEndian.Uint64(hdr[0:8])
		length := binary.BigEndian.Uint32(hdr[8:12])
		if seq != uint64(idx) {
			return nil, malformed("seq", fmt.Errorf("%w: got %d", errSequence, seq))
		}
		if length > maxRecordLen {
			return nil, malformed("len", fmt.Errorf("%w: %d", errTooLarge, length))
		}

		b := make([]byte, length)
		if _, err := io.ReadFull(br, b); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, malformed("body", errTruncated)
			}
			return nil, fmt.Errorf("capture read body: %w", err)
		}

		var rec record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, malformed("body", err)
		}
		if strings.TrimSpace(rec.Signal) == "" {
			return nil, malformed("signal_name", errors.New("empty signal name"))
		}
		out = append(out, domain.Sample{Timestamp: rec.Timestamp, Signal: rec.Signal, Value: float64(rec.Value)})
	}
}

var _ ports.SampleLoader = (*Loader)(nil)
