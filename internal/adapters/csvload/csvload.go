// Package csvload reads rule and sample records from delimited text files
// with a header row.
package csvload

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errMissingColumn = errors.New("column missing from header")

// RuleColumns names the header fields of a rule file.
type RuleColumns struct {
	Signal string `yaml:"signal"`
	Min    string `yaml:"min"`
	Max    string `yaml:"max"`
	Delay  string `yaml:"delay"`
}

// SampleColumns names the header fields of a log file.
type SampleColumns struct {
	Timestamp string `yaml:"timestamp"`
	Signal    string `yaml:"signal"`
	Value     string `yaml:"value"`
}

// DefaultRuleColumns is the layout of the signal definition exports used on
// the test benches.
func DefaultRuleColumns() RuleColumns {
	return RuleColumns{
		Signal: "signal_name",
		Min:    "min_value",
		Max:    "max_value",
		Delay:  "fault_delay_ms",
	}
}

// DefaultSampleColumns is the layout of the bench log exports.
func DefaultSampleColumns() SampleColumns {
	return SampleColumns{
		Timestamp: "timestamp_ms",
		Signal:    "signal_name",
		Value:     "value",
	}
}

func (c RuleColumns) withDefaults() RuleColumns {
	d := DefaultRuleColumns()
	if c.Signal == "" {
		c.Signal = d.Signal
	}
	if c.Min == "" {
		c.Min = d.Min
	}
	if c.Max == "" {
		c.Max = d.Max
	}
	if c.Delay == "" {
		c.Delay = d.Delay
	}
	return c
}

func (c SampleColumns) withDefaults() SampleColumns {
	d := DefaultSampleColumns()
	if c.Timestamp == "" {
		c.Timestamp = d.Timestamp
	}
	if c.Signal == "" {
		c.Signal = d.Signal
	}
	if c.Value == "" {
		c.Value = d.Value
	}
	return c
}

// Option configures a loader.
type Option func(*options)

type options struct {
	comma         rune
	ruleColumns   RuleColumns
	sampleColumns SampleColumns
}

func defaultOptions() options {
	return options{
		comma:         ',',
		ruleColumns:   DefaultRuleColumns(),
		sampleColumns: DefaultSampleColumns(),
	}
}

// WithDelimiter sets the field separator. Zero keeps the comma.
func WithDelimiter(comma rune) Option {
	return func(o *options) {
		if comma != 0 {
			o.comma = comma
		}
	}
}

// WithRuleColumns overrides rule header names; empty names keep the default.
func WithRuleColumns(cols RuleColumns) Option {
	return func(o *options) { o.ruleColumns = cols.withDefaults() }
}

// WithSampleColumns overrides log header names; empty names keep the default.
func WithSampleColumns(cols SampleColumns) Option {
	return func(o *options) { o.sampleColumns = cols.withDefaults() }
}

// ParseDelimiter turns a config value into a separator rune. It accepts a
// single character or the names "comma", "semicolon", "tab" and "pipe".
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "comma", ",":
		return ',', nil
	case "semicolon", ";":
		return ';', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case "pipe", "|":
		return '|', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r[0], nil
}

// table walks a delimited stream, handing out records keyed by header name.
type table struct {
	r      *csv.Reader
	index  map[string]int
	source string
}

func newTable(r io.Reader, source string, comma rune) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file, header row expected", source)
		}
		return nil, fmt.Errorf("%s: read header: %w", source, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return &table{r: cr, index: index, source: source}, nil
}

// require returns the first header name that is not present.
func (t *table) require(names ...string) (string, bool) {
	for _, n := range names {
		if _, ok := t.index[n]; !ok {
			return n, false
		}
	}
	return "", true
}

// next returns the next record and its line number, io.EOF at the end.
func (t *table) next(ctx context.Context) ([]string, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	rec, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, pe.StartLine, err
		}
		return nil, 0, fmt.Errorf("%s: %w", t.source, err)
	}
	line, _ := t.r.FieldPos(0)
	return rec, line, nil
}

// field returns the trimmed value of a column and whether the record has it.
func (t *table) field(rec []string, name string) (string, bool) {
	i := t.index[name]
	if i >= len(rec) {
		return "", false
	}
	return strings.TrimSpace(rec[i]), true
}
