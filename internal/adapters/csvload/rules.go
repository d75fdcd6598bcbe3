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

// RuleLoader reads a rule file from disk.
type RuleLoader struct {
	path string
	opts []Option
}

func NewRuleLoader(path string, opts ...Option) *RuleLoader {
	return &RuleLoader{path: path, opts: opts}
}

func (l *RuleLoader) Source() string { return l.path }

func (l *RuleLoader) LoadRules(ctx context.Context) (*domain.RuleSet, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	return ReadRules(ctx, f, l.path, l.opts...)
}

// ReadRules parses rules from r. source is used in error messages.
func ReadRules(ctx context.Context, r io.Reader, source string, opts ...Option) (*domain.RuleSet, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return readRules(ctx, r, source, o)
}

func readRules(ctx context.Context, r io.Reader, source string, o options) (*domain.RuleSet, error) {
	cols := o.ruleColumns
	t, err := newTable(r, source, o.comma)
	if err != nil {
		return nil, err
	}
	if missing, ok := t.require(cols.Signal, cols.Min, cols.Max, cols.Delay); !ok {
		return nil, &domain.MalformedRuleError{Source: source, Line: 1, Field: missing, Err: errMissingColumn}
	}

	set := domain.NewRuleSet()
	for {
		rec, line, err := t.next(ctx)
		if errors.Is(err, io.EOF) {
			return set, nil
		}
		if err != nil {
			if line > 0 {
				return nil, &domain.MalformedRuleError{Source: source, Line: line, Err: err}
			}
			return nil, err
		}

		rule, err := parseRule(t, rec, cols)
		if err != nil {
			var mr *domain.MalformedRuleError
			if errors.As(err, &mr) {
				mr.Source, mr.Line = source, line
			}
			return nil, err
		}
		if err := set.AddAt(rule, line); err != nil {
			var dup *domain.DuplicateSignalRuleError
			if errors.As(err, &dup) {
				dup.Source = source
			}
			return nil, err
		}
	}
}

func parseRule(t *table, rec []string, cols RuleColumns) (domain.Rule, error) {
	var rule domain.Rule
	get := func(name string) (string, error) {
		v, ok := t.field(rec, name)
		if !ok {
			return "", &domain.MalformedRuleError{Signal: rule.Signal, Field: name, Err: errMissingField}
		}
		return v, nil
	}

	name, err := get(cols.Signal)
	if err != nil {
		return rule, err
	}
	rule.Signal = name

	raw, err := get(cols.Min)
	if err != nil {
		return rule, err
	}
	if rule.Min, err = strconv.ParseFloat(raw, 64); err != nil {
		return rule, &domain.MalformedRuleError{Signal: name, Field: cols.Min, Value: raw, Err: err}
	}

	if raw, err = get(cols.Max); err != nil {
		return rule, err
	}
	if rule.Max, err = strconv.ParseFloat(raw, 64); err != nil {
		return rule, &domain.MalformedRuleError{Signal: name, Field: cols.Max, Value: raw, Err: err}
	}

	if raw, err = get(cols.Delay); err != nil {
		return rule, err
	}
	if rule.Delay, err = strconv.ParseInt(raw, 10, 64); err != nil {
		return rule, &domain.MalformedRuleError{Signal: name, Field: cols.Delay, Value: raw, Err: err}
	}

	if err := rule.Validate(); err != nil {
		var mr *domain.MalformedRuleError
		if errors.As(err, &mr) {
			mr.Field = map[string]string{
				"signal": cols.Signal,
				"min":    cols.Min,
				"max":    cols.Max,
				"delay":  cols.Delay,
			}[mr.Field]
		}
		return rule, err
	}
	return rule, nil
}

var _ ports.RuleLoader = (*RuleLoader)(nil)
