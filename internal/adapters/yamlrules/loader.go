// Package yamlrules loads signal rules from a YAML document:
//
//	signals:
//	  - name: CoolantTemp
//	    min: -40
//	    max: 110
//	    fault_delay: 1000
package yamlrules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

var errMissingField = errors.New("required field missing")

type document struct {
	Signals []yaml.Node `yaml:"signals"`
}

type ruleRecord struct {
	Name  string   `yaml:"name"`
	Min   *float64 `yaml:"min"`
	Max   *float64 `yaml:"max"`
	Delay *int64   `yaml:"fault_delay"`
}

type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

func (l *Loader) Source() string { return l.path }

func (l *Loader) LoadRules(ctx context.Context) (*domain.RuleSet, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	return Read(ctx, f, l.path)
}

// Read decodes a rule document. Rules keep their document order.
func Read(ctx context.Context, r io.Reader, source string) (*domain.RuleSet, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewRuleSet(), nil
		}
		return nil, &domain.MalformedRuleError{Source: source, Err: err}
	}

	set := domain.NewRuleSet()
	for i := range doc.Signals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := &doc.Signals[i]

		rule, err := decodeRule(node)
		if err != nil {
			var mr *domain.MalformedRuleError
			if errors.As(err, &mr) {
				mr.Source, mr.Line = source, node.Line
			}
			return nil, err
		}
		if err := set.AddAt(rule, node.Line); err != nil {
			var dup *domain.DuplicateSignalRuleError
			if errors.As(err, &dup) {
				dup.Source = source
			}
			return nil, err
		}
	}
	return set, nil
}

func decodeRule(node *yaml.Node) (domain.Rule, error) {
	var rec ruleRecord
	if err := node.Decode(&rec); err != nil {
		return domain.Rule{}, &domain.MalformedRuleError{Err: err}
	}
	switch {
	case rec.Min == nil:
		return domain.Rule{}, &domain.MalformedRuleError{Signal: rec.Name, Field: "min", Err: errMissingField}
	case rec.Max == nil:
		return domain.Rule{}, &domain.MalformedRuleError{Signal: rec.Name, Field: "max", Err: errMissingField}
	case rec.Delay == nil:
		return domain.Rule{}, &domain.MalformedRuleError{Signal: rec.Name, Field: "fault_delay", Err: errMissingField}
	}

	rule := domain.Rule{Signal: rec.Name, Min: *rec.Min, Max: *rec.Max, Delay: *rec.Delay}
	if err := rule.Validate(); err != nil {
		var mr *domain.MalformedRuleError
		if errors.As(err, &mr) && mr.Field == "delay" {
			mr.Field = "fault_delay"
		}
		return rule, err
	}
	return rule, nil
}

var _ ports.RuleLoader = (*Loader)(nil)
