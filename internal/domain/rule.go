package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rule is the acceptable range and fault-confirmation delay for one signal.
// Delay uses the same time unit as sample timestamps.
type Rule struct {
	Signal string  `json:"signal_name" yaml:"name"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Delay  int64   `json:"fault_delay" yaml:"fault_delay"`
}

// RuleSet keeps rules in insertion order with a lookup index by signal name.
// A signal can be defined only once.
type RuleSet struct {
	rules  []Rule
	byName map[string]int
	lines  map[string]int
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		byName: make(map[string]int),
		lines:  make(map[string]int),
	}
}

// Add registers a rule. It returns a *DuplicateSignalRuleError when the signal
// already has a rule; the existing rule is left untouched.
func (s *RuleSet) Add(r Rule) error {
	return s.AddAt(r, 0)
}

// AddAt is Add with the source line the rule was read from, used in
// duplicate errors.
func (s *RuleSet) AddAt(r Rule, line int) error {
	if s.byName == nil {
		s.byName = make(map[string]int)
		s.lines = make(map[string]int)
	}
	if _, ok := s.byName[r.Signal]; ok {
		return &DuplicateSignalRuleError{
			Signal:    r.Signal,
			FirstLine: s.lines[r.Signal],
			Line:      line,
		}
	}
	s.byName[r.Signal] = len(s.rules)
	s.lines[r.Signal] = line
	s.rules = append(s.rules, r)
	return nil
}

// Lookup returns the rule for a signal.
func (s *RuleSet) Lookup(signal string) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	i, ok := s.byName[signal]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

// Rules returns a copy of the rules in insertion order.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len is the number of rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Filter returns a new rule set holding the rules for which keep returns true.
// Insertion order is preserved.
func (s *RuleSet) Filter(keep func(Rule) (bool, error)) (*RuleSet, error) {
	out := NewRuleSet()
	for _, r := range s.Rules() {
		ok, err := keep(r)
		if err != nil {
			return nil, err
		}
		if ok {
			_ = out.AddAt(r, s.lines[r.Signal])
		}
	}
	return out, nil
}

var (
	errEmptySignal   = errors.New("signal name is empty")
	errNaNBound      = errors.New("bound is NaN")
	errInvertedRange = errors.New("min is greater than max")
	errNegativeDelay = errors.New("fault delay is negative")
)

// Validate checks the constraints loaders enforce before a rule reaches the
// engine. It returns a *MalformedRuleError without source location.
func (r Rule) Validate() error {
	malformed := func(field, value string, err error) error {
		return &MalformedRuleError{Signal: r.Signal, Field: field, Value: value, Err: err}
	}
	switch {
	case strings.TrimSpace(r.Signal) == "":
		return malformed("signal", r.Signal, errEmptySignal)
	case math.IsNaN(r.Min):
		return malformed("min", "NaN", errNaNBound)
	case math.IsNaN(r.Max):
		return malformed("max", "NaN", errNaNBound)
	case r.Min > r.Max:
		return malformed("max", strconv.FormatFloat(r.Max, 'g', -1, 64),
			fmt.Errorf("%w (min=%g)", errInvertedRange, r.Min))
	case r.Delay < 0:
		return malformed("delay", strconv.FormatInt(r.Delay, 10), errNegativeDelay)
	}
	return nil
}
