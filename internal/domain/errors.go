package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRule matches every *MalformedRuleError.
	ErrMalformedRule = errors.New("malformed rule")
	// ErrMalformedSample matches every *MalformedSampleError.
	ErrMalformedSample = errors.New("malformed sample")
	// ErrDuplicateSignalRule matches every *DuplicateSignalRuleError.
	ErrDuplicateSignalRule = errors.New("duplicate signal rule")
)

// MalformedRuleError reports a rule record that could not be turned into a Rule.
type MalformedRuleError struct {
	Source string
	Line   int
	Signal string
	Field  string
	Value  string
	Err    error
}

func (e *MalformedRuleError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrMalformedRule, location(e.Source, e.Line))
	if e.Signal != "" {
		msg += fmt.Sprintf(" signal %q", e.Signal)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %s=%q", e.Field, e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRuleError) Unwrap() error { return e.Err }

func (e *MalformedRuleError) Is(target error) bool { return target == ErrMalformedRule }

// MalformedSampleError reports a log record that could not be turned into a Sample.
type MalformedSampleError struct {
	Source string
	Line   int
	Field  string
	Value  string
	Err    error
}

func (e *MalformedSampleError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrMalformedSample, location(e.Source, e.Line))
	if e.Field != "" {
		msg += fmt.Sprintf(" field %s=%q", e.Field, e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedSampleError) Unwrap() error { return e.Err }

func (e *MalformedSampleError) Is(target error) bool { return target == ErrMalformedSample }

// DuplicateSignalRuleError reports a second rule for an already defined signal.
// Lines are zero when the rule did not come from a file.
type DuplicateSignalRuleError struct {
	Source    string
	Signal    string
	FirstLine int
	Line      int
}

func (e *DuplicateSignalRuleError) Error() string {
	msg := fmt.Sprintf("%s: %q", ErrDuplicateSignalRule, e.Signal)
	if e.Source != "" || e.Line > 0 {
		msg += " at " + location(e.Source, e.Line)
	}
	if e.FirstLine > 0 {
		msg += fmt.Sprintf(" (first defined on line %d)", e.FirstLine)
	}
	return msg
}

func (e *DuplicateSignalRuleError) Is(target error) bool { return target == ErrDuplicateSignalRule }

func location(source string, line int) string {
	switch {
	case source != "" && line > 0:
		return fmt.Sprintf("%s:%d", source, line)
	case source != "":
		return source
	case line > 0:
		return fmt.Sprintf("line %d", line)
	default:
		return "<input>"
	}
}
