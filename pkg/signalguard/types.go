package signalguard

import (
	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

// Rule is the acceptance envelope of one signal.
type Rule = domain.Rule

// RuleSet is an ordered, duplicate-free collection of rules.
type RuleSet = domain.RuleSet

// Sample is one timestamped reading.
type Sample = domain.Sample

// Verdict is the PASS/FAIL outcome for one signal.
type Verdict = domain.Verdict

// Status is PASS or FAIL.
type Status = domain.Status

// Report is the outcome of one run.
type Report = domain.Report

const (
	StatusPass = domain.StatusPass
	StatusFail = domain.StatusFail
)

// RuleLoader supplies the rule set of a run.
type RuleLoader = ports.RuleLoader

// SampleLoader supplies the samples of a run.
type SampleLoader = ports.SampleLoader

// RuleSelector narrows the rule set before the engine is built.
type RuleSelector = ports.RuleSelector

// Sink receives the finished report.
type Sink = ports.ReportSink

// Observability emits logs and metrics about a run.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

type (
	MalformedRuleError       = domain.MalformedRuleError
	MalformedSampleError     = domain.MalformedSampleError
	DuplicateSignalRuleError = domain.DuplicateSignalRuleError
)

var (
	ErrMalformedRule       = domain.ErrMalformedRule
	ErrMalformedSample     = domain.ErrMalformedSample
	ErrDuplicateSignalRule = domain.ErrDuplicateSignalRule
)

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet { return domain.NewRuleSet() }
