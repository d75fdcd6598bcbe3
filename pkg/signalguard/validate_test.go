package signalguard

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidate(t *testing.T) {
	rules := []Rule{
		{Signal: "S", Min: 0, Max: 10, Delay: 100},
		{Signal: "T", Min: 0, Max: 10, Delay: 100},
	}
	samples := []Sample{
		{Timestamp: 150, Signal: "S", Value: 5},
		{Timestamp: 0, Signal: "S", Value: 15},
		{Timestamp: 50, Signal: "S", Value: 20},
		{Timestamp: 0, Signal: "T", Value: 15},
		{Timestamp: 50, Signal: "T", Value: 5},
		{Timestamp: 60, Signal: "T", Value: 20},
	}

	got, err := Validate(rules, samples)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := []Verdict{
		{Signal: "S", Status: StatusFail, FailedAt: 150, Samples: 3, LastTimestamp: 150},
		{Signal: "T", Status: StatusPass, Samples: 3, LastTimestamp: 60},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("verdicts mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsBadRules(t *testing.T) {
	_, err := Validate([]Rule{{Signal: "S", Min: 5, Max: 1}}, nil)
	if !errors.Is(err, ErrMalformedRule) {
		t.Fatalf("expected ErrMalformedRule, got %v", err)
	}

	_, err = Validate([]Rule{{Signal: "S", Max: 1}, {Signal: "S", Max: 2}}, nil)
	if !errors.Is(err, ErrDuplicateSignalRule) {
		t.Fatalf("expected ErrDuplicateSignalRule, got %v", err)
	}
}
