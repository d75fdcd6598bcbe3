package engine

import (
	"math"
	"testing"

	"github.com/ghalamif/SignalGuard/internal/domain"
)

type reading struct {
	ts    int64
	value float64
}

func feed(v *Validator, readings ...reading) {
	for _, r := range readings {
		v.ProcessSample(r.ts, r.value)
	}
}

func TestValidatorScenarios(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
		delay    int64
		readings []reading
		want     domain.Status
		state    State
	}{
		{
			name:     "in range only",
			max:      10,
			delay:    100,
			readings: []reading{{0, 1}, {50, 9.9}, {5000, 10}},
			want:     domain.StatusPass,
			state:    StateHealthy,
		},
		{
			name:     "in range only with zero delay",
			max:      10,
			readings: []reading{{0, 0}, {10, 10}},
			want:     domain.StatusPass,
			state:    StateHealthy,
		},
		{
			name:     "streak confirmed before recovery",
			max:      10,
			delay:    100,
			readings: []reading{{0, 15}, {50, 20}, {150, 5}},
			want:     domain.StatusFail,
			state:    StateFailed,
		},
		{
			name:     "streaks reset by in-range sample",
			max:      10,
			delay:    100,
			readings: []reading{{0, 15}, {50, 5}, {60, 20}},
			want:     domain.StatusPass,
			state:    StateViolating,
		},
		{
			name:     "streak of exactly delay",
			max:      10,
			delay:    100,
			readings: []reading{{1000, 11}, {1100, 11}},
			want:     domain.StatusFail,
			state:    StateFailed,
		},
		{
			name:     "streak one short of delay",
			max:      10,
			delay:    100,
			readings: []reading{{1000, 11}, {1099, 11}, {1100, 5}},
			want:     domain.StatusPass,
			state:    StateHealthy,
		},
		{
			name:     "recovery exactly at delay",
			max:      10,
			delay:    100,
			readings: []reading{{0, 11}, {100, 5}},
			want:     domain.StatusPass,
			state:    StateHealthy,
		},
		{
			name:     "recovery after delay",
			max:      10,
			delay:    100,
			readings: []reading{{0, 11}, {101, 5}},
			want:     domain.StatusFail,
			state:    StateFailed,
		},
		{
			name:     "split streaks never combine",
			max:      10,
			delay:    100,
			readings: []reading{{0, 11}, {90, 11}, {91, 5}, {92, 11}, {180, 11}},
			want:     domain.StatusPass,
			state:    StateViolating,
		},
		{
			name:     "zero delay fails on first violation",
			max:      10,
			readings: []reading{{0, 5}, {10, -1}},
			want:     domain.StatusFail,
			state:    StateFailed,
		},
		{
			name:     "bounds are inclusive",
			min:      -5,
			max:      5,
			delay:    1,
			readings: []reading{{0, -5}, {1, 5}, {2, -5}, {3, 5}},
			want:     domain.StatusPass,
			state:    StateHealthy,
		},
		{
			name:     "NaN is out of range",
			max:      10,
			delay:    10,
			readings: []reading{{0, math.NaN()}, {10, math.NaN()}},
			want:     domain.StatusFail,
			state:    StateFailed,
		},
		{
			name:     "inverted bounds are always out of range",
			min:      10,
			max:      0,
			delay:    5,
			readings: []reading{{0, 5}, {5, 5}},
			want:     domain.StatusFail,
			state:    StateFailed,
		},
		{
			name:     "no samples",
			max:      10,
			delay:    100,
			want:     domain.StatusPass,
			state:    StateHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator("S", tt.min, tt.max, tt.delay)
			feed(v, tt.readings...)
			if got := v.Result(); got != tt.want {
				t.Fatalf("Result() = %s, want %s", got, tt.want)
			}
			if got := v.State(); got != tt.state {
				t.Fatalf("State() = %s, want %s", got, tt.state)
			}
		})
	}
}

func TestValidatorFailureIsSticky(t *testing.T) {
	v := NewValidator("S", 0, 10, 100)
	feed(v, reading{0, 15}, reading{100, 15})
	if v.Result() != domain.StatusFail {
		t.Fatalf("expected FAIL after confirmed streak")
	}

	feed(v, reading{200, 5}, reading{300, 5}, reading{400, 50})
	if v.Result() != domain.StatusFail {
		t.Fatalf("expected FAIL to stick")
	}

	got := v.Verdict()
	if got.FailedAt != 100 {
		t.Fatalf("expected failure confirmed at 100, got %d", got.FailedAt)
	}
	if got.Samples != 2 || got.LastTimestamp != 100 {
		t.Fatalf("expected samples after failure to be ignored, got %+v", got)
	}
}

func TestValidatorViolationStart(t *testing.T) {
	v := NewValidator("S", 0, 10, 100)
	if _, ok := v.ViolationStart(); ok {
		t.Fatalf("expected no streak before any sample")
	}

	feed(v, reading{40, 11}, reading{60, 12})
	start, ok := v.ViolationStart()
	if !ok || start != 40 {
		t.Fatalf("expected streak from 40, got %d ok=%v", start, ok)
	}

	feed(v, reading{70, 3})
	if _, ok := v.ViolationStart(); ok {
		t.Fatalf("expected streak to reset")
	}
}

func TestValidatorStreakStartingAtZero(t *testing.T) {
	v := NewValidator("S", 0, 10, 100)
	feed(v, reading{0, 11}, reading{99, 11})
	if v.State() != StateViolating {
		t.Fatalf("expected violating, got %s", v.State())
	}
	feed(v, reading{100, 11})
	if v.Result() != domain.StatusFail {
		t.Fatalf("expected streak starting at t=0 to be tracked")
	}
}

func TestValidatorExtremeTimestamps(t *testing.T) {
	tests := []struct {
		name  string
		feed  []reading
		delay int64
		want  domain.Status
	}{
		{"out of range across int64", []reading{{math.MinInt64 + 1, 11}, {math.MaxInt64, 11}}, 100, domain.StatusFail},
		{"recovery across int64", []reading{{-9e18, 11}, {9e18, 5}}, 100, domain.StatusFail},
		{"max delay not reached", []reading{{0, 11}, {math.MaxInt64 - 1, 11}}, math.MaxInt64, domain.StatusPass},
		{"max delay reached", []reading{{-1, 11}, {math.MaxInt64 - 1, 11}}, math.MaxInt64, domain.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator("S", 0, 10, tt.delay)
			feed(v, tt.feed...)
			if got := v.Result(); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
