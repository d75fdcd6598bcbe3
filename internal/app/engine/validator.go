package engine

import (
	"github.com/ghalamif/SignalGuard/internal/domain"
)

// State is the position of a Validator in its state machine.
type State int

const (
	// StateHealthy means the last sample was in range, or none arrived yet.
	StateHealthy State = iota
	// StateViolating means an out-of-range streak is open but not yet confirmed.
	StateViolating
	// StateFailed is terminal.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateViolating:
		return "violating"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Validator tracks one signal and decides whether it ever stayed out of
// [Min, Max] for at least Delay time units without interruption. A reading
// is held until the next reading of the same signal: the signal fails when
// it is still out of range at the instant the streak reaches Delay.
//
// Samples must be fed with non-decreasing timestamps. Out-of-order samples
// are accepted but the streak duration is then meaningless.
type Validator struct {
	name  string
	min   float64
	max   float64
	delay int64

	violating      bool
	violationStart int64
	failed         bool
	failedAt       int64
	lastTimestamp  int64
	samples        int
}

// NewValidator builds a validator. Bounds and delay are taken as given: a
// rule with min > max keeps every sample out of range, a negative delay
// confirms on the first out-of-range sample.
func NewValidator(name string, min, max float64, delay int64) *Validator {
	return &Validator{name: name, min: min, max: max, delay: delay}
}

// NewValidatorFromRule is NewValidator for a domain rule.
func NewValidatorFromRule(r domain.Rule) *Validator {
	return NewValidator(r.Signal, r.Min, r.Max, r.Delay)
}

// Name is the monitored signal.
func (v *Validator) Name() string { return v.name }

// ProcessSample feeds one reading. Once failed, the validator ignores
// every further sample.
func (v *Validator) ProcessSample(timestamp int64, value float64) {
	if v.failed {
		return
	}

	// NaN compares false on both sides and lands out of range.
	inRange := v.min <= value && value <= v.max
	if inRange {
		// A reading holds until the next one, so the streak lasted up to
		// this sample. It counts only if the signal was still out of range
		// at violationStart+delay, i.e. strictly before recovery.
		if v.violating && held(v.violationStart, timestamp, v.delay, true) {
			v.failed = true
			v.failedAt = timestamp
		}
		v.violating = false
	} else {
		if !v.violating {
			v.violating = true
			v.violationStart = timestamp
		}
		if held(v.violationStart, timestamp, v.delay, false) {
			v.failed = true
			v.failedAt = timestamp
		}
	}

	v.lastTimestamp = timestamp
	v.samples++
}

// held reports whether a streak opened at start has lasted delay by now:
// at least delay, or strictly more when strict is set. The difference is
// taken unsigned so the full int64 range does not overflow.
func held(start, now, delay int64, strict bool) bool {
	if now < start {
		return false
	}
	if delay < 0 {
		return true
	}
	elapsed := uint64(now) - uint64(start)
	if strict {
		return elapsed > uint64(delay)
	}
	return elapsed >= uint64(delay)
}

// Result is FAIL once a failure was confirmed, PASS otherwise.
func (v *Validator) Result() domain.Status {
	if v.failed {
		return domain.StatusFail
	}
	return domain.StatusPass
}

// State returns the current state machine position.
func (v *Validator) State() State {
	switch {
	case v.failed:
		return StateFailed
	case v.violating:
		return StateViolating
	default:
		return StateHealthy
	}
}

// ViolationStart returns the start of the open streak, if any.
func (v *Validator) ViolationStart() (int64, bool) {
	if v.failed || !v.violating {
		return 0, false
	}
	return v.violationStart, true
}

// Verdict snapshots the validator for reporting.
func (v *Validator) Verdict() domain.Verdict {
	out := domain.Verdict{
		Signal:        v.name,
		Status:        v.Result(),
		Samples:       v.samples,
		LastTimestamp: v.lastTimestamp,
	}
	if v.failed {
		out.FailedAt = v.failedAt
	}
	return out
}
