package domain

import "time"

// Status is the final outcome for one signal.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// Verdict pairs a signal with its status. FailedAt is the timestamp of the
// sample that confirmed the failure and is only meaningful when Status is FAIL.
type Verdict struct {
	Signal        string `json:"signal_name"`
	Status        Status `json:"status"`
	FailedAt      int64  `json:"failed_at"`
	Samples       int    `json:"samples"`
	LastTimestamp int64  `json:"last_ts"`
}

// Failed reports whether the verdict is FAIL.
func (v Verdict) Failed() bool { return v.Status == StatusFail }

// Report is the outcome of one validation run.
type Report struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	RuleSource   string    `json:"rule_source"`
	SampleSource string    `json:"sample_source"`
	Processed    int       `json:"samples_processed"`
	Skipped      int       `json:"samples_skipped"`
	Verdicts     []Verdict `json:"verdicts"`
}

// FailedCount is the number of FAIL verdicts.
func (r *Report) FailedCount() int {
	n := 0
	for _, v := range r.Verdicts {
		if v.Failed() {
			n++
		}
	}
	return n
}

// Passed reports whether every monitored signal passed.
func (r *Report) Passed() bool { return r.FailedCount() == 0 }
