package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

const timescaleColumns = 8

type TimescaleSink struct {
	db          *sql.DB
	tableName   string
	createTable bool
	created     bool
}

type TimescaleOption func(*TimescaleSink)

// WithCreateTable makes the first Write create the table if needed.
func WithCreateTable(enabled bool) TimescaleOption {
	return func(t *TimescaleSink) { t.createTable = enabled }
}

func NewTimescaleSink(db *sql.DB, table string, opts ...TimescaleOption) *TimescaleSink {
	t := &TimescaleSink{db: db, tableName: table}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OpenTimescale opens a lib/pq handle. No connection is made until the
// first write.
func OpenTimescale(connString, table string, opts ...TimescaleOption) (*TimescaleSink, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("open timescale: %w", err)
	}
	return NewTimescaleSink(db, table, opts...), nil
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

func (t *TimescaleSink) Close() error { return t.db.Close() }

// EnsureTable creates the verdict table when it does not exist.
func (t *TimescaleSink) EnsureTable(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+pq.QuoteIdentifier(t.tableName)+` (
	run_id        TEXT NOT NULL,
	signal_name   TEXT NOT NULL,
	status        TEXT NOT NULL,
	failed_at     BIGINT,
	samples       BIGINT NOT NULL,
	last_ts       BIGINT,
	rule_source   TEXT,
	finished_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, signal_name)
)`)
	if err != nil {
		return fmt.Errorf("create %s: %w", t.tableName, err)
	}
	return nil
}

func (t *TimescaleSink) Write(ctx context.Context, report *domain.Report) error {
	if report == nil || len(report.Verdicts) == 0 {
		return nil
	}
	if t.createTable && !t.created {
		if err := t.EnsureTable(ctx); err != nil {
			return err
		}
		t.created = true
	}

	// INSERT ... ON CONFLICT DO NOTHING keeps reruns of one run id idempotent.
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pq.QuoteIdentifier(t.tableName))
	b.WriteString(" (run_id, signal_name, status, failed_at, samples, last_ts, rule_source, finished_at) VALUES ")

	args := make([]any, 0, len(report.Verdicts)*timescaleColumns)
	for i, v := range report.Verdicts {
		if i > 0 {
			b.WriteString(",")
		}
		n := len(args)
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8)

		var failedAt, lastTS any
		if v.Failed() {
			failedAt = v.FailedAt
		}
		if v.Samples > 0 {
			lastTS = v.LastTimestamp
		}
		args = append(args,
			report.RunID,
			v.Signal,
			string(v.Status),
			failedAt,
			int64(v.Samples),
			lastTS,
			report.RuleSource,
			report.FinishedAt,
		)
	}

	b.WriteString(" ON CONFLICT (run_id, signal_name) DO NOTHING")

	if _, err := t.db.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("insert verdicts: %w", err)
	}
	return nil
}

var _ ports.ReportSink = (*TimescaleSink)(nil)
