package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL,
	rule_source   TEXT,
	sample_source TEXT,
	processed     INTEGER NOT NULL,
	skipped       INTEGER NOT NULL,
	failed        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS verdicts (
	run_id        TEXT NOT NULL,
	position      INTEGER NOT NULL,
	signal_name   TEXT NOT NULL,
	status        TEXT NOT NULL,
	failed_at     INTEGER,
	samples       INTEGER NOT NULL,
	last_ts       INTEGER,
	PRIMARY KEY (run_id, signal_name),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// SQLiteSink archives reports in a local SQLite file.
type SQLiteSink struct {
	db *sql.DB
}

func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", sqliteSchema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Close() error { return s.db.Close() }

// Write stores the run and its verdicts in one transaction. A run id that is
// already archived is left untouched, so re-running with a fixed id is a no-op.
func (s *SQLiteSink) Write(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO runs (run_id, started_at, finished_at, rule_source, sample_source, processed, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
		report.RuleSource,
		report.SampleSource,
		report.Processed,
		report.Skipped,
		report.FailedCount(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("insert run: %w", err)
	} else if n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verdicts (run_id, position, signal_name, status, failed_at, samples, last_ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare verdict: %w", err)
	}
	defer stmt.Close()

	for i, v := range report.Verdicts {
		var failedAt, lastTS sql.NullInt64
		if v.Failed() {
			failedAt = sql.NullInt64{Int64: v.FailedAt, Valid: true}
		}
		if v.Samples > 0 {
			lastTS = sql.NullInt64{Int64: v.LastTimestamp, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, report.RunID, i, v.Signal, string(v.Status), failedAt, v.Samples, lastTS); err != nil {
			return fmt.Errorf("insert verdict %s: %w", v.Signal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ErrRunNotFound is returned by LoadReport for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// LoadReport reads back an archived report.
func (s *SQLiteSink) LoadReport(ctx context.Context, runID string) (*domain.Report, error) {
	var (
		r                  domain.Report
		started, finished  string
		ruleSrc, sampleSrc sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, finished_at, rule_source, sample_source, processed, skipped
		 FROM runs WHERE run_id = ?`, runID,
	).Scan(&r.RunID, &started, &finished, &ruleSrc, &sampleSrc, &r.Processed, &r.Skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	r.RuleSource, r.SampleSource = ruleSrc.String, sampleSrc.String
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT signal_name, status, failed_at, samples, last_ts
		 FROM verdicts WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v              domain.Verdict
			status         string
			failedAt, last sql.NullInt64
		)
		if err := rows.Scan(&v.Signal, &status, &failedAt, &v.Samples, &last); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		v.Status = domain.Status(status)
		v.FailedAt = failedAt.Int64
		v.LastTimestamp = last.Int64
		r.Verdicts = append(r.Verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return &r, nil
}

var _ ports.ReportSink = (*SQLiteSink)(nil)
