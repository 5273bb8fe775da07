package journal

import (
	"context"
	"fmt"
	"time"
)

// Run is one journaled batch run.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Root      string    `json:"root"`
	Policy    string    `json:"policy"`
	Total     int       `json:"total"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
}

// CaseRecord is one journaled case outcome within a run.
type CaseRecord struct {
	RunID       string `json:"run_id"`
	Seq         int    `json:"seq"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	ExitCode    *int   `json:"exit_code,omitempty"`
	InputDigest string `json:"input_digest"`
	DurationMS  int64  `json:"duration_ms"`
}

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing the same run
// twice is silently ignored.
func (j *Journal) WriteRun(ctx context.Context, run Run) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, root, policy, total, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.Root,
		run.Policy,
		run.Total,
		run.Passed,
		run.Failed,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// WriteCaseRecord inserts a case outcome.
// The run referenced by RunID must exist (foreign key constraint).
// Duplicate (run_id, seq) pairs are silently ignored for idempotency.
func (j *Journal) WriteCaseRecord(ctx context.Context, rec CaseRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO case_results (run_id, seq, name, status, exit_code, input_digest, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		rec.RunID,
		rec.Seq,
		rec.Name,
		rec.Status,
		rec.ExitCode,
		rec.InputDigest,
		rec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("write case record: %w", err)
	}

	return nil
}
