package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ListRuns returns the most recent runs, newest first. A limit <= 0 returns
// everything. Returns an empty slice (not nil) when the journal is empty.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, started_at, root, policy, total, passed, failed
		FROM runs
		ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var startedAt string
		if err := rows.Scan(&run.ID, &startedAt, &run.Root, &run.Policy, &run.Total, &run.Passed, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// CasesForRun returns the case outcomes of a run in execution order.
func (j *Journal) CasesForRun(ctx context.Context, runID string) ([]CaseRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, name, status, exit_code, input_digest, duration_ms
		FROM case_results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query case records: %w", err)
	}
	defer rows.Close()

	records := []CaseRecord{}
	for rows.Next() {
		var rec CaseRecord
		var exitCode sql.NullInt64
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Name, &rec.Status, &exitCode, &rec.InputDigest, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("scan case record: %w", err)
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			rec.ExitCode = &code
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case records: %w", err)
	}

	return records, nil
}
