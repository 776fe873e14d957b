package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run ID is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	status := run.Status
	if status == "" {
		status = RunRunning
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, source, mode, tool_version, format_version, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		formatTime(run.StartedAt),
		run.Source,
		run.Mode,
		run.ToolVersion,
		run.FormatVersion,
		string(status),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteRecord inserts a record outcome.
// Uses ON CONFLICT(run_id, line) DO NOTHING - the first outcome for a line wins.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteRecord(ctx context.Context, rec Record) error {
	details, err := marshalDetails(rec.Details)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records
		(run_id, line, status, input_digest, output_digest, code, reason, path, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, line) DO NOTHING
	`,
		rec.RunID,
		rec.Line,
		string(rec.Status),
		rec.InputDigest,
		nullString(rec.OutputDigest),
		nullString(rec.Code),
		nullString(rec.Reason),
		nullString(rec.Path),
		details,
	)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// FinishRun sets the final status and recomputes the run's counts from its
// record rows.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, finished time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			status = ?,
			finished_at = ?,
			records = (SELECT COUNT(*) FROM records WHERE run_id = runs.id),
			migrated = (SELECT COUNT(*) FROM records WHERE run_id = runs.id AND status = 'migrated'),
			failed = (SELECT COUNT(*) FROM records WHERE run_id = runs.id AND status = 'failed')
		WHERE id = ?
	`,
		string(status),
		formatTime(finished),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}
