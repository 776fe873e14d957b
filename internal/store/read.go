package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `id, started_at, finished_at, source, mode, tool_version, format_version, status, records, migrated, failed`

// ReadRun returns a single run. Returns ErrRunNotFound if it does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns all runs ordered by start time, oldest first.
// Returns an empty slice (not nil) for an empty ledger.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRecords returns the record outcomes of a run ordered by line.
func (s *Store) ReadRecords(ctx context.Context, runID string) ([]Record, error) {
	return s.queryRecords(ctx, `
		SELECT run_id, line, status, input_digest, output_digest, code, reason, path, details
		FROM records
		WHERE run_id = ?
		ORDER BY line ASC
	`, runID)
}

// FindByInputDigest returns every recorded outcome for an input tree
// across all runs, ordered by run start then line.
func (s *Store) FindByInputDigest(ctx context.Context, digest string) ([]Record, error) {
	return s.queryRecords(ctx, `
		SELECT r.run_id, r.line, r.status, r.input_digest, r.output_digest, r.code, r.reason, r.path, r.details
		FROM records r
		JOIN runs u ON r.run_id = u.id
		WHERE r.input_digest = ?
		ORDER BY u.started_at ASC, r.run_id COLLATE BINARY ASC, r.line ASC
	`, digest)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run             Run
		started, status string
		finished        sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&started,
		&finished,
		&run.Source,
		&run.Mode,
		&run.ToolVersion,
		&run.FormatVersion,
		&status,
		&run.Records,
		&run.Migrated,
		&run.Failed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Status = RunStatus(status)
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	if finished.Valid {
		if run.FinishedAt, err = parseTime(finished.String); err != nil {
			return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec                        Record
		status, details            string
		output, code, reason, path sql.NullString
	)
	err := row.Scan(
		&rec.RunID,
		&rec.Line,
		&status,
		&rec.InputDigest,
		&output,
		&code,
		&reason,
		&path,
		&details,
	)
	if err != nil {
		return Record{}, fmt.Errorf("scan record: %w", err)
	}

	rec.Status = RecordStatus(status)
	rec.OutputDigest = output.String
	rec.Code = code.String
	rec.Reason = reason.String
	rec.Path = path.String
	if rec.Details, err = unmarshalDetails(details); err != nil {
		return Record{}, fmt.Errorf("scan record %s:%d: %w", rec.RunID, rec.Line, err)
	}
	return rec, nil
}
