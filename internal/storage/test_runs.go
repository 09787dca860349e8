package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/flowqa/internal/common"
	"github.com/Veraticus/flowqa/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultListLimit = 50

const testRunColumns = `id, created_at, device_id, meter_name, formula, multiplier,
	start_value, end_value, meter_consumption, flowmeter_total, relative_error,
	verdict, sample_count, source_file, report_path`

// SaveTestRun records a run and its samples. ID and CreatedAt are filled in
// when empty.
func (s *SQLiteStorage) SaveTestRun(ctx context.Context, run *model.TestRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTestRun(run); err != nil {
		return err
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()
	run.SampleCount = len(run.Samples)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.saveTestRunTx(ctx, tx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit test run: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) saveTestRunTx(ctx context.Context, q queryable, run *model.TestRun) error {
	var relErr sql.NullString
	if run.RelativeError.Valid {
		relErr = sql.NullString{String: run.RelativeError.Decimal.String(), Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO test_runs (`+testRunColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt,
		run.DeviceID,
		run.MeterName,
		string(run.Formula),
		run.Multiplier.String(),
		run.StartValue.String(),
		run.EndValue.String(),
		run.MeterConsumption.String(),
		run.FlowmeterTotal.String(),
		relErr,
		string(run.Verdict),
		run.SampleCount,
		run.SourceFile,
		run.ReportPath,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: test run %s", common.ErrDuplicateEntry, run.ID)
		}
		return fmt.Errorf("failed to insert test run: %w", err)
	}

	for i, sample := range run.Samples {
		_, err := q.ExecContext(ctx, `
			INSERT INTO test_run_samples (test_run_id, position, row_number, volume, device_ts, device_id)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, i, sample.Row, sample.Volume, sample.Timestamp, sample.DeviceID)
		if err != nil {
			return fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
	}

	return nil
}

// GetTestRun loads one run with its samples.
func (s *SQLiteStorage) GetTestRun(ctx context.Context, id string) (*model.TestRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+testRunColumns+` FROM test_runs WHERE id = ?`, id)
	run, err := scanTestRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("test run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	samples, err := s.getSamples(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	run.Samples = samples

	return run, nil
}

func (s *SQLiteStorage) getSamples(ctx context.Context, q queryable, runID string) ([]model.FlowSample, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT row_number, volume, device_ts, device_id
		FROM test_run_samples
		WHERE test_run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var samples []model.FlowSample
	for rows.Next() {
		var sample model.FlowSample
		if err := rows.Scan(&sample.Row, &sample.Volume, &sample.Timestamp, &sample.DeviceID); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// ListTestRuns returns runs newest first, without their samples.
func (s *SQLiteStorage) ListTestRuns(ctx context.Context, filter model.TestRunFilter) ([]model.TestRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + testRunColumns + ` FROM test_runs`
	var (
		conditions []string
		args       []any
	)
	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if filter.Verdict != "" {
		conditions = append(conditions, "verdict = ?")
		args = append(args, string(filter.Verdict))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query test runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.TestRun
	for rows.Next() {
		run, err := scanTestRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating test runs: %w", err)
	}

	return runs, nil
}

// DeleteTestRun removes a run and its samples.
func (s *SQLiteStorage) DeleteTestRun(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM test_run_samples WHERE test_run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete samples: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM test_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete test run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("test run %s: %w", id, common.ErrNotFound)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTestRun(row rowScanner) (*model.TestRun, error) {
	var (
		run         model.TestRun
		formula     string
		verdict     string
		multiplier  string
		startValue  string
		endValue    string
		consumption string
		total       string
		relErr      sql.NullString
		sourceFile  sql.NullString
		reportPath  sql.NullString
	)

	err := row.Scan(
		&run.ID,
		&run.CreatedAt,
		&run.DeviceID,
		&run.MeterName,
		&formula,
		&multiplier,
		&startValue,
		&endValue,
		&consumption,
		&total,
		&relErr,
		&verdict,
		&run.SampleCount,
		&sourceFile,
		&reportPath,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan test run: %w", err)
	}

	run.Formula = model.FormulaVariant(formula)
	run.Verdict = model.ParseVerdict(verdict)
	run.SourceFile = sourceFile.String
	run.ReportPath = reportPath.String

	fields := []struct {
		dst  *decimal.Decimal
		name string
		text string
	}{
		{&run.Multiplier, "multiplier", multiplier},
		{&run.StartValue, "start_value", startValue},
		{&run.EndValue, "end_value", endValue},
		{&run.MeterConsumption, "meter_consumption", consumption},
		{&run.FlowmeterTotal, "flowmeter_total", total},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q", common.ErrDatabaseCorrupted, f.name, f.text)
		}
		*f.dst = d
	}

	if relErr.Valid {
		d, err := decimal.NewFromString(relErr.String)
		if err != nil {
			return nil, fmt.Errorf("%w: relative_error %q", common.ErrDatabaseCorrupted, relErr.String)
		}
		run.RelativeError = decimal.NewNullDecimal(d)
	}

	return &run, nil
}
