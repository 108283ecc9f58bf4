/*
Package sqlite provides the SQLite-backed persistence collaborator.

PURPOSE:
  Stores the raw inputs (actual shifts, billing entries, the scraped
  schedule) and the outputs of each pipeline run (validation issues and
  compensation report rows). The computation core never touches this
  package; the CLI and API load inputs here, run the pure pipeline, and
  write the results back.

KEY TABLES:
  shifts:            actual worked shifts from timekeeping
  billing_entries:   raw per-service wRVU rows (aggregated on read)
  scheduled_shifts:  the external schedule snapshot
  runs:              one row per pipeline invocation
  validation_issues: issue list per run
  report_rows:       compensation report per run

MONEY STORAGE:
  Pay amounts and wRVU sums are stored as decimal strings (TEXT), never
  as floating point, so a persisted report reads back bit-identical.

BILLING AGGREGATION:
  BillingInRange performs the SUM(wrvu) GROUP BY (shift_id,
  physician_id) aggregation the productivity engine's input contract
  requires, filtered by service date range. The sum itself happens in
  decimal in Go; SQLite only orders the rows.

WAL MODE:
  The database is opened with WAL and foreign keys on. A sync.RWMutex
  serializes writers; with PostgreSQL the database itself would take
  that role.

USAGE:
  store, err := sqlite.New("./edcomp.db")
  if err != nil { ... }
  defer store.Close()

SEE ALSO:
  - comp/types.go: Row types stored here
  - validate/validator.go: Issue rows stored here
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/medshift/comp-engine/comp"
	"github.com/medshift/comp-engine/validate"
)

const timeFormat = time.RFC3339

// Store implements persistence on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection to :memory: would get its own database.
		db.SetMaxOpenConns(1)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shifts (
		shift_id TEXT PRIMARY KEY,
		physician_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		shift_type TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_start
		ON shifts(start_time);
	CREATE INDEX IF NOT EXISTS idx_shifts_physician_start
		ON shifts(physician_id, start_time);

	CREATE TABLE IF NOT EXISTS billing_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		shift_id TEXT NOT NULL,
		physician_id TEXT NOT NULL,
		service_date TEXT NOT NULL,
		wrvu TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_billing_service_date
		ON billing_entries(service_date);
	CREATE INDEX IF NOT EXISTS idx_billing_shift
		ON billing_entries(shift_id, physician_id);

	CREATE TABLE IF NOT EXISTS scheduled_shifts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		physician_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		shift_type TEXT NOT NULL DEFAULT '',
		scraped_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scheduled_date
		ON scheduled_shifts(date, physician_id);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS validation_issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		shift_id TEXT,
		issue_type TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_issues_run
		ON validation_issues(run_id);

	CREATE TABLE IF NOT EXISTS report_rows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		physician_id TEXT NOT NULL,
		total_pay TEXT NOT NULL,
		productivity_bonus TEXT NOT NULL,
		performance_bonus TEXT NOT NULL,
		total_compensation TEXT NOT NULL,
		shift_hours TEXT NOT NULL,
		wrvu TEXT NOT NULL,
		avg_wrvus_per_hour TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_report_run
		ON report_rows(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SHIFTS
// =============================================================================

// InsertShifts stores actual shift records. An existing shift id is
// replaced.
func (s *Store) InsertShifts(ctx context.Context, shifts []comp.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO shifts
			(shift_id, physician_id, start_time, end_time, shift_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeFormat)
	for _, sh := range shifts {
		if _, err := stmt.ExecContext(ctx,
			string(sh.ID), string(sh.PhysicianID),
			sh.Start.UTC().Format(timeFormat), sh.End.UTC().Format(timeFormat),
			string(sh.Type), now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ShiftsInRange returns shifts whose start time falls within
// [start, end], ordered by start time then shift id.
func (s *Store) ShiftsInRange(ctx context.Context, start, end time.Time) ([]comp.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT shift_id, physician_id, start_time, end_time, shift_type
		FROM shifts
		WHERE start_time BETWEEN ? AND ?
		ORDER BY start_time, shift_id`,
		start.UTC().Format(timeFormat), end.UTC().Format(timeFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []comp.Shift
	for rows.Next() {
		var id, physician, startStr, endStr, shiftType string
		if err := rows.Scan(&id, &physician, &startStr, &endStr, &shiftType); err != nil {
			return nil, err
		}
		startT, err := time.Parse(timeFormat, startStr)
		if err != nil {
			return nil, fmt.Errorf("shift %s: bad start_time: %w", id, err)
		}
		endT, err := time.Parse(timeFormat, endStr)
		if err != nil {
			return nil, fmt.Errorf("shift %s: bad end_time: %w", id, err)
		}
		shifts = append(shifts, comp.Shift{
			ID:          comp.ShiftID(id),
			PhysicianID: comp.PhysicianID(physician),
			Start:       startT,
			End:         endT,
			Type:        comp.ShiftType(shiftType),
		})
	}
	return shifts, rows.Err()
}

// =============================================================================
// BILLING
// =============================================================================

// BillingEntry is one raw wRVU service line as billed. Entries aggregate
// to one comp.BillingRecord per (shift, physician) on read.
type BillingEntry struct {
	ShiftID     comp.ShiftID
	PhysicianID comp.PhysicianID
	ServiceDate time.Time
	WRVU        decimal.Decimal
}

// InsertBillingEntries stores raw billing lines.
func (s *Store) InsertBillingEntries(ctx context.Context, entries []BillingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO billing_entries
			(shift_id, physician_id, service_date, wrvu, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeFormat)
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			string(e.ShiftID), string(e.PhysicianID),
			e.ServiceDate.UTC().Format(timeFormat), e.WRVU.String(), now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// BillingInRange returns the summed wRVU total per (shift, physician)
// for service dates within [start, end].
func (s *Store) BillingInRange(ctx context.Context, start, end time.Time) ([]comp.BillingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT shift_id, physician_id, wrvu
		FROM billing_entries
		WHERE service_date BETWEEN ? AND ?
		ORDER BY shift_id, physician_id, id`,
		start.UTC().Format(timeFormat), end.UTC().Format(timeFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type key struct {
		shift     string
		physician string
	}
	sums := make(map[key]decimal.Decimal)
	var order []key
	for rows.Next() {
		var shiftID, physician, wrvuStr string
		if err := rows.Scan(&shiftID, &physician, &wrvuStr); err != nil {
			return nil, err
		}
		wrvu, err := decimal.NewFromString(wrvuStr)
		if err != nil {
			return nil, fmt.Errorf("billing for shift %s: bad wrvu: %w", shiftID, err)
		}
		k := key{shiftID, physician}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] = sums[k].Add(wrvu)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := make([]comp.BillingRecord, 0, len(order))
	for _, k := range order {
		records = append(records, comp.BillingRecord{
			ShiftID:     comp.ShiftID(k.shift),
			PhysicianID: comp.PhysicianID(k.physician),
			WRVU:        sums[k],
		})
	}
	return records, nil
}

// =============================================================================
// SCHEDULE
// =============================================================================

// ReplaceSchedule replaces the stored schedule for [start, end] with a
// fresh scrape.
func (s *Store) ReplaceSchedule(ctx context.Context, start, end time.Time, entries []comp.ScheduledShift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM scheduled_shifts WHERE date BETWEEN ? AND ?`,
		start.UTC().Format(timeFormat), end.UTC().Format(timeFormat)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scheduled_shifts
			(date, physician_id, start_time, end_time, shift_type, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeFormat)
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.Date.UTC().Format(timeFormat), string(e.PhysicianID),
			e.Start.UTC().Format(timeFormat), e.End.UTC().Format(timeFormat),
			string(e.Type), now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ScheduledInRange returns schedule entries whose date falls within
// [start, end].
func (s *Store) ScheduledInRange(ctx context.Context, start, end time.Time) ([]comp.ScheduledShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, physician_id, start_time, end_time, shift_type
		FROM scheduled_shifts
		WHERE date BETWEEN ? AND ?
		ORDER BY date, physician_id, start_time`,
		start.UTC().Format(timeFormat), end.UTC().Format(timeFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []comp.ScheduledShift
	for rows.Next() {
		var dateStr, physician, startStr, endStr, shiftType string
		if err := rows.Scan(&dateStr, &physician, &startStr, &endStr, &shiftType); err != nil {
			return nil, err
		}
		date, err := time.Parse(timeFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("scheduled shift: bad date: %w", err)
		}
		startT, err := time.Parse(timeFormat, startStr)
		if err != nil {
			return nil, fmt.Errorf("scheduled shift: bad start_time: %w", err)
		}
		endT, err := time.Parse(timeFormat, endStr)
		if err != nil {
			return nil, fmt.Errorf("scheduled shift: bad end_time: %w", err)
		}
		entries = append(entries, comp.ScheduledShift{
			Date:        date,
			PhysicianID: comp.PhysicianID(physician),
			Start:       startT,
			End:         endT,
			Type:        comp.ShiftType(shiftType),
		})
	}
	return entries, rows.Err()
}

// =============================================================================
// RUNS
// =============================================================================

// RunRecord is one persisted pipeline invocation.
type RunRecord struct {
	ID          string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Report      []comp.ReportRow
	Issues      []validate.Issue
	CreatedAt   time.Time
}

// SaveRun persists a run with its report rows and validation issues in
// one transaction.
func (s *Store) SaveRun(ctx context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, period_start, period_end, created_at) VALUES (?, ?, ?, ?)`,
		run.ID,
		run.PeriodStart.UTC().Format(timeFormat),
		run.PeriodEnd.UTC().Format(timeFormat),
		createdAt.Format(timeFormat),
	); err != nil {
		return err
	}

	for _, issue := range run.Issues {
		var shiftID interface{}
		if issue.ShiftID != "" {
			shiftID = string(issue.ShiftID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO validation_issues (run_id, shift_id, issue_type, description)
			 VALUES (?, ?, ?, ?)`,
			run.ID, shiftID, string(issue.Type), issue.Description,
		); err != nil {
			return err
		}
	}

	for _, row := range run.Report {
		var avg interface{}
		if row.AvgDefined {
			avg = row.AvgWRVUsPerHour.String()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_rows
				(run_id, physician_id, total_pay, productivity_bonus, performance_bonus,
				 total_compensation, shift_hours, wrvu, avg_wrvus_per_hour)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, string(row.PhysicianID),
			row.TotalPay.String(), row.ProductivityBonus.String(), row.PerformanceBonus.String(),
			row.TotalCompensation.String(), row.ShiftHours.String(), row.WRVU.String(), avg,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetReport returns the persisted report rows for a run, ordered by
// physician id.
func (s *Store) GetReport(ctx context.Context, runID string) ([]comp.ReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT physician_id, total_pay, productivity_bonus, performance_bonus,
		       total_compensation, shift_hours, wrvu, avg_wrvus_per_hour
		FROM report_rows
		WHERE run_id = ?
		ORDER BY physician_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []comp.ReportRow
	for rows.Next() {
		var physician string
		var totalPay, prodBonus, perfBonus, totalComp, hours, wrvu string
		var avg sql.NullString
		if err := rows.Scan(&physician, &totalPay, &prodBonus, &perfBonus,
			&totalComp, &hours, &wrvu, &avg); err != nil {
			return nil, err
		}
		row := comp.ReportRow{PhysicianID: comp.PhysicianID(physician)}
		for _, field := range []struct {
			dst *decimal.Decimal
			src string
		}{
			{&row.TotalPay, totalPay},
			{&row.ProductivityBonus, prodBonus},
			{&row.PerformanceBonus, perfBonus},
			{&row.TotalCompensation, totalComp},
			{&row.ShiftHours, hours},
			{&row.WRVU, wrvu},
		} {
			d, err := decimal.NewFromString(field.src)
			if err != nil {
				return nil, fmt.Errorf("report row for %s: %w", physician, err)
			}
			*field.dst = d
		}
		if avg.Valid {
			d, err := decimal.NewFromString(avg.String)
			if err != nil {
				return nil, fmt.Errorf("report row for %s: %w", physician, err)
			}
			row.AvgDefined = true
			row.AvgWRVUsPerHour = d
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

// GetIssues returns the persisted validation issues for a run in their
// original check order.
func (s *Store) GetIssues(ctx context.Context, runID string) ([]validate.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT shift_id, issue_type, description
		FROM validation_issues
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []validate.Issue
	for rows.Next() {
		var shiftID sql.NullString
		var issueType, description string
		if err := rows.Scan(&shiftID, &issueType, &description); err != nil {
			return nil, err
		}
		issues = append(issues, validate.Issue{
			ShiftID:     comp.ShiftID(shiftID.String),
			Type:        validate.IssueType(issueType),
			Description: description,
		})
	}
	return issues, rows.Err()
}
