/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists everything around the engine: effective-dated rule-set rows,
  employees, their day-by-day work records and computed holiday pay results.
  The engine itself never sees this package; callers load a ComputeRequest
  with holidaypay.LoadRequest and save the result afterwards.

INTERFACES IMPLEMENTED:
  jurisdiction.Store:       Rule-set revisions (append-only)
  holidaypay.EmployeeStore: Employees and work records
  holidaypay.ResultStore:   Computed results with their audit trail

APPEND-ONLY ENFORCEMENT:
  - rule_sets: no UPDATE or DELETE; closing a row appends a new revision
  - work_records: one row per (employee, date), never edited
  - holiday_pay_results: insert only; a recompute is a new result

KEY TABLES:
  rule_sets:           (id, revision) -> RuleSet JSON, with province and dates
                       broken out for indexing
  employees:           Employee JSON keyed by id
  work_records:        One row per employee per day
  holiday_pay_results: Result JSON plus fingerprint and total for listing

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/statpay.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  registry := jurisdiction.NewRegistry(store)

SEE ALSO:
  - generic/store/memory.go: In-memory implementation for testing
  - jurisdiction/registry.go: Publish / Supersede on top of Store
  - holidaypay/source.go: interface definitions
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// NewWithDB wraps an already open database without migrating it.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	schema := `
	-- Rule sets (append-only, one row per revision)
	CREATE TABLE IF NOT EXISTS rule_sets (
		id TEXT NOT NULL,
		revision INTEGER NOT NULL,
		province TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (id, revision)
	);

	CREATE INDEX IF NOT EXISTS idx_rule_sets_province
		ON rule_sets(province, effective_from);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		province TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		employee_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Work records: one per employee per day
	CREATE TABLE IF NOT EXISTS work_records (
		employee_id TEXT NOT NULL REFERENCES employees(id),
		date TEXT NOT NULL,
		hours_worked TEXT NOT NULL,
		earnings TEXT NOT NULL,
		absence_authorized BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, date)
	);

	-- Computed results
	CREATE TABLE IF NOT EXISTS holiday_pay_results (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		holiday_date TEXT NOT NULL,
		province TEXT NOT NULL,
		total_pay TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		result_json TEXT NOT NULL,
		computed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_employee
		ON holiday_pay_results(employee_id, computed_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// =============================================================================
// RULE SETS (jurisdiction.Store interface)
// =============================================================================

// AppendRuleSets inserts rows in one transaction. An existing (id, revision)
// aborts the whole batch with generic.ErrDuplicateRuleSet.
func (s *Store) AppendRuleSets(ctx context.Context, rows ...jurisdiction.RuleSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO rule_sets (id, revision, province, effective_from, effective_to, config_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC().Format(time.RFC3339)
	for _, rs := range rows {
		config, err := json.Marshal(rs)
		if err != nil {
			return fmt.Errorf("failed to encode rule set %s: %w", rs.ID, err)
		}
		var effectiveTo sql.NullString
		if rs.EffectiveTo != nil {
			effectiveTo = sql.NullString{String: rs.EffectiveTo.String(), Valid: true}
		}
		_, err = sqlTx.ExecContext(ctx, query,
			rs.ID, rs.Revision, string(rs.Province),
			rs.EffectiveFrom.String(), effectiveTo,
			string(config), now,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("rule set %s revision %d: %w", rs.ID, rs.Revision, generic.ErrDuplicateRuleSet)
			}
			return fmt.Errorf("failed to insert rule set %s: %w", rs.ID, err)
		}
	}
	return sqlTx.Commit()
}

// RuleSetRevisions returns every stored revision for a province, or for all
// provinces when province is empty.
func (s *Store) RuleSetRevisions(ctx context.Context, province generic.Province) ([]jurisdiction.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT config_json FROM rule_sets
		WHERE ? = '' OR province = ?
		ORDER BY province, effective_from, id, revision
	`
	rows, err := s.db.QueryContext(ctx, query, string(province), string(province))
	if err != nil {
		return nil, fmt.Errorf("failed to query rule sets: %w", err)
	}
	defer rows.Close()

	var out []jurisdiction.RuleSet
	for rows.Next() {
		var config string
		if err := rows.Scan(&config); err != nil {
			return nil, err
		}
		var rs jurisdiction.RuleSet
		if err := json.Unmarshal([]byte(config), &rs); err != nil {
			return nil, fmt.Errorf("failed to decode rule set: %w", err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// =============================================================================
// EMPLOYEES (holidaypay.EmployeeStore interface)
// =============================================================================

// SaveEmployee inserts or replaces an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp holidaypay.Employee) error {
	if emp.ID == "" {
		return generic.Invalid("employee.id", "employee id is required")
	}
	data, err := json.Marshal(emp)
	if err != nil {
		return fmt.Errorf("failed to encode employee: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, province, hire_date, employee_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			province = excluded.province,
			hire_date = excluded.hire_date,
			employee_json = excluded.employee_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		string(emp.ID), string(emp.Province), emp.HireDate.String(), string(data),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.ID, err)
	}
	return nil
}

// Employee retrieves an employee by ID.
func (s *Store) Employee(ctx context.Context, id generic.EmployeeID) (holidaypay.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT employee_json FROM employees WHERE id = ?", string(id),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return holidaypay.Employee{}, fmt.Errorf("employee %s: %w", id, generic.ErrEmployeeNotFound)
	}
	if err != nil {
		return holidaypay.Employee{}, fmt.Errorf("failed to load employee %s: %w", id, err)
	}

	var emp holidaypay.Employee
	if err := json.Unmarshal([]byte(data), &emp); err != nil {
		return holidaypay.Employee{}, fmt.Errorf("failed to decode employee %s: %w", id, err)
	}
	return emp, nil
}

// Employees returns all employees ordered by ID.
func (s *Store) Employees(ctx context.Context) ([]holidaypay.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT employee_json FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []holidaypay.Employee
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var emp holidaypay.Employee
		if err := json.Unmarshal([]byte(data), &emp); err != nil {
			return nil, fmt.Errorf("failed to decode employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// WORK RECORDS
// =============================================================================

// AppendWorkRecords inserts records in one transaction. A second record for
// the same employee and day aborts the batch.
func (s *Store) AppendWorkRecords(ctx context.Context, records ...holidaypay.WorkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO work_records (employee_id, date, hours_worked, earnings, absence_authorized, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		_, err := sqlTx.ExecContext(ctx, query,
			string(r.EmployeeID), r.Date.String(),
			r.HoursWorked.String(), r.Earnings.String(),
			r.AbsenceAuthorized, now,
		)
		switch {
		case err == nil:
		case isForeignKeyError(err):
			return fmt.Errorf("employee %s: %w", r.EmployeeID, generic.ErrEmployeeNotFound)
		case isUniqueConstraintError(err):
			return generic.Invalid("work_records", "record for %s on %s already exists", r.EmployeeID, r.Date)
		default:
			return fmt.Errorf("failed to insert work record: %w", err)
		}
	}
	return sqlTx.Commit()
}

// WorkRecords returns an employee's records within period, ordered by date.
func (s *Store) WorkRecords(ctx context.Context, id generic.EmployeeID, period generic.Period) ([]holidaypay.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT employee_id, date, hours_worked, earnings, absence_authorized
		FROM work_records
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(id), period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query work records: %w", err)
	}
	defer rows.Close()

	var out []holidaypay.WorkRecord
	for rows.Next() {
		r, err := scanWorkRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanWorkRecord(rows *sql.Rows) (holidaypay.WorkRecord, error) {
	var (
		r                     holidaypay.WorkRecord
		employeeID, date      string
		hoursWorked, earnings string
	)
	if err := rows.Scan(&employeeID, &date, &hoursWorked, &earnings, &r.AbsenceAuthorized); err != nil {
		return r, err
	}
	var err error
	r.EmployeeID = generic.EmployeeID(employeeID)
	if r.Date, err = generic.ParseDate(date); err != nil {
		return r, fmt.Errorf("bad work record date %q: %w", date, err)
	}
	if r.HoursWorked, err = decimal.NewFromString(hoursWorked); err != nil {
		return r, fmt.Errorf("bad hours on %s: %w", date, err)
	}
	if r.Earnings, err = decimal.NewFromString(earnings); err != nil {
		return r, fmt.Errorf("bad earnings on %s: %w", date, err)
	}
	return r, nil
}

// =============================================================================
// RESULTS (holidaypay.ResultStore interface)
// =============================================================================

// SaveResult stores a computed result. IDs are unique.
func (s *Store) SaveResult(ctx context.Context, r holidaypay.StoredResult) error {
	data, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holiday_pay_results
		(id, employee_id, holiday_date, province, total_pay, fingerprint, result_json, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, string(r.Result.EmployeeID), r.Result.HolidayDate.String(), string(r.Result.ProvinceCode),
		r.Result.TotalPay.String(), r.Result.Fingerprint, string(data),
		r.ComputedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.Invalid("result.id", "result %s already stored", r.ID)
		}
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// Result retrieves a stored result by ID.
func (s *Store) Result(ctx context.Context, id string) (holidaypay.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, result_json, computed_at FROM holiday_pay_results WHERE id = ?", id)
	if err != nil {
		return holidaypay.StoredResult{}, fmt.Errorf("failed to query result: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return holidaypay.StoredResult{}, err
		}
		return holidaypay.StoredResult{}, fmt.Errorf("result %s: %w", id, generic.ErrResultNotFound)
	}
	return scanResult(rows)
}

// Results lists an employee's stored results, oldest first.
func (s *Store) Results(ctx context.Context, id generic.EmployeeID) ([]holidaypay.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, result_json, computed_at FROM holiday_pay_results
		WHERE employee_id = ?
		ORDER BY computed_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []holidaypay.StoredResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResult(rows *sql.Rows) (holidaypay.StoredResult, error) {
	var (
		r                holidaypay.StoredResult
		data, computedAt string
	)
	if err := rows.Scan(&r.ID, &data, &computedAt); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(data), &r.Result); err != nil {
		return r, fmt.Errorf("failed to decode result %s: %w", r.ID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, computedAt)
	if err != nil {
		return r, fmt.Errorf("bad computed_at for result %s: %w", r.ID, err)
	}
	r.ComputedAt = t
	return r, nil
}

// Helper functions

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
