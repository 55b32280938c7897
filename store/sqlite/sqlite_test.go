package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/statpay/factory"
	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
	"github.com/warp/statpay/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

func employee(id string) holidaypay.Employee {
	term := date("2025-06-30")
	return holidaypay.Employee{
		ID:              generic.EmployeeID(id),
		HireDate:        date("2020-01-06"),
		TerminationDate: &term,
		Province:        generic.ProvinceON,
		EmploymentType:  holidaypay.EmploymentHourly,
		HourlyRate:      decimal.RequireFromString("21.75"),
		ScheduledWeekdays: []time.Weekday{
			time.Monday, time.Wednesday, time.Friday,
		},
	}
}

func workRecord(id, day, hours string) holidaypay.WorkRecord {
	h := decimal.RequireFromString(hours)
	return holidaypay.WorkRecord{
		EmployeeID:  generic.EmployeeID(id),
		Date:        date(day),
		HoursWorked: h,
		Earnings:    h.Mul(decimal.RequireFromString("21.75")),
	}
}

// =============================================================================
// RULE SETS
// =============================================================================

func TestStore_RegistryRoundTrip(t *testing.T) {
	// GIVEN: The default table seeded into SQLite
	ctx := context.Background()
	store := newTestStore(t)
	reg := jurisdiction.NewRegistry(store)
	rt := factory.MustDefault()

	n, err := rt.Seed(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, len(rt.RuleSets), n)

	// WHEN: Reading the snapshot back
	table, err := reg.Snapshot(ctx)
	require.NoError(t, err)

	// THEN: It is the same table
	want, err := rt.Table().Digest()
	require.NoError(t, err)
	got, err := table.Digest()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_SupersedeKeepsEveryRevision(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	reg := jurisdiction.NewRegistry(store)
	_, err := factory.MustDefault().Seed(ctx, reg)
	require.NoError(t, err)

	table, err := reg.Snapshot(ctx)
	require.NoError(t, err)
	next, err := table.Resolve(generic.ProvinceSK, date("2024-01-01"))
	require.NoError(t, err)
	next.ID = "SK-2030"
	next.Revision = 0
	next.EffectiveFrom = date("2030-01-01")
	next.Params.Percentage = decimal.RequireFromString("0.06")

	closed, err := reg.Supersede(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "SK-2014", closed.ID)

	revisions, err := store.RuleSetRevisions(ctx, generic.ProvinceSK)
	require.NoError(t, err)
	assert.Len(t, revisions, 3)
}

func TestStore_DuplicateRevisionAbortsBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	a := jurisdiction.RuleSet{ID: "AB-1", Revision: 1, Province: generic.ProvinceAB, EffectiveFrom: date("2020-01-01")}
	b := jurisdiction.RuleSet{ID: "SK-1", Revision: 1, Province: generic.ProvinceSK, EffectiveFrom: date("2020-01-01")}
	require.NoError(t, store.AppendRuleSets(ctx, a))

	err := store.AppendRuleSets(ctx, b, a)

	assert.ErrorIs(t, err, generic.ErrDuplicateRuleSet)
	all, err := store.RuleSetRevisions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1, "SK-1 was rolled back")
}

// =============================================================================
// EMPLOYEES AND WORK RECORDS
// =============================================================================

func TestStore_EmployeeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveEmployee(ctx, employee("e1")))

	got, err := store.Employee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-30", got.TerminationDate.String())
	assert.Equal(t, "21.75", got.HourlyRate.String())
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, got.ScheduledWeekdays)

	_, err = store.Employee(ctx, "nobody")
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
}

func TestStore_WorkRecords(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveEmployee(ctx, employee("e1")))

	absent := holidaypay.WorkRecord{EmployeeID: "e1", Date: date("2024-12-20"), AbsenceAuthorized: true}
	require.NoError(t, store.AppendWorkRecords(ctx,
		workRecord("e1", "2024-12-18", "7.5"),
		absent,
		workRecord("e1", "2024-12-16", "8"),
	))

	recs, err := store.WorkRecords(ctx, "e1", generic.Period{Start: date("2024-12-16"), End: date("2024-12-20")})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "2024-12-16", recs[0].Date.String())
	assert.Equal(t, "163.125", recs[1].Earnings.String())
	assert.True(t, recs[2].AbsenceAuthorized)
	assert.True(t, recs[2].HoursWorked.IsZero())

	// Duplicate day
	err = store.AppendWorkRecords(ctx, workRecord("e1", "2024-12-18", "1"))
	assert.True(t, generic.IsClientError(err))

	// Unknown employee
	err = store.AppendWorkRecords(ctx, workRecord("ghost", "2024-12-18", "1"))
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
}

func TestStore_LoadRequestAndCompute(t *testing.T) {
	// GIVEN: An Ontario employee with 4 weeks of Mon/Wed/Fri shifts
	ctx := context.Background()
	store := newTestStore(t)
	emp := employee("e1")
	require.NoError(t, store.SaveEmployee(ctx, emp))
	var records []holidaypay.WorkRecord
	for _, day := range (generic.Period{Start: date("2024-11-24"), End: date("2024-12-31")}).Days() {
		if emp.IsScheduled(day.Weekday()) && !day.Equal(date("2024-12-25")) {
			records = append(records, workRecord("e1", day.String(), "8"))
		}
	}
	require.NoError(t, store.AppendWorkRecords(ctx, records...))

	// WHEN: Loading and computing Christmas 2024
	h, ok := jurisdiction.FindHoliday(generic.ProvinceON, date("2024-12-25"))
	require.True(t, ok)
	req, err := holidaypay.LoadRequest(ctx, store, "e1", h, holidaypay.RequestOptions{})
	require.NoError(t, err)
	res, err := holidaypay.NewCalculator(factory.MustDefault().Table()).ComputeHolidayPay(req)
	require.NoError(t, err)

	// THEN: 12 shifts x 8h x $21.75 = $2,088 / 20 = $104.40
	assert.Equal(t, 12, res.DaysWorkedInPeriod)
	assert.Equal(t, "104.40", res.TotalPay.StringFixed(2))

	// AND: The result survives a round trip unchanged
	stored := holidaypay.StoredResult{ID: "r1", ComputedAt: time.Date(2024, 12, 27, 9, 30, 0, 0, time.UTC), Result: *res}
	require.NoError(t, store.SaveResult(ctx, stored))
	back, err := store.Result(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, res.Fingerprint, back.Result.Fingerprint)
	ok, err = holidaypay.VerifyFingerprint(back.Result)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, stored.ComputedAt.Equal(back.ComputedAt))

	list, err := store.Results(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = store.Result(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrResultNotFound)
	assert.True(t, generic.IsClientError(store.SaveResult(ctx, stored)))
}

// =============================================================================
// DRIVER FAILURES (sqlmock)
// =============================================================================

func TestStore_AppendRuleSetsRollsBackOnDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := sqlite.NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rule_sets").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO rule_sets").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = store.AppendRuleSets(context.Background(),
		jurisdiction.RuleSet{ID: "A", Revision: 1, Province: generic.ProvinceAB, EffectiveFrom: date("2020-01-01")},
		jurisdiction.RuleSet{ID: "B", Revision: 1, Province: generic.ProvinceSK, EffectiveFrom: date("2020-01-01")},
	)

	assert.ErrorContains(t, err, "disk I/O error")
	assert.False(t, generic.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UniqueViolationMapsToDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := sqlite.NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rule_sets").
		WillReturnError(errors.New("UNIQUE constraint failed: rule_sets.id, rule_sets.revision"))
	mock.ExpectRollback()

	err = store.AppendRuleSets(context.Background(),
		jurisdiction.RuleSet{ID: "A", Revision: 1, Province: generic.ProvinceAB, EffectiveFrom: date("2020-01-01")})

	assert.ErrorIs(t, err, generic.ErrDuplicateRuleSet)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_EmployeeQueryErrorIsNotNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := sqlite.NewWithDB(db)

	mock.ExpectQuery("SELECT employee_json FROM employees").
		WithArgs("e1").
		WillReturnError(errors.New("database is locked"))

	_, err = store.Employee(context.Background(), "e1")

	assert.Error(t, err)
	assert.False(t, generic.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CorruptWorkRecordIsReported(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := sqlite.NewWithDB(db)

	rows := sqlmock.NewRows([]string{"employee_id", "date", "hours_worked", "earnings", "absence_authorized"}).
		AddRow("e1", "2024-12-16", "eight", "160", false)
	mock.ExpectQuery("SELECT employee_id, date, hours_worked, earnings, absence_authorized").
		WithArgs("e1", "2024-12-01", "2024-12-31").
		WillReturnRows(rows)

	_, err = store.WorkRecords(context.Background(), "e1", generic.Period{Start: date("2024-12-01"), End: date("2024-12-31")})

	assert.ErrorContains(t, err, "bad hours on 2024-12-16")
	assert.NoError(t, mock.ExpectationsWereMet())
}
