/*
Package holidaypay computes statutory holiday pay.

PURPOSE:
  Given an employee, their day-by-day work records and a statutory holiday,
  decide whether the employee is eligible for holiday pay and compute the
  exact amount owed under the rule set in force on the holiday.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: Employment facts the engine reads (never writes)
  - WorkRecord: One day of hours and earnings; missing days mean zero
  - ComputeRequest: Fully materialized input of one computation
  - EligibilityResult: Verdict plus every check attempted, in order
  - HolidayPayResult: Itemized, versioned, fingerprinted output

PIPELINE:
  validate -> resolve rule set -> choose formula -> window
           -> eligibility -> formula -> premium -> audit

  The engine does no I/O and keeps no state between calls. Anything that
  needs a database (loading records, saving results) happens before or
  after ComputeHolidayPay, in the caller.

SEE ALSO:
  - calculator.go: ComputeHolidayPay orchestration
  - eligibility.go: qualifying checks
  - formula.go: formula dispatch table
  - audit.go: audit trail and fingerprint
*/
package holidaypay

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmploymentType string

const (
	EmploymentHourly EmploymentType = "hourly"
	EmploymentSalary EmploymentType = "salary"
)

// DefaultDailyHours is the standard day when an employee has none recorded.
var DefaultDailyHours = decimal.NewFromInt(8)

// DefaultSchedule is Monday to Friday.
var DefaultSchedule = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// Employee is owned by the surrounding HR module; the engine only reads it.
type Employee struct {
	ID              generic.EmployeeID `json:"id"`
	HireDate        generic.TimePoint  `json:"hire_date"`
	TerminationDate *generic.TimePoint `json:"termination_date,omitempty"`
	Province        generic.Province   `json:"province"`
	EmploymentType  EmploymentType     `json:"employment_type"`

	HourlyRate         decimal.Decimal `json:"hourly_rate"`
	AnnualSalary       decimal.Decimal `json:"annual_salary"`
	StandardDailyHours decimal.Decimal `json:"standard_daily_hours"`
	ScheduledWeekdays  []time.Weekday  `json:"scheduled_weekdays,omitempty"`

	// Construction selects a rule set's construction percentage.
	Construction bool `json:"construction,omitempty"`
	// Commissioned selects a rule set's commission formula.
	Commissioned bool `json:"commissioned,omitempty"`
}

// DailyHours returns the standard scheduled day length.
func (e Employee) DailyHours() decimal.Decimal {
	if e.StandardDailyHours.IsPositive() {
		return e.StandardDailyHours
	}
	return DefaultDailyHours
}

// Schedule returns the weekdays the employee is normally scheduled.
func (e Employee) Schedule() []time.Weekday {
	if len(e.ScheduledWeekdays) > 0 {
		return e.ScheduledWeekdays
	}
	return DefaultSchedule
}

func (e Employee) IsScheduled(day time.Weekday) bool {
	for _, d := range e.Schedule() {
		if d == day {
			return true
		}
	}
	return false
}

// EmployedOn reports whether date falls within [HireDate, TerminationDate].
func (e Employee) EmployedOn(date generic.TimePoint) bool {
	if date.Before(e.HireDate) {
		return false
	}
	return e.TerminationDate == nil || date.BeforeOrEqual(*e.TerminationDate)
}

// EffectiveHourlyRate is the hourly rate, or the salary spread over the
// standard schedule (52 weeks of scheduled days of DailyHours).
func (e Employee) EffectiveHourlyRate() decimal.Decimal {
	if e.EmploymentType != EmploymentSalary {
		return e.HourlyRate
	}
	hoursPerYear := decimal.NewFromInt(int64(52 * len(e.Schedule()))).Mul(e.DailyHours())
	if hoursPerYear.IsZero() {
		return decimal.Zero
	}
	return e.AnnualSalary.Div(hoursPerYear)
}

// RegularDayPay is one standard scheduled day's pay.
func (e Employee) RegularDayPay() decimal.Decimal {
	if e.EmploymentType == EmploymentSalary {
		days := decimal.NewFromInt(int64(52 * len(e.Schedule())))
		if days.IsZero() {
			return decimal.Zero
		}
		return e.AnnualSalary.Div(days)
	}
	return e.HourlyRate.Mul(e.DailyHours())
}

// =============================================================================
// WORK RECORDS
// =============================================================================

// WorkRecord is one calendar day of activity. Days without a record mean
// zero hours. AbsenceAuthorized marks an approved absence on a scheduled day.
type WorkRecord struct {
	EmployeeID        generic.EmployeeID `json:"employee_id"`
	Date              generic.TimePoint  `json:"date"`
	HoursWorked       decimal.Decimal    `json:"hours_worked"`
	Earnings          decimal.Decimal    `json:"earnings"`
	AbsenceAuthorized bool               `json:"absence_authorized,omitempty"`
}

// Worked reports whether the record shows any hours.
func (r WorkRecord) Worked() bool { return r.HoursWorked.IsPositive() }

// =============================================================================
// REQUEST
// =============================================================================

// ComputeRequest is the complete input of one holiday pay computation.
type ComputeRequest struct {
	Employee    Employee             `json:"employee"`
	WorkRecords []WorkRecord         `json:"work_records"`
	Holiday     jurisdiction.Holiday `json:"holiday"`

	// AsOfConfigDate resolves the rule set in force on this date instead of
	// the holiday date ("what-if" recompute).
	AsOfConfigDate *generic.TimePoint `json:"as_of_config_date,omitempty"`
	// UseLatestConfig resolves the newest rule set regardless of dates.
	UseLatestConfig bool `json:"use_latest_config,omitempty"`
	// PayPeriodEnd anchors the window for rule sets using pay_period_end.
	PayPeriodEnd *generic.TimePoint `json:"pay_period_end,omitempty"`
}

// =============================================================================
// RESULTS
// =============================================================================

// Rule names recorded in EligibilityResult.Reasons.
const (
	RuleMinimumTenure         = "minimum_tenure"
	RuleLastFirstScheduledDay = "last_first_scheduled_day"
	RuleRegularWorkday        = "regular_workday"
	RuleMinDaysWorked         = "min_days_worked_in_period"
)

// Reason is one eligibility check. Skipped is true for checks not evaluated,
// either because the rule set does not require them or because an earlier
// check already failed; Detail says which.
type Reason struct {
	Rule    string `json:"rule"`
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail"`
}

type EligibilityResult struct {
	Eligible bool     `json:"eligible"`
	Reasons  []Reason `json:"reasons"`
}

// Failed returns the first failing check, if any.
func (e EligibilityResult) Failed() (Reason, bool) {
	for _, r := range e.Reasons {
		if !r.Passed && !r.Skipped {
			return r, true
		}
	}
	return Reason{}, false
}

// Warning codes.
const (
	WarningIncompleteHistory = "incomplete_history"
	WarningLatestConfig      = "latest_config"
	WarningAsOfConfig        = "as_of_config"
)

// Warning is a recoverable condition that did not block the result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HolidayPayResult is the itemized outcome of one computation. It carries no
// timestamps so identical inputs give byte-identical results.
type HolidayPayResult struct {
	EmployeeID   generic.EmployeeID `json:"employee_id"`
	HolidayDate  generic.TimePoint  `json:"holiday_date"`
	HolidayName  string             `json:"holiday_name"`
	ProvinceCode generic.Province   `json:"province_code"`

	BasePay    decimal.Decimal `json:"base_pay"`
	PremiumPay decimal.Decimal `json:"premium_pay"`
	TotalPay   decimal.Decimal `json:"total_pay"`

	FormulaUsed           jurisdiction.FormulaType `json:"formula_used"`
	PeriodStart           generic.TimePoint        `json:"period_start"`
	PeriodEnd             generic.TimePoint        `json:"period_end"`
	DaysWorkedInPeriod    int                      `json:"days_worked_in_period"`
	TotalEarningsInPeriod decimal.Decimal          `json:"total_earnings_in_period"`
	HoursWorkedOnHoliday  decimal.Decimal          `json:"hours_worked_on_holiday"`

	ConfigVersionUsed jurisdiction.ConfigVersion `json:"config_version_used"`
	Eligibility       EligibilityResult          `json:"eligibility"`
	Warnings          []Warning                  `json:"warnings,omitempty"`
	Audit             AuditTrail                 `json:"audit"`

	// Fingerprint is the SHA-256 of the canonical JSON of this result with
	// Fingerprint itself empty.
	Fingerprint string `json:"fingerprint"`
}

// Period returns the lookback window used.
func (r HolidayPayResult) Period() generic.Period {
	return generic.Period{Start: r.PeriodStart, End: r.PeriodEnd}
}

// HasWarning reports whether a warning with code is attached.
func (r HolidayPayResult) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
