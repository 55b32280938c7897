package holidaypay

import (
	"sort"
	"time"

	"github.com/warp/statpay/generic"
)

// =============================================================================
// INPUT VALIDATION - Fatal, no result is produced
// =============================================================================

// normalize fills defaults and returns a copy with records sorted by date.
// It never mutates the caller's slices.
func normalize(req ComputeRequest) ComputeRequest {
	out := req
	if out.Holiday.Province == "" {
		out.Holiday.Province = out.Employee.Province
	}
	if out.Employee.EmploymentType == "" {
		out.Employee.EmploymentType = EmploymentHourly
	}
	out.WorkRecords = make([]WorkRecord, len(req.WorkRecords))
	copy(out.WorkRecords, req.WorkRecords)
	sort.SliceStable(out.WorkRecords, func(i, j int) bool {
		return out.WorkRecords[i].Date.Before(out.WorkRecords[j].Date)
	})
	return out
}

// ValidateRequest rejects malformed input. Records must already be sorted
// (normalize does that).
func ValidateRequest(req ComputeRequest) error {
	if err := validateEmployee(req.Employee); err != nil {
		return err
	}

	holiday := req.Holiday
	if holiday.Date.IsZero() {
		return generic.Invalid("holiday.date", "holiday date is required")
	}
	if holiday.Province != req.Employee.Province {
		return generic.Invalid("holiday.province", "holiday is in %s but employee %s works in %s",
			holiday.Province, req.Employee.ID, req.Employee.Province)
	}
	if req.Employee.HireDate.After(holiday.Date) {
		return generic.Invalid("employee.hire_date", "employee %s was hired %s, after the holiday %s",
			req.Employee.ID, req.Employee.HireDate, holiday.Date)
	}
	if t := req.Employee.TerminationDate; t != nil && t.Before(holiday.Date) {
		return generic.Invalid("holiday.date", "holiday %s is after employee %s was terminated on %s",
			holiday.Date, req.Employee.ID, t)
	}

	if req.UseLatestConfig && req.AsOfConfigDate != nil {
		return generic.Invalid("as_of_config_date", "cannot combine as_of_config_date with use_latest_config")
	}
	if req.PayPeriodEnd != nil && !req.PayPeriodEnd.Before(holiday.Date) {
		return generic.Invalid("pay_period_end", "pay period end %s must be before the holiday %s",
			req.PayPeriodEnd, holiday.Date)
	}

	return validateRecords(req.Employee.ID, req.WorkRecords)
}

func validateEmployee(e Employee) error {
	if e.ID == "" {
		return generic.Invalid("employee.id", "employee id is required")
	}
	if _, err := generic.ParseProvince(string(e.Province)); err != nil {
		return err
	}
	if e.HireDate.IsZero() {
		return generic.Invalid("employee.hire_date", "hire date is required")
	}
	if e.TerminationDate != nil && e.TerminationDate.Before(e.HireDate) {
		return generic.Invalid("employee.termination_date", "termination %s is before hire %s",
			e.TerminationDate, e.HireDate)
	}
	switch e.EmploymentType {
	case EmploymentHourly, EmploymentSalary:
	default:
		return generic.Invalid("employee.employment_type", "unknown employment type %q", e.EmploymentType)
	}
	if e.HourlyRate.IsNegative() || e.AnnualSalary.IsNegative() {
		return generic.Invalid("employee.rate", "pay rates must not be negative")
	}
	if e.StandardDailyHours.IsNegative() {
		return generic.Invalid("employee.standard_daily_hours", "must not be negative")
	}
	seen := make(map[time.Weekday]bool, len(e.ScheduledWeekdays))
	for _, d := range e.ScheduledWeekdays {
		if d < time.Sunday || d > time.Saturday {
			return generic.Invalid("employee.scheduled_weekdays", "invalid weekday %d", d)
		}
		if seen[d] {
			return generic.Invalid("employee.scheduled_weekdays", "%s listed twice", d)
		}
		seen[d] = true
	}
	return nil
}

func validateRecords(id generic.EmployeeID, records []WorkRecord) error {
	for i, r := range records {
		if r.EmployeeID != "" && r.EmployeeID != id {
			return generic.Invalid("work_records", "record on %s belongs to %s, not %s", r.Date, r.EmployeeID, id)
		}
		if r.Date.IsZero() {
			return generic.Invalid("work_records", "record %d has no date", i)
		}
		if r.HoursWorked.IsNegative() {
			return generic.Invalid("work_records.hours_worked", "negative hours on %s", r.Date)
		}
		if r.Earnings.IsNegative() {
			return generic.Invalid("work_records.earnings", "negative earnings on %s", r.Date)
		}
		if i > 0 && records[i-1].Date.Equal(r.Date) {
			return generic.Invalid("work_records", "more than one record on %s", r.Date)
		}
	}
	return nil
}
