/*
Package leave answers "is this employee entitled to this leave, and how much
of it is paid?" from the same effective-dated rule sets holiday pay uses.

PURPOSE:
  Job-protected leaves (sick, bereavement, family responsibility, ...) have
  per-jurisdiction tenure thresholds and paid-day counts that change with
  legislation exactly like holiday pay formulas. Each RuleSet row carries its
  LeaveRules, so a leave request resolves the row in force on the leave start
  date and reads the entitlement from it.

CHECKS (in order):
  1. minimum_tenure: days from hire to leave start >= LeaveRule.MinEmploymentDays
  2. paid_days_tenure: PaidDays apply only once tenure >= LeaveRule.PaidAfterDays;
     before that the leave is protected but unpaid

ERRORS:
  - generic.ValidationError: malformed request
  - generic.ConfigNotFoundError: no rule set in force on the start date
  - generic.ErrLeaveNotDefined: the rule set has no rule for the leave type

SEE ALSO:
  - jurisdiction/ruleset.go: LeaveRule
  - holidaypay/eligibility.go: the same reason-list shape for holiday pay
*/
package leave

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
)

const (
	RuleMinimumTenure  = "minimum_tenure"
	RulePaidDaysTenure = "paid_days_tenure"
)

// Request asks for the entitlement to one leave starting on StartDate.
type Request struct {
	Employee       holidaypay.Employee    `json:"employee"`
	Type           jurisdiction.LeaveType `json:"leave_type"`
	StartDate      generic.TimePoint      `json:"start_date"`
	AsOfConfigDate *generic.TimePoint     `json:"as_of_config_date,omitempty"`
}

// Entitlement is the answer. EntitledDays is what the rule grants when
// Eligible, PaidDays the part of it that is paid.
type Entitlement struct {
	EmployeeID        generic.EmployeeID         `json:"employee_id"`
	Type              jurisdiction.LeaveType     `json:"leave_type"`
	StartDate         generic.TimePoint          `json:"start_date"`
	ProvinceCode      generic.Province           `json:"province_code"`
	Eligible          bool                       `json:"eligible"`
	EntitledDays      decimal.Decimal            `json:"entitled_days"`
	PaidDays          decimal.Decimal            `json:"paid_days"`
	TenureDays        int                        `json:"tenure_days"`
	Reasons           []holidaypay.Reason        `json:"reasons"`
	ConfigVersionUsed jurisdiction.ConfigVersion `json:"config_version_used"`
}

// Evaluate resolves the rule set in force on the leave start date (or on
// AsOfConfigDate) and applies its LeaveRule for the requested type.
func Evaluate(resolver jurisdiction.Resolver, req Request) (*Entitlement, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	emp := req.Employee

	on := req.StartDate
	if req.AsOfConfigDate != nil {
		on = *req.AsOfConfigDate
	}
	rs, err := resolver.Resolve(emp.Province, on)
	if err != nil {
		return nil, err
	}
	rule, ok := rs.Leave(req.Type)
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", req.Type, rs.ID, generic.ErrLeaveNotDefined)
	}
	version, err := rs.Version()
	if err != nil {
		return nil, err
	}

	tenure := generic.DaysBetween(emp.HireDate, req.StartDate)
	out := &Entitlement{
		EmployeeID:        emp.ID,
		Type:              req.Type,
		StartDate:         req.StartDate,
		ProvinceCode:      emp.Province,
		EntitledDays:      decimal.Zero,
		PaidDays:          decimal.Zero,
		TenureDays:        tenure,
		ConfigVersionUsed: version,
	}

	eligible := tenure >= rule.MinEmploymentDays
	out.Reasons = append(out.Reasons, holidaypay.Reason{
		Rule:   RuleMinimumTenure,
		Passed: eligible,
		Detail: fmt.Sprintf("employed %d days; minimum %d", tenure, rule.MinEmploymentDays),
	})
	if !eligible {
		out.Reasons = append(out.Reasons, holidaypay.Reason{
			Rule: RulePaidDaysTenure, Skipped: true, Detail: "not evaluated: an earlier check failed",
		})
		return out, nil
	}

	out.Eligible = true
	out.EntitledDays = rule.EntitledDays
	switch {
	case rule.PaidDays.IsZero():
		out.Reasons = append(out.Reasons, holidaypay.Reason{
			Rule: RulePaidDaysTenure, Passed: true, Detail: fmt.Sprintf("%s grants no paid days", rs.ID),
		})
	case tenure >= rule.PaidAfterDays:
		out.PaidDays = rule.PaidDays
		out.Reasons = append(out.Reasons, holidaypay.Reason{
			Rule:   RulePaidDaysTenure,
			Passed: true,
			Detail: fmt.Sprintf("%s paid days after %d days employed", rule.PaidDays, rule.PaidAfterDays),
		})
	default:
		out.Reasons = append(out.Reasons, holidaypay.Reason{
			Rule:   RulePaidDaysTenure,
			Passed: false,
			Detail: fmt.Sprintf("employed %d days; paid days start after %d, leave is unpaid", tenure, rule.PaidAfterDays),
		})
	}
	return out, nil
}

func validate(req Request) error {
	emp := req.Employee
	if emp.ID == "" {
		return generic.Invalid("employee.id", "employee id is required")
	}
	if _, err := generic.ParseProvince(string(emp.Province)); err != nil {
		return err
	}
	if emp.HireDate.IsZero() {
		return generic.Invalid("employee.hire_date", "hire date is required")
	}
	if !req.Type.IsKnown() {
		return generic.Invalid("leave_type", "unknown leave type %q", req.Type)
	}
	if req.StartDate.IsZero() {
		return generic.Invalid("start_date", "leave start date is required")
	}
	if req.StartDate.Before(emp.HireDate) {
		return generic.Invalid("start_date", "leave starts %s, before hire %s", req.StartDate, emp.HireDate)
	}
	if t := emp.TerminationDate; t != nil && t.Before(req.StartDate) {
		return generic.Invalid("start_date", "leave starts %s, after termination %s", req.StartDate, t)
	}
	return nil
}
