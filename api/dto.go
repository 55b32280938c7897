/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine types
  (holidaypay.HolidayPayResult, jurisdiction.RuleSet, leave.Entitlement) are
  returned as-is because their JSON is part of the audit record; these types
  cover the request bodies and the list/summary envelopes around them.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Jurisdictions:
    JurisdictionDTO, ResolveDTO, HolidayDTO

  Employees:
    EmployeeDTO

  Holiday pay:
    ComputeHolidayPayRequest, ComputeResponse, StoredResultDTO

  Payroll:
    PayrollRunRequest, PayrollRunDTO, PayrollItemDTO

  Leave:
    LeaveEntitlementRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// JURISDICTIONS
// =============================================================================

// JurisdictionDTO summarizes one province's rule sets.
type JurisdictionDTO struct {
	Province generic.Province  `json:"province"`
	RuleSets []RuleSetSummary `json:"rule_sets"`
	Current  *RuleSetSummary  `json:"current,omitempty"`
}

// RuleSetSummary is one current row without its parameters.
type RuleSetSummary struct {
	ID            string                   `json:"id"`
	Revision      int                      `json:"revision"`
	EffectiveFrom generic.TimePoint        `json:"effective_from"`
	EffectiveTo   *generic.TimePoint       `json:"effective_to,omitempty"`
	FormulaType   jurisdiction.FormulaType `json:"formula_type"`
	Label         string                   `json:"label"`
}

func toRuleSetSummary(rs jurisdiction.RuleSet) RuleSetSummary {
	return RuleSetSummary{
		ID:            rs.ID,
		Revision:      rs.Revision,
		EffectiveFrom: rs.EffectiveFrom,
		EffectiveTo:   rs.EffectiveTo,
		FormulaType:   rs.FormulaType,
		Label:         rs.String(),
	}
}

// ResolveDTO is the answer to "which rule set applies?".
type ResolveDTO struct {
	Province generic.Province     `json:"province"`
	Date     *generic.TimePoint   `json:"date,omitempty"`
	Latest   bool                 `json:"latest,omitempty"`
	RuleSet  jurisdiction.RuleSet `json:"rule_set"`
}

// HolidayDTO is a statutory holiday.
type HolidayDTO struct {
	Date     generic.TimePoint `json:"date"`
	Province generic.Province  `json:"province"`
	Name     string            `json:"name"`
	Weekday  string            `json:"weekday"`
}

func toHolidayDTO(h jurisdiction.Holiday) HolidayDTO {
	return HolidayDTO{Date: h.Date, Province: h.Province, Name: h.Name, Weekday: h.Date.Weekday().String()}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	holidaypay.Employee
	Schedule string `json:"schedule"`
}

func toEmployeeDTO(e holidaypay.Employee) EmployeeDTO {
	return EmployeeDTO{Employee: e, Schedule: generic.FormatWeekdays(e.Schedule())}
}

// =============================================================================
// HOLIDAY PAY
// =============================================================================

// ComputeHolidayPayRequest computes holiday pay for a stored employee.
// HolidayDate must be a statutory holiday of the employee's province unless
// HolidayName is given.
type ComputeHolidayPayRequest struct {
	HolidayDate     generic.TimePoint  `json:"holiday_date"`
	HolidayName     string             `json:"holiday_name,omitempty"`
	AsOfConfigDate  *generic.TimePoint `json:"as_of_config_date,omitempty"`
	UseLatestConfig bool               `json:"use_latest_config,omitempty"`
	PayPeriodEnd    *generic.TimePoint `json:"pay_period_end,omitempty"`
	// Persist stores the result and returns its ID.
	Persist bool `json:"persist,omitempty"`
}

// ComputeResponse wraps a result with its storage and cache metadata.
type ComputeResponse struct {
	ResultID string                       `json:"result_id,omitempty"`
	Cached   bool                         `json:"cached"`
	Result   *holidaypay.HolidayPayResult `json:"result"`
	Audit    string                       `json:"audit_text"`
}

// StoredResultDTO lists a persisted result without its full audit trail.
type StoredResultDTO struct {
	ID          string             `json:"id"`
	ComputedAt  time.Time          `json:"computed_at"`
	EmployeeID  generic.EmployeeID `json:"employee_id"`
	HolidayDate generic.TimePoint  `json:"holiday_date"`
	HolidayName string             `json:"holiday_name"`
	Eligible    bool               `json:"eligible"`
	TotalPay    decimal.Decimal    `json:"total_pay"`
	ConfigUsed  string             `json:"config_used"`
	Fingerprint string             `json:"fingerprint"`
}

func toStoredResultDTO(r holidaypay.StoredResult) StoredResultDTO {
	return StoredResultDTO{
		ID:          r.ID,
		ComputedAt:  r.ComputedAt,
		EmployeeID:  r.Result.EmployeeID,
		HolidayDate: r.Result.HolidayDate,
		HolidayName: r.Result.HolidayName,
		Eligible:    r.Result.Eligibility.Eligible,
		TotalPay:    r.Result.TotalPay,
		ConfigUsed:  r.Result.ConfigVersionUsed.String(),
		Fingerprint: r.Result.Fingerprint,
	}
}

// =============================================================================
// PAYROLL RUN
// =============================================================================

// PayrollRunRequest computes holiday pay for every employee of a province
// employed on the holiday.
type PayrollRunRequest struct {
	Province     generic.Province   `json:"province"`
	HolidayDate  generic.TimePoint  `json:"holiday_date"`
	PayPeriodEnd *generic.TimePoint `json:"pay_period_end,omitempty"`
}

// PayrollItemDTO is one employee's line in a payroll run.
type PayrollItemDTO struct {
	EmployeeID generic.EmployeeID `json:"employee_id"`
	ResultID   string             `json:"result_id,omitempty"`
	Eligible   bool               `json:"eligible"`
	TotalPay   decimal.Decimal    `json:"total_pay"`
	Error      string             `json:"error,omitempty"`
}

// PayrollRunDTO summarizes a payroll run.
type PayrollRunDTO struct {
	Province    generic.Province  `json:"province"`
	HolidayDate generic.TimePoint `json:"holiday_date"`
	HolidayName string            `json:"holiday_name"`
	Computed    int               `json:"computed"`
	Skipped     int               `json:"skipped"`
	Failed      int               `json:"failed"`
	TotalPay    decimal.Decimal   `json:"total_pay"`
	Items       []PayrollItemDTO  `json:"items"`
}

type SchedulerStatusDTO struct {
	Enabled     bool       `json:"enabled"`
	Running     bool       `json:"running"`
	Interval    string     `json:"interval"`
	SettleDays  int        `json:"settle_days"`
	HorizonDays int        `json:"horizon_days"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// =============================================================================
// LEAVE
// =============================================================================

// LeaveEntitlementRequest asks for a stored employee's leave entitlement.
type LeaveEntitlementRequest struct {
	LeaveType      jurisdiction.LeaveType `json:"leave_type"`
	StartDate      generic.TimePoint      `json:"start_date"`
	AsOfConfigDate *generic.TimePoint     `json:"as_of_config_date,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Province    generic.Province `json:"province"`
	Expected    string           `json:"expected"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
