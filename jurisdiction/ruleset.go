/*
Package jurisdiction holds the versioned, effective-dated rule table that drives
holiday pay and leave entitlement.

PURPOSE:
  Legislation is data. Each province/territory is described by one or more
  RuleSet rows, each valid on [EffectiveFrom, EffectiveTo). The engine never
  branches on a province code; it reads the row in force on the holiday and
  dispatches on FormulaType.

KEY CONCEPTS IN THIS FILE (ruleset.go):
  - RuleSet: One effective-dated row (formula, parameters, eligibility, premium)
  - FormulaType: Tag selecting a pure formula in holidaypay
  - FormulaParams: Lookback window, divisor, percentages, Alberta 5-of-9 pattern
  - EligibilityRules: Tenure, last/first day, regular workday thresholds
  - LeaveRule: Per-leave-type entitlement thresholds
  - ConfigVersion: The provenance stamp copied into every result

IMMUTABILITY:
  Rows are never edited. Closing an open row is done by appending a new
  Revision of it with EffectiveTo set (see registry.go). Readers only see the
  highest revision of each ID, while every revision stays in the store.

SEE ALSO:
  - table.go: Resolve / ResolveLatest
  - registry.go: Publish / Supersede
  - holidays.go: statutory holiday calendar
*/
package jurisdiction

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
)

// =============================================================================
// FORMULA TYPES
// =============================================================================

// FormulaType tags the pay formula a rule set uses.
type FormulaType string

const (
	FormulaFourWeekAverageDaily FormulaType = "four_week_average_daily"
	FormulaPercentOf28Days      FormulaType = "percent_of_28_days"
	FormulaThirtyDayAverage     FormulaType = "thirty_day_average"
	FormulaFlatRegularDay       FormulaType = "flat_regular_day"

	// Documented in legislation but without an agreed formula. Selecting one
	// of these fails with generic.NotImplementedError.
	FormulaNSRemembranceDayActualWork FormulaType = "ns_remembrance_day_actual_work"
	FormulaYukonDual                  FormulaType = "yukon_dual"
	FormulaFederalCommission160       FormulaType = "federal_commission_1_60"
)

var implementedFormulas = map[FormulaType]bool{
	FormulaFourWeekAverageDaily: true,
	FormulaPercentOf28Days:      true,
	FormulaThirtyDayAverage:     true,
	FormulaFlatRegularDay:       true,
}

var unimplementedFormulas = map[FormulaType]string{
	FormulaNSRemembranceDayActualWork: "Nova Scotia Remembrance Day pay depends on actual work on the day",
	FormulaYukonDual:                  "Yukon uses different formulas for regular and irregular hours",
	FormulaFederalCommission160:       "federal commissioned employees earn 1/60 of 12 weeks' wages",
}

// IsImplemented reports whether the type has a formula.
func (f FormulaType) IsImplemented() bool { return implementedFormulas[f] }

// IsKnown reports whether the type is implemented or documented-unimplemented.
func (f FormulaType) IsKnown() bool {
	_, documented := unimplementedFormulas[f]
	return implementedFormulas[f] || documented
}

// UnimplementedDetail explains why a documented type has no formula.
func (f FormulaType) UnimplementedDetail() string { return unimplementedFormulas[f] }

// DefaultLookbackDays is the window length used when a rule set leaves
// LookbackDays at zero.
func (f FormulaType) DefaultLookbackDays() int {
	switch f {
	case FormulaThirtyDayAverage:
		return 30
	default:
		return 28
	}
}

// =============================================================================
// FORMULA PARAMETERS
// =============================================================================

// DivisorPolicy decides what the window's earnings are divided by.
type DivisorPolicy string

const (
	DivisorDaysWorked   DivisorPolicy = "days_worked"
	DivisorCalendarDays DivisorPolicy = "calendar_days"
	DivisorFixed        DivisorPolicy = "fixed"
)

// WindowAnchor decides where the lookback window ends.
type WindowAnchor string

const (
	// AnchorHoliday ends the window on the day before the holiday.
	AnchorHoliday WindowAnchor = "holiday"
	// AnchorPayPeriodEnd ends the window on the last completed pay period.
	AnchorPayPeriodEnd WindowAnchor = "pay_period_end"
	// AnchorWorkWeek ends the window on the Saturday before the holiday's week.
	AnchorWorkWeek WindowAnchor = "work_week"
)

// FormulaParams is the flat parameter struct shared by every formula.
// Zero values mean "use the formula's default".
type FormulaParams struct {
	LookbackDays           int              `json:"lookback_days,omitempty"`
	Percentage             decimal.Decimal  `json:"percentage"`
	DivisorPolicy          DivisorPolicy    `json:"divisor_policy,omitempty"`
	FixedDivisor           int              `json:"fixed_divisor,omitempty"`
	WindowAnchor           WindowAnchor     `json:"window_anchor,omitempty"`
	ConstructionPercentage *decimal.Decimal `json:"construction_percentage,omitempty"`

	// Alberta "worked the holiday's weekday in at least N of the last M weeks".
	PatternWeeks     int `json:"alberta_5of9_weeks,omitempty"`
	PatternThreshold int `json:"alberta_5of9_threshold,omitempty"`
}

// Lookback returns the configured window length or the formula default.
func (p FormulaParams) Lookback(f FormulaType) int {
	if p.LookbackDays > 0 {
		return p.LookbackDays
	}
	return f.DefaultLookbackDays()
}

// Divisor returns the configured divisor policy, days worked by default.
func (p FormulaParams) Divisor() DivisorPolicy {
	if p.DivisorPolicy == "" {
		return DivisorDaysWorked
	}
	return p.DivisorPolicy
}

// Anchor returns the configured window anchor, the holiday by default.
func (p FormulaParams) Anchor() WindowAnchor {
	if p.WindowAnchor == "" {
		return AnchorHoliday
	}
	return p.WindowAnchor
}

// =============================================================================
// ELIGIBILITY
// =============================================================================

type EligibilityRules struct {
	MinEmploymentDays     int  `json:"min_employment_days"`
	RequireLastFirstRule  bool `json:"require_last_first_rule"`
	RequireRegularWorkday bool `json:"require_regular_workday"`
	MinDaysWorkedInPeriod *int `json:"min_days_worked_in_period,omitempty"`

	// PremiumWhenIneligible pays premium for hours worked on the holiday even
	// when base holiday pay is denied (Alberta's non-regular workday case).
	PremiumWhenIneligible bool `json:"premium_when_ineligible,omitempty"`
}

// HolidayOverride swaps the formula for one named holiday.
type HolidayOverride struct {
	Holiday     string      `json:"holiday"`
	FormulaType FormulaType `json:"formula_type"`
}

// =============================================================================
// LEAVE RULES
// =============================================================================

// LeaveType identifies a job-protected leave.
type LeaveType string

const (
	LeaveSick                 LeaveType = "sick"
	LeaveBereavement          LeaveType = "bereavement"
	LeaveFamilyResponsibility LeaveType = "family_responsibility"
	LeaveCompassionateCare    LeaveType = "compassionate_care"
	LeaveMaternity            LeaveType = "maternity"
	LeaveParental             LeaveType = "parental"
	LeaveDomesticViolence     LeaveType = "domestic_violence"
	LeaveJuryDuty             LeaveType = "jury_duty"
	LeaveVacation             LeaveType = "vacation"
)

// LeaveTypes lists every leave type a rule set may define.
var LeaveTypes = []LeaveType{
	LeaveSick, LeaveBereavement, LeaveFamilyResponsibility, LeaveCompassionateCare,
	LeaveMaternity, LeaveParental, LeaveDomesticViolence, LeaveJuryDuty, LeaveVacation,
}

func (t LeaveType) IsKnown() bool {
	for _, known := range LeaveTypes {
		if t == known {
			return true
		}
	}
	return false
}

// LeaveRule is the entitlement for one leave type. EntitledDays is per
// calendar year for short leaves and per event for long ones; the engine
// does not distinguish, it reports what the row says.
type LeaveRule struct {
	Type              LeaveType       `json:"type"`
	MinEmploymentDays int             `json:"min_employment_days"`
	EntitledDays      decimal.Decimal `json:"entitled_days"`
	PaidDays          decimal.Decimal `json:"paid_days"`
	// PaidAfterDays is the tenure needed before PaidDays apply; before that
	// the leave is unpaid but still protected.
	PaidAfterDays int `json:"paid_after_days,omitempty"`
}

// =============================================================================
// RULE SET
// =============================================================================

// RuleSet is one effective-dated row of the jurisdiction table.
type RuleSet struct {
	ID            string             `json:"id"`
	Revision      int                `json:"revision"`
	Province      generic.Province   `json:"province"`
	EffectiveFrom generic.TimePoint  `json:"effective_from"`
	EffectiveTo   *generic.TimePoint `json:"effective_to,omitempty"`
	FormulaType   FormulaType        `json:"formula_type"`
	Params        FormulaParams      `json:"formula_params"`
	Eligibility   EligibilityRules   `json:"eligibility"`
	PremiumRate   decimal.Decimal    `json:"premium_rate"`

	HolidayOverrides  []HolidayOverride `json:"holiday_overrides,omitempty"`
	CommissionFormula FormulaType       `json:"commission_formula,omitempty"`
	Leaves            []LeaveRule       `json:"leaves,omitempty"`

	SourceURL    string            `json:"source_url"`
	LastVerified generic.TimePoint `json:"last_verified"`
	Notes        string            `json:"notes,omitempty"`
}

// InEffect reports whether the row applies on date: From <= date < To.
func (rs RuleSet) InEffect(date generic.TimePoint) bool {
	if date.Before(rs.EffectiveFrom) {
		return false
	}
	return rs.EffectiveTo == nil || date.Before(*rs.EffectiveTo)
}

// Overlaps reports whether two rows' effective ranges intersect.
func (rs RuleSet) Overlaps(other RuleSet) bool {
	startsBeforeOtherEnds := other.EffectiveTo == nil || rs.EffectiveFrom.Before(*other.EffectiveTo)
	otherStartsBeforeEnd := rs.EffectiveTo == nil || other.EffectiveFrom.Before(*rs.EffectiveTo)
	return startsBeforeOtherEnds && otherStartsBeforeEnd
}

// IsOpen reports whether the row has no end date.
func (rs RuleSet) IsOpen() bool { return rs.EffectiveTo == nil }

// FormulaFor picks the formula for a holiday: a named override first, then
// the commission formula for commissioned employees, then the default.
func (rs RuleSet) FormulaFor(holidayName string, commissioned bool) FormulaType {
	for _, o := range rs.HolidayOverrides {
		if strings.EqualFold(strings.TrimSpace(o.Holiday), strings.TrimSpace(holidayName)) {
			return o.FormulaType
		}
	}
	if commissioned && rs.CommissionFormula != "" {
		return rs.CommissionFormula
	}
	return rs.FormulaType
}

// Leave returns the rule for a leave type.
func (rs RuleSet) Leave(t LeaveType) (LeaveRule, bool) {
	for _, l := range rs.Leaves {
		if l.Type == t {
			return l, true
		}
	}
	return LeaveRule{}, false
}

// String labels a stored row with its revision and range.
func (rs RuleSet) String() string {
	to := "open"
	if rs.EffectiveTo != nil {
		to = rs.EffectiveTo.String()
	}
	return fmt.Sprintf("%s@r%d [%s, %s)", rs.ID, rs.Revision, rs.EffectiveFrom, to)
}

// ruleContent is everything in a row that decides amounts and entitlements.
type ruleContent struct {
	FormulaType       FormulaType       `json:"formula_type"`
	Params            FormulaParams     `json:"formula_params"`
	Eligibility       EligibilityRules  `json:"eligibility"`
	PremiumRate       decimal.Decimal   `json:"premium_rate"`
	HolidayOverrides  []HolidayOverride `json:"holiday_overrides,omitempty"`
	CommissionFormula FormulaType       `json:"commission_formula,omitempty"`
	Leaves            []LeaveRule       `json:"leaves,omitempty"`
}

// ContentDigest hashes the row's rules. Revision, end date and provenance
// are left out, so closing a row keeps its digest.
func (rs RuleSet) ContentDigest() (string, error) {
	return generic.Digest(ruleContent{
		FormulaType:       rs.FormulaType,
		Params:            rs.Params,
		Eligibility:       rs.Eligibility,
		PremiumRate:       rs.PremiumRate,
		HolidayOverrides:  rs.HolidayOverrides,
		CommissionFormula: rs.CommissionFormula,
		Leaves:            rs.Leaves,
	})
}

// Version is the provenance stamp recorded on results. It stays the same
// when a later rule set closes this row.
func (rs RuleSet) Version() (ConfigVersion, error) {
	digest, err := rs.ContentDigest()
	if err != nil {
		return ConfigVersion{}, fmt.Errorf("rule set %s: %w", rs.ID, err)
	}
	return ConfigVersion{
		ID:            rs.ID,
		Province:      rs.Province,
		EffectiveFrom: rs.EffectiveFrom,
		RuleDigest:    digest,
		SourceURL:     rs.SourceURL,
		LastVerified:  rs.LastVerified,
	}, nil
}

// Close returns the next revision of rs ending on `to`.
func (rs RuleSet) Close(to generic.TimePoint) RuleSet {
	closed := rs
	closed.Revision = rs.Revision + 1
	closed.EffectiveTo = &to
	return closed
}

// ConfigVersion identifies the rules behind a result: the row that started
// on EffectiveFrom, with RuleDigest pinning its content.
type ConfigVersion struct {
	ID            string            `json:"id"`
	Province      generic.Province  `json:"province"`
	EffectiveFrom generic.TimePoint `json:"effective_from"`
	RuleDigest    string            `json:"rule_digest"`
	SourceURL     string            `json:"source_url"`
	LastVerified  generic.TimePoint `json:"last_verified"`
}

func (v ConfigVersion) String() string {
	digest := v.RuleDigest
	if len(digest) > 12 {
		digest = digest[:12]
	}
	return fmt.Sprintf("%s from %s (rules %s)", v.ID, v.EffectiveFrom, digest)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks a row before it is published.
func (rs RuleSet) Validate() error {
	if strings.TrimSpace(rs.ID) == "" {
		return generic.Invalid("id", "rule set id is required")
	}
	if rs.Revision < 1 {
		return generic.Invalid("revision", "%s: revision must be >= 1", rs.ID)
	}
	if _, err := generic.ParseProvince(string(rs.Province)); err != nil {
		return err
	}
	if rs.EffectiveFrom.IsZero() {
		return generic.Invalid("effective_from", "%s: effective_from is required", rs.ID)
	}
	if rs.EffectiveTo != nil && !rs.EffectiveTo.After(rs.EffectiveFrom) {
		return generic.Invalid("effective_to", "%s: effective_to %s must be after effective_from %s",
			rs.ID, rs.EffectiveTo, rs.EffectiveFrom)
	}
	if !rs.FormulaType.IsKnown() {
		return generic.Invalid("formula_type", "%s: unknown formula type %q", rs.ID, rs.FormulaType)
	}
	if rs.PremiumRate.IsNegative() {
		return generic.Invalid("premium_rate", "%s: premium rate must not be negative", rs.ID)
	}
	if err := rs.validateParams(); err != nil {
		return err
	}
	if err := rs.validateEligibility(); err != nil {
		return err
	}
	for _, o := range rs.HolidayOverrides {
		if strings.TrimSpace(o.Holiday) == "" {
			return generic.Invalid("holiday_overrides", "%s: override holiday name is required", rs.ID)
		}
		if !o.FormulaType.IsKnown() {
			return generic.Invalid("holiday_overrides", "%s: unknown formula type %q", rs.ID, o.FormulaType)
		}
	}
	if rs.CommissionFormula != "" && !rs.CommissionFormula.IsKnown() {
		return generic.Invalid("commission_formula", "%s: unknown formula type %q", rs.ID, rs.CommissionFormula)
	}
	return rs.validateLeaves()
}

func (rs RuleSet) validateParams() error {
	p := rs.Params
	if p.LookbackDays < 0 {
		return generic.Invalid("formula_params.lookback_days", "%s: must not be negative", rs.ID)
	}
	switch p.Divisor() {
	case DivisorDaysWorked, DivisorCalendarDays:
	case DivisorFixed:
		if p.FixedDivisor <= 0 {
			return generic.Invalid("formula_params.fixed_divisor", "%s: fixed divisor policy needs a positive divisor", rs.ID)
		}
	default:
		return generic.Invalid("formula_params.divisor_policy", "%s: unknown divisor policy %q", rs.ID, p.DivisorPolicy)
	}
	switch p.Anchor() {
	case AnchorHoliday, AnchorPayPeriodEnd, AnchorWorkWeek:
	default:
		return generic.Invalid("formula_params.window_anchor", "%s: unknown window anchor %q", rs.ID, p.WindowAnchor)
	}
	one := decimal.NewFromInt(1)
	if rs.FormulaType == FormulaPercentOf28Days && (!p.Percentage.IsPositive() || p.Percentage.GreaterThan(one)) {
		return generic.Invalid("formula_params.percentage", "%s: percentage must be in (0, 1]", rs.ID)
	}
	if p.ConstructionPercentage != nil && (!p.ConstructionPercentage.IsPositive() || p.ConstructionPercentage.GreaterThan(one)) {
		return generic.Invalid("formula_params.construction_percentage", "%s: must be in (0, 1]", rs.ID)
	}
	if p.PatternWeeks < 0 || p.PatternThreshold < 0 {
		return generic.Invalid("formula_params.alberta_5of9", "%s: pattern values must not be negative", rs.ID)
	}
	if p.PatternWeeks > 0 && (p.PatternThreshold < 1 || p.PatternThreshold > p.PatternWeeks) {
		return generic.Invalid("formula_params.alberta_5of9_threshold", "%s: threshold must be between 1 and %d",
			rs.ID, p.PatternWeeks)
	}
	if p.PatternWeeks == 0 && p.PatternThreshold > 0 {
		return generic.Invalid("formula_params.alberta_5of9_weeks", "%s: threshold set without weeks", rs.ID)
	}
	return nil
}

func (rs RuleSet) validateEligibility() error {
	e := rs.Eligibility
	if e.MinEmploymentDays < 0 {
		return generic.Invalid("eligibility.min_employment_days", "%s: must not be negative", rs.ID)
	}
	if e.MinDaysWorkedInPeriod != nil && *e.MinDaysWorkedInPeriod < 0 {
		return generic.Invalid("eligibility.min_days_worked_in_period", "%s: must not be negative", rs.ID)
	}
	return nil
}

func (rs RuleSet) validateLeaves() error {
	seen := make(map[LeaveType]bool, len(rs.Leaves))
	for _, l := range rs.Leaves {
		field := "leaves." + string(l.Type)
		if l.Type == "" {
			return generic.Invalid("leaves", "%s: leave type is required", rs.ID)
		}
		if seen[l.Type] {
			return generic.Invalid(field, "%s: duplicate leave type", rs.ID)
		}
		seen[l.Type] = true
		if l.MinEmploymentDays < 0 || l.PaidAfterDays < 0 {
			return generic.Invalid(field, "%s: tenure thresholds must not be negative", rs.ID)
		}
		if l.EntitledDays.IsNegative() || l.PaidDays.IsNegative() {
			return generic.Invalid(field, "%s: day counts must not be negative", rs.ID)
		}
		if l.PaidDays.GreaterThan(l.EntitledDays) {
			return generic.Invalid(field, "%s: paid days exceed entitled days", rs.ID)
		}
	}
	return nil
}
