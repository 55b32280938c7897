package holidaypay

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// LOOKBACK WINDOW
// =============================================================================

// Window is the lookback period a formula sums over.
//
// Nominal is the window the rule set asks for. Period is what is actually
// used: the same window with its start moved to the hire date when the
// employee was hired partway through.
type Window struct {
	Nominal generic.Period `json:"nominal"`
	Period  generic.Period `json:"period"`
	Clamped bool           `json:"clamped"`
}

// LookbackWindow computes the window for a formula. The window always ends
// before the holiday; where exactly depends on the rule set's anchor.
func LookbackWindow(rs jurisdiction.RuleSet, formula jurisdiction.FormulaType, emp Employee,
	holiday generic.TimePoint, payPeriodEnd *generic.TimePoint) (Window, error) {

	var end generic.TimePoint
	switch rs.Params.Anchor() {
	case jurisdiction.AnchorHoliday:
		end = holiday.AddDays(-1)
	case jurisdiction.AnchorWorkWeek:
		end = holiday.StartOfWeek().AddDays(-1)
	case jurisdiction.AnchorPayPeriodEnd:
		if payPeriodEnd == nil {
			return Window{}, generic.Invalid("pay_period_end",
				"rule set %s anchors the window on the pay period end, none was given", rs.ID)
		}
		end = *payPeriodEnd
	default:
		return Window{}, generic.Invalid("formula_params.window_anchor", "unknown anchor %q", rs.Params.WindowAnchor)
	}

	nominal := generic.WindowBefore(end, rs.Params.Lookback(formula))
	period, clamped := nominal.ClampStart(emp.HireDate)
	return Window{Nominal: nominal, Period: period, Clamped: clamped}, nil
}

// incompleteHistory describes a clamped window.
func (w Window) incompleteHistory(hire generic.TimePoint) Warning {
	return Warning{
		Code: WarningIncompleteHistory,
		Message: fmt.Sprintf("hired %s; window %s shortened to %s (%d of %d days), pay pro-rated on available records",
			hire, w.Nominal, w.Period, w.Period.Len(), w.Nominal.Len()),
	}
}

// =============================================================================
// WINDOW SUMMARY
// =============================================================================

// windowSummary is the work history restricted to a window.
type windowSummary struct {
	Records       []WorkRecord
	DaysWorked    int
	TotalHours    decimal.Decimal
	TotalEarnings decimal.Decimal
}

// summarize sums records inside period. Earnings on days without hours
// (vacation pay, adjustments) count toward earnings but not days worked.
func summarize(records []WorkRecord, period generic.Period) windowSummary {
	s := windowSummary{TotalHours: decimal.Zero, TotalEarnings: decimal.Zero}
	for _, r := range records {
		if !period.Contains(r.Date) {
			continue
		}
		s.Records = append(s.Records, r)
		s.TotalHours = s.TotalHours.Add(r.HoursWorked)
		s.TotalEarnings = s.TotalEarnings.Add(r.Earnings)
		if r.Worked() {
			s.DaysWorked++
		}
	}
	return s
}

// recordIndex looks records up by calendar date.
type recordIndex map[string]WorkRecord

func indexRecords(records []WorkRecord) recordIndex {
	idx := make(recordIndex, len(records))
	for _, r := range records {
		idx[r.Date.String()] = r
	}
	return idx
}

func (idx recordIndex) on(date generic.TimePoint) (WorkRecord, bool) {
	r, ok := idx[date.String()]
	return r, ok
}

func (idx recordIndex) workedOn(date generic.TimePoint) bool {
	r, ok := idx[date.String()]
	return ok && r.Worked()
}
