/*
formula.go - Formula dispatch table

PURPOSE:
  Each jurisdiction.FormulaType maps to one pure function that turns the work
  history inside a lookback window into an (unrounded) base pay amount.
  PayCalculator looks formulas up here; it never switches on a province.

HOW IT WORKS:
  1. The formulas table maps each implemented type to its function; it is
     a map literal and never written after package initialization
  2. Calculator resolves the rule set, picks its FormulaType, calls Lookup
  3. Documented-but-unimplemented types have no entry, so they fail
     with generic.NotImplementedError instead of defaulting to something else

ADDING A FORMULA:
  Add a FormulaType constant in jurisdiction/ruleset.go and an entry in the
  formulas table below.

ROUNDING:
  Formulas return full-precision decimals. Rounding to the cent happens once,
  in the calculator, on BasePay and PremiumPay.

SEE ALSO:
  - jurisdiction/ruleset.go: FormulaType, FormulaParams
  - calculator.go: where the dispatch happens
*/
package holidaypay

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// FORMULA CONTRACT
// =============================================================================

// FormulaInput is the work history restricted to the lookback window plus
// the rule set's parameters.
type FormulaInput struct {
	Employee      Employee
	Params        jurisdiction.FormulaParams
	Window        generic.Period
	Records       []WorkRecord
	DaysWorked    int
	TotalHours    decimal.Decimal
	TotalEarnings decimal.Decimal
}

// FormulaResult is a formula's unrounded output and its working.
type FormulaResult struct {
	BasePay               decimal.Decimal
	PeriodStart           generic.TimePoint
	PeriodEnd             generic.TimePoint
	DaysWorkedInPeriod    int
	TotalEarningsInPeriod decimal.Decimal

	// Divisor is set by averaging formulas; Rate by percentage formulas.
	Divisor *decimal.Decimal
	Rate    *decimal.Decimal
	Steps   []string
}

type Formula struct {
	Type        jurisdiction.FormulaType
	Description string
	Compute     func(in FormulaInput) FormulaResult
}

// =============================================================================
// FORMULA TABLE
// =============================================================================

// formulas is fixed at compile time. Adding a formula type means adding an
// entry here and a FormulaType constant in jurisdiction.
var formulas = map[jurisdiction.FormulaType]Formula{
	jurisdiction.FormulaFourWeekAverageDaily: {
		Type:        jurisdiction.FormulaFourWeekAverageDaily,
		Description: "earnings in the 4 weeks before the holiday divided by the days worked",
		Compute:     averageDaily,
	},
	jurisdiction.FormulaThirtyDayAverage: {
		Type:        jurisdiction.FormulaThirtyDayAverage,
		Description: "earnings in the 30 days before the holiday divided by the configured divisor",
		Compute:     averageDaily,
	},
	jurisdiction.FormulaPercentOf28Days: {
		Type:        jurisdiction.FormulaPercentOf28Days,
		Description: "a percentage of wages earned in the 28 days before the holiday",
		Compute:     percentOfEarnings,
	},
	jurisdiction.FormulaFlatRegularDay: {
		Type:        jurisdiction.FormulaFlatRegularDay,
		Description: "one regular day's pay",
		Compute:     flatRegularDay,
	},
}

// LookupFormula finds the formula for a type.
func LookupFormula(t jurisdiction.FormulaType) (Formula, bool) {
	f, ok := formulas[t]
	return f, ok
}

// Formulas lists the built-in formulas sorted by type.
func Formulas() []Formula {
	out := make([]Formula, 0, len(formulas))
	for _, f := range formulas {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// =============================================================================
// BUILT-IN FORMULAS
// =============================================================================

func baseResult(in FormulaInput) FormulaResult {
	return FormulaResult{
		PeriodStart:           in.Window.Start,
		PeriodEnd:             in.Window.End,
		DaysWorkedInPeriod:    in.DaysWorked,
		TotalEarningsInPeriod: in.TotalEarnings,
	}
}

// averageDaily backs both averaging formulas; they differ only in window
// length and divisor policy, which come from the parameters.
func averageDaily(in FormulaInput) FormulaResult {
	out := baseResult(in)

	var divisor decimal.Decimal
	var basis string
	switch in.Params.Divisor() {
	case jurisdiction.DivisorCalendarDays:
		divisor = decimal.NewFromInt(int64(in.Window.Len()))
		basis = "calendar days in window"
	case jurisdiction.DivisorFixed:
		divisor = decimal.NewFromInt(int64(in.Params.FixedDivisor))
		basis = "fixed divisor"
	default:
		divisor = decimal.NewFromInt(int64(in.DaysWorked))
		basis = "days worked in window"
	}
	out.Divisor = &divisor

	out.Steps = append(out.Steps,
		fmt.Sprintf("earnings in %s = %s", in.Window, in.TotalEarnings),
		fmt.Sprintf("divisor (%s) = %s", basis, divisor))

	if divisor.IsZero() {
		out.BasePay = decimal.Zero
		out.Steps = append(out.Steps, "divisor is 0; base pay is 0")
		return out
	}
	out.BasePay = in.TotalEarnings.Div(divisor)
	out.Steps = append(out.Steps, fmt.Sprintf("base pay = %s / %s = %s",
		in.TotalEarnings, divisor, out.BasePay))
	return out
}

// percentOfEarnings pays a percentage of window earnings; construction
// employees use the construction percentage when the rule set has one.
func percentOfEarnings(in FormulaInput) FormulaResult {
	out := baseResult(in)

	rate := in.Params.Percentage
	label := "percentage"
	if in.Employee.Construction && in.Params.ConstructionPercentage != nil {
		rate = *in.Params.ConstructionPercentage
		label = "construction percentage"
	}
	out.Rate = &rate
	out.BasePay = rate.Mul(in.TotalEarnings)
	out.Steps = append(out.Steps,
		fmt.Sprintf("earnings in %s = %s", in.Window, in.TotalEarnings),
		fmt.Sprintf("base pay = %s %s x %s = %s", label, rate, in.TotalEarnings, out.BasePay))
	return out
}

// flatRegularDay ignores recent earnings and pays one standard day.
func flatRegularDay(in FormulaInput) FormulaResult {
	out := baseResult(in)
	emp := in.Employee
	out.BasePay = emp.RegularDayPay()

	if emp.EmploymentType == EmploymentSalary {
		out.Steps = append(out.Steps, fmt.Sprintf("base pay = annual salary %s / (52 x %d scheduled days) = %s",
			emp.AnnualSalary, len(emp.Schedule()), out.BasePay))
	} else {
		out.Steps = append(out.Steps, fmt.Sprintf("base pay = %s hours x %s/h = %s",
			emp.DailyHours(), emp.HourlyRate, out.BasePay))
	}
	return out
}
