package holidaypay

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// PAY CALCULATOR
// =============================================================================

// Calculator orchestrates one holiday pay computation. It holds only the
// resolver, which is immutable, so one Calculator serves concurrent calls.
type Calculator struct {
	resolver jurisdiction.Resolver
}

func NewCalculator(resolver jurisdiction.Resolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// ComputeHolidayPay decides eligibility and computes the amount owed.
//
// The rule set used is the one in force on the holiday date, unless the
// request sets AsOfConfigDate or UseLatestConfig. Validation, config and
// not-implemented failures return an error and no result. Incomplete work
// history returns a result with a warning.
func (c *Calculator) ComputeHolidayPay(req ComputeRequest) (*HolidayPayResult, error) {
	req = normalize(req)
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	emp, holiday := req.Employee, req.Holiday

	rs, warnings, err := c.resolve(req)
	if err != nil {
		return nil, err
	}
	version, err := rs.Version()
	if err != nil {
		return nil, err
	}

	formulaType := rs.FormulaFor(holiday.Name, emp.Commissioned)
	formula, ok := LookupFormula(formulaType)
	if !ok {
		detail := formulaType.UnimplementedDetail()
		if detail == "" {
			detail = "no formula for this type"
		}
		return nil, &generic.NotImplementedError{Rule: string(formulaType), Province: rs.Province, Detail: detail}
	}

	window, err := LookbackWindow(rs, formulaType, emp, holiday.Date, req.PayPeriodEnd)
	if err != nil {
		return nil, err
	}
	if window.Clamped {
		warnings = append(warnings, window.incompleteHistory(emp.HireDate))
	}
	summary := summarize(req.WorkRecords, window.Period)

	eligibility := EvaluateEligibility(EligibilityInput{
		Employee: emp,
		Records:  req.WorkRecords,
		Holiday:  holiday,
		RuleSet:  rs,
		Window:   window.Period,
	})

	audit := newAuditTrail(version, formula, window, summary)
	result := &HolidayPayResult{
		EmployeeID:            emp.ID,
		HolidayDate:           holiday.Date,
		HolidayName:           holiday.Name,
		ProvinceCode:          holiday.Province,
		BasePay:               decimal.Zero,
		PremiumPay:            decimal.Zero,
		FormulaUsed:           formulaType,
		PeriodStart:           window.Period.Start,
		PeriodEnd:             window.Period.End,
		DaysWorkedInPeriod:    summary.DaysWorked,
		TotalEarningsInPeriod: summary.TotalEarnings,
		HoursWorkedOnHoliday:  decimal.Zero,
		ConfigVersionUsed:     version,
		Eligibility:           eligibility,
	}

	if eligibility.Eligible {
		fr := formula.Compute(FormulaInput{
			Employee:      emp,
			Params:        rs.Params,
			Window:        window.Period,
			Records:       summary.Records,
			DaysWorked:    summary.DaysWorked,
			TotalHours:    summary.TotalHours,
			TotalEarnings: summary.TotalEarnings,
		})
		result.BasePay = generic.RoundMoney(fr.BasePay)
		audit.FormulaApplied = true
		audit.Divisor = fr.Divisor
		audit.Rate = fr.Rate
		audit.Steps = append(audit.Steps, fr.Steps...)
		audit.Steps = append(audit.Steps, fmt.Sprintf("base pay rounded to %s", generic.FormatMoney(result.BasePay)))
	} else {
		failed, _ := eligibility.Failed()
		audit.Steps = append(audit.Steps, fmt.Sprintf("not eligible (%s); base pay is 0", failed.Rule))
	}

	if rec, ok := indexRecords(req.WorkRecords).on(holiday.Date); ok && rec.Worked() {
		result.HoursWorkedOnHoliday = rec.HoursWorked
		if eligibility.Eligible || rs.Eligibility.PremiumWhenIneligible {
			rate := emp.EffectiveHourlyRate()
			premium := rec.HoursWorked.Mul(rate).Mul(rs.PremiumRate)
			result.PremiumPay = generic.RoundMoney(premium)
			audit.Steps = append(audit.Steps, fmt.Sprintf("premium pay = %s hours x %s/h x %s = %s",
				rec.HoursWorked, rate, rs.PremiumRate, generic.FormatMoney(result.PremiumPay)))
		} else {
			audit.Steps = append(audit.Steps, fmt.Sprintf("worked %s hours on the holiday; no premium while ineligible",
				rec.HoursWorked))
		}
	}

	result.TotalPay = result.BasePay.Add(result.PremiumPay)
	audit.Steps = append(audit.Steps, fmt.Sprintf("total pay = %s + %s = %s",
		generic.FormatMoney(result.BasePay), generic.FormatMoney(result.PremiumPay), generic.FormatMoney(result.TotalPay)))

	audit.Reasons = eligibility.Reasons
	audit.Warnings = warnings
	result.Warnings = warnings
	result.Audit = audit

	fp, err := Fingerprint(*result)
	if err != nil {
		return nil, fmt.Errorf("fingerprint result: %w", err)
	}
	result.Fingerprint = fp
	return result, nil
}

// resolve picks the rule set: in force on the holiday by default, on
// AsOfConfigDate when given, or the newest when UseLatestConfig is set.
func (c *Calculator) resolve(req ComputeRequest) (jurisdiction.RuleSet, []Warning, error) {
	province := req.Holiday.Province
	switch {
	case req.UseLatestConfig:
		rs, err := c.resolver.ResolveLatest(province)
		if err != nil {
			return jurisdiction.RuleSet{}, nil, err
		}
		var warnings []Warning
		if !rs.InEffect(req.Holiday.Date) {
			warnings = append(warnings, Warning{
				Code:    WarningLatestConfig,
				Message: fmt.Sprintf("computed with the latest rule set %s, not the one in force on %s", rs.ID, req.Holiday.Date),
			})
		}
		return rs, warnings, nil
	case req.AsOfConfigDate != nil:
		rs, err := c.resolver.Resolve(province, *req.AsOfConfigDate)
		if err != nil {
			return jurisdiction.RuleSet{}, nil, err
		}
		var warnings []Warning
		if !rs.InEffect(req.Holiday.Date) {
			warnings = append(warnings, Warning{
				Code:    WarningAsOfConfig,
				Message: fmt.Sprintf("computed with rule set %s in force on %s, not on the holiday %s", rs.ID, req.AsOfConfigDate, req.Holiday.Date),
			})
		}
		return rs, warnings, nil
	default:
		rs, err := c.resolver.Resolve(province, req.Holiday.Date)
		return rs, nil, err
	}
}
