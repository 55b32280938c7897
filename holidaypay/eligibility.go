package holidaypay

import (
	"fmt"
	"strings"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// ELIGIBILITY EVALUATOR
// =============================================================================

// scheduledDaySearchLimit bounds the search for the last/first scheduled day.
const scheduledDaySearchLimit = 14

// EligibilityInput is everything the qualifying checks look at.
type EligibilityInput struct {
	Employee Employee
	Records  []WorkRecord
	Holiday  jurisdiction.Holiday
	RuleSet  jurisdiction.RuleSet
	Window   generic.Period
}

type check struct {
	rule     string
	required bool
	eval     func(in EligibilityInput, idx recordIndex) (bool, string)
}

// EvaluateEligibility runs the checks in order. Checks the rule set does not
// require, and required checks after the first failure, are recorded as
// skipped, so the reasons list always names every check.
func EvaluateEligibility(in EligibilityInput) EligibilityResult {
	rules := in.RuleSet.Eligibility
	checks := []check{
		{rule: RuleMinimumTenure, required: true, eval: checkTenure},
		{rule: RuleLastFirstScheduledDay, required: rules.RequireLastFirstRule, eval: checkLastFirst},
		{rule: RuleRegularWorkday, required: rules.RequireRegularWorkday, eval: checkRegularWorkday},
		{rule: RuleMinDaysWorked, required: rules.MinDaysWorkedInPeriod != nil, eval: checkMinDaysWorked},
	}

	idx := indexRecords(in.Records)
	result := EligibilityResult{Eligible: true, Reasons: make([]Reason, 0, len(checks))}
	for _, c := range checks {
		switch {
		case !c.required:
			result.Reasons = append(result.Reasons, Reason{Rule: c.rule, Skipped: true,
				Detail: fmt.Sprintf("not required by %s", in.RuleSet.ID)})
		case !result.Eligible:
			result.Reasons = append(result.Reasons, Reason{Rule: c.rule, Skipped: true,
				Detail: "not evaluated: an earlier check failed"})
		default:
			passed, detail := c.eval(in, idx)
			result.Reasons = append(result.Reasons, Reason{Rule: c.rule, Passed: passed, Detail: detail})
			if !passed {
				result.Eligible = false
			}
		}
	}
	return result
}

// checkTenure: days from hire to holiday >= MinEmploymentDays.
func checkTenure(in EligibilityInput, _ recordIndex) (bool, string) {
	minimum := in.RuleSet.Eligibility.MinEmploymentDays
	days := generic.DaysBetween(in.Employee.HireDate, in.Holiday.Date)
	if minimum == 0 {
		return true, fmt.Sprintf("employed %d days; no minimum", days)
	}
	return days >= minimum, fmt.Sprintf("employed %d days; minimum %d", days, minimum)
}

// checkLastFirst: the scheduled days immediately before and after the
// holiday must show work or an authorized absence.
func checkLastFirst(in EligibilityInput, idx recordIndex) (bool, string) {
	before, okBefore := nearestScheduledDay(in, -1)
	after, okAfter := nearestScheduledDay(in, 1)

	var details []string
	passed := true
	for _, side := range []struct {
		label string
		date  generic.TimePoint
		found bool
	}{
		{"last scheduled day before", before, okBefore},
		{"first scheduled day after", after, okAfter},
	} {
		if !side.found {
			details = append(details, fmt.Sprintf("no %s the holiday within employment", side.label))
			continue
		}
		r, ok := idx.on(side.date)
		switch {
		case ok && r.Worked():
			details = append(details, fmt.Sprintf("worked %s (%s)", side.label, side.date))
		case ok && r.AbsenceAuthorized:
			details = append(details, fmt.Sprintf("authorized absence on %s (%s)", side.label, side.date))
		default:
			passed = false
			details = append(details, fmt.Sprintf("unauthorized absence on %s (%s)", side.label, side.date))
		}
	}
	return passed, strings.Join(details, "; ")
}

// nearestScheduledDay walks away from the holiday (step -1 or +1) to the
// closest scheduled weekday that is not itself a statutory holiday.
func nearestScheduledDay(in EligibilityInput, step int) (generic.TimePoint, bool) {
	for i := 1; i <= scheduledDaySearchLimit; i++ {
		d := in.Holiday.Date.AddDays(step * i)
		if !in.Employee.EmployedOn(d) {
			return generic.TimePoint{}, false
		}
		if !in.Employee.IsScheduled(d.Weekday()) {
			continue
		}
		if _, isHoliday := jurisdiction.FindHoliday(in.Holiday.Province, d); isHoliday {
			continue
		}
		return d, true
	}
	return generic.TimePoint{}, false
}

// checkRegularWorkday decides whether the holiday would have been a normal
// working day for the employee.
func checkRegularWorkday(in EligibilityInput, idx recordIndex) (bool, string) {
	weekday := in.Holiday.Date.Weekday()
	params := in.RuleSet.Params
	if params.PatternWeeks > 0 {
		return checkWeekdayPattern(in, idx, params.PatternWeeks, params.PatternThreshold)
	}

	for _, r := range in.Records {
		if in.Window.Contains(r.Date) && r.Date.Weekday() == weekday && r.Worked() {
			return true, fmt.Sprintf("worked a %s on %s within %s", weekday, r.Date, in.Window)
		}
	}
	return false, fmt.Sprintf("no %s worked within %s", weekday, in.Window)
}

// checkWeekdayPattern is the "worked the holiday's weekday in at least N of
// the last M weeks" test. For employees hired less than M weeks ago the
// threshold drops to the number of occurrences possible since hire.
func checkWeekdayPattern(in EligibilityInput, idx recordIndex, weeks, threshold int) (bool, string) {
	weekday := in.Holiday.Date.Weekday()
	possible, worked := 0, 0
	for w := 1; w <= weeks; w++ {
		d := in.Holiday.Date.AddWeeks(-w)
		if !in.Employee.EmployedOn(d) {
			continue
		}
		possible++
		if idx.workedOn(d) {
			worked++
		}
	}

	if possible == 0 {
		return false, fmt.Sprintf("no %s possible since hire %s in the last %d weeks",
			weekday, in.Employee.HireDate, weeks)
	}

	effective := min(threshold, possible)
	detail := fmt.Sprintf("worked %d of %d possible %ss in the last %d weeks; threshold %d",
		worked, possible, weekday, weeks, effective)
	if effective != threshold {
		detail += fmt.Sprintf(" (pro-rated from %d)", threshold)
	}
	return worked >= effective, detail
}

// checkMinDaysWorked: days with hours in the window >= the configured minimum.
func checkMinDaysWorked(in EligibilityInput, _ recordIndex) (bool, string) {
	minimum := *in.RuleSet.Eligibility.MinDaysWorkedInPeriod
	days := summarize(in.Records, in.Window).DaysWorked
	return days >= minimum, fmt.Sprintf("worked %d days within %s; minimum %d", days, in.Window, minimum)
}
