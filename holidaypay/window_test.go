package holidaypay_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// LOOKBACK WINDOW
// =============================================================================

func TestLookbackWindow_Anchors(t *testing.T) {
	emp := hourly("emp-1", generic.ProvinceON, "2020-01-01", "20")
	christmas := d("2024-12-25") // a Wednesday

	tests := []struct {
		name      string
		anchor    jurisdiction.WindowAnchor
		lookback  int
		formula   jurisdiction.FormulaType
		periodEnd *generic.TimePoint
		start     string
		end       string
	}{
		{"holiday, default 28", jurisdiction.AnchorHoliday, 0, jurisdiction.FormulaFourWeekAverageDaily, nil, "2024-11-27", "2024-12-24"},
		{"holiday, thirty day default", jurisdiction.AnchorHoliday, 0, jurisdiction.FormulaThirtyDayAverage, nil, "2024-11-25", "2024-12-24"},
		{"work week", jurisdiction.AnchorWorkWeek, 28, jurisdiction.FormulaFourWeekAverageDaily, nil, "2024-11-24", "2024-12-21"},
		{"pay period end", jurisdiction.AnchorPayPeriodEnd, 14, jurisdiction.FormulaFourWeekAverageDaily, dp("2024-12-14"), "2024-12-01", "2024-12-14"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := openRule("ON-T", generic.ProvinceON, tt.formula)
			rs.Params.WindowAnchor = tt.anchor
			rs.Params.LookbackDays = tt.lookback

			w, err := holidaypay.LookbackWindow(rs, tt.formula, emp, christmas, tt.periodEnd)

			require.NoError(t, err)
			assert.Equal(t, tt.start, w.Period.Start.String())
			assert.Equal(t, tt.end, w.Period.End.String())
			assert.False(t, w.Clamped)
		})
	}
}

func TestLookbackWindow_ClampedToHireDate(t *testing.T) {
	emp := hourly("emp-1", generic.ProvinceAB, "2024-12-10", "20")
	rs := openRule("AB-T", generic.ProvinceAB, jurisdiction.FormulaFourWeekAverageDaily)

	w, err := holidaypay.LookbackWindow(rs, rs.FormulaType, emp, d("2024-12-25"), nil)

	require.NoError(t, err)
	assert.True(t, w.Clamped)
	assert.Equal(t, "2024-11-27", w.Nominal.Start.String())
	assert.Equal(t, "2024-12-10", w.Period.Start.String())
	assert.Equal(t, 15, w.Period.Len())
}

// =============================================================================
// ELIGIBILITY EVALUATOR
// =============================================================================

func TestEvaluateEligibility_NoScheduledDayWithinEmploymentPasses(t *testing.T) {
	// GIVEN: Hired the day before the holiday, terminated on it
	emp := hourly("emp-1", generic.ProvinceSK, "2024-06-30", "20")
	emp.TerminationDate = dp("2024-07-01")
	rs := openRule("SK-T", generic.ProvinceSK, jurisdiction.FormulaFlatRegularDay)
	rs.Eligibility.RequireLastFirstRule = true

	res := holidaypay.EvaluateEligibility(holidaypay.EligibilityInput{
		Employee: emp,
		Holiday:  holiday(generic.ProvinceSK, "2024-07-01", "Canada Day"),
		RuleSet:  rs,
		Window:   generic.Period{Start: d("2024-06-30"), End: d("2024-06-30")},
	})

	// THEN: Sunday Jun 30 is unscheduled and nothing follows employment
	require.True(t, res.Eligible)
	assert.Contains(t, res.Reasons[1].Detail, "no last scheduled day before the holiday within employment")
	assert.Contains(t, res.Reasons[1].Detail, "no first scheduled day after the holiday within employment")
}

func TestEvaluateEligibility_CustomScheduleSkipsUnscheduledDays(t *testing.T) {
	// GIVEN: A Tuesday/Thursday employee, holiday on Monday Jul 1 2024
	emp := hourly("emp-1", generic.ProvinceSK, "2020-01-01", "20")
	emp.ScheduledWeekdays = []time.Weekday{time.Tuesday, time.Thursday}
	rs := openRule("SK-T", generic.ProvinceSK, jurisdiction.FormulaFlatRegularDay)
	rs.Eligibility.RequireLastFirstRule = true
	records := []holidaypay.WorkRecord{record(emp, "2024-06-27", "8"), record(emp, "2024-07-02", "8")}

	res := holidaypay.EvaluateEligibility(holidaypay.EligibilityInput{
		Employee: emp,
		Records:  records,
		Holiday:  holiday(generic.ProvinceSK, "2024-07-01", "Canada Day"),
		RuleSet:  rs,
	})

	assert.True(t, res.Eligible)
	assert.Contains(t, res.Reasons[1].Detail, "worked last scheduled day before (2024-06-27)")
}

func TestEvaluateEligibility_RegularWorkdayWithoutPattern(t *testing.T) {
	emp := hourly("emp-1", generic.ProvinceSK, "2020-01-01", "20")
	rs := openRule("SK-T", generic.ProvinceSK, jurisdiction.FormulaFlatRegularDay)
	rs.Eligibility.RequireRegularWorkday = true
	window := generic.Period{Start: d("2024-06-03"), End: d("2024-06-30")}
	in := holidaypay.EligibilityInput{
		Employee: emp,
		Holiday:  holiday(generic.ProvinceSK, "2024-07-01", "Canada Day"),
		RuleSet:  rs,
		Window:   window,
	}

	// WHEN: No Monday worked in the window
	in.Records = []holidaypay.WorkRecord{record(emp, "2024-06-04", "8")}
	assert.False(t, holidaypay.EvaluateEligibility(in).Eligible)

	// WHEN: One Monday worked
	in.Records = append(in.Records, record(emp, "2024-06-10", "8"))
	assert.True(t, holidaypay.EvaluateEligibility(in).Eligible)
}

// =============================================================================
// FORMULA TABLE
// =============================================================================

func TestFormulas_OnlyImplementedTypesHaveFormulas(t *testing.T) {
	for _, f := range holidaypay.Formulas() {
		assert.True(t, f.Type.IsImplemented(), f.Type)
		assert.NotEmpty(t, f.Description)
	}
	_, ok := holidaypay.LookupFormula(jurisdiction.FormulaYukonDual)
	assert.False(t, ok)
	assert.Len(t, holidaypay.Formulas(), 4)
}

func TestFormulas_ListingIsACopy(t *testing.T) {
	// GIVEN: A caller that overwrites the listed formulas
	listed := holidaypay.Formulas()
	for i := range listed {
		listed[i].Compute = nil
		listed[i].Type = jurisdiction.FormulaYukonDual
	}

	// THEN: Lookups still see the built-in table
	f, ok := holidaypay.LookupFormula(jurisdiction.FormulaThirtyDayAverage)
	require.True(t, ok)
	assert.NotNil(t, f.Compute)
	assert.Equal(t, jurisdiction.FormulaThirtyDayAverage, f.Type)
	_, ok = holidaypay.LookupFormula(jurisdiction.FormulaYukonDual)
	assert.False(t, ok)
}
