package holidaypay_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/statpay/factory"
	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func d(s string) generic.TimePoint { return generic.MustParseDate(s) }

func dp(s string) *generic.TimePoint {
	t := d(s)
	return &t
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultCalculator() *holidaypay.Calculator {
	return holidaypay.NewCalculator(factory.MustDefault().Table())
}

func customCalculator(rows ...jurisdiction.RuleSet) *holidaypay.Calculator {
	return holidaypay.NewCalculator(jurisdiction.NewTable(rows))
}

func hourly(id string, province generic.Province, hire, rate string) holidaypay.Employee {
	return holidaypay.Employee{
		ID:             generic.EmployeeID(id),
		HireDate:       d(hire),
		Province:       province,
		EmploymentType: holidaypay.EmploymentHourly,
		HourlyRate:     money(rate),
	}
}

func record(emp holidaypay.Employee, date, hours string) holidaypay.WorkRecord {
	h := money(hours)
	return holidaypay.WorkRecord{
		EmployeeID:  emp.ID,
		Date:        d(date),
		HoursWorked: h,
		Earnings:    h.Mul(emp.HourlyRate),
	}
}

// weekdayRecords creates one record per scheduled weekday in [from, to],
// except the listed dates.
func weekdayRecords(emp holidaypay.Employee, from, to, hours string, skip ...string) []holidaypay.WorkRecord {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}
	var out []holidaypay.WorkRecord
	period := generic.Period{Start: d(from), End: d(to)}
	for _, day := range period.Days() {
		if !emp.IsScheduled(day.Weekday()) || skipped[day.String()] {
			continue
		}
		out = append(out, record(emp, day.String(), hours))
	}
	return out
}

func holiday(province generic.Province, date, name string) jurisdiction.Holiday {
	return jurisdiction.Holiday{Date: d(date), Province: province, Name: name}
}

// openRule is a permissive row: no eligibility requirements.
func openRule(id string, province generic.Province, formula jurisdiction.FormulaType) jurisdiction.RuleSet {
	return jurisdiction.RuleSet{
		ID:            id,
		Revision:      1,
		Province:      province,
		EffectiveFrom: d("2000-01-01"),
		FormulaType:   formula,
		PremiumRate:   money("1.5"),
		SourceURL:     "https://example.test/" + id,
		LastVerified:  d("2024-01-01"),
	}
}

func compute(t *testing.T, calc *holidaypay.Calculator, req holidaypay.ComputeRequest) *holidaypay.HolidayPayResult {
	t.Helper()
	res, err := calc.ComputeHolidayPay(req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func reason(t *testing.T, res *holidaypay.HolidayPayResult, rule string) holidaypay.Reason {
	t.Helper()
	for _, r := range res.Eligibility.Reasons {
		if r.Rule == rule {
			return r
		}
	}
	t.Fatalf("no reason recorded for %s", rule)
	return holidaypay.Reason{}
}

// albertaChristmas2018 is 17 worked days (5.5h at $15) in the window
// Nov 27 - Dec 24 2018, plus the Tuesdays and the day after that the
// eligibility checks look at.
func albertaChristmas2018() holidaypay.ComputeRequest {
	emp := hourly("emp-ab", generic.ProvinceAB, "2018-01-15", "15.00")
	records := weekdayRecords(emp, "2018-11-27", "2018-12-24", "5.5",
		"2018-11-29", "2018-12-07", "2018-12-14")
	records = append(records,
		record(emp, "2018-11-13", "5.5"),
		record(emp, "2018-11-20", "5.5"),
		record(emp, "2018-12-26", "5.5"),
	)
	return holidaypay.ComputeRequest{
		Employee:    emp,
		WorkRecords: records,
		Holiday:     holiday(generic.ProvinceAB, "2018-12-25", "Christmas Day"),
	}
}

func withoutRecord(req holidaypay.ComputeRequest, date string) holidaypay.ComputeRequest {
	out := req
	out.WorkRecords = nil
	for _, r := range req.WorkRecords {
		if r.Date.String() != date {
			out.WorkRecords = append(out.WorkRecords, r)
		}
	}
	return out
}
