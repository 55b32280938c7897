package leave_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/statpay/factory"
	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
	"github.com/warp/statpay/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func d(s string) generic.TimePoint { return generic.MustParseDate(s) }

func employee(province generic.Province, hire string) holidaypay.Employee {
	return holidaypay.Employee{
		ID:             "emp-1",
		HireDate:       d(hire),
		Province:       province,
		EmploymentType: holidaypay.EmploymentHourly,
		HourlyRate:     decimal.NewFromInt(20),
	}
}

func evaluate(t *testing.T, req leave.Request) *leave.Entitlement {
	t.Helper()
	ent, err := leave.Evaluate(factory.MustDefault().Table(), req)
	require.NoError(t, err)
	return ent
}

// =============================================================================
// ENTITLEMENTS
// =============================================================================

func TestEvaluate_FederalSickLeavePaidAfterThirtyDays(t *testing.T) {
	// GIVEN: Federal employee, 45 days in
	ent := evaluate(t, leave.Request{
		Employee:  employee(generic.ProvinceFED, "2024-05-01"),
		Type:      jurisdiction.LeaveSick,
		StartDate: d("2024-06-15"),
	})

	assert.True(t, ent.Eligible)
	assert.Equal(t, 45, ent.TenureDays)
	assert.Equal(t, "10", ent.EntitledDays.String())
	assert.Equal(t, "10", ent.PaidDays.String())
	assert.Equal(t, "FED-2019", ent.ConfigVersionUsed.ID)
}

func TestEvaluate_BeforeMinimumTenureIsNotEligible(t *testing.T) {
	ent := evaluate(t, leave.Request{
		Employee:  employee(generic.ProvinceFED, "2024-06-01"),
		Type:      jurisdiction.LeaveSick,
		StartDate: d("2024-06-15"),
	})

	assert.False(t, ent.Eligible)
	assert.True(t, ent.EntitledDays.IsZero())
	assert.True(t, ent.PaidDays.IsZero())
	require.Len(t, ent.Reasons, 2)
	assert.False(t, ent.Reasons[0].Passed)
	assert.True(t, ent.Reasons[1].Skipped)
}

func TestEvaluate_ProtectedButUnpaidBeforePaidThreshold(t *testing.T) {
	// GIVEN: Federal bereavement needs 90 days for the paid part
	ent := evaluate(t, leave.Request{
		Employee:  employee(generic.ProvinceFED, "2024-05-01"),
		Type:      jurisdiction.LeaveBereavement,
		StartDate: d("2024-06-15"),
	})

	assert.True(t, ent.Eligible)
	assert.Equal(t, "10", ent.EntitledDays.String())
	assert.True(t, ent.PaidDays.IsZero())
	assert.False(t, ent.Reasons[1].Passed)
	assert.Contains(t, ent.Reasons[1].Detail, "leave is unpaid")
}

func TestEvaluate_UnpaidLeaveType(t *testing.T) {
	ent := evaluate(t, leave.Request{
		Employee:  employee(generic.ProvinceAB, "2020-01-06"),
		Type:      jurisdiction.LeaveFamilyResponsibility,
		StartDate: d("2024-06-15"),
	})

	assert.True(t, ent.Eligible)
	assert.Equal(t, "5", ent.EntitledDays.String())
	assert.True(t, ent.PaidDays.IsZero())
	assert.True(t, ent.Reasons[1].Passed)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestEvaluate_LeaveNotDefinedInRuleSet(t *testing.T) {
	_, err := leave.Evaluate(factory.MustDefault().Table(), leave.Request{
		Employee:  employee(generic.ProvinceSK, "2020-01-06"),
		Type:      jurisdiction.LeaveSick,
		StartDate: d("2024-06-15"),
	})

	assert.ErrorIs(t, err, generic.ErrLeaveNotDefined)
	assert.True(t, generic.IsNotFound(err))
}

func TestEvaluate_NoRuleSetInForce(t *testing.T) {
	_, err := leave.Evaluate(factory.MustDefault().Table(), leave.Request{
		Employee:  employee(generic.ProvinceQC, "2020-01-06"),
		Type:      jurisdiction.LeaveSick,
		StartDate: d("2024-06-15"),
	})
	assert.ErrorIs(t, err, generic.ErrConfigNotFound)
}

func TestEvaluate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   leave.Request
		field string
	}{
		{"unknown type", leave.Request{Employee: employee(generic.ProvinceAB, "2020-01-06"), Type: "sabbatical", StartDate: d("2024-06-15")}, "leave_type"},
		{"missing start", leave.Request{Employee: employee(generic.ProvinceAB, "2020-01-06"), Type: jurisdiction.LeaveSick}, "start_date"},
		{"before hire", leave.Request{Employee: employee(generic.ProvinceAB, "2024-07-01"), Type: jurisdiction.LeaveSick, StartDate: d("2024-06-15")}, "start_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := leave.Evaluate(factory.MustDefault().Table(), tt.req)

			var vErr *generic.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}
