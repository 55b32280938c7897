package holidaypay_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/generic/store"
	"github.com/warp/statpay/holidaypay"
)

// =============================================================================
// BATCH
// =============================================================================

func TestComputeBatch_KeepsOrderAndIsolatesFailures(t *testing.T) {
	// GIVEN: A valid request, an invalid one, and an unconfigured province
	good := albertaChristmas2018()
	bad := albertaChristmas2018()
	bad.Employee.HireDate = d("2019-06-01")
	qc := holidaypay.ComputeRequest{
		Employee: hourly("emp-qc", generic.ProvinceQC, "2020-01-01", "20"),
		Holiday:  holiday(generic.ProvinceQC, "2024-06-24", "Fête nationale"),
	}

	// WHEN: Computing them together with two workers
	outcomes, err := defaultCalculator().ComputeBatch(context.Background(),
		[]holidaypay.ComputeRequest{good, bad, qc, good}, 2)
	require.NoError(t, err)

	// THEN: One outcome per request, in input order
	require.Len(t, outcomes, 4)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, "82.50", outcomes[0].Result.TotalPay.StringFixed(2))
	assert.True(t, generic.IsClientError(outcomes[1].Err))
	assert.Nil(t, outcomes[1].Result)
	assert.ErrorIs(t, outcomes[2].Err, generic.ErrConfigNotFound)
	assert.Equal(t, generic.EmployeeID("emp-qc"), outcomes[2].EmployeeID)
	assert.Equal(t, outcomes[0].Result.Fingerprint, outcomes[3].Result.Fingerprint)

	assert.Len(t, holidaypay.Failed(outcomes), 2)
}

func TestComputeBatch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := defaultCalculator().ComputeBatch(ctx,
		[]holidaypay.ComputeRequest{albertaChristmas2018()}, 1)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, outcomes)
}

func TestComputeBatch_Empty(t *testing.T) {
	outcomes, err := defaultCalculator().ComputeBatch(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

// =============================================================================
// LOADING FROM A WORK HISTORY
// =============================================================================

func TestLoadRequest_ReadsOnlyTheHistoryPeriod(t *testing.T) {
	// GIVEN: A store with the Alberta employee and their records, plus an
	// old record far outside any window
	ctx := context.Background()
	mem := store.NewMemory()
	fixture := albertaChristmas2018()
	require.NoError(t, mem.SaveEmployee(ctx, fixture.Employee))
	require.NoError(t, mem.AppendWorkRecords(ctx, fixture.WorkRecords...))
	require.NoError(t, mem.AppendWorkRecords(ctx, record(fixture.Employee, "2018-03-01", "8")))

	// WHEN: Loading the request for Christmas
	req, err := holidaypay.LoadRequest(ctx, mem, fixture.Employee.ID, fixture.Holiday, holidaypay.RequestOptions{})
	require.NoError(t, err)

	// THEN: The March record is not loaded and the result matches
	assert.Len(t, req.WorkRecords, len(fixture.WorkRecords))
	res := compute(t, defaultCalculator(), req)
	assert.Equal(t, "82.50", res.TotalPay.StringFixed(2))
}

func TestLoadRequest_UnknownEmployee(t *testing.T) {
	_, err := holidaypay.LoadRequest(context.Background(), store.NewMemory(), "nobody",
		holiday(generic.ProvinceAB, "2024-12-25", "Christmas Day"), holidaypay.RequestOptions{})

	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestHistoryPeriod_ExtendsToEarlierPayPeriodEnd(t *testing.T) {
	p := holidaypay.HistoryPeriod(d("2024-12-25"), nil)
	assert.Equal(t, "2024-08-27", p.Start.String())
	assert.Equal(t, "2025-01-08", p.End.String())

	p = holidaypay.HistoryPeriod(d("2024-12-25"), dp("2024-12-14"))
	assert.Equal(t, "2024-08-16", p.Start.String())
}
