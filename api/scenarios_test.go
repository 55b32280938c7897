/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- The employee and work history are stored
	- Holiday pay matches the scenario's documented amount
	- Reloading does not duplicate work records

These tests double as end-to-end checks of each jurisdiction's formula.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
)

func TestScenarios_ExpectedTotals(t *testing.T) {
	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			// GIVEN: A fresh store
			h := setupTestHandler(t, "2025-01-15")

			// WHEN: Loading the scenario
			resp := loadScenario(t, h, s.ID)

			// THEN: The computed pay is the documented amount
			require.NotNil(t, resp.Result)
			assert.Equal(t, s.Expected, generic.FormatMoney(resp.Result.TotalPay))
			assert.Equal(t, s.Province, resp.Result.Audit.ConfigVersion.Province)
			assert.NotEmpty(t, resp.Audit)

			ok, err := holidaypay.VerifyFingerprint(*resp.Result)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestScenarios_AlbertaAbsenceFailsLastFirst(t *testing.T) {
	h := setupTestHandler(t, "2025-01-15")

	resp := loadScenario(t, h, "alberta-absence")

	assert.False(t, resp.Result.Eligibility.Eligible)
	reason, failed := resp.Result.Eligibility.Failed()
	require.True(t, failed)
	assert.Contains(t, reason.Detail, "2018-12-24")
}

func TestScenarios_ReloadIsIdempotent(t *testing.T) {
	// GIVEN: A loaded scenario
	h := setupTestHandler(t, "2025-01-15")
	ctx := context.Background()
	first := loadScenario(t, h, "ontario-work-week")

	before, err := h.Store.WorkRecords(ctx, "scn-on", first.Result.Period())
	require.NoError(t, err)

	// WHEN: Loading it again
	second := loadScenario(t, h, "ontario-work-week")

	// THEN: Same records, same result
	after, err := h.Store.WorkRecords(ctx, "scn-on", first.Result.Period())
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.Equal(t, first.Result.Fingerprint, second.Result.Fingerprint)
}

func TestScenarios_CurrentAndUnknown(t *testing.T) {
	h := setupTestHandler(t, "2025-01-15")

	rec := do(t, h, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScenarioDTO](t, rec), len(scenarios))

	loadScenario(t, h, "saskatchewan-percent")
	rec = do(t, h, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "saskatchewan-percent", decode[ScenarioDTO](t, rec).ID)

	rec = do(t, h, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "lottery-win"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenarios_BuildersMatchDefinitions(t *testing.T) {
	for _, s := range scenarios {
		build, ok := scenarioBuilders[s.ID]
		require.True(t, ok, s.ID)
		data := build()
		assert.Equal(t, s.Province, data.employee.Province, s.ID)
		assert.Equal(t, s.Province, data.holiday.Province, s.ID)
		for _, r := range data.records {
			assert.Equal(t, data.employee.ID, r.EmployeeID)
		}
	}
}
