/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	employees and work history, then compute holiday pay for them, so each
	jurisdiction's formula can be seen end to end.

AVAILABLE SCENARIOS:

	alberta-four-week:     AB 2018, 4-week average daily wage ($82.50)
	alberta-absence:       Same employee skipping the last shift before ($0.00)
	saskatchewan-percent:  SK, 5% of 28 days' wages ($100.00)
	ontario-work-week:     ON, 4 work weeks / 20 with Boxing Day skipped ($160.00)

HOW SCENARIOS WORK:
 1. Save the employee (upsert)
 2. Append the work records unless the employee already had them
 3. Compute holiday pay from the stored records and return it

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "alberta-four-week"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a builder to 'scenarioBuilders'

SEE ALSO:
  - handlers.go: compute path shared with the employee endpoint
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "alberta-four-week",
		Name:        "Alberta Average Daily Wage",
		Description: "17 shifts of 5.5h at $15 in the 4 weeks before Christmas 2018",
		Province:    generic.ProvinceAB,
		Expected:    "82.50",
	},
	{
		ID:          "alberta-absence",
		Name:        "Alberta Unauthorized Absence",
		Description: "Same history, but the employee skipped Dec 24 without authorization",
		Province:    generic.ProvinceAB,
		Expected:    "0.00",
	},
	{
		ID:          "saskatchewan-percent",
		Name:        "Saskatchewan Five Percent",
		Description: "$2,000 earned in the 28 days before Canada Day 2024",
		Province:    generic.ProvinceSK,
		Expected:    "100.00",
	},
	{
		ID:          "ontario-work-week",
		Name:        "Ontario Four Work Weeks",
		Description: "Christmas 2024: Nov 24 - Dec 21 wages / 20, first day after is Dec 27",
		Province:    generic.ProvinceON,
		Expected:    "160.00",
	},
}

// scenarioData is what a scenario writes to the store.
type scenarioData struct {
	employee holidaypay.Employee
	records  []holidaypay.WorkRecord
	holiday  jurisdiction.Holiday
}

var scenarioBuilders = map[string]func() scenarioData{
	"alberta-four-week": func() scenarioData {
		return albertaChristmas2018("scn-ab-regular")
	},
	"alberta-absence": func() scenarioData {
		data := albertaChristmas2018("scn-ab-absent")
		data.records = withoutDay(data.records, "2018-12-24")
		return data
	},
	"saskatchewan-percent": func() scenarioData {
		emp := scenarioEmployee("scn-sk", generic.ProvinceSK, "2020-01-06", "12.50")
		return scenarioData{
			employee: emp,
			records:  scheduledRecords(emp, "2024-06-03", "2024-06-28", "8"),
			holiday:  mustHoliday(generic.ProvinceSK, "2024-07-01"),
		}
	},
	"ontario-work-week": func() scenarioData {
		emp := scenarioEmployee("scn-on", generic.ProvinceON, "2020-01-06", "20")
		records := scheduledRecords(emp, "2024-11-24", "2024-12-24", "8")
		records = append(records, dayRecord(emp, "2024-12-27", "8"))
		return scenarioData{
			employee: emp,
			records:  records,
			holiday:  mustHoliday(generic.ProvinceON, "2024-12-25"),
		}
	},
}

func albertaChristmas2018(id string) scenarioData {
	emp := scenarioEmployee(id, generic.ProvinceAB, "2018-01-15", "15.00")
	records := scheduledRecords(emp, "2018-11-27", "2018-12-24", "5.5",
		"2018-11-29", "2018-12-07", "2018-12-14")
	records = append(records,
		dayRecord(emp, "2018-11-13", "5.5"),
		dayRecord(emp, "2018-11-20", "5.5"),
		dayRecord(emp, "2018-12-26", "5.5"),
	)
	return scenarioData{
		employee: emp,
		records:  records,
		holiday:  mustHoliday(generic.ProvinceAB, "2018-12-25"),
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the most recently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario writes a scenario's data and computes its holiday pay.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	build, ok := scenarioBuilders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	ctx := r.Context()
	data := build()
	if err := h.loadScenarioData(ctx, data); err != nil {
		writeEngineError(w, "Failed to load scenario", err)
		return
	}

	loaded, err := holidaypay.LoadRequest(ctx, h.Store, data.employee.ID, data.holiday, holidaypay.RequestOptions{})
	if err != nil {
		writeEngineError(w, "Failed to load work history", err)
		return
	}
	res, cached, err := h.compute(ctx, loaded)
	if err != nil {
		writeEngineError(w, "Holiday pay computation failed", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.Logger.Info().Str("scenario", req.ScenarioID).Str("total_pay", generic.FormatMoney(res.TotalPay)).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, ComputeResponse{Cached: cached, Result: res, Audit: res.Audit.Render()})
}

// loadScenarioData saves the employee and, the first time only, its records.
func (h *Handler) loadScenarioData(ctx context.Context, data scenarioData) error {
	_, err := h.Store.Employee(ctx, data.employee.ID)
	switch {
	case err == nil:
		return h.Store.SaveEmployee(ctx, data.employee)
	case !generic.IsNotFound(err):
		return err
	}
	if err := h.Store.SaveEmployee(ctx, data.employee); err != nil {
		return err
	}
	return h.Store.AppendWorkRecords(ctx, data.records...)
}

// =============================================================================
// BUILDERS
// =============================================================================

func scenarioEmployee(id string, province generic.Province, hire, rate string) holidaypay.Employee {
	return holidaypay.Employee{
		ID:             generic.EmployeeID(id),
		HireDate:       generic.MustParseDate(hire),
		Province:       province,
		EmploymentType: holidaypay.EmploymentHourly,
		HourlyRate:     decimal.RequireFromString(rate),
	}
}

func dayRecord(emp holidaypay.Employee, date, hours string) holidaypay.WorkRecord {
	h := decimal.RequireFromString(hours)
	return holidaypay.WorkRecord{
		EmployeeID:  emp.ID,
		Date:        generic.MustParseDate(date),
		HoursWorked: h,
		Earnings:    h.Mul(emp.HourlyRate),
	}
}

// scheduledRecords creates one record per scheduled weekday in [from, to],
// except the listed dates.
func scheduledRecords(emp holidaypay.Employee, from, to, hours string, skip ...string) []holidaypay.WorkRecord {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}
	var out []holidaypay.WorkRecord
	period := generic.Period{Start: generic.MustParseDate(from), End: generic.MustParseDate(to)}
	for _, day := range period.Days() {
		if !emp.IsScheduled(day.Weekday()) || skipped[day.String()] {
			continue
		}
		out = append(out, dayRecord(emp, day.String(), hours))
	}
	return out
}

func withoutDay(records []holidaypay.WorkRecord, date string) []holidaypay.WorkRecord {
	var out []holidaypay.WorkRecord
	for _, r := range records {
		if r.Date.String() != date {
			out = append(out, r)
		}
	}
	return out
}

func mustHoliday(province generic.Province, date string) jurisdiction.Holiday {
	h, ok := jurisdiction.FindHoliday(province, generic.MustParseDate(date))
	if !ok {
		panic(fmt.Sprintf("%s is not a statutory holiday in %s", date, province))
	}
	return h
}
