/*
handlers.go - HTTP API handlers for the holiday pay engine

PURPOSE:
  Exposes the rule table, the holiday pay calculator and the leave evaluator
  via REST API. Handles HTTP request/response, JSON serialization, loading
  inputs from the store, and delegates every decision to the engine packages.

ENDPOINTS:
  Jurisdictions:
    GET    /api/jurisdictions                         Provinces and their rule sets
    GET    /api/jurisdictions/{province}/rules        Every stored revision
    POST   /api/jurisdictions/{province}/rules        Publish a rule set
    POST   /api/jurisdictions/{province}/supersede    Close the open row, publish the next
    GET    /api/jurisdictions/{province}/resolve      ?date=YYYY-MM-DD or ?latest=true
    GET    /api/jurisdictions/{province}/holidays     ?year=YYYY

  Employees:
    GET    /api/employees                             List employees
    POST   /api/employees                             Create or update an employee
    GET    /api/employees/{id}                        Employee details
    GET    /api/employees/{id}/work-records           ?from=&to=
    POST   /api/employees/{id}/work-records           Append work records
    POST   /api/employees/{id}/holiday-pay            Compute from stored records
    GET    /api/employees/{id}/results                Stored results
    POST   /api/employees/{id}/leave                  Leave entitlement

  Holiday pay:
    POST   /api/holiday-pay/compute                   Compute a full ComputeRequest
    GET    /api/holiday-pay/results/{id}              Stored result
    GET    /api/holiday-pay/results/{id}/audit        Audit trail as text

  Payroll:
    POST   /api/payroll/holiday-pay                   Holiday pay for a province

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: rule sets, employees, work records, results
  - Registry: publication rules on top of Store
  - Cache: optional Redis result cache
  - A snapshot of the rule table, swapped after every publish

ERROR HANDLING:
  Errors are returned as JSON with a status derived from the error taxonomy:
  - 400: Validation errors, invalid input
  - 404: No rule set in force, unknown employee/result/leave type
  - 409: Overlapping or duplicate rule sets
  - 501: Documented rule without a formula
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - payroll.go: Payroll runs shared with the scheduler
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
	"github.com/warp/statpay/leave"
	"github.com/warp/statpay/store/redis"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the API persists.
type Store interface {
	jurisdiction.Store
	holidaypay.EmployeeStore
	holidaypay.ResultStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    Store
	Registry *jurisdiction.Registry
	Metrics  *Metrics
	Logger   zerolog.Logger

	// Cache is optional; nil disables result caching.
	Cache *redis.Cache
	// Workers bounds payroll run parallelism.
	Workers int
	// Scheduler is optional; when set, /healthz reports its state.
	Scheduler *HolidayPayScheduler
	// Now is the clock; tests pin it.
	Now func() time.Time

	mu          sync.RWMutex
	table       *jurisdiction.Table
	tableDigest string
	calc        *holidaypay.Calculator

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store. Call LoadRules
// before serving.
func NewHandler(store Store) *Handler {
	table := jurisdiction.NewTable(nil)
	return &Handler{
		Store:    store,
		Registry: jurisdiction.NewRegistry(store),
		Metrics:  NewMetrics(),
		Logger:   log.Logger,
		Now:      time.Now,
		table:    table,
		calc:     holidaypay.NewCalculator(table),
	}
}

// LoadRules replaces the table snapshot with the store's current contents.
func (h *Handler) LoadRules(ctx context.Context) error {
	table, err := h.Registry.Snapshot(ctx)
	if err != nil {
		return err
	}
	digest, err := table.Digest()
	if err != nil {
		return err
	}
	if err := table.CheckOverlaps(); err != nil {
		return err
	}

	h.mu.Lock()
	h.table = table
	h.tableDigest = digest
	h.calc = holidaypay.NewCalculator(table)
	h.mu.Unlock()

	h.Metrics.RuleSetsLoaded.Set(float64(table.Len()))
	h.Logger.Info().Int("rule_sets", table.Len()).Str("digest", digest[:12]).Msg("rule table loaded")
	return nil
}

func (h *Handler) snapshot() (*holidaypay.Calculator, *jurisdiction.Table, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.calc, h.table, h.tableDigest
}

func (h *Handler) today() generic.TimePoint { return generic.FromTime(h.Now()) }

// =============================================================================
// JURISDICTION HANDLERS
// =============================================================================

// ListJurisdictions returns every province in the table with its rule sets
// and the one in force today.
func (h *Handler) ListJurisdictions(w http.ResponseWriter, r *http.Request) {
	_, table, _ := h.snapshot()
	today := h.today()

	dtos := make([]JurisdictionDTO, 0)
	for _, p := range table.Provinces() {
		dto := JurisdictionDTO{Province: p}
		for _, rs := range table.RuleSets(p) {
			dto.RuleSets = append(dto.RuleSets, toRuleSetSummary(rs))
		}
		if rs, err := table.Resolve(p, today); err == nil {
			current := toRuleSetSummary(rs)
			dto.Current = &current
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRules returns every stored revision of a province's rule sets, or only
// the current ones with ?current=true.
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	province, ok := provinceParam(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("current") == "true" {
		_, table, _ := h.snapshot()
		writeJSON(w, http.StatusOK, nonNil(table.RuleSets(province)))
		return
	}

	history, err := h.Registry.History(r.Context(), province)
	if err != nil {
		writeEngineError(w, "Failed to load rule sets", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(history))
}

// PublishRuleSet appends a new rule set for the province.
func (h *Handler) PublishRuleSet(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.decodeRuleSet(w, r)
	if !ok {
		return
	}
	if err := h.Registry.Publish(r.Context(), rs); err != nil {
		writeEngineError(w, "Failed to publish rule set", err)
		return
	}
	if err := h.LoadRules(r.Context()); err != nil {
		writeEngineError(w, "Published, but failed to reload rule table", err)
		return
	}

	h.Logger.Info().Str("province", string(rs.Province)).Str("rule_set", rs.ID).Msg("rule set published")
	writeJSON(w, http.StatusCreated, rs)
}

// SupersedeRuleSet records a legislative change: the open row is closed on
// the new row's effective date and the new row is published.
func (h *Handler) SupersedeRuleSet(w http.ResponseWriter, r *http.Request) {
	next, ok := h.decodeRuleSet(w, r)
	if !ok {
		return
	}
	closed, err := h.Registry.Supersede(r.Context(), next)
	if err != nil {
		writeEngineError(w, "Failed to supersede rule set", err)
		return
	}
	if err := h.LoadRules(r.Context()); err != nil {
		writeEngineError(w, "Superseded, but failed to reload rule table", err)
		return
	}

	h.Logger.Info().
		Str("province", string(next.Province)).
		Str("closed", closed.String()).
		Str("published", next.ID).
		Msg("rule set superseded")
	writeJSON(w, http.StatusCreated, map[string]any{
		"closed":    closed,
		"published": next,
	})
}

func (h *Handler) decodeRuleSet(w http.ResponseWriter, r *http.Request) (jurisdiction.RuleSet, bool) {
	province, ok := provinceParam(w, r)
	if !ok {
		return jurisdiction.RuleSet{}, false
	}
	var rs jurisdiction.RuleSet
	if err := json.NewDecoder(r.Body).Decode(&rs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return jurisdiction.RuleSet{}, false
	}
	if rs.Province == "" {
		rs.Province = province
	}
	if rs.Province != province {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Rule set province %s does not match path %s", rs.Province, province), nil)
		return jurisdiction.RuleSet{}, false
	}
	return rs, true
}

// ResolveRuleSet returns the rule set in force on ?date=, or the newest one
// with ?latest=true.
func (h *Handler) ResolveRuleSet(w http.ResponseWriter, r *http.Request) {
	province, ok := provinceParam(w, r)
	if !ok {
		return
	}
	_, table, _ := h.snapshot()

	if r.URL.Query().Get("latest") == "true" {
		rs, err := table.ResolveLatest(province)
		if err != nil {
			writeEngineError(w, "No rule set", err)
			return
		}
		writeJSON(w, http.StatusOK, ResolveDTO{Province: province, Latest: true, RuleSet: rs})
		return
	}

	date := h.today()
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := generic.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = parsed
	}
	rs, err := table.Resolve(province, date)
	if err != nil {
		writeEngineError(w, "No rule set in force", err)
		return
	}
	writeJSON(w, http.StatusOK, ResolveDTO{Province: province, Date: &date, RuleSet: rs})
}

// ListHolidays returns the statutory holidays of a province for ?year=
// (default: the current year).
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	province, ok := provinceParam(w, r)
	if !ok {
		return
	}
	year := h.today().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1900 || y > 2200 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	holidays := jurisdiction.StatutoryHolidays(province, year)
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.Employees(r.Context())
	if err != nil {
		writeEngineError(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.Employee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates or replaces an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var emp holidaypay.Employee
	if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validateEmployee(emp); err != nil {
		writeEngineError(w, "Invalid employee", err)
		return
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeEngineError(w, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

func validateEmployee(emp holidaypay.Employee) error {
	if emp.ID == "" {
		return generic.Invalid("id", "employee id is required")
	}
	if _, err := generic.ParseProvince(string(emp.Province)); err != nil {
		return err
	}
	if emp.HireDate.IsZero() {
		return generic.Invalid("hire_date", "hire date is required")
	}
	switch emp.EmploymentType {
	case holidaypay.EmploymentHourly, holidaypay.EmploymentSalary:
	default:
		return generic.Invalid("employment_type", "must be %q or %q",
			holidaypay.EmploymentHourly, holidaypay.EmploymentSalary)
	}
	return nil
}

// ListWorkRecords returns work records in [?from, ?to]. Defaults to the
// history a computation for today would read.
func (h *Handler) ListWorkRecords(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))
	period := holidaypay.HistoryPeriod(h.today(), nil)

	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *generic.TimePoint
	}{{"from", &period.Start}, {"to", &period.End}} {
		if s := q.Get(p.name); s != "" {
			parsed, err := generic.ParseDate(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid "+p.name+" date (use YYYY-MM-DD)", err)
				return
			}
			*p.dst = parsed
		}
	}
	if period.IsEmpty() {
		writeError(w, http.StatusBadRequest, "from must not be after to", nil)
		return
	}

	if _, err := h.Store.Employee(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to get employee", err)
		return
	}
	records, err := h.Store.WorkRecords(r.Context(), id, period)
	if err != nil {
		writeEngineError(w, "Failed to load work records", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

// AppendWorkRecords appends day records for the employee. Records without
// an employee_id take the one in the path.
func (h *Handler) AppendWorkRecords(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))
	var records []holidaypay.WorkRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, "No work records given", nil)
		return
	}

	for i := range records {
		rec := &records[i]
		if rec.EmployeeID == "" {
			rec.EmployeeID = id
		}
		if err := validateWorkRecord(id, *rec); err != nil {
			writeEngineError(w, "Invalid work record", err)
			return
		}
	}

	if err := h.Store.AppendWorkRecords(r.Context(), records...); err != nil {
		writeEngineError(w, "Failed to append work records", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"appended": len(records)})
}

func validateWorkRecord(id generic.EmployeeID, rec holidaypay.WorkRecord) error {
	if rec.EmployeeID != id {
		return generic.Invalid("employee_id", "record for %s posted under %s", rec.EmployeeID, id)
	}
	if rec.Date.IsZero() {
		return generic.Invalid("date", "record date is required")
	}
	if rec.HoursWorked.IsNegative() {
		return generic.Invalid("hours_worked", "negative hours on %s", rec.Date)
	}
	if rec.Earnings.IsNegative() {
		return generic.Invalid("earnings", "negative earnings on %s", rec.Date)
	}
	return nil
}

// =============================================================================
// HOLIDAY PAY HANDLERS
// =============================================================================

// ComputeEmployeeHolidayPay loads the employee's history around the holiday
// and computes holiday pay, optionally persisting the result.
func (h *Handler) ComputeEmployeeHolidayPay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	var body ComputeHolidayPayRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.HolidayDate.IsZero() {
		writeError(w, http.StatusBadRequest, "holiday_date is required", nil)
		return
	}

	emp, err := h.Store.Employee(ctx, id)
	if err != nil {
		writeEngineError(w, "Failed to get employee", err)
		return
	}
	holiday, err := holidayFor(emp.Province, body.HolidayDate, body.HolidayName)
	if err != nil {
		writeEngineError(w, "Unknown holiday", err)
		return
	}

	req, err := holidaypay.LoadRequest(ctx, h.Store, id, holiday, holidaypay.RequestOptions{
		AsOfConfigDate:  body.AsOfConfigDate,
		UseLatestConfig: body.UseLatestConfig,
		PayPeriodEnd:    body.PayPeriodEnd,
	})
	if err != nil {
		writeEngineError(w, "Failed to load work history", err)
		return
	}

	res, cached, err := h.compute(ctx, req)
	if err != nil {
		writeEngineError(w, "Holiday pay computation failed", err)
		return
	}

	resp := ComputeResponse{Cached: cached, Result: res, Audit: res.Audit.Render()}
	if body.Persist {
		stored, err := h.saveResult(ctx, res)
		if err != nil {
			writeEngineError(w, "Failed to save result", err)
			return
		}
		resp.ResultID = stored.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// holidayFor returns the named holiday on date, or looks the date up in the
// province's statutory calendar.
func holidayFor(province generic.Province, date generic.TimePoint, name string) (jurisdiction.Holiday, error) {
	if name != "" {
		return jurisdiction.Holiday{Date: date, Province: province, Name: name}, nil
	}
	hol, ok := jurisdiction.FindHoliday(province, date)
	if !ok {
		return jurisdiction.Holiday{}, generic.Invalid("holiday_date",
			"%s is not a statutory holiday in %s; pass holiday_name to compute anyway", date, province)
	}
	return hol, nil
}

// ComputeHolidayPay computes a fully materialized request. Nothing is read
// from or written to the store.
func (h *Handler) ComputeHolidayPay(w http.ResponseWriter, r *http.Request) {
	var req holidaypay.ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, cached, err := h.compute(r.Context(), req)
	if err != nil {
		writeEngineError(w, "Holiday pay computation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ComputeResponse{Cached: cached, Result: res, Audit: res.Audit.Render()})
}

// compute runs the calculator behind the optional result cache. Cache
// failures are logged and never fail the computation.
func (h *Handler) compute(ctx context.Context, req holidaypay.ComputeRequest) (*holidaypay.HolidayPayResult, bool, error) {
	calc, _, digest := h.snapshot()

	var key string
	if h.Cache != nil {
		k, err := h.Cache.Key(digest, req)
		if err != nil {
			h.Logger.Warn().Err(err).Msg("result cache key")
		} else {
			key = k
			res, hit, err := h.Cache.Get(ctx, key)
			switch {
			case err != nil:
				h.Metrics.CacheLookups.WithLabelValues("error").Inc()
				h.Logger.Warn().Err(err).Msg("result cache read")
			case hit:
				h.Metrics.CacheLookups.WithLabelValues("hit").Inc()
				return res, true, nil
			default:
				h.Metrics.CacheLookups.WithLabelValues("miss").Inc()
			}
		}
	}

	start := time.Now()
	res, err := calc.ComputeHolidayPay(req)
	h.Metrics.ObserveComputation(string(req.Employee.Province), outcomeLabel(res, err), time.Since(start))
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		if err := h.Cache.Set(ctx, key, res); err != nil {
			h.Logger.Warn().Err(err).Msg("result cache write")
		}
	}
	return res, false, nil
}

func outcomeLabel(res *holidaypay.HolidayPayResult, err error) string {
	switch {
	case err == nil && res.Eligibility.Eligible:
		return "eligible"
	case err == nil:
		return "ineligible"
	case generic.IsClientError(err):
		return "invalid"
	case generic.IsNotFound(err):
		return "no_config"
	case generic.IsNotImplemented(err):
		return "not_implemented"
	default:
		return "error"
	}
}

func (h *Handler) saveResult(ctx context.Context, res *holidaypay.HolidayPayResult) (holidaypay.StoredResult, error) {
	stored := holidaypay.StoredResult{
		ID:         uuid.NewString(),
		ComputedAt: h.Now().UTC(),
		Result:     *res,
	}
	if err := h.Store.SaveResult(ctx, stored); err != nil {
		return holidaypay.StoredResult{}, err
	}
	return stored, nil
}

// GetResult returns a stored result.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	stored, err := h.Store.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, "Failed to get result", err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// GetResultAudit renders a stored result's audit trail as plain text, with
// a fingerprint check against the stored JSON.
func (h *Handler) GetResultAudit(w http.ResponseWriter, r *http.Request) {
	stored, err := h.Store.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, "Failed to get result", err)
		return
	}
	verified, err := holidaypay.VerifyFingerprint(stored.Result)
	if err != nil {
		writeEngineError(w, "Failed to verify result", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Fingerprint-Verified", strconv.FormatBool(verified))
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "result %s computed %s\n", stored.ID, stored.ComputedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "total pay %s (base %s + premium %s)\n",
		generic.FormatMoney(stored.Result.TotalPay),
		generic.FormatMoney(stored.Result.BasePay),
		generic.FormatMoney(stored.Result.PremiumPay))
	fmt.Fprint(w, stored.Result.Audit.Render())
}

// ListResults returns an employee's stored results, oldest first.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.Store.Results(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to list results", err)
		return
	}

	dtos := make([]StoredResultDTO, len(results))
	for i, res := range results {
		dtos[i] = toStoredResultDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// LeaveEntitlement evaluates a stored employee's entitlement to one leave.
func (h *Handler) LeaveEntitlement(w http.ResponseWriter, r *http.Request) {
	var body LeaveEntitlementRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	emp, err := h.Store.Employee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to get employee", err)
		return
	}

	_, table, _ := h.snapshot()
	ent, err := leave.Evaluate(table, leave.Request{
		Employee:       emp,
		Type:           body.LeaveType,
		StartDate:      body.StartDate,
		AsOfConfigDate: body.AsOfConfigDate,
	})
	if err != nil {
		writeEngineError(w, "Leave evaluation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ent)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// RunPayroll computes and stores holiday pay for every employee of the
// province employed on the holiday.
func (h *Handler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	var body PayrollRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	province, err := generic.ParseProvince(string(body.Province))
	if err != nil {
		writeEngineError(w, "Invalid province", err)
		return
	}
	holiday, ok := jurisdiction.FindHoliday(province, body.HolidayDate)
	if !ok {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("%s is not a statutory holiday in %s", body.HolidayDate, province), nil)
		return
	}

	run, err := h.RunHolidayPayroll(r.Context(), holiday, body.PayPeriodEnd, false, "api")
	if err != nil {
		writeEngineError(w, "Payroll run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports the loaded rule table and, when attached, the scheduler.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, table, digest := h.snapshot()
	body := map[string]any{
		"status":       "ok",
		"rule_sets":    table.Len(),
		"table_digest": digest,
		"cache":        h.Cache != nil,
	}
	if h.Scheduler != nil {
		body["scheduler"] = h.Scheduler.Status()
	}
	writeJSON(w, http.StatusOK, body)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError picks the status from the error taxonomy.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	writeError(w, errorStatus(err), message, err)
}

func errorStatus(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsConflict(err):
		return http.StatusConflict
	case generic.IsNotImplemented(err):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func provinceParam(w http.ResponseWriter, r *http.Request) (generic.Province, bool) {
	p, err := generic.ParseProvince(chi.URLParam(r, "province"))
	if err != nil {
		writeEngineError(w, "Unknown province", err)
		return "", false
	}
	return p, true
}

// nonNil keeps empty lists as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
