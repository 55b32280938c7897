package api

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// PAYROLL RUN - Holiday pay for every employee of a province
// =============================================================================

// RunHolidayPayroll computes and stores holiday pay for every employee of
// holiday.Province employed on the holiday. With skipComputed, employees
// that already have a stored result for the holiday are skipped (the
// scheduler reruns the same holidays every tick).
//
// Per-employee failures are reported in the run; only store failures and
// cancellation fail the run itself.
func (h *Handler) RunHolidayPayroll(ctx context.Context, holiday jurisdiction.Holiday,
	payPeriodEnd *generic.TimePoint, skipComputed bool, trigger string) (*PayrollRunDTO, error) {

	employees, err := h.Store.Employees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	run := &PayrollRunDTO{
		Province:    holiday.Province,
		HolidayDate: holiday.Date,
		HolidayName: holiday.Name,
		TotalPay:    decimal.Zero,
		Items:       []PayrollItemDTO{},
	}

	var reqs []holidaypay.ComputeRequest
	for _, emp := range employees {
		if emp.Province != holiday.Province || !emp.EmployedOn(holiday.Date) {
			continue
		}
		if skipComputed {
			done, err := h.hasResult(ctx, emp.ID, holiday.Date)
			if err != nil {
				return nil, err
			}
			if done {
				run.Skipped++
				continue
			}
		}

		req, err := holidaypay.LoadRequest(ctx, h.Store, emp.ID, holiday, holidaypay.RequestOptions{
			PayPeriodEnd: payPeriodEnd,
		})
		if err != nil {
			run.Failed++
			run.Items = append(run.Items, PayrollItemDTO{EmployeeID: emp.ID, TotalPay: decimal.Zero, Error: err.Error()})
			continue
		}
		reqs = append(reqs, req)
	}

	calc, _, _ := h.snapshot()
	outcomes, err := calc.ComputeBatch(ctx, reqs, h.Workers)
	if err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		h.Metrics.Computations.WithLabelValues(string(holiday.Province), outcomeLabel(o.Result, o.Err)).Inc()
		item := PayrollItemDTO{EmployeeID: o.EmployeeID, TotalPay: decimal.Zero}
		if o.Err != nil {
			run.Failed++
			item.Error = o.Err.Error()
			run.Items = append(run.Items, item)
			continue
		}

		stored, err := h.saveResult(ctx, o.Result)
		if err != nil {
			return nil, fmt.Errorf("save result for %s: %w", o.EmployeeID, err)
		}
		run.Computed++
		item.ResultID = stored.ID
		item.Eligible = o.Result.Eligibility.Eligible
		item.TotalPay = o.Result.TotalPay
		run.TotalPay = run.TotalPay.Add(o.Result.TotalPay)
		run.Items = append(run.Items, item)
	}

	sort.Slice(run.Items, func(i, j int) bool { return run.Items[i].EmployeeID < run.Items[j].EmployeeID })
	h.Metrics.PayrollRuns.WithLabelValues(trigger).Inc()

	h.Logger.Info().
		Str("province", string(holiday.Province)).
		Str("holiday", holiday.Date.String()).
		Str("trigger", trigger).
		Int("computed", run.Computed).
		Int("skipped", run.Skipped).
		Int("failed", run.Failed).
		Str("total_pay", generic.FormatMoney(run.TotalPay)).
		Msg("holiday payroll run")
	return run, nil
}

func (h *Handler) hasResult(ctx context.Context, id generic.EmployeeID, holidayDate generic.TimePoint) (bool, error) {
	results, err := h.Store.Results(ctx, id)
	if err != nil {
		return false, fmt.Errorf("results for %s: %w", id, err)
	}
	for _, r := range results {
		if r.Result.HolidayDate.Equal(holidayDate) {
			return true, nil
		}
	}
	return false, nil
}
