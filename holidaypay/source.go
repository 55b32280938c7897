package holidaypay

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// COLLABORATOR INTERFACES - I/O stays outside the engine
// =============================================================================

// HistoryLookbackDays is how far before the holiday LoadRequest reads work
// records. It covers the longest window (60-day rules), the 9-week weekday
// pattern and the last scheduled day search.
const HistoryLookbackDays = 120

// HistoryLookaheadDays covers the first scheduled day after the holiday.
const HistoryLookaheadDays = 14

// WorkHistory reads employees and their work records.
type WorkHistory interface {
	Employee(ctx context.Context, id generic.EmployeeID) (Employee, error)
	WorkRecords(ctx context.Context, id generic.EmployeeID, period generic.Period) ([]WorkRecord, error)
}

// EmployeeStore is the write side used by the demo API and tests. Work
// records are append-only; appending a second record for a day fails.
type EmployeeStore interface {
	WorkHistory
	SaveEmployee(ctx context.Context, emp Employee) error
	Employees(ctx context.Context) ([]Employee, error)
	AppendWorkRecords(ctx context.Context, records ...WorkRecord) error
}

// StoredResult is a persisted computation.
type StoredResult struct {
	ID         string           `json:"id"`
	ComputedAt time.Time        `json:"computed_at"`
	Result     HolidayPayResult `json:"result"`
}

// ResultStore keeps computed results for later review.
type ResultStore interface {
	SaveResult(ctx context.Context, r StoredResult) error
	Result(ctx context.Context, id string) (StoredResult, error)
	Results(ctx context.Context, id generic.EmployeeID) ([]StoredResult, error)
}

// RequestOptions are the optional parts of a ComputeRequest.
type RequestOptions struct {
	AsOfConfigDate  *generic.TimePoint
	UseLatestConfig bool
	PayPeriodEnd    *generic.TimePoint
}

// HistoryPeriod is the span of work records a computation for holiday may
// read.
func HistoryPeriod(holiday generic.TimePoint, payPeriodEnd *generic.TimePoint) generic.Period {
	start := holiday
	if payPeriodEnd != nil {
		start = generic.MinDate(start, *payPeriodEnd)
	}
	return generic.Period{
		Start: start.AddDays(-HistoryLookbackDays),
		End:   holiday.AddDays(HistoryLookaheadDays),
	}
}

// LoadRequest materializes a ComputeRequest from a WorkHistory, so the
// calculator itself never touches storage.
func LoadRequest(ctx context.Context, src WorkHistory, id generic.EmployeeID,
	holiday jurisdiction.Holiday, opts RequestOptions) (ComputeRequest, error) {

	emp, err := src.Employee(ctx, id)
	if err != nil {
		return ComputeRequest{}, fmt.Errorf("load employee %s: %w", id, err)
	}
	records, err := src.WorkRecords(ctx, id, HistoryPeriod(holiday.Date, opts.PayPeriodEnd))
	if err != nil {
		return ComputeRequest{}, fmt.Errorf("load work records for %s: %w", id, err)
	}
	return ComputeRequest{
		Employee:        emp,
		WorkRecords:     records,
		Holiday:         holiday,
		AsOfConfigDate:  opts.AsOfConfigDate,
		UseLatestConfig: opts.UseLatestConfig,
		PayPeriodEnd:    opts.PayPeriodEnd,
	}, nil
}
