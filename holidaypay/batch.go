package holidaypay

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/warp/statpay/generic"
)

// =============================================================================
// BATCH - Holiday pay for a whole payroll run
// =============================================================================

// BatchOutcome is the result of one request in a batch. Exactly one of
// Result and Err is set.
type BatchOutcome struct {
	EmployeeID  generic.EmployeeID
	HolidayDate generic.TimePoint
	Result      *HolidayPayResult
	Err         error
}

// ComputeBatch computes independent requests in parallel with at most
// `workers` goroutines (GOMAXPROCS when <= 0). Outcomes keep the input
// order. A failing request does not stop the others; only cancelling ctx
// does, in which case ctx's error is returned.
func (c *Calculator) ComputeBatch(ctx context.Context, reqs []ComputeRequest, workers int) ([]BatchOutcome, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	outcomes := make([]BatchOutcome, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range reqs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			req := reqs[i]
			res, err := c.ComputeHolidayPay(req)
			outcomes[i] = BatchOutcome{
				EmployeeID:  req.Employee.ID,
				HolidayDate: req.Holiday.Date,
				Result:      res,
				Err:         err,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []BatchOutcome) []BatchOutcome {
	var out []BatchOutcome
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}
