/*
scheduler.go - Automated holiday pay scheduler

PURPOSE:
  Periodically finds statutory holidays that have settled (enough days have
  passed for the first scheduled day after the holiday to be recorded) and
  runs holiday payroll for them, so every eligible employee gets a stored,
  auditable result without anyone calling the API.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - A holiday is due once today >= holiday + SettleDays, and is considered
    for HorizonDays after that
  - Employees that already have a result for the holiday are skipped, so a
    tick is idempotent
  - Provinces come from the loaded rule table

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - SettleDays: Days to wait after a holiday (default: 7)
  - HorizonDays: How far back settled holidays are still picked up (default: 60)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewHolidayPayScheduler(handler)
  handler.Scheduler = scheduler // reported by /healthz
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - payroll.go: RunHolidayPayroll, shared with POST /api/payroll/holiday-pay
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

// HolidayPayScheduler runs holiday payroll for settled holidays.
type HolidayPayScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	SettleDays    int
	HorizonDays   int
	Enabled       bool
	Logger        zerolog.Logger

	ticker *time.Ticker
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	// stateMu guards the run times; mu is held by Stop while it waits for
	// the loop, so the loop must not take it.
	stateMu sync.Mutex
	lastRun time.Time
	nextRun time.Time
}

// NewHolidayPayScheduler creates a new scheduler.
func NewHolidayPayScheduler(handler *Handler) *HolidayPayScheduler {
	return &HolidayPayScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		SettleDays:    7,
		HorizonDays:   60,
		Enabled:       true,
		Logger:        handler.Logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins the scheduler.
func (s *HolidayPayScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info().Msg("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.ticker = time.NewTicker(s.CheckInterval)
	s.setNextRun(s.Handler.Now())
	s.wg.Add(1)

	go s.run(ctx)

	s.Logger.Info().Dur("interval", s.CheckInterval).Int("settle_days", s.SettleDays).Msg("started")
}

// Stop stops the scheduler and waits for a running check to finish.
func (s *HolidayPayScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		s.cancel()
		s.wg.Wait()
		s.ticker = nil
		s.setNextRun(time.Time{})
		s.Logger.Info().Msg("stopped")
	}
}

func (s *HolidayPayScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	// Run immediately on start
	s.tick(ctx)

	for {
		select {
		case <-s.ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *HolidayPayScheduler) tick(ctx context.Context) {
	s.RunNow(ctx)
	if ctx.Err() == nil {
		s.setNextRun(s.lastRunTime().Add(s.CheckInterval))
	}
}

// DueHolidays lists the settled holidays of every province in the table as
// of today.
func (s *HolidayPayScheduler) DueHolidays(today generic.TimePoint) []jurisdiction.Holiday {
	_, table, _ := s.Handler.snapshot()
	end := today.AddDays(-s.SettleDays)
	window := generic.Period{Start: end.AddDays(-s.HorizonDays), End: end}

	var due []jurisdiction.Holiday
	for _, p := range table.Provinces() {
		due = append(due, jurisdiction.HolidaysBetween(p, window)...)
	}
	return due
}

// RunNow runs payroll for every due holiday and returns the runs.
func (s *HolidayPayScheduler) RunNow(ctx context.Context) []*PayrollRunDTO {
	s.stateMu.Lock()
	s.lastRun = s.Handler.Now()
	s.stateMu.Unlock()

	today := s.Handler.today()
	due := s.DueHolidays(today)
	s.Logger.Debug().Str("today", today.String()).Int("due_holidays", len(due)).Msg("checking")

	var runs []*PayrollRunDTO
	for _, hol := range due {
		if ctx.Err() != nil {
			return runs
		}
		run, err := s.Handler.RunHolidayPayroll(ctx, hol, nil, true, "scheduler")
		if err != nil {
			s.Logger.Error().Err(err).
				Str("province", string(hol.Province)).
				Str("holiday", hol.Date.String()).
				Msg("payroll run failed")
			continue
		}
		runs = append(runs, run)
	}
	return runs
}

// NextRunTime returns when the next scheduled check will occur, and false
// when the scheduler is not running.
func (s *HolidayPayScheduler) NextRunTime() (time.Time, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.nextRun, !s.nextRun.IsZero()
}

// Status is the scheduler section of /healthz.
func (s *HolidayPayScheduler) Status() SchedulerStatusDTO {
	status := SchedulerStatusDTO{
		Enabled:     s.Enabled,
		Interval:    s.CheckInterval.String(),
		SettleDays:  s.SettleDays,
		HorizonDays: s.HorizonDays,
	}
	if next, ok := s.NextRunTime(); ok {
		status.Running = true
		status.NextRun = &next
	}
	if last := s.lastRunTime(); !last.IsZero() {
		status.LastRun = &last
	}
	return status
}

func (s *HolidayPayScheduler) lastRunTime() time.Time {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.lastRun
}

func (s *HolidayPayScheduler) setNextRun(t time.Time) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.nextRun = t
}
