// Package monthly fills the upcoming month for every owner near the end of
// the current one.
package monthly

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reread/internal/daily"

	"github.com/robfig/cron/v3"
)

type Preparer interface {
	PrepareNextMonth(ctx context.Context, clock daily.Clock) (*daily.BatchResult, error)
}

var _ Preparer = (*daily.Reconciler)(nil)

type Runner struct {
	Prep     Preparer
	Location *time.Location
	// LeadDays is how many trailing days of a month count as "near the end".
	LeadDays int
	Log      *slog.Logger

	now  func() time.Time
	cron *cron.Cron
}

func (r *Runner) log() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

func (r *Runner) clock() daily.Clock {
	now := time.Now()
	if r.now != nil {
		now = r.now()
	}
	if r.Location != nil {
		now = now.In(r.Location)
	}
	return daily.NewClock(now)
}

// Due reports whether clock falls within the last LeadDays days of its month.
func Due(clock daily.Clock, leadDays int) bool {
	if leadDays < 1 {
		leadDays = 1
	}
	return clock.DaysInMonth-clock.Day < leadDays
}

// RunOnce prepares next month when due. It returns nil, nil when not due.
func (r *Runner) RunOnce(ctx context.Context) (*daily.BatchResult, error) {
	clock := r.clock()
	if !Due(clock, r.LeadDays) {
		r.log().Debug("prepare next month not due", "today", clock.Today(), "lead_days", r.LeadDays)
		return nil, nil
	}

	res, err := r.Prep.PrepareNextMonth(ctx, clock)
	if err != nil {
		r.log().Error("prepare next month aborted", "today", clock.Today(), "err", err)
		return res, err
	}
	return res, nil
}

// Start schedules RunOnce on spec, evaluated in Location. Runs that would
// overlap a still-running one are skipped.
func (r *Runner) Start(ctx context.Context, spec string) error {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, func() { _, _ = r.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("prepare cron %q: %w", spec, err)
	}
	r.cron = c
	c.Start()
	r.log().Info("prepare cron started", "spec", spec, "location", loc.String(), "lead_days", r.LeadDays)
	return nil
}

// Stop halts the schedule and waits for a running job to finish or ctx to end.
func (r *Runner) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
