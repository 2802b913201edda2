// Package schedule re-runs a scan job on a cron expression.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

// Job is one scheduled run. Errors are logged; they do not stop the schedule.
type Job func(ctx context.Context) error

// Scheduler runs a single job on a standard five-field cron expression
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	schedule cron.Schedule
	timeout  time.Duration

	tradingDaysOnly bool
	now             func() time.Time
}

// New parses spec ("30 16 * * 1-5", "@hourly", "@every 10m").
// timeout bounds each run; zero means no bound.
func New(spec string, timeout time.Duration) (*Scheduler, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing cron %q: %w", spec, err)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:     spec,
		schedule: sched,
		timeout:  timeout,
		now:      time.Now,
	}, nil
}

// SkipClosedMarket makes scheduled runs skip weekends and NYSE holidays
func (s *Scheduler) SkipClosedMarket(enabled bool) {
	s.tradingDaysOnly = enabled
}

// Next returns the next activation after t
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run registers job and blocks until ctx is done. With runNow the job also
// runs once immediately, before the first activation.
func (s *Scheduler) Run(ctx context.Context, job Job, runNow bool) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.execute(ctx, job, true) }); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	if runNow {
		s.execute(ctx, job, false)
	}

	s.cron.Start()
	log.Info().Str("cron", s.spec).Time("next", s.Next(time.Now())).Msg("scheduler started")

	<-ctx.Done()

	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
	return nil
}

func (s *Scheduler) execute(ctx context.Context, job Job, scheduled bool) {
	if ctx.Err() != nil {
		return
	}
	if scheduled && s.tradingDaysOnly && !IsTradingDay(s.now()) {
		log.Info().Str("cron", s.spec).Msg("market closed, skipping run")
		return
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job(runCtx); err != nil {
		log.Error().Err(err).Str("cron", s.spec).Msg("scheduled run failed")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Time("next", s.Next(time.Now())).Msg("scheduled run complete")
}
