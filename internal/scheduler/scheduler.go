// Package scheduler runs a job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/fd1az/fba-sourcing/internal/logger"
)

// Job is one scheduled unit of work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner. A tick that fires while the previous run is
// still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger logger.LoggerInterface
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler using standard five-field cron specs.
func New(ctx context.Context, log logger.LoggerInterface) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	cl := cronLogger{ctx: ctx, log: log}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name.
func (s *Scheduler) Add(spec, name string, job Job) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	s.logger.Info(s.ctx, "job scheduled", "job", name, "spec", spec)
	return nil
}

// RunNow executes job immediately on the caller's goroutine.
func (s *Scheduler) RunNow(name string, job Job) {
	s.wrap(name, job)()
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		if s.ctx.Err() != nil {
			return
		}
		s.logger.Info(s.ctx, "job started", "job", name)
		if err := job(s.ctx); err != nil {
			s.logger.Error(s.ctx, "job failed", "job", name, "error", err)
			return
		}
		s.logger.Info(s.ctx, "job finished", "job", name)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(s.ctx, "scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info(context.Background(), "scheduler stopped")
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	ctx context.Context
	log logger.LoggerInterface
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(l.ctx, "cron: "+msg, append(keysAndValues, "error", err)...)
}
