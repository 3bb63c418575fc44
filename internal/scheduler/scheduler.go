// Package scheduler runs a job on a cron schedule until its context is cancelled.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSpec = "@every 6h"

// Job is one scheduled run. Errors are logged and do not stop the schedule.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron      *cron.Cron
	spec      string
	job       Job
	immediate bool
	logger    *zap.Logger
}

// New validates spec and prepares a scheduler. With immediate set the job also runs
// once at start instead of waiting for the first tick.
func New(spec string, job Job, immediate bool, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if job == nil {
		return nil, fmt.Errorf("scheduled job is required")
	}

	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	log := cronLogger{logger: logger.Sugar()}

	return &Scheduler{
		cron:      cron.New(cron.WithLogger(log), cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log))),
		spec:      spec,
		job:       job,
		immediate: immediate,
		logger:    logger,
	}, nil
}

// Run blocks until ctx is done and the in-flight run, if any, has returned.
func (s *Scheduler) Run(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("schedule", s.spec),
		zap.Time("next_run", s.cron.Entry(id).Next),
	)

	var first sync.WaitGroup
	if s.immediate {
		// The wrapped job shares the skip-if-running guard with regular ticks.
		first.Add(1)
		go func() {
			defer first.Done()
			s.cron.Entry(id).WrappedJob.Run()
		}()
	}

	<-ctx.Done()

	<-s.cron.Stop().Done()
	first.Wait()
	s.logger.Info("scheduler stopped")

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.logger.Debug("scheduled run started")
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
		return
	}
	s.logger.Debug("scheduled run completed")
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
