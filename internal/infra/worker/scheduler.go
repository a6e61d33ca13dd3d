package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"news-aggregator/internal/pkg/config"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron schedule. Runs never overlap: a tick that
// arrives while the previous run is still going is skipped.
type Scheduler struct {
	cfg     Config
	job     Job
	logger  *slog.Logger
	metrics *Metrics

	cron    *cron.Cron
	running atomic.Bool
	wg      sync.WaitGroup

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg Config, job Job, logger *slog.Logger, m *Metrics) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	sched, err := config.ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", cfg.Schedule, err)
	}

	s := &Scheduler{cfg: cfg, job: job, logger: logger, metrics: m}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{logger})),
	)
	s.cron.Schedule(sched, cron.FuncJob(func() { s.trigger() }))
	return s, nil
}

// Start begins ticking. ctx bounds every run; cancelling it aborts the
// current run but does not stop the ticker (use Stop).
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("schedule", s.cfg.Schedule),
		slog.String("timezone", s.cfg.Timezone),
		slog.Bool("run_on_start", s.cfg.RunOnStart))
	if s.cfg.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.trigger()
		}()
	}
}

// Stop halts the ticker, cancels a run in progress and waits for it, or
// until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	cronDone := s.cron.Stop().Done()
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-cronDone
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with a run still in progress")
	}
}

func (s *Scheduler) trigger() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	_ = s.RunOnce(ctx)
}

// RunOnce runs the job now with the configured timeout, unless a run is
// already in progress, in which case it returns ErrRunInProgress.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		s.record(StatusSkipped)
		s.logger.Warn("previous ingestion run still in progress, skipping tick")
		return ErrRunInProgress
	}
	defer s.running.Store(false)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := s.job(ctx)
	if err != nil {
		s.record(StatusFailure)
		s.logger.Error("scheduled ingestion run failed",
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return err
	}
	s.record(StatusSuccess)
	return nil
}

func (s *Scheduler) record(status string) {
	if s.metrics != nil {
		s.metrics.RecordRun(status)
	}
}

// cronLogger routes robfig/cron's logging (panics caught by cron.Recover)
// into slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
