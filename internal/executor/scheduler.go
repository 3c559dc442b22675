package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/config"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"
)

// Scheduler drives the executor's four passes on fixed intervals. A pass
// that is still running when its next tick fires is skipped. Passes share a
// dispatcher pool of max_thread_pool_size slots; at most queue_capacity
// passes wait for a slot, later ones are dropped for that tick.
type Scheduler struct {
	executor *Executor
	cron     *cron.Cron
	logger   logger.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	jobs     []job

	slots    *semaphore.Weighted
	waiting  atomic.Int64
	queueCap int64
}

type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

func NewScheduler(cfg *config.ProcessingConfig, executor *Executor, logger logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		executor: executor,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		slots:    semaphore.NewWeighted(int64(max(cfg.MaxThreadPoolSize, cfg.CoreThreadPoolSize, 1))),
		queueCap: int64(cfg.QueueCapacity),
	}
	s.jobs = []job{
		{name: "pending", interval: millis(cfg.ProcessingIntervalMs, 30_000), run: func(ctx context.Context) error {
			_, err := executor.ProcessPendingTasks(ctx)
			return err
		}},
		{name: "retry", interval: millis(cfg.RetryIntervalMs, 300_000), run: func(ctx context.Context) error {
			_, err := executor.RetryFailedTasks(ctx)
			return err
		}},
		{name: "stuck", interval: millis(cfg.StuckTaskCheckIntervalMs, 600_000), run: func(ctx context.Context) error {
			_, err := executor.RecoverStuckTasks(ctx)
			return err
		}},
		{name: "cleanup", interval: millis(cfg.CleanupIntervalMs, 3_600_000), run: func(ctx context.Context) error {
			_, err := executor.CleanupOldTasks(ctx)
			return err
		}},
	}
	return s
}

func millis(ms, fallback int64) time.Duration {
	if ms <= 0 {
		ms = fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *Scheduler) Start() error {
	for _, j := range s.jobs {
		schedule := fmt.Sprintf("@every %dms", j.interval.Milliseconds())
		id, err := s.cron.AddFunc(schedule, s.wrap(j))
		if err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", j.name, err)
		}
		s.logger.Infof("Scheduled %s job with ID: %d, schedule: %s", j.name, id, schedule)
	}
	s.cron.Start()
	s.logger.Info("Task scheduler started")
	return nil
}

// Stop halts new ticks, cancels running passes and waits for them and for
// dispatched workers until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("Stopping task scheduler...")
	s.cancel()
	stopped := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.executor.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Task scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("task scheduler did not stop in time: %w", ctx.Err())
	}
}

func (s *Scheduler) wrap(j job) func() {
	return func() {
		if !s.acquireSlot(j.name) {
			return
		}
		defer s.slots.Release(1)

		start := time.Now()
		if err := j.run(s.ctx); err != nil {
			s.logger.Errorf("Scheduled %s job failed: %v", j.name, err)
			return
		}
		s.logger.Debugf("Scheduled %s job completed in %v", j.name, time.Since(start))
	}
}

func (s *Scheduler) acquireSlot(name string) bool {
	if s.slots.TryAcquire(1) {
		return true
	}
	if s.waiting.Add(1) > s.queueCap {
		s.waiting.Add(-1)
		s.logger.Warnf("Dispatcher pool is full, dropping %s job for this tick", name)
		return false
	}
	defer s.waiting.Add(-1)
	return s.slots.Acquire(s.ctx, 1) == nil
}

// cronLogger routes cron's own messages through the application logger.
type cronLogger struct {
	logger logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugf("cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorf("cron: %s: %v %v", msg, err, keysAndValues)
}
