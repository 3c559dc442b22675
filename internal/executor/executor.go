package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/config"
	"github.com/amankumarsingh77/tg-video-relay/internal/memory"
	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/results"
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
)

const (
	stuckTaskMessage = "Task was stuck in processing state for too long"
	panicPrefix      = "Failed to process task: "

	defaultStuckTimeout = 2 * time.Hour
	defaultLockTTL      = 3 * time.Hour
	day                 = 24 * time.Hour
)

// Governor is the memory view the executor admits work against.
type Governor interface {
	HasEnough(ctx context.Context) bool
	RecommendedConcurrency(ctx context.Context) int
	MaybeGC(ctx context.Context) bool
	Pressure(ctx context.Context) memory.Pressure
	Snapshot(ctx context.Context) (*memory.Snapshot, error)
	SetMaxConcurrentTasks(n int)
	TemporarilyDisable(d time.Duration)
}

// Executor admits pending tasks onto a bounded set of workers and runs the
// periodic retry, stuck-recovery and cleanup passes.
type Executor struct {
	taskUC    tasks.UseCase
	resultUC  results.UseCase
	redisRepo tasks.RedisRepository
	governor  Governor
	logger    logger.Logger

	permits            *permitPool
	stuckTimeout       time.Duration
	completedRetention time.Duration
	failedRetention    time.Duration
	lockTTL            time.Duration

	mu       sync.Mutex
	inFlight map[string]time.Time
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewExecutor builds an executor. redisRepo may be nil, in which case no
// cross-process task lock is taken.
func NewExecutor(
	cfg *config.Config,
	taskUC tasks.UseCase,
	resultUC results.UseCase,
	redisRepo tasks.RedisRepository,
	governor Governor,
	logger logger.Logger,
) *Executor {
	p := cfg.Processing
	e := &Executor{
		taskUC:             taskUC,
		resultUC:           resultUC,
		redisRepo:          redisRepo,
		governor:           governor,
		logger:             logger,
		permits:            newPermitPool(p.MaxConcurrentTasks),
		stuckTimeout:       time.Duration(p.StuckTaskTimeoutMinutes) * time.Minute,
		completedRetention: time.Duration(p.CompletedRetentionDays) * day,
		failedRetention:    time.Duration(p.FailedRetentionDays) * day,
		lockTTL:            time.Duration(cfg.Redis.LockTTLHours) * time.Hour,
		inFlight:           make(map[string]time.Time),
		now:                time.Now,
	}
	if e.stuckTimeout <= 0 {
		e.stuckTimeout = defaultStuckTimeout
	}
	if e.completedRetention <= 0 {
		e.completedRetention = 30 * day
	}
	if e.failedRetention <= 0 {
		e.failedRetention = 7 * day
	}
	if e.lockTTL <= 0 {
		e.lockTTL = defaultLockTTL
	}
	return e
}

// ProcessPendingTasks admits as many pending tasks as memory and free
// permits allow, highest priority first. It returns the number dispatched.
func (e *Executor) ProcessPendingTasks(ctx context.Context) (int, error) {
	if !e.governor.HasEnough(ctx) {
		e.logger.Warn("Insufficient memory for processing tasks, skipping this cycle")
		e.governor.MaybeGC(ctx)
		return 0, nil
	}

	available := e.permits.available()
	if available <= 0 {
		e.logger.Debugf("No available processing slots, %d tasks currently processing", e.permits.held())
		return 0, nil
	}
	pending, err := e.taskUC.PendingOrdered(ctx, 0)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		e.logger.Debug("No pending tasks found")
		return 0, nil
	}

	recommended := e.governor.RecommendedConcurrency(ctx)
	budget := min(recommended, available, len(pending))
	if budget <= 0 {
		e.logger.Debugf("No processing budget, recommended %d, available %d", recommended, available)
		return 0, nil
	}
	e.logger.Infof("Found %d pending tasks, processing %d (memory-based limit: %d)", len(pending), budget, recommended)

	dispatched := 0
	for _, task := range pending {
		if dispatched == budget {
			break
		}
		if e.dispatch(ctx, task.ID) {
			dispatched++
		}
	}
	return dispatched, nil
}

// RetryFailedTasks moves retryable tasks back to PENDING, at most one per
// free permit. The next pending pass runs them.
func (e *Executor) RetryFailedTasks(ctx context.Context) (int, error) {
	if !e.governor.HasEnough(ctx) {
		e.logger.Warn("Insufficient memory for retrying tasks, skipping this cycle")
		return 0, nil
	}
	retryable, err := e.taskUC.Retryable(ctx)
	if err != nil {
		return 0, err
	}
	if len(retryable) == 0 {
		e.logger.Debug("No retryable tasks found")
		return 0, nil
	}

	available := e.permits.available()
	limit := min(available, len(retryable))
	e.logger.Infof("Found %d retryable tasks, retrying %d (available slots: %d)", len(retryable), limit, available)

	retried := 0
	for _, task := range retryable[:limit] {
		if _, err := e.taskUC.RetryTask(ctx, task.ID); err != nil {
			e.logger.Errorf("Executor.RetryFailedTasks - RetryTask %s error: %v", task.ID, err)
			continue
		}
		retried++
	}
	return retried, nil
}

// RecoverStuckTasks fails tasks that have been PROCESSING without an update
// for longer than the stuck timeout. Workers still running them are left
// alone.
func (e *Executor) RecoverStuckTasks(ctx context.Context) (int, error) {
	cutoff := e.now().UTC().Add(-e.stuckTimeout)
	stuck, err := e.taskUC.StuckProcessing(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(stuck) == 0 {
		e.logger.Debug("No stuck tasks found")
		return 0, nil
	}
	e.logger.Warnf("Found %d stuck processing tasks", len(stuck))

	recovered := 0
	for _, task := range stuck {
		if _, err := e.taskUC.MarkFailed(ctx, task.ID, stuckTaskMessage); err != nil {
			e.logger.Errorf("Executor.RecoverStuckTasks - MarkFailed %s error: %v", task.ID, err)
			continue
		}
		e.logger.Warnf("Marked stuck task as failed: %s", task.ID)
		recovered++
	}
	return recovered, nil
}

type CleanupReport struct {
	CompletedTasks int64 `json:"completed_tasks"`
	FailedTasks    int64 `json:"failed_tasks"`
	Results        int   `json:"results"`
}

// CleanupOldTasks deletes completed and exhausted failed tasks past their
// retention, then old results whose destination cannot be reused.
func (e *Executor) CleanupOldTasks(ctx context.Context) (*CleanupReport, error) {
	now := e.now().UTC()
	report := &CleanupReport{}

	var err error
	if report.CompletedTasks, err = e.taskUC.DeleteOldCompleted(ctx, now.Add(-e.completedRetention)); err != nil {
		return report, err
	}
	if report.FailedTasks, err = e.taskUC.DeleteOldFailed(ctx, now.Add(-e.failedRetention)); err != nil {
		return report, err
	}
	if report.Results, err = e.resultUC.CleanupOldCompleted(ctx, now.Add(-e.completedRetention)); err != nil {
		return report, err
	}

	if report.CompletedTasks > 0 || report.FailedTasks > 0 || report.Results > 0 {
		e.logger.Infof("Cleanup completed: %d completed tasks, %d failed tasks and %d results deleted",
			report.CompletedTasks, report.FailedTasks, report.Results)
	}
	return report, nil
}

// UpdateProcessingConfiguration resizes the worker pool. Shrinking takes
// effect as running workers finish.
func (e *Executor) UpdateProcessingConfiguration(maxConcurrentTasks int) error {
	if maxConcurrentTasks < 1 || maxConcurrentTasks > maxPermits {
		return apperrors.Newf(apperrors.KindValidation, "max_concurrent_tasks must be between 1 and %d", maxPermits)
	}
	before := e.permits.capacity()
	e.permits.resize(maxConcurrentTasks)
	e.governor.SetMaxConcurrentTasks(maxConcurrentTasks)
	e.logger.Infof("Updated max concurrent tasks from %d to %d, available slots = %d",
		before, maxConcurrentTasks, e.permits.available())
	return nil
}

// DisableMemoryChecks lifts memory admission for d.
func (e *Executor) DisableMemoryChecks(d time.Duration) error {
	if d <= 0 {
		return apperrors.New(apperrors.KindValidation, "duration must be positive")
	}
	e.governor.TemporarilyDisable(d)
	e.logger.Warnf("Memory checks disabled for %s", d)
	return nil
}

func (e *Executor) Statistics(ctx context.Context) (*models.TaskExecutionStatistics, error) {
	taskStats, err := e.taskUC.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.TaskExecutionStatistics{
		TotalTasks:          taskStats.Total,
		PendingTasks:        taskStats.Pending,
		ProcessingTasks:     taskStats.Processing,
		CompletedTasks:      taskStats.Completed,
		FailedTasks:         taskStats.Failed,
		RetryableTasks:      taskStats.Retryable,
		MaxConcurrentTasks:  e.permits.capacity(),
		AvailableSlots:      e.permits.available(),
		CurrentlyProcessing: e.inFlightCount(),
		MemoryPressure:      string(memory.PressureUnknown),
	}
	snap, err := e.governor.Snapshot(ctx)
	if err != nil {
		e.logger.Warnf("Executor.Statistics - snapshot error: %v", err)
		return stats, nil
	}
	stats.MemoryPressure = string(e.governor.Pressure(ctx))
	stats.MemoryUsedPercent = snap.UsedPercent
	stats.FreeMemoryMB = snap.FreeMB()
	return stats, nil
}

func (e *Executor) ProcessingStatus(ctx context.Context) *models.ProcessingStatus {
	return &models.ProcessingStatus{
		MaxConcurrentTasks:  e.permits.capacity(),
		AvailableSlots:      e.permits.available(),
		CurrentlyProcessing: e.inFlightCount(),
		ProcessingTaskIDs:   e.inFlightIDs(),
		MemoryPressure:      string(e.governor.Pressure(ctx)),
		HasEnoughMemory:     e.governor.HasEnough(ctx),
	}
}

// Wait blocks until every dispatched worker has returned.
func (e *Executor) Wait() {
	e.wg.Wait()
}

func (e *Executor) dispatch(ctx context.Context, taskID string) bool {
	if !e.permits.tryAcquire() {
		return false
	}
	if !e.track(taskID) {
		e.permits.release()
		return false
	}
	e.logger.Debugf("Acquired processing slot for task: %s (available slots: %d)", taskID, e.permits.available())

	workerCtx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.permits.release()
		defer e.untrack(taskID)
		e.run(workerCtx, taskID)
	}()
	return true
}

func (e *Executor) run(ctx context.Context, taskID string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("Executor.run - panic processing task %s: %v", taskID, r)
			if _, err := e.taskUC.MarkFailed(ctx, taskID, fmt.Sprintf("%s%v", panicPrefix, r)); err != nil {
				e.logger.Errorf("Executor.run - MarkFailed %s error: %v", taskID, err)
			}
		}
	}()

	if e.redisRepo != nil {
		locked, err := e.redisRepo.AcquireTaskLock(ctx, taskID, e.lockTTL)
		if err != nil {
			e.logger.Errorf("Executor.run - AcquireTaskLock %s error: %v", taskID, err)
			return
		}
		if !locked {
			e.logger.Debugf("Task %s is claimed by another executor", taskID)
			return
		}
		defer func() {
			if err := e.redisRepo.ReleaseTaskLock(ctx, taskID); err != nil {
				e.logger.Warnf("Executor.run - ReleaseTaskLock %s error: %v", taskID, err)
			}
		}()
	}

	if !e.governor.HasEnough(ctx) {
		e.logger.Warnf("Insufficient memory for processing task: %s", taskID)
		return
	}
	if _, err := e.taskUC.ProcessTask(ctx, taskID); err != nil {
		if apperrors.IsConflict(err) {
			e.logger.Infof("Task %s was not admitted: %v", taskID, err)
			return
		}
		e.logger.Errorf("Error processing task %s: %v", taskID, err)
		return
	}
	e.logger.Infof("Successfully processed task: %s", taskID)
}

func (e *Executor) track(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.inFlight[taskID]; ok {
		return false
	}
	e.inFlight[taskID] = e.now()
	return true
}

func (e *Executor) untrack(taskID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, taskID)
	e.logger.Debugf("Released processing slot for task: %s", taskID)
}

func (e *Executor) inFlightCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inFlight)
}

func (e *Executor) inFlightIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.inFlight))
	for id := range e.inFlight {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
