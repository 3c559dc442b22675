package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor/processortest"
	"github.com/amankumarsingh77/tg-video-relay/internal/results"
	resultrepo "github.com/amankumarsingh77/tg-video-relay/internal/results/repository"
	resultuc "github.com/amankumarsingh77/tg-video-relay/internal/results/usecase"
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	taskrepo "github.com/amankumarsingh77/tg-video-relay/internal/tasks/repository"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/db/sqlite"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const happyURL = "https://youtu.be/abc"

type sizeGate struct {
	accept bool
}

func (g *sizeGate) FileSizeAcceptable(int64) bool { return g.accept }

type fixture struct {
	uc        tasks.UseCase
	ingestion tasks.Ingestion
	resultUC  results.UseCase
	registry  *processor.Registry
	taskRepo  tasks.Repository
	redisRepo tasks.RedisRepository
	source    *processortest.Source
	dest      *processortest.Destination
	gate      *sizeGate
	tempDir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.NewInMemoryDB(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logger.NewNopLogger()
	tempDir := t.TempDir()
	source := processortest.NewSource(models.SourceTypeYouTube, tempDir)
	dest := processortest.NewDestination(models.DestinationTypeTelegram)
	registry := processor.NewRegistry().RegisterSource(source).RegisterDestination(dest)

	taskRepo := taskrepo.NewTaskRepo(db)
	redisRepo := taskrepo.NewTaskRedisRepo(client, "test")
	resultUC := resultuc.NewResultUseCase(resultrepo.NewResultRepo(db), registry, log)
	gate := &sizeGate{accept: true}
	uc := NewTaskUseCase(taskRepo, redisRepo, resultUC, registry, gate, log)

	return &fixture{
		uc:        uc,
		ingestion: NewIngestion(uc, log),
		resultUC:  resultUC,
		registry:  registry,
		taskRepo:  taskRepo,
		redisRepo: redisRepo,
		source:    source,
		dest:      dest,
		gate:      gate,
		tempDir:   tempDir,
	}
}

// brokenResults fails the operations that have an error set.
type brokenResults struct {
	results.UseCase
	primaryErr error
	reuseErr   error
}

func (b brokenResults) SetPrimary(ctx context.Context, resultID string) error {
	if b.primaryErr != nil {
		return b.primaryErr
	}
	return b.UseCase.SetPrimary(ctx, resultID)
}

func (b brokenResults) ReuseInto(ctx context.Context, sourceURL string, destination models.DestinationType, task *models.Task) (*models.Result, error) {
	if b.reuseErr != nil {
		return nil, b.reuseErr
	}
	return b.UseCase.ReuseInto(ctx, sourceURL, destination, task)
}

func (f *fixture) withResults(r results.UseCase) tasks.UseCase {
	return NewTaskUseCase(f.taskRepo, f.redisRepo, r, f.registry, f.gate, logger.NewNopLogger())
}

func (f *fixture) submit(t *testing.T, url, chatID string) *models.SubmissionResult {
	t.Helper()
	res, err := f.ingestion.Submit(context.Background(), &models.TaskSubmission{URL: url, ChatID: chatID})
	require.NoError(t, err)
	require.True(t, res.Success)
	return res
}

func TestProcessTask_HappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.source.Content = make([]byte, 10<<20)

	submitted, err := f.ingestion.Submit(ctx, &models.TaskSubmission{
		URL:        happyURL,
		ChatID:     "c1",
		Format:     "mp4",
		Resolution: "720p",
	})
	require.NoError(t, err)
	assert.True(t, submitted.Success)
	assert.False(t, submitted.Reused)
	assert.Equal(t, models.TaskStatusPending, submitted.Status)

	task, err := f.uc.GetTask(ctx, submitted.DownloadID)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTypeYouTube, task.SourceType)
	assert.Equal(t, "c1", task.UserID)
	assert.Equal(t, 0, task.Priority)

	result, err := f.uc.ProcessTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, result.IsPrimaryResult)
	assert.Equal(t, "tg-file-1", *result.DestinationID)

	task, err = f.uc.GetTaskWithResults(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.NotNil(t, task.DownloadStartedAt)
	assert.NotNil(t, task.DownloadCompletedAt)
	assert.Equal(t, int64(10485760), *task.FileSizeBytes)
	require.Len(t, task.Results, 1)
	stored := task.Results[0]
	assert.True(t, stored.IsPrimaryResult)
	assert.Equal(t, models.TaskStatusCompleted, stored.Status)
	assert.Equal(t, "tg-file-1", *stored.DestinationID)
	assert.Equal(t, int64(10485760), *stored.FileSizeBytes)

	assert.Equal(t, []processortest.Send{{DestinationID: "tg-file-1", ChatID: "c1"}}, f.dest.Sends())
	_, err = os.Stat(filepath.Join(f.tempDir, task.ID))
	assert.True(t, os.IsNotExist(err), "download directory is removed")

	progress, err := f.uc.Progress(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", progress.Stage)
	assert.Equal(t, 100.0, progress.Percent)
}

func TestCreateTaskWithReuseCheck_ReusesStoredResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.submit(t, happyURL, "c1")
	_, err := f.uc.ProcessTask(ctx, first.DownloadID)
	require.NoError(t, err)

	second := f.submit(t, happyURL, "c2")
	assert.True(t, second.Reused)
	assert.Equal(t, models.TaskStatusCompleted, second.Status)
	assert.NotEqual(t, first.DownloadID, second.DownloadID)
	assert.Len(t, f.source.Downloads(), 1, "no second download")

	sends := f.dest.Sends()
	require.Len(t, sends, 2)
	assert.Equal(t, processortest.Send{DestinationID: "tg-file-1", ChatID: "c2"}, sends[1])

	task, err := f.uc.GetTaskWithResults(ctx, second.DownloadID)
	require.NoError(t, err)
	assert.NotNil(t, task.DownloadCompletedAt)
	require.Len(t, task.Results, 1)
	assert.True(t, task.Results[0].IsPrimaryResult)
	assert.Equal(t, "tg-file-1", *task.Results[0].DestinationID)
}

func TestCreateTaskWithReuseCheck_SendFailureStillCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.submit(t, happyURL, "c1")
	_, err := f.uc.ProcessTask(ctx, first.DownloadID)
	require.NoError(t, err)

	f.dest.SendErr = apperrors.New(apperrors.KindUpstream, "Bad Request: chat not found")
	second := f.submit(t, happyURL, "c2")
	assert.True(t, second.Reused)
	assert.Equal(t, models.TaskStatusCompleted, second.Status)
}

func TestCreateTaskWithReuseCheck_TaskNotAdmittedWhileResending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.submit(t, happyURL, "c1")
	_, err := f.uc.ProcessTask(ctx, first.DownloadID)
	require.NoError(t, err)

	var pendingDuringSend []*models.Task
	var processErr error
	f.dest.OnSend = func(task *models.Task) {
		if task.ChatID != "c2" {
			return
		}
		pendingDuringSend, err = f.uc.PendingOrdered(ctx, 0)
		require.NoError(t, err)
		_, processErr = f.uc.ProcessTask(ctx, task.ID)
	}

	second := f.submit(t, happyURL, "c2")
	assert.True(t, second.Reused)
	assert.Equal(t, models.TaskStatusCompleted, second.Status)
	assert.Empty(t, pendingDuringSend)
	assert.True(t, apperrors.IsConflict(processErr))
	assert.Len(t, f.source.Downloads(), 1)
	assert.Equal(t, []processortest.Send{
		{DestinationID: "tg-file-1", ChatID: "c1"},
		{DestinationID: "tg-file-1", ChatID: "c2"},
	}, f.dest.Sends())
}

func TestCreateTaskWithReuseCheck_ReuseFailureLeavesTaskPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.submit(t, happyURL, "c1")
	_, err := f.uc.ProcessTask(ctx, first.DownloadID)
	require.NoError(t, err)

	uc := f.withResults(brokenResults{UseCase: f.resultUC, reuseErr: apperrors.New(apperrors.KindInternal, "insert failed")})
	task, reused, err := uc.CreateTaskWithReuseCheck(ctx, models.NewTask(happyURL, models.DestinationTypeTelegram, "c2", "c2"))
	require.NoError(t, err)
	assert.False(t, reused)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Nil(t, task.DownloadStartedAt)

	pending, err := f.uc.PendingOrdered(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, task.ID, pending[0].ID)
}

func TestProcessTask_PrimaryFlagFailureDoesNotComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := f.withResults(brokenResults{UseCase: f.resultUC, primaryErr: apperrors.New(apperrors.KindInternal, "write failed")})

	submitted := f.submit(t, happyURL, "c1")
	_, err := uc.ProcessTask(ctx, submitted.DownloadID)
	require.Error(t, err)

	task, err := f.uc.GetTaskWithResults(ctx, submitted.DownloadID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	require.Len(t, task.Results, 1)
	assert.False(t, task.Results[0].IsPrimaryResult)
}

func TestProcessTask_RetryAfterUpstreamFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.source.DownloadErr = apperrors.New(apperrors.KindUpstream, "HTTP Error 500")

	submitted := f.submit(t, "https://youtu.be/bad", "c1")
	_, err := f.uc.ProcessTask(ctx, submitted.DownloadID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))

	task, err := f.uc.GetTask(ctx, submitted.DownloadID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Equal(t, "Failed to process task: HTTP Error 500", task.ErrorText())
	assert.Equal(t, 0, task.RetryCount)

	retryable, err := f.uc.Retryable(ctx)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.Equal(t, task.ID, retryable[0].ID)

	task, err = f.uc.RetryTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, 1, task.RetryCount)
	assert.Nil(t, task.ErrorMessage)
	assert.Nil(t, task.DownloadStartedAt)

	f.source.DownloadErr = nil
	result, err := f.uc.ProcessTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, result.IsPrimaryResult)

	task, err = f.uc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, 1, task.RetryCount)
}

func TestRetryTask_RejectsExhaustedOrActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task := models.NewTask(happyURL, models.DestinationTypeTelegram, "u", "c")
	task.Status = models.TaskStatusFailed
	task.RetryCount = task.MaxRetries
	require.NoError(t, f.taskRepo.Create(ctx, task))
	_, err := f.uc.RetryTask(ctx, task.ID)
	assert.True(t, apperrors.IsConflict(err))

	pending := f.submit(t, "https://youtu.be/other", "c")
	_, err = f.uc.RetryTask(ctx, pending.DownloadID)
	assert.True(t, apperrors.IsConflict(err))

	_, err = f.uc.RetryTask(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCancelTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	submitted := f.submit(t, happyURL, "c1")
	task, err := f.uc.CancelTask(ctx, submitted.DownloadID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCancelled, task.Status)

	again, err := f.uc.CancelTask(ctx, submitted.DownloadID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCancelled, again.Status)
	assert.True(t, task.UpdatedAt.Equal(again.UpdatedAt), "second cancel is a no-op")

	_, err = f.uc.ProcessTask(ctx, submitted.DownloadID)
	assert.True(t, apperrors.IsConflict(err))

	retried, err := f.uc.RetryTask(ctx, submitted.DownloadID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, retried.Status)
	_, err = f.uc.ProcessTask(ctx, submitted.DownloadID)
	require.NoError(t, err)

	_, err = f.uc.CancelTask(ctx, submitted.DownloadID)
	assert.True(t, apperrors.IsConflict(err))
}

func TestProcessTask_CancelledWhileUploading(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.dest.OnUpload = func(task *models.Task) {
		_, err := f.uc.CancelTask(ctx, task.ID)
		require.NoError(t, err)
	}

	submitted := f.submit(t, happyURL, "c1")
	_, err := f.uc.ProcessTask(ctx, submitted.DownloadID)
	assert.True(t, apperrors.IsConflict(err))

	task, err := f.uc.GetTaskWithResults(ctx, submitted.DownloadID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCancelled, task.Status)
	assert.Nil(t, task.ErrorMessage)
	require.Len(t, task.Results, 1)
	assert.Equal(t, models.TaskStatusCompleted, task.Results[0].Status)
	assert.False(t, task.Results[0].IsPrimaryResult)
	assert.Empty(t, f.dest.Sends())
}

func TestProcessTask_FileSizeLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("configured maximum", func(t *testing.T) {
		f := newFixture(t)
		f.gate.accept = false
		submitted := f.submit(t, happyURL, "c1")
		_, err := f.uc.ProcessTask(ctx, submitted.DownloadID)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

		task, err := f.uc.GetTaskWithResults(ctx, submitted.DownloadID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusFailed, task.Status)
		assert.Empty(t, task.Results)
		assert.Empty(t, f.dest.Uploads())
	})

	t.Run("destination maximum", func(t *testing.T) {
		f := newFixture(t)
		f.dest.MaxSize = 4
		submitted := f.submit(t, happyURL, "c1")
		_, err := f.uc.ProcessTask(ctx, submitted.DownloadID)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		_, statErr := os.Stat(filepath.Join(f.tempDir, submitted.DownloadID))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestProcessTask_UploadAndSendFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("upload", func(t *testing.T) {
		f := newFixture(t)
		f.dest.UploadErr = apperrors.New(apperrors.KindUpstream, "Request Entity Too Large")
		submitted := f.submit(t, happyURL, "c1")
		_, err := f.uc.ProcessTask(ctx, submitted.DownloadID)
		require.Error(t, err)

		task, err := f.uc.GetTaskWithResults(ctx, submitted.DownloadID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusFailed, task.Status)
		assert.Equal(t, "Failed to process task: Request Entity Too Large", task.ErrorText())
		require.Len(t, task.Results, 1)
		assert.Equal(t, models.TaskStatusFailed, task.Results[0].Status)
	})

	t.Run("send", func(t *testing.T) {
		f := newFixture(t)
		f.dest.SendErr = apperrors.New(apperrors.KindUpstream, "Forbidden: bot was blocked by the user")
		submitted := f.submit(t, happyURL, "c1")
		_, err := f.uc.ProcessTask(ctx, submitted.DownloadID)
		require.Error(t, err)

		task, err := f.uc.GetTaskWithResults(ctx, submitted.DownloadID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusFailed, task.Status)
		require.Len(t, task.Results, 1)
		assert.Equal(t, models.TaskStatusCompleted, task.Results[0].Status)
		assert.False(t, task.Results[0].IsPrimaryResult)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)
		f.dest.ValidateErr = apperrors.New(apperrors.KindValidation, "chat id is required")
		submitted := f.submit(t, happyURL, "c1")
		_, err := f.uc.ProcessTask(ctx, submitted.DownloadID)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Empty(t, f.source.Downloads())

		task, err := f.uc.GetTask(ctx, submitted.DownloadID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusFailed, task.Status)
	})
}

func TestProcessTask_MissingTask(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.ProcessTask(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProcessTasks_ContinuesOnError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.submit(t, "https://youtu.be/a", "c1")
	b := f.submit(t, "https://youtu.be/b", "c1")

	processed := f.uc.ProcessTasks(ctx, []string{a.DownloadID, "missing", b.DownloadID})
	assert.Len(t, processed, 2)
}

func TestStuckProcessingAndMarkFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task := models.NewTask(happyURL, models.DestinationTypeTelegram, "u", "c")
	task.Status = models.TaskStatusProcessing
	task.UpdatedAt = models.Now().Add(-2*time.Hour - time.Second)
	require.NoError(t, f.taskRepo.Create(ctx, task))

	stuck, err := f.uc.StuckProcessing(ctx, models.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	require.Len(t, stuck, 1)

	failed, err := f.uc.MarkFailed(ctx, task.ID, "Task was stuck in processing state for too long")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, failed.Status)
	assert.NotNil(t, failed.DownloadCompletedAt)
	assert.True(t, failed.CanRetry())

	_, err = f.uc.MarkFailed(ctx, task.ID, "again")
	assert.True(t, apperrors.IsConflict(err))
}

func TestUpdateStatusAndProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	submitted := f.submit(t, happyURL, "c1")

	progress, err := f.uc.Progress(ctx, submitted.DownloadID)
	require.NoError(t, err)
	assert.Equal(t, "pending", progress.Stage)

	_, err = f.uc.MarkStarted(ctx, submitted.DownloadID)
	require.NoError(t, err)
	require.NoError(t, f.redisRepo.SetProgress(ctx, &models.TaskProgress{
		TaskID: submitted.DownloadID, Percent: 42, ETASeconds: 7, Stage: "downloading",
	}))
	progress, err = f.uc.Progress(ctx, submitted.DownloadID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, progress.Percent)
	assert.Equal(t, int64(7), progress.ETASeconds)

	task, err := f.uc.UpdateStatus(ctx, submitted.DownloadID, models.TaskStatusFailed, "operator stop")
	require.NoError(t, err)
	assert.Equal(t, "operator stop", task.ErrorText())

	_, err = f.uc.UpdateStatus(ctx, submitted.DownloadID, models.TaskStatus("BOGUS"), "")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestIngestion_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.ingestion.Submit(ctx, &models.TaskSubmission{URL: "   "})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)

	res, err = f.ingestion.Submit(ctx, &models.TaskSubmission{URL: happyURL, ChatID: "c", DestinationType: "carrier-pigeon"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.False(t, res.Success)

	// S3 is a known kind but not registered in this fixture.
	_, err = f.ingestion.Submit(ctx, &models.TaskSubmission{URL: happyURL, ChatID: "c", DestinationType: "s3"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	retries := 5
	res, err = f.ingestion.Submit(ctx, &models.TaskSubmission{
		URL:        happyURL,
		ChatID:     "c9",
		UserID:     "u9",
		Format:     "MKV",
		Priority:   3,
		MaxRetries: &retries,
	})
	require.NoError(t, err)
	task, err := f.uc.GetTask(ctx, res.DownloadID)
	require.NoError(t, err)
	assert.Equal(t, "u9", task.UserID)
	assert.Equal(t, "mkv", task.RequestedFormat)
	assert.Equal(t, 3, task.Priority)
	assert.Equal(t, 5, task.MaxRetries)
}

func TestStatisticsAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	done := f.submit(t, happyURL, "c1")
	_, err := f.uc.ProcessTask(ctx, done.DownloadID)
	require.NoError(t, err)
	f.submit(t, "https://youtu.be/other", "c1")

	stats, err := f.uc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(2), stats.BySourceType[models.SourceTypeYouTube])

	require.NoError(t, f.uc.DeleteTask(ctx, done.DownloadID))
	_, err = f.uc.GetTask(ctx, done.DownloadID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(f.uc.DeleteTask(ctx, done.DownloadID)))
}

func TestFetchMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	meta, err := f.uc.FetchMetadata(ctx, happyURL)
	require.NoError(t, err)
	assert.Equal(t, "test video", meta.Title)

	formats, err := f.uc.ListFormats(ctx, happyURL)
	require.NoError(t, err)
	assert.Contains(t, formats, "formats")

	_, err = f.uc.FetchMetadata(ctx, "")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	_, err = f.uc.FetchMetadata(ctx, "https://vimeo.com/1")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
