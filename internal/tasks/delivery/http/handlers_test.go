package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTaskUC struct {
	tasks.UseCase
	tasks    map[string]*models.Task
	criteria *models.TaskCriteria
}

func (s *stubTaskUC) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindNotFound, "task not found: %s", taskID)
	}
	return task, nil
}

func (s *stubTaskUC) CancelTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == models.TaskStatusCompleted {
		return nil, apperrors.Newf(apperrors.KindConflict, "task %s is already %s", taskID, task.Status)
	}
	task.Status = models.TaskStatusCancelled
	return task, nil
}

func (s *stubTaskUC) Search(ctx context.Context, criteria *models.TaskCriteria, pq *utils.Pagination) (*models.TaskList, error) {
	s.criteria = criteria
	return &models.TaskList{Tasks: []*models.Task{}, Page: pq.GetPage(), PageSize: pq.GetLimit()}, nil
}

func (s *stubTaskUC) FetchMetadata(ctx context.Context, url string) (*processor.VideoMetadata, error) {
	if url == "" {
		return nil, apperrors.New(apperrors.KindValidation, "url is required")
	}
	return &processor.VideoMetadata{Title: "clip", DurationSeconds: 12}, nil
}

type stubIngestion struct{}

func (stubIngestion) Submit(ctx context.Context, s *models.TaskSubmission) (*models.SubmissionResult, error) {
	if s.URL == "" {
		err := apperrors.New(apperrors.KindValidation, "invalid submission")
		return &models.SubmissionResult{Error: err.Error()}, err
	}
	return &models.SubmissionResult{Success: true, DownloadID: "t-new", Status: models.TaskStatusPending}, nil
}

func newTestServer() (*echo.Echo, *stubTaskUC) {
	uc := &stubTaskUC{tasks: map[string]*models.Task{
		"t1": {ID: "t1", Status: models.TaskStatusPending},
		"t2": {ID: "t2", Status: models.TaskStatusCompleted},
	}}
	e := echo.New()
	h := NewTaskHandler(uc, stubIngestion{}, logger.NewNopLogger())
	MapTaskRoutes(e.Group("/api/v1/tasks"), h)
	MapVideoRoutes(e.Group("/api/v1/videos"), h)
	return e, uc
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTaskHandler_Submit(t *testing.T) {
	e, _ := newTestServer()

	rec := do(e, http.MethodPost, "/api/v1/tasks", `{"url":"https://youtu.be/abc","chat_id":"c1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var res models.SubmissionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "t-new", res.DownloadID)

	rec = do(e, http.MethodPost, "/api/v1/tasks", `{"chat_id":"c1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res = models.SubmissionResult{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, "invalid submission", res.Error)
}

func TestTaskHandler_ErrorKinds(t *testing.T) {
	e, _ := newTestServer()

	rec := do(e, http.MethodGet, "/api/v1/tasks/t1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/tasks/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperrors.KindNotFound, body.Kind)

	rec = do(e, http.MethodPost, "/api/v1/tasks/t2/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/tasks/t1/cancel", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CANCELLED"`)
}

func TestTaskHandler_Search(t *testing.T) {
	e, uc := newTestServer()

	rec := do(e, http.MethodGet, "/api/v1/tasks?chat_id=c1&status=FAILED&destination_type=tg&page=2&size=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, uc.criteria)
	assert.Equal(t, "c1", *uc.criteria.ChatID)
	assert.Equal(t, models.TaskStatusFailed, *uc.criteria.Status)
	assert.Equal(t, models.DestinationTypeTelegram, *uc.criteria.DestinationType)
	assert.Nil(t, uc.criteria.UserID)
	assert.Contains(t, rec.Body.String(), `"page":2`)

	rec = do(e, http.MethodGet, "/api/v1/tasks?status=DONE", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/tasks?size=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_VideoMetadata(t *testing.T) {
	e, _ := newTestServer()

	rec := do(e, http.MethodGet, "/api/v1/videos/metadata?url=https%3A%2F%2Fyoutu.be%2Fabc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"clip"`)

	rec = do(e, http.MethodGet, "/api/v1/videos/metadata", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
