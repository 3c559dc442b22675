package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultFormat     = "mp4"
	DefaultQuality    = "best"
	DefaultResolution = "720p"
	DefaultMaxRetries = 3

	MaxErrorMessageLength = 1000
)

type Task struct {
	ID                       string          `json:"id" db:"id"`
	CreatedAt                time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at" db:"updated_at"`
	Status                   TaskStatus      `json:"status" db:"status"`
	Priority                 int             `json:"priority" db:"priority"`
	RetryCount               int             `json:"retry_count" db:"retry_count"`
	MaxRetries               int             `json:"max_retries" db:"max_retries"`
	ErrorMessage             *string         `json:"error_message,omitempty" db:"error_message"`
	Metadata                 *string         `json:"metadata,omitempty" db:"metadata"`
	SourceURL                string          `json:"source_url" db:"source_url"`
	SourceType               SourceType      `json:"source_type" db:"source_type"`
	DestinationType          DestinationType `json:"destination_type" db:"destination_type"`
	DestinationConfig        *string         `json:"destination_config,omitempty" db:"destination_config"`
	UserID                   string          `json:"user_id" db:"user_id"`
	ChatID                   string          `json:"chat_id" db:"chat_id"`
	RequestedFormat          string          `json:"requested_format" db:"requested_format"`
	RequestedQuality         string          `json:"requested_quality" db:"requested_quality"`
	RequestedResolution      string          `json:"requested_resolution" db:"requested_resolution"`
	DownloadStartedAt        *time.Time      `json:"download_started_at,omitempty" db:"download_started_at"`
	DownloadCompletedAt      *time.Time      `json:"download_completed_at,omitempty" db:"download_completed_at"`
	EstimatedDurationSeconds *int64          `json:"estimated_duration_seconds,omitempty" db:"estimated_duration_seconds"`
	FileSizeBytes            *int64          `json:"file_size_bytes,omitempty" db:"file_size_bytes"`
	TempFilePath             *string         `json:"temp_file_path,omitempty" db:"temp_file_path"`

	Results []*Result `json:"results,omitempty" db:"-"`
}

// NewTask builds a PENDING task with a fresh id and request defaults applied.
func NewTask(sourceURL string, destination DestinationType, userID, chatID string) *Task {
	now := Now()
	return &Task{
		ID:                  uuid.New().String(),
		CreatedAt:           now,
		UpdatedAt:           now,
		Status:              TaskStatusPending,
		MaxRetries:          DefaultMaxRetries,
		SourceURL:           sourceURL,
		SourceType:          SourceTypeFromURL(sourceURL),
		DestinationType:     destination,
		UserID:              userID,
		ChatID:              chatID,
		RequestedFormat:     DefaultFormat,
		RequestedQuality:    DefaultQuality,
		RequestedResolution: DefaultResolution,
	}
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries &&
		(t.Status == TaskStatusFailed || t.Status == TaskStatusCancelled)
}

func (t *Task) CanCancel() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusProcessing
}

func (t *Task) ErrorText() string {
	if t.ErrorMessage == nil {
		return ""
	}
	return *t.ErrorMessage
}

func (t *Task) SetError(message string) {
	if message == "" {
		t.ErrorMessage = nil
		return
	}
	truncated := TruncateRunes(message, MaxErrorMessageLength)
	t.ErrorMessage = &truncated
}

// Touch advances updated_at.
func (t *Task) Touch() {
	t.UpdatedAt = Now()
}

type TaskList struct {
	Tasks      []*Task `json:"tasks"`
	TotalCount int     `json:"total_count"`
	TotalPages int     `json:"total_pages"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	HasMore    bool    `json:"has_more"`
}

// TaskCriteria filters a task search; nil fields do not filter.
type TaskCriteria struct {
	UserID          *string
	ChatID          *string
	Status          *TaskStatus
	SourceType      *SourceType
	DestinationType *DestinationType
}

// TaskSubmission is the ingestion request.
type TaskSubmission struct {
	URL               string `json:"url" validate:"required,url,lte=1000"`
	ChatID            string `json:"chat_id" validate:"omitempty,lte=100"`
	UserID            string `json:"user_id" validate:"omitempty,lte=100"`
	DestinationType   string `json:"destination_type" validate:"omitempty,lte=50"`
	DestinationConfig string `json:"destination_config" validate:"omitempty"`
	Format            string `json:"format" validate:"omitempty,alphanum,lte=50"`
	Quality           string `json:"quality" validate:"omitempty,lte=50"`
	Resolution        string `json:"resolution" validate:"omitempty,lte=50"`
	Priority          int    `json:"priority"`
	MaxRetries        *int   `json:"max_retries" validate:"omitempty,gte=0,lte=20"`
	Metadata          string `json:"metadata" validate:"omitempty"`
}

type SubmissionResult struct {
	Success    bool       `json:"success"`
	DownloadID string     `json:"download_id,omitempty"`
	Status     TaskStatus `json:"status,omitempty"`
	Reused     bool       `json:"reused"`
	Error      string     `json:"error,omitempty"`
}

// Now is the wall clock used for persisted timestamps: UTC, microsecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func StringPtr(s string) *string {
	return &s
}

func Int64Ptr(v int64) *int64 {
	return &v
}

func TimePtr(t time.Time) *time.Time {
	return &t
}
