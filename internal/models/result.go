package models

import (
	"time"

	"github.com/google/uuid"
)

type Result struct {
	ID                  string          `json:"id" db:"id"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
	Status              TaskStatus      `json:"status" db:"status"`
	Priority            int             `json:"priority" db:"priority"`
	RetryCount          int             `json:"retry_count" db:"retry_count"`
	MaxRetries          int             `json:"max_retries" db:"max_retries"`
	ErrorMessage        *string         `json:"error_message,omitempty" db:"error_message"`
	Metadata            *string         `json:"metadata,omitempty" db:"metadata"`
	TaskID              *string         `json:"task_id,omitempty" db:"task_id"`
	SourceURL           string          `json:"source_url" db:"source_url"`
	DestinationType     DestinationType `json:"destination_type" db:"destination_type"`
	DestinationID       *string         `json:"destination_id,omitempty" db:"destination_id"`
	FileName            *string         `json:"file_name,omitempty" db:"file_name"`
	FileSizeBytes       *int64          `json:"file_size_bytes,omitempty" db:"file_size_bytes"`
	FileFormat          *string         `json:"file_format,omitempty" db:"file_format"`
	DurationSeconds     *int64          `json:"duration_seconds,omitempty" db:"duration_seconds"`
	Resolution          *string         `json:"resolution,omitempty" db:"resolution"`
	Bitrate             *int64          `json:"bitrate,omitempty" db:"bitrate"`
	FPS                 *float64        `json:"fps,omitempty" db:"fps"`
	Codec               *string         `json:"codec,omitempty" db:"codec"`
	ThumbnailURL        *string         `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	DownloadURL         *string         `json:"download_url,omitempty" db:"download_url"`
	UploadStartedAt     *time.Time      `json:"upload_started_at,omitempty" db:"upload_started_at"`
	UploadCompletedAt   *time.Time      `json:"upload_completed_at,omitempty" db:"upload_completed_at"`
	ProcessingTimeMs    *int64          `json:"processing_time_ms,omitempty" db:"processing_time_ms"`
	UploadTimeMs        *int64          `json:"upload_time_ms,omitempty" db:"upload_time_ms"`
	DestinationMetadata *string         `json:"destination_metadata,omitempty" db:"destination_metadata"`
	IsPrimaryResult     bool            `json:"is_primary_result" db:"is_primary_result"`
}

// NewResult builds a PENDING result owned by task for the given destination.
func NewResult(task *Task, destination DestinationType) *Result {
	now := Now()
	taskID := task.ID
	return &Result{
		ID:              uuid.New().String(),
		CreatedAt:       now,
		UpdatedAt:       now,
		Status:          TaskStatusPending,
		Priority:        task.Priority,
		MaxRetries:      task.MaxRetries,
		TaskID:          &taskID,
		SourceURL:       task.SourceURL,
		DestinationType: destination,
	}
}

func (r *Result) SetError(message string) {
	if message == "" {
		r.ErrorMessage = nil
		return
	}
	truncated := TruncateRunes(message, MaxErrorMessageLength)
	r.ErrorMessage = &truncated
}

func (r *Result) Touch() {
	r.UpdatedAt = Now()
}

// CloneFileFacts copies the file description of src into r.
func (r *Result) CloneFileFacts(src *Result) {
	r.DestinationID = src.DestinationID
	r.FileName = src.FileName
	r.FileSizeBytes = src.FileSizeBytes
	r.FileFormat = src.FileFormat
	r.DurationSeconds = src.DurationSeconds
	r.Resolution = src.Resolution
	r.Bitrate = src.Bitrate
	r.FPS = src.FPS
	r.Codec = src.Codec
	r.ThumbnailURL = src.ThumbnailURL
	r.DownloadURL = src.DownloadURL
	r.DestinationMetadata = src.DestinationMetadata
}

type ResultList struct {
	Results    []*Result `json:"results"`
	TotalCount int       `json:"total_count"`
	TotalPages int       `json:"total_pages"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	HasMore    bool      `json:"has_more"`
}

type ResultCriteria struct {
	TaskID          *string
	DestinationType *DestinationType
	Status          *TaskStatus
	FileFormat      *string
	IsPrimary       *bool
}
