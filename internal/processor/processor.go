package processor

import (
	"context"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
)

// ProgressFunc receives download progress as a percentage and the remaining seconds.
type ProgressFunc func(percent float64, etaSeconds int64)

type VideoMetadata struct {
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	Uploader        string  `json:"uploader,omitempty"`
	ThumbnailURL    string  `json:"thumbnail_url,omitempty"`
	DurationSeconds int64   `json:"duration_seconds"`
	FileSizeBytes   int64   `json:"file_size_bytes,omitempty"`
	Format          string  `json:"format,omitempty"`
	Resolution      string  `json:"resolution,omitempty"`
	Bitrate         int64   `json:"bitrate,omitempty"`
	FPS             float64 `json:"fps,omitempty"`
	Codec           string  `json:"codec,omitempty"`
}

// DownloadedFile is a file a source processor left on local disk. Dir is the
// task scoped directory holding it; the caller removes Dir when done.
type DownloadedFile struct {
	Path   string
	Dir    string
	Name   string
	Size   int64
	Format string
}

type SourceProcessor interface {
	SupportedType() models.SourceType
	CanHandle(url string) bool
	Validate(task *models.Task) error
	FetchMetadata(ctx context.Context, url string) (*VideoMetadata, error)
	ListFormats(ctx context.Context, url string) (map[string]interface{}, error)
	Download(ctx context.Context, task *models.Task, progress ProgressFunc) (*DownloadedFile, error)
}

type DestinationProcessor interface {
	SupportedType() models.DestinationType
	Validate(ctx context.Context, task *models.Task) error
	// Upload stores file and fills the file facts of result. It returns the destination id.
	Upload(ctx context.Context, file *DownloadedFile, task *models.Task, result *models.Result) (string, error)
	// SendByID posts the file stored under result's destination id to the task chat.
	SendByID(ctx context.Context, result *models.Result, task *models.Task) error
	GetInfo(ctx context.Context, destinationID string) (map[string]interface{}, error)
	Delete(ctx context.Context, destinationID string) (bool, error)
	MaxFileSize() int64
	SupportedFormats() []string
	IsAvailable(ctx context.Context) bool
}
