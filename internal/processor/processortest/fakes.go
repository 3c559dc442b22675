// Package processortest provides in-memory source and destination processors
// for tests of code that drives a processor.Registry.
package processortest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
)

type Source struct {
	Kind models.SourceType
	// Dir receives one directory per downloaded task.
	Dir     string
	Content []byte

	ValidateErr error
	DownloadErr error
	Metadata    *processor.VideoMetadata
	MetadataErr error
	// Release, when set, holds Download until it is closed or ctx ends.
	Release chan struct{}
	// OnDownload runs before Download returns.
	OnDownload func(task *models.Task)

	mu        sync.Mutex
	downloads []string
}

func NewSource(kind models.SourceType, dir string) *Source {
	return &Source{Kind: kind, Dir: dir, Content: []byte("video-bytes")}
}

func (s *Source) SupportedType() models.SourceType { return s.Kind }

func (s *Source) CanHandle(url string) bool {
	return models.SourceTypeFromURL(url) == s.Kind
}

func (s *Source) Validate(task *models.Task) error { return s.ValidateErr }

func (s *Source) FetchMetadata(ctx context.Context, url string) (*processor.VideoMetadata, error) {
	if s.MetadataErr != nil {
		return nil, s.MetadataErr
	}
	if s.Metadata != nil {
		return s.Metadata, nil
	}
	return &processor.VideoMetadata{Title: "test video", DurationSeconds: 10, Format: "mp4"}, nil
}

func (s *Source) ListFormats(ctx context.Context, url string) (map[string]interface{}, error) {
	if s.MetadataErr != nil {
		return nil, s.MetadataErr
	}
	return map[string]interface{}{
		"title":   "test video",
		"formats": []map[string]interface{}{{"format_id": "18", "ext": "mp4"}},
	}, nil
}

func (s *Source) Download(ctx context.Context, task *models.Task, progress processor.ProgressFunc) (*processor.DownloadedFile, error) {
	s.mu.Lock()
	s.downloads = append(s.downloads, task.ID)
	s.mu.Unlock()

	if s.Release != nil {
		select {
		case <-s.Release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.OnDownload != nil {
		s.OnDownload(task)
	}
	if s.DownloadErr != nil {
		return nil, s.DownloadErr
	}

	dir := filepath.Join(s.Dir, task.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(path, s.Content, 0o644); err != nil {
		return nil, err
	}
	if progress != nil {
		progress(50, 5)
		progress(100, 0)
	}
	return &processor.DownloadedFile{
		Path:   path,
		Dir:    dir,
		Name:   "video.mp4",
		Size:   int64(len(s.Content)),
		Format: "mp4",
	}, nil
}

func (s *Source) Downloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.downloads...)
}

// Send is one SendByID call.
type Send struct {
	DestinationID string
	ChatID        string
}

type Destination struct {
	Kind      models.DestinationType
	MaxSize   int64
	Deletable bool

	ValidateErr error
	UploadErr   error
	SendErr     error
	DeleteErr   error
	Unavailable bool
	// OnUpload runs before Upload returns.
	OnUpload func(task *models.Task)
	// OnSend runs before SendByID records the send.
	OnSend func(task *models.Task)

	mu      sync.Mutex
	nextID  int
	uploads []string
	sends   []Send
	deleted []string
}

func NewDestination(kind models.DestinationType) *Destination {
	return &Destination{Kind: kind, MaxSize: 1 << 30}
}

func (d *Destination) SupportedType() models.DestinationType { return d.Kind }

func (d *Destination) Validate(ctx context.Context, task *models.Task) error { return d.ValidateErr }

func (d *Destination) Upload(ctx context.Context, file *processor.DownloadedFile, task *models.Task, result *models.Result) (string, error) {
	if d.OnUpload != nil {
		d.OnUpload(task)
	}
	if d.UploadErr != nil {
		return "", d.UploadErr
	}

	d.mu.Lock()
	d.nextID++
	id := fmt.Sprintf("%s-file-%d", d.Kind.Code(), d.nextID)
	d.uploads = append(d.uploads, task.ID)
	d.mu.Unlock()

	result.FileName = models.StringPtr(file.Name)
	result.FileSizeBytes = models.Int64Ptr(file.Size)
	result.FileFormat = models.StringPtr(file.Format)
	return id, nil
}

func (d *Destination) SendByID(ctx context.Context, result *models.Result, task *models.Task) error {
	if d.OnSend != nil {
		d.OnSend(task)
	}
	d.mu.Lock()
	d.sends = append(d.sends, Send{DestinationID: *result.DestinationID, ChatID: task.ChatID})
	d.mu.Unlock()
	return d.SendErr
}

func (d *Destination) GetInfo(ctx context.Context, destinationID string) (map[string]interface{}, error) {
	return map[string]interface{}{"destination_id": destinationID}, nil
}

func (d *Destination) Delete(ctx context.Context, destinationID string) (bool, error) {
	if d.DeleteErr != nil {
		return false, d.DeleteErr
	}
	if !d.Deletable {
		return false, nil
	}
	d.mu.Lock()
	d.deleted = append(d.deleted, destinationID)
	d.mu.Unlock()
	return true, nil
}

func (d *Destination) MaxFileSize() int64 { return d.MaxSize }

func (d *Destination) SupportedFormats() []string { return []string{"mp4"} }

func (d *Destination) IsAvailable(ctx context.Context) bool { return !d.Unavailable }

func (d *Destination) Uploads() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.uploads...)
}

func (d *Destination) Sends() []Send {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Send(nil), d.sends...)
}

func (d *Destination) Deleted() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.deleted...)
}
