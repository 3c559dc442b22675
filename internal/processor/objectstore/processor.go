package objectstore

import (
	"context"
	"encoding/json"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
)

const (
	MaxFileSize int64 = 5 * 1024 * 1024 * 1024

	defaultKeyPrefix     = "downloads"
	defaultPresignExpiry = 7 * 24 * time.Hour
)

var videoContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".flv":  "video/x-flv",
	".wmv":  "video/x-ms-wmv",
}

type objectProcessor struct {
	store         Store
	keyPrefix     string
	presignExpiry time.Duration
	logger        logger.Logger
}

// NewProcessor stores downloads as objects. A result's destination id is the object key.
func NewProcessor(store Store, keyPrefix string, presignExpiry time.Duration, logger logger.Logger) processor.DestinationProcessor {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if presignExpiry <= 0 {
		presignExpiry = defaultPresignExpiry
	}
	return &objectProcessor{
		store:         store,
		keyPrefix:     strings.Trim(keyPrefix, "/"),
		presignExpiry: presignExpiry,
		logger:        logger,
	}
}

func (p *objectProcessor) SupportedType() models.DestinationType {
	return models.DestinationTypeS3
}

func (p *objectProcessor) Validate(ctx context.Context, task *models.Task) error {
	if err := p.store.HeadBucket(ctx); err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, err, "destination unavailable")
	}
	return nil
}

func (p *objectProcessor) Upload(ctx context.Context, file *processor.DownloadedFile, task *models.Task, result *models.Result) (string, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "failed to open upload file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "failed to stat upload file")
	}
	size := info.Size()
	if size > MaxFileSize {
		return "", apperrors.Newf(apperrors.KindValidation, "file of %d bytes exceeds the %d byte object limit", size, MaxFileSize)
	}

	key := p.objectKey(task.ID, file.Name)
	contentType := contentTypeOf(file.Name)
	p.logger.Infof("objectstore.Upload - task %s: %d bytes to %s", task.ID, size, key)
	if err = p.store.PutObject(ctx, key, f, size, contentType); err != nil {
		return "", err
	}

	url, err := p.store.PresignGet(ctx, key, p.presignExpiry)
	if err != nil {
		p.logger.Warnf("objectstore.Upload - presign of %s failed: %v", key, err)
	} else {
		result.DownloadURL = &url
	}

	name := file.Name
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if format == "" {
		format = "unknown"
	}
	result.FileName = &name
	result.FileSizeBytes = &size
	result.FileFormat = &format
	if meta, err := json.Marshal(map[string]interface{}{
		"key":          key,
		"content_type": contentType,
	}); err == nil {
		result.DestinationMetadata = models.StringPtr(string(meta))
	}
	return key, nil
}

// SendByID has nothing to post: objects are fetched through their download URL.
func (p *objectProcessor) SendByID(ctx context.Context, result *models.Result, task *models.Task) error {
	p.logger.Debugf("objectstore.SendByID - result %s is served by URL, nothing to send for task %s", result.ID, task.ID)
	return nil
}

func (p *objectProcessor) GetInfo(ctx context.Context, destinationID string) (map[string]interface{}, error) {
	info, err := p.store.HeadObject(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{
		"key":            info.Key,
		"content_length": info.ContentLength,
		"content_type":   info.ContentType,
		"etag":           info.ETag,
	}
	if info.LastModified != nil {
		out["last_modified"] = info.LastModified.UTC()
	}
	return out, nil
}

func (p *objectProcessor) Delete(ctx context.Context, destinationID string) (bool, error) {
	if err := p.store.RemoveObject(ctx, destinationID); err != nil {
		return false, err
	}
	return true, nil
}

func (p *objectProcessor) MaxFileSize() int64 {
	return MaxFileSize
}

// SupportedFormats is empty: any file can be stored.
func (p *objectProcessor) SupportedFormats() []string {
	return []string{}
}

func (p *objectProcessor) IsAvailable(ctx context.Context) bool {
	if err := p.store.HeadBucket(ctx); err != nil {
		p.logger.Warnf("objectstore.IsAvailable - %v", err)
		return false
	}
	return true
}

func (p *objectProcessor) objectKey(taskID, fileName string) string {
	return path.Join(p.keyPrefix, taskID, path.Base(filepath.ToSlash(fileName)))
}

func contentTypeOf(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := videoContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
