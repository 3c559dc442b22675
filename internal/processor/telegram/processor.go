package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/config"
	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	OfficialMaxFileSize int64 = 50 * 1024 * 1024
	LocalMaxFileSize    int64 = 2 * 1024 * 1024 * 1024

	maxCaptionLength = 1024

	// deliveredTTL bounds how long an upload to the task chat stands in for
	// the SendByID that normally follows it.
	deliveredTTL = time.Hour
)

var videoFormats = []string{"mp4", "avi", "mov", "wmv", "flv", "webm", "mkv"}

type telegramProcessor struct {
	cfg      *config.TelegramConfig
	official *Client
	local    *Client
	logger   logger.Logger

	// delivered maps file|chat to the upload time for uploads that already
	// reached the task chat, so the following SendByID does not post twice.
	delivered sync.Map
	now       func() time.Time
}

func NewProcessor(cfg *config.TelegramConfig, logger logger.Logger) processor.DestinationProcessor {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	p := &telegramProcessor{
		cfg:      cfg,
		official: NewClient(cfg.OfficialAPIURL, cfg.BotToken, timeout),
		logger:   logger,
		now:      time.Now,
	}
	if cfg.UseLocalAPI {
		p.local = NewClient(cfg.LocalAPIURL, cfg.BotToken, timeout)
	}
	return p
}

func (p *telegramProcessor) SupportedType() models.DestinationType {
	return models.DestinationTypeTelegram
}

func (p *telegramProcessor) Validate(ctx context.Context, task *models.Task) error {
	if strings.TrimSpace(task.ChatID) == "" {
		return apperrors.New(apperrors.KindValidation, "chat id is required for Telegram delivery")
	}
	if strings.TrimSpace(task.UserID) == "" {
		return apperrors.New(apperrors.KindValidation, "user id is required for Telegram delivery")
	}
	if _, err := p.client().GetMe(ctx); err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, err, "destination unavailable")
	}
	return nil
}

func (p *telegramProcessor) Upload(ctx context.Context, file *processor.DownloadedFile, task *models.Task, result *models.Result) (string, error) {
	size := file.Size
	if size <= 0 {
		info, err := os.Stat(file.Path)
		if err != nil {
			return "", apperrors.Wrap(apperrors.KindInternal, err, "failed to stat upload file")
		}
		size = info.Size()
	}

	client, api, err := p.clientFor(size)
	if err != nil {
		return "", err
	}

	chatID := p.uploadChat(task)
	format := fileFormat(file.Name)
	p.logger.Infof("telegram.Upload - task %s: %d bytes to chat %s via %s API", task.ID, size, chatID, api)

	msg, err := client.Send(ctx, &Send{
		ChatID:  chatID,
		File:    tgbotapi.FilePath(file.Path),
		Caption: BuildCaption(task),
		AsVideo: isVideoFormat(format),
	})
	if err != nil {
		return "", err
	}
	ref := attachmentOf(msg)
	if ref == nil || ref.fileID == "" {
		return "", apperrors.New(apperrors.KindUpstream, "telegram response carried no file id")
	}

	now := p.now()
	p.forgetDeliveredBefore(now.Add(-deliveredTTL))
	if chatID == task.ChatID {
		p.delivered.Store(deliveryKey(ref.fileID, chatID), now)
	}

	name := file.Name
	result.FileName = &name
	result.FileSizeBytes = &size
	result.FileFormat = &format
	if ref.duration > 0 {
		result.DurationSeconds = models.Int64Ptr(int64(ref.duration))
	}
	if ref.width > 0 && ref.height > 0 {
		result.Resolution = models.StringPtr(fmt.Sprintf("%dx%d", ref.width, ref.height))
	}
	if meta, err := json.Marshal(map[string]interface{}{
		"message_id":     msg.MessageID,
		"chat_id":        chatID,
		"api":            api,
		"file_unique_id": ref.uniqueID,
	}); err == nil {
		result.DestinationMetadata = models.StringPtr(string(meta))
	}
	return ref.fileID, nil
}

// SendByID posts the stored file to the task chat, as a video or a document
// depending on the format it was uploaded with.
func (p *telegramProcessor) SendByID(ctx context.Context, result *models.Result, task *models.Task) error {
	if strings.TrimSpace(task.ChatID) == "" {
		return apperrors.New(apperrors.KindValidation, "chat id is required for Telegram delivery")
	}
	if result.DestinationID == nil || *result.DestinationID == "" {
		return apperrors.Newf(apperrors.KindValidation, "result %s has no Telegram file id", result.ID)
	}
	fileID := *result.DestinationID

	if at, ok := p.delivered.LoadAndDelete(deliveryKey(fileID, task.ChatID)); ok && p.now().Sub(at.(time.Time)) < deliveredTTL {
		p.logger.Debugf("telegram.SendByID - %s already delivered to chat %s on upload", fileID, task.ChatID)
		return nil
	}

	asVideo := result.FileFormat == nil || isVideoFormat(*result.FileFormat)
	_, err := p.client().Send(ctx, &Send{
		ChatID:  task.ChatID,
		File:    tgbotapi.FileID(fileID),
		Caption: BuildCaption(task),
		AsVideo: asVideo,
	})
	return err
}

func (p *telegramProcessor) GetInfo(ctx context.Context, destinationID string) (map[string]interface{}, error) {
	file, err := p.client().GetFile(ctx, destinationID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "file_id") {
			return nil, apperrors.Wrap(apperrors.KindNotFound, err, "telegram file not found")
		}
		return nil, err
	}
	return map[string]interface{}{
		"file_id":        file.FileID,
		"file_unique_id": file.FileUniqueID,
		"file_size":      file.FileSize,
		"file_path":      file.FilePath,
	}, nil
}

// Delete always reports false: the Bot API has no call that removes a stored file.
func (p *telegramProcessor) Delete(ctx context.Context, destinationID string) (bool, error) {
	p.logger.Warnf("telegram.Delete - file %s cannot be deleted through the Bot API", destinationID)
	return false, nil
}

func (p *telegramProcessor) MaxFileSize() int64 {
	if p.local != nil {
		return LocalMaxFileSize
	}
	return OfficialMaxFileSize
}

func (p *telegramProcessor) SupportedFormats() []string {
	formats := make([]string, len(videoFormats))
	copy(formats, videoFormats)
	return formats
}

func (p *telegramProcessor) IsAvailable(ctx context.Context) bool {
	user, err := p.client().GetMe(ctx)
	if err != nil {
		p.logger.Warnf("telegram.IsAvailable - getMe failed: %v", err)
		return false
	}
	p.logger.Debugf("telegram.IsAvailable - bot @%s is healthy", user.UserName)
	return true
}

// clientFor routes files above the official cap to the local Bot API server.
func (p *telegramProcessor) clientFor(size int64) (*Client, string, error) {
	if size <= OfficialMaxFileSize {
		return p.official, "official", nil
	}
	if p.local == nil {
		return nil, "", apperrors.Newf(apperrors.KindValidation,
			"file of %d bytes exceeds the %d byte official API limit and the local API is disabled", size, OfficialMaxFileSize)
	}
	if size > LocalMaxFileSize {
		return nil, "", apperrors.Newf(apperrors.KindValidation,
			"file of %d bytes exceeds the %d byte local API limit", size, LocalMaxFileSize)
	}
	return p.local, "local", nil
}

func (p *telegramProcessor) client() *Client {
	if p.local != nil {
		return p.local
	}
	return p.official
}

func (p *telegramProcessor) uploadChat(task *models.Task) string {
	if p.cfg.DefaultChatID != "" {
		return p.cfg.DefaultChatID
	}
	return task.ChatID
}

// BuildCaption describes the task a video was downloaded for.
func BuildCaption(task *models.Task) string {
	var b strings.Builder
	b.WriteString("Video downloaded\n")
	fmt.Fprintf(&b, "Source: %s\n", task.SourceURL)
	fmt.Fprintf(&b, "Download ID: %s\n", task.ID)
	if task.SourceType != "" {
		fmt.Fprintf(&b, "Platform: %s\n", task.SourceType.DisplayName())
	}
	return models.TruncateRunes(b.String(), maxCaptionLength)
}

func fileFormat(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "unknown"
	}
	return ext
}

func isVideoFormat(format string) bool {
	for _, f := range videoFormats {
		if f == format {
			return true
		}
	}
	return false
}

// forgetDeliveredBefore drops delivery marks whose SendByID never came, for
// example because the task was cancelled while uploading.
func (p *telegramProcessor) forgetDeliveredBefore(cutoff time.Time) {
	p.delivered.Range(func(key, value interface{}) bool {
		if value.(time.Time).Before(cutoff) {
			p.delivered.Delete(key)
		}
		return true
	})
}

type attachment struct {
	fileID   string
	uniqueID string
	duration int
	width    int
	height   int
}

func attachmentOf(msg *tgbotapi.Message) *attachment {
	switch {
	case msg.Video != nil:
		v := msg.Video
		return &attachment{fileID: v.FileID, uniqueID: v.FileUniqueID, duration: v.Duration, width: v.Width, height: v.Height}
	case msg.Document != nil:
		return &attachment{fileID: msg.Document.FileID, uniqueID: msg.Document.FileUniqueID}
	case msg.Animation != nil:
		a := msg.Animation
		return &attachment{fileID: a.FileID, uniqueID: a.FileUniqueID, duration: a.Duration, width: a.Width, height: a.Height}
	default:
		return nil
	}
}

func deliveryKey(fileID, chatID string) string {
	return fileID + "|" + chatID
}
