package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceTypeFromURL(t *testing.T) {
	cases := map[string]SourceType{
		"https://youtu.be/abc":                     SourceTypeYouTube,
		"https://WWW.YOUTUBE.COM/watch?v=abc":      SourceTypeYouTube,
		"https://vimeo.com/123":                    SourceTypeVimeo,
		"https://www.tiktok.com/@user/video/1":     SourceTypeTikTok,
		"https://x.com/someone/status/1":           SourceTypeTwitter,
		"https://example.org/video.mp4":            SourceTypeCustom,
		"":                                         SourceTypeCustom,
		"   ":                                      SourceTypeCustom,
		"not a url at all":                         SourceTypeCustom,
		"https://www.instagram.com/reel/abcdef12/": SourceTypeInstagram,
	}
	for url, want := range cases {
		assert.Equal(t, want, SourceTypeFromURL(url), url)
	}
}

func TestSourceTypeFromURLIsTotal(t *testing.T) {
	for _, url := range []string{"a", "http://", "ftp://host/x", "youtube", "https://youtube.com.evil.io/"} {
		assert.True(t, SourceTypeFromURL(url).IsValid(), url)
	}
	assert.Equal(t, SourceTypeCustom, SourceTypeFromURL("https://netflix.com/title/1"))
}

func TestCanRetry(t *testing.T) {
	task := NewTask("https://youtu.be/abc", DestinationTypeTelegram, "u", "c")
	assert.False(t, task.CanRetry(), "pending tasks are not retryable")

	task.Status = TaskStatusFailed
	assert.True(t, task.CanRetry())

	task.Status = TaskStatusCancelled
	assert.True(t, task.CanRetry())

	task.Status = TaskStatusFailed
	task.RetryCount = task.MaxRetries
	assert.False(t, task.CanRetry(), "exhausted retries")
}

func TestNewTaskDefaults(t *testing.T) {
	task := NewTask("https://youtu.be/abc", DestinationTypeTelegram, "u", "c")

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, TaskStatusPending, task.Status)
	assert.Equal(t, SourceTypeYouTube, task.SourceType)
	assert.Equal(t, "mp4", task.RequestedFormat)
	assert.Equal(t, "best", task.RequestedQuality)
	assert.Equal(t, "720p", task.RequestedResolution)
	assert.Equal(t, 3, task.MaxRetries)
	assert.Equal(t, 0, task.Priority)
	assert.Nil(t, task.DownloadStartedAt)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
}

func TestSetErrorTruncates(t *testing.T) {
	task := NewTask("https://youtu.be/abc", DestinationTypeTelegram, "u", "c")
	task.SetError(strings.Repeat("ж", MaxErrorMessageLength+10))
	assert.Equal(t, MaxErrorMessageLength, len([]rune(task.ErrorText())))

	task.SetError("")
	assert.Nil(t, task.ErrorMessage)
}

func TestDestinationTypes(t *testing.T) {
	assert.True(t, DestinationTypeTelegram.IsResendable())
	assert.False(t, DestinationTypeS3.IsResendable())
	assert.Equal(t, []DestinationType{DestinationTypeTelegram}, ResendableDestinationTypes())

	d, ok := ParseDestinationType("tg")
	assert.True(t, ok)
	assert.Equal(t, DestinationTypeTelegram, d)

	d, ok = ParseDestinationType("s3")
	assert.True(t, ok)
	assert.Equal(t, DestinationTypeS3, d)

	_, ok = ParseDestinationType("email")
	assert.False(t, ok)
}
