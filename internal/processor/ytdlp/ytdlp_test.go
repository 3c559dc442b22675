package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeDownloader = `#!/bin/sh
echo "$@" > "$(dirname "$0")/args.txt"
tpl=""
dump=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) shift; tpl="$1" ;;
    --dump-json) dump=1 ;;
  esac
  shift
done
if [ -n "$dump" ]; then
  echo '{"title":"Clip","uploader":"me","duration":61.5,"filesize_approx":2048,"ext":"mp4","width":1280,"height":720,"tbr":1500,"fps":30,"vcodec":"avc1","formats":[{"format_id":"22","ext":"mp4","height":720,"filesize":2048}]}'
  exit 0
fi
echo "[download] Destination: video.mp4"
echo "[download]  10.0% of 1.00MiB at 1.00MiB/s ETA 00:09"
echo "[download]  10.4% of 1.00MiB at 1.00MiB/s ETA 00:09"
echo "[download]  55.5% of 1.00MiB at 1.00MiB/s ETA 01:02"
echo "[download] 100% of 1.00MiB in 00:01"
out=$(echo "$tpl" | sed -e 's/%(title)s/Clip/' -e 's/%(ext)s/mp4/')
printf 'video-bytes' > "$out"
`

const failingDownloader = `#!/bin/sh
echo "ERROR: [youtube] bad: Video unavailable" >&2
exit 1
`

const diskFullDownloader = `#!/bin/sh
echo "ERROR: unable to write data: [Errno 28] No space left on device" >&2
exit 1
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func newTestTask() *models.Task {
	task := models.NewTask("https://youtu.be/abc", models.DestinationTypeTelegram, "u", "c")
	task.RequestedResolution = "1080p"
	return task
}

func TestFormatSelector(t *testing.T) {
	assert.Equal(t, "best[height<=720][ext=mp4]/best[height<=720]/best", FormatSelector("mp4", "best", "720p"))
	assert.Equal(t, "worst[height<=480][ext=webm]/worst[height<=480]/worst", FormatSelector("webm", "worst", "480p"))
	assert.Equal(t, "best[height<=720][ext=mp4]/best[height<=720]/best", FormatSelector("mp4", "medium", ""))
	assert.Equal(t, "best[height<=1080][ext=mkv]/best[height<=1080]/best", FormatSelector("mkv", "", "1080p"))
}

func TestParseProgress(t *testing.T) {
	percent, eta, ok := ParseProgress("[download]  42.3% of 10.00MiB at 1.00MiB/s ETA 01:02")
	require.True(t, ok)
	assert.Equal(t, 42.3, percent)
	assert.Equal(t, int64(62), eta)

	percent, eta, ok = ParseProgress("[download] 100% of 10.00MiB in 00:03")
	require.True(t, ok)
	assert.Equal(t, 100.0, percent)
	assert.Zero(t, eta)

	_, eta, ok = ParseProgress("[download]   1.0% of ~10.00MiB at Unknown B/s ETA Unknown")
	require.True(t, ok)
	assert.Zero(t, eta)

	_, _, ok = ParseProgress("[youtube] abc: Downloading webpage")
	assert.False(t, ok)
}

func TestCanHandleAndValidate(t *testing.T) {
	youtube := NewProcessor(models.SourceTypeYouTube, "yt-dlp", t.TempDir(), logger.NewNopLogger())
	custom := NewProcessor(models.SourceTypeCustom, "yt-dlp", t.TempDir(), logger.NewNopLogger())

	assert.True(t, youtube.CanHandle("https://www.youtube.com/watch?v=1"))
	assert.False(t, youtube.CanHandle("https://vimeo.com/1"))
	assert.True(t, custom.CanHandle("https://example.org/v.mp4"))
	assert.False(t, custom.CanHandle("ftp://example.org/v.mp4"))

	task := newTestTask()
	assert.NoError(t, youtube.Validate(task))
	task.SourceURL = " "
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(youtube.Validate(task)))
	task.SourceURL = "https://vimeo.com/1"
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(youtube.Validate(task)))
}

func TestDownload(t *testing.T) {
	script := writeScript(t, fakeDownloader)
	tempRoot := t.TempDir()
	p := NewProcessor(models.SourceTypeYouTube, script, tempRoot, logger.NewNopLogger())
	task := newTestTask()

	var seen []float64
	file, err := p.Download(context.Background(), task, func(percent float64, eta int64) {
		seen = append(seen, percent)
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tempRoot, task.ID), file.Dir)
	assert.Equal(t, "Clip.mp4", file.Name)
	assert.Equal(t, int64(len("video-bytes")), file.Size)
	assert.Equal(t, "mp4", file.Format)
	assert.Equal(t, []float64{10.0, 55.5, 100}, seen, "one callback per new whole percent")

	args, err := os.ReadFile(filepath.Join(filepath.Dir(script), "args.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(args), "--newline --no-playlist --prefer-free-formats --merge-output-format mp4")
	assert.Contains(t, string(args), "-f best[height<=1080][ext=mp4]/best[height<=1080]/best")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(string(args)), task.SourceURL))
}

func TestDownloadFailureRemovesScopedDir(t *testing.T) {
	tempRoot := t.TempDir()
	task := newTestTask()

	p := NewProcessor(models.SourceTypeYouTube, writeScript(t, failingDownloader), tempRoot, logger.NewNopLogger())
	_, err := p.Download(context.Background(), task, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "Video unavailable")
	_, statErr := os.Stat(filepath.Join(tempRoot, task.ID))
	assert.True(t, os.IsNotExist(statErr))

	p = NewProcessor(models.SourceTypeYouTube, writeScript(t, diskFullDownloader), tempRoot, logger.NewNopLogger())
	_, err = p.Download(context.Background(), task, nil)
	assert.Equal(t, apperrors.KindDiskFull, apperrors.KindOf(err))
}

func TestDownloadCancelled(t *testing.T) {
	p := NewProcessor(models.SourceTypeYouTube, writeScript(t, fakeDownloader), t.TempDir(), logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Download(ctx, newTestTask(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindCancelled, apperrors.KindOf(err))
}

func TestFetchMetadataAndFormats(t *testing.T) {
	p := NewProcessor(models.SourceTypeYouTube, writeScript(t, fakeDownloader), t.TempDir(), logger.NewNopLogger())

	meta, err := p.FetchMetadata(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Equal(t, "Clip", meta.Title)
	assert.Equal(t, int64(61), meta.DurationSeconds)
	assert.Equal(t, int64(2048), meta.FileSizeBytes)
	assert.Equal(t, "1280x720", meta.Resolution)
	assert.Equal(t, int64(1500000), meta.Bitrate)

	formats, err := p.ListFormats(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	list := formats["formats"].([]map[string]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "22", list[0]["format_id"])
	assert.Equal(t, int64(2048), list[0]["filesize"])

	missing := NewProcessor(models.SourceTypeYouTube, writeScript(t, failingDownloader), t.TempDir(), logger.NewNopLogger())
	_, err = missing.FetchMetadata(context.Background(), "https://youtu.be/bad")
	assert.True(t, apperrors.IsNotFound(err))
}
