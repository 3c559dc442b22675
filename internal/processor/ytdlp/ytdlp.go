package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
)

const (
	outputTemplate = "%(title)s.%(ext)s"
	defaultHeight  = "720"
	waitDelay      = 5 * time.Second
)

var (
	progressRe = regexp.MustCompile(`^\[download\]\s+(\d+(?:\.\d+)?)%(?:.*ETA\s+(\S+))?`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

type ytdlpProcessor struct {
	kind    models.SourceType
	binary  string
	tempDir string
	logger  logger.Logger
}

// NewProcessor returns a yt-dlp backed source processor for one source kind.
func NewProcessor(kind models.SourceType, binary, tempDir string, logger logger.Logger) processor.SourceProcessor {
	return &ytdlpProcessor{
		kind:    kind,
		binary:  binary,
		tempDir: tempDir,
		logger:  logger,
	}
}

func (p *ytdlpProcessor) SupportedType() models.SourceType {
	return p.kind
}

func (p *ytdlpProcessor) CanHandle(url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}
	if p.kind == models.SourceTypeCustom {
		lower := strings.ToLower(url)
		return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
	}
	return models.SourceTypeFromURL(url) == p.kind
}

func (p *ytdlpProcessor) Validate(task *models.Task) error {
	if strings.TrimSpace(task.SourceURL) == "" {
		return apperrors.New(apperrors.KindValidation, "source URL cannot be empty")
	}
	if !p.CanHandle(task.SourceURL) {
		return apperrors.Newf(apperrors.KindValidation, "URL is not a valid %s URL", p.kind.DisplayName())
	}
	return nil
}

func (p *ytdlpProcessor) Download(ctx context.Context, task *models.Task, progress processor.ProgressFunc) (*processor.DownloadedFile, error) {
	dir := filepath.Join(p.tempDir, task.ID)
	// A retried task may find the leftovers of its previous attempt.
	if err := os.RemoveAll(dir); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to clear temp directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		if isNoSpace(err.Error()) {
			return nil, apperrors.Wrap(apperrors.KindDiskFull, err, "no space left for temp directory")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to create temp directory")
	}

	file, err := p.download(ctx, task, dir, progress)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			p.logger.Warnf("ytdlp.Download - cleanup of %s failed: %v", dir, rmErr)
		}
		return nil, err
	}
	return file, nil
}

func (p *ytdlpProcessor) download(ctx context.Context, task *models.Task, dir string, progress processor.ProgressFunc) (*processor.DownloadedFile, error) {
	args := DownloadArgs(task, filepath.Join(dir, outputTemplate))
	p.logger.Infof("ytdlp.Download - task %s: %s %s", task.ID, p.binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to attach yt-dlp output")
	}
	if err = cmd.Start(); err != nil {
		return nil, classifyRunError(ctx, err, "")
	}

	p.followProgress(task.ID, stdout, progress)

	if err = cmd.Wait(); err != nil {
		return nil, classifyRunError(ctx, err, stderr.String())
	}

	return locateDownload(dir, task.RequestedFormat)
}

func (p *ytdlpProcessor) followProgress(taskID string, stdout io.Reader, progress processor.ProgressFunc) {
	last := -1
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		percent, eta, ok := ParseProgress(scanner.Text())
		if !ok || int(percent) <= last {
			continue
		}
		last = int(percent)
		p.logger.Debugf("ytdlp.Download - task %s: %.1f%%, %ds left", taskID, percent, eta)
		if progress != nil {
			progress(percent, eta)
		}
	}
	// Drain whatever the scanner left so the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, stdout)
}

func (p *ytdlpProcessor) FetchMetadata(ctx context.Context, url string) (*processor.VideoMetadata, error) {
	info, err := p.dumpJSON(ctx, url)
	if err != nil {
		return nil, err
	}
	return info.metadata(), nil
}

func (p *ytdlpProcessor) ListFormats(ctx context.Context, url string) (map[string]interface{}, error) {
	info, err := p.dumpJSON(ctx, url)
	if err != nil {
		return nil, err
	}
	formats := make([]map[string]interface{}, 0, len(info.Formats))
	for _, f := range info.Formats {
		formats = append(formats, map[string]interface{}{
			"format_id":  f.FormatID,
			"ext":        f.Ext,
			"resolution": f.Resolution,
			"height":     f.Height,
			"fps":        f.FPS,
			"vcodec":     f.VCodec,
			"acodec":     f.ACodec,
			"filesize":   f.size(),
			"tbr":        f.TBR,
		})
	}
	return map[string]interface{}{
		"title":   info.Title,
		"formats": formats,
	}, nil
}

func (p *ytdlpProcessor) dumpJSON(ctx context.Context, url string) (*videoInfo, error) {
	if strings.TrimSpace(url) == "" {
		return nil, apperrors.New(apperrors.KindValidation, "source URL cannot be empty")
	}
	cmd := exec.CommandContext(ctx, p.binary, "--dump-json", "--no-download", "--no-playlist", url)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		out := stderr.String()
		if isUnavailable(out) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "video not found: %s", lastLine(out))
		}
		return nil, classifyRunError(ctx, err, out)
	}

	var info videoInfo
	if err := json.Unmarshal(firstLine(stdout.Bytes()), &info); err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, err, "failed to parse yt-dlp metadata")
	}
	return &info, nil
}

// DownloadArgs builds the yt-dlp command line for task writing to output.
func DownloadArgs(task *models.Task, output string) []string {
	format := task.RequestedFormat
	if format == "" {
		format = models.DefaultFormat
	}
	return []string{
		"--newline",
		"--no-playlist",
		"--prefer-free-formats",
		"--merge-output-format", format,
		"-f", FormatSelector(format, task.RequestedQuality, task.RequestedResolution),
		"-o", output,
		task.SourceURL,
	}
}

// FormatSelector picks the best (or worst) stream no taller than resolution in
// the requested container, relaxing the container and then the height.
func FormatSelector(format, quality, resolution string) string {
	height := nonDigitRe.ReplaceAllString(resolution, "")
	if height == "" {
		height = defaultHeight
	}
	pick := "best"
	if strings.EqualFold(quality, "worst") {
		pick = "worst"
	}
	return fmt.Sprintf("%[1]s[height<=%[2]s][ext=%[3]s]/%[1]s[height<=%[2]s]/%[1]s", pick, height, format)
}

// ParseProgress reads a yt-dlp "[download]" progress line.
func ParseProgress(line string) (float64, int64, bool) {
	m := progressRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, 0, false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return percent, parseETA(m[2]), true
}

func parseETA(eta string) int64 {
	if eta == "" {
		return 0
	}
	var seconds int64
	for _, part := range strings.Split(eta, ":") {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0
		}
		seconds = seconds*60 + n
	}
	return seconds
}

func locateDownload(dir, format string) (*processor.DownloadedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to read temp directory")
	}
	var files []os.DirEntry
	for _, entry := range entries {
		if entry.Type().IsRegular() && !strings.HasSuffix(entry.Name(), ".part") {
			files = append(files, entry)
		}
	}
	if len(files) != 1 {
		return nil, apperrors.Newf(apperrors.KindUpstream, "no file was downloaded (found %d files)", len(files))
	}

	info, err := files[0].Info()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to stat downloaded file")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(info.Name()), "."))
	if ext == "" {
		ext = format
	}
	return &processor.DownloadedFile{
		Path:   filepath.Join(dir, info.Name()),
		Dir:    dir,
		Name:   info.Name(),
		Size:   info.Size(),
		Format: ext,
	}, nil
}

func classifyRunError(ctx context.Context, err error, stderr string) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.KindTimeout, err, "yt-dlp timed out")
	case errors.Is(ctx.Err(), context.Canceled):
		return apperrors.Wrap(apperrors.KindCancelled, err, "yt-dlp was cancelled")
	case isNoSpace(stderr):
		return apperrors.Wrap(apperrors.KindDiskFull, err, "no space left on device")
	}
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = err.Error()
	}
	return apperrors.Wrapf(apperrors.KindUpstream, err, "yt-dlp failed: %s", msg)
}

func isNoSpace(s string) bool {
	return strings.Contains(s, "No space left on device")
}

func isUnavailable(s string) bool {
	return strings.Contains(s, "Video unavailable") || strings.Contains(s, "HTTP Error 404")
}

func firstLine(b []byte) []byte {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i]
	}
	return b
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}

// ResolveBinary finds the yt-dlp executable, preferring configured.
func ResolveBinary(configured string) (string, error) {
	if configured != "" {
		if strings.ContainsAny(configured, `/\`) {
			if info, err := os.Stat(configured); err == nil && !info.IsDir() {
				return filepath.Clean(configured), nil
			}
			return "", fmt.Errorf("configured downloader.ytdlp_path %q is not a file", configured)
		}
		return exec.LookPath(configured)
	}
	candidates := []string{"yt-dlp"}
	if runtime.GOOS == "windows" {
		candidates = append(candidates, "yt-dlp.exe")
	}
	for _, candidate := range candidates {
		if resolved, err := exec.LookPath(candidate); err == nil {
			return resolved, nil
		}
	}
	return "", errors.New("yt-dlp executable not found in PATH")
}
