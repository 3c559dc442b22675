package ytdlp

import (
	"fmt"

	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
)

// videoInfo is the subset of the yt-dlp --dump-json document that is used.
type videoInfo struct {
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Uploader       string        `json:"uploader"`
	Thumbnail      string        `json:"thumbnail"`
	Duration       float64       `json:"duration"`
	Filesize       int64         `json:"filesize"`
	FilesizeApprox int64         `json:"filesize_approx"`
	Ext            string        `json:"ext"`
	Resolution     string        `json:"resolution"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	TBR            float64       `json:"tbr"`
	FPS            float64       `json:"fps"`
	VCodec         string        `json:"vcodec"`
	Formats        []videoFormat `json:"formats"`
}

type videoFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Resolution     string  `json:"resolution"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	TBR            float64 `json:"tbr"`
}

func (f videoFormat) size() int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}
	return f.FilesizeApprox
}

func (i *videoInfo) metadata() *processor.VideoMetadata {
	size := i.Filesize
	if size == 0 {
		size = i.FilesizeApprox
	}
	resolution := i.Resolution
	if resolution == "" && i.Width > 0 && i.Height > 0 {
		resolution = fmt.Sprintf("%dx%d", i.Width, i.Height)
	}
	return &processor.VideoMetadata{
		Title:           i.Title,
		Description:     i.Description,
		Uploader:        i.Uploader,
		ThumbnailURL:    i.Thumbnail,
		DurationSeconds: int64(i.Duration),
		FileSizeBytes:   size,
		Format:          i.Ext,
		Resolution:      resolution,
		Bitrate:         int64(i.TBR * 1000),
		FPS:             i.FPS,
		Codec:           i.VCodec,
	}
}
