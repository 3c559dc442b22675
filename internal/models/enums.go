package models

import "strings"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusProcessing,
	TaskStatusCompleted,
	TaskStatusFailed,
	TaskStatusCancelled,
}

func (s TaskStatus) IsValid() bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

type SourceType string

const (
	SourceTypeYouTube   SourceType = "YOUTUBE"
	SourceTypeVimeo     SourceType = "VIMEO"
	SourceTypeTikTok    SourceType = "TIKTOK"
	SourceTypeInstagram SourceType = "INSTAGRAM"
	SourceTypeTwitter   SourceType = "TWITTER"
	SourceTypeCustom    SourceType = "CUSTOM"
)

type sourceTypeInfo struct {
	displayName string
	domains     []string
}

// SourceTypes lists every kind in classification order.
var SourceTypes = []SourceType{
	SourceTypeYouTube,
	SourceTypeVimeo,
	SourceTypeTikTok,
	SourceTypeInstagram,
	SourceTypeTwitter,
	SourceTypeCustom,
}

var sourceTypeInfos = map[SourceType]sourceTypeInfo{
	SourceTypeYouTube:   {displayName: "YouTube", domains: []string{"youtube.com", "youtu.be"}},
	SourceTypeVimeo:     {displayName: "Vimeo", domains: []string{"vimeo.com"}},
	SourceTypeTikTok:    {displayName: "TikTok", domains: []string{"tiktok.com"}},
	SourceTypeInstagram: {displayName: "Instagram", domains: []string{"instagram.com"}},
	SourceTypeTwitter:   {displayName: "Twitter", domains: []string{"twitter.com", "//x.com", ".x.com/"}},
	SourceTypeCustom:    {displayName: "Custom"},
}

func (s SourceType) DisplayName() string {
	if info, ok := sourceTypeInfos[s]; ok {
		return info.displayName
	}
	return string(s)
}

func (s SourceType) Domains() []string {
	return sourceTypeInfos[s].domains
}

func (s SourceType) IsValid() bool {
	_, ok := sourceTypeInfos[s]
	return ok
}

// SourceTypeFromURL classifies a URL by case-insensitive domain substring.
// Anything unrecognised, including a blank URL, is CUSTOM.
func SourceTypeFromURL(url string) SourceType {
	if strings.TrimSpace(url) == "" {
		return SourceTypeCustom
	}
	lower := strings.ToLower(url)
	for _, sourceType := range SourceTypes {
		if sourceType == SourceTypeCustom {
			continue
		}
		for _, domain := range sourceType.Domains() {
			if strings.Contains(lower, domain) {
				return sourceType
			}
		}
	}
	return SourceTypeCustom
}

type DestinationType string

const (
	DestinationTypeTelegram DestinationType = "TELEGRAM"
	DestinationTypeS3       DestinationType = "S3"
)

var DestinationTypes = []DestinationType{
	DestinationTypeTelegram,
	DestinationTypeS3,
}

func (d DestinationType) DisplayName() string {
	switch d {
	case DestinationTypeTelegram:
		return "Telegram"
	case DestinationTypeS3:
		return "Object storage"
	default:
		return string(d)
	}
}

func (d DestinationType) Code() string {
	switch d {
	case DestinationTypeTelegram:
		return "tg"
	case DestinationTypeS3:
		return "s3"
	default:
		return strings.ToLower(string(d))
	}
}

func (d DestinationType) IsValid() bool {
	return d == DestinationTypeTelegram || d == DestinationTypeS3
}

// IsResendable reports whether a stored destination id can be posted again
// later. Results of such destinations anchor reuse and survive cleanup.
func (d DestinationType) IsResendable() bool {
	return d == DestinationTypeTelegram
}

// ResendableDestinationTypes returns the kinds whose results cleanup must keep.
func ResendableDestinationTypes() []DestinationType {
	var kinds []DestinationType
	for _, d := range DestinationTypes {
		if d.IsResendable() {
			kinds = append(kinds, d)
		}
	}
	return kinds
}

func ParseDestinationType(value string) (DestinationType, bool) {
	upper := DestinationType(strings.ToUpper(strings.TrimSpace(value)))
	if upper.IsValid() {
		return upper, true
	}
	for _, d := range DestinationTypes {
		if strings.EqualFold(d.Code(), value) {
			return d, true
		}
	}
	return "", false
}
