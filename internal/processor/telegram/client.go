package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Send describes one sendVideo or sendDocument call.
type Send struct {
	ChatID  string
	Caption string
	// File is a tgbotapi.FilePath for an upload or a tgbotapi.FileID for a
	// file the server already stores.
	File tgbotapi.RequestFileData
	// AsVideo selects sendVideo with streaming support instead of sendDocument.
	AsVideo bool
}

// Client talks to one Bot API server.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(baseURL, "/") + "/bot%s/%s",
		token:      token,
	}
}

func (c *Client) GetMe(ctx context.Context) (*tgbotapi.User, error) {
	user, err := c.bot(ctx).GetMe()
	if err != nil {
		return nil, apiError(ctx, "getMe", err)
	}
	return &user, nil
}

func (c *Client) GetFile(ctx context.Context, fileID string) (*tgbotapi.File, error) {
	file, err := c.bot(ctx).GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, apiError(ctx, "getFile", err)
	}
	return &file, nil
}

// Send posts s.File to s.ChatID. Local files are streamed from disk as a
// multipart body.
func (c *Client) Send(ctx context.Context, s *Send) (*tgbotapi.Message, error) {
	chat := chatRef(s.ChatID)

	var (
		config tgbotapi.Chattable
		method string
	)
	if s.AsVideo {
		video := tgbotapi.NewVideo(0, s.File)
		video.BaseChat = chat
		video.Caption = s.Caption
		video.SupportsStreaming = true
		config, method = video, "sendVideo"
	} else {
		document := tgbotapi.NewDocument(0, s.File)
		document.BaseChat = chat
		document.Caption = s.Caption
		config, method = document, "sendDocument"
	}

	msg, err := c.bot(ctx).Send(config)
	if err != nil {
		return nil, apiError(ctx, method, err)
	}
	return &msg, nil
}

// bot returns a handle whose requests carry ctx. The library builds its
// requests without a context, so it is attached in the HTTP client.
func (c *Client) bot(ctx context.Context) *tgbotapi.BotAPI {
	bot := &tgbotapi.BotAPI{
		Token:  c.token,
		Client: contextClient{ctx: ctx, client: c.httpClient},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(c.endpoint)
	return bot
}

type contextClient struct {
	ctx    context.Context
	client *http.Client
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}

// chatRef addresses numeric chat ids by id and anything else, such as
// @channel names, by username.
func chatRef(chatID string) tgbotapi.BaseChat {
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil && id != 0 {
		return tgbotapi.BaseChat{ChatID: id}
	}
	return tgbotapi.BaseChat{ChannelUsername: chatID}
}

func apiError(ctx context.Context, method string, err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		if tgErr.Message == "" {
			return apperrors.Newf(apperrors.KindUpstream, "telegram %s failed with code %d", method, tgErr.Code)
		}
		return apperrors.New(apperrors.KindUpstream, tgErr.Message)
	}
	if ctx.Err() != nil {
		return apperrors.Wrapf(apperrors.KindTimeout, err, "telegram %s interrupted", method)
	}
	return apperrors.Wrapf(apperrors.KindUpstream, err, "telegram %s request failed", method)
}
