package telegram

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tamirka/ainario/internal/gemini"
)

const (
	maxMessageBytes = 4096
	maxCaptionBytes = 1024
	maxAlbumSize    = 10
)

type Options struct {
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool
}

type Client struct {
	bot        *tgbotapi.BotAPI
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, tgbotapi.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	bot.Debug = opts.Debug

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		bot:        bot,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}, nil
}

func (c *Client) Username() string {
	return c.bot.Self.UserName
}

type (
	Update        = tgbotapi.Update
	Message       = tgbotapi.Message
	CallbackQuery = tgbotapi.CallbackQuery
)

type UpdatesOptions struct {
	Timeout time.Duration
}

func (c *Client) Updates(opts UpdatesOptions) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	if opts.Timeout > 0 {
		u.Timeout = int(opts.Timeout.Seconds())
	} else {
		u.Timeout = 30
	}
	return c.bot.GetUpdatesChan(u)
}

func (c *Client) StopUpdates() {
	c.bot.StopReceivingUpdates()
}

func (c *Client) SendTyping(chatID int64) {
	_, _ = c.bot.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadPhoto))
}

func (c *Client) SendText(chatID int64, text string) error {
	for _, p := range SplitByBytes(text, maxMessageBytes) {
		if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, p)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) SendPhoto(chatID int64, img gemini.Image, caption string) error {
	file, err := fileBytes(img, "image")
	if err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, file)
	if caption != "" {
		photo.Caption = TruncateByBytes(caption, maxCaptionBytes)
	}
	_, err = c.bot.Send(photo)
	return err
}

type Button struct {
	Text string
	Data string
}

// SendButtons sends text with one row of inline buttons.
func (c *Client) SendButtons(chatID int64, text string, buttons []Button) error {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
	}
	msg := tgbotapi.NewMessage(chatID, TruncateByBytes(text, maxMessageBytes))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	_, err := c.bot.Send(msg)
	return err
}

func (c *Client) AnswerCallback(callbackID, text string, alert bool) error {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	_, err := c.bot.Request(cfg)
	return err
}

// SendAlbum sends images as media groups of at most ten, captioning each photo.
func (c *Client) SendAlbum(chatID int64, images []gemini.Image, captions []string) error {
	for start := 0; start < len(images); start += maxAlbumSize {
		end := min(start+maxAlbumSize, len(images))
		if end-start == 1 {
			if err := c.SendPhoto(chatID, images[start], captionAt(captions, start)); err != nil {
				return err
			}
			continue
		}

		media := make([]any, 0, end-start)
		for i := start; i < end; i++ {
			file, err := fileBytes(images[i], fmt.Sprintf("scene-%d", i+1))
			if err != nil {
				return err
			}
			photo := tgbotapi.NewInputMediaPhoto(file)
			photo.Caption = TruncateByBytes(captionAt(captions, i), maxCaptionBytes)
			media = append(media, photo)
		}
		if _, err := c.bot.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media)); err != nil {
			return err
		}
	}
	return nil
}

// DownloadFile opens a Telegram file. The caller closes the body.
func (c *Client) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	fileURL, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, "", fmt.Errorf("telegram file download %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return resp.Body, resp.Header.Get("content-type"), nil
}

func fileBytes(img gemini.Image, base string) (tgbotapi.FileBytes, error) {
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return tgbotapi.FileBytes{}, fmt.Errorf("decode base64: %w", err)
	}
	name := base + ".jpg"
	if exts, _ := mime.ExtensionsByType(img.MimeType); len(exts) > 0 {
		name = base + exts[0]
	}
	return tgbotapi.FileBytes{Name: name, Bytes: data}, nil
}

func captionAt(captions []string, i int) string {
	if i < len(captions) {
		return captions[i]
	}
	return ""
}

// SplitByBytes cuts text into chunks of at most maxBytes without splitting runes.
// Chunks prefer to end at a newline.
func SplitByBytes(text string, maxBytes int) []string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return []string{text}
	}

	var out []string
	for len(text) > maxBytes {
		cut := maxBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > maxBytes/2 {
			cut = nl + 1
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

func TruncateByBytes(text string, maxBytes int) string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
