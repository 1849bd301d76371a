package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tamirka/ainario/internal/gemini"
	"github.com/tamirka/ainario/internal/media"
	"github.com/tamirka/ainario/internal/mediagroup"
	"github.com/tamirka/ainario/internal/session"
	"github.com/tamirka/ainario/internal/studio"
	"github.com/tamirka/ainario/internal/telegram"
)

const callbackPrefix = "st"

var errAborted = errors.New("generation aborted")

// Messenger is the part of *telegram.Client the handlers use.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTyping(chatID int64)
	SendPhoto(chatID int64, img gemini.Image, caption string) error
	SendAlbum(chatID int64, images []gemini.Image, captions []string) error
	SendButtons(chatID int64, text string, buttons []telegram.Button) error
	AnswerCallback(callbackID, text string, alert bool) error
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, string, error)
}

type Studio interface {
	Logo(ctx context.Context, in studio.LogoInput) (studio.Result, error)
	ChannelIntro(ctx context.Context, in studio.IntroInput) (studio.Result, error)
	Explainer(ctx context.Context, in studio.ExplainerInput) (studio.Result, error)
	Storyboard(ctx context.Context, in studio.StoryboardInput) (studio.StoryboardResult, error)
	Preview(ctx context.Context, prompt string) (gemini.Image, error)
}

type Options struct {
	Telegram Messenger
	Studio   Studio
	Sessions *session.Store
	Logger   *slog.Logger
}

type Handler struct {
	tg         Messenger
	studio     Studio
	sessions   *session.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore(session.Options{})
	}

	return &Handler{
		tg:       opts.Telegram,
		studio:   opts.Studio,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, msg.Command(), msg.CommandArguments(), nil)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, userID, msg)
	}

	if strings.TrimSpace(msg.Text) != "" {
		return h.tg.SendText(chatID, "Send a command to start. /help lists them.")
	}

	return nil
}

// HandleAlbum handles a flushed album. Only the first photo is used.
func (h *Handler) HandleAlbum(ctx context.Context, album mediagroup.Album) {
	command, args, ok := splitCommand(album.Caption)
	if !ok {
		if err := h.tg.SendText(album.ChatID, "Add /logo or /storyboard as the caption of the album."); err != nil {
			h.logger.Error("album reply failed", "err", err)
		}
		return
	}
	if len(album.FileIDs) > 1 {
		_ = h.tg.SendText(album.ChatID, fmt.Sprintf("Using the first of %d photos.", len(album.FileIDs)))
	}
	if err := h.handleCommand(ctx, album.ChatID, album.UserID, command, args, album.FileIDs[:1]); err != nil {
		h.logger.Error("album processing failed", "err", err)
	}
}

func (h *Handler) handlePhoto(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Photo{
			ChatID:       chatID,
			UserID:       userID,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       fileID,
		})
		return nil
	}

	command, args, ok := splitCommand(msg.Caption)
	if !ok {
		return h.tg.SendText(chatID, "Caption the photo with /logo to animate it, or with /storyboard to use it as a style reference.")
	}
	return h.handleCommand(ctx, chatID, userID, command, args, []string{fileID})
}

func (h *Handler) handleCommand(ctx context.Context, chatID, userID int64, command, args string, photos []string) error {
	switch command {
	case "start":
		return h.tg.SendText(chatID, startText)
	case "help":
		return h.tg.SendText(chatID, helpText())
	case "clear":
		h.sessions.Reset(sessionKey(userID))
		return h.tg.SendText(chatID, "✅ Cleared.")
	case "intro":
		in, ok := parseIntro(args)
		if !ok {
			return h.tg.SendText(chatID, introUsage)
		}
		return h.run(ctx, chatID, userID, func(ctx context.Context) (*studio.Result, func() error, error) {
			res, err := h.studio.ChannelIntro(ctx, in)
			return &res, func() error { return h.sendResult(chatID, userID, res) }, err
		})
	case "explainer":
		in, ok := parseExplainer(args)
		if !ok {
			return h.tg.SendText(chatID, explainerUsage)
		}
		return h.run(ctx, chatID, userID, func(ctx context.Context) (*studio.Result, func() error, error) {
			res, err := h.studio.Explainer(ctx, in)
			return &res, func() error { return h.sendResult(chatID, userID, res) }, err
		})
	case "storyboard":
		in := parseStoryboard(args)
		if len(photos) > 0 {
			in.Reference = h.photoSource(photos[0])
		}
		return h.run(ctx, chatID, userID, func(ctx context.Context) (*studio.Result, func() error, error) {
			res, err := h.studio.Storyboard(ctx, in)
			return &res.Result, func() error { return h.sendStoryboard(chatID, userID, in.Scenes, res) }, err
		})
	case "logo":
		if len(photos) == 0 {
			return h.tg.SendText(chatID, logoUsage)
		}
		in := parseLogo(args)
		in.Logo = h.photoSource(photos[0])
		return h.run(ctx, chatID, userID, func(ctx context.Context) (*studio.Result, func() error, error) {
			res, err := h.studio.Logo(ctx, in)
			return &res, func() error { return h.sendResult(chatID, userID, res) }, err
		})
	case "preview":
		return h.preview(ctx, chatID, userID, args)
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Use /help.")
	}
}

func (h *Handler) preview(ctx context.Context, chatID, userID int64, prompt string) error {
	last := h.sessions.Get(sessionKey(userID)).Result
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		if last != nil {
			prompt, _ = studio.ExtractFirstPrompt(last.Recipe, last.Prompt)
		}
	}
	if prompt == "" {
		return h.tg.SendText(chatID, "❌ Nothing to preview yet.\nUse /preview <prompt> or generate a prompt first.")
	}

	return h.run(ctx, chatID, userID, func(ctx context.Context) (*studio.Result, func() error, error) {
		img, err := h.studio.Preview(ctx, prompt)
		return last, func() error { return h.tg.SendPhoto(chatID, img, prompt) }, err
	})
}

// run drives one generation through the session state machine. The session
// keeps the returned result, or none when it is nil; send delivers the
// outcome after the state is updated. A panic in fn fails the session.
func (h *Handler) run(ctx context.Context, chatID, userID int64, fn func(context.Context) (*studio.Result, func() error, error)) error {
	key := sessionKey(userID)
	if _, err := h.sessions.Begin(key); err != nil {
		if errors.Is(err, session.ErrBusy) {
			return h.tg.SendText(chatID, "⏳ Still working on your previous request. Please wait.")
		}
		return err
	}
	finished := false
	defer func() {
		if !finished {
			_, _ = h.sessions.Fail(key, studio.Messages(errAborted))
		}
	}()

	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "🎬 Working on it, this can take a minute...")

	result, send, err := fn(ctx)
	finished = true
	if err != nil {
		lines := studio.Messages(err)
		if _, ferr := h.sessions.Fail(key, lines); ferr != nil {
			h.logger.Warn("session fail transition", "err", ferr)
		}
		if !studio.IsUserError(err) {
			h.logger.Error("generation failed", "user_id", userID, "err", err)
		}
		return h.tg.SendText(chatID, "❌ "+strings.Join(lines, "\n"))
	}

	if result != nil {
		_, err = h.sessions.Succeed(key, *result)
	} else {
		_, err = h.sessions.Apply(key, studio.EventSucceed, nil)
	}
	if err != nil {
		h.logger.Warn("session succeed transition", "err", err)
	}
	return send()
}

func (h *Handler) sendResult(chatID, userID int64, res studio.Result) error {
	if err := h.tg.SendText(chatID, res.Prompt); err != nil {
		return err
	}
	return h.sendActions(chatID, userID, res)
}

func (h *Handler) sendStoryboard(chatID, userID int64, scenes []string, res studio.StoryboardResult) error {
	var images []gemini.Image
	var captions []string
	n := 0
	for i, scene := range scenes {
		if strings.TrimSpace(scene) == "" {
			continue
		}
		n++
		if i < len(res.Images) && res.Images[i] != nil {
			images = append(images, *res.Images[i])
			captions = append(captions, fmt.Sprintf("Scene %d", n))
		}
	}
	if len(images) > 0 {
		if err := h.tg.SendAlbum(chatID, images, captions); err != nil {
			h.logger.Warn("storyboard album failed", "err", err)
		}
	}
	if missing := n - len(images); missing > 0 {
		_ = h.tg.SendText(chatID, fmt.Sprintf("⚠️ %d scene preview(s) could not be generated.", missing))
	}
	return h.sendResult(chatID, userID, res.Result)
}

func (h *Handler) sendActions(chatID, userID int64, res studio.Result) error {
	if _, ok := studio.ExtractFirstPrompt(res.Recipe, res.Prompt); !ok {
		return nil
	}
	return h.tg.SendButtons(chatID, "Render the first prompt as a 16:9 image?", []telegram.Button{
		{Text: "🖼 Preview", Data: callbackData(userID, "preview")},
		{Text: "✖ Dismiss", Data: callbackData(userID, "dismiss")},
	})
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}
	parts := strings.Split(strings.TrimSpace(q.Data), ":")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return nil
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		return h.tg.AnswerCallback(q.ID, "These buttons are not for you.", true)
	}

	chatID := q.Message.Chat.ID
	switch parts[2] {
	case "preview":
		_ = h.tg.AnswerCallback(q.ID, "Rendering...", false)
		return h.preview(ctx, chatID, ownerID, "")
	case "dismiss":
		_, _ = h.sessions.Dismiss(sessionKey(ownerID))
		return h.tg.AnswerCallback(q.ID, "Dismissed.", false)
	}
	return nil
}

func (h *Handler) photoSource(fileID string) studio.ImageSource {
	return func(ctx context.Context) (gemini.Image, error) {
		body, contentType, err := h.tg.DownloadFile(ctx, fileID)
		if err != nil {
			return gemini.Image{}, fmt.Errorf("download photo: %w", err)
		}
		defer body.Close()
		return media.Encode(ctx, body, contentType)
	}
}

func sessionKey(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}

func callbackData(ownerID int64, action string) string {
	return fmt.Sprintf("%s:%d:%s", callbackPrefix, ownerID, action)
}
