package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/tamirka/ainario/internal/gemini"
	"github.com/tamirka/ainario/internal/media"
	"github.com/tamirka/ainario/internal/session"
	"github.com/tamirka/ainario/internal/studio"
)

type errorResponse struct {
	Errors []string `json:"errors"`
}

type resultResponse struct {
	RunID       string    `json:"run_id"`
	Recipe      string    `json:"recipe"`
	Format      string    `json:"format"`
	Prompt      string    `json:"prompt"`
	FirstPrompt string    `json:"first_prompt,omitempty"`
	Images      []*string `json:"images,omitempty"`
	StyleGuide  string    `json:"style_guide,omitempty"`
}

type previewResponse struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt"`
}

type sessionResponse struct {
	View   string          `json:"view"`
	Errors []string        `json:"errors,omitempty"`
	Result *resultResponse `json:"result,omitempty"`
}

type logoRequest struct {
	Logo           string `json:"logo"`
	AnimationStyle string `json:"animation_style"`
	Background     string `json:"background"`
	SFX            string `json:"sfx"`
	Tagline        string `json:"tagline"`
	Format         string `json:"format"`
}

type introRequest struct {
	ChannelName string `json:"channel_name"`
	Topic       string `json:"topic"`
	VisualStyle string `json:"visual_style"`
	Energy      string `json:"energy"`
	Elements    string `json:"elements"`
	Format      string `json:"format"`
}

type explainerRequest struct {
	Topic       string `json:"topic"`
	KeyPoints   string `json:"key_points"`
	VisualStyle string `json:"visual_style"`
	Duration    string `json:"duration"`
	Audience    string `json:"audience"`
	CTA         string `json:"cta"`
}

type storyboardRequest struct {
	Scenes    []string `json:"scenes"`
	Style     string   `json:"style"`
	Format    string   `json:"format"`
	Reference string   `json:"reference"`
}

type previewRequest struct {
	Prompt string `json:"prompt"`
	Recipe string `json:"recipe"`
	Text   string `json:"text"`
}

var (
	errBadRequest = errors.New("bad request")
	errAborted    = errors.New("generation aborted")
)

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, studio.Catalog())
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSessionResponse(h.sessions.Get(sessionKey(r))))
}

func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Dismiss(sessionKey(r))
	if err != nil {
		writeErrors(w, http.StatusConflict, []string{"Nothing to dismiss."})
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handler) Logo(w http.ResponseWriter, r *http.Request) {
	var req logoRequest
	var logo studio.ImageSource

	if isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeErrors(w, http.StatusBadRequest, []string{"Invalid JSON body."})
			return
		}
		if strings.TrimSpace(req.Logo) != "" {
			img, err := media.FromDataURL(req.Logo)
			if err != nil {
				writeErrors(w, http.StatusBadRequest, []string{"Could not read the logo image."})
				return
			}
			logo = media.Ready(img)
		}
	} else {
		form, err := parseMultipart(w, r)
		if err != nil {
			writeErrors(w, http.StatusBadRequest, []string{"Invalid multipart form."})
			return
		}
		req = logoRequest{
			AnimationStyle: formValue(form, "animation_style"),
			Background:     formValue(form, "background"),
			SFX:            formValue(form, "sfx"),
			Tagline:        formValue(form, "tagline"),
			Format:         formValue(form, "format"),
		}
		logo = fileSource(form, "logo")
	}

	h.generate(w, r, func(ctx context.Context) (any, *studio.Result, error) {
		res, err := h.studio.Logo(ctx, studio.LogoInput{
			Logo:           logo,
			AnimationStyle: req.AnimationStyle,
			Background:     req.Background,
			SFX:            req.SFX,
			Tagline:        req.Tagline,
			Format:         studio.ParseFormat(req.Format),
		})
		if err != nil {
			return nil, nil, err
		}
		return toResultResponse(res), &res, nil
	})
}

func (h *Handler) ChannelIntro(w http.ResponseWriter, r *http.Request) {
	var req introRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, []string{"Invalid JSON body."})
		return
	}
	h.generate(w, r, func(ctx context.Context) (any, *studio.Result, error) {
		res, err := h.studio.ChannelIntro(ctx, studio.IntroInput{
			ChannelName: req.ChannelName,
			Topic:       req.Topic,
			VisualStyle: req.VisualStyle,
			Energy:      req.Energy,
			Elements:    req.Elements,
			Format:      studio.ParseFormat(req.Format),
		})
		if err != nil {
			return nil, nil, err
		}
		return toResultResponse(res), &res, nil
	})
}

func (h *Handler) Explainer(w http.ResponseWriter, r *http.Request) {
	var req explainerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, []string{"Invalid JSON body."})
		return
	}
	h.generate(w, r, func(ctx context.Context) (any, *studio.Result, error) {
		res, err := h.studio.Explainer(ctx, studio.ExplainerInput{
			Topic:       req.Topic,
			KeyPoints:   req.KeyPoints,
			VisualStyle: req.VisualStyle,
			Duration:    req.Duration,
			Audience:    req.Audience,
			CTA:         req.CTA,
		})
		if err != nil {
			return nil, nil, err
		}
		return toResultResponse(res), &res, nil
	})
}

func (h *Handler) Storyboard(w http.ResponseWriter, r *http.Request) {
	var req storyboardRequest
	var reference studio.ImageSource

	if isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeErrors(w, http.StatusBadRequest, []string{"Invalid JSON body."})
			return
		}
		if strings.TrimSpace(req.Reference) != "" {
			// The reference is optional, so a bad one is only logged later.
			ref := req.Reference
			reference = func(context.Context) (gemini.Image, error) {
				return media.FromDataURL(ref)
			}
		}
	} else {
		form, err := parseMultipart(w, r)
		if err != nil {
			writeErrors(w, http.StatusBadRequest, []string{"Invalid multipart form."})
			return
		}
		req = storyboardRequest{
			Scenes: form.Value["scene"],
			Style:  formValue(form, "style"),
			Format: formValue(form, "format"),
		}
		reference = fileSource(form, "reference")
	}

	h.generate(w, r, func(ctx context.Context) (any, *studio.Result, error) {
		res, err := h.studio.Storyboard(ctx, studio.StoryboardInput{
			Scenes:    req.Scenes,
			Reference: reference,
			Style:     req.Style,
			Format:    studio.ParseFormat(req.Format),
		})
		if err != nil {
			return nil, nil, err
		}
		out := toResultResponse(res.Result)
		out.StyleGuide = res.StyleGuide
		out.Images = make([]*string, len(res.Images))
		for i, img := range res.Images {
			if img != nil {
				url := img.DataURL()
				out.Images[i] = &url
			}
		}
		return out, &res.Result, nil
	})
}

// Preview renders the given prompt, the first prompt of the given text, or the
// first prompt of the session's last result, in that order.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeErrors(w, http.StatusBadRequest, []string{"Invalid JSON body."})
		return
	}

	last := h.sessions.Get(sessionKey(r)).Result
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		recipe, text := studio.Recipe(req.Recipe), req.Text
		if strings.TrimSpace(text) == "" {
			if last != nil {
				recipe, text = last.Recipe, last.Prompt
			}
		} else if parsed, ok := studio.ParseRecipe(req.Recipe); ok {
			recipe = parsed
		}
		if p, ok := studio.ExtractFirstPrompt(recipe, text); ok {
			prompt = p
		}
	}
	if prompt == "" {
		writeErrors(w, http.StatusBadRequest, []string{"Please enter a prompt to preview."})
		return
	}

	h.generate(w, r, func(ctx context.Context) (any, *studio.Result, error) {
		img, err := h.studio.Preview(ctx, prompt)
		if err != nil {
			return nil, nil, err
		}
		// The previewed result stays the session's result.
		return previewResponse{Image: img.DataURL(), Prompt: prompt}, last, nil
	})
}

// generate runs one action through the session state machine. The session
// ends with result, or with none when result is nil. A panic in run fails
// the session before it propagates.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request, run func(context.Context) (any, *studio.Result, error)) {
	key := sessionKey(r)
	if _, err := h.sessions.Begin(key); err != nil {
		writeErrors(w, http.StatusConflict, []string{"A generation is already running.", "Please wait for it to finish."})
		return
	}
	finished := false
	defer func() {
		if !finished {
			_, _ = h.sessions.Fail(key, studio.Messages(errAborted))
		}
	}()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, result, err := run(ctx)
	finished = true
	if err != nil {
		lines := studio.Messages(err)
		if _, ferr := h.sessions.Fail(key, lines); ferr != nil {
			h.logger.Warn("session fail transition", "err", ferr)
		}
		writeErrors(w, statusFor(err), lines)
		return
	}

	if result != nil {
		_, err = h.sessions.Succeed(key, *result)
	} else {
		_, err = h.sessions.Apply(key, studio.EventSucceed, nil)
	}
	if err != nil {
		h.logger.Warn("session succeed transition", "err", err)
	}
	writeJSON(w, http.StatusOK, payload)
}

func statusFor(err error) int {
	switch {
	case studio.IsUserError(err):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func toResultResponse(res studio.Result) resultResponse {
	out := resultResponse{
		RunID:  res.RunID,
		Recipe: string(res.Recipe),
		Format: string(res.Format),
		Prompt: res.Prompt,
	}
	if p, ok := studio.ExtractFirstPrompt(res.Recipe, res.Prompt); ok {
		out.FirstPrompt = p
	}
	return out
}

func toSessionResponse(sess session.Session) sessionResponse {
	out := sessionResponse{
		View:   sess.View.String(),
		Errors: sess.Errors,
	}
	if sess.Result != nil {
		res := toResultResponse(*sess.Result)
		out.Result = &res
	}
	return out
}

func fileSource(form *multipart.Form, field string) studio.ImageSource {
	files := form.File[field]
	if len(files) == 0 {
		return nil
	}
	fh := files[0]
	return media.Lazy(func() (io.ReadCloser, error) {
		return fh.Open()
	}, fh.Header.Get("Content-Type"))
}

func parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, err
	}
	return r.MultipartForm, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, lines []string) {
	writeJSON(w, status, errorResponse{Errors: lines})
}
