// Package web serves the studio over a JSON HTTP API.
package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/tamirka/ainario/internal/gemini"
	"github.com/tamirka/ainario/internal/session"
	"github.com/tamirka/ainario/internal/studio"
)

const (
	maxUploadBytes = 25 << 20
	maxJSONBytes   = 30 << 20
	sessionCookie  = "studio_session"
)

// Studio is the part of *studio.Studio the API needs.
type Studio interface {
	Logo(ctx context.Context, in studio.LogoInput) (studio.Result, error)
	ChannelIntro(ctx context.Context, in studio.IntroInput) (studio.Result, error)
	Explainer(ctx context.Context, in studio.ExplainerInput) (studio.Result, error)
	Storyboard(ctx context.Context, in studio.StoryboardInput) (studio.StoryboardResult, error)
	Preview(ctx context.Context, prompt string) (gemini.Image, error)
}

type Options struct {
	Studio         Studio
	Sessions       *session.Store
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

type Handler struct {
	studio   Studio
	sessions *session.Store
	logger   *slog.Logger
	timeout  time.Duration
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore(session.Options{})
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Handler{
		studio:   opts.Studio,
		sessions: sessions,
		logger:   logger,
		timeout:  timeout,
	}
}

// NewRouter wires middleware and routes around h.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(withLogging(h.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(withSession)

		r.Get("/catalog", h.Catalog)
		r.Get("/session", h.Session)
		r.Post("/session/dismiss", h.Dismiss)

		r.Post("/logo", h.Logo)
		r.Post("/intro", h.ChannelIntro)
		r.Post("/explainer", h.Explainer)
		r.Post("/storyboard", h.Storyboard)
		r.Post("/preview", h.Preview)
	})

	return r
}

func withLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", middleware.GetReqID(r.Context()),
				"dur_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type sessionKeyCtx struct{}

// withSession gives every API client a stable session cookie.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), sessionKeyCtx{}, "web:"+id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionKey(r *http.Request) string {
	if key, ok := r.Context().Value(sessionKeyCtx{}).(string); ok {
		return key
	}
	return "web:anonymous"
}
