// Package app holds the wiring shared by the binaries.
package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/tamirka/ainario/internal/config"
	"github.com/tamirka/ainario/internal/gemini"
	"github.com/tamirka/ainario/internal/httpclient"
	"github.com/tamirka/ainario/internal/studio"
)

func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func NewHTTPClient(cfg config.Config) *http.Client {
	maxConns := 0
	if cfg.FanOutLimit > 0 {
		maxConns = cfg.FanOutLimit + 2
	}
	return httpclient.New(httpclient.Options{
		PreferIPv4:      cfg.PreferIPv4,
		Timeout:         cfg.HTTPTimeout,
		MaxConnsPerHost: maxConns,
	})
}

// NewGenerator picks the generative backend named by GEMINI_BACKEND.
func NewGenerator(ctx context.Context, cfg config.Config, httpClient *http.Client, logger *slog.Logger) (studio.Generator, error) {
	if cfg.GeminiBackend == config.BackendSDK {
		client, err := gemini.NewSDK(ctx, gemini.SDKOptions{
			APIKey:     cfg.GeminiAPIKey,
			BaseURL:    cfg.GeminiBaseURL,
			TextModel:  cfg.TextModel,
			ImageModel: cfg.ImagenModel,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		TextModel:  cfg.TextModel,
		ImageModel: cfg.ImageModel,
		HTTPClient: httpClient,
		Logger:     logger,
	}), nil
}

// NewStudio builds the storyboard service from cfg.
func NewStudio(ctx context.Context, cfg config.Config, httpClient *http.Client, logger *slog.Logger) (*studio.Studio, error) {
	gen, err := NewGenerator(ctx, cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}
	return studio.New(studio.Options{
		Generator:      gen,
		Logger:         logger,
		FanOutLimit:    cfg.FanOutLimit,
		FanOutInterval: cfg.FanOutInterval,
	}), nil
}
