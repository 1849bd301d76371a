package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

type Config struct {
	TelegramToken string
	GeminiAPIKey  string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	GeminiBackend    string
	GeminiBaseURL    string
	GeminiAPIVersion string
	TextModel        string
	ImageModel       string
	ImagenModel      string

	WebAddr string

	MaxConcurrent  int
	FanOutLimit    int
	FanOutInterval time.Duration
	AlbumDebounce  time.Duration
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	HTTPTimeout    time.Duration
}

// Load reads .env (if present) and the process environment. The Telegram
// token is checked by RequireTelegram since only the bot needs it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Debug:            getEnvBool("DEBUG", false),
		PreferIPv4:       getEnvBool("PREFER_IPV4", true),
		GeminiBackend:    strings.ToLower(getEnv("GEMINI_BACKEND", BackendREST)),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIVersion: getEnv("GEMINI_API_VERSION", "v1beta"),
		TextModel:        getEnv("GEMINI_TEXT_MODEL", ""),
		ImageModel:       getEnv("GEMINI_IMAGE_MODEL", ""),
		ImagenModel:      getEnv("IMAGEN_MODEL", ""),
		WebAddr:          getEnv("WEB_ADDR", ":8080"),
		MaxConcurrent:    getEnvInt("MAX_CONCURRENT", 4),
		FanOutLimit:      getEnvInt("FANOUT_LIMIT", 0),
		FanOutInterval:   getEnvDuration("FANOUT_INTERVAL_MS", 0, time.Millisecond),
		AlbumDebounce:    getEnvDuration("ALBUM_DEBOUNCE_MS", 1200, time.Millisecond),
		SessionTTL:       getEnvDuration("SESSION_TTL_MINUTES", 60, time.Minute),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT_SECONDS", 180, time.Second),
		HTTPTimeout:      getEnvDuration("HTTP_TIMEOUT_SECONDS", 180, time.Second),
	}

	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))

	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}
	switch cfg.GeminiBackend {
	case BackendREST, BackendSDK:
	default:
		return Config{}, errors.New("GEMINI_BACKEND must be rest or sdk")
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.FanOutLimit < 0 {
		cfg.FanOutLimit = 0
	}
	if cfg.FanOutInterval < 0 {
		cfg.FanOutInterval = 0
	}
	if cfg.AlbumDebounce <= 0 {
		cfg.AlbumDebounce = 1200 * time.Millisecond
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}

	return cfg, nil
}

func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvDuration reads an integer count of unit.
func getEnvDuration(key string, fallback int, unit time.Duration) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * unit
}
