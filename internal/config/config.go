package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string
	JWTTTL    time.Duration

	Location *time.Location
	LogLevel slog.Level

	NotionToken   string
	NotionAPIURL  string
	NotionVersion string

	PrepareCron      string
	PrepareLeadDays  int
	SyncPollInterval time.Duration
	SyncStaleAfter   time.Duration
	SyncMaxAttempts  int
}

// SyncEnabled reports whether a Notion token is configured.
func (c Config) SyncEnabled() bool { return c.NotionToken != "" }

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		NotionToken:          getenv("NOTION_TOKEN", ""),
		NotionAPIURL:         getenv("NOTION_API_URL", "https://api.notion.com/v1"),
		NotionVersion:        getenv("NOTION_VERSION", "2022-06-28"),
		PrepareCron:          getenv("PREPARE_CRON", "0 2 * * *"),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	loc, err := time.LoadLocation(getenv("TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if cfg.PrepareLeadDays, err = getInt("PREPARE_LEAD_DAYS", 3); err != nil {
		return Config{}, err
	}
	if cfg.SyncMaxAttempts, err = getInt("SYNC_MAX_ATTEMPTS", 8); err != nil {
		return Config{}, err
	}
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SyncPollInterval, err = getDuration("SYNC_POLL_INTERVAL", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SyncStaleAfter, err = getDuration("SYNC_STALE_AFTER", 10*time.Minute); err != nil {
		return Config{}, err
	}

	cfg.JWTSecret = mustGetenv("JWT_SECRET")
	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}

func getInt(key string, def int) (int, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: expected a positive integer, got %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := getenv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: expected a positive duration, got %q", key, v)
	}
	return d, nil
}
