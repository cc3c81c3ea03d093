// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables win over it. Command-line flags in cmd/server win
// over both.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultHTTPPort     = 8080
	DefaultDatabasePath = "teapos.db"
	DefaultStaticDir    = "./web/dist"
)

var defaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// Config holds application configuration values.
type Config struct {
	HTTPPort     int
	DatabasePath string
	// APIKey guards manager and cashier routes. Empty disables the check.
	APIKey      string
	LogLevel    string
	LogFormat   string
	Timezone    string
	CORSOrigins []string
	SeedDemo    bool
	StaticDir   string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv), nil
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) Config {
	cfg := Config{
		HTTPPort:     DefaultHTTPPort,
		DatabasePath: get(getenv, "DATABASE_PATH", DefaultDatabasePath),
		APIKey:       strings.TrimSpace(getenv("API_KEY")),
		LogLevel:     strings.ToLower(get(getenv, "LOG_LEVEL", "info")),
		LogFormat:    strings.ToLower(get(getenv, "LOG_FORMAT", "text")),
		Timezone:     get(getenv, "TIMEZONE", "Local"),
		CORSOrigins:  defaultCORSOrigins,
		StaticDir:    get(getenv, "STATIC_DIR", DefaultStaticDir),
	}

	if port := getenv("HTTP_PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			slog.Warn("invalid HTTP_PORT, using default", "value", port, "default", DefaultHTTPPort)
		} else {
			cfg.HTTPPort = n
		}
	}

	if origins := splitList(getenv("CORS_ORIGINS")); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}

	if seed := getenv("SEED_DEMO"); seed != "" {
		b, err := strconv.ParseBool(seed)
		if err != nil {
			slog.Warn("invalid SEED_DEMO, using false", "value", seed)
		}
		cfg.SeedDemo = b
	}

	return cfg
}

// Location resolves Timezone. "Local" and "" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func get(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
