// Package config loads runtime configuration from environment variables and
// the user's JSON profile file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultLoginURL      = "http://192.168.1.1/login"
	DefaultProbeURL      = "http://www.google.com"
	DefaultLoginInterval = 15 * time.Minute
	DefaultCheckInterval = 5 * time.Minute
)

// Config holds process-level configuration loaded from environment variables.
// Credentials and settings live in the profile file at ConfigPath instead.
type Config struct {
	DataDir       string
	ConfigPath    string
	SessionPath   string
	LogPath       string
	MetricsPath   string // Empty disables the Prometheus textfile.
	LoginURL      string
	ProbeURL      string
	LoginInterval time.Duration
	CheckInterval time.Duration
	LogLevel      slog.Level
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional:
// HOTSPOTLOGIN_DATA_DIR (user config dir + "/hotspotlogin"), HOTSPOTLOGIN_CONFIG_PATH,
// HOTSPOTLOGIN_SESSION_PATH, HOTSPOTLOGIN_LOG_PATH (all relative to the data dir by default),
// HOTSPOTLOGIN_METRICS_PATH (disabled), HOTSPOTLOGIN_LOGIN_URL, HOTSPOTLOGIN_PROBE_URL,
// HOTSPOTLOGIN_LOGIN_INTERVAL (15m), HOTSPOTLOGIN_CHECK_INTERVAL (5m),
// HOTSPOTLOGIN_LOG_LEVEL (info).
func Load() (*Config, error) {
	dataDir := defaultDataDir()
	if v, ok := os.LookupEnv("HOTSPOTLOGIN_DATA_DIR"); ok && v != "" {
		dataDir = v
	}

	loginInterval, err := durationEnv("HOTSPOTLOGIN_LOGIN_INTERVAL", DefaultLoginInterval)
	if err != nil {
		return nil, err
	}
	checkInterval, err := durationEnv("HOTSPOTLOGIN_CHECK_INTERVAL", DefaultCheckInterval)
	if err != nil {
		return nil, err
	}

	level, err := parseLevel(stringEnv("HOTSPOTLOGIN_LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	return &Config{
		DataDir:       dataDir,
		ConfigPath:    stringEnv("HOTSPOTLOGIN_CONFIG_PATH", filepath.Join(dataDir, "config.json")),
		SessionPath:   stringEnv("HOTSPOTLOGIN_SESSION_PATH", filepath.Join(dataDir, "session.json")),
		LogPath:       stringEnv("HOTSPOTLOGIN_LOG_PATH", filepath.Join(dataDir, "hotspot.log")),
		MetricsPath:   os.Getenv("HOTSPOTLOGIN_METRICS_PATH"),
		LoginURL:      stringEnv("HOTSPOTLOGIN_LOGIN_URL", DefaultLoginURL),
		ProbeURL:      stringEnv("HOTSPOTLOGIN_PROBE_URL", DefaultProbeURL),
		LoginInterval: loginInterval,
		CheckInterval: checkInterval,
		LogLevel:      level,
	}, nil
}

// defaultDataDir prefers the per-user config directory and falls back to the
// working directory when no home is available (e.g. minimal service accounts).
func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "hotspotlogin")
	}
	return "."
}

func stringEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, v)
	}
	return parsed, nil
}

func parseLevel(v string) (slog.Level, error) {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("HOTSPOTLOGIN_LOG_LEVEL has invalid level %q", v)
	}
}
