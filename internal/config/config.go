// Package config loads the casting engine's configuration from
// environment variables, with an optional YAML overlay file read first so
// env vars always win.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/StarFreedomX/ktv-casting-go/internal/playlist"
)

// Config holds the engine's runtime configuration.
type Config struct {
	LogLevel int // 0=error,1=warn,2=info,3=debug

	SyncMode          playlist.SyncMode
	KeepAliveInterval int // seconds
	Nickname          string

	ProxyPort         int
	AdminPort         int
	AdminEnabled      bool
	DiscoveryWindowMs int
	DiscoverySchedule string // robfig/cron expression
}

// overlay mirrors the subset of Config fields that may be set from the
// optional YAML file; every field is a pointer so "unset in file" and
// "set to zero value" are distinguishable.
type overlay struct {
	LogLevel          *int    `yaml:"logLevel"`
	SyncMode          *string `yaml:"syncMode"`
	KeepAliveInterval *int    `yaml:"keepAliveInterval"`
	Nickname          *string `yaml:"nickname"`
	ProxyPort         *int    `yaml:"proxyPort"`
	AdminPort         *int    `yaml:"adminPort"`
	AdminEnabled      *bool   `yaml:"adminEnabled"`
	DiscoveryWindowMs *int    `yaml:"discoveryWindowMs"`
	DiscoverySchedule *string `yaml:"discoverySchedule"`
}

// defaultConfigPaths are searched in order when KTV_CONFIG_PATH is unset.
var defaultConfigPaths = []string{
	"ktv-cast.yaml",
	"./config/ktv-cast.yaml",
}

// Load reads the optional YAML overlay (if present), then applies
// environment variables on top, env always winning.
func Load() (Config, error) {
	ov, err := loadOverlay()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogLevel:          overlayInt(ov.LogLevel, 1),
		SyncMode:          playlist.SyncMode(overlayString(ov.SyncMode, string(playlist.SyncModeWS))),
		KeepAliveInterval: overlayInt(ov.KeepAliveInterval, 30),
		Nickname:          overlayString(ov.Nickname, ""),
		ProxyPort:         overlayInt(ov.ProxyPort, 8080),
		AdminPort:         overlayInt(ov.AdminPort, 8089),
		AdminEnabled:      overlayBool(ov.AdminEnabled, true),
		DiscoveryWindowMs: overlayInt(ov.DiscoveryWindowMs, 3000),
		DiscoverySchedule: overlayString(ov.DiscoverySchedule, "@every 5m"),
	}

	cfg.LogLevel = envInt("KTV_LOG_LEVEL", cfg.LogLevel)
	cfg.SyncMode = playlist.SyncMode(envString("KTV_SYNC_MODE", string(cfg.SyncMode)))
	cfg.KeepAliveInterval = envInt("KEEP_ALIVE_INTERVAL", cfg.KeepAliveInterval)
	cfg.Nickname = envString("KTV_NICKNAME", cfg.Nickname)
	cfg.ProxyPort = envInt("KTV_PROXY_PORT", cfg.ProxyPort)
	cfg.AdminPort = envInt("KTV_ADMIN_PORT", cfg.AdminPort)
	cfg.AdminEnabled = envBool("KTV_ADMIN_ENABLED", cfg.AdminEnabled)
	cfg.DiscoveryWindowMs = envInt("KTV_DISCOVERY_WINDOW_MS", cfg.DiscoveryWindowMs)
	cfg.DiscoverySchedule = envString("KTV_DISCOVERY_SCHEDULE", cfg.DiscoverySchedule)

	if cfg.SyncMode != playlist.SyncModeWS && cfg.SyncMode != playlist.SyncModePolling {
		cfg.SyncMode = playlist.SyncModeWS
	}

	return cfg, nil
}

func loadOverlay() (overlay, error) {
	path := envString("KTV_CONFIG_PATH", "")
	if path != "" {
		return readOverlayFile(path)
	}
	for _, candidate := range defaultConfigPaths {
		if _, err := os.Stat(candidate); err == nil {
			return readOverlayFile(candidate)
		}
	}
	return overlay{}, nil
}

func readOverlayFile(path string) (overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return overlay{}, nil
	}
	var ov overlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return overlay{}, err
	}
	return ov, nil
}

func overlayInt(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func overlayString(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func overlayBool(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true")
}
