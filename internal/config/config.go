package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds ouiwatch's runtime settings.
type Config struct {
	APIURL         string
	LogFile        string
	DevicePoll     time.Duration
	StatusPoll     time.Duration
	ListsPoll      time.Duration
	ConfigPoll     time.Duration
	RequestTimeout time.Duration
}

const (
	defaultConfigPath     = "~/.config/ouiwatch/config.toml"
	defaultLogFile        = "~/.local/state/ouiwatch/ouiwatch.log"
	defaultAPIURL         = "127.0.0.1:5000"
	defaultDevicePoll     = 2 * time.Second
	defaultStatusPoll     = 2 * time.Second
	defaultListsPoll      = 30 * time.Second
	defaultConfigPoll     = 30 * time.Second
	defaultRequestTimeout = 5 * time.Second
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		LogFile:        mustExpand(defaultLogFile),
		DevicePoll:     defaultDevicePoll,
		StatusPoll:     defaultStatusPoll,
		ListsPoll:      defaultListsPoll,
		ConfigPoll:     defaultConfigPoll,
		RequestTimeout: defaultRequestTimeout,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL         string `toml:"api_url"`
		LogFile        string `toml:"log_file"`
		DevicePoll     string `toml:"device_poll"`
		StatusPoll     string `toml:"status_poll"`
		ListsPoll      string `toml:"lists_poll"`
		ConfigPoll     string `toml:"config_poll"`
		RequestTimeout string `toml:"request_timeout"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	cfg.DevicePoll = parseDuration(raw.DevicePoll, defaultDevicePoll)
	cfg.StatusPoll = parseDuration(raw.StatusPoll, defaultStatusPoll)
	cfg.ListsPoll = parseDuration(raw.ListsPoll, defaultListsPoll)
	cfg.ConfigPoll = parseDuration(raw.ConfigPoll, defaultConfigPoll)
	cfg.RequestTimeout = parseDuration(raw.RequestTimeout, defaultRequestTimeout)

	return cfg, nil
}

// WithPoll overrides the device and status periods.
func (c Config) WithPoll(every time.Duration) Config {
	if every > 0 {
		c.DevicePoll = every
		c.StatusPoll = every
	}
	return c
}

// parseDuration accepts Go duration strings; blank, invalid, or non-positive
// values yield fallback.
func parseDuration(value string, fallback time.Duration) time.Duration {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
