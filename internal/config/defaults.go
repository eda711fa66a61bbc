package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"livedash/internal/poll"
)

// Environment variables that override file settings.
const (
	EnvAddr     = "LIVEDASH_ADDR"
	EnvLogLevel = "LIVEDASH_LOG_LEVEL"
)

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	cfg := Config{}
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost/"
	}
	if cfg.RequestTimeoutMS <= 0 {
		cfg.RequestTimeoutMS = 10_000
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Polls.DiscussionMS <= 0 {
		cfg.Polls.DiscussionMS = 10_000
	}
	if cfg.Overlap == "" {
		cfg.Overlap = poll.OverlapAllow.String()
	}
	if cfg.BinSeconds <= 0 {
		cfg.BinSeconds = 60
	}
}

// ApplyEnv applies environment overrides using getenv, typically os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("base_url %q must be an http or https URL", c.BaseURL)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := poll.ParseOverlap(c.Overlap); err != nil {
		return err
	}
	if c.Polls.TimelineMS < 0 {
		return fmt.Errorf("polls.timeline_ms must not be negative")
	}
	if c.H2C && c.TLS.Enabled() {
		return fmt.Errorf("h2c and tls are mutually exclusive")
	}
	if c.TLS.Enabled() && (c.TLS.CertFile == "" || c.TLS.KeyFile == "" || c.TLS.CAFile == "") {
		return fmt.Errorf("tls needs cert_file, key_file and ca_file")
	}
	return nil
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func (c Config) TimelinePoll() time.Duration {
	return time.Duration(c.Polls.TimelineMS) * time.Millisecond
}

func (c Config) DiscussionPoll() time.Duration {
	return time.Duration(c.Polls.DiscussionMS) * time.Millisecond
}

func (c Config) BinSize() time.Duration {
	return time.Duration(c.BinSeconds) * time.Second
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
