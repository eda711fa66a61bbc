package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr    string `json:"addr" yaml:"addr" toml:"addr"`
	BaseURL string `json:"base_url" yaml:"base_url" toml:"base_url"`
	// H2C talks HTTP/2 cleartext to the backend.
	H2C              bool      `json:"h2c" yaml:"h2c" toml:"h2c"`
	TLS              TLSConfig `json:"tls" yaml:"tls" toml:"tls"`
	RequestTimeoutMS int       `json:"request_timeout_ms" yaml:"request_timeout_ms" toml:"request_timeout_ms"`
	LogLevel         string    `json:"log_level" yaml:"log_level" toml:"log_level"`
	// Routes adds or overrides backend endpoint paths.
	Routes     map[string]string `json:"routes" yaml:"routes" toml:"routes"`
	Polls      PollConfig        `json:"polls" yaml:"polls" toml:"polls"`
	Overlap    string            `json:"overlap" yaml:"overlap" toml:"overlap"`
	BinSeconds int               `json:"bin_seconds" yaml:"bin_seconds" toml:"bin_seconds"`
	CORS       CORSConfig        `json:"cors" yaml:"cors" toml:"cors"`
	// Queries and Interval seed the session's models.
	Queries  []map[string]any `json:"queries" yaml:"queries" toml:"queries"`
	Interval map[string]any   `json:"interval" yaml:"interval" toml:"interval"`
}

// TLSConfig enables mutual TLS to the backend when all three paths are set.
type TLSConfig struct {
	CertFile string `json:"cert_file" yaml:"cert_file" toml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file" toml:"key_file"`
	CAFile   string `json:"ca_file" yaml:"ca_file" toml:"ca_file"`
}

func (t TLSConfig) Enabled() bool { return t.CertFile != "" || t.KeyFile != "" || t.CAFile != "" }

// PollConfig sets poll intervals in milliseconds. A zero timeline interval
// disables live timeline updates.
type PollConfig struct {
	TimelineMS   int `json:"timeline_ms" yaml:"timeline_ms" toml:"timeline_ms"`
	DiscussionMS int `json:"discussion_ms" yaml:"discussion_ms" toml:"discussion_ms"`
}

type CORSConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := expandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	for _, p := range []*string{&cfg.TLS.CertFile, &cfg.TLS.KeyFile, &cfg.TLS.CAFile} {
		if *p, err = expandHome(*p); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}
