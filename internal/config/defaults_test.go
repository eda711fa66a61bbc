package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Addr != ":8080" || cfg.LogLevel != "info" || cfg.Overlap != "allow" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RequestTimeout() != 10*time.Second || cfg.DiscussionPoll() != 10*time.Second || cfg.TimelinePoll() != 0 {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.BinSize() != time.Minute {
		t.Fatalf("bin=%v", cfg.BinSize())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestApplyDefaultsKeepsSetValues(t *testing.T) {
	cfg := Config{Addr: ":1", RequestTimeoutMS: 5, Polls: PollConfig{TimelineMS: 7}}
	ApplyDefaults(&cfg)
	if cfg.Addr != ":1" || cfg.RequestTimeoutMS != 5 || cfg.Polls.TimelineMS != 7 {
		t.Fatalf("overwrote set values: %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvAddr: ":9000", EnvLogLevel: "debug"}
	cfg := Defaults()
	ApplyEnv(&cfg, func(k string) string { return env[k] })
	if cfg.Addr != ":9000" || cfg.LogLevel != "debug" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	ApplyEnv(&cfg, func(string) string { return "" })
	if cfg.Addr != ":9000" {
		t.Fatalf("empty env overwrote addr")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"scheme":    func(c *Config) { c.BaseURL = "ftp://x" },
		"log level": func(c *Config) { c.LogLevel = "loud" },
		"overlap":   func(c *Config) { c.Overlap = "drop" },
		"timeline":  func(c *Config) { c.Polls.TimelineMS = -1 },
		"h2c+tls":   func(c *Config) { c.H2C = true; c.TLS.CAFile = "ca.pem" },
		"tls parts": func(c *Config) { c.TLS.CertFile = "c.pem" },
	}
	for name, mutate := range cases {
		cfg := Defaults()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
