package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type envOverride struct {
	key   string
	apply func(*Config, string) error
}

var envOverrides = []envOverride{
	{key: "CAPSYNC_RELAY_URL", apply: func(cfg *Config, v string) error {
		cfg.Relay.URL = v
		return nil
	}},
	{key: "CAPSYNC_RELAY_SUBJECT", apply: func(cfg *Config, v string) error {
		cfg.Relay.Subject = v
		return nil
	}},
	{key: "CAPSYNC_POLL_INTERVAL_MS", apply: func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		cfg.Sync.PollIntervalMS = n
		return nil
	}},
	{key: "CAPSYNC_LOG_LEVEL", apply: func(cfg *Config, v string) error {
		cfg.Log.Level = strings.ToLower(v)
		return nil
	}},
	{key: "CAPSYNC_METRICS_LISTEN", apply: func(cfg *Config, v string) error {
		cfg.Metrics.Listen = v
		return nil
	}},
}

// loadEnvFile merges a dotenv file into the process environment without
// overriding variables that are already set.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file %q: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// applyEnv applies CAPSYNC_* overrides and reports whether any were present.
func applyEnv(cfg *Config) (bool, error) {
	applied := false
	for _, o := range envOverrides {
		raw, ok := os.LookupEnv(o.key)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if err := o.apply(cfg, raw); err != nil {
			return false, fmt.Errorf("invalid %s=%q: %w", o.key, raw, err)
		}
		applied = true
	}
	return applied, nil
}
