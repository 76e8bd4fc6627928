package config

import (
	"fmt"
	"net/url"
	"strings"
)

var relaySchemes = map[string]struct{}{
	"ws":    {},
	"wss":   {},
	"nats":  {},
	"tls":   {},
	"grpc":  {},
	"grpcs": {},
}

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	rawURL := strings.TrimSpace(cfg.Relay.URL)
	if rawURL == "" {
		return nil, fmt.Errorf("relay.url must not be empty")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("relay.url is invalid: %w", err)
	}
	if _, ok := relaySchemes[strings.ToLower(parsed.Scheme)]; !ok {
		return nil, fmt.Errorf("relay.url scheme must be one of: ws, wss, nats, tls, grpc, grpcs")
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("relay.url must include a host")
	}
	if isNATSScheme(parsed.Scheme) && strings.TrimSpace(cfg.Relay.Subject) == "" {
		return nil, fmt.Errorf("relay.subject must not be empty for NATS relays")
	}
	if cfg.Relay.DialTimeoutMS <= 0 {
		return nil, fmt.Errorf("relay.dial_timeout_ms must be > 0")
	}
	if cfg.Relay.WriteTimeoutMS <= 0 {
		return nil, fmt.Errorf("relay.write_timeout_ms must be > 0")
	}

	if cfg.Sync.PollIntervalMS <= 0 {
		return nil, fmt.Errorf("sync.poll_interval_ms must be > 0")
	}
	if cfg.Sync.PollIntervalMS < 10 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("sync.poll_interval_ms=%d polls the indicator very aggressively", cfg.Sync.PollIntervalMS)})
	}
	if cfg.Sync.RetryDelayMS <= 0 {
		return nil, fmt.Errorf("sync.retry_delay_ms must be > 0")
	}
	if cfg.Sync.QueueSize <= 0 {
		return nil, fmt.Errorf("sync.queue_size must be > 0")
	}
	if cfg.Sync.ApplyAttempts <= 0 {
		return nil, fmt.Errorf("sync.apply_attempts must be > 0")
	}

	if strings.TrimSpace(cfg.Indicator.LEDGlob) == "" {
		return nil, fmt.Errorf("indicator.led_glob must not be empty")
	}
	if len(cfg.Indicator.ToggleCmd.Argv) == 0 {
		return nil, fmt.Errorf("indicator.toggle_cmd must not be empty")
	}

	if _, ok := logLevels[strings.ToLower(strings.TrimSpace(cfg.Log.Level))]; !ok {
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if cfg.Log.StatusIntervalS < 0 {
		return nil, fmt.Errorf("log.status_interval_s must be >= 0")
	}

	if cfg.Cue.Enable && cfg.Cue.OnFile == "" && cfg.Cue.OffFile == "" {
		warnings = append(warnings, Warning{Message: "cue.enable=true without cue files; using synthesized tones"})
	}

	return warnings, nil
}

func isNATSScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "nats", "tls":
		return true
	default:
		return false
	}
}
