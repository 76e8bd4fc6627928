package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsHaveNoWarnings(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty relay url", mutate: func(c *Config) { c.Relay.URL = "" }, wantErr: "relay.url must not be empty"},
		{name: "unsupported scheme", mutate: func(c *Config) { c.Relay.URL = "http://relay.example" }, wantErr: "scheme"},
		{name: "missing host", mutate: func(c *Config) { c.Relay.URL = "ws:///ws" }, wantErr: "host"},
		{name: "nats without subject", mutate: func(c *Config) {
			c.Relay.URL = "nats://127.0.0.1:4222"
			c.Relay.Subject = " "
		}, wantErr: "relay.subject"},
		{name: "zero dial timeout", mutate: func(c *Config) { c.Relay.DialTimeoutMS = 0 }, wantErr: "dial_timeout_ms"},
		{name: "zero write timeout", mutate: func(c *Config) { c.Relay.WriteTimeoutMS = 0 }, wantErr: "write_timeout_ms"},
		{name: "zero poll interval", mutate: func(c *Config) { c.Sync.PollIntervalMS = 0 }, wantErr: "poll_interval_ms"},
		{name: "zero retry delay", mutate: func(c *Config) { c.Sync.RetryDelayMS = 0 }, wantErr: "retry_delay_ms"},
		{name: "zero queue size", mutate: func(c *Config) { c.Sync.QueueSize = 0 }, wantErr: "queue_size"},
		{name: "zero apply attempts", mutate: func(c *Config) { c.Sync.ApplyAttempts = 0 }, wantErr: "apply_attempts"},
		{name: "empty led glob", mutate: func(c *Config) { c.Indicator.LEDGlob = "" }, wantErr: "led_glob"},
		{name: "empty toggle argv", mutate: func(c *Config) { c.Indicator.ToggleCmd = CommandConfig{} }, wantErr: "toggle_cmd"},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log.level"},
		{name: "negative status interval", mutate: func(c *Config) { c.Log.StatusIntervalS = -1 }, wantErr: "status_interval_s"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateAcceptsEveryRelayScheme(t *testing.T) {
	for _, raw := range []string{
		"ws://127.0.0.1:8080/ws",
		"wss://relay.example/ws",
		"nats://127.0.0.1:4222",
		"tls://nats.example:4222",
		"grpc://127.0.0.1:7000",
		"grpcs://relay.example:443",
	} {
		cfg := Default()
		cfg.Relay.URL = raw
		_, err := Validate(cfg)
		require.NoError(t, err, raw)
	}
}

func TestValidateWarnings(t *testing.T) {
	cfg := Default()
	cfg.Sync.PollIntervalMS = 5
	cfg.Cue.Enable = true

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "poll_interval_ms")
	require.Contains(t, warnings[1].Message, "cue.enable")
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	require.Equal(t, "50ms", cfg.Sync.PollInterval().String())
	require.Equal(t, "2s", cfg.Sync.RetryDelay().String())
	require.Equal(t, "10s", cfg.Relay.DialTimeout().String())
	require.Equal(t, "5s", cfg.Relay.WriteTimeout().String())
	require.Equal(t, "5m0s", cfg.Log.StatusInterval().String())
}
