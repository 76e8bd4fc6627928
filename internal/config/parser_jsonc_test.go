package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONCRejectsInvalidToggleArgv(t *testing.T) {
	_, _, err := parseJSONC(`{"indicator":{"toggle_cmd":"unterminated ' quote"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid indicator.toggle_cmd")
}

func TestParseJSONCTrimsStringFields(t *testing.T) {
	cfg, _, err := parseJSONC(`{
  "relay": {"url": "  ws://127.0.0.1:8080/ws  ", "subject": " caps "},
  "log": {"level": " DEBUG "},
  "metrics": {"listen": " 127.0.0.1:9464 "},
}`, Default())
	require.NoError(t, err)
	require.Equal(t, "ws://127.0.0.1:8080/ws", cfg.Relay.URL)
	require.Equal(t, "caps", cfg.Relay.Subject)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "127.0.0.1:9464", cfg.Metrics.Listen)
}

func TestParseJSONCOverlaysOnlyPresentFields(t *testing.T) {
	cfg, _, err := parseJSONC(`{
  // only cadence changes
  "sync": {"poll_interval_ms": 100},
}`, Default())
	require.NoError(t, err)
	require.Equal(t, 100, cfg.Sync.PollIntervalMS)
	require.Equal(t, Default().Sync.RetryDelayMS, cfg.Sync.RetryDelayMS)
	require.Equal(t, Default().Relay, cfg.Relay)
	require.Equal(t, Default().Indicator, cfg.Indicator)
}

func TestParseJSONCRejectsUnknownField(t *testing.T) {
	_, _, err := parseJSONC(`{"relay":{"uri":"ws://x"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseJSONCRejectsMultipleTopLevelValues(t *testing.T) {
	_, _, err := parseJSONC(`{"cue":{"enable":false}}{"cue":{"enable":true}}`, Default())
	require.Error(t, err)
	require.True(
		t,
		strings.Contains(err.Error(), "multiple JSON values") || strings.Contains(err.Error(), "unknown field"),
		"unexpected error: %v",
		err,
	)
}

func TestParseJSONCTypeErrorIncludesLocation(t *testing.T) {
	_, _, err := parseJSONC(`{
  "relay": {"url": 123}
}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line")
	require.Contains(t, err.Error(), "column")
}
