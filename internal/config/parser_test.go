package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentReturnsValidatedBase(t *testing.T) {
	cfg, warnings, err := Parse("  \n\t", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseSelectsFormatByLeadingBrace(t *testing.T) {
	jsonc, _, err := Parse(`  {"relay": {"url": "ws://127.0.0.1:9000/ws"}}`, Default())
	require.NoError(t, err)
	require.Equal(t, "ws://127.0.0.1:9000/ws", jsonc.Relay.URL)

	yaml, _, err := Parse("relay:\n  url: ws://127.0.0.1:9001/ws\n", Default())
	require.NoError(t, err)
	require.Equal(t, "ws://127.0.0.1:9001/ws", yaml.Relay.URL)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		content string
		want    Format
	}{
		{path: "config.yaml", content: `{"relay": {}}`, want: FormatYAML},
		{path: "config.YML", content: "", want: FormatYAML},
		{path: "config.json", content: "relay:\n", want: FormatJSONC},
		{path: "config.jsonc", content: "", want: FormatJSONC},
		{path: "config", content: "\n  {", want: FormatJSONC},
		{path: "", content: "// leading comment\n{}", want: FormatJSONC},
		{path: "", content: "/* block */ {}", want: FormatJSONC},
		{path: "", content: "# yaml comment\nrelay: {}", want: FormatYAML},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, DetectFormat(tc.path, tc.content), "%q %q", tc.path, tc.content)
	}
	require.Equal(t, "yaml", FormatYAML.String())
	require.Equal(t, "jsonc", FormatJSONC.String())
}

func TestLoadHonorsYAMLExtensionForFlowMappings(t *testing.T) {
	clearCapsyncEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`{relay: {url: "ws://127.0.0.1:9002/ws"}}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ws://127.0.0.1:9002/ws", loaded.Config.Relay.URL)
}

func TestParseYAMLAppliesAllSections(t *testing.T) {
	cfg, warnings, err := parseYAML(`
# yaml configs accept comments too
relay:
  url: nats://127.0.0.1:4222
  subject: office.capslock
  dial_timeout_ms: 2500
  write_timeout_ms: 1500
sync:
  poll_interval_ms: 25
  retry_delay_ms: 500
  queue_size: 8
  apply_attempts: 1
indicator:
  led_glob: /tmp/leds/*/brightness
  toggle_cmd: "ydotool key 58:1 58:0"
cue:
  enable: true
  on_file: /tmp/on.wav
metrics:
  listen: 127.0.0.1:9464
log:
  level: WARN
  console: true
  status_interval_s: 0
`, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "nats://127.0.0.1:4222", cfg.Relay.URL)
	require.Equal(t, "office.capslock", cfg.Relay.Subject)
	require.Equal(t, 2500, cfg.Relay.DialTimeoutMS)
	require.Equal(t, 1500, cfg.Relay.WriteTimeoutMS)
	require.Equal(t, SyncConfig{PollIntervalMS: 25, RetryDelayMS: 500, QueueSize: 8, ApplyAttempts: 1}, cfg.Sync)
	require.Equal(t, "/tmp/leds/*/brightness", cfg.Indicator.LEDGlob)
	require.Equal(t, []string{"ydotool", "key", "58:1", "58:0"}, cfg.Indicator.ToggleCmd.Argv)
	require.True(t, cfg.Cue.Enable)
	require.Equal(t, "/tmp/on.wav", cfg.Cue.OnFile)
	require.Equal(t, "127.0.0.1:9464", cfg.Metrics.Listen)
	require.Equal(t, "warn", cfg.Log.Level)
	require.True(t, cfg.Log.Console)
	require.Zero(t, cfg.Log.StatusIntervalS)
}

func TestParseYAMLRejectsUnknownField(t *testing.T) {
	_, _, err := parseYAML("relay:\n  uri: ws://127.0.0.1/ws\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode yaml")
}

func TestParseYAMLRejectsMultipleDocuments(t *testing.T) {
	_, _, err := parseYAML("log:\n  level: info\n---\nlog:\n  level: debug\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple YAML documents")
}

func TestParseYAMLValidatesResult(t *testing.T) {
	_, _, err := parseYAML("sync:\n  poll_interval_ms: 0\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "sync.poll_interval_ms")
}
