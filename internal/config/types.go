// Package config resolves, parses, validates, and defaults capsync configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by capsync.
type Config struct {
	Relay     RelayConfig
	Sync      SyncConfig
	Indicator IndicatorConfig
	Cue       CueConfig
	Metrics   MetricsConfig
	Log       LogConfig
}

// RelayConfig selects the relay endpoint and transport timeouts.
type RelayConfig struct {
	URL            string
	Subject        string
	DialTimeoutMS  int
	WriteTimeoutMS int
}

// SyncConfig controls reconciler cadence and supervisor retry behavior.
type SyncConfig struct {
	PollIntervalMS int
	RetryDelayMS   int
	QueueSize      int
	ApplyAttempts  int
}

// IndicatorConfig controls how the platform caps-lock adapter reads and toggles state.
type IndicatorConfig struct {
	LEDGlob   string
	ToggleCmd CommandConfig
}

// CueConfig controls the audible cue played when a remote toggle is applied.
type CueConfig struct {
	Enable  bool
	OnFile  string
	OffFile string
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Listen string
}

// LogConfig controls runtime log level and console mirroring.
type LogConfig struct {
	Level            string
	Console          bool
	StatusIntervalS int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// DialTimeout returns the relay connect timeout.
func (c RelayConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMS) * time.Millisecond
}

// WriteTimeout returns the per-message send timeout.
func (c RelayConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}

// PollInterval returns the reconciler period.
func (c SyncConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// RetryDelay returns the fixed wait after a failed connect.
func (c SyncConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// StatusInterval returns the status log period; zero disables it.
func (c LogConfig) StatusInterval() time.Duration {
	return time.Duration(c.StatusIntervalS) * time.Second
}
