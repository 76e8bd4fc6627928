package config

// DefaultRelayURL is the public relay used when relay.url is unset.
const DefaultRelayURL = "wss://globalcapslock.com/ws"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	toggle := "xdotool key Caps_Lock"

	return Config{
		Relay: RelayConfig{
			URL:            DefaultRelayURL,
			Subject:        "capsync.capslock",
			DialTimeoutMS:  10000,
			WriteTimeoutMS: 5000,
		},
		Sync: SyncConfig{
			PollIntervalMS: 50,
			RetryDelayMS:   2000,
			QueueSize:      64,
			ApplyAttempts:  3,
		},
		Indicator: IndicatorConfig{
			LEDGlob:   "/sys/class/leds/input*::capslock/brightness",
			ToggleCmd: mustParseCommand(toggle),
		},
		Cue:     CueConfig{},
		Metrics: MetricsConfig{},
		Log: LogConfig{
			Level:           "info",
			StatusIntervalS: 300,
		},
	}
}
