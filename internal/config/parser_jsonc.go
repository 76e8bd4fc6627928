package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// fileConfig is the sparse on-disk shape shared by the JSONC and YAML decoders.
// Nil fields keep the base value.
type fileConfig struct {
	Relay     *fileRelay     `json:"relay" yaml:"relay"`
	Sync      *fileSync      `json:"sync" yaml:"sync"`
	Indicator *fileIndicator `json:"indicator" yaml:"indicator"`
	Cue       *fileCue       `json:"cue" yaml:"cue"`
	Metrics   *fileMetrics   `json:"metrics" yaml:"metrics"`
	Log       *fileLog       `json:"log" yaml:"log"`
}

type fileRelay struct {
	URL            *string `json:"url" yaml:"url"`
	Subject        *string `json:"subject" yaml:"subject"`
	DialTimeoutMS  *int    `json:"dial_timeout_ms" yaml:"dial_timeout_ms"`
	WriteTimeoutMS *int    `json:"write_timeout_ms" yaml:"write_timeout_ms"`
}

type fileSync struct {
	PollIntervalMS *int `json:"poll_interval_ms" yaml:"poll_interval_ms"`
	RetryDelayMS   *int `json:"retry_delay_ms" yaml:"retry_delay_ms"`
	QueueSize      *int `json:"queue_size" yaml:"queue_size"`
	ApplyAttempts  *int `json:"apply_attempts" yaml:"apply_attempts"`
}

type fileIndicator struct {
	LEDGlob   *string `json:"led_glob" yaml:"led_glob"`
	ToggleCmd *string `json:"toggle_cmd" yaml:"toggle_cmd"`
}

type fileCue struct {
	Enable  *bool   `json:"enable" yaml:"enable"`
	OnFile  *string `json:"on_file" yaml:"on_file"`
	OffFile *string `json:"off_file" yaml:"off_file"`
}

type fileMetrics struct {
	Listen *string `json:"listen" yaml:"listen"`
}

type fileLog struct {
	Level           *string `json:"level" yaml:"level"`
	Console         *bool   `json:"console" yaml:"console"`
	StatusIntervalS *int    `json:"status_interval_s" yaml:"status_interval_s"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := stripJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload fileConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, locateDecodeError(normalized, err)
	}
	if err := expectEOF(decoder); err != nil {
		return Config{}, nil, locateDecodeError(normalized, err)
	}

	return payload.resolve(base)
}

// resolve overlays payload onto base and validates the result.
func (payload fileConfig) resolve(base Config) (Config, []Warning, error) {
	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload fileConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Relay != nil {
		if payload.Relay.URL != nil {
			cfg.Relay.URL = strings.TrimSpace(*payload.Relay.URL)
		}
		if payload.Relay.Subject != nil {
			cfg.Relay.Subject = strings.TrimSpace(*payload.Relay.Subject)
		}
		if payload.Relay.DialTimeoutMS != nil {
			cfg.Relay.DialTimeoutMS = *payload.Relay.DialTimeoutMS
		}
		if payload.Relay.WriteTimeoutMS != nil {
			cfg.Relay.WriteTimeoutMS = *payload.Relay.WriteTimeoutMS
		}
	}

	if payload.Sync != nil {
		if payload.Sync.PollIntervalMS != nil {
			cfg.Sync.PollIntervalMS = *payload.Sync.PollIntervalMS
		}
		if payload.Sync.RetryDelayMS != nil {
			cfg.Sync.RetryDelayMS = *payload.Sync.RetryDelayMS
		}
		if payload.Sync.QueueSize != nil {
			cfg.Sync.QueueSize = *payload.Sync.QueueSize
		}
		if payload.Sync.ApplyAttempts != nil {
			cfg.Sync.ApplyAttempts = *payload.Sync.ApplyAttempts
		}
	}

	if payload.Indicator != nil {
		if payload.Indicator.LEDGlob != nil {
			cfg.Indicator.LEDGlob = strings.TrimSpace(*payload.Indicator.LEDGlob)
		}
		if payload.Indicator.ToggleCmd != nil {
			cmd, err := ParseCommand(*payload.Indicator.ToggleCmd)
			if err != nil {
				return nil, fmt.Errorf("invalid indicator.toggle_cmd: %w", err)
			}
			cfg.Indicator.ToggleCmd = cmd
		}
	}

	if payload.Cue != nil {
		if payload.Cue.Enable != nil {
			cfg.Cue.Enable = *payload.Cue.Enable
		}
		if payload.Cue.OnFile != nil {
			cfg.Cue.OnFile = strings.TrimSpace(*payload.Cue.OnFile)
		}
		if payload.Cue.OffFile != nil {
			cfg.Cue.OffFile = strings.TrimSpace(*payload.Cue.OffFile)
		}
	}

	if payload.Metrics != nil && payload.Metrics.Listen != nil {
		cfg.Metrics.Listen = strings.TrimSpace(*payload.Metrics.Listen)
	}

	if payload.Log != nil {
		if payload.Log.Level != nil {
			cfg.Log.Level = strings.ToLower(strings.TrimSpace(*payload.Log.Level))
		}
		if payload.Log.Console != nil {
			cfg.Log.Console = *payload.Log.Console
		}
		if payload.Log.StatusIntervalS != nil {
			cfg.Log.StatusIntervalS = *payload.Log.StatusIntervalS
		}
	}

	return warnings, nil
}

