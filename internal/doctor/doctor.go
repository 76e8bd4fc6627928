// Package doctor checks that capsync can read the local caps lock and reach
// the relay before the daemon is started.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/capsync/internal/config"
	"github.com/rbright/capsync/internal/cue"
	"github.com/rbright/capsync/internal/indicator"
	"github.com/rbright/capsync/internal/relay"
)

// indicatorTimeout bounds the probe read of the caps lock state.
const indicatorTimeout = 3 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for i, check := range r.Checks {
		if i > 0 {
			b.WriteByte('\n')
		}
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %s: %s", status, check.Name, check.Message)
	}
	return b.String()
}

// Run checks config, the platform indicator, the relay, and the optional cue.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{configCheck(cfg)}

	adapter, err := indicator.New(cfg.Config.Indicator)
	checks = append(checks, checkIndicator(ctx, adapter, err))

	dialer, err := relay.NewDialer(cfg.Config.Relay)
	checks = append(checks, checkRelay(ctx, cfg.Config.Relay, dialer, err))

	checks = append(checks, checkCue(cfg.Config.Cue)...)
	return Report{Checks: checks}
}

func configCheck(cfg config.Loaded) Check {
	if !cfg.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("no file at %q; using defaults", cfg.Path)}
	}
	message := fmt.Sprintf("loaded %q", cfg.Path)
	if n := len(cfg.Warnings); n > 0 {
		message += fmt.Sprintf(" (%d warnings)", n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkIndicator reports whether the adapter could be built and read once.
func checkIndicator(ctx context.Context, adapter indicator.Adapter, buildErr error) Check {
	if buildErr != nil {
		return Check{Name: "indicator", Pass: false, Message: buildErr.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, indicatorTimeout)
	defer cancel()

	on, err := adapter.Read(ctx)
	if err != nil {
		return Check{Name: "indicator", Pass: false, Message: fmt.Sprintf("read caps lock: %v", err)}
	}
	state := "off"
	if on {
		state = "on"
	}
	return Check{Name: "indicator", Pass: true, Message: "caps lock is " + state}
}

// checkRelay opens one session and closes it without sending anything.
func checkRelay(ctx context.Context, cfg config.RelayConfig, dialer relay.Dialer, buildErr error) Check {
	if buildErr != nil {
		return Check{Name: "relay", Pass: false, Message: buildErr.Error()}
	}

	conn, err := dialer.Dial(ctx)
	if err != nil {
		return Check{Name: "relay", Pass: false, Message: fmt.Sprintf("connect %s: %v", cfg.URL, err)}
	}
	_ = conn.Close()
	return Check{Name: "relay", Pass: true, Message: fmt.Sprintf("connected to %s", cfg.URL)}
}

// checkCue is silent when cues are disabled.
func checkCue(cfg config.CueConfig) []Check {
	if !cfg.Enable {
		return nil
	}

	var checks []Check
	files := cue.Files(cfg)
	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			checks = append(checks, Check{Name: "cue.file", Pass: false, Message: err.Error()})
			continue
		}
		checks = append(checks, Check{Name: "cue.file", Pass: true, Message: path})
	}
	if len(files) > 0 {
		checks = append(checks, checkBinary("pw-play", "plays cue files"))
	}
	return checks
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}
