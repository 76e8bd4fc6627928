// Package hypr reads keyboard lock state from a running Hyprland compositor.
package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Keyboard is one entry of `hyprctl -j devices`.
type Keyboard struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	CapsLock bool   `json:"capsLock"`
	NumLock  bool   `json:"numLock"`
	Main     bool   `json:"main"`
}

type devices struct {
	Keyboards []Keyboard `json:"keyboards"`
}

// Available reports whether a Hyprland session and hyprctl are present.
func Available() bool {
	if strings.TrimSpace(os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")) == "" {
		return false
	}
	_, err := exec.LookPath("hyprctl")
	return err == nil
}

// Keyboards lists the compositor's keyboards.
func Keyboards(ctx context.Context) ([]Keyboard, error) {
	output, err := runHyprctl(ctx, "-j", "devices")
	if err != nil {
		return nil, err
	}

	var d devices
	if err := json.Unmarshal(output, &d); err != nil {
		return nil, fmt.Errorf("decode hyprctl devices json: %w", err)
	}
	return d.Keyboards, nil
}

// CapsLock reads caps lock from the main keyboard, or the first one when
// none is marked main.
func CapsLock(ctx context.Context) (bool, error) {
	keyboards, err := Keyboards(ctx)
	if err != nil {
		return false, err
	}
	if len(keyboards) == 0 {
		return false, errors.New("hyprctl devices returned no keyboards")
	}
	for _, kb := range keyboards {
		if kb.Main {
			return kb.CapsLock, nil
		}
	}
	return keyboards[0].CapsLock, nil
}

func runHyprctl(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "hyprctl", args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("hyprctl %v failed: %w (%s)", args, err, msg)
		}
		return nil, fmt.Errorf("hyprctl %v failed: %w", args, err)
	}
	return out, nil
}
