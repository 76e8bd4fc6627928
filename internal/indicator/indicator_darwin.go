//go:build darwin

package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rbright/capsync/internal/config"
)

const (
	// NSEventModifierFlagCapsLock is 1<<16.
	darwinReadScript   = `ObjC.import('AppKit'); ($.NSEvent.modifierFlags & 65536) ? '1' : '0'`
	darwinToggleScript = `Application('System Events').keyCode(57)`
)

func newPlatform(config.IndicatorConfig) (Adapter, error) {
	if _, err := exec.LookPath("osascript"); err != nil {
		return nil, fmt.Errorf("osascript not found: %w", err)
	}
	return toggling{state: darwinRead, toggle: darwinToggle}, nil
}

func darwinRead(ctx context.Context) (bool, error) {
	out, err := runCommand(ctx, []string{"osascript", "-l", "JavaScript", "-e", darwinReadScript})
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(string(out)) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected modifier state %q", strings.TrimSpace(string(out)))
	}
}

func darwinToggle(ctx context.Context) error {
	_, err := runCommand(ctx, []string{"osascript", "-l", "JavaScript", "-e", darwinToggleScript})
	return err
}
