//go:build linux

package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"slices"

	"github.com/rbright/capsync/internal/config"
	"github.com/rbright/capsync/internal/hypr"
)

func newPlatform(cfg config.IndicatorConfig) (Adapter, error) {
	state, err := linuxState(cfg)
	if err != nil {
		return nil, err
	}

	argv := slices.Clone(cfg.ToggleCmd.Argv)
	if len(argv) == 0 {
		return nil, fmt.Errorf("indicator.toggle_cmd must not be empty")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("caps lock toggle helper %q not found: %w", argv[0], err)
	}

	return toggling{
		state: state,
		toggle: func(ctx context.Context) error {
			_, err := runCommand(ctx, argv)
			return err
		},
	}, nil
}

// linuxState reads the keyboard LED, falling back to the Hyprland device
// list when no LED is exposed.
func linuxState(cfg config.IndicatorConfig) (func(context.Context) (bool, error), error) {
	led := ledReader{glob: cfg.LEDGlob}
	_, err := led.path()
	if err == nil {
		return led.read, nil
	}
	if hypr.Available() {
		return hypr.CapsLock, nil
	}
	return nil, err
}
