//go:build windows

package indicator

import (
	"context"
	"fmt"

	"github.com/rbright/capsync/internal/config"
	"golang.org/x/sys/windows"
)

const (
	vkCapital       = 0x14
	capsScanCode    = 0x3a
	keyeventfExtKey = 0x0001
	keyeventfKeyUp  = 0x0002
)

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procGetKeyState = user32.NewProc("GetKeyState")
	procKeybdEvent  = user32.NewProc("keybd_event")
)

func newPlatform(config.IndicatorConfig) (Adapter, error) {
	for _, proc := range []*windows.LazyProc{procGetKeyState, procKeybdEvent} {
		if err := proc.Find(); err != nil {
			return nil, fmt.Errorf("resolve user32 %s: %w", proc.Name, err)
		}
	}
	return toggling{state: windowsRead, toggle: windowsToggle}, nil
}

func windowsRead(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	// Low-order bit of GetKeyState is the toggle state.
	r, _, _ := procGetKeyState.Call(vkCapital)
	return r&1 == 1, nil
}

func windowsToggle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	procKeybdEvent.Call(vkCapital, capsScanCode, keyeventfExtKey, 0)
	procKeybdEvent.Call(vkCapital, capsScanCode, keyeventfExtKey|keyeventfKeyUp, 0)
	return nil
}
