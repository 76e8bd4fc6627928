package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

const socketName = "capsync.sock"

// ErrAlreadyRunning means another capsync daemon owns the socket.
var ErrAlreadyRunning = errors.New("capsync already running")

// RuntimeSocketPath places the socket in XDG_RUNTIME_DIR, or in a per-user
// directory under the temp dir where that is unset.
func RuntimeSocketPath() (string, error) {
	if runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtimeDir != "" {
		return filepath.Join(runtimeDir, socketName), nil
	}

	tmp := os.TempDir()
	if tmp == "" {
		return "", errors.New("no runtime directory: XDG_RUNTIME_DIR is not set and no temp dir is available")
	}
	return filepath.Join(tmp, fmt.Sprintf("capsync-%d", os.Getuid()), socketName), nil
}

// Acquire listens on path so only one daemon runs per user. A socket file
// that nobody answers on is treated as stale and replaced.
func Acquire(ctx context.Context, path string, probeTimeout time.Duration, retries int) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; ; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !isAddrInUse(err) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}
		if attempt > retries {
			return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, retries)
		}

		alive, probeErr := Probe(ctx, path, probeTimeout)
		if alive {
			return nil, ErrAlreadyRunning
		}
		if probeErr != nil {
			return nil, fmt.Errorf("probe existing socket %s: %w", path, probeErr)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(25*(attempt+1)) * time.Millisecond):
		}
	}
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE) || strings.Contains(err.Error(), "address already in use")
}
