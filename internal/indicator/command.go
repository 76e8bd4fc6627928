package indicator

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

func runCommand(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, errors.New("command must not be empty")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return nil, fmt.Errorf("%s failed: %w", argv[0], err)
		}
		return nil, fmt.Errorf("%s failed: %w (%s)", argv[0], err, trimmed)
	}
	return out, nil
}
