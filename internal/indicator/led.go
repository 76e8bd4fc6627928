package indicator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ledReader reads a sysfs-style brightness file; any value above zero means on.
type ledReader struct {
	glob string
}

// path resolves the glob on every call so hotplugged keyboards are picked up.
func (l ledReader) path() (string, error) {
	matches, err := filepath.Glob(l.glob)
	if err != nil {
		return "", fmt.Errorf("invalid LED glob %q: %w", l.glob, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no caps lock LED matches %q", l.glob)
	}
	sort.Strings(matches)
	return matches[0], nil
}

func (l ledReader) read(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := l.path()
	if err != nil {
		return false, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read caps lock LED: %w", err)
	}
	value, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return false, fmt.Errorf("parse caps lock LED %q: %w", path, err)
	}
	return value > 0, nil
}
