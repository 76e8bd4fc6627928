package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// candidateNames are tried in order inside the config directory; the first
// is returned when none exist so a missing file still has a stable path.
var candidateNames = []string{"config.jsonc", "config.yaml", "config.yml"}

// ResolvePath returns explicit when set. Otherwise it looks in
// $XDG_CONFIG_HOME/capsync, falling back to ~/.config/capsync.
func ResolvePath(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}

	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve config dir: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return firstExisting(filepath.Join(base, "capsync")), nil
}

func firstExisting(dir string) string {
	for _, name := range candidateNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return filepath.Join(dir, candidateNames[0])
}

// EnvFilePath returns the dotenv file consulted next to a resolved config path.
func EnvFilePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "capsync.env")
}
