package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
//
// Environment overrides (process env, then capsync.env beside the config file)
// are applied after the file and re-validated.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: resolvedPath, Config: Default()}

	content, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		format := DetectFormat(resolvedPath, string(content))
		cfg, warnings, parseErr := ParseAs(format, string(content), Default())
		if parseErr != nil {
			return Loaded{}, fmt.Errorf("parse %s config %q: %w", format, resolvedPath, parseErr)
		}
		loaded.Config = cfg
		loaded.Warnings = warnings
		loaded.Exists = true
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = []Warning{{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		}}
	default:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	if err := loadEnvFile(EnvFilePath(resolvedPath)); err != nil {
		return Loaded{}, err
	}
	overridden, err := applyEnv(&loaded.Config)
	if err != nil {
		return Loaded{}, err
	}
	if overridden {
		validatedWarnings, err := Validate(loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("environment overrides: %w", err)
		}
		loaded.Warnings = append(loaded.Warnings, validatedWarnings...)
	}

	return loaded, nil
}
