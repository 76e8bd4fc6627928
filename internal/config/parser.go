package config

import (
	"path/filepath"
	"strings"
)

// Format names a config file syntax.
type Format int

const (
	FormatJSONC Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "jsonc"
}

// DetectFormat picks the syntax from the file extension, then from content.
// Content starting with `{` or a `//` or `/*` comment is JSONC; anything else
// is YAML.
func DetectFormat(path, content string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json", ".jsonc":
		return FormatJSONC
	}

	head := strings.TrimSpace(content)
	for _, prefix := range []string{"{", "//", "/*"} {
		if strings.HasPrefix(head, prefix) {
			return FormatJSONC
		}
	}
	return FormatYAML
}

// Parse overlays content onto base, sniffing the syntax from content alone.
func Parse(content string, base Config) (Config, []Warning, error) {
	return ParseAs(DetectFormat("", content), content, base)
}

// ParseAs overlays content in the given syntax onto base. Blank content
// yields the validated base.
func ParseAs(format Format, content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	if format == FormatYAML {
		return parseYAML(content, base)
	}
	return parseJSONC(content, base)
}
