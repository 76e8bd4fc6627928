package config

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseCommand splits raw into argv with POSIX shell quoting: single quotes
// are literal, double quotes allow \" and \\, and a bare backslash escapes
// the next rune. No expansion is performed. A raw string starting with # is
// treated as unset.
func ParseCommand(raw string) (CommandConfig, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return CommandConfig{Raw: raw}, nil
	}

	var s splitter
	for _, r := range trimmed {
		s.feed(r)
	}
	switch {
	case s.escape:
		return CommandConfig{}, fmt.Errorf("unterminated escape sequence in command: %q", raw)
	case s.quote != 0:
		return CommandConfig{}, fmt.Errorf("unterminated %c quote in command: %q", s.quote, raw)
	}
	s.flush()
	return CommandConfig{Raw: raw, Argv: s.argv}, nil
}

func mustParseCommand(raw string) CommandConfig {
	cmd, err := ParseCommand(raw)
	if err != nil {
		panic(err)
	}
	return cmd
}

type splitter struct {
	argv   []string
	word   strings.Builder
	inWord bool
	quote  rune
	escape bool
}

func (s *splitter) feed(r rune) {
	if s.escape {
		s.escape = false
		if s.quote == '"' && r != '"' && r != '\\' {
			s.word.WriteRune('\\')
		}
		s.word.WriteRune(r)
		return
	}

	switch s.quote {
	case '\'':
		if r == '\'' {
			s.quote = 0
			return
		}
		s.word.WriteRune(r)
	case '"':
		switch r {
		case '"':
			s.quote = 0
		case '\\':
			s.escape = true
		default:
			s.word.WriteRune(r)
		}
	default:
		switch {
		case unicode.IsSpace(r):
			s.flush()
		case r == '\'' || r == '"':
			s.quote = r
			s.inWord = true
		case r == '\\':
			s.escape = true
			s.inWord = true
		default:
			s.word.WriteRune(r)
			s.inWord = true
		}
	}
}

// flush ends the current word. Empty quoted words such as "" are kept.
func (s *splitter) flush() {
	if !s.inWord {
		return
	}
	s.argv = append(s.argv, s.word.String())
	s.word.Reset()
	s.inWord = false
}
