package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// stripJSONC rewrites JSONC into plain JSON in one pass. Comments and
// trailing commas are overwritten with spaces, so byte offsets reported by
// encoding/json still line up with the original file.
func stripJSONC(content string) (string, error) {
	out := []byte(content)
	comma := -1

	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case c == '"':
			i = stringEnd(out, i)
			comma = -1
		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			end := i
			for end < len(out) && out[end] != '\n' && out[end] != '\r' {
				out[end] = ' '
				end++
			}
			i = end - 1
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			closing := strings.Index(content[i+2:], "*/")
			if closing < 0 {
				line, col := lineCol(content, int64(i+1))
				return "", fmt.Errorf("unterminated block comment at line %d column %d", line, col)
			}
			end := i + 2 + closing + 2
			blankOut(out[i:end])
			i = end - 1
		case c == ',':
			comma = i
		case c == '}' || c == ']':
			if comma >= 0 {
				out[comma] = ' '
			}
			comma = -1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			comma = -1
		}
	}
	return string(out), nil
}

// stringEnd returns the index of the quote closing the string opened at
// start, or the last index when the string never closes.
func stringEnd(b []byte, start int) int {
	for i := start + 1; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(b) - 1
}

func blankOut(b []byte) {
	for i, c := range b {
		if c != '\n' && c != '\r' {
			b[i] = ' '
		}
	}
}

// expectEOF fails when the decoder holds anything after the first value.
func expectEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return errors.New("multiple JSON values are not allowed")
	}
}

// locateDecodeError prefixes syntax and type errors with a line and column.
func locateDecodeError(content string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := lineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

// lineCol maps a 1-based byte offset onto 1-based line and column numbers.
func lineCol(content string, offset int64) (int, int) {
	end := max(min(int(offset), len(content))-1, 0)
	prefix := content[:end]
	return strings.Count(prefix, "\n") + 1, len(prefix) - strings.LastIndexByte(prefix, '\n')
}
