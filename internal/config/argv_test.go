package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "  ", want: nil},
		{name: "commented out", input: `# xdotool key Caps_Lock`, want: nil},
		{name: "simple", input: "xdotool key Caps_Lock", want: []string{"xdotool", "key", "Caps_Lock"}},
		{name: "double quoted", input: `sh -c "echo on > /tmp/led"`, want: []string{"sh", "-c", "echo on > /tmp/led"}},
		{name: "single quotes are literal", input: `printf '%s\n' x`, want: []string{"printf", `%s\n`, "x"}},
		{name: "escape inside double quotes", input: `echo "say \"hi\" \d"`, want: []string{"echo", `say "hi" \d`}},
		{name: "escaped space", input: `ydotool key caps\ lock`, want: []string{"ydotool", "key", "caps lock"}},
		{name: "empty quoted word", input: `cmd "" x`, want: []string{"cmd", "", "x"}},
		{name: "adjacent quoting joins", input: `a'b'"c"`, want: []string{"abc"}},
		{name: "unterminated double quote", input: `cmd "oops`, wantErr: `unterminated " quote`},
		{name: "unterminated single quote", input: `cmd 'oops`, wantErr: `unterminated ' quote`},
		{name: "unterminated escape", input: `cmd key\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCommand(tc.input)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Argv)
			require.Equal(t, tc.input, got.Raw)
		})
	}
}

func TestMustParseCommandPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() {
		_ = mustParseCommand(`xdotool "unterminated`)
	})
}
