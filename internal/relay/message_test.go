package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	require.Equal(t, "1", Encode(true))
	require.Equal(t, "0", Encode(false))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		in     string
		wantOn bool
		wantOK bool
	}{
		{in: "1", wantOn: true, wantOK: true},
		{in: "0", wantOn: false, wantOK: true},
		{in: "banana"},
		{in: ""},
		{in: " 1"},
		{in: "1\n"},
		{in: "true"},
		{in: "10"},
	}
	for _, tc := range tests {
		on, ok := Decode(tc.in)
		require.Equal(t, tc.wantOK, ok, "%q", tc.in)
		require.Equal(t, tc.wantOn, on, "%q", tc.in)
	}
}
