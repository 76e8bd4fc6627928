package main

import (
	"errors"
	"os"
	"os/exec"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMainExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains string
	}{
		{name: "help", args: []string{"--help"}, exitCode: 0, contains: "Usage:"},
		{name: "version", args: []string{"version"}, exitCode: 0, contains: "capsync"},
		{name: "usage error", args: []string{"not-a-command"}, exitCode: 2, contains: "error:"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			output, err := runMainSubprocess(t, tc.args...)
			require.Contains(t, string(output), tc.contains)
			if tc.exitCode == 0 {
				require.NoError(t, err, string(output))
				return
			}
			var exitErr *exec.ExitError
			require.True(t, errors.As(err, &exitErr))
			require.Equal(t, tc.exitCode, exitErr.ExitCode())
		})
	}
}

func TestMainHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	os.Args = []string{"capsync"}
	if i := slices.Index(args, "--"); i >= 0 {
		os.Args = append(os.Args, args[i+1:]...)
	}
	main()
}

func runMainSubprocess(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()

	cmdArgs := append([]string{"-test.run=TestMainHelperProcess", "--"}, args...)
	cmd := exec.Command(os.Args[0], cmdArgs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd.CombinedOutput()
}
