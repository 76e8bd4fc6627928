package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func serveForTest(t *testing.T, path string, handler HandlerFunc) {
	t.Helper()
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, listener, handler) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func TestSendStatusRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "capsync.sock")
	serveForTest(t, socketPath, func(_ context.Context, req Request) Response {
		if req.Command != CommandStatus {
			return Response{Error: "unexpected " + req.Command}
		}
		return Response{OK: true, State: "active", Message: "caps_lock=on"}
	})

	resp, err := Send(context.Background(), socketPath, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, Response{OK: true, State: "active", Message: "caps_lock=on"}, resp)
}

func TestSendErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "garbage reply", reply: "not-json\n", want: "decode response"},
		{name: "hang up", reply: "", want: "read response"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			socketPath := filepath.Join(t.TempDir(), "capsync.sock")
			listener, err := net.Listen("unix", socketPath)
			require.NoError(t, err)
			t.Cleanup(func() { _ = listener.Close() })

			go func() {
				conn, acceptErr := listener.Accept()
				if acceptErr != nil {
					return
				}
				defer conn.Close()
				_, _ = bufio.NewReader(conn).ReadBytes('\n')
				_, _ = conn.Write([]byte(tc.reply))
			}()

			_, err = Send(context.Background(), socketPath, Request{Command: CommandStatus}, 200*time.Millisecond)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestServeRejectsUndecodableRequest(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "capsync.sock")
	serveForTest(t, socketPath, func(context.Context, Request) Response {
		return Response{OK: true}
	})

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("status\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")
}

func TestProbe(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "capsync.sock")

	alive, err := Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, HandlerFunc(func(context.Context, Request) Response {
			return Response{OK: true, State: "connecting"}
		}))
	}()

	alive, err = Probe(context.Background(), socketPath, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, alive)

	cancel()
	require.NoError(t, <-done)

	alive, err = Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}

func TestAcquireReplacesStaleSocket(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "capsync.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	listener, err := Acquire(context.Background(), socketPath, 50*time.Millisecond, 0)
	require.NoError(t, err)
	defer listener.Close()

	info, err := os.Stat(socketPath)
	require.NoError(t, err)
	require.Equal(t, os.ModeSocket, info.Mode().Type())
}

func TestAcquireReturnsAlreadyRunning(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "capsync.sock")
	serveForTest(t, socketPath, func(context.Context, Request) Response {
		return Response{OK: true, State: "active"}
	})

	_, err := Acquire(context.Background(), socketPath, 80*time.Millisecond, 1)
	require.ErrorIs(t, err, ErrAlreadyRunning)
	require.EqualError(t, err, "capsync already running")
}

func TestAcquireKeepsSocketWhenProbeInconclusive(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "capsync.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		for {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				time.Sleep(250 * time.Millisecond)
			}(conn)
		}
	}()

	_, err = Acquire(context.Background(), socketPath, 30*time.Millisecond, 0)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadyRunning)
	require.Contains(t, err.Error(), "probe existing socket")

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
	require.NoError(t, listener.Close())
	<-acceptDone
}

func TestRuntimeSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, "/run/user/1000/capsync.sock", path)

	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv("TMPDIR", "/tmp/capsync-test")
	path, err = RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/capsync-test", fmt.Sprintf("capsync-%d", os.Getuid()), "capsync.sock"), path)
}

func TestIsNotRunning(t *testing.T) {
	_, err := net.Dial("unix", filepath.Join(t.TempDir(), "missing.sock"))
	require.True(t, IsNotRunning(err))
	require.False(t, IsNotRunning(nil))
	require.False(t, IsNotRunning(context.DeadlineExceeded))
}
