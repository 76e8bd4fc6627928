package version

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	prevVersion, prevCommit, prevDate := Version, Commit, Date
	t.Cleanup(func() {
		Version, Commit, Date = prevVersion, prevCommit, prevDate
	})
	Version, Commit, Date = version, commit, date
}

func TestStringUsesLinkerStamp(t *testing.T) {
	stamp(t, "1.2.3", "abc123", "2026-02-18")

	got := String()
	require.True(t, strings.HasPrefix(got, "capsync 1.2.3 ("), got)
	require.Contains(t, got, "commit=abc123")
	require.Contains(t, got, "date=2026-02-18")
	require.Contains(t, got, "go=go")
	require.Equal(t, "capsync/1.2.3", UserAgent())
}

func TestResolveFallsBackToBuildInfo(t *testing.T) {
	stamp(t, "dev", "none", "unknown")

	info := resolve(func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Version: "v0.4.0"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			},
		}, true
	})
	require.Equal(t, "v0.4.0", info.Version)
	require.Equal(t, "0123456789ab", info.Commit)
	require.Equal(t, "2026-10-01T12:00:00Z", info.Date)
}

func TestResolveKeepsStampOverBuildInfo(t *testing.T) {
	stamp(t, "1.0.0", "feed", "2026-01-01")

	info := resolve(func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main:     debug.Module{Version: "v9.9.9"},
			Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "cafe"}},
		}, true
	})
	require.Equal(t, Info{Version: "1.0.0", Commit: "feed", Date: "2026-01-01", GoVersion: info.GoVersion}, info)
}

func TestResolveIgnoresDevelBuild(t *testing.T) {
	stamp(t, "dev", "none", "unknown")

	info := resolve(func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
	})
	require.Equal(t, "dev", info.Version)

	info = resolve(func() (*debug.BuildInfo, bool) { return nil, false })
	require.Equal(t, "none", info.Commit)
}
