// Package version reports build metadata stamped by the linker, falling back
// to what the Go toolchain embedded when the binary was built without it.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/rbright/capsync/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved build metadata.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// Get resolves Info, filling unstamped fields from debug.ReadBuildInfo.
func Get() Info {
	return resolve(debug.ReadBuildInfo)
}

func resolve(read func() (*debug.BuildInfo, bool)) Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}

	build, ok := read()
	if !ok || build == nil {
		return info
	}
	if info.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		info.Version = build.Main.Version
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "none" {
				info.Commit = shortRevision(setting.Value)
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = setting.Value
			}
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String is the --version line.
func String() string {
	info := Get()
	return fmt.Sprintf("capsync %s (commit=%s, date=%s, go=%s)", info.Version, info.Commit, info.Date, info.GoVersion)
}

// UserAgent identifies the client to relays.
func UserAgent() string {
	return "capsync/" + Get().Version
}
