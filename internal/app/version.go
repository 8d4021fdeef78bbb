package app

import (
	"fmt"
	"runtime/debug"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	Modified  bool
}

// GetVersionInfo returns the ldflags values, filled from the embedded VCS
// stamp when the binary was built without them.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}
	return info
}

// String returns a one-line version string for logs and the version command.
func (v VersionInfo) String() string {
	commit := v.GitCommit
	if commit == "" {
		commit = "unknown"
	} else if len(commit) > 12 {
		commit = commit[:12]
	}
	if v.Modified {
		commit += "-dirty"
	}
	built := v.BuildTime
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("VibeMusic %s (commit: %s, built: %s)", v.Version, commit, built)
}
