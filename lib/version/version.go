// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Release builds set these with -ldflags "-X". When GitCommit is left
// at "unknown", the VCS stamp the go tool embeds is used instead.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"
)

// stamp is the commit, dirty flag, and time a binary was built from.
type stamp struct {
	commit string
	dirty  bool
	time   string
}

func current() stamp {
	result := stamp{commit: GitCommit, dirty: GitDirty == "true", time: BuildTime}
	if result.commit != "unknown" {
		return result
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return result
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			result.commit = setting.Value
			if len(result.commit) > 12 {
				result.commit = result.commit[:12]
			}
		case "vcs.modified":
			result.dirty = setting.Value == "true"
		case "vcs.time":
			result.time = setting.Value
		}
	}
	return result
}

// Info returns "VERSION (COMMIT[-dirty], TIME)".
func Info() string {
	build := current()
	suffix := ""
	if build.dirty {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, build.commit, suffix, build.time)
}

// Full is the multi-line text printed by "remotefs version".
func Full() string {
	return fmt.Sprintf("remotefs %s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
