/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
// Package version reports which build of update-dependents is running.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set at build time via -ldflags "-X bennypowers.dev/update-dependents/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = "unknown"
	BuildTime = "unknown"
	GitDirty  = "" // "dirty" if the tree had uncommitted changes
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildTime string `json:"buildTime" yaml:"buildTime"`
	Dirty     bool   `json:"dirty,omitempty" yaml:"dirty,omitempty"`
}

// Get returns the build information of the running binary.
func Get() BuildInfo {
	return BuildInfo{
		Version:   resolve(Version, GitTag, GitCommit, GitDirty == "dirty", moduleVersion()),
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		Dirty:     GitDirty == "dirty",
	}
}

// String renders the version for --version, with the commit when known.
func (b BuildInfo) String() string {
	if b.GitCommit == "unknown" || b.GitCommit == "" {
		return b.Version
	}
	return fmt.Sprintf("%s (commit: %s)", b.Version, shortCommit(b.GitCommit))
}

// resolve picks the first available of: the ldflags version, the module
// version from `go install`, and the git tag plus commit.
func resolve(version, tag, commit string, dirty bool, module string) string {
	if version != "dev" && version != "" {
		return version
	}
	if module != "" && module != "(devel)" {
		return module
	}
	if tag == "unknown" || commit == "unknown" {
		return "dev"
	}

	v := tag
	if short := shortCommit(commit); short != "" && !strings.HasSuffix(tag, short) {
		v = tag + "-" + short
	}
	if dirty {
		v += "-dirty"
	}
	return v
}

func moduleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return ""
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
