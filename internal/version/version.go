// Package version reports the packsmith build version embedded by the
// Go toolchain.
package version

import (
	"runtime/debug"
)

// Swappable for testing
var readBuildInfo = debug.ReadBuildInfo

// BuildVersion returns the module version for tagged builds. Local
// builds report "dev", suffixed with the short commit hash when the
// toolchain stamped one in.
func BuildVersion() string {
	info, ok := readBuildInfo()
	if !ok {
		return "dev"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	if rev := vcsRevision(info); rev != "" {
		return "dev+" + rev
	}
	return "dev"
}

// vcsRevision digs the commit hash out of the build settings, shortened
// to twelve characters and marked when the checkout was dirty.
func vcsRevision(info *debug.BuildInfo) string {
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if dirty {
		revision += "-dirty"
	}
	return revision
}
