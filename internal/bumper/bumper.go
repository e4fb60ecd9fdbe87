package bumper

import (
	"fmt"
	"strings"

	"github.com/packsmith/packsmith/internal/manifest"
)

// Level selects how far a version advances.
type Level string

const (
	Minor Level = "minor"
	Major Level = "major"
)

// ParseLevel maps user input to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Minor):
		return Minor, nil
	case string(Major):
		return Major, nil
	default:
		return "", fmt.Errorf("unknown level %q (want minor or major)", s)
	}
}

// Report summarizes one advance for the caller to surface.
type Report struct {
	Pack    string `json:"pack"`
	Level   Level  `json:"level"`
	Version string `json:"version"`
}

// Advance bumps source in place: its header version, then every module
// whose uuid matches the header uuid and which carries a version. When
// target is present and declares dependencies, every dependency pinned to
// source's header uuid is bumped by the same transform so the pair stays
// in lockstep. Tag-versioned and uuid-less dependencies are left alone,
// as are target's own header and modules.
//
// There is no failure path: every mismatch is a skipped no-op.
func Advance(source, target *manifest.Pack, level Level) Report {
	source.Header.Version = bump(source.Header.Version, level)

	for _, m := range source.Modules {
		c := m.Common()
		if c.UUID != source.Header.UUID || c.Version == nil {
			continue
		}
		*c.Version = bump(*c.Version, level)
	}

	if target != nil && len(target.Dependencies) > 0 {
		for i := range target.Dependencies {
			dep := &target.Dependencies[i]
			if dep.UUID == "" || dep.UUID != source.Header.UUID {
				continue
			}
			if v, ok := dep.Version.Pinned(); ok {
				dep.Version = manifest.Pinned(bump(v, level))
			}
		}
	}

	return Report{
		Pack:    source.Header.Name,
		Level:   level,
		Version: source.Header.Version.String(),
	}
}

// bump advances the two low-order slots of a triple. Minor raises the
// last slot; Major raises the middle slot and zeroes the last. The first
// slot is reserved for manual edits and is never changed here.
func bump(v manifest.Version, level Level) manifest.Version {
	switch level {
	case Minor:
		v[2]++
	case Major:
		v[1]++
		v[2] = 0
	}
	return v
}
