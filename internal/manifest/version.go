package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Version is a manifest version triple. The wire form is a JSON array of
// exactly three non-negative integers.
type Version [3]int

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

// UnmarshalJSON enforces the triple shape: three elements, all integers,
// none negative. Anything else is rejected so a malformed manifest fails
// as a whole instead of loading a half-read version.
func (v *Version) UnmarshalJSON(data []byte) error {
	var raw []json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("version must be an array of integers: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("version must have exactly 3 components, got %d", len(raw))
	}
	var out Version
	for i, n := range raw {
		c, err := strconv.Atoi(n.String())
		if err != nil {
			return fmt.Errorf("version component %d is not an integer: %q", i, n.String())
		}
		if c < 0 {
			return fmt.Errorf("version component %d is negative: %d", i, c)
		}
		out[i] = c
	}
	*v = out
	return nil
}

// VersionSpec is a dependency version: either a pinned triple or a
// free-form tag string such as a marketplace label. The two cases are
// mutually exclusive; the zero VersionSpec is neither.
type VersionSpec struct {
	pin   Version
	isPin bool
	tag   string
	isTag bool
}

// Pinned builds the pinned-triple case.
func Pinned(v Version) VersionSpec {
	return VersionSpec{pin: v, isPin: true}
}

// Tag builds the free-form string case.
func Tag(s string) VersionSpec {
	return VersionSpec{tag: s, isTag: true}
}

// Pinned reports the triple when the spec is the pinned case.
func (s VersionSpec) Pinned() (Version, bool) {
	return s.pin, s.isPin
}

// Tag reports the string when the spec is the tag case.
func (s VersionSpec) Tag() (string, bool) {
	return s.tag, s.isTag
}

// IsPinned is true only for the pinned-triple case. Tag versions never
// take part in version advancement.
func (s VersionSpec) IsPinned() bool {
	return s.isPin
}

// IsZero reports whether the spec carries neither case, which only
// happens when a dependency was built without a version.
func (s VersionSpec) IsZero() bool {
	return !s.isPin && !s.isTag
}

func (s VersionSpec) String() string {
	switch {
	case s.isPin:
		return s.pin.String()
	case s.isTag:
		return s.tag
	default:
		return ""
	}
}

func (s VersionSpec) MarshalJSON() ([]byte, error) {
	switch {
	case s.isPin:
		return json.Marshal(s.pin)
	case s.isTag:
		return json.Marshal(s.tag)
	default:
		return nil, errors.New("dependency version is empty")
	}
}

func (s *VersionSpec) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("dependency version is empty")
	}
	switch trimmed[0] {
	case '[':
		var v Version
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return fmt.Errorf("pinned dependency version: %w", err)
		}
		*s = Pinned(v)
		return nil
	case '"':
		var tag string
		if err := json.Unmarshal(trimmed, &tag); err != nil {
			return fmt.Errorf("dependency version tag: %w", err)
		}
		*s = Tag(tag)
		return nil
	default:
		return fmt.Errorf("dependency version must be a version triple or a string, got %s", trimmed)
	}
}
