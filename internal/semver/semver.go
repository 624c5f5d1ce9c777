package semver

import (
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
//
// This is a thin wrapper around github.com/Masterminds/semver/v3.
type Version struct {
	v *mm.Version
}

// ParseVersion accepts strict and loose forms ("1.2.0", "v1.2.0", "1.2").
func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// ImageTag renders the version the way host images are tagged: no "v"
// prefix, all three components present. Build metadata is dropped since "+"
// is not valid in an image tag.
func (v Version) ImageTag() string {
	if v.v == nil {
		return ""
	}
	tag, err := v.v.SetMetadata("")
	if err != nil {
		return v.v.String()
	}
	return tag.String()
}

// Prerelease reports whether the version carries a prerelease suffix.
func (v Version) Prerelease() bool {
	return v.v != nil && v.v.Prerelease() != ""
}
