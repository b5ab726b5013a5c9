// Package firmware loads device firmware images and reads the version
// marker the build embeds in them.
package firmware

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// ErrVersionNotFound is returned when an image carries no version marker.
var ErrVersionNotFound = errors.New("firmware: version marker not found")

// versionMarker matches $$FIRMWARE_VERSION=<major>.<minor>-<commit>#.
var versionMarker = regexp.MustCompile(`\$\$FIRMWARE_VERSION=([0-9]+)\.([0-9]+)-([a-z0-9]+)#`)

// Version is the firmware version embedded in an image.
type Version struct {
	Major  uint8
	Minor  uint8
	Commit string
}

// String formats the version as v<major>.<minor>-<commit>.
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d-%s", v.Major, v.Minor, v.Commit)
}

// MatchesReported reports whether the firmwareVersion shadow field,
// [major, minor], matches v. The commit is not reported by the device.
func (v Version) MatchesReported(reported []byte) bool {
	return len(reported) == 2 && reported[0] == v.Major && reported[1] == v.Minor
}

// Firmware is a loaded firmware image.
type Firmware struct {
	Version Version
	Binary  []byte
}

// Load reads a firmware image from disk and parses its version.
func Load(path string) (*Firmware, error) {
	binary, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading firmware %s: %w", path, err)
	}

	version, err := Parse(binary)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Firmware{Version: version, Binary: binary}, nil
}

// Parse finds the first version marker in binary.
//
// Returns:
//   - Version: The embedded version
//   - error: ErrVersionNotFound if there is no marker or a component does
//     not fit the two-byte reported form
func Parse(binary []byte) (Version, error) {
	m := versionMarker.FindSubmatch(binary)
	if m == nil {
		return Version{}, ErrVersionNotFound
	}

	major, err := strconv.ParseUint(string(m[1]), 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("%w: major %q out of range", ErrVersionNotFound, m[1])
	}
	minor, err := strconv.ParseUint(string(m[2]), 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("%w: minor %q out of range", ErrVersionNotFound, m[2])
	}

	return Version{
		Major:  uint8(major),
		Minor:  uint8(minor),
		Commit: string(bytes.Clone(m[3])),
	}, nil
}
