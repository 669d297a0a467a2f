package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

// Magic is the 5-byte header of every framed pattern.
var Magic = [5]byte{0x7F, 'K', 'O', 'R', 'E'}

const (
	magicLen     = 5
	versionLen   = 6
	sizeFieldLen = 8
	headerLen    = magicLen + versionLen
)

var _ [magicLen]byte = Magic

// Version is the format version stored after the magic header.
type Version struct {
	Major, Minor, Patch uint16
}

var (
	// CurrentVersion is written by default.
	CurrentVersion = Version{1, 2, 0}

	// MinVersion is the oldest version Deserialize accepts.
	MinVersion = Version{1, 0, 0}

	// SizedVersion is the first version with a size field after the version.
	SizedVersion = Version{1, 2, 0}
)

var (
	decodeConstraint    = mustConstraint(fmt.Sprintf(">= %s, <= %s", MinVersion, CurrentVersion))
	streamingConstraint = mustConstraint(fmt.Sprintf(">= %s, <= %s", SizedVersion, CurrentVersion))
)

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseVersion parses a "major.minor.patch" string.
func ParseVersion(s string) (Version, error) {
	sv, err := semver.StrictNewVersion(s)
	if err != nil {
		return Version{}, errors.Wrapf(err, "kore: invalid format version %q", s)
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, errors.Newf("kore: format version %q must not carry pre-release or build data", s)
	}
	if sv.Major() > math.MaxUint16 || sv.Minor() > math.MaxUint16 || sv.Patch() > math.MaxUint16 {
		return Version{}, errors.Newf("kore: format version %q has a component above %d", s, math.MaxUint16)
	}
	return Version{uint16(sv.Major()), uint16(sv.Minor()), uint16(sv.Patch())}, nil
}

// String returns "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	return v.semver().Compare(o.semver())
}

// HasSizeField reports whether framed patterns of this version carry the
// 8-byte size field.
func (v Version) HasSizeField() bool {
	return v.Compare(SizedVersion) >= 0
}

// Supported reports whether Deserialize accepts this version.
func (v Version) Supported() bool {
	return decodeConstraint.Check(v.semver())
}

func (v Version) semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), "", "")
}

func (v Version) append(buf []byte) []byte {
	buf = appendUint16(buf, v.Major)
	buf = appendUint16(buf, v.Minor)
	return appendUint16(buf, v.Patch)
}

func decodeVersion(b []byte) Version {
	return Version{
		Major: binary.LittleEndian.Uint16(b[0:]),
		Minor: binary.LittleEndian.Uint16(b[2:]),
		Patch: binary.LittleEndian.Uint16(b[4:]),
	}
}

// HasMagic reports whether data starts with the magic header.
func HasMagic(data []byte) bool {
	return len(data) >= magicLen && bytes.Equal(data[:magicLen], Magic[:])
}

// PeekHeader returns the version and size field of a framed pattern without
// decoding its body. size is 0 for versions without a size field. ok is false
// when data lacks the magic or is shorter than the header.
func PeekHeader(data []byte) (v Version, size uint64, ok bool) {
	if !HasMagic(data) || len(data) < headerLen {
		return Version{}, 0, false
	}
	v = decodeVersion(data[magicLen:headerLen])
	if !v.HasSizeField() {
		return v, 0, true
	}
	if len(data) < headerLen+sizeFieldLen {
		return Version{}, 0, false
	}
	return v, binary.LittleEndian.Uint64(data[headerLen:]), true
}
