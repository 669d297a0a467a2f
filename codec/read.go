package codec

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/Neumenon/kore/kore"
)

// ReadFrom decodes one framed pattern from src. The pattern must be version
// 1.2.0 or later with a recorded size; exactly the framed bytes are consumed,
// so the next pattern in the stream can be read immediately afterwards.
func ReadFrom(src Source, opts ...DeserializeOption) (kore.Pattern, error) {
	o := newDecodeOptions(opts)

	magic, err := src.Read(magicLen)
	if err != nil {
		return nil, wrapRead(err, 0, "bad magic header")
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, formatError(0, "bad magic header")
	}

	raw, err := src.Read(versionLen)
	if err != nil {
		return nil, wrapRead(err, magicLen, "truncated version")
	}
	version := decodeVersion(raw)
	if !streamingConstraint.Check(version.semver()) {
		reason := "streaming reads need a size field, first written by " + SizedVersion.String()
		if version.Compare(CurrentVersion) > 0 {
			reason = "newer than " + CurrentVersion.String()
		}
		return nil, errors.WithStack(&UnsupportedVersionError{Version: version.String(), Reason: reason})
	}

	raw, err = src.Read(sizeFieldLen)
	if err != nil {
		return nil, wrapRead(err, headerLen, "truncated size field")
	}
	size := binary.LittleEndian.Uint64(raw)
	if size == 0 {
		return nil, errors.WithStack(&MissingSizeError{})
	}

	base := int64(headerLen + sizeFieldLen)
	if o.maxSize > 0 && size > o.maxSize {
		return nil, formatErrorf(base, "body of %d bytes exceeds limit of %d", size, o.maxSize)
	}
	if size > math.MaxInt32 {
		return nil, formatErrorf(base, "body of %d bytes is too large", size)
	}

	body, err := src.Read(int(size))
	if err != nil {
		return nil, wrapRead(err, base, "truncated body")
	}
	return decodeBody(body, base, o)
}
