package codec

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// FormatError reports malformed, truncated or unrecognized input. Offset is
// the byte position in the framed input where the problem was found.
type FormatError struct {
	Reason string
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kore: %s at offset %d: %v", e.Reason, e.Offset, e.Err)
	}
	return fmt.Sprintf("kore: %s at offset %d", e.Reason, e.Offset)
}

func (e *FormatError) Unwrap() error { return e.Err }

// UnsupportedVersionError reports a version outside the range the operation
// accepts.
type UnsupportedVersionError struct {
	Version string
	Reason  string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("kore: unsupported format version %s: %s", e.Version, e.Reason)
}

// MissingSizeError reports a zero size field where a bounded read needs one.
type MissingSizeError struct{}

func (e *MissingSizeError) Error() string {
	return "kore: size field is not set; the pattern was written without emit-size"
}

// ShortReadError reports a source that returned fewer bytes than requested.
type ShortReadError struct {
	Want int
	Got  int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("kore: short read: wanted %d bytes, got %d", e.Want, e.Got)
}

func formatError(offset int64, reason string) error {
	return errors.WithStack(&FormatError{Reason: reason, Offset: offset})
}

func formatErrorf(offset int64, format string, args ...any) error {
	return formatError(offset, fmt.Sprintf(format, args...))
}

// wrapRead turns a failed source read into a FormatError when the source ran
// dry. Other source errors are passed through with context.
func wrapRead(err error, offset int64, reason string) error {
	var sr *ShortReadError
	if errors.As(err, &sr) {
		return errors.WithStack(&FormatError{Reason: reason, Offset: offset, Err: sr})
	}
	return errors.Wrapf(err, "kore: %s", reason)
}
