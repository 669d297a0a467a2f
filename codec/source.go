package codec

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
)

// Source is a sequential byte source. Read returns exactly n bytes or fails
// with an error; a source that runs out returns *ShortReadError.
type Source interface {
	Read(n int) ([]byte, error)
}

// readChunk bounds the up-front allocation for a single Read on a stream
// source; larger reads grow as data actually arrives.
const readChunk = 64 << 10

// ReaderSource adapts an io.Reader to Source.
type ReaderSource struct {
	r   io.Reader
	off int64
}

// NewSource wraps r. Reads never consume more than requested.
func NewSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// Read returns exactly n bytes from the underlying reader.
func (s *ReaderSource) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Newf("kore: negative read length %d", n)
	}
	if n <= readChunk {
		buf := make([]byte, n)
		got, err := io.ReadFull(s.r, buf)
		s.off += int64(got)
		if err != nil {
			return nil, s.readError(n, got, err)
		}
		return buf, nil
	}

	var buf bytes.Buffer
	buf.Grow(readChunk)
	got, err := io.CopyN(&buf, s.r, int64(n))
	s.off += got
	if err != nil {
		return nil, s.readError(n, int(got), err)
	}
	return buf.Bytes(), nil
}

// Offset returns the number of bytes consumed so far.
func (s *ReaderSource) Offset() int64 { return s.off }

func (s *ReaderSource) readError(want, got int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.WithStack(&ShortReadError{Want: want, Got: got})
	}
	return errors.Wrapf(err, "kore: reading %d bytes at offset %d", want, s.off-int64(got))
}

// BytesSource is an in-memory Source.
type BytesSource struct {
	data []byte
	off  int
}

// NewBytesSource returns a Source over data. The returned slices alias data.
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

// Read returns the next n bytes. A read past the end consumes nothing.
func (s *BytesSource) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Newf("kore: negative read length %d", n)
	}
	if n > len(s.data)-s.off {
		return nil, errors.WithStack(&ShortReadError{Want: n, Got: len(s.data) - s.off})
	}
	b := s.data[s.off : s.off+n : s.off+n]
	s.off += n
	return b, nil
}

// Offset returns the number of bytes consumed so far.
func (s *BytesSource) Offset() int64 { return int64(s.off) }

// Remaining returns the number of unread bytes.
func (s *BytesSource) Remaining() int { return len(s.data) - s.off }
