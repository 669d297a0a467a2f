package stream

import (
	"bufio"
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
)

// Reader reads framed patterns one at a time.
type Reader struct {
	br    *bufio.Reader
	src   *codec.ReaderSource
	dec   *zstd.Decoder
	opts  []codec.DeserializeOption
	log   *zap.Logger
	count int
}

// NewReader creates a container reader. A zstd compressed container is
// detected from its first bytes.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	o := newOptions(opts)
	reader := &Reader{
		opts: o.decodeOptions(),
		log:  o.logger,
	}

	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "kore: reading container")
	}
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br, o.zstdOptions()...)
		if err != nil {
			return nil, errors.Wrap(err, "kore: creating zstd decoder")
		}
		reader.dec = dec
		br = bufio.NewReader(dec)
		reader.log.Debug("container is zstd compressed")
	}

	reader.br = br
	reader.src = codec.NewSource(br)
	return reader, nil
}

// Next reads and returns the next pattern.
// Returns io.EOF when no more patterns are available.
func (r *Reader) Next() (kore.Pattern, error) {
	if _, err := r.br.Peek(1); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "kore: reading container")
	}

	start := r.src.Offset()
	p, err := codec.ReadFrom(r.src, r.opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "kore: pattern %d at container offset %d", r.count, start)
	}
	r.log.Debug("decoded pattern",
		zap.Int("index", r.count),
		zap.Int64("offset", start),
		zap.Int64("bytes", r.src.Offset()-start))
	r.count++
	return p, nil
}

// ReadAll reads all patterns until EOF.
func (r *Reader) ReadAll() ([]kore.Pattern, error) {
	var patterns []kore.Pattern
	for {
		p, err := r.Next()
		if err == io.EOF {
			return patterns, nil
		}
		if err != nil {
			return patterns, err
		}
		patterns = append(patterns, p)
	}
}

// Count returns the number of patterns read so far.
func (r *Reader) Count() int { return r.count }

// Close releases the zstd decoder, if any.
func (r *Reader) Close() {
	if r.dec != nil {
		r.dec.Close()
	}
}
