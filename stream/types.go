// Package stream reads and writes containers of framed KORE patterns.
//
// A container is a plain concatenation of patterns, each written with its
// size field so that a reader can consume exactly one pattern at a time:
//
//	<framed pattern><framed pattern>...
//
// Containers on disk may additionally be zstd compressed. Readers detect the
// zstd frame magic and decompress transparently.
package stream

import (
	"bytes"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/Neumenon/kore/codec"
)

const (
	// DefaultMaxPatternSize bounds the body of a single pattern unless
	// WithMaxPatternSize says otherwise.
	DefaultMaxPatternSize = 64 << 20

	// DefaultMaxDecompressedSize bounds the decompressed size of a zstd
	// container unless WithMaxDecompressedSize says otherwise.
	DefaultMaxDecompressedSize = 1 << 30
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// IsCompressed reports whether data starts with a zstd frame.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// Option configures a Reader.
type Option func(*options)

type options struct {
	maxPatternSize      uint64
	maxDecompressedSize uint64
	maxDepth            int
	stripRawTerm        bool
	logger              *zap.Logger
}

func newOptions(opts []Option) options {
	o := options{
		maxPatternSize:      DefaultMaxPatternSize,
		maxDecompressedSize: DefaultMaxDecompressedSize,
		maxDepth:            codec.DefaultMaxDepth,
		stripRawTerm:        true,
		logger:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMaxPatternSize sets the largest accepted pattern body in bytes.
// Zero disables the limit.
func WithMaxPatternSize(n uint64) Option {
	return func(o *options) { o.maxPatternSize = n }
}

// WithMaxDecompressedSize caps how many bytes a zstd container may expand
// to. Zero disables the limit.
func WithMaxDecompressedSize(n uint64) Option {
	return func(o *options) { o.maxDecompressedSize = n }
}

// WithMaxDepth limits how deeply the patterns in a container may nest.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithStripRawTerm controls whether a top-level rawTerm wrapper is removed
// from each decoded pattern (default true).
func WithStripRawTerm(strip bool) Option {
	return func(o *options) { o.stripRawTerm = strip }
}

// WithLogger makes the reader log each decoded pattern at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func (o options) decodeOptions() []codec.DeserializeOption {
	return []codec.DeserializeOption{
		codec.WithStripRawTerm(o.stripRawTerm),
		codec.WithMaxSize(o.maxPatternSize),
		codec.WithMaxDepth(o.maxDepth),
	}
}

func (o options) zstdOptions() []zstd.DOption {
	if o.maxDecompressedSize == 0 {
		return nil
	}
	return []zstd.DOption{zstd.WithDecoderMaxMemory(o.maxDecompressedSize)}
}
