package stream

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
)

// Writer appends framed patterns to an io.Writer.
type Writer struct {
	w       io.Writer
	enc     *zstd.Encoder
	version codec.Version
	count   int
}

// NewWriter creates a container writer producing the current format version.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, version: codec.CurrentVersion}
}

// NewCompressedWriter creates a container writer whose output is zstd
// compressed. Close must be called to flush the final frame.
func NewCompressedWriter(w io.Writer, opts ...zstd.EOption) (*Writer, error) {
	enc, err := zstd.NewWriter(w, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "kore: creating zstd encoder")
	}
	return &Writer{w: enc, enc: enc, version: codec.CurrentVersion}, nil
}

// SetVersion selects the format version of subsequent patterns. Only versions
// with a size field can be read back from a container.
func (w *Writer) SetVersion(v codec.Version) error {
	if !v.HasSizeField() {
		return errors.WithStack(&codec.UnsupportedVersionError{
			Version: v.String(),
			Reason:  "containers need a size field, first written by " + codec.SizedVersion.String(),
		})
	}
	w.version = v
	return nil
}

// Write appends one pattern.
func (w *Writer) Write(p kore.Pattern) error {
	data := codec.Serialize(p, codec.WithEmitSize(), codec.WithVersion(w.version))
	if _, err := w.w.Write(data); err != nil {
		return errors.Wrapf(err, "kore: writing pattern %d", w.count)
	}
	w.count++
	return nil
}

// WriteAll appends every pattern in order.
func (w *Writer) WriteAll(patterns []kore.Pattern) error {
	for _, p := range patterns {
		if err := w.Write(p); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of patterns written so far.
func (w *Writer) Count() int { return w.count }

// Close flushes the zstd encoder of a compressed writer. It does not close
// the underlying io.Writer.
func (w *Writer) Close() error {
	if w.enc == nil {
		return nil
	}
	if err := w.enc.Close(); err != nil {
		return errors.Wrap(err, "kore: flushing zstd encoder")
	}
	return nil
}

// Compress zstd-compresses a whole container.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "kore: creating zstd encoder")
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// Decompress returns data unchanged unless it starts with a zstd frame, in
// which case it is decompressed. Only WithMaxDecompressedSize affects it.
func Decompress(data []byte, opts ...Option) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}
	dec, err := zstd.NewReader(nil, newOptions(opts).zstdOptions()...)
	if err != nil {
		return nil, errors.Wrap(err, "kore: creating zstd decoder")
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "kore: decompressing container")
	}
	return out, nil
}
