package parser

import (
	"os"

	"github.com/cockroachdb/errors"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
)

// LoadPattern reads a pattern from the file at path, which may hold either
// the binary format or KORE text.
func LoadPattern(path string, opts ...codec.DeserializeOption) (kore.Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "kore: loading pattern from %s", path)
	}
	p, err := DecodePattern(data, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "kore: loading pattern from %s", path)
	}
	return p, nil
}

// DecodePattern decodes data as a binary pattern when it starts with the
// binary magic header and as KORE text otherwise. opts configure the binary
// decoder; the nesting limit applies to text as well.
func DecodePattern(data []byte, opts ...codec.DeserializeOption) (kore.Pattern, error) {
	if codec.HasMagic(data) {
		return codec.Deserialize(data, opts...)
	}
	return FromString(string(data)).SetMaxDepth(codec.MaxDepth(opts...)).Pattern()
}
