package codec

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/Neumenon/kore/kore"
)

// DeserializeOption configures Deserialize and ReadFrom.
type DeserializeOption func(*decodeOptions)

// DefaultMaxDepth is the deepest nesting of patterns and sorts a decoder
// accepts unless WithMaxDepth says otherwise.
const DefaultMaxDepth = 1 << 16

type decodeOptions struct {
	stripRawTerm bool
	maxSize      uint64
	maxDepth     int
}

func newDecodeOptions(opts []DeserializeOption) decodeOptions {
	o := decodeOptions{stripRawTerm: true, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithStripRawTerm controls whether a top-level rawTerm{}(inj{S, SortKItem{}}(X))
// or rawTerm{}(X) wrapper is removed, leaving X. The default is true.
func WithStripRawTerm(strip bool) DeserializeOption {
	return func(o *decodeOptions) { o.stripRawTerm = strip }
}

// WithMaxSize rejects bodies larger than n bytes before reading them. Zero
// means unlimited.
func WithMaxSize(n uint64) DeserializeOption {
	return func(o *decodeOptions) { o.maxSize = n }
}

// WithMaxDepth limits how deeply patterns and sorts may nest. Deeper input
// fails with a FormatError instead of exhausting the stack. Values below 1
// select DefaultMaxDepth.
func WithMaxDepth(n int) DeserializeOption {
	return func(o *decodeOptions) {
		if n < 1 {
			n = DefaultMaxDepth
		}
		o.maxDepth = n
	}
}

// MaxDepth reports the nesting limit that opts configure.
func MaxDepth(opts ...DeserializeOption) int {
	return newDecodeOptions(opts).maxDepth
}

// Deserialize decodes a complete framed pattern. Versions 1.0.0 through 1.2.0
// are accepted. When the size field is set the body must be exactly that
// long; otherwise it extends to the end of data. Trailing bytes are an error.
func Deserialize(data []byte, opts ...DeserializeOption) (kore.Pattern, error) {
	o := newDecodeOptions(opts)

	if !HasMagic(data) {
		return nil, formatError(0, "bad magic header")
	}
	if len(data) < headerLen {
		return nil, formatError(magicLen, "truncated version")
	}
	version := decodeVersion(data[magicLen:headerLen])
	if !version.Supported() {
		return nil, errors.WithStack(&UnsupportedVersionError{
			Version: version.String(),
			Reason:  "supported versions are " + MinVersion.String() + " through " + CurrentVersion.String(),
		})
	}

	off := headerLen
	body := data[off:]
	if version.HasSizeField() {
		if len(data) < off+sizeFieldLen {
			return nil, formatError(int64(off), "truncated size field")
		}
		size := binary.LittleEndian.Uint64(data[off:])
		off += sizeFieldLen
		body = data[off:]
		if size != 0 {
			if o.maxSize > 0 && size > o.maxSize {
				return nil, formatErrorf(int64(off), "body of %d bytes exceeds limit of %d", size, o.maxSize)
			}
			if size > uint64(len(body)) {
				return nil, formatErrorf(int64(len(data)), "truncated body: size field says %d bytes, %d available", size, len(body))
			}
			if size < uint64(len(body)) {
				return nil, formatError(int64(off)+int64(size), "trailing bytes after body")
			}
		}
	}
	if o.maxSize > 0 && uint64(len(body)) > o.maxSize {
		return nil, formatErrorf(int64(off), "body of %d bytes exceeds limit of %d", len(body), o.maxSize)
	}

	return decodeBody(body, int64(off), o)
}

// decodeBody decodes exactly one pattern spanning all of body. base is the
// offset of body within the framed input, used for error positions.
func decodeBody(body []byte, base int64, o decodeOptions) (kore.Pattern, error) {
	d := &decoder{data: body, base: base, maxDepth: o.maxDepth}
	p, err := d.pattern()
	if err != nil {
		return nil, err
	}
	if d.off != len(d.data) {
		return nil, formatError(d.pos(), "trailing bytes after pattern")
	}
	if o.stripRawTerm {
		p = stripRawTerm(p)
	}
	return p, nil
}

// stripRawTerm removes a top-level rawTerm wrapper and the injection into
// SortKItem directly beneath it.
func stripRawTerm(p kore.Pattern) kore.Pattern {
	c, ok := p.(*kore.CompositePattern)
	if !ok || c.Constructor().Name() != "rawTerm" || len(c.Arguments()) != 1 {
		return p
	}
	arg := c.Arguments()[0]
	if inj, ok := arg.(*kore.CompositePattern); ok && inj.Constructor().Name() == "inj" && len(inj.Arguments()) == 1 {
		return inj.Arguments()[0]
	}
	return arg
}

// ============================================================
// Body decoder
// ============================================================

type decoder struct {
	data []byte
	off  int
	base int64

	depth    int
	maxDepth int

	strings []string
	sorts   []kore.Sort
	symbols []*kore.Symbol
}

func (d *decoder) pos() int64 { return d.base + int64(d.off) }

func (d *decoder) remaining() int { return len(d.data) - d.off }

// enter records one more level of nesting; every successful call is paired
// with leave.
func (d *decoder) enter() error {
	if d.depth >= d.maxDepth {
		return formatError(d.pos(), "nesting too deep")
	}
	d.depth++
	return nil
}

func (d *decoder) leave() { d.depth-- }

func (d *decoder) readByte() (byte, error) {
	if d.off >= len(d.data) {
		return 0, formatError(d.pos(), "unexpected end of body")
	}
	b := d.data[d.off]
	d.off++
	return b, nil
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.data[d.off:])
	if n == 0 {
		return 0, formatError(d.pos(), "unexpected end of body")
	}
	if n < 0 {
		return 0, formatError(d.pos(), "varint overflows 64 bits")
	}
	d.off += n
	return v, nil
}

// count reads an element count. Every element takes at least one byte, so a
// count above the remaining input is rejected before allocating.
func (d *decoder) count() (int, error) {
	at := d.pos()
	n, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.remaining()) {
		return 0, formatErrorf(at, "count %d exceeds remaining %d bytes", n, d.remaining())
	}
	return int(n), nil
}

func (d *decoder) index(kind string, tableLen int) (int, error) {
	at := d.pos()
	i, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if i >= uint64(tableLen) {
		return 0, formatErrorf(at, "%s reference %d out of range (%d defined)", kind, i, tableLen)
	}
	return int(i), nil
}

func (d *decoder) readString() (string, error) {
	at := d.pos()
	tag, err := d.readByte()
	if err != nil {
		return "", err
	}
	switch tag {
	case tagStringDef:
		n, err := d.count()
		if err != nil {
			return "", err
		}
		s := string(d.data[d.off : d.off+n])
		d.off += n
		d.strings = append(d.strings, s)
		return s, nil
	case tagStringRef:
		i, err := d.index("string", len(d.strings))
		if err != nil {
			return "", err
		}
		return d.strings[i], nil
	default:
		return "", formatErrorf(at, "invalid string tag 0x%02x", tag)
	}
}

func (d *decoder) sort() (kore.Sort, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	at := d.pos()
	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}

	var s kore.Sort
	switch tag {
	case tagSortRef:
		i, err := d.index("sort", len(d.sorts))
		if err != nil {
			return nil, err
		}
		return d.sorts[i], nil
	case tagSortVar:
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		s = kore.NewSortVariable(name)
	case tagSort:
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		catAt := d.pos()
		cat, err := d.readByte()
		if err != nil {
			return nil, err
		}
		if !kore.SortCategory(cat).Valid() {
			return nil, formatErrorf(catAt, "invalid sort category %d", cat)
		}
		bits, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		args, err := d.sortList()
		if err != nil {
			return nil, err
		}
		s = kore.NewCompositeSort(name, kore.ValueType{Cat: kore.SortCategory(cat), Bits: bits}, args...)
	default:
		return nil, formatErrorf(at, "invalid sort tag 0x%02x", tag)
	}

	d.sorts = append(d.sorts, s)
	return s, nil
}

func (d *decoder) sortList() ([]kore.Sort, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	var sorts []kore.Sort
	for i := 0; i < n; i++ {
		s, err := d.sort()
		if err != nil {
			return nil, err
		}
		sorts = append(sorts, s)
	}
	return sorts, nil
}

func (d *decoder) symbol() (*kore.Symbol, error) {
	at := d.pos()
	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagSymbolRef:
		i, err := d.index("symbol", len(d.symbols))
		if err != nil {
			return nil, err
		}
		return d.symbols[i], nil
	case tagSymbol:
	default:
		return nil, formatErrorf(at, "invalid symbol tag 0x%02x", tag)
	}

	name, err := d.readString()
	if err != nil {
		return nil, err
	}
	args, err := d.sortList()
	if err != nil {
		return nil, err
	}
	formals, err := d.sortList()
	if err != nil {
		return nil, err
	}

	sym := kore.NewSymbol(name, args...)
	for _, f := range formals {
		sym.AddFormalArgument(f)
	}

	flagAt := d.pos()
	flag, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch flag {
	case flagNoSort:
	case flagHasSort:
		ret, err := d.sort()
		if err != nil {
			return nil, err
		}
		sym.AddSort(ret)
	default:
		return nil, formatErrorf(flagAt, "invalid return sort flag 0x%02x", flag)
	}

	d.symbols = append(d.symbols, sym)
	return sym, nil
}

func (d *decoder) pattern() (kore.Pattern, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	at := d.pos()
	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagComposite:
		sym, err := d.symbol()
		if err != nil {
			return nil, err
		}
		n, err := d.count()
		if err != nil {
			return nil, err
		}
		c := kore.NewCompositePattern(sym)
		for i := 0; i < n; i++ {
			arg, err := d.pattern()
			if err != nil {
				return nil, err
			}
			if err := c.AddArgument(arg); err != nil {
				return nil, errors.Wrapf(err, "kore: pattern at offset %d", at)
			}
		}
		if err := c.Validate(); err != nil {
			return nil, errors.Wrapf(err, "kore: pattern at offset %d", at)
		}
		return c, nil
	case tagStringLit:
		s, err := d.readString()
		if err != nil {
			return nil, err
		}
		return kore.NewStringPattern(s), nil
	case tagVariable:
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		sort, err := d.sort()
		if err != nil {
			return nil, err
		}
		return kore.NewVariablePattern(name, sort), nil
	default:
		return nil, formatErrorf(at, "invalid pattern tag 0x%02x", tag)
	}
}
