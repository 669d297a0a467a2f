package codec

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/Neumenon/kore/kore"
)

// Body tags.
const (
	tagStringDef byte = 0x01
	tagStringRef byte = 0x02
	tagComposite byte = 0x04
	tagStringLit byte = 0x05
	tagSort      byte = 0x06
	tagSortVar   byte = 0x07
	tagSymbol    byte = 0x08
	tagVariable  byte = 0x09
	tagSymbolRef byte = 0x0A
	tagSortRef   byte = 0x0B
	flagNoSort   byte = 0x00
	flagHasSort  byte = 0x01
)

// SerializeOption configures Serialize.
type SerializeOption func(*serializeOptions)

type serializeOptions struct {
	emitSize bool
	version  Version
}

// WithEmitSize records the body length in the size field so the output can be
// read with ReadFrom.
func WithEmitSize() SerializeOption {
	return func(o *serializeOptions) { o.emitSize = true }
}

// WithVersion writes an older format version. Versions below 1.2.0 have no
// size field and WithEmitSize has no effect for them.
func WithVersion(v Version) SerializeOption {
	return func(o *serializeOptions) { o.version = v }
}

// Serialize encodes p as a framed pattern.
func Serialize(p kore.Pattern, opts ...SerializeOption) []byte {
	o := serializeOptions{version: CurrentVersion}
	for _, opt := range opts {
		opt(&o)
	}

	s := NewSerializer(o.version)
	s.SerializePattern(p)
	if o.emitSize {
		s.CorrectEmittedSize()
	}
	return s.Bytes()
}

// Serializer writes one framed pattern. The header is written by
// NewSerializer; the size field, when the version has one, is reserved as
// zero until CorrectEmittedSize patches it.
type Serializer struct {
	version   Version
	buf       []byte
	sizeOff   int
	bodyStart int

	strings  map[string]uint64
	sorts    map[string]uint64
	symbols  map[string]uint64
	nSorts   uint64
	nSymbols uint64
}

// NewSerializer starts a framed pattern of the given version.
func NewSerializer(version Version) *Serializer {
	s := &Serializer{version: version}
	s.Reset()
	return s
}

// Reset discards the body and the intern tables and rewrites the header.
func (s *Serializer) Reset() {
	s.buf = append(s.buf[:0], Magic[:]...)
	s.buf = s.version.append(s.buf)
	s.sizeOff = -1
	if s.version.HasSizeField() {
		s.sizeOff = len(s.buf)
		s.buf = binary.LittleEndian.AppendUint64(s.buf, 0)
	}
	s.bodyStart = len(s.buf)

	s.strings = make(map[string]uint64)
	s.sorts = make(map[string]uint64)
	s.symbols = make(map[string]uint64)
	s.nSorts = 0
	s.nSymbols = 0
}

// SerializePattern appends the body encoding of p. A Serializer holds a
// single pattern; call Reset before writing another.
func (s *Serializer) SerializePattern(p kore.Pattern) {
	switch x := p.(type) {
	case *kore.CompositePattern:
		s.buf = append(s.buf, tagComposite)
		s.writeSymbol(x.Constructor())
		args := x.Arguments()
		s.buf = binary.AppendUvarint(s.buf, uint64(len(args)))
		for _, arg := range args {
			s.SerializePattern(arg)
		}
	case *kore.StringPattern:
		s.buf = append(s.buf, tagStringLit)
		s.writeString(x.Contents())
	case *kore.VariablePattern:
		s.buf = append(s.buf, tagVariable)
		s.writeString(x.Name())
		s.writeSort(x.Sort())
	default:
		panic(fmt.Sprintf("codec: unknown pattern type %T", p))
	}
}

// CorrectEmittedSize patches the size field with the current body length. It
// is a no-op for versions without a size field.
func (s *Serializer) CorrectEmittedSize() {
	if s.sizeOff < 0 {
		return
	}
	binary.LittleEndian.PutUint64(s.buf[s.sizeOff:], uint64(len(s.buf)-s.bodyStart))
}

// Bytes returns the framed output. The slice aliases the serializer's buffer
// until the next Reset.
func (s *Serializer) Bytes() []byte { return s.buf }

// BodyLen returns the number of body bytes written so far.
func (s *Serializer) BodyLen() int { return len(s.buf) - s.bodyStart }

func (s *Serializer) writeString(str string) {
	if idx, ok := s.strings[str]; ok {
		s.buf = append(s.buf, tagStringRef)
		s.buf = binary.AppendUvarint(s.buf, idx)
		return
	}
	s.buf = append(s.buf, tagStringDef)
	s.buf = appendString(s.buf, str)
	s.strings[str] = uint64(len(s.strings))
}

func (s *Serializer) writeSort(sort kore.Sort) {
	key := sortKey(sort)
	if idx, ok := s.sorts[key]; ok {
		s.buf = append(s.buf, tagSortRef)
		s.buf = binary.AppendUvarint(s.buf, idx)
		return
	}

	switch x := sort.(type) {
	case *kore.SortVariable:
		s.buf = append(s.buf, tagSortVar)
		s.writeString(x.Name())
	case *kore.CompositeSort:
		s.buf = append(s.buf, tagSort)
		s.writeString(x.Name())
		vt := x.Category()
		s.buf = append(s.buf, byte(vt.Cat))
		s.buf = binary.AppendUvarint(s.buf, vt.Bits)
		args := x.Arguments()
		s.buf = binary.AppendUvarint(s.buf, uint64(len(args)))
		for _, arg := range args {
			s.writeSort(arg)
		}
	default:
		panic(fmt.Sprintf("codec: unknown sort type %T", sort))
	}

	s.sorts[key] = s.nSorts
	s.nSorts++
}

func (s *Serializer) writeSymbol(sym *kore.Symbol) {
	key := symbolKey(sym)
	if idx, ok := s.symbols[key]; ok {
		s.buf = append(s.buf, tagSymbolRef)
		s.buf = binary.AppendUvarint(s.buf, idx)
		return
	}

	s.buf = append(s.buf, tagSymbol)
	s.writeString(sym.Name())
	s.writeSorts(sym.Arguments())
	s.writeSorts(sym.FormalArguments())
	if sym.Sort() != nil {
		s.buf = append(s.buf, flagHasSort)
		s.writeSort(sym.Sort())
	} else {
		s.buf = append(s.buf, flagNoSort)
	}

	s.symbols[key] = s.nSymbols
	s.nSymbols++
}

func (s *Serializer) writeSorts(sorts []kore.Sort) {
	s.buf = binary.AppendUvarint(s.buf, uint64(len(sorts)))
	for _, sort := range sorts {
		s.writeSort(sort)
	}
}

// ============================================================
// Intern keys
// ============================================================

// sortKey identifies a sort by everything the encoding records, including
// the value type.
func sortKey(sort kore.Sort) string {
	var sb strings.Builder
	writeSortKey(&sb, sort)
	return sb.String()
}

func writeSortKey(sb *strings.Builder, sort kore.Sort) {
	switch x := sort.(type) {
	case *kore.SortVariable:
		sb.WriteByte('v')
		writeKeyString(sb, x.Name())
	case *kore.CompositeSort:
		vt := x.Category()
		sb.WriteByte('c')
		writeKeyString(sb, x.Name())
		fmt.Fprintf(sb, "%d.%d.%d(", vt.Cat, vt.Bits, len(x.Arguments()))
		for _, arg := range x.Arguments() {
			writeSortKey(sb, arg)
		}
		sb.WriteByte(')')
	}
}

func symbolKey(sym *kore.Symbol) string {
	var sb strings.Builder
	writeKeyString(&sb, sym.Name())
	writeSortListKey(&sb, sym.Arguments())
	writeSortListKey(&sb, sym.FormalArguments())
	if sym.Sort() != nil {
		writeSortKey(&sb, sym.Sort())
	}
	return sb.String()
}

func writeSortListKey(sb *strings.Builder, sorts []kore.Sort) {
	fmt.Fprintf(sb, "[%d", len(sorts))
	for _, sort := range sorts {
		writeSortKey(sb, sort)
	}
	sb.WriteByte(']')
}

func writeKeyString(sb *strings.Builder, s string) {
	fmt.Fprintf(sb, "%d:", len(s))
	sb.WriteString(s)
}

// ============================================================
// Helpers
// ============================================================

func appendUint16(buf []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(buf, v)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}
