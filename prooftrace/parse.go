package prooftrace

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
)

const headerLen = len(Magic) + 4

// Parse decodes a complete proof trace. opts apply to every embedded
// pattern.
func Parse(data []byte, opts ...codec.DeserializeOption) (*RewriteTrace, error) {
	p := &parser{data: data, opts: opts, maxDepth: codec.MaxDepth(opts...)}
	return p.parse()
}

// ParseFrom reads r to the end and decodes it as a proof trace.
func ParseFrom(r io.Reader, opts ...codec.DeserializeOption) (*RewriteTrace, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "kore: reading proof trace")
	}
	return Parse(data, opts...)
}

type parser struct {
	data []byte
	off  int
	opts []codec.DeserializeOption

	// depth counts events nested through function and hook arguments.
	depth    int
	maxDepth int
}

func (p *parser) fail(at int, format string, args ...any) error {
	return errors.WithStack(&codec.FormatError{Reason: fmt.Sprintf(format, args...), Offset: int64(at)})
}

func (p *parser) parse() (*RewriteTrace, error) {
	if len(p.data) < len(Magic) || !bytes.Equal(p.data[:len(Magic)], Magic[:]) {
		return nil, p.fail(0, "bad proof trace header")
	}
	if len(p.data) < headerLen {
		return nil, p.fail(len(Magic), "truncated proof trace version")
	}
	version := binary.LittleEndian.Uint32(p.data[len(Magic):])
	if version != Version {
		return nil, errors.WithStack(&codec.UnsupportedVersionError{
			Version: strconv.FormatUint(uint64(version), 10),
			Reason:  "proof trace version " + strconv.FormatUint(uint64(Version), 10) + " is supported",
		})
	}
	p.off = headerLen

	t := &RewriteTrace{Version: version}
	for {
		if p.off >= len(p.data) {
			return nil, p.fail(p.off, "missing initial configuration")
		}
		if Kind(p.data[p.off]) == KindConfig {
			p.off++
			break
		}
		e, err := p.event()
		if err != nil {
			return nil, err
		}
		t.PreTrace = append(t.PreTrace, e)
	}

	config, err := p.pattern()
	if err != nil {
		return nil, err
	}
	t.InitialConfig = config

	for p.off < len(p.data) {
		e, err := p.event()
		if err != nil {
			return nil, err
		}
		t.Trace = append(t.Trace, e)
	}
	return t, nil
}

func (p *parser) event() (*Event, error) {
	at := p.off
	if p.off >= len(p.data) {
		return nil, p.fail(at, "unexpected end of trace")
	}
	if p.depth >= p.maxDepth {
		return nil, p.fail(at, "nesting too deep")
	}
	p.depth++
	defer func() { p.depth-- }()

	kind := Kind(p.data[p.off])
	p.off++

	switch kind {
	case KindFunction, KindHook:
		name, err := p.readString()
		if err != nil {
			return nil, err
		}
		pos, err := p.readString()
		if err != nil {
			return nil, err
		}
		args, err := p.events()
		if err != nil {
			return nil, err
		}
		if kind == KindFunction {
			return NewStepEvent(&FunctionEvent{Name: name, RelativePosition: pos, Args: args}), nil
		}
		result, err := p.pattern()
		if err != nil {
			return nil, err
		}
		return NewStepEvent(&HookEvent{Name: name, RelativePosition: pos, Args: args, Result: result}), nil

	case KindRule, KindSideCondition:
		r, err := p.rewrite()
		if err != nil {
			return nil, err
		}
		if kind == KindRule {
			return NewStepEvent(&RuleEvent{RewriteEvent: r}), nil
		}
		return NewStepEvent(&SideConditionEvent{RewriteEvent: r}), nil

	case KindArgument:
		pat, err := p.pattern()
		if err != nil {
			return nil, err
		}
		return NewPatternEvent(pat), nil

	default:
		return nil, p.fail(at, "unknown event tag 0x%02x", uint8(kind))
	}
}

func (p *parser) events() ([]*Event, error) {
	n, err := p.count()
	if err != nil {
		return nil, err
	}
	var events []*Event
	for i := 0; i < n; i++ {
		e, err := p.event()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (p *parser) rewrite() (RewriteEvent, error) {
	ordinal, err := p.uvarint()
	if err != nil {
		return RewriteEvent{}, err
	}
	n, err := p.count()
	if err != nil {
		return RewriteEvent{}, err
	}
	r := RewriteEvent{RuleOrdinal: ordinal}
	for i := 0; i < n; i++ {
		name, err := p.readString()
		if err != nil {
			return RewriteEvent{}, err
		}
		pat, err := p.pattern()
		if err != nil {
			return RewriteEvent{}, err
		}
		r.Substitution = append(r.Substitution, Binding{Name: name, Pattern: pat})
	}
	return r, nil
}

// pattern decodes one framed pattern in place.
func (p *parser) pattern() (kore.Pattern, error) {
	at := p.off
	src := codec.NewBytesSource(p.data[p.off:])
	pat, err := codec.ReadFrom(src, p.opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "kore: pattern at trace offset %d", at)
	}
	p.off += int(src.Offset())
	return pat, nil
}

func (p *parser) uvarint() (uint64, error) {
	v, n := binary.Uvarint(p.data[p.off:])
	if n == 0 {
		return 0, p.fail(p.off, "unexpected end of trace")
	}
	if n < 0 {
		return 0, p.fail(p.off, "varint overflows 64 bits")
	}
	p.off += n
	return v, nil
}

func (p *parser) count() (int, error) {
	at := p.off
	n, err := p.uvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(len(p.data)-p.off) {
		return 0, p.fail(at, "count %d exceeds remaining %d bytes", n, len(p.data)-p.off)
	}
	return int(n), nil
}

func (p *parser) readString() (string, error) {
	n, err := p.count()
	if err != nil {
		return "", err
	}
	s := string(p.data[p.off : p.off+n])
	p.off += n
	return s, nil
}
