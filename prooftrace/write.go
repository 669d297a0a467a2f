package prooftrace

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
)

// Writer writes a proof trace to an io.Writer. Call WriteHeader first, then
// the pre-trace events, WriteInitialConfig, and the trace events.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter creates a proof trace writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the magic and the version.
func (w *Writer) WriteHeader(version uint32) error {
	w.buf = append(w.buf[:0], Magic[:]...)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, version)
	return w.flush("header")
}

// WriteEvent writes one event, including its nested arguments.
func (w *Writer) WriteEvent(e *Event) error {
	buf, err := appendEvent(w.buf[:0], e)
	if err != nil {
		return err
	}
	w.buf = buf
	return w.flush("event")
}

// WriteInitialConfig writes the config marker and the initial configuration.
func (w *Writer) WriteInitialConfig(p kore.Pattern) error {
	w.buf = append(w.buf[:0], byte(KindConfig))
	w.buf = appendPattern(w.buf, p)
	return w.flush("initial configuration")
}

func (w *Writer) flush(what string) error {
	if _, err := w.w.Write(w.buf); err != nil {
		return errors.Wrapf(err, "kore: writing proof trace %s", what)
	}
	return nil
}

// Serialize encodes a complete trace.
func Serialize(t *RewriteTrace) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteHeader(t.Version); err != nil {
		return nil, err
	}
	for _, e := range t.PreTrace {
		if err := w.WriteEvent(e); err != nil {
			return nil, err
		}
	}
	if t.InitialConfig == nil {
		return nil, errors.New("kore: proof trace has no initial configuration")
	}
	if err := w.WriteInitialConfig(t.InitialConfig); err != nil {
		return nil, err
	}
	for _, e := range t.Trace {
		if err := w.WriteEvent(e); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func appendEvent(buf []byte, e *Event) ([]byte, error) {
	if e.IsPattern() {
		buf = append(buf, byte(KindArgument))
		return appendPattern(buf, e.pattern), nil
	}

	var err error
	switch s := e.step.(type) {
	case *FunctionEvent:
		buf = append(buf, byte(KindFunction))
		buf, err = appendCall(buf, s.Name, s.RelativePosition, s.Args)
	case *HookEvent:
		if s.Result == nil {
			return nil, errors.Newf("kore: hook event %s has no result", s.Name)
		}
		buf = append(buf, byte(KindHook))
		buf, err = appendCall(buf, s.Name, s.RelativePosition, s.Args)
		if err == nil {
			buf = appendPattern(buf, s.Result)
		}
	case *RuleEvent:
		buf = append(buf, byte(KindRule))
		buf = appendRewrite(buf, &s.RewriteEvent)
	case *SideConditionEvent:
		buf = append(buf, byte(KindSideCondition))
		buf = appendRewrite(buf, &s.RewriteEvent)
	default:
		return nil, errors.Newf("kore: cannot write event %s", describe(e))
	}
	return buf, err
}

func appendCall(buf []byte, name, pos string, args []*Event) ([]byte, error) {
	buf = appendString(buf, name)
	buf = appendString(buf, pos)
	buf = binary.AppendUvarint(buf, uint64(len(args)))
	for _, arg := range args {
		var err error
		if buf, err = appendEvent(buf, arg); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendRewrite(buf []byte, r *RewriteEvent) []byte {
	buf = binary.AppendUvarint(buf, r.RuleOrdinal)
	buf = binary.AppendUvarint(buf, uint64(len(r.Substitution)))
	for _, b := range r.Substitution {
		buf = appendString(buf, b.Name)
		buf = appendPattern(buf, b.Pattern)
	}
	return buf
}

func appendPattern(buf []byte, p kore.Pattern) []byte {
	return append(buf, codec.Serialize(p, codec.WithEmitSize())...)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func describe(e *Event) string {
	if e.step == nil {
		return "with neither step nor pattern"
	}
	return fmt.Sprintf("of type %T", e.step)
}
