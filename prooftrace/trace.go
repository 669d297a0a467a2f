// Package prooftrace reads and writes the binary proof traces recorded while
// a rewrite runs.
//
// A trace starts with the 4-byte magic "HINT" and a little-endian uint32
// version. Pre-trace events follow until the config marker, then the initial
// configuration as a framed KORE pattern, then trace events up to the end of
// input:
//
//	0x10 function   string name, string position, uvarint n, event{n}
//	0x11 hook       string name, string position, uvarint n, event{n}, pattern
//	0x12 rule       uvarint ordinal, uvarint n, (string name, pattern){n}
//	0x13 side cond  uvarint ordinal, uvarint n, (string name, pattern){n}
//	0x14 argument   pattern
//	0x15 config     marker before the initial configuration
//
// Strings are a uvarint length followed by the bytes. Patterns are framed
// with their size recorded, as codec.ReadFrom expects.
package prooftrace

import (
	"fmt"

	"github.com/Neumenon/kore/kore"
)

// Magic starts every proof trace.
var Magic = [4]byte{'H', 'I', 'N', 'T'}

// Version is the trace format version this package reads and writes.
const Version uint32 = 1

// Kind is the tag byte of an event.
type Kind uint8

const (
	KindFunction      Kind = 0x10
	KindHook          Kind = 0x11
	KindRule          Kind = 0x12
	KindSideCondition Kind = 0x13
	KindArgument      Kind = 0x14
	KindConfig        Kind = 0x15
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindHook:
		return "hook"
	case KindRule:
		return "rule"
	case KindSideCondition:
		return "side condition"
	case KindArgument:
		return "argument"
	case KindConfig:
		return "config"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(k))
	}
}

// RewriteTrace is a decoded proof trace.
type RewriteTrace struct {
	Version       uint32
	PreTrace      []*Event
	InitialConfig kore.Pattern
	Trace         []*Event
}

// String renders the trace as indented text.
func (t *RewriteTrace) String() string {
	p := &textPrinter{}
	p.trace(t)
	return p.String()
}

// Event is either a step event or a KORE pattern, never both.
type Event struct {
	step    StepEvent
	pattern kore.Pattern
}

// NewStepEvent wraps a step event.
func NewStepEvent(s StepEvent) *Event { return &Event{step: s} }

// NewPatternEvent wraps a pattern, such as a function argument or an
// intermediate configuration.
func NewPatternEvent(p kore.Pattern) *Event { return &Event{pattern: p} }

// IsStep reports whether the event holds a step event.
func (e *Event) IsStep() bool { return e.step != nil }

// IsPattern reports whether the event holds a pattern.
func (e *Event) IsPattern() bool { return e.pattern != nil }

// Step returns the step event, or nil.
func (e *Event) Step() StepEvent { return e.step }

// Pattern returns the pattern, or nil.
func (e *Event) Pattern() kore.Pattern { return e.pattern }

// Kind returns the tag the event is written with.
func (e *Event) Kind() Kind {
	if e.step != nil {
		return e.step.Kind()
	}
	return KindArgument
}

func (e *Event) String() string {
	p := &textPrinter{}
	p.event(e)
	return p.String()
}

// StepEvent is a *RuleEvent, *SideConditionEvent, *FunctionEvent or
// *HookEvent.
type StepEvent interface {
	Kind() Kind
	String() string
	print(p *textPrinter)
}

// Binding is one entry of a rewrite substitution. Bindings keep the order
// they were recorded in.
type Binding struct {
	Name    string
	Pattern kore.Pattern
}

// RewriteEvent is the data shared by rule and side-condition events.
type RewriteEvent struct {
	RuleOrdinal  uint64
	Substitution []Binding
}

// Lookup returns the pattern bound to name.
func (r *RewriteEvent) Lookup(name string) (kore.Pattern, bool) {
	for _, b := range r.Substitution {
		if b.Name == name {
			return b.Pattern, true
		}
	}
	return nil, false
}

// RuleEvent records the application of a rewrite rule.
type RuleEvent struct {
	RewriteEvent
}

func (*RuleEvent) Kind() Kind { return KindRule }

func (r *RuleEvent) String() string { return stepString(r) }

// SideConditionEvent records the evaluation of a rule's side condition.
type SideConditionEvent struct {
	RewriteEvent
}

func (*SideConditionEvent) Kind() Kind { return KindSideCondition }

func (s *SideConditionEvent) String() string { return stepString(s) }

// FunctionEvent records a call to a function symbol. RelativePosition
// addresses the call site within the configuration.
type FunctionEvent struct {
	Name             string
	RelativePosition string
	Args             []*Event
}

func (*FunctionEvent) Kind() Kind { return KindFunction }

func (f *FunctionEvent) String() string { return stepString(f) }

// HookEvent records a call to a hooked builtin and its result.
type HookEvent struct {
	Name             string
	RelativePosition string
	Args             []*Event
	Result           kore.Pattern
}

func (*HookEvent) Kind() Kind { return KindHook }

func (h *HookEvent) String() string { return stepString(h) }

func stepString(s StepEvent) string {
	p := &textPrinter{}
	s.print(p)
	return p.String()
}
