package prooftrace

import (
	"strconv"
	"strings"
)

// textPrinter renders traces one event per line, nesting arguments and
// substitutions two spaces deeper than their event.
type textPrinter struct {
	sb    strings.Builder
	depth int
}

func (p *textPrinter) String() string { return strings.TrimSuffix(p.sb.String(), "\n") }

func (p *textPrinter) line(parts ...string) {
	for i := 0; i < p.depth; i++ {
		p.sb.WriteString("  ")
	}
	for _, s := range parts {
		p.sb.WriteString(s)
	}
	p.sb.WriteByte('\n')
}

func (p *textPrinter) nested(f func()) {
	p.depth++
	f()
	p.depth--
}

func (p *textPrinter) trace(t *RewriteTrace) {
	p.line("version: ", strconv.FormatUint(uint64(t.Version), 10))
	p.line("pre-trace: ", strconv.Itoa(len(t.PreTrace)), " events")
	p.nested(func() {
		for _, e := range t.PreTrace {
			p.event(e)
		}
	})
	if t.InitialConfig != nil {
		p.line("initial config: ", t.InitialConfig.String())
	}
	p.line("trace: ", strconv.Itoa(len(t.Trace)), " events")
	p.nested(func() {
		for _, e := range t.Trace {
			p.event(e)
		}
	})
}

func (p *textPrinter) event(e *Event) {
	if e.step != nil {
		e.step.print(p)
		return
	}
	if e.pattern != nil {
		p.line("pattern: ", e.pattern.String())
	}
}

func (p *textPrinter) rewrite(kind Kind, r *RewriteEvent) {
	p.line(kind.String(), ": ", strconv.FormatUint(r.RuleOrdinal, 10), " ", strconv.Itoa(len(r.Substitution)))
	p.nested(func() {
		for _, b := range r.Substitution {
			p.line(b.Name, " = ", b.Pattern.String())
		}
	})
}

func (r *RuleEvent) print(p *textPrinter) { p.rewrite(KindRule, &r.RewriteEvent) }

func (s *SideConditionEvent) print(p *textPrinter) {
	p.rewrite(KindSideCondition, &s.RewriteEvent)
}

func (f *FunctionEvent) print(p *textPrinter) {
	p.line("function: ", f.Name, " (", f.RelativePosition, ")")
	p.nested(func() {
		for _, arg := range f.Args {
			p.event(arg)
		}
	})
}

func (h *HookEvent) print(p *textPrinter) {
	p.line("hook: ", h.Name, " (", h.RelativePosition, ")")
	p.nested(func() {
		for _, arg := range h.Args {
			p.event(arg)
		}
		if h.Result != nil {
			p.line("result: ", h.Result.String())
		}
	})
}
