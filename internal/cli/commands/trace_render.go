package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/kore/prooftrace"
)

// maxCellWidth truncates long patterns in table cells.
const maxCellWidth = 60

func renderTraceText(w io.Writer, t *prooftrace.RewriteTrace) error {
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// renderTraceTable lists the top-level events of both phases, one per row.
func renderTraceTable(w io.Writer, t *prooftrace.RewriteTrace) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Phase", "Kind", "Name / Rule", "Nested", "Detail"})

	row := 0
	appendEvents := func(phase string, events []*prooftrace.Event) {
		for _, e := range events {
			name, nested, detail := summarize(e)
			tw.AppendRow(table.Row{row, phase, e.Kind().String(), name, nested, truncate(detail)})
			row++
		}
	}

	appendEvents("pre-trace", t.PreTrace)
	tw.AppendSeparator()
	if t.InitialConfig != nil {
		tw.AppendRow(table.Row{"", "config", prooftrace.KindConfig.String(), "", "", truncate(t.InitialConfig.String())})
		tw.AppendSeparator()
	}
	appendEvents("trace", t.Trace)

	tw.AppendFooter(table.Row{"", "", "", "", "version", t.Version})
	tw.Render()
	_, err := fmt.Fprintf(w, "(%d events)\n", row)
	return err
}

func summarize(e *prooftrace.Event) (name string, nested int, detail string) {
	switch s := e.Step().(type) {
	case *prooftrace.FunctionEvent:
		return s.Name, len(s.Args), s.RelativePosition
	case *prooftrace.HookEvent:
		return s.Name, len(s.Args), s.Result.String()
	case *prooftrace.RuleEvent:
		return strconv.FormatUint(s.RuleOrdinal, 10), len(s.Substitution), bindingNames(&s.RewriteEvent)
	case *prooftrace.SideConditionEvent:
		return strconv.FormatUint(s.RuleOrdinal, 10), len(s.Substitution), bindingNames(&s.RewriteEvent)
	}
	if p := e.Pattern(); p != nil {
		return "", 0, p.String()
	}
	return "", 0, ""
}

func bindingNames(r *prooftrace.RewriteEvent) string {
	var out string
	for i, b := range r.Substitution {
		if i > 0 {
			out += ", "
		}
		out += b.Name
	}
	return out
}

func truncate(s string) string {
	if len(s) <= maxCellWidth {
		return s
	}
	return s[:maxCellWidth-3] + "..."
}

// ============================================================
// YAML
// ============================================================

type traceDoc struct {
	Version       uint32     `yaml:"version"`
	PreTrace      []eventDoc `yaml:"pre_trace"`
	InitialConfig string     `yaml:"initial_config"`
	Trace         []eventDoc `yaml:"trace"`
}

type eventDoc struct {
	Kind         string       `yaml:"kind"`
	Name         string       `yaml:"name,omitempty"`
	Position     string       `yaml:"position,omitempty"`
	Ordinal      *uint64      `yaml:"ordinal,omitempty"`
	Pattern      string       `yaml:"pattern,omitempty"`
	Substitution []bindingDoc `yaml:"substitution,omitempty"`
	Args         []eventDoc   `yaml:"args,omitempty"`
	Result       string       `yaml:"result,omitempty"`
}

type bindingDoc struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

func newTraceDoc(t *prooftrace.RewriteTrace) traceDoc {
	doc := traceDoc{
		Version:  t.Version,
		PreTrace: newEventDocs(t.PreTrace),
		Trace:    newEventDocs(t.Trace),
	}
	if t.InitialConfig != nil {
		doc.InitialConfig = t.InitialConfig.String()
	}
	return doc
}

func newEventDocs(events []*prooftrace.Event) []eventDoc {
	docs := make([]eventDoc, 0, len(events))
	for _, e := range events {
		docs = append(docs, newEventDoc(e))
	}
	return docs
}

func newEventDoc(e *prooftrace.Event) eventDoc {
	doc := eventDoc{Kind: e.Kind().String()}
	switch s := e.Step().(type) {
	case *prooftrace.FunctionEvent:
		doc.Name, doc.Position, doc.Args = s.Name, s.RelativePosition, newEventDocs(s.Args)
	case *prooftrace.HookEvent:
		doc.Name, doc.Position, doc.Args = s.Name, s.RelativePosition, newEventDocs(s.Args)
		doc.Result = s.Result.String()
	case *prooftrace.RuleEvent:
		setRewrite(&doc, &s.RewriteEvent)
	case *prooftrace.SideConditionEvent:
		setRewrite(&doc, &s.RewriteEvent)
	}
	if p := e.Pattern(); p != nil {
		doc.Pattern = p.String()
	}
	return doc
}

func setRewrite(doc *eventDoc, r *prooftrace.RewriteEvent) {
	ordinal := r.RuleOrdinal
	doc.Ordinal = &ordinal
	for _, b := range r.Substitution {
		doc.Substitution = append(doc.Substitution, bindingDoc{Name: b.Name, Pattern: b.Pattern.String()})
	}
}

func renderTraceYAML(w io.Writer, t *prooftrace.RewriteTrace) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newTraceDoc(t)); err != nil {
		return err
	}
	return enc.Close()
}
