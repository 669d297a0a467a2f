package kore

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

type textWriter interface {
	io.StringWriter
	io.ByteWriter
}

// printer renders model nodes as KORE text, either into a string or
// straight to a writer.
type printer struct {
	out   textWriter
	sb    *strings.Builder
	depth int
}

func newPrinter() *printer {
	sb := &strings.Builder{}
	return &printer{out: sb, sb: sb}
}

// String returns the text printed so far by a printer from newPrinter.
func (p *printer) String() string { return p.sb.String() }

func printString(f func(*printer)) string {
	p := newPrinter()
	f(p)
	return p.String()
}

// printTo streams the output of f to w. bufio.Writer keeps the first write
// error and reports it from Flush.
func printTo(w io.Writer, f func(*printer)) error {
	bw := bufio.NewWriter(w)
	f(&printer{out: bw})
	return bw.Flush()
}

func (p *printer) write(s string) { _, _ = p.out.WriteString(s) }

func (p *printer) newline() {
	_ = p.out.WriteByte('\n')
	for i := 0; i < p.depth; i++ {
		_, _ = p.out.WriteString("  ")
	}
}

func (p *printer) printSorts(sorts []Sort) {
	p.write("{")
	for i, s := range sorts {
		if i > 0 {
			p.write(", ")
		}
		s.print(p)
	}
	p.write("}")
}

func (p *printer) printSortVariables(vars []*SortVariable) {
	p.write("{")
	for i, v := range vars {
		if i > 0 {
			p.write(", ")
		}
		p.write(v.name)
	}
	p.write("}")
}

func (p *printer) printSymbol(s *Symbol) {
	p.write(s.name)
	p.printSorts(s.arguments)
}

func (p *printer) printPatterns(patterns []Pattern) {
	p.write("(")
	for i, arg := range patterns {
		if i > 0 {
			p.write(", ")
		}
		arg.print(p)
	}
	p.write(")")
}

func (p *printer) printAttributes(a *Attributes) {
	p.write("[")
	for i, attr := range a.patterns {
		if i > 0 {
			p.write(", ")
		}
		attr.print(p)
	}
	p.write("]")
}

// ============================================================
// Sorts and patterns
// ============================================================

func (v *SortVariable) print(p *printer) { p.write(v.name) }

func (s *CompositeSort) print(p *printer) {
	p.write(s.name)
	p.printSorts(s.arguments)
}

func (c *CompositePattern) print(p *printer) {
	p.printSymbol(c.constructor)
	p.printPatterns(c.arguments)
}

func (v *VariablePattern) print(p *printer) {
	p.write(v.name)
	p.write(":")
	v.sort.print(p)
}

func (s *StringPattern) print(p *printer) {
	p.write(`"`)
	p.write(escapeString(s.contents))
	p.write(`"`)
}

// escapeString quotes the bytes of a string literal. Bytes outside printable
// ASCII are written as \xHH so that arbitrary contents survive a round trip.
func escapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if c < 0x20 || c >= 0x7f {
				sb.WriteString(`\x`)
				if c < 0x10 {
					sb.WriteByte('0')
				}
				sb.WriteString(strconv.FormatUint(uint64(c), 16))
				continue
			}
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// ============================================================
// Declarations
// ============================================================

func (d *CompositeSortDeclaration) print(p *printer) {
	if d.hooked {
		p.write("hooked-sort ")
	} else {
		p.write("sort ")
	}
	p.write(d.name)
	p.printSortVariables(d.sortVariables)
	p.write(" ")
	p.printAttributes(&d.attributes)
}

func (d *SymbolDeclaration) print(p *printer) {
	if d.hooked {
		p.write("hooked-symbol ")
	} else {
		p.write("symbol ")
	}
	d.printSignature(p)
	p.write(" ")
	p.printAttributes(&d.attributes)
}

func (d *symbolAliasDeclaration) printSignature(p *printer) {
	p.write(d.symbol.name)
	p.printSortVariables(d.sortVariables)
	p.write("(")
	for i, s := range d.symbol.formalArguments {
		if i > 0 {
			p.write(", ")
		}
		s.print(p)
	}
	p.write(") : ")
	if d.symbol.sort != nil {
		d.symbol.sort.print(p)
	}
}

func (d *AliasDeclaration) print(p *printer) {
	p.write("alias ")
	d.printSignature(p)
	p.write(" where ")
	p.write(d.symbol.name)
	p.printSortVariables(d.sortVariables)
	p.write("(")
	for i, v := range d.boundVariables {
		if i > 0 {
			p.write(", ")
		}
		v.print(p)
	}
	p.write(") := ")
	if d.pattern != nil {
		d.pattern.print(p)
	}
	p.write(" ")
	p.printAttributes(&d.attributes)
}

func (d *AxiomDeclaration) print(p *printer) {
	if d.claim {
		p.write("claim")
	} else {
		p.write("axiom")
	}
	p.printSortVariables(d.sortVariables)
	p.write(" ")
	if d.pattern != nil {
		d.pattern.print(p)
	}
	p.write(" ")
	p.printAttributes(&d.attributes)
}

func (d *ModuleImportDeclaration) print(p *printer) {
	p.write("import ")
	p.write(d.moduleName)
	p.write(" ")
	p.printAttributes(&d.attributes)
}

// ============================================================
// Modules and definitions
// ============================================================

func (m *Module) print(p *printer) {
	p.write("module ")
	p.write(m.name)
	p.depth++
	for _, d := range m.declarations {
		p.newline()
		d.print(p)
	}
	p.depth--
	p.newline()
	p.write("endmodule ")
	p.printAttributes(&m.attributes)
}

func (d *Definition) print(p *printer) {
	p.printAttributes(&d.attributes)
	p.write("\n")
	for _, m := range d.modules {
		p.write("\n")
		m.print(p)
		p.write("\n")
	}
}
