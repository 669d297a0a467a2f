package kore

import "io"

// Module is a named list of declarations.
type Module struct {
	name         string
	declarations []Declaration
	attributes   Attributes
	frozen       bool
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{name: name}
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Declarations returns the declarations in insertion order.
func (m *Module) Declarations() []Declaration { return m.declarations }

// Attributes returns the module attributes.
func (m *Module) Attributes() *Attributes { return &m.attributes }

// AddDeclaration appends a declaration and publishes it.
func (m *Module) AddDeclaration(d Declaration) {
	checkBuilder(m.frozen, "Module.AddDeclaration", m.name)
	d.freeze()
	m.declarations = append(m.declarations, d)
}

// AddAttribute appends a module attribute.
func (m *Module) AddAttribute(p *CompositePattern) {
	checkBuilder(m.frozen, "Module.AddAttribute", m.name)
	m.attributes.Add(p)
}

// String returns the KORE text form.
func (m *Module) String() string { return printString(m.print) }

// Print writes the KORE text form to w as it is produced.
func (m *Module) Print(w io.Writer) error { return printTo(w, m.print) }

func (m *Module) freeze() { m.frozen = true }

// Definition is the top-level container of a KORE file. The zero value is an
// empty definition ready to use.
type Definition struct {
	modules    []*Module
	byName     map[string]*Module
	attributes Attributes
}

// NewDefinition creates an empty definition.
func NewDefinition() *Definition {
	return &Definition{}
}

// Modules returns the modules in insertion order.
func (d *Definition) Modules() []*Module { return d.modules }

// Module returns the module with the given name, or nil. If several modules
// share a name the first one wins.
func (d *Definition) Module(name string) *Module { return d.byName[name] }

// Attributes returns the definition attributes.
func (d *Definition) Attributes() *Attributes { return &d.attributes }

// AddModule appends a module and publishes it.
func (d *Definition) AddModule(m *Module) {
	m.freeze()
	d.modules = append(d.modules, m)
	if d.byName == nil {
		d.byName = make(map[string]*Module)
	}
	if _, ok := d.byName[m.name]; !ok {
		d.byName[m.name] = m
	}
}

// AddAttribute appends a definition attribute.
func (d *Definition) AddAttribute(p *CompositePattern) {
	d.attributes.Add(p)
}

// String returns the KORE text form.
func (d *Definition) String() string { return printString(d.print) }

// Print writes the KORE text form to w as it is produced.
func (d *Definition) Print(w io.Writer) error { return printTo(w, d.print) }
