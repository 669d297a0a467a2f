package kore

import "github.com/cockroachdb/errors"

// Attributes is the attribute list of a declaration, module or definition.
// Entries keep insertion order and duplicate names are kept side by side.
type Attributes struct {
	patterns []*CompositePattern
}

// Add appends an attribute pattern.
func (a *Attributes) Add(p *CompositePattern) {
	p.freeze()
	a.patterns = append(a.patterns, p)
}

// All returns every attribute in insertion order.
func (a *Attributes) All() []*CompositePattern { return a.patterns }

// Len returns the number of attributes.
func (a *Attributes) Len() int { return len(a.patterns) }

// Has reports whether an attribute with the given name exists.
func (a *Attributes) Has(name string) bool { return a.Get(name) != nil }

// Get returns the first attribute with the given name, or nil.
func (a *Attributes) Get(name string) *CompositePattern {
	for _, p := range a.patterns {
		if p.constructor.Name() == name {
			return p
		}
	}
	return nil
}

// GetAll returns every attribute with the given name.
func (a *Attributes) GetAll(name string) []*CompositePattern {
	var out []*CompositePattern
	for _, p := range a.patterns {
		if p.constructor.Name() == name {
			out = append(out, p)
		}
	}
	return out
}

// StringValue returns the contents of a single-string attribute such as
// hook{}("INT.add").
func (a *Attributes) StringValue(name string) (string, bool) {
	p := a.Get(name)
	if p == nil || len(p.arguments) != 1 {
		return "", false
	}
	s, ok := p.arguments[0].(*StringPattern)
	if !ok {
		return "", false
	}
	return s.contents, true
}

// ============================================================
// Declarations
// ============================================================

// Declaration is one sentence of a module: a *CompositeSortDeclaration,
// *SymbolDeclaration, *AliasDeclaration, *AxiomDeclaration or
// *ModuleImportDeclaration.
type Declaration interface {
	// ObjectSortVariables returns the declared sort variables in insertion
	// order.
	ObjectSortVariables() []*SortVariable

	// Attributes returns the attribute list.
	Attributes() *Attributes

	// AddObjectSortVariable declares a sort variable; re-adding a name is a
	// no-op.
	AddObjectSortVariable(v *SortVariable)

	// AddAttribute appends an attribute.
	AddAttribute(p *CompositePattern)

	// String returns the KORE text form.
	String() string

	print(p *printer)
	freeze()
}

// declaration is the storage shared by all declaration kinds.
type declaration struct {
	sortVariables []*SortVariable
	attributes    Attributes
	frozen        bool
}

func (d *declaration) ObjectSortVariables() []*SortVariable { return d.sortVariables }

func (d *declaration) Attributes() *Attributes { return &d.attributes }

func (d *declaration) AddObjectSortVariable(v *SortVariable) {
	checkBuilder(d.frozen, "Declaration.AddObjectSortVariable", v.Name())
	for _, existing := range d.sortVariables {
		if existing.name == v.name {
			return
		}
	}
	d.sortVariables = append(d.sortVariables, v)
}

func (d *declaration) AddAttribute(p *CompositePattern) {
	checkBuilder(d.frozen, "Declaration.AddAttribute", p.constructor.Name())
	d.attributes.Add(p)
}

func (d *declaration) freeze() { d.frozen = true }

// CompositeSortDeclaration declares a sort constructor.
type CompositeSortDeclaration struct {
	declaration
	name   string
	hooked bool
}

// NewCompositeSortDeclaration creates a sort declaration; hooked sorts are
// implemented by the backend.
func NewCompositeSortDeclaration(name string, hooked bool) *CompositeSortDeclaration {
	return &CompositeSortDeclaration{name: name, hooked: hooked}
}

// Name returns the declared sort name.
func (d *CompositeSortDeclaration) Name() string { return d.name }

// IsHooked reports whether the sort is hooked.
func (d *CompositeSortDeclaration) IsHooked() bool { return d.hooked }

func (d *CompositeSortDeclaration) String() string { return printString(d.print) }

// symbolAliasDeclaration is the storage shared by symbol and alias
// declarations. The symbol stays open for AddFormalArgument and AddSort until
// the declaration is published.
type symbolAliasDeclaration struct {
	declaration
	symbol *Symbol
}

// Symbol returns the declared symbol.
func (d *symbolAliasDeclaration) Symbol() *Symbol { return d.symbol }

func (d *symbolAliasDeclaration) freeze() {
	d.declaration.freeze()
	d.symbol.freeze()
}

// SymbolDeclaration declares a symbol with its signature.
type SymbolDeclaration struct {
	symbolAliasDeclaration
	hooked bool
}

// NewSymbolDeclaration creates a symbol declaration. The signature is added
// through Symbol().AddFormalArgument and Symbol().AddSort.
func NewSymbolDeclaration(name string, hooked bool) *SymbolDeclaration {
	return &SymbolDeclaration{
		symbolAliasDeclaration: symbolAliasDeclaration{symbol: NewSymbol(name)},
		hooked:                 hooked,
	}
}

// IsHooked reports whether the symbol is hooked.
func (d *SymbolDeclaration) IsHooked() bool { return d.hooked }

func (d *SymbolDeclaration) String() string { return printString(d.print) }

// AliasDeclaration declares a symbol that abbreviates a pattern over its bound
// variables.
type AliasDeclaration struct {
	symbolAliasDeclaration
	boundVariables []*VariablePattern
	pattern        Pattern
}

// NewAliasDeclaration creates an alias declaration.
func NewAliasDeclaration(name string) *AliasDeclaration {
	return &AliasDeclaration{
		symbolAliasDeclaration: symbolAliasDeclaration{symbol: NewSymbol(name)},
	}
}

// AddVariables appends bound variables.
func (d *AliasDeclaration) AddVariables(vars ...*VariablePattern) {
	checkBuilder(d.frozen, "AliasDeclaration.AddVariables", d.symbol.Name())
	d.boundVariables = append(d.boundVariables, vars...)
}

// BoundVariables returns the alias parameters.
func (d *AliasDeclaration) BoundVariables() []*VariablePattern { return d.boundVariables }

// AddPattern sets the aliased pattern.
func (d *AliasDeclaration) AddPattern(p Pattern) {
	checkBuilder(d.frozen, "AliasDeclaration.AddPattern", d.symbol.Name())
	p.freeze()
	d.pattern = p
}

// Pattern returns the aliased pattern, or nil if none was added.
func (d *AliasDeclaration) Pattern() Pattern { return d.pattern }

// Validate checks that the aliased pattern only has bound variables free.
func (d *AliasDeclaration) Validate() error {
	if d.pattern == nil {
		return nil
	}
	bound := make(map[string]bool, len(d.boundVariables))
	for _, v := range d.boundVariables {
		bound[v.name] = true
	}
	for _, v := range FreeVariables(d.pattern, nil) {
		if !bound[v.name] {
			return errors.WithStack(&AliasError{Alias: d.symbol.Name(), Variable: v.name})
		}
	}
	return nil
}

func (d *AliasDeclaration) String() string { return printString(d.print) }

// AxiomDeclaration is an axiom, or a claim to be proven.
type AxiomDeclaration struct {
	declaration
	claim   bool
	pattern Pattern
}

// NewAxiomDeclaration creates an axiom, or a claim when claim is true.
func NewAxiomDeclaration(claim bool) *AxiomDeclaration {
	return &AxiomDeclaration{claim: claim}
}

// IsClaim reports whether the sentence is a claim.
func (d *AxiomDeclaration) IsClaim() bool { return d.claim }

// AddPattern sets the axiom body.
func (d *AxiomDeclaration) AddPattern(p Pattern) {
	checkBuilder(d.frozen, "AxiomDeclaration.AddPattern", "axiom")
	p.freeze()
	d.pattern = p
}

// Pattern returns the axiom body, or nil if none was added.
func (d *AxiomDeclaration) Pattern() Pattern { return d.pattern }

func (d *AxiomDeclaration) String() string { return printString(d.print) }

// ModuleImportDeclaration imports another module by name.
type ModuleImportDeclaration struct {
	declaration
	moduleName string
}

// NewModuleImportDeclaration creates an import of the named module.
func NewModuleImportDeclaration(moduleName string) *ModuleImportDeclaration {
	return &ModuleImportDeclaration{moduleName: moduleName}
}

// ModuleName returns the imported module name.
func (d *ModuleImportDeclaration) ModuleName() string { return d.moduleName }

func (d *ModuleImportDeclaration) String() string { return printString(d.print) }
