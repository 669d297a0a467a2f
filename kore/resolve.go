package kore

// SymbolTable indexes the symbol and alias declarations of a definition by
// name. The declarations stay owned by their modules.
type SymbolTable struct {
	entries map[string]symbolEntry
}

type symbolEntry struct {
	symbol *Symbol
	params []*SortVariable
}

// Symbols builds the symbol table of every module in d. Earlier declarations
// win when a name is declared twice.
func (d *Definition) Symbols() *SymbolTable {
	t := &SymbolTable{entries: make(map[string]symbolEntry)}
	for _, m := range d.modules {
		for _, decl := range m.declarations {
			var sad *symbolAliasDeclaration
			switch x := decl.(type) {
			case *SymbolDeclaration:
				sad = &x.symbolAliasDeclaration
			case *AliasDeclaration:
				sad = &x.symbolAliasDeclaration
			default:
				continue
			}
			if _, ok := t.entries[sad.symbol.name]; ok {
				continue
			}
			t.entries[sad.symbol.name] = symbolEntry{symbol: sad.symbol, params: sad.sortVariables}
		}
	}
	return t
}

// Len returns the number of declared symbols.
func (t *SymbolTable) Len() int { return len(t.entries) }

// Lookup returns the declared symbol and its sort parameters.
func (t *SymbolTable) Lookup(name string) (*Symbol, []*SortVariable, bool) {
	e, ok := t.entries[name]
	return e.symbol, e.params, ok
}

// Resolve returns a copy of p whose symbols carry their declared signature
// instantiated with each application's sort parameters. Symbols without a
// declaration are left as they are. An application whose argument count
// differs from the declaration fails with *ArityError.
func (t *SymbolTable) Resolve(p Pattern) (Pattern, error) {
	out, err := t.resolve(p)
	if err != nil {
		return nil, err
	}
	out.freeze()
	return out, nil
}

func (t *SymbolTable) resolve(p Pattern) (Pattern, error) {
	c, ok := p.(*CompositePattern)
	if !ok {
		return p, nil
	}

	sym := c.constructor
	if e, ok := t.entries[sym.name]; ok {
		sym = sym.Instantiate(e.symbol, e.params)
	}

	args := make([]Pattern, len(c.arguments))
	for i, arg := range c.arguments {
		r, err := t.resolve(arg)
		if err != nil {
			return nil, err
		}
		args[i] = r
	}

	out := &CompositePattern{constructor: sym, arguments: args, frozen: true}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
