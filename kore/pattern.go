package kore

// Pattern is a KORE term: a *CompositePattern, *VariablePattern or
// *StringPattern.
type Pattern interface {
	// Sort returns the sort of the pattern, or nil when it cannot be
	// determined (string literals, applications of unresolved symbols).
	Sort() Sort

	// Substitute replaces free variables by name using DefaultBinders for
	// capture avoidance. The receiver is never modified.
	Substitute(m Substitution) Pattern

	// Equal compares patterns structurally.
	Equal(other Pattern) bool

	// String returns the KORE text form.
	String() string

	substitute(s *substituter) Pattern
	collectFree(bound map[string]int, binders BinderFunc, out *varSet)
	print(p *printer)
	freeze()
}

// Substitution maps variable names to replacement patterns.
type Substitution map[string]Pattern

// ============================================================
// Composite patterns
// ============================================================

// CompositePattern is a symbol applied to argument patterns.
type CompositePattern struct {
	constructor *Symbol
	arguments   []Pattern
	frozen      bool
}

// NewCompositePattern creates an application of sym with no arguments yet.
func NewCompositePattern(sym *Symbol) *CompositePattern {
	sym.freeze()
	return &CompositePattern{constructor: sym}
}

// NewCompositePatternFromName creates an application of a bare symbol name
// whose signature is resolved later.
func NewCompositePatternFromName(name string) *CompositePattern {
	return NewCompositePattern(NewSymbol(name))
}

// Apply builds sym(args...) and checks the declared arity when the symbol has
// a signature.
func Apply(sym *Symbol, args ...Pattern) (*CompositePattern, error) {
	c := NewCompositePattern(sym)
	for _, arg := range args {
		arg.freeze()
	}
	c.arguments = append(c.arguments, args...)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustApply is like Apply but panics on an arity mismatch.
func MustApply(sym *Symbol, args ...Pattern) *CompositePattern {
	c, err := Apply(sym, args...)
	if err != nil {
		panic(err)
	}
	return c
}

// Constructor returns the applied symbol.
func (c *CompositePattern) Constructor() *Symbol { return c.constructor }

// Arguments returns the argument patterns. The slice must not be modified.
func (c *CompositePattern) Arguments() []Pattern { return c.arguments }

// AddArgument appends an argument. It fails with *ArityError when the
// constructor has a signature and the argument would exceed its arity.
func (c *CompositePattern) AddArgument(arg Pattern) error {
	checkBuilder(c.frozen, "CompositePattern.AddArgument", c.constructor.Name())
	if c.constructor.HasSignature() && len(c.arguments) >= c.constructor.Arity() {
		return newArityError(c.constructor, len(c.arguments)+1)
	}
	arg.freeze()
	c.arguments = append(c.arguments, arg)
	return nil
}

// Validate checks the argument count against the declared arity. Patterns of
// unresolved symbols always validate.
func (c *CompositePattern) Validate() error {
	if c.constructor.HasSignature() && len(c.arguments) != c.constructor.Arity() {
		return newArityError(c.constructor, len(c.arguments))
	}
	return nil
}

func (c *CompositePattern) Sort() Sort { return c.constructor.Sort() }

func (c *CompositePattern) Substitute(m Substitution) Pattern {
	return SubstituteWith(c, m, DefaultBinders)
}

func (c *CompositePattern) Equal(other Pattern) bool {
	o, ok := other.(*CompositePattern)
	if !ok || o == nil {
		return false
	}
	if c == o {
		return true
	}
	if !c.constructor.Equal(o.constructor) || len(c.arguments) != len(o.arguments) {
		return false
	}
	for i := range c.arguments {
		if !c.arguments[i].Equal(o.arguments[i]) {
			return false
		}
	}
	return true
}

func (c *CompositePattern) String() string {
	p := newPrinter()
	c.print(p)
	return p.String()
}

func (c *CompositePattern) freeze() { c.frozen = true }

// ============================================================
// Variables
// ============================================================

// VariablePattern is a sorted variable such as X:SortInt{}. Set variables
// keep their leading @ in the name.
type VariablePattern struct {
	name string
	sort Sort
}

// NewVariablePattern creates a variable of the given sort.
func NewVariablePattern(name string, sort Sort) *VariablePattern {
	sort.freeze()
	return &VariablePattern{name: name, sort: sort}
}

// Name returns the variable name.
func (v *VariablePattern) Name() string { return v.name }

func (v *VariablePattern) Sort() Sort { return v.sort }

func (v *VariablePattern) Substitute(m Substitution) Pattern {
	return SubstituteWith(v, m, DefaultBinders)
}

func (v *VariablePattern) Equal(other Pattern) bool {
	o, ok := other.(*VariablePattern)
	if !ok || o == nil {
		return false
	}
	return v.name == o.name && v.sort.Equal(o.sort)
}

func (v *VariablePattern) String() string {
	p := newPrinter()
	v.print(p)
	return p.String()
}

func (v *VariablePattern) freeze() {}

// ============================================================
// String literals
// ============================================================

// StringPattern is a string literal. Contents are raw bytes and are not
// interpreted.
type StringPattern struct {
	contents string
}

// NewStringPattern creates a string literal.
func NewStringPattern(contents string) *StringPattern {
	return &StringPattern{contents: contents}
}

// Contents returns the literal bytes.
func (s *StringPattern) Contents() string { return s.contents }

func (s *StringPattern) Sort() Sort { return nil }

func (s *StringPattern) Substitute(Substitution) Pattern { return s }

func (s *StringPattern) Equal(other Pattern) bool {
	o, ok := other.(*StringPattern)
	return ok && o != nil && s.contents == o.contents
}

func (s *StringPattern) String() string {
	p := newPrinter()
	s.print(p)
	return p.String()
}

func (s *StringPattern) substitute(*substituter) Pattern { return s }

func (s *StringPattern) collectFree(map[string]int, BinderFunc, *varSet) {}

func (s *StringPattern) freeze() {}

// PatternsEqual compares two pattern sequences element-wise.
func PatternsEqual(a, b []Pattern) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
