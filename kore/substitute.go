package kore

import "strconv"

// BinderFunc reports whether applications of sym bind the variable given as
// their first argument, as \exists{S}(X:S', P) does.
type BinderFunc func(sym *Symbol) bool

// DefaultBinders classifies the matching-logic quantifiers and fixpoint
// operators as binders.
func DefaultBinders(sym *Symbol) bool {
	switch sym.Name() {
	case `\exists`, `\forall`, `\mu`, `\nu`:
		return true
	}
	return false
}

type substituter struct {
	m       Substitution
	binders BinderFunc
}

// SubstituteWith replaces the free variables of p named in m. Variables bound
// by binders shadow m inside their scope, and a binder is renamed to a fresh
// name when a replacement would otherwise be captured by it. The input tree
// is not modified; unchanged subtrees are shared with the result. A new
// result is frozen, while p itself is returned untouched when nothing changes.
func SubstituteWith(p Pattern, m Substitution, binders BinderFunc) Pattern {
	if len(m) == 0 {
		return p
	}
	if binders == nil {
		binders = DefaultBinders
	}
	out := p.substitute(&substituter{m: m, binders: binders})
	if out != p {
		out.freeze()
	}
	return out
}

func (v *VariablePattern) substitute(s *substituter) Pattern {
	if r, ok := s.m[v.name]; ok && r != nil {
		r.freeze()
		return r
	}
	return v
}

func (c *CompositePattern) substitute(s *substituter) Pattern {
	if bound, ok := c.boundVariable(s.binders); ok {
		return c.substituteBinder(bound, s)
	}
	args, changed := substitutePatterns(c.arguments, s)
	if !changed {
		return c
	}
	return &CompositePattern{constructor: c.constructor, arguments: args, frozen: true}
}

// boundVariable returns the variable bound by c, if c is a binder.
func (c *CompositePattern) boundVariable(binders BinderFunc) (*VariablePattern, bool) {
	if binders == nil || len(c.arguments) == 0 || !binders(c.constructor) {
		return nil, false
	}
	v, ok := c.arguments[0].(*VariablePattern)
	return v, ok
}

func (c *CompositePattern) substituteBinder(bound *VariablePattern, s *substituter) Pattern {
	body := c.arguments[1:]

	bodyFree := newVarSet()
	for _, arg := range body {
		arg.collectFree(map[string]int{}, s.binders, bodyFree)
	}

	inner := make(Substitution, len(s.m))
	for name, r := range s.m {
		if name != bound.name && bodyFree.has(name) {
			inner[name] = r
		}
	}
	if len(inner) == 0 {
		return c
	}

	replacementFree := newVarSet()
	for _, r := range inner {
		r.collectFree(map[string]int{}, s.binders, replacementFree)
	}

	newBound := bound
	if replacementFree.has(bound.name) {
		fresh := freshName(bound.name, func(name string) bool {
			_, inSubst := inner[name]
			return bodyFree.has(name) || replacementFree.has(name) || inSubst
		})
		newBound = NewVariablePattern(fresh, bound.sort)
		inner[bound.name] = newBound
	}

	innerSubst := &substituter{m: inner, binders: s.binders}
	args := make([]Pattern, 0, len(c.arguments))
	args = append(args, newBound)
	for _, arg := range body {
		args = append(args, arg.substitute(innerSubst))
	}
	return &CompositePattern{constructor: c.constructor, arguments: args, frozen: true}
}

func substitutePatterns(patterns []Pattern, s *substituter) ([]Pattern, bool) {
	out := make([]Pattern, len(patterns))
	changed := false
	for i, p := range patterns {
		out[i] = p.substitute(s)
		if out[i] != p {
			changed = true
		}
	}
	return out, changed
}

// freshName returns base followed by the smallest numeric suffix that taken
// rejects.
func freshName(base string, taken func(string) bool) string {
	for i := 0; ; i++ {
		name := base + strconv.Itoa(i)
		if !taken(name) {
			return name
		}
	}
}

// ============================================================
// Free variables
// ============================================================

// varSet is an insertion-ordered set of variables keyed by name.
type varSet struct {
	seen map[string]bool
	vars []*VariablePattern
}

func newVarSet() *varSet {
	return &varSet{seen: make(map[string]bool)}
}

func (vs *varSet) add(v *VariablePattern) {
	if vs.seen[v.name] {
		return
	}
	vs.seen[v.name] = true
	vs.vars = append(vs.vars, v)
}

func (vs *varSet) has(name string) bool { return vs.seen[name] }

// FreeVariables returns the free variables of p in order of first
// occurrence. A nil binders uses DefaultBinders.
func FreeVariables(p Pattern, binders BinderFunc) []*VariablePattern {
	if binders == nil {
		binders = DefaultBinders
	}
	vs := newVarSet()
	p.collectFree(map[string]int{}, binders, vs)
	return vs.vars
}

func (v *VariablePattern) collectFree(bound map[string]int, _ BinderFunc, out *varSet) {
	if bound[v.name] == 0 {
		out.add(v)
	}
}

func (c *CompositePattern) collectFree(bound map[string]int, binders BinderFunc, out *varSet) {
	if v, ok := c.boundVariable(binders); ok {
		bound[v.name]++
		for _, arg := range c.arguments[1:] {
			arg.collectFree(bound, binders, out)
		}
		bound[v.name]--
		return
	}
	for _, arg := range c.arguments {
		arg.collectFree(bound, binders, out)
	}
}
