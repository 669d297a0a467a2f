package kore

// Names of the associativity sugar connectives.
const (
	LeftAssoc  = `\left-assoc`
	RightAssoc = `\right-assoc`
)

// DesugarAssociative expands \left-assoc{}(f(a1, ..., an)) into
// f(f(a1, a2), ..., an) and \right-assoc{}(f(a1, ..., an)) into
// f(a1, f(a2, ..., an)) throughout the tree. The receiver is not modified.
func (c *CompositePattern) DesugarAssociative() Pattern {
	return DesugarAssociative(c)
}

// DesugarAssociative applies CompositePattern.DesugarAssociative to any
// pattern.
func DesugarAssociative(p Pattern) Pattern {
	out := desugar(p)
	if out != p {
		out.freeze()
	}
	return out
}

func desugar(p Pattern) Pattern {
	c, ok := p.(*CompositePattern)
	if !ok {
		return p
	}

	name := c.constructor.Name()
	if (name == LeftAssoc || name == RightAssoc) && len(c.arguments) == 1 {
		if inner, ok := c.arguments[0].(*CompositePattern); ok {
			args := make([]Pattern, len(inner.arguments))
			for i, arg := range inner.arguments {
				args[i] = desugar(arg)
			}
			return foldAssociative(inner.constructor, args, name == LeftAssoc)
		}
	}

	args := make([]Pattern, len(c.arguments))
	changed := false
	for i, arg := range c.arguments {
		args[i] = desugar(arg)
		if args[i] != arg {
			changed = true
		}
	}
	if !changed {
		return c
	}
	return &CompositePattern{constructor: c.constructor, arguments: args, frozen: true}
}

func foldAssociative(sym *Symbol, args []Pattern, left bool) Pattern {
	switch len(args) {
	case 0:
		return &CompositePattern{constructor: sym, frozen: true}
	case 1:
		return args[0]
	}

	apply := func(a, b Pattern) Pattern {
		return &CompositePattern{constructor: sym, arguments: []Pattern{a, b}, frozen: true}
	}

	if left {
		acc := args[0]
		for _, arg := range args[1:] {
			acc = apply(acc, arg)
		}
		return acc
	}
	acc := args[len(args)-1]
	for i := len(args) - 2; i >= 0; i-- {
		acc = apply(args[i], acc)
	}
	return acc
}
