package kore

import (
	"hash/fnv"
	"strings"
)

// Symbol is a named constructor. Arguments are the sort parameters written in
// braces at a use site; formal arguments and the return sort come from the
// symbol's declaration and are empty until the symbol is declared or
// resolved against a definition.
type Symbol struct {
	name            string
	arguments       []Sort
	formalArguments []Sort
	sort            Sort
	builtin         bool
	frozen          bool
}

// NewSymbol creates a symbol with the given sort parameters.
func NewSymbol(name string, args ...Sort) *Symbol {
	sym := &Symbol{
		name:    name,
		builtin: strings.HasPrefix(name, `\`),
	}
	for _, arg := range args {
		sym.AddArgument(arg)
	}
	return sym
}

// Name returns the symbol name.
func (s *Symbol) Name() string { return s.name }

// Arguments returns the sort parameters. The slice must not be modified.
func (s *Symbol) Arguments() []Sort { return s.arguments }

// FormalArguments returns the declared argument sorts.
func (s *Symbol) FormalArguments() []Sort { return s.formalArguments }

// Sort returns the return sort, or nil when the symbol has no signature.
func (s *Symbol) Sort() Sort { return s.sort }

// IsBuiltin reports whether the symbol is a matching-logic connective such as
// \and or \dv.
func (s *Symbol) IsBuiltin() bool { return s.builtin }

// HasSignature reports whether the return sort is known. Only then is the
// declared arity meaningful.
func (s *Symbol) HasSignature() bool { return s.sort != nil }

// Arity returns the declared number of arguments.
func (s *Symbol) Arity() int { return len(s.formalArguments) }

// AddArgument appends a sort parameter.
func (s *Symbol) AddArgument(arg Sort) {
	checkBuilder(s.frozen, "Symbol.AddArgument", s.name)
	arg.freeze()
	s.arguments = append(s.arguments, arg)
}

// AddFormalArgument appends a declared argument sort.
func (s *Symbol) AddFormalArgument(arg Sort) {
	checkBuilder(s.frozen, "Symbol.AddFormalArgument", s.name)
	arg.freeze()
	s.formalArguments = append(s.formalArguments, arg)
}

// AddSort sets the return sort.
func (s *Symbol) AddSort(sort Sort) {
	checkBuilder(s.frozen, "Symbol.AddSort", s.name)
	sort.freeze()
	s.sort = sort
}

// IsConcrete reports whether all sort parameters and the return sort are
// free of sort variables.
func (s *Symbol) IsConcrete() bool {
	for _, arg := range s.arguments {
		if !arg.IsConcrete() {
			return false
		}
	}
	return s.sort == nil || s.sort.IsConcrete()
}

// Equal compares name and sort parameters.
func (s *Symbol) Equal(other *Symbol) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return s.name == other.name && SortsEqual(s.arguments, other.arguments)
}

// Hash is consistent with Equal.
func (s *Symbol) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte{'Y'})
	writeHashString(h, s.name)
	writeHashLen(h, len(s.arguments))
	for _, arg := range s.arguments {
		arg.writeHash(h)
	}
	return h.Sum64()
}

// String returns the KORE text form, e.g. inj{SortInt{}, SortKItem{}}.
func (s *Symbol) String() string {
	p := newPrinter()
	p.printSymbol(s)
	return p.String()
}

// Instantiate returns a copy of s whose formal arguments and return sort are
// taken from the declared signature with the declaration's sort variables
// replaced by s's sort parameters.
func (s *Symbol) Instantiate(decl *Symbol, params []*SortVariable) *Symbol {
	m := make(SortSubstitution, len(params))
	for i, v := range params {
		if i < len(s.arguments) {
			m[v.Name()] = s.arguments[i]
		}
	}
	out := &Symbol{
		name:      s.name,
		arguments: s.arguments,
		builtin:   s.builtin,
	}
	for _, formal := range decl.formalArguments {
		out.formalArguments = append(out.formalArguments, formal.Substitute(m))
	}
	if decl.sort != nil {
		out.sort = decl.sort.Substitute(m)
	}
	out.frozen = true
	return out
}

func (s *Symbol) freeze() { s.frozen = true }
