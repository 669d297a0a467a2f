package kore

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
)

// Sort is a KORE sort: either a *SortVariable or a *CompositeSort.
type Sort interface {
	// IsConcrete reports whether the sort contains no sort variables.
	IsConcrete() bool

	// Substitute replaces sort variables by name. The receiver is never
	// modified; it is returned unchanged when no variable is replaced.
	Substitute(m SortSubstitution) Sort

	// Equal compares sorts structurally.
	Equal(other Sort) bool

	// Hash is consistent with Equal.
	Hash() uint64

	// String returns the KORE text form.
	String() string

	writeHash(h hash.Hash64)
	print(p *printer)
	freeze()
}

// SortSubstitution maps sort variable names to sorts.
type SortSubstitution map[string]Sort

// ============================================================
// Sort variables
// ============================================================

// SortVariable is a sort parameter such as S or R.
type SortVariable struct {
	name string
}

// NewSortVariable creates a sort variable.
func NewSortVariable(name string) *SortVariable {
	return &SortVariable{name: name}
}

// Name returns the variable name.
func (v *SortVariable) Name() string { return v.name }

func (v *SortVariable) IsConcrete() bool { return false }

func (v *SortVariable) Substitute(m SortSubstitution) Sort {
	if r, ok := m[v.name]; ok && r != nil {
		r.freeze()
		return r
	}
	return v
}

func (v *SortVariable) Equal(other Sort) bool {
	o, ok := other.(*SortVariable)
	return ok && o != nil && o.name == v.name
}

func (v *SortVariable) Hash() uint64 { return hashSort(v) }

func (v *SortVariable) String() string {
	p := newPrinter()
	v.print(p)
	return p.String()
}

func (v *SortVariable) writeHash(h hash.Hash64) {
	h.Write([]byte{'V'})
	writeHashString(h, v.name)
}

func (v *SortVariable) freeze() {}

// ============================================================
// Composite sorts
// ============================================================

// CompositeSort is a sort constructor applied to sort arguments, e.g.
// SortMap{} or SortList{S}. The value type is derived data describing the
// runtime representation; it is carried along but not part of equality.
type CompositeSort struct {
	name      string
	category  ValueType
	arguments []Sort
	frozen    bool
}

// NewCompositeSort creates a composite sort with the given arguments.
func NewCompositeSort(name string, category ValueType, args ...Sort) *CompositeSort {
	s := &CompositeSort{name: name, category: category}
	for _, arg := range args {
		s.AddArgument(arg)
	}
	return s
}

// Name returns the sort constructor name.
func (s *CompositeSort) Name() string { return s.name }

// Category returns the value type of the sort.
func (s *CompositeSort) Category() ValueType { return s.category }

// Arguments returns the sort arguments. The slice must not be modified.
func (s *CompositeSort) Arguments() []Sort { return s.arguments }

// AddArgument appends a sort argument. Only valid before the sort is
// published.
func (s *CompositeSort) AddArgument(arg Sort) {
	checkBuilder(s.frozen, "CompositeSort.AddArgument", s.name)
	arg.freeze()
	s.arguments = append(s.arguments, arg)
}

func (s *CompositeSort) IsConcrete() bool {
	for _, arg := range s.arguments {
		if !arg.IsConcrete() {
			return false
		}
	}
	return true
}

func (s *CompositeSort) Substitute(m SortSubstitution) Sort {
	if len(m) == 0 || s.IsConcrete() {
		return s
	}
	args, changed := substituteSorts(s.arguments, m)
	if !changed {
		return s
	}
	return &CompositeSort{name: s.name, category: s.category, arguments: args, frozen: true}
}

func (s *CompositeSort) Equal(other Sort) bool {
	o, ok := other.(*CompositeSort)
	if !ok || o == nil {
		return false
	}
	if s == o {
		return true
	}
	return s.name == o.name && SortsEqual(s.arguments, o.arguments)
}

func (s *CompositeSort) Hash() uint64 { return hashSort(s) }

func (s *CompositeSort) String() string {
	p := newPrinter()
	s.print(p)
	return p.String()
}

func (s *CompositeSort) writeHash(h hash.Hash64) {
	h.Write([]byte{'C'})
	writeHashString(h, s.name)
	writeHashLen(h, len(s.arguments))
	for _, arg := range s.arguments {
		arg.writeHash(h)
	}
}

func (s *CompositeSort) freeze() { s.frozen = true }

// ============================================================
// Helpers
// ============================================================

// SortsEqual compares two sort sequences element-wise.
func SortsEqual(a, b []Sort) bool {
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

// substituteSorts applies m to every sort and reports whether any changed.
func substituteSorts(sorts []Sort, m SortSubstitution) ([]Sort, bool) {
	out := make([]Sort, len(sorts))
	changed := false
	for i, s := range sorts {
		out[i] = s.Substitute(m)
		if out[i] != s {
			changed = true
		}
	}
	return out, changed
}

func hashSort(s Sort) uint64 {
	h := fnv.New64a()
	s.writeHash(h)
	return h.Sum64()
}

func writeHashString(h hash.Hash64, s string) {
	writeHashLen(h, len(s))
	h.Write([]byte(s))
}

func writeHashLen(h hash.Hash64, n int) {
	var buf [binary.MaxVarintLen64]byte
	h.Write(buf[:binary.PutUvarint(buf[:], uint64(n))])
}
