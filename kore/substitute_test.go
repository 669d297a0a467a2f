package kore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exists(bound *VariablePattern, body Pattern) *CompositePattern {
	return MustApply(NewSymbol(`\exists`, sortInt()), bound, body)
}

func TestSubstitute_ReplacesFreeVariables(t *testing.T) {
	p := MustApply(plusSymbol(), varX(), varY())
	before := p.String()

	lit := MustApply(NewSymbol(`\dv`, sortInt()), NewStringPattern("7"))
	got := p.Substitute(Substitution{"X": lit})

	assert.Equal(t, before, p.String())
	assert.Equal(t, `Lbl'Plus'Int{}(\dv{SortInt{}}("7"), Y:SortInt{})`, got.String())
}

func TestSubstitute_SharesUnchangedSubtrees(t *testing.T) {
	left := MustApply(plusSymbol(), varY(), varY())
	p := MustApply(plusSymbol(), left, varX())

	got, ok := p.Substitute(Substitution{"X": varY()}).(*CompositePattern)
	require.True(t, ok)
	assert.Same(t, left, got.Arguments()[0])

	assert.Same(t, p, p.Substitute(Substitution{"Z": varY()}))
}

func TestSubstitute_BoundVariableShadows(t *testing.T) {
	p := exists(varX(), MustApply(plusSymbol(), varX(), varY()))
	got := p.Substitute(Substitution{"X": NewStringPattern("s")})
	assert.Same(t, p, got)
}

func TestSubstitute_AvoidsCapture(t *testing.T) {
	p := exists(varY(), MustApply(plusSymbol(), varX(), varY()))
	before := p.String()

	got := p.Substitute(Substitution{"X": varY()})

	assert.Equal(t, before, p.String())
	assert.Equal(t,
		`\exists{SortInt{}}(Y0:SortInt{}, Lbl'Plus'Int{}(Y:SortInt{}, Y0:SortInt{}))`,
		got.String())
}

func TestSubstituteWith_CustomBinders(t *testing.T) {
	lambda := MustApply(NewSymbol("lambda"), varX(), varX())
	noBinders := func(*Symbol) bool { return false }
	lambdaOnly := func(s *Symbol) bool { return s.Name() == "lambda" }

	m := Substitution{"X": NewStringPattern("v")}
	assert.Equal(t, `lambda{}("v", "v")`, SubstituteWith(lambda, m, noBinders).String())
	assert.Same(t, lambda, SubstituteWith(lambda, m, lambdaOnly))
}

func TestSubstitute_ResultIsFrozen(t *testing.T) {
	p := NewCompositePatternFromName("f")
	require.NoError(t, p.AddArgument(varX()))
	got := p.Substitute(Substitution{"X": varY()}).(*CompositePattern)
	assert.Panics(t, func() { _ = got.AddArgument(varY()) })
}

func TestSubstitute_LeavesReceiverOpen(t *testing.T) {
	p := NewCompositePatternFromName("f")
	require.NoError(t, p.AddArgument(varX()))

	assert.Same(t, p, p.Substitute(nil))
	assert.Same(t, p, p.Substitute(Substitution{"Z": varY()}))
	assert.Same(t, p, DesugarAssociative(p))
	require.NoError(t, p.AddArgument(varY()))

	got := p.Substitute(Substitution{"X": varY()})
	assert.NotSame(t, p, got)
	require.NoError(t, p.AddArgument(varX()))
	assert.Equal(t, "f{}(Y:SortInt{}, Y:SortInt{})", got.String())
}

func TestFreeVariables(t *testing.T) {
	p := MustApply(NewSymbol("f"),
		varY(),
		exists(varX(), MustApply(plusSymbol(), varX(), NewVariablePattern("Z", sortInt()))),
		varY())

	var names []string
	for _, v := range FreeVariables(p, nil) {
		names = append(names, v.Name())
	}
	assert.Equal(t, []string{"Y", "Z"}, names)
}

// ============================================================
// Associativity desugaring
// ============================================================

func TestDesugarAssociative(t *testing.T) {
	a, b, c := NewStringPattern("a"), NewStringPattern("b"), NewStringPattern("c")
	list := MustApply(NewSymbol("_,_"), a, b, c)

	tests := []struct {
		name string
		in   Pattern
		want string
	}{
		{"left", MustApply(NewSymbol(LeftAssoc), list), `_,_{}(_,_{}("a", "b"), "c")`},
		{"right", MustApply(NewSymbol(RightAssoc), list), `_,_{}("a", _,_{}("b", "c"))`},
		{"single", MustApply(NewSymbol(LeftAssoc), MustApply(NewSymbol("_,_"), a)), `"a"`},
		{"empty", MustApply(NewSymbol(RightAssoc), MustApply(NewSymbol("_,_"))), `_,_{}()`},
		{"nested", MustApply(NewSymbol("g"), MustApply(NewSymbol(LeftAssoc), list)), `g{}(_,_{}(_,_{}("a", "b"), "c"))`},
		{"untouched", list, `_,_{}("a", "b", "c")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.in.String()
			assert.Equal(t, tt.want, DesugarAssociative(tt.in).String())
			assert.Equal(t, before, tt.in.String())
		})
	}
}
