package kore

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ArityError reports a composite pattern whose argument count differs from
// its constructor's declared arity.
type ArityError struct {
	Symbol string
	Want   int
	Got    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("kore: symbol %s expects %d arguments, got %d", e.Symbol, e.Want, e.Got)
}

func newArityError(sym *Symbol, got int) error {
	return errors.WithStack(&ArityError{Symbol: sym.Name(), Want: sym.Arity(), Got: got})
}

// IsArityError reports whether err is or wraps an *ArityError.
func IsArityError(err error) bool {
	var ae *ArityError
	return errors.As(err, &ae)
}

// AliasError reports an alias whose right-hand side has free variables that
// are not among the alias's bound variables.
type AliasError struct {
	Alias    string
	Variable string
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("kore: alias %s: variable %s is free in the aliased pattern but not bound", e.Alias, e.Variable)
}

// checkBuilder panics when a builder method is called on a published object.
func checkBuilder(frozen bool, op, name string) {
	if frozen {
		panic(fmt.Sprintf("kore: %s called on published object %q", op, name))
	}
}
