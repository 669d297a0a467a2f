package kore

import "fmt"

// SortCategory classifies the runtime representation of a sort.
type SortCategory uint8

const (
	CategoryUncomputed SortCategory = iota
	CategoryMap
	CategoryRangeMap
	CategoryList
	CategorySet
	CategoryInt
	CategoryFloat
	CategoryStringBuffer
	CategoryBool
	CategorySymbol
	CategoryVariable
	CategoryMInt
)

// String returns the category name.
func (c SortCategory) String() string {
	switch c {
	case CategoryUncomputed:
		return "Uncomputed"
	case CategoryMap:
		return "Map"
	case CategoryRangeMap:
		return "RangeMap"
	case CategoryList:
		return "List"
	case CategorySet:
		return "Set"
	case CategoryInt:
		return "Int"
	case CategoryFloat:
		return "Float"
	case CategoryStringBuffer:
		return "StringBuffer"
	case CategoryBool:
		return "Bool"
	case CategorySymbol:
		return "Symbol"
	case CategoryVariable:
		return "Variable"
	case CategoryMInt:
		return "MInt"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the defined categories.
func (c SortCategory) Valid() bool {
	return c <= CategoryMInt
}

// ValueType pairs a sort category with a bit width. Bits is only meaningful
// for CategoryMInt and is 0 otherwise.
type ValueType struct {
	Cat  SortCategory
	Bits uint64
}

// NewValueType returns a value type for a category without a width.
func NewValueType(cat SortCategory) ValueType {
	return ValueType{Cat: cat}
}

// MIntType returns the value type of a machine integer of the given width.
func MIntType(bits uint64) ValueType {
	return ValueType{Cat: CategoryMInt, Bits: bits}
}

// String returns e.g. "Int" or "MInt64".
func (v ValueType) String() string {
	if v.Cat == CategoryMInt {
		return fmt.Sprintf("MInt%d", v.Bits)
	}
	return v.Cat.String()
}
