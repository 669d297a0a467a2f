// Package kore implements the in-memory model of KORE, the term language used
// between a rewrite-engine front end and its backend.
//
// # Data Model
//
// Sorts:        SortVariable (S), CompositeSort (SortList{SortInt{}})
// Symbols:      name, sort parameters, declared argument sorts, return sort
// Patterns:     CompositePattern, VariablePattern, StringPattern
// Declarations: sort, symbol, alias, axiom/claim, import
// Containers:   Module, Definition
//
// Sorts, symbols and patterns are immutable once published. The Add* methods
// are construction-time builders; an object is frozen as soon as it is handed
// to a container and further Add* calls panic.
//
// # Text Form
//
// Every node prints itself as KORE text through String, for example:
//
//	Lbl'Plus'Int{}(X:SortInt{}, \dv{SortInt{}}("1"))
//
// The parser package reads the same syntax back.
package kore
