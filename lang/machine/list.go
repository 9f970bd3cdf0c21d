package machine

import "fmt"

// List is a heap-allocated, fixed-length array of values (spec.md §3.1 heap
// box kind "list"). MakeList, Slice and the two index opcodes (ListGet,
// GetIndex) all operate on it.
type List struct {
	elems []Value
}

var _ Value = (*List)(nil)

// NewList takes ownership of elems; callers must not retain a reference to
// the backing array afterwards. The interpreter loop always copies operand
// stack slots into a freshly allocated array before calling this (spec.md
// §4.1: pop_n "returns a view into the stack interior, which the
// interpreter copies before reusing slots").
func NewList(elems []Value) *List {
	return &List{elems: elems}
}

func (l *List) String() string { return fmt.Sprintf("list(%d)", len(l.elems)) }
func (l *List) Type() string   { return "list" }

// Len returns the number of elements (the ListLength opcode's result).
func (l *List) Len() int { return len(l.elems) }

// Index returns the element at i, or an *FatalError (ErrIndex) if i is out
// of bounds. Negative indices are always out of bounds: the bytecode format
// encodes indices as a plain Int operand or constant with no wraparound
// convention.
func (l *List) Index(i int) (Value, error) {
	if i < 0 || i >= len(l.elems) {
		return nil, newIndexError("list index %d out of bounds (length %d)", i, len(l.elems))
	}
	return l.elems[i], nil
}

// Slice returns a new List holding l[start:], implementing the Slice law
// from spec.md §8: for 0 <= k <= len(L), Slice(k)(L) has length len(L)-k and
// elements L[k..].
func (l *List) Slice(start int) (*List, error) {
	if start < 0 || start > len(l.elems) {
		return nil, newIndexError("slice start %d out of bounds (length %d)", start, len(l.elems))
	}
	cp := make([]Value, len(l.elems)-start)
	copy(cp, l.elems[start:])
	return NewList(cp), nil
}
