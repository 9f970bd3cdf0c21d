package machine

import "strconv"

// Float is the type of a floating point number. Per spec.md §3.1 any
// non-NaN double is a Float; the reserved NaN payloads are how the other
// eight variants are told apart in the reference NaN-boxed encoding, a
// distinction that is moot here since each variant already has its own Go
// type.
type Float float64

var (
	_ Value   = Float(0)
	_ Ordered = Float(0)
)

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) Type() string   { return "float" }

// Cmp implements comparison of two Float values. NaN sorts greater than
// +Inf, the same total order the reference implementation's floatCmp
// documents.
func (f Float) Cmp(y Value) (int, error) {
	g, ok := y.(Float)
	if !ok {
		return 0, newTypeError("cannot compare %s to %s", f.Type(), y.Type())
	}
	return floatCmp(f, g), nil
}

func floatCmp(x, y Float) int {
	switch {
	case x > y:
		return +1
	case x < y:
		return -1
	case x == y:
		return 0
	}
	// at least one operand is NaN
	if x == x {
		return -1 // y is NaN
	} else if y == y {
		return +1 // x is NaN
	}
	return 0 // both NaN
}
