package machine

import "strconv"

// Int is the type of a small integer. Per spec.md §3.1 it carries a 32-bit
// signed payload; add/sub/mul wrap modulo 2^32, matching the reference
// implementation's MAKE_INTEGER/GET_INT pair, which simply masks the low 32
// bits of the encoded word and never widens.
type Int int32

var (
	_ Value   = Int(0)
	_ Ordered = Int(0)
)

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Type() string   { return "int" }

// Cmp implements signed comparison of two Int values (spec.md §3.1:
// "comparisons are signed").
func (i Int) Cmp(y Value) (int, error) {
	j, ok := y.(Int)
	if !ok {
		return 0, newTypeError("cannot compare %s to %s", i.Type(), y.Type())
	}
	switch {
	case i < j:
		return -1, nil
	case i > j:
		return +1, nil
	default:
		return 0, nil
	}
}

// addInt, subInt and mulInt perform modular 32-bit arithmetic, matching the
// C reference implementation's plain `int32_t` overflow behavior.
func addInt(a, b Int) Int { return Int(int32(a) + int32(b)) }
func subInt(a, b Int) Int { return Int(int32(a) - int32(b)) }
func mulInt(a, b Int) Int { return Int(int32(a) * int32(b)) }

// truthyInt reports whether v is considered true for And/Or/JumpElseRel-style
// opcodes, all of which require an Int operand per the opcode table (spec.md
// §4.3): zero is false, anything else is true.
func truthyInt(v Value) (bool, error) {
	i, ok := v.(Int)
	if !ok {
		return false, newTypeError("expected int, got %s", v.Type())
	}
	return i != 0, nil
}
