package machine

import "fmt"

// Closure is a heap-allocated, two-slot box pairing a code offset with a
// captured base pointer (spec.md §3.1: "A closure box holds exactly two
// values: { code-pc, base-pointer }", and the GLOSSARY entry for Closure).
//
// Open question (spec.md §9): the reference Call opcode tests
// `IS_CLO(callee) || IS_PTR(callee)`, but IS_CLO is never defined, and the
// bitwise dispatch that follows it only ever recognizes a short Function
// value, never a heap-pointer Closure — constructing one via
// MAKE_CLOSURE(pc, bp) and then invoking it through Call would decode
// garbage bits from the pointer instead of pc/bp. No opcode in the table in
// §4.3 actually constructs a Closure (only MakeLambda/MakeAndStoreLambda
// exist, and both produce a Function). We resolve this the way spec.md §9
// suggests — accept both Function and *Closure as valid callees — and give
// Closure a LocalSpace of 0 when invoked this way: a called closure reserves
// no extra local slots beyond its arguments. This keeps the two-value
// invariant (Closure never grows a third field) while making the type
// usable by native libraries that construct one directly instead of through
// bytecode, which is the only place NewClosure is reachable from today.
type Closure struct {
	CodeOffset  int32
	BasePointer int32
}

var (
	_ Value    = (*Closure)(nil)
	_ Callable = (*Closure)(nil)
)

// NewClosure allocates a closure box. No bytecode opcode currently produces
// one; it exists for type totality and for native libraries that need an
// opaque resumable callee.
func NewClosure(codeOffset, basePointer int32) *Closure {
	return &Closure{CodeOffset: codeOffset, BasePointer: basePointer}
}

func (c *Closure) String() string { return fmt.Sprintf("closure(%d,%d)", c.CodeOffset, c.BasePointer) }
func (c *Closure) Type() string   { return "closure" }

func (c *Closure) entry() (codeOffset int32, localSpace int32, basePointer int) {
	return c.CodeOffset, 0, int(c.BasePointer)
}
