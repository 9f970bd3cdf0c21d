package machine

import "fmt"

// Function is a short, un-closured callable: a bare code offset paired with
// the number of local slots its frame needs (spec.md §3.1 "short
// function"). It is produced by MakeLambda and MakeAndStoreLambda and
// consumed by Call, CallGlobal and CallLocal.
//
// The reference encoding packs both fields into one word (16 bits each);
// here they are plain int32s, since nothing needs them to share a machine
// word once Value is a Go interface.
type Function struct {
	CodeOffset int32
	LocalSpace int32
}

var (
	_ Value    = Function{}
	_ Callable = Function{}
)

func (f Function) String() string { return fmt.Sprintf("function(%d)", f.CodeOffset) }
func (f Function) Type() string   { return "function" }

func (f Function) entry() (codeOffset int32, localSpace int32, basePointer int) {
	return f.CodeOffset, f.LocalSpace, -1 // short functions carry no captured base pointer
}
