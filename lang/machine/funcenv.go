package machine

import "fmt"

// FuncEnv is a snapshot triple — return PC, saved stack pointer, saved base
// pointer — used to suspend execution across calls (spec.md §3.1 "Function
// environment"). The interpreter's own Call/Return machinery keeps this
// state on the internal call stack (Frame, see frame.go) rather than as a
// Value on the operand stack; FuncEnv exists as a first-class value so that
// get_type is total over every documented constructor and so that a native
// function can capture and later restore one (e.g. to implement a
// continuation-like primitive), even though no opcode in §4.3 currently
// produces one.
type FuncEnv struct {
	ReturnPC          int32
	SavedStackPointer int32
	SavedBasePointer  int32
}

var _ Value = FuncEnv{}

// NewFuncEnv constructs a FuncEnv snapshot. Exposed for native libraries;
// unused by the documented opcode table.
func NewFuncEnv(returnPC, savedSP, savedBP int32) FuncEnv {
	return FuncEnv{ReturnPC: returnPC, SavedStackPointer: savedSP, SavedBasePointer: savedBP}
}

func (e FuncEnv) String() string {
	return fmt.Sprintf("funcenv(%d,%d,%d)", e.ReturnPC, e.SavedStackPointer, e.SavedBasePointer)
}
func (e FuncEnv) Type() string { return "funcenv" }
