package machine

import "testing"

// TestRunNativeCall exercises the native half of the call protocol
// end-to-end (spec.md §4.5): LoadNative pushes the [library_index,
// function_index, name] marker sequence, Call pops the name, resolves the
// native via the bridge, invokes it with the popped arguments, and pushes
// the result.
func TestRunNativeCall(t *testing.T) {
	loader := newMemLoader()
	loader.register("mathlib", "add", func(argc int32, m *Module, args []Value) Value {
		return addInt(args[0].(Int), args[1].(Int))
	})

	constants := []Value{NewStringFromString("add"), Int(19), Int(23)}
	code := []Instruction{
		{Op: LoadConstant, Imm1: 1}, // push 19
		{Op: LoadConstant, Imm1: 2}, // push 23
		{Op: LoadNative, Imm1: 0, Imm2: 0, Imm3: 0}, // n=0 ("add"), li=0, fi=0
		{Op: Call, Imm1: 2},                         // argc=2
		{Op: Halt},
	}

	m := NewModule(code, constants, loader, []int{1}, nil)
	h, err := loader.Load("mathlib")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.LoadLibrary(0, h); err != nil {
		t.Fatal(err)
	}

	if err := Run(m); err != nil {
		t.Fatal(err)
	}
	top, err := TopOfStack(m)
	if err != nil {
		t.Fatal(err)
	}
	if top != Int(42) {
		t.Errorf("top of stack = %v, want 42", top)
	}
}

func TestRunUnknownOpcodeIsFatal(t *testing.T) {
	code := []Instruction{{Op: Opcode(14)}}
	m := NewModule(code, nil, nil, nil, nil)
	err := Run(m)
	fe, ok := err.(*FatalError)
	if !ok || fe.Category != ErrUnknownOpcode {
		t.Fatalf("got %v, want an unknown-opcode FatalError", err)
	}
}

func TestSubOperandOrder(t *testing.T) {
	// spec.md §4.3: `a=pop; b=pop; push b-a` -- the value popped first is
	// the subtrahend, not the minuend.
	code := []Instruction{
		{Op: LoadConstant, Imm1: 0}, // push 10
		{Op: LoadConstant, Imm1: 1}, // push 3
		{Op: Sub},
		{Op: Halt},
	}
	m := NewModule(code, []Value{Int(10), Int(3)}, nil, nil, nil)
	if err := Run(m); err != nil {
		t.Fatal(err)
	}
	top, _ := TopOfStack(m)
	// a = pop() = 3 (last pushed), b = pop() = 10; result = b - a = 7.
	if top != Int(7) {
		t.Errorf("top of stack = %v, want 7", top)
	}
}
