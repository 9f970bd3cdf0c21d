package machine

import "github.com/dolthub/swiss"

// Module is the live VM context (spec.md §3.3): the operand stack, the call
// stack, the constants pool, the current base pointer, the per-library
// native function tables, the loaded library handles, and the program's
// arguments. Exactly one Module exists per running program; spec.md §5
// explicitly scopes concurrency to "one goroutine, one Module" and leaves
// multi-Module concurrency to the embedder.
type Module struct {
	stack *operandStack
	calls *callStack

	// pc is the current program counter. Instructions here are addressed by
	// index into code, not by raw word offset: spec.md §4.3 describes an
	// instruction as four 32-bit words and branch offsets "scaled by 4" over
	// that flat word array, but since code is represented as []Instruction
	// rather than a flat []uint32, one Instruction already is the unit of
	// address; a branch's off operand is consumed directly as an instruction
	// count, which is the word-scaled offset divided back out by the /4 the
	// struct layout performs implicitly.
	pc int32

	// bp is the active base pointer: the absolute operand-stack index the
	// current frame's locals are addressed relative to (spec.md §3.2: "local
	// index k addresses stack[LocalsBase+k]").
	bp int32

	code      []Instruction
	constants []Value

	natives       [][]Native
	handles       []Handle
	loader        Loader
	nativesByName *swiss.Map[string, Native]

	argv []Value

	halted   bool
	haltCode int32
}

// NewModule builds a Module ready to execute code, with the given constants
// pool, native-library manifest sizes (one entry per loaded library, giving
// the number of function slots to reserve) and program arguments.
func NewModule(code []Instruction, constants []Value, loader Loader, libFuncCounts []int, argv []Value) *Module {
	natives := make([][]Native, len(libFuncCounts))
	for i, n := range libFuncCounts {
		natives[i] = make([]Native, n)
	}
	return &Module{
		stack:     newOperandStack(),
		calls:     newCallStack(),
		code:      code,
		constants: constants,
		natives:   natives,
		handles:   make([]Handle, len(libFuncCounts)),
		loader:    loader,
		argv:      argv,
	}
}

// LoadLibrary records a loaded library's Handle at libIdx, so that
// subsequent native calls against that index can resolve symbols. It is the
// runtime counterpart of the LoadNative opcode's library marker (spec.md
// §4.3/§4.6).
func (m *Module) LoadLibrary(libIdx int32, h Handle) error {
	if libIdx < 0 || int(libIdx) >= len(m.handles) {
		return newFatalError(ErrLinker, "library index %d out of range", libIdx)
	}
	m.handles[libIdx] = h
	return nil
}

// Halted reports whether the interpreter loop has terminated (spec.md §9's
// module-local termination field, in place of a process-wide os.Exit from
// within the core).
func (m *Module) Halted() bool   { return m.halted }
func (m *Module) HaltCode() int32 { return m.haltCode }

// Argv returns the program's arguments as Values, for native functions,
// which receive the Module. No opcode reads them.
func (m *Module) Argv() []Value { return m.argv }

// TopOfStack returns the value currently on top of the operand stack,
// without popping it. It exists for diagnostics and tests; bytecode never
// calls it directly.
func TopOfStack(m *Module) (Value, error) { return m.stack.top() }

// localIndex resolves local slot k in the active frame to an absolute
// operand stack index (spec.md §3.2: stack[LocalsBase+k]).
func (m *Module) localIndex(k int32) int {
	return int(m.bp + k)
}
