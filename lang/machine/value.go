// Package machine implements the virtual machine that executes the
// bytecode-compiled form of a Plume program: the operand stack, the call
// stack, the interpreter loop and its dispatch table, and the bridge to
// natively-loaded library functions. It also provides the runtime
// representation of every value variant the language defines.
package machine

// Value is the interface implemented by every value the machine can push on
// the operand stack, store in a local, or pass across the native-call
// bridge. A concrete Value type corresponds to exactly one of the nine
// variants a value can be: Integer, Float, Special, String, List, Closure,
// Function, FuncEnv or Mutable.
//
// Go has no union type, so the single-word NaN-boxed encoding described as a
// reference implementation is re-architected as a tagged sum: each variant
// is its own concrete type implementing Value, and Type decodes it. A type
// switch over Value gives the same O(1) type discrimination a tagged word
// would, without the unsafe pointer arithmetic the reference encoding needs.
type Value interface {
	// String returns a human-readable representation, used by diagnostics and
	// the disassembler.
	String() string

	// Type returns the variant name: "int", "float", "special", "string",
	// "list", "closure", "function", "funcenv" or "mutable".
	Type() string
}

// Callable is implemented by the two Value variants that Call, CallGlobal
// and CallLocal may dispatch to as bytecode functions: Function (an
// un-closured callable) and Closure (a closed-over one). A native callee is
// not Callable: it is recognized and invoked separately by the native-call
// bridge, since it is encoded as a string constant preceded by
// library/function index markers rather than a single self-describing
// Value.
type Callable interface {
	Value
	entry() (codeOffset int32, localSpace int32, basePointer int)
}
