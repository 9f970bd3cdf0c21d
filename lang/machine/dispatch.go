package machine

// opHandler executes one instruction's effect and returns the program
// counter to resume at. Handlers never mutate m.pc directly; Run commits
// the returned value, which keeps every handler a pure function of
// (Module, Instruction) and keeps the dispatch table itself dumb.
type opHandler func(m *Module, ins Instruction) (nextPC int32, err error)

// dispatchTable is the dense, opcode-indexed jump table spec.md §4.4
// requires ("resolved in O(1) via a direct jump table indexed by opcode
// number... must not go through a generic switch fallback on the hot
// path"). Reserved slots are left nil and caught by Run before indexing.
var dispatchTable = [maxOpcode + 1]opHandler{
	LoadLocal:            execLoadLocal,
	StoreLocal:           execStoreLocal,
	LoadConstant:         execLoadConstant,
	LoadGlobal:           execLoadGlobal,
	StoreGlobal:          execStoreGlobal,
	Return:               execReturn,
	Compare:               execCompare,
	And:                  execAnd,
	Or:                   execOr,
	LoadNative:           execLoadNative,
	MakeList:             execMakeList,
	ListGet:              execListGet,
	Call:                 execCall,
	JumpElseRel:          execJumpElseRel,
	MakeLambda:           execMakeLambda,
	GetIndex:             execGetIndex,
	Special:              execSpecial,
	JumpRel:              execJumpRel,
	Slice:                execSlice,
	ListLength:           execListLength,
	Halt:                 execHalt,
	Update:               execUpdate,
	MakeMutable:          execMakeMutable,
	Unmut:                execUnmut,
	Add:                  execAdd,
	Sub:                  execSub,
	ReturnConst:          execReturnConst,
	AddConst:             execAddConst,
	SubConst:             execSubConst,
	JumpElseRelCmp:       execJumpElseRelCmp,
	IJumpElseRelCmpConst: execIJumpElseRelCmpConst,
	CallGlobal:           execCallGlobal,
	CallLocal:            execCallLocal,
	MakeAndStoreLambda:   execMakeAndStoreLambda,
	Mul:                  execMul,
	MulConst:             execMulConst,
}

// Run executes m.code starting from m.pc until a Halt opcode, a Return with
// an empty call stack, or a fatal error (spec.md §4.4 "Entry" paragraph).
// Entry state (pc=0, bp=0, empty stacks) is the caller's responsibility to
// establish via NewModule; Run never resets it, so the same Module can be
// resumed (e.g. by a native callback) if ever needed.
func Run(m *Module) error {
	for !m.halted {
		if m.pc < 0 || int(m.pc) >= len(m.code) {
			return newFatalError(ErrUnknownOpcode, "program counter %d out of bounds (code length %d)", m.pc, len(m.code))
		}
		ins := m.code[m.pc]
		if !ins.Op.valid() {
			return withPC(newFatalError(ErrUnknownOpcode, "unknown opcode %d", ins.Op), m.pc)
		}
		handler := dispatchTable[ins.Op]
		if handler == nil {
			return withPC(newFatalError(ErrUnknownOpcode, "unimplemented opcode %s", ins.Op), m.pc)
		}
		next, err := handler(m, ins)
		if err != nil {
			return withPC(err, m.pc)
		}
		if m.halted {
			return nil
		}
		if next == returnToCaller {
			return nil
		}
		m.pc = next
	}
	return nil
}

// returnToCaller is the sentinel nextPC execReturn/execReturnConst produce
// when the popped frame has no caller (spec.md §4.4: "a Return whose frame
// has no caller" is treated as program end, same as Halt).
const returnToCaller int32 = -1

func execLoadLocal(m *Module, ins Instruction) (int32, error) {
	v, err := m.stack.at(m.localIndex(ins.Imm1))
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(v); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execStoreLocal(m *Module, ins Instruction) (int32, error) {
	v, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	if err := m.stack.set(m.localIndex(ins.Imm1), v); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execLoadConstant(m *Module, ins Instruction) (int32, error) {
	c := ins.Imm1
	if c < 0 || int(c) >= len(m.constants) {
		return 0, newIndexError("constant index %d out of bounds", c)
	}
	if err := m.stack.push(m.constants[c]); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execLoadGlobal(m *Module, ins Instruction) (int32, error) {
	v, err := m.stack.at(int(ins.Imm1))
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(v); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execStoreGlobal(m *Module, ins Instruction) (int32, error) {
	v, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	// A global slot at or above the stack pointer is kept live, so that later
	// pushes do not overwrite it.
	if g := int(ins.Imm1); g >= m.stack.sp {
		if err := m.stack.grow(int32(g - m.stack.sp + 1)); err != nil {
			return 0, err
		}
	}
	if err := m.stack.set(int(ins.Imm1), v); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

// execReturn implements `frame = pop_frame; ret = pop; sp/bp restore; push
// ret; pc = frame.ret_ip` (spec.md §4.3). An empty call stack means this
// Return belongs to the program's implicit entry frame: program end.
func execReturn(m *Module, _ Instruction) (int32, error) {
	ret, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	if m.calls.len() == 0 {
		return returnToCaller, nil
	}
	fr := m.calls.pop()
	if err := m.stack.truncate(fr.SavedSP); err != nil {
		return 0, err
	}
	m.bp = fr.SavedBP
	if err := m.stack.push(ret); err != nil {
		return 0, err
	}
	return fr.ReturnIP, nil
}

func execReturnConst(m *Module, ins Instruction) (int32, error) {
	c := ins.Imm1
	if c < 0 || int(c) >= len(m.constants) {
		return 0, newIndexError("constant index %d out of bounds", c)
	}
	if m.calls.len() == 0 {
		// No caller: behaves like Return with the constant as the value,
		// i.e. program end.
		return returnToCaller, nil
	}
	fr := m.calls.pop()
	if err := m.stack.truncate(fr.SavedSP); err != nil {
		return 0, err
	}
	m.bp = fr.SavedBP
	if err := m.stack.push(m.constants[c]); err != nil {
		return 0, err
	}
	return fr.ReturnIP, nil
}

func execCompare(m *Module, ins Instruction) (int32, error) {
	b, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	a, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	result, err := compare(Comparator(ins.Imm1), a, b)
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(result); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execAnd(m *Module, _ Instruction) (int32, error) {
	return execLogical(m, func(a, b bool) bool { return a && b })
}

func execOr(m *Module, _ Instruction) (int32, error) {
	return execLogical(m, func(a, b bool) bool { return a || b })
}

func execLogical(m *Module, op func(a, b bool) bool) (int32, error) {
	b, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	a, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	at, err := truthyInt(a)
	if err != nil {
		return 0, err
	}
	bt, err := truthyInt(b)
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(boolInt(op(at, bt))); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

// execLoadNative pushes the three-value marker sequence the call protocol
// expects ahead of a native callee (spec.md §4.3/§4.5): library index,
// function index, then the function's name constant on top.
func execLoadNative(m *Module, ins Instruction) (int32, error) {
	n, li, fi := ins.Imm1, ins.Imm2, ins.Imm3
	if n < 0 || int(n) >= len(m.constants) {
		return 0, newIndexError("constant index %d out of bounds", n)
	}
	name, ok := m.constants[n].(*String)
	if !ok {
		return 0, newTypeError("native function name constant must be a string, got %s", m.constants[n].Type())
	}
	if err := m.stack.push(Int(li)); err != nil {
		return 0, err
	}
	if err := m.stack.push(Int(fi)); err != nil {
		return 0, err
	}
	if err := m.stack.push(name); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execMakeList(m *Module, ins Instruction) (int32, error) {
	k := int(ins.Imm1)
	elems, err := m.stack.popN(k)
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(NewList(elems)); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execListGet(m *Module, ins Instruction) (int32, error) {
	v, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	lst, ok := v.(*List)
	if !ok {
		return 0, newTypeError("expected list, got %s", v.Type())
	}
	elem, err := lst.Index(int(ins.Imm1))
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(elem); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execGetIndex(m *Module, _ Instruction) (int32, error) {
	i, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	v, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	idx, ok := i.(Int)
	if !ok {
		return 0, newTypeError("expected int index, got %s", i.Type())
	}
	lst, ok := v.(*List)
	if !ok {
		return 0, newTypeError("expected list, got %s", v.Type())
	}
	elem, err := lst.Index(int(idx))
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(elem); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execJumpElseRel(m *Module, ins Instruction) (int32, error) {
	v, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	t, err := truthyInt(v)
	if err != nil {
		return 0, err
	}
	if !t {
		return m.pc + ins.Imm1, nil
	}
	return m.pc + 1, nil
}

func execMakeLambda(m *Module, ins Instruction) (int32, error) {
	bodyLen, localSpace := ins.Imm1, ins.Imm2
	fn := Function{CodeOffset: m.pc + 1, LocalSpace: localSpace}
	if err := m.stack.push(fn); err != nil {
		return 0, err
	}
	return m.pc + bodyLen + 1, nil
}

func execMakeAndStoreLambda(m *Module, ins Instruction) (int32, error) {
	g, bodyLen, localSpace := ins.Imm1, ins.Imm2, ins.Imm3
	fn := Function{CodeOffset: m.pc + 1, LocalSpace: localSpace}
	if err := m.stack.set(int(g), fn); err != nil {
		return 0, err
	}
	return m.pc + bodyLen + 1, nil
}

func execSpecial(m *Module, _ Instruction) (int32, error) {
	if err := m.stack.push(Nil); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execJumpRel(m *Module, ins Instruction) (int32, error) {
	return m.pc + ins.Imm1, nil
}

func execSlice(m *Module, ins Instruction) (int32, error) {
	v, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	lst, ok := v.(*List)
	if !ok {
		return 0, newTypeError("expected list, got %s", v.Type())
	}
	sliced, err := lst.Slice(int(ins.Imm1))
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(sliced); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execListLength(m *Module, _ Instruction) (int32, error) {
	v, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	lst, ok := v.(*List)
	if !ok {
		return 0, newTypeError("expected list, got %s", v.Type())
	}
	if err := m.stack.push(Int(lst.Len())); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execHalt(m *Module, _ Instruction) (int32, error) {
	m.halted = true
	return m.pc, nil
}

func execUpdate(m *Module, _ Instruction) (int32, error) {
	c, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	v, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	cell, ok := c.(*Mutable)
	if !ok {
		return 0, newTypeError("expected mutable cell, got %s", c.Type())
	}
	cell.Set(v)
	return m.pc + 1, nil
}

func execMakeMutable(m *Module, _ Instruction) (int32, error) {
	v, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(NewMutable(v)); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execUnmut(m *Module, _ Instruction) (int32, error) {
	c, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	cell, ok := c.(*Mutable)
	if !ok {
		return 0, newTypeError("expected mutable cell, got %s", c.Type())
	}
	if err := m.stack.push(cell.Get()); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

// execAdd implements `b=pop; a=pop; push a+b` (spec.md §4.3). Operand order
// doesn't matter for addition; the pop order (b first, then a) is the same
// as Compare's and the reverse of Sub's.
func execAdd(m *Module, _ Instruction) (int32, error) {
	return execBinaryIntOp(m, func(a, b Int) Int { return addInt(a, b) })
}

// execSub implements `a=pop; b=pop; push b-a` (spec.md §4.3) — note the pop
// order is reversed relative to Add/Compare: the first value popped plays
// the role of the subtrahend, not the minuend. This asymmetry is called out
// explicitly in spec.md §9 as intentional, matched here rather than
// "fixed".
func execSub(m *Module, _ Instruction) (int32, error) {
	a, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	b, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	ai, bi, err := bothInt(a, b)
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(subInt(bi, ai)); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execMul(m *Module, _ Instruction) (int32, error) {
	return execBinaryIntOp(m, func(a, b Int) Int { return mulInt(a, b) })
}

func execBinaryIntOp(m *Module, op func(a, b Int) Int) (int32, error) {
	b, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	a, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	ai, bi, err := bothInt(a, b)
	if err != nil {
		return 0, err
	}
	if err := m.stack.push(op(ai, bi)); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func bothInt(a, b Value) (Int, Int, error) {
	ai, ok := a.(Int)
	if !ok {
		return 0, 0, newTypeError("expected int, got %s", a.Type())
	}
	bi, ok := b.(Int)
	if !ok {
		return 0, 0, newTypeError("expected int, got %s", b.Type())
	}
	return ai, bi, nil
}

// execAddConst implements `a=pop; push a + constants[c]` (spec.md §4.3).
func execAddConst(m *Module, ins Instruction) (int32, error) {
	return execConstIntOp(m, ins, func(a, c Int) Int { return addInt(a, c) })
}

// execSubConst implements `a=pop; push a - constants[c]` — note this is the
// opposite operand order from plain Sub (a-c, not c-a), matching spec.md
// §4.3's table literally.
func execSubConst(m *Module, ins Instruction) (int32, error) {
	return execConstIntOp(m, ins, func(a, c Int) Int { return subInt(a, c) })
}

func execMulConst(m *Module, ins Instruction) (int32, error) {
	return execConstIntOp(m, ins, func(a, c Int) Int { return mulInt(a, c) })
}

func execConstIntOp(m *Module, ins Instruction, op func(a, c Int) Int) (int32, error) {
	idx := ins.Imm1
	if idx < 0 || int(idx) >= len(m.constants) {
		return 0, newIndexError("constant index %d out of bounds", idx)
	}
	c, ok := m.constants[idx].(Int)
	if !ok {
		return 0, newTypeError("expected int constant, got %s", m.constants[idx].Type())
	}
	a, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	ai, ok := a.(Int)
	if !ok {
		return 0, newTypeError("expected int, got %s", a.Type())
	}
	if err := m.stack.push(op(ai, c)); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}

func execJumpElseRelCmp(m *Module, ins Instruction) (int32, error) {
	off, op := ins.Imm1, ins.Imm2
	b, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	a, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	result, err := compare(Comparator(op), a, b)
	if err != nil {
		return 0, err
	}
	if result.(Int) == 0 {
		return m.pc + off, nil
	}
	return m.pc + 1, nil
}

// execIJumpElseRelCmpConst implements `a=pop; b=constants[c]; integer op;
// branch` (spec.md §4.3): the same comparator encoding as JumpElseRelCmp,
// but against an Int constant rather than a popped operand.
func execIJumpElseRelCmpConst(m *Module, ins Instruction) (int32, error) {
	off, op, c := ins.Imm1, ins.Imm2, ins.Imm3
	if c < 0 || int(c) >= len(m.constants) {
		return 0, newIndexError("constant index %d out of bounds", c)
	}
	b := m.constants[c]
	a, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	result, err := compare(Comparator(op), a, b)
	if err != nil {
		return 0, err
	}
	if result.(Int) == 0 {
		return m.pc + off, nil
	}
	return m.pc + 1, nil
}

func execCall(m *Module, ins Instruction) (int32, error) {
	callee, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	return dispatchCallee(m, callee, ins.Imm1)
}

func execCallGlobal(m *Module, ins Instruction) (int32, error) {
	g, argc := ins.Imm1, ins.Imm2
	callee, err := m.stack.at(int(g))
	if err != nil {
		return 0, err
	}
	return dispatchCallee(m, callee, argc)
}

// execCallLocal implements `k, argc` with argc carried in Imm2: the
// reference interpreter has a documented bug where the local index's own
// immediate slot (i1) is mistakenly reused as argc (spec.md §9); this
// implementation uses the correct, distinct operand instead of reproducing
// that defect.
func execCallLocal(m *Module, ins Instruction) (int32, error) {
	k, argc := ins.Imm1, ins.Imm2
	callee, err := m.stack.at(m.localIndex(k))
	if err != nil {
		return 0, err
	}
	return dispatchCallee(m, callee, argc)
}

// dispatchCallee implements spec.md §4.5's call protocol: a Callable
// (Function or *Closure) goes to the bytecode path; a *String goes to the
// native path, preceded on the stack by the [library_index, function_index]
// pair LoadNative pushed. Any other callee type is fatal.
func dispatchCallee(m *Module, callee Value, argc int32) (int32, error) {
	switch c := callee.(type) {
	case Callable:
		return callBytecode(m, c, argc)
	case *String:
		return callNative(m, c, argc)
	default:
		return 0, newTypeError("value of type %s is not callable", callee.Type())
	}
}

// callBytecode implements the bytecode half of spec.md §4.5's call
// protocol: `create_frame(pc+4, local_space, argc)` then jump to the
// callee's code offset. The argc arguments are already sitting on the
// operand stack directly below where the callee value was; that window
// becomes the new frame's locals base without being moved, and any
// additional declared local_space beyond argc is reserved as fresh Nil
// slots above it.
func callBytecode(m *Module, callee Callable, argc int32) (int32, error) {
	codeOffset, localSpace, _ := callee.entry() // closures carry their captured bp in the value itself, not the Frame
	if _, ok := callee.(*Closure); ok {
		// a closure's frame holds its arguments and nothing more
		localSpace = argc
	}
	if localSpace < argc {
		return 0, newFatalError(ErrType, "callee declares %d locals but received %d arguments", localSpace, argc)
	}

	localsBase := int32(m.stack.sp) - argc
	if localsBase < 0 {
		return 0, newFatalError(ErrStackOverflow, "call with argc=%d underflows the operand stack", argc)
	}

	fr := Frame{ReturnIP: m.pc + 1, SavedSP: localsBase, SavedBP: m.bp, LocalsSlotCount: localSpace}
	if err := m.calls.push(fr); err != nil {
		return 0, err
	}
	if err := m.stack.grow(localSpace - argc); err != nil {
		return 0, err
	}
	m.bp = localsBase
	return codeOffset, nil
}

func callNative(m *Module, name *String, argc int32) (int32, error) {
	fi, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	li, err := m.stack.pop()
	if err != nil {
		return 0, err
	}
	fiInt, ok := fi.(Int)
	if !ok {
		return 0, newTypeError("expected function index, got %s", fi.Type())
	}
	liInt, ok := li.(Int)
	if !ok {
		return 0, newTypeError("expected library index, got %s", li.Type())
	}
	fn, err := m.resolveNative(int32(liInt), int32(fiInt), name.GoString())
	if err != nil {
		return 0, err
	}
	args, err := m.stack.popN(int(argc))
	if err != nil {
		return 0, err
	}
	result := fn(argc, m, args)
	if result == nil {
		result = Nil
	}
	if err := m.stack.push(result); err != nil {
		return 0, err
	}
	return m.pc + 1, nil
}
