package machine

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Opcode identifies one interpreter operation (spec.md §4.3). The numbering
// is normative: it matches the reference bytecode format word-for-word, so
// that an Instruction's Op field can be written directly into an image file
// without translation.
type Opcode uint8

// "a b Op c" stack pictures describe operand-stack state before/after,
// oldest-pushed first; imm names follow the opcode table in spec.md §4.3.
const (
	LoadLocal    Opcode = 0  //        - LoadLocal(k)    stack[locals_base+k]
	StoreLocal   Opcode = 1  //        v StoreLocal(k)   -
	LoadConstant Opcode = 2  //        - LoadConstant(c) constants[c]
	LoadGlobal   Opcode = 3  //        - LoadGlobal(g)   stack[g]
	StoreGlobal  Opcode = 4  //        v StoreGlobal(g)  -
	Return       Opcode = 5  //        v Return          - (pops frame, resumes caller)
	Compare      Opcode = 6  //      a b Compare(op)      int
	And          Opcode = 7  //      a b And              int
	Or           Opcode = 8  //      a b Or               int
	LoadNative   Opcode = 9  //        - LoadNative(n,li,fi) li fi name
	MakeList     Opcode = 10 // v1..vk MakeList(k)        list
	ListGet      Opcode = 11 //     lst ListGet(i)        lst[i]
	Call         Opcode = 12 //  callee Call(argc)        result
	JumpElseRel  Opcode = 13 //       v JumpElseRel(off)  -

	// 14-16 reserved.

	MakeLambda Opcode = 17 //        - MakeLambda(body_len,local_space) fn
	GetIndex   Opcode = 18 //   lst i GetIndex             lst[i]
	Special    Opcode = 19 //        - Special              nil
	JumpRel    Opcode = 20 //        - JumpRel(off)         -
	Slice      Opcode = 21 //     lst Slice(start)         lst[start:]
	ListLength Opcode = 22 //     lst ListLength           int
	Halt       Opcode = 23 //        - Halt                 - (stops interpretation)
	Update     Opcode = 24 //    v cell Update              -
	MakeMutable Opcode = 25 //       v MakeMutable          cell
	Unmut      Opcode = 26 //    cell Unmut                cell.v
	Add        Opcode = 27 //     a b Add                  a+b
	Sub        Opcode = 28 //     a b Sub                  b-a
	ReturnConst Opcode = 29 //      - ReturnConst(c)       - (pushes constants[c])
	AddConst   Opcode = 30 //       a AddConst(c)          a+constants[c]
	SubConst   Opcode = 31 //       a SubConst(c)          a-constants[c]
	JumpElseRelCmp Opcode = 32 //  a b JumpElseRelCmp(off,op) -

	// 33-34 reserved.

	IJumpElseRelCmpConst Opcode = 35 //   a IJumpElseRelCmpConst(off,op,c) -
	CallGlobal           Opcode = 36 //   - CallGlobal(g,argc)    result
	CallLocal            Opcode = 37 //   - CallLocal(k,argc)     result
	MakeAndStoreLambda   Opcode = 38 //   - MakeAndStoreLambda(g,body_len,local_space) -
	Mul                  Opcode = 39 // a b Mul                  a*b
	MulConst             Opcode = 40 //   a MulConst(c)           a*constants[c]
)

// opcodeNames gives each defined opcode a display name used by the
// disassembler and error messages; a reserved slot stays empty.
var opcodeNames = [...]string{
	LoadLocal: "load_local", StoreLocal: "store_local", LoadConstant: "load_constant",
	LoadGlobal: "load_global", StoreGlobal: "store_global", Return: "return",
	Compare: "compare", And: "and", Or: "or", LoadNative: "load_native",
	MakeList: "make_list", ListGet: "list_get", Call: "call", JumpElseRel: "jump_else_rel",
	MakeLambda: "make_lambda", GetIndex: "get_index", Special: "special", JumpRel: "jump_rel",
	Slice: "slice", ListLength: "list_length", Halt: "halt", Update: "update",
	MakeMutable: "make_mutable", Unmut: "unmut", Add: "add", Sub: "sub",
	ReturnConst: "return_const", AddConst: "add_const", SubConst: "sub_const",
	JumpElseRelCmp: "jump_else_rel_cmp", IJumpElseRelCmpConst: "ijump_else_rel_cmp_const",
	CallGlobal: "call_global", CallLocal: "call_local",
	MakeAndStoreLambda: "make_and_store_lambda", Mul: "mul", MulConst: "mul_const",
}

// opcodeArity gives the number of leading Instruction immediates each
// opcode actually uses (spec.md §4.3's "Operands" column); the rest are
// always zero. The textual assembler/disassembler in lang/image uses this
// to know how many fields to read or print per instruction.
var opcodeArity = [...]int{
	LoadLocal: 1, StoreLocal: 1, LoadConstant: 1, LoadGlobal: 1, StoreGlobal: 1,
	Return: 0, Compare: 1, And: 0, Or: 0, LoadNative: 3, MakeList: 1, ListGet: 1,
	Call: 1, JumpElseRel: 1, MakeLambda: 2, GetIndex: 0, Special: 0, JumpRel: 1,
	Slice: 1, ListLength: 0, Halt: 0, Update: 0, MakeMutable: 0, Unmut: 0,
	Add: 0, Sub: 0, ReturnConst: 1, AddConst: 1, SubConst: 1, JumpElseRelCmp: 2,
	IJumpElseRelCmpConst: 3, CallGlobal: 2, CallLocal: 2, MakeAndStoreLambda: 3,
	Mul: 0, MulConst: 1,
}

// Arity reports how many immediate operands op actually reads.
func (op Opcode) Arity() int {
	if op.valid() {
		return opcodeArity[op]
	}
	return 0
}

// reservedOpcodes lists the opcode numbers spec.md §4.3 leaves undefined;
// executing one is always a fatal ErrUnknownOpcode.
var reservedOpcodes = []Opcode{14, 15, 16, 33, 34}

// maxOpcode is the highest opcode number in the table (spec.md §4.3: 0-40).
const maxOpcode = 40

func (op Opcode) valid() bool {
	return op <= maxOpcode && !slices.Contains(reservedOpcodes, op)
}

// OpcodeByName resolves a disassembler mnemonic back to its Opcode, for the
// textual assembler in lang/image. Reserved opcode numbers have no name and
// are never returned.
func OpcodeByName(name string) (Opcode, bool) {
	for i, n := range opcodeNames {
		if n == name {
			return Opcode(i), true
		}
	}
	return 0, false
}

func (op Opcode) String() string {
	if op.valid() {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("opcode(%d)", op)
}

// Instruction is the fixed four-word bytecode unit (spec.md §4.3): an
// opcode plus up to three immediate operands. Unused operand slots are
// simply ignored by that opcode's handler.
type Instruction struct {
	Op   Opcode
	Imm1 int32
	Imm2 int32
	Imm3 int32
}
