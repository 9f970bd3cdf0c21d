package image

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/plume-lang/plume/lang/machine"
)

// This file implements a human-readable/writable form of a program image,
// adapted from the teacher repo's lang/compiler/asm.go. It exists so the
// machine package's tests can build bytecode by hand, without a real
// source-to-bytecode compiler (explicitly out of scope, spec.md §1
// Non-goals).
//
// The format looks like this (indentation is arbitrary, section order is
// not):
//
//	program:
//		loads:
//			mathlib std
//			extras
//		constants:
//			int    10
//			float  1.5
//			string "hello"
//	code:
//		L0:
//		load_constant 0
//		load_local    1
//		add
//		jump_else_rel @L1
//		jump_rel      @L0
//		L1:
//		return
//
// Jump targets may be written as a label reference (`@name`) in place of a
// raw relative offset; Asm resolves it to the instruction-scaled offset the
// opcode expects. A bare integer is used as-is.

// Asm parses a program image from its textual form.
func Asm(b []byte) (*Program, error) {
	a := &asmState{s: bufio.NewScanner(bytes.NewReader(b))}
	fields := a.next()
	fields = a.program(fields)
	fields = a.code(fields)
	if a.err == nil && len(fields) > 0 {
		a.err = fmt.Errorf("unexpected input: %s", strings.Join(fields, " "))
	}
	if a.err != nil {
		return nil, a.err
	}
	if err := a.resolveLabels(); err != nil {
		return nil, err
	}
	return &a.p, nil
}

type asmState struct {
	s   *bufio.Scanner
	p   Program
	err error

	// labels maps a label name to the instruction index it marks.
	labels map[string]int
	// pending records (instruction index, operand slot, label name) triples
	// for forward/backward label references that need resolving once every
	// label has been seen.
	pending []labelRef
}

type labelRef struct {
	instrIdx int
	slot     int // 0, 1 or 2 -> Imm1, Imm2, Imm3
	label    string
}

func (a *asmState) next() []string {
	for a.s.Scan() {
		line := a.s.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return fields
		}
	}
	return nil
}

func (a *asmState) fail(format string, args ...any) {
	if a.err == nil {
		a.err = fmt.Errorf(format, args...)
	}
}

func (a *asmState) program(fields []string) []string {
	if a.err != nil || len(fields) == 0 || fields[0] != "program:" {
		a.fail("expected 'program:' section")
		return fields
	}
	fields = a.next()
	fields = a.loads(fields)
	fields = a.constants(fields)
	return fields
}

func (a *asmState) loads(fields []string) []string {
	if len(fields) == 0 || fields[0] != "loads:" {
		return fields
	}
	fields = a.next()
	for a.err == nil && len(fields) > 0 && fields[0] != "constants:" && fields[0] != "code:" {
		lib := Library{Name: fields[0], IsStandard: len(fields) > 1 && fields[1] == "std"}
		a.p.Libraries = append(a.p.Libraries, lib)
		fields = a.next()
	}
	return fields
}

func (a *asmState) constants(fields []string) []string {
	if len(fields) == 0 || fields[0] != "constants:" {
		return fields
	}
	fields = a.next()
	for a.err == nil && len(fields) > 0 && fields[0] != "code:" {
		if len(fields) < 2 {
			a.fail("invalid constant line: %s", strings.Join(fields, " "))
			return fields
		}
		v, err := parseConstant(fields[0], strings.Join(fields[1:], " "))
		if err != nil {
			a.fail("%s", err)
			return fields
		}
		a.p.Constants = append(a.p.Constants, v)
		fields = a.next()
	}
	return fields
}

func parseConstant(kind, rest string) (machine.Value, error) {
	switch kind {
	case "int":
		n, err := strconv.ParseInt(rest, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid int constant %q: %w", rest, err)
		}
		return machine.Int(n), nil
	case "float":
		f, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float constant %q: %w", rest, err)
		}
		return machine.Float(f), nil
	case "string":
		s, err := strconv.Unquote(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid string constant %q: %w", rest, err)
		}
		return machine.NewStringFromString(s), nil
	default:
		return nil, fmt.Errorf("unknown constant kind %q", kind)
	}
}

func (a *asmState) code(fields []string) []string {
	if len(fields) == 0 || fields[0] != "code:" {
		a.fail("expected 'code:' section")
		return fields
	}
	fields = a.next()
	for a.err == nil && len(fields) > 0 {
		if strings.HasSuffix(fields[0], ":") {
			name := strings.TrimSuffix(fields[0], ":")
			if a.labels == nil {
				a.labels = map[string]int{}
			}
			a.labels[name] = len(a.p.Code)
			fields = fields[1:]
			if len(fields) == 0 {
				fields = a.next()
				continue
			}
		}
		fields = a.instruction(fields)
		if a.err != nil {
			return fields
		}
		fields = a.next()
	}
	return fields
}

func (a *asmState) instruction(fields []string) []string {
	op, ok := machine.OpcodeByName(fields[0])
	if !ok {
		a.fail("unknown opcode mnemonic %q", fields[0])
		return nil
	}
	arity := op.Arity()
	operands := fields[1:]
	if len(operands) < arity {
		a.fail("opcode %s wants %d operands, got %d", fields[0], arity, len(operands))
		return nil
	}
	ins := machine.Instruction{Op: op}
	imms := [3]*int32{&ins.Imm1, &ins.Imm2, &ins.Imm3}
	idx := len(a.p.Code)
	for i := 0; i < arity; i++ {
		tok := operands[i]
		if strings.HasPrefix(tok, "@") {
			a.pending = append(a.pending, labelRef{instrIdx: idx, slot: i, label: tok[1:]})
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			a.fail("invalid operand %q for %s: %s", tok, fields[0], err)
			return nil
		}
		*imms[i] = int32(n)
	}
	a.p.Code = append(a.p.Code, ins)
	return operands[arity:]
}

// resolveLabels turns every `@name` reference collected during code() into
// a relative, instruction-scaled offset from the jump instruction itself
// (matching what JumpRel/JumpElseRel/etc. add to pc).
func (a *asmState) resolveLabels() error {
	for _, ref := range a.pending {
		target, ok := a.labels[ref.label]
		if !ok {
			return fmt.Errorf("undefined label %q", ref.label)
		}
		rel := int32(target - ref.instrIdx)
		switch ref.slot {
		case 0:
			a.p.Code[ref.instrIdx].Imm1 = rel
		case 1:
			a.p.Code[ref.instrIdx].Imm2 = rel
		case 2:
			a.p.Code[ref.instrIdx].Imm3 = rel
		}
	}
	return nil
}

// Dasm renders a program image in a readable form close to Asm's input.
// Each instruction line starts with its index, so the output is not
// accepted by Asm as it stands. It does not attempt to recover the original
// labels; jump targets are printed as raw relative offsets.
func Dasm(p *Program) []byte {
	var buf bytes.Buffer
	buf.WriteString("program:\n")
	if len(p.Libraries) > 0 {
		buf.WriteString("\tloads:\n")
		for _, lib := range p.Libraries {
			if lib.IsStandard {
				fmt.Fprintf(&buf, "\t\t%s std\n", lib.Name)
			} else {
				fmt.Fprintf(&buf, "\t\t%s\n", lib.Name)
			}
		}
	}
	if len(p.Constants) > 0 {
		buf.WriteString("\tconstants:\n")
		for _, c := range p.Constants {
			fmt.Fprintf(&buf, "\t\t%s\n", dasmConstant(c))
		}
	}
	buf.WriteString("code:\n")
	for i, ins := range p.Code {
		fmt.Fprintf(&buf, "\t%04d %s", i, ins.Op)
		for j := 0; j < ins.Op.Arity(); j++ {
			fmt.Fprintf(&buf, " %d", []int32{ins.Imm1, ins.Imm2, ins.Imm3}[j])
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func dasmConstant(v machine.Value) string {
	switch c := v.(type) {
	case machine.Int:
		return fmt.Sprintf("int %s", c.String())
	case machine.Float:
		return fmt.Sprintf("float %s", c.String())
	case *machine.String:
		return fmt.Sprintf("string %s", c.String())
	default:
		return fmt.Sprintf("; unsupported constant kind %s", v.Type())
	}
}
