package machine

import (
	"strings"
	"testing"
)

func TestOpcodeString(t *testing.T) {
	for op := Opcode(0); op <= maxOpcode; op++ {
		if !op.valid() {
			continue
		}
		if opcodeNames[op] == "" {
			t.Errorf("missing string representation of opcode %d", op)
		}
		if s := op.String(); strings.Contains(s, "opcode(") {
			t.Errorf("invalid string representation of opcode %d: %s", op, s)
		}
	}
}

func TestOpcodeReservedIsInvalid(t *testing.T) {
	for _, op := range reservedOpcodes {
		if op.valid() {
			t.Errorf("opcode %d should be reserved", op)
		}
		if !strings.Contains(op.String(), "opcode(") {
			t.Errorf("reserved opcode %d should not have a name", op)
		}
	}
}

func TestOpcodeByNameRoundTrip(t *testing.T) {
	for op := Opcode(0); op <= maxOpcode; op++ {
		if !op.valid() {
			continue
		}
		got, ok := OpcodeByName(op.String())
		if !ok || got != op {
			t.Errorf("OpcodeByName(%q) = %d, %v; want %d, true", op.String(), got, ok, op)
		}
	}
}
