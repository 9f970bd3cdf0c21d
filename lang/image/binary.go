package image

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/plume-lang/plume/lang/machine"
)

// This is the reference binary codec for the program image spec.md §6
// describes but explicitly does not define the layout of ("The core does
// not define the file layout; it assumes the deserializer produces these
// fields."). It is adapted from the teacher repo's own save/load format in
// lang/compiler (which serializes a comparable Funcode tree), simplified to
// Plume's flat instruction array.
//
// Layout (all integers little-endian):
//
//	magic      u32   = 0x504c4d31 ("PLM1")
//	numLibs    u32
//	  libs[i]: nameLen u32, name []byte, isStd u8, numFuncs u32
//	numConsts  u32
//	  consts[i]: tag u8 (0=int,1=float,2=string), payload
//	numInstrs  u32
//	  instrs[i]: opcode u8, imm1 i32, imm2 i32, imm3 i32

const magic = 0x504c4d31

const (
	tagInt = iota
	tagFloat
	tagString
)

// WriteImage serializes p to w in the reference binary format.
func WriteImage(w io.Writer, p *Program) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint32(magic)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(p.Libraries))); err != nil {
		return err
	}
	for _, lib := range p.Libraries {
		if err := writeString(bw, lib.Name); err != nil {
			return err
		}
		std := uint8(0)
		if lib.IsStandard {
			std = 1
		}
		if err := binary.Write(bw, binary.LittleEndian, std); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(lib.NumFunctions)); err != nil {
			return err
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, uint32(len(p.Constants))); err != nil {
		return err
	}
	for _, c := range p.Constants {
		if err := writeConstant(bw, c); err != nil {
			return err
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, uint32(len(p.Code))); err != nil {
		return err
	}
	for _, ins := range p.Code {
		if err := binary.Write(bw, binary.LittleEndian, uint8(ins.Op)); err != nil {
			return err
		}
		for _, imm := range [3]int32{ins.Imm1, ins.Imm2, ins.Imm3} {
			if err := binary.Write(bw, binary.LittleEndian, imm); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func writeConstant(w io.Writer, v machine.Value) error {
	switch c := v.(type) {
	case machine.Int:
		if err := binary.Write(w, binary.LittleEndian, uint8(tagInt)); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, int32(c))
	case machine.Float:
		if err := binary.Write(w, binary.LittleEndian, uint8(tagFloat)); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, float64(c))
	case *machine.String:
		if err := binary.Write(w, binary.LittleEndian, uint8(tagString)); err != nil {
			return err
		}
		return writeString(w, c.GoString())
	default:
		return fmt.Errorf("constant of type %s cannot be serialized", v.Type())
	}
}

// ReadImage deserializes a Program from r in the reference binary format.
func ReadImage(r io.Reader) (*Program, error) {
	br := bufio.NewReader(r)
	var got uint32
	if err := binary.Read(br, binary.LittleEndian, &got); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if got != magic {
		return nil, fmt.Errorf("bad image magic %#x", got)
	}

	var numLibs uint32
	if err := binary.Read(br, binary.LittleEndian, &numLibs); err != nil {
		return nil, err
	}
	p := &Program{Libraries: make([]Library, numLibs)}
	for i := range p.Libraries {
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		var std uint8
		if err := binary.Read(br, binary.LittleEndian, &std); err != nil {
			return nil, err
		}
		var numFuncs uint32
		if err := binary.Read(br, binary.LittleEndian, &numFuncs); err != nil {
			return nil, err
		}
		p.Libraries[i] = Library{Name: name, IsStandard: std != 0, NumFunctions: int(numFuncs)}
	}

	var numConsts uint32
	if err := binary.Read(br, binary.LittleEndian, &numConsts); err != nil {
		return nil, err
	}
	p.Constants = make([]machine.Value, numConsts)
	for i := range p.Constants {
		v, err := readConstant(br)
		if err != nil {
			return nil, err
		}
		p.Constants[i] = v
	}

	var numInstrs uint32
	if err := binary.Read(br, binary.LittleEndian, &numInstrs); err != nil {
		return nil, err
	}
	p.Code = make([]machine.Instruction, numInstrs)
	for i := range p.Code {
		var op uint8
		if err := binary.Read(br, binary.LittleEndian, &op); err != nil {
			return nil, err
		}
		ins := machine.Instruction{Op: machine.Opcode(op)}
		if err := binary.Read(br, binary.LittleEndian, &ins.Imm1); err != nil {
			return nil, err
		}
		if err := binary.Read(br, binary.LittleEndian, &ins.Imm2); err != nil {
			return nil, err
		}
		if err := binary.Read(br, binary.LittleEndian, &ins.Imm3); err != nil {
			return nil, err
		}
		p.Code[i] = ins
	}
	return p, nil
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readConstant(r io.Reader) (machine.Value, error) {
	var tag uint8
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return nil, err
	}
	switch tag {
	case tagInt:
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		return machine.Int(n), nil
	case tagFloat:
		var f float64
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return nil, err
		}
		return machine.Float(f), nil
	case tagString:
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		return machine.NewStringFromString(s), nil
	default:
		return nil, fmt.Errorf("unknown constant tag %d", tag)
	}
}
