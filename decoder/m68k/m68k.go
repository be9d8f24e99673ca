// Package m68k decodes Motorola 68000 machine code into decoder records.
// Operands are listed source first, as Motorola assemblers expect.
package m68k

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Urethramancer/pprinter/decoder"
)

// Opcode words and masks for the fixed-encoding instructions.
const (
	opILLEGAL = 0x4AFC
	opRESET   = 0x4E70
	opNOP     = 0x4E71
	opSTOP    = 0x4E72
	opRTE     = 0x4E73
	opRTS     = 0x4E75
	opTRAPV   = 0x4E76
	opRTR     = 0x4E77
	opTRAP    = 0x4E40
	opLINK    = 0x4E50
	opUNLK    = 0x4E58
	opMOVEUSP = 0x4E60
	opJSR     = 0x4E80
	opJMP     = 0x4EC0
	opLEA     = 0x41C0
	opPEA     = 0x4840
	opSWAP    = 0x4840
	opEXTW    = 0x4880
	opEXTL    = 0x48C0
	opMOVEQ   = 0x7000
	opBcc     = 0x6000
	opDBcc    = 0x50C8
)

// Decoder decodes big-endian 68000 code.
type Decoder struct{}

// New returns an m68k decoder.
func New() *Decoder {
	return &Decoder{}
}

// Decode implements decoder.Decoder.
func (d *Decoder) Decode(code []byte, addr uint64, _ int) (decoder.Instruction, error) {
	if len(code) < 2 {
		return decoder.Instruction{}, fmt.Errorf("%w at %#x: truncated opcode", decoder.ErrDecode, addr)
	}
	op := binary.BigEndian.Uint16(code)
	r := &reader{code: code, pos: 2}

	mn, ops, err := decode(op, r, addr)
	if err == nil {
		err = r.err
	}
	if err != nil {
		return decoder.Instruction{}, fmt.Errorf("%w at %#x: opcode $%04x: %v", decoder.ErrDecode, addr, op, err)
	}
	return decoder.Instruction{
		Address:  addr,
		Size:     r.pos,
		Mnemonic: mn,
		Operands: ops,
		Raw:      op,
	}, nil
}

var errUnknown = errors.New("unknown opcode")

func decode(op uint16, r *reader, addr uint64) (string, []decoder.Operand, error) {
	switch op {
	case opNOP:
		return "nop", nil, nil
	case opRTS:
		return "rts", nil, nil
	case opRTR:
		return "rtr", nil, nil
	case opRTE:
		return "rte", nil, nil
	case opRESET:
		return "reset", nil, nil
	case opTRAPV:
		return "trapv", nil, nil
	case opILLEGAL:
		return "illegal", nil, nil
	case opSTOP:
		return "stop", []decoder.Operand{imm(int64(r.word()))}, nil
	}

	switch {
	case op&0xFFF8 == opLINK:
		disp := int16(r.word())
		return "link", []decoder.Operand{addrReg(op & 7), imm(int64(disp))}, nil
	case op&0xFFF8 == opUNLK:
		return "unlk", []decoder.Operand{addrReg(op & 7)}, nil
	case op&0xFFF0 == opTRAP:
		return "trap", []decoder.Operand{imm(int64(op & 0xF))}, nil
	case op&0xFFF0 == opMOVEUSP:
		usp := decoder.Operand{Kind: decoder.OperandRegister, Reg: "usp"}
		if op&0x0008 != 0 {
			return "move.l", []decoder.Operand{usp, addrReg(op & 7)}, nil
		}
		return "move.l", []decoder.Operand{addrReg(op & 7), usp}, nil
	case op&0xFFC0 == opJSR, op&0xFFC0 == opJMP:
		mn := "jsr"
		if op&0xFFC0 == opJMP {
			mn = "jmp"
		}
		ea, err := r.ea(op&0x3F, sizeLong)
		return mn, []decoder.Operand{ea}, err
	case op&0xFFF8 == opSWAP:
		return "swap", []decoder.Operand{dataReg(op & 7)}, nil
	case op&0xFFF8 == opEXTW:
		return "ext.w", []decoder.Operand{dataReg(op & 7)}, nil
	case op&0xFFF8 == opEXTL:
		return "ext.l", []decoder.Operand{dataReg(op & 7)}, nil
	case op&0xFFC0 == opPEA:
		ea, err := r.ea(op&0x3F, sizeLong)
		return "pea", []decoder.Operand{ea}, err
	case op&0xFB80 == 0x4880:
		return decodeMovem(op, r)
	case op&0xF1C0 == opLEA:
		ea, err := r.ea(op&0x3F, sizeLong)
		return "lea", []decoder.Operand{ea, addrReg((op >> 9) & 7)}, err
	case op&0xF900 == 0x4000 && (op>>6)&3 != 3:
		return decodeSingle(op, r)
	case op&0xFF00 == 0x4A00 && (op>>6)&3 != 3:
		return decodeSingle(op, r)
	}

	switch op & 0xF000 {
	case 0x0000:
		return decodeImmediateGroup(op, r)
	case 0x1000, 0x2000, 0x3000:
		return decodeMove(op, r)
	case 0x5000:
		return decodeQuick(op, r, addr)
	case opBcc:
		return decodeBranch(op, r, addr)
	case opMOVEQ:
		if op&0x0100 != 0 {
			break
		}
		return "moveq", []decoder.Operand{imm(int64(int8(op & 0xFF))), dataReg((op >> 9) & 7)}, nil
	case 0x8000:
		return decodeLogical(op, r, "or", "divu.w", "divs.w")
	case 0x9000:
		return decodeArith(op, r, "sub")
	case 0xB000:
		return decodeCompare(op, r)
	case 0xC000:
		return decodeLogical(op, r, "and", "mulu.w", "muls.w")
	case 0xD000:
		return decodeArith(op, r, "add")
	case 0xE000:
		return decodeShift(op, r)
	}
	return "", nil, errUnknown
}

func decodeMove(op uint16, r *reader) (string, []decoder.Operand, error) {
	var size uint16
	switch (op >> 12) & 3 {
	case 1:
		size = sizeByte
	case 3:
		size = sizeWord
	case 2:
		size = sizeLong
	}
	src, err := r.ea(op&0x3F, size)
	if err != nil {
		return "", nil, err
	}
	dstField := ((op>>6)&7)<<3 | (op>>9)&7
	dst, err := r.ea(dstField, size)
	if err != nil {
		return "", nil, err
	}
	mn := "move"
	if (op>>6)&7 == 1 {
		if size == sizeByte {
			return "", nil, errUnknown
		}
		mn = "movea"
	}
	return mn + sizeSuffix(size), []decoder.Operand{src, dst}, nil
}

func decodeMovem(op uint16, r *reader) (string, []decoder.Operand, error) {
	size := sizeWord
	if op&0x0040 != 0 {
		size = sizeLong
	}
	mask := r.word()
	predec := (op>>3)&7 == 4
	list := decoder.Operand{Kind: decoder.OperandRaw, Text: registerList(mask, predec)}
	ea, err := r.ea(op&0x3F, size)
	if err != nil {
		return "", nil, err
	}
	if op&0x0400 != 0 {
		return "movem" + sizeSuffix(size), []decoder.Operand{ea, list}, nil
	}
	return "movem" + sizeSuffix(size), []decoder.Operand{list, ea}, nil
}

func decodeSingle(op uint16, r *reader) (string, []decoder.Operand, error) {
	var mn string
	switch (op >> 8) & 0xF {
	case 0x0:
		mn = "negx"
	case 0x2:
		mn = "clr"
	case 0x4:
		mn = "neg"
	case 0x6:
		mn = "not"
	case 0xA:
		mn = "tst"
	default:
		return "", nil, errUnknown
	}
	size := (op >> 6) & 3
	ea, err := r.ea(op&0x3F, size)
	return mn + sizeSuffix(size), []decoder.Operand{ea}, err
}

func decodeImmediateGroup(op uint16, r *reader) (string, []decoder.Operand, error) {
	if op&0x0100 != 0 {
		return decodeBitDynamic(op, r)
	}
	if op&0xFF00 == 0x0800 {
		return decodeBitStatic(op, r)
	}

	var mn string
	switch op & 0x0E00 {
	case 0x0000:
		mn = "ori"
	case 0x0200:
		mn = "andi"
	case 0x0400:
		mn = "subi"
	case 0x0600:
		mn = "addi"
	case 0x0A00:
		mn = "eori"
	case 0x0C00:
		mn = "cmpi"
	default:
		return "", nil, errUnknown
	}
	size := (op >> 6) & 3
	if size == 3 {
		return "", nil, errUnknown
	}
	src := r.immediate(size)
	if op&0x3F == 0x3C {
		reg := "ccr"
		if size == sizeWord {
			reg = "sr"
		}
		return mn, []decoder.Operand{src, {Kind: decoder.OperandRegister, Reg: reg}}, nil
	}
	dst, err := r.ea(op&0x3F, size)
	return mn + sizeSuffix(size), []decoder.Operand{src, dst}, err
}

var bitOps = [4]string{"btst", "bchg", "bclr", "bset"}

func decodeBitStatic(op uint16, r *reader) (string, []decoder.Operand, error) {
	bit := imm(int64(r.word() & 0xFF))
	ea, err := r.ea(op&0x3F, sizeByte)
	return bitOps[(op>>6)&3], []decoder.Operand{bit, ea}, err
}

func decodeBitDynamic(op uint16, r *reader) (string, []decoder.Operand, error) {
	if (op>>3)&7 == 1 {
		return "", nil, errUnknown // movep
	}
	ea, err := r.ea(op&0x3F, sizeByte)
	return bitOps[(op>>6)&3], []decoder.Operand{dataReg((op >> 9) & 7), ea}, err
}

func decodeQuick(op uint16, r *reader, addr uint64) (string, []decoder.Operand, error) {
	size := (op >> 6) & 3
	if size != 3 {
		data := int64((op >> 9) & 7)
		if data == 0 {
			data = 8
		}
		mn := "addq"
		if op&0x0100 != 0 {
			mn = "subq"
		}
		ea, err := r.ea(op&0x3F, size)
		return mn + sizeSuffix(size), []decoder.Operand{imm(data), ea}, err
	}

	cond := condName((op >> 8) & 0xF)
	if op&0xF0F8 == opDBcc {
		disp := int16(r.word())
		target := int64(addr) + 2 + int64(disp)
		return "db" + cond, []decoder.Operand{dataReg(op & 7), {Kind: decoder.OperandBranch, Value: target}}, nil
	}
	ea, err := r.ea(op&0x3F, sizeByte)
	return "s" + cond, []decoder.Operand{ea}, err
}

func decodeBranch(op uint16, r *reader, addr uint64) (string, []decoder.Operand, error) {
	cond := (op >> 8) & 0xF
	var mn string
	switch cond {
	case 0x0:
		mn = "bra"
	case 0x1:
		mn = "bsr"
	default:
		mn = "b" + condName(cond)
	}

	var disp int64
	switch disp8 := op & 0xFF; disp8 {
	case 0x00:
		disp = int64(int16(r.word()))
	case 0xFF:
		disp = int64(int32(r.long()))
	default:
		disp = int64(int8(disp8))
		mn += ".s"
	}
	return mn, []decoder.Operand{{Kind: decoder.OperandBranch, Value: int64(addr) + 2 + disp}}, nil
}

func condName(cond uint16) string {
	names := [16]string{"t", "f", "hi", "ls", "cc", "cs", "ne", "eq",
		"vc", "vs", "pl", "mi", "ge", "lt", "gt", "le"}
	return names[cond&0xF]
}

func decodeArith(op uint16, r *reader, base string) (string, []decoder.Operand, error) {
	reg := (op >> 9) & 7
	opmode := (op >> 6) & 7
	switch opmode {
	case 3, 7:
		size := sizeWord
		if opmode == 7 {
			size = sizeLong
		}
		ea, err := r.ea(op&0x3F, size)
		return base + "a" + sizeSuffix(size), []decoder.Operand{ea, addrReg(reg)}, err
	}

	size := opmode & 3
	if opmode >= 4 && (op>>4)&3 == 0 {
		// addx/subx: Dy,Dx or -(Ay),-(Ax)
		if op&0x0008 == 0 {
			return base + "x" + sizeSuffix(size), []decoder.Operand{dataReg(op & 7), dataReg(reg)}, nil
		}
		src := mem(decoder.Memory{Base: fmt.Sprintf("a%d", op&7), Mode: decoder.MemPreDecrement}, size)
		dst := mem(decoder.Memory{Base: fmt.Sprintf("a%d", reg), Mode: decoder.MemPreDecrement}, size)
		return base + "x" + sizeSuffix(size), []decoder.Operand{src, dst}, nil
	}

	ea, err := r.ea(op&0x3F, size)
	if opmode >= 4 {
		return base + sizeSuffix(size), []decoder.Operand{dataReg(reg), ea}, err
	}
	return base + sizeSuffix(size), []decoder.Operand{ea, dataReg(reg)}, err
}

func decodeCompare(op uint16, r *reader) (string, []decoder.Operand, error) {
	reg := (op >> 9) & 7
	opmode := (op >> 6) & 7
	switch {
	case opmode == 3 || opmode == 7:
		size := sizeWord
		if opmode == 7 {
			size = sizeLong
		}
		ea, err := r.ea(op&0x3F, size)
		return "cmpa" + sizeSuffix(size), []decoder.Operand{ea, addrReg(reg)}, err
	case opmode < 3:
		ea, err := r.ea(op&0x3F, opmode)
		return "cmp" + sizeSuffix(opmode), []decoder.Operand{ea, dataReg(reg)}, err
	}

	size := opmode & 3
	if (op>>3)&7 == 1 {
		src := mem(decoder.Memory{Base: fmt.Sprintf("a%d", op&7), Mode: decoder.MemPostIncrement}, size)
		dst := mem(decoder.Memory{Base: fmt.Sprintf("a%d", reg), Mode: decoder.MemPostIncrement}, size)
		return "cmpm" + sizeSuffix(size), []decoder.Operand{src, dst}, nil
	}
	ea, err := r.ea(op&0x3F, size)
	return "eor" + sizeSuffix(size), []decoder.Operand{dataReg(reg), ea}, err
}

func decodeLogical(op uint16, r *reader, base, unsigned, signed string) (string, []decoder.Operand, error) {
	reg := (op >> 9) & 7
	opmode := (op >> 6) & 7
	switch opmode {
	case 3, 7:
		mn := unsigned
		if opmode == 7 {
			mn = signed
		}
		ea, err := r.ea(op&0x3F, sizeWord)
		return mn, []decoder.Operand{ea, dataReg(reg)}, err
	}
	if opmode >= 4 && (op>>4)&3 == 0 {
		return "", nil, errUnknown // abcd/sbcd/exg
	}

	size := opmode & 3
	ea, err := r.ea(op&0x3F, size)
	if opmode >= 4 {
		return base + sizeSuffix(size), []decoder.Operand{dataReg(reg), ea}, err
	}
	return base + sizeSuffix(size), []decoder.Operand{ea, dataReg(reg)}, err
}

var shiftNames = [4]string{"as", "ls", "rox", "ro"}

func decodeShift(op uint16, r *reader) (string, []decoder.Operand, error) {
	dir := "r"
	if op&0x0100 != 0 {
		dir = "l"
	}

	size := (op >> 6) & 3
	if size == 3 {
		// memory form shifts one bit of a word
		if op&0x0800 != 0 {
			return "", nil, errUnknown
		}
		ea, err := r.ea(op&0x3F, sizeWord)
		return shiftNames[(op>>9)&3] + dir + ".w", []decoder.Operand{ea}, err
	}

	mn := shiftNames[(op>>3)&3] + dir + sizeSuffix(size)
	count := (op >> 9) & 7
	var src decoder.Operand
	if op&0x0020 != 0 {
		src = dataReg(count)
	} else {
		if count == 0 {
			count = 8
		}
		src = imm(int64(count))
	}
	return mn, []decoder.Operand{src, dataReg(op & 7)}, nil
}
