// Package decoder defines the instruction records the printer consumes and
// the interface through which raw machine bytes are decoded into them.
package decoder

import (
	"errors"
	"slices"
)

// ErrDecode is returned when bytes do not form a valid instruction.
var ErrDecode = errors.New("cannot decode instruction")

// OperandKind selects how an operand is printed.
type OperandKind int

const (
	// OperandRegister is a register used directly.
	OperandRegister OperandKind = iota
	// OperandImmediate is a constant value.
	OperandImmediate
	// OperandMemory is an indirect reference through Mem.
	OperandMemory
	// OperandBranch is a PC-relative target; Value holds the absolute address.
	OperandBranch
	// OperandRaw is preformatted by the decoder and printed as Text.
	OperandRaw
)

// MemoryMode covers addressing forms beyond base+index*scale+disp.
type MemoryMode int

const (
	// MemDefault is [segment:]disp(base, index, scale).
	MemDefault MemoryMode = iota
	// MemPostIncrement is m68k (An)+.
	MemPostIncrement
	// MemPreDecrement is m68k -(An).
	MemPreDecrement
	// MemAbsolute is an absolute address held in Disp.
	MemAbsolute
)

// Memory is the payload of an OperandMemory. Disp is the raw displacement,
// also for PC-relative forms. For MemAbsolute, Scale is the width of the
// encoded address in bytes.
type Memory struct {
	Segment    string
	Base       string
	Index      string
	Scale      int
	Disp       int64
	Mode       MemoryMode
	PCRelative bool
}

// Operand is one instruction operand.
type Operand struct {
	Kind  OperandKind
	Reg   string
	Value int64
	Mem   Memory
	// Size is the access width in bytes, 0 when unknown.
	Size int
	Text string
}

// Instruction is an immutable decoded instruction. Operands are listed in the
// ISA's canonical assembler order (destination first for x86 Intel and
// AArch64, source first for m68k).
type Instruction struct {
	Address  uint64
	Size     int
	Mnemonic string
	Prefixes []string
	Operands []Operand
	// Raw is the decoder's native record, for syntaxes that format from it.
	Raw any
}

// Clone returns a copy that shares nothing mutable with i.
func (i Instruction) Clone() Instruction {
	c := i
	c.Prefixes = slices.Clone(i.Prefixes)
	c.Operands = slices.Clone(i.Operands)
	return c
}

// HasMemoryOperand reports whether any operand is indirect.
func (i Instruction) HasMemoryOperand() bool {
	for _, op := range i.Operands {
		if op.Kind == OperandMemory {
			return true
		}
	}
	return false
}

// Decoder turns bytes at an address into an Instruction. Mode carries the
// block's decode mode (e.g. Thumb) and is ignored by ISAs with one mode.
type Decoder interface {
	Decode(code []byte, addr uint64, mode int) (Instruction, error)
}

// Func adapts a function to the Decoder interface.
type Func func(code []byte, addr uint64, mode int) (Instruction, error)

// Decode calls f.
func (f Func) Decode(code []byte, addr uint64, mode int) (Instruction, error) {
	return f(code, addr, mode)
}
