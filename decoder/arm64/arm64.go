// Package arm64 decodes AArch64 machine code with arm64asm.
package arm64

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"

	"github.com/Urethramancer/pprinter/decoder"
)

// Decoder decodes fixed-width A64 instructions.
type Decoder struct{}

// New returns an AArch64 decoder.
func New() *Decoder {
	return &Decoder{}
}

// Decode implements decoder.Decoder.
func (d *Decoder) Decode(code []byte, addr uint64, _ int) (decoder.Instruction, error) {
	inst, err := arm64asm.Decode(code)
	if err != nil {
		return decoder.Instruction{}, fmt.Errorf("%w at %#x: %v", decoder.ErrDecode, addr, err)
	}

	out := decoder.Instruction{
		Address:  addr,
		Size:     4,
		Mnemonic: strings.ToLower(inst.Op.String()),
		Raw:      inst,
	}
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		out.Operands = append(out.Operands, operand(a, addr))
	}
	return out, nil
}

func operand(a arm64asm.Arg, addr uint64) decoder.Operand {
	switch a := a.(type) {
	case arm64asm.Reg:
		return decoder.Operand{Kind: decoder.OperandRegister, Reg: strings.ToLower(a.String())}
	case arm64asm.RegSP:
		return decoder.Operand{Kind: decoder.OperandRegister, Reg: strings.ToLower(a.String())}
	case arm64asm.Imm:
		return decoder.Operand{Kind: decoder.OperandImmediate, Value: int64(a.Imm)}
	case arm64asm.Imm64:
		return decoder.Operand{Kind: decoder.OperandImmediate, Value: int64(a.Imm)}
	case arm64asm.PCRel:
		return decoder.Operand{Kind: decoder.OperandBranch, Value: int64(addr) + int64(a)}
	case arm64asm.MemImmediate:
		if a.Mode == arm64asm.AddrOffset {
			if m, ok := memOffset(a.String()); ok {
				return decoder.Operand{Kind: decoder.OperandMemory, Mem: m}
			}
		}
	}
	return decoder.Operand{Kind: decoder.OperandRaw, Text: strings.ToLower(a.String())}
}

// memOffset parses the "[base]" and "[base,#imm]" forms; the immediate of
// a MemImmediate is not exported.
func memOffset(text string) (decoder.Memory, bool) {
	inner, ok := strings.CutPrefix(text, "[")
	if !ok {
		return decoder.Memory{}, false
	}
	inner, ok = strings.CutSuffix(inner, "]")
	if !ok {
		return decoder.Memory{}, false
	}
	base, imm, found := strings.Cut(inner, ",")
	m := decoder.Memory{Base: strings.ToLower(base)}
	if !found {
		return m, true
	}
	disp, err := strconv.ParseInt(strings.TrimPrefix(imm, "#"), 0, 64)
	if err != nil {
		return decoder.Memory{}, false
	}
	m.Disp = disp
	return m, true
}

// GNUSyntax returns the GNU text of the instruction's native record.
func GNUSyntax(inst decoder.Instruction) (string, bool) {
	raw, ok := inst.Raw.(arm64asm.Inst)
	if !ok {
		return "", false
	}
	return arm64asm.GNUSyntax(raw), true
}
