package targets

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/decoder/arm64"
	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

// aarch64 is GNU as for AArch64.
type aarch64 struct {
	gnu
}

func newAArch64(m *ir.Module) printer.Profile {
	g := newGNU(m, printer.Syntax{
		Comment:      "//",
		PointerSize:  8,
		MaxAlignment: 16,
		CFI:          true,
	})
	g.typeChar = "%"
	g.prefixes = arm64Prefixes
	return aarch64{g}
}

var arm64Conditions = map[string]bool{
	"eq": true, "ne": true, "cs": true, "hs": true, "cc": true, "lo": true,
	"mi": true, "pl": true, "vs": true, "vc": true, "hi": true, "ls": true,
	"ge": true, "lt": true, "gt": true, "le": true, "al": true, "nv": true,
}

// Fixup folds the condition of b.cond into the mnemonic and drops the
// implicit x30 of ret.
func (p aarch64) Fixup(inst decoder.Instruction) decoder.Instruction {
	out := inst.Clone()
	switch {
	case out.Mnemonic == "b" && len(out.Operands) > 1 &&
		out.Operands[0].Kind == decoder.OperandRaw && arm64Conditions[out.Operands[0].Text]:
		out.Mnemonic = "b." + out.Operands[0].Text
		out.Operands = out.Operands[1:]
	case out.Mnemonic == "ret" && len(out.Operands) == 1 && out.Operands[0].Reg == "x30":
		out.Operands = nil
	}
	return out
}

// FormatInstruction hands instructions without symbolizable operands to
// arm64asm's GNU printer.
func (p aarch64) FormatInstruction(inst decoder.Instruction, _ printer.SymbolLookup) (string, bool) {
	for _, op := range inst.Operands {
		switch op.Kind {
		case decoder.OperandImmediate, decoder.OperandBranch, decoder.OperandMemory:
			return "", false
		}
	}
	text, ok := arm64.GNUSyntax(inst)
	if !ok {
		return "", false
	}
	return "\t" + strings.TrimSpace(text), true
}

func (p aarch64) Register(_ decoder.Instruction, op decoder.Operand) string {
	return op.Reg
}

func (p aarch64) Immediate(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	switch {
	case op.Kind == decoder.OperandBranch && symbolic != "":
		return symbolic
	case op.Kind == decoder.OperandBranch:
		return fmt.Sprintf("%#x", uint64(op.Value))
	case symbolic != "":
		return "#" + symbolic
	}
	return "#" + signedHex(op.Value)
}

func (p aarch64) Indirect(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	switch {
	case symbolic != "":
		return fmt.Sprintf("[%s, %s]", op.Mem.Base, symbolic)
	case op.Mem.Disp != 0:
		return fmt.Sprintf("[%s, #%d]", op.Mem.Base, op.Mem.Disp)
	}
	return "[" + op.Mem.Base + "]"
}

func (p aarch64) Instruction(inst decoder.Instruction, operands []string) string {
	if len(operands) == 0 {
		return "\t" + inst.Mnemonic
	}
	return "\t" + inst.Mnemonic + " " + strings.Join(operands, ", ")
}
