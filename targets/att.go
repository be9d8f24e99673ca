package targets

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/decoder/x86"
	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

// att is GNU as in its native AT&T syntax.
type att struct {
	gnu
}

func newATT(m *ir.Module) printer.Profile {
	g := newGNU(m, x86Syntax(m, "#"))
	g.suffixes = elfX86Suffixes
	if g.macho {
		g.suffixes = machoX86Suffixes
	}
	return att{g}
}

func (p att) Fixup(inst decoder.Instruction) decoder.Instruction {
	return x86Fixup(inst)
}

func (p att) Register(inst decoder.Instruction, op decoder.Operand) string {
	reg := "%" + op.Reg
	if isIndirectBranch(inst) {
		reg = "*" + reg
	}
	return reg
}

func (p att) Immediate(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	switch {
	case op.Kind == decoder.OperandBranch && symbolic != "":
		return symbolic
	case op.Kind == decoder.OperandBranch:
		return fmt.Sprintf("%#x", uint64(op.Value))
	case symbolic != "":
		return "$" + symbolic
	}
	return "$" + signedHex(op.Value)
}

func (p att) Indirect(inst decoder.Instruction, op decoder.Operand, symbolic string) string {
	var sb strings.Builder
	if isIndirectBranch(inst) {
		sb.WriteByte('*')
	}
	if op.Mem.Segment != "" {
		sb.WriteString("%" + op.Mem.Segment + ":")
	}

	switch {
	case symbolic != "":
		sb.WriteString(symbolic)
	case op.Mem.Disp != 0 || op.Mem.Base == "" && op.Mem.Index == "":
		sb.WriteString(signedHex(op.Mem.Disp))
	}
	if op.Mem.Base == "" && op.Mem.Index == "" {
		return sb.String()
	}
	sb.WriteByte('(')
	if op.Mem.Base != "" {
		sb.WriteString("%" + op.Mem.Base)
	}
	if op.Mem.Index != "" {
		fmt.Fprintf(&sb, ",%%%s,%d", op.Mem.Index, max(op.Mem.Scale, 1))
	}
	sb.WriteByte(')')
	return sb.String()
}

// Instruction takes the size-suffixed mnemonic from x86asm and reverses
// the operands into source, destination order.
func (p att) Instruction(inst decoder.Instruction, operands []string) string {
	mn := inst.Mnemonic
	if raw, ok := inst.Raw.(x86asm.Inst); ok && !stringOps[mn] {
		mn = x86.GNUMnemonic(raw)
	}
	ops := slices.Clone(operands)
	slices.Reverse(ops)

	text := "\t" + withPrefixes(inst, mn)
	if len(ops) > 0 {
		text += " " + strings.Join(ops, ",")
	}
	return text
}
