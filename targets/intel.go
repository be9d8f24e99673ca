package targets

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

// intel is GNU as in .intel_syntax noprefix mode.
type intel struct {
	gnu
}

func newIntel(m *ir.Module) printer.Profile {
	g := newGNU(m, x86Syntax(m, "#"))
	g.suffixes = elfX86Suffixes
	if g.macho {
		g.suffixes = machoX86Suffixes
	}
	return intel{g}
}

func (p intel) Header(m *ir.Module) string {
	return p.gnu.Header(m) + "\t.intel_syntax noprefix\n"
}

// EscapeName renames symbols that collide with registers or operators.
func (p intel) EscapeName(name string) string {
	if intelReserved[strings.ToLower(name)] {
		name += "_renamed"
	}
	return p.gnu.EscapeName(name)
}

func (p intel) Fixup(inst decoder.Instruction) decoder.Instruction {
	return x86Fixup(inst)
}

func (p intel) Register(_ decoder.Instruction, op decoder.Operand) string {
	return op.Reg
}

func (p intel) Immediate(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	switch {
	case op.Kind == decoder.OperandBranch && symbolic != "":
		return symbolic
	case op.Kind == decoder.OperandBranch:
		return fmt.Sprintf("%#x", uint64(op.Value))
	case symbolic != "":
		return "OFFSET " + symbolic
	}
	return signedHex(op.Value)
}

func (p intel) Indirect(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	var sb strings.Builder
	if size, ok := intelPointerSizes[op.Size]; ok {
		sb.WriteString(size + " ptr ")
	}
	if op.Mem.Segment != "" {
		sb.WriteString(op.Mem.Segment + ":")
	}

	var terms []string
	if op.Mem.Base != "" {
		terms = append(terms, op.Mem.Base)
	}
	if op.Mem.Index != "" {
		terms = append(terms, fmt.Sprintf("%s*%d", op.Mem.Index, max(op.Mem.Scale, 1)))
	}
	disp := symbolic
	if disp == "" && (op.Mem.Disp != 0 || len(terms) == 0) {
		disp = signedHex(op.Mem.Disp)
	}
	inner := strings.Join(terms, "+")
	switch {
	case disp == "":
	case inner == "":
		inner = disp
	case strings.HasPrefix(disp, "-"):
		inner += disp
	default:
		inner += "+" + disp
	}
	sb.WriteString("[" + inner + "]")
	return sb.String()
}

func (p intel) Instruction(inst decoder.Instruction, operands []string) string {
	text := "\t" + withPrefixes(inst, inst.Mnemonic)
	if len(operands) > 0 {
		text += " " + strings.Join(operands, ", ")
	}
	return text
}
