package targets

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

// masm is Microsoft's MASM, as ml and ml64 read it.
type masm struct {
	syntax printer.Syntax
	ia32   bool
}

func newMASM(m *ir.Module) printer.Profile {
	s := x86Syntax(m, ";")
	s.CFI = false
	return masm{syntax: s, ia32: printer.ModuleISA(m) == printer.ISAIA32}
}

func (p masm) Syntax() printer.Syntax {
	return p.syntax
}

func (p masm) Header(*ir.Module) string {
	if p.ia32 {
		return ".686p\n.XMM\n.MODEL FLAT\nASSUME FS:NOTHING\nOPTION DOTNAME\n"
	}
	return "OPTION DOTNAME\n"
}

func (p masm) Footer(*ir.Module) string {
	return "END\n"
}

func (p masm) SectionHeader(s *ir.Section) string {
	class := "'DATA'"
	if s.Flags.Has(ir.SectionExecutable) {
		class = "'CODE'"
	}
	return fmt.Sprintf("%s SEGMENT %s\n", p.EscapeName(s.Name), class)
}

func (p masm) SectionFooter(s *ir.Section) string {
	return p.EscapeName(s.Name) + " ENDS\n"
}

// Functions are plain labels; PROC would open a frame MASM manages itself.
func (p masm) FunctionHeader(string, *ir.Symbol) string { return "" }
func (p masm) FunctionFooter(string) string { return "" }

func (p masm) Align(n uint64) string {
	return fmt.Sprintf("ALIGN %d\n", n)
}

func (p masm) DefineSymbol(name string, sym *ir.Symbol) string {
	if sym != nil && sym.Global {
		return "PUBLIC " + name + "\n" + name + ":\n"
	}
	return name + ":\n"
}

func (p masm) DefineRelative(name string, delta uint64) string {
	return fmt.Sprintf("%s EQU $ + %d\n", name, delta)
}

func (p masm) IntegralSymbol(name string, value uint64) string {
	return fmt.Sprintf("%s EQU %s\n", name, masmHex(value))
}

func (p masm) UndefinedSymbol(name string) string {
	return "EXTERN " + name + ":PROC\n"
}

func (p masm) AddressLabel(a ir.Addr) string {
	return fmt.Sprintf("$L_%x", uint64(a))
}

// EscapeName replaces characters MASM identifiers cannot hold.
func (p masm) EscapeName(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9' && i > 0:
		case c == '_', c == '$', c == '@', c == '?', c == '.':
		default:
			b[i] = '_'
		}
	}
	return string(b)
}

func (p masm) Byte(b byte) string {
	return "BYTE " + masmHex(uint64(b))
}

func (p masm) Zero(n uint64) string {
	return fmt.Sprintf("BYTE %d DUP(0)", n)
}

func (p masm) Data(size int, expr string) (string, bool) {
	switch size {
	case 1:
		return "BYTE " + expr, true
	case 2:
		return "WORD " + expr, true
	case 4:
		return "DWORD " + expr, true
	case 8:
		return "QWORD " + expr, true
	}
	return "", false
}

// String handles printable text only; MASM has no escapes.
func (p masm) String(text []byte, terminated bool) (string, bool) {
	for _, c := range text {
		if c < 0x20 || c >= 0x7f {
			return "", false
		}
	}
	var parts []string
	if len(text) > 0 {
		parts = append(parts, `"`+strings.ReplaceAll(string(text), `"`, `""`)+`"`)
	}
	if terminated {
		parts = append(parts, "0")
	}
	if len(parts) == 0 {
		return "", false
	}
	return "BYTE " + strings.Join(parts, ","), true
}

func (p masm) CFI(ir.CFIDirective, string) string {
	return ""
}

func (p masm) SymExprPrefix(attrs ir.AttributeSet, isNotBranch bool) string {
	return masmPrefixes.lookup(attrs, isNotBranch)
}

func (p masm) SymExprSuffix(ir.AttributeSet, bool) string {
	return ""
}

func (p masm) Fixup(inst decoder.Instruction) decoder.Instruction {
	return x86Fixup(inst)
}

func (p masm) Register(_ decoder.Instruction, op decoder.Operand) string {
	return op.Reg
}

func (p masm) Immediate(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	switch {
	case op.Kind == decoder.OperandBranch && symbolic != "":
		return symbolic
	case op.Kind == decoder.OperandBranch:
		return masmHex(uint64(op.Value))
	case symbolic != "":
		return "OFFSET " + symbolic
	}
	if op.Value < 0 {
		return "-" + masmHex(uint64(-op.Value))
	}
	return masmHex(uint64(op.Value))
}

// Indirect prints RIP-relative operands without the register; ml64 makes
// every direct memory reference RIP-relative.
func (p masm) Indirect(inst decoder.Instruction, op decoder.Operand, symbolic string) string {
	var sb strings.Builder
	if size, ok := intelPointerSizes[op.Size]; ok {
		sb.WriteString(strings.ToUpper(size) + " PTR ")
	}
	if op.Mem.Segment != "" {
		sb.WriteString(op.Mem.Segment + ":")
	}

	if op.Mem.PCRelative {
		target := symbolic
		if target == "" {
			target = masmHex(inst.Address + uint64(inst.Size) + uint64(op.Mem.Disp))
		}
		sb.WriteString("[" + target + "]")
		return sb.String()
	}

	var terms []string
	if op.Mem.Base != "" {
		terms = append(terms, op.Mem.Base)
	}
	if op.Mem.Index != "" {
		terms = append(terms, fmt.Sprintf("%s*%d", op.Mem.Index, max(op.Mem.Scale, 1)))
	}
	switch {
	case symbolic != "":
		terms = append(terms, symbolic)
	case op.Mem.Disp < 0 && len(terms) > 0:
		sb.WriteString("[" + strings.Join(terms, "+") + "-" + masmHex(uint64(-op.Mem.Disp)) + "]")
		return sb.String()
	case op.Mem.Disp != 0 || len(terms) == 0:
		terms = append(terms, masmHex(uint64(op.Mem.Disp)))
	}
	sb.WriteString("[" + strings.Join(terms, "+") + "]")
	return sb.String()
}

func (p masm) Instruction(inst decoder.Instruction, operands []string) string {
	text := withPrefixes(inst, inst.Mnemonic)
	if len(operands) > 0 {
		text += " " + strings.Join(operands, ", ")
	}
	return text
}

// masmHex prints v as MASM hex: a leading digit and an H suffix.
func masmHex(v uint64) string {
	return fmt.Sprintf("0%XH", v)
}
