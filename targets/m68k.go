package targets

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

// motorola prints 68000 code in the devpac/vasm dialect: dc.b and ds.b
// data, xdef and xref linkage, and section or org placement.
type motorola struct {
	raw bool
}

func newMotorola(m *ir.Module) printer.Profile {
	return motorola{raw: printer.ModuleFormat(m) == printer.FormatRaw}
}

func (p motorola) Syntax() printer.Syntax {
	return printer.Syntax{Comment: ";", PointerSize: 4, MaxAlignment: 4}
}

func (p motorola) Header(*ir.Module) string { return "" }
func (p motorola) Footer(*ir.Module) string { return "\tend\n" }

// SectionHeader places raw images by address; relocatable objects get
// named sections.
func (p motorola) SectionHeader(s *ir.Section) string {
	if p.raw {
		return fmt.Sprintf("\torg\t$%X\n", uint64(s.Address))
	}
	kind := "data"
	switch {
	case s.Flags.Has(ir.SectionExecutable):
		kind = "code"
	case s.Contents == nil:
		kind = "bss"
	}
	return fmt.Sprintf("\tsection\t%s,%s\n", p.EscapeName(s.Name), kind)
}

func (p motorola) SectionFooter(*ir.Section) string { return "" }
func (p motorola) FunctionHeader(string, *ir.Symbol) string { return "" }
func (p motorola) FunctionFooter(string) string { return "" }

func (p motorola) Align(n uint64) string {
	if n == 2 {
		return "\teven\n"
	}
	return fmt.Sprintf("\tcnop\t0,%d\n", n)
}

func (p motorola) DefineSymbol(name string, sym *ir.Symbol) string {
	if sym != nil && sym.Global {
		return "\txdef\t" + name + "\n" + name + ":\n"
	}
	return name + ":\n"
}

func (p motorola) DefineRelative(name string, delta uint64) string {
	return fmt.Sprintf("%s\tequ\t*+%d\n", name, delta)
}

func (p motorola) IntegralSymbol(name string, value uint64) string {
	return fmt.Sprintf("%s\tequ\t$%X\n", name, value)
}

func (p motorola) UndefinedSymbol(name string) string {
	return "\txref\t" + name + "\n"
}

func (p motorola) AddressLabel(a ir.Addr) string {
	return fmt.Sprintf("loc_%04X", uint64(a))
}

func (p motorola) EscapeName(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case (c >= '0' && c <= '9' || c == '.') && i > 0:
		default:
			b[i] = '_'
		}
	}
	return string(b)
}

func (p motorola) Byte(b byte) string {
	return fmt.Sprintf("\tdc.b\t$%02X", b)
}

func (p motorola) Zero(n uint64) string {
	return fmt.Sprintf("\tds.b\t%d", n)
}

func (p motorola) Data(size int, expr string) (string, bool) {
	switch size {
	case 1:
		return "\tdc.b\t" + expr, true
	case 2:
		return "\tdc.w\t" + expr, true
	case 4:
		return "\tdc.l\t" + expr, true
	}
	return "", false
}

// String quotes printable text, doubling single quotes.
func (p motorola) String(text []byte, terminated bool) (string, bool) {
	for _, c := range text {
		if c < 0x20 || c > 0x7e {
			return "", false
		}
	}
	var parts []string
	if len(text) > 0 {
		parts = append(parts, "'"+strings.ReplaceAll(string(text), "'", "''")+"'")
	}
	if terminated {
		parts = append(parts, "0")
	}
	if len(parts) == 0 {
		return "", false
	}
	return "\tdc.b\t" + strings.Join(parts, ","), true
}

func (p motorola) CFI(ir.CFIDirective, string) string { return "" }
func (p motorola) SymExprPrefix(ir.AttributeSet, bool) string { return "" }
func (p motorola) SymExprSuffix(ir.AttributeSet, bool) string { return "" }

func (p motorola) Fixup(inst decoder.Instruction) decoder.Instruction {
	out := inst.Clone()
	if out.Mnemonic == "dbf" {
		out.Mnemonic = "dbra"
	}
	return out
}

func (p motorola) Register(_ decoder.Instruction, op decoder.Operand) string {
	return op.Reg
}

func (p motorola) Immediate(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	switch {
	case op.Kind == decoder.OperandBranch && symbolic != "":
		return symbolic
	case op.Kind == decoder.OperandBranch:
		return fmt.Sprintf("$%X", uint64(op.Value))
	case symbolic != "":
		return "#" + symbolic
	}
	return fmt.Sprintf("#%d", op.Value)
}

func (p motorola) Indirect(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	m := op.Mem
	switch m.Mode {
	case decoder.MemPostIncrement:
		return "(" + m.Base + ")+"
	case decoder.MemPreDecrement:
		return "-(" + m.Base + ")"
	case decoder.MemAbsolute:
		if symbolic != "" {
			return symbolic
		}
		if m.Scale == 2 {
			return fmt.Sprintf("$%X.w", uint16(m.Disp))
		}
		return fmt.Sprintf("$%X.l", uint32(m.Disp))
	}

	disp := symbolic
	if disp == "" && m.Disp != 0 {
		disp = motorolaDisp(m.Disp)
	}
	parts := make([]string, 0, 3)
	if disp != "" || m.Index != "" {
		parts = append(parts, disp)
	}
	parts = append(parts, m.Base)
	if m.Index != "" {
		size := "w"
		if m.Scale == 4 {
			size = "l"
		}
		parts = append(parts, m.Index+"."+size)
	}
	if parts[0] == "" {
		parts[0] = "0"
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// motorolaDisp prints small displacements in decimal and the rest in hex.
func motorolaDisp(v int64) string {
	switch {
	case v >= -9 && v <= 9:
		return fmt.Sprintf("%d", v)
	case v < 0:
		return fmt.Sprintf("-$%x", -v)
	}
	return fmt.Sprintf("$%x", v)
}

func (p motorola) Instruction(inst decoder.Instruction, operands []string) string {
	if len(operands) == 0 {
		return "\t" + inst.Mnemonic
	}
	return "\t" + inst.Mnemonic + "\t" + strings.Join(operands, ",")
}
