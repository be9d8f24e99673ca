package targets

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/asmfmt"
	"golang.org/x/arch/x86/x86asm"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/decoder/x86"
	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

// plan9 prints Go assembler source. Each section becomes one TEXT symbol
// holding its code and its data as BYTE runs, since Go assembly has no
// free-standing data directives for symbolic values. Labels are local to
// their TEXT symbol.
type plan9 struct{}

func newPlan9(*ir.Module) printer.Profile {
	return plan9{}
}

func (p plan9) Syntax() printer.Syntax {
	return printer.Syntax{Comment: "//", PointerSize: 8, MaxAlignment: 64, DisplacementFirst: true}
}

func (p plan9) Header(m *ir.Module) string {
	return "// Code generated by pprint from " + m.Name + ". DO NOT EDIT.\n\n#include \"textflag.h\"\n"
}

func (p plan9) Footer(*ir.Module) string {
	return ""
}

func (p plan9) SectionHeader(s *ir.Section) string {
	return fmt.Sprintf("\nTEXT ·%s(SB), NOSPLIT|NOFRAME, $0-0\n", p.EscapeName(s.Name))
}

func (p plan9) SectionFooter(*ir.Section) string {
	return ""
}

func (p plan9) FunctionHeader(name string, _ *ir.Symbol) string {
	return "\t// func " + name + "\n"
}

func (p plan9) FunctionFooter(string) string {
	return ""
}

// Align uses PCALIGN, which accepts 8 to 64.
func (p plan9) Align(n uint64) string {
	if n < 8 {
		return ""
	}
	return fmt.Sprintf("\tPCALIGN $%d\n", n)
}

func (p plan9) DefineSymbol(name string, _ *ir.Symbol) string {
	return name + ":\n"
}

// DefineRelative has no Go assembler form; the offset is kept as a note.
func (p plan9) DefineRelative(name string, delta uint64) string {
	return fmt.Sprintf("\t// %s = . + %d\n", name, delta)
}

func (p plan9) IntegralSymbol(name string, value uint64) string {
	return fmt.Sprintf("#define %s %#x\n", name, value)
}

func (p plan9) UndefinedSymbol(string) string {
	return ""
}

func (p plan9) AddressLabel(a ir.Addr) string {
	return fmt.Sprintf("L_%x", uint64(a))
}

// EscapeName maps a name onto the identifier characters Go assembly
// accepts.
func (p plan9) EscapeName(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			b[i] = '_'
		}
	}
	return string(b)
}

func (p plan9) Byte(b byte) string {
	return fmt.Sprintf("\tBYTE $0x%02x", b)
}

func (p plan9) Zero(n uint64) string {
	lines := make([]string, 0, n/8+n%8)
	for ; n >= 8; n -= 8 {
		lines = append(lines, "\tQUAD $0")
	}
	for ; n > 0; n-- {
		lines = append(lines, "\tBYTE $0")
	}
	return strings.Join(lines, "\n")
}

// Data reports false: symbol addresses cannot be stored from TEXT.
func (p plan9) Data(int, string) (string, bool) {
	return "", false
}

func (p plan9) String([]byte, bool) (string, bool) {
	return "", false
}

func (p plan9) CFI(ir.CFIDirective, string) string {
	return ""
}

func (p plan9) SymExprPrefix(ir.AttributeSet, bool) string {
	return ""
}

func (p plan9) SymExprSuffix(ir.AttributeSet, bool) string {
	return ""
}

func (p plan9) Fixup(inst decoder.Instruction) decoder.Instruction {
	return inst.Clone()
}

// FormatInstruction prints x86 instructions with x86asm's Go syntax,
// resolving targets through the module's symbols.
func (p plan9) FormatInstruction(inst decoder.Instruction, lookup printer.SymbolLookup) (string, bool) {
	raw, ok := inst.Raw.(x86asm.Inst)
	if !ok {
		return "", false
	}
	return "\t" + x86.GoSyntax(raw, inst.Address, lookup), true
}

func (p plan9) Register(_ decoder.Instruction, op decoder.Operand) string {
	return strings.ToUpper(op.Reg)
}

func (p plan9) Immediate(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	switch {
	case op.Kind == decoder.OperandBranch && symbolic != "":
		return symbolic
	case op.Kind == decoder.OperandBranch:
		return fmt.Sprintf("%#x", uint64(op.Value))
	case symbolic != "":
		return "$" + symbolic + "(SB)"
	}
	return "$" + signedHex(op.Value)
}

func (p plan9) Indirect(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	disp := symbolic
	if disp == "" && op.Mem.Disp != 0 {
		disp = signedHex(op.Mem.Disp)
	}
	if op.Mem.Base == "" {
		return disp + "(SB)"
	}
	text := disp + "(" + strings.ToUpper(op.Mem.Base) + ")"
	if op.Mem.Index != "" {
		text += fmt.Sprintf("(%s*%d)", strings.ToUpper(op.Mem.Index), max(op.Mem.Scale, 1))
	}
	return text
}

func (p plan9) Instruction(inst decoder.Instruction, operands []string) string {
	if len(operands) == 0 {
		return "\t" + strings.ToUpper(inst.Mnemonic)
	}
	return "\t" + strings.ToUpper(inst.Mnemonic) + " " + strings.Join(operands, ", ")
}

// PostProcess formats the output with asmfmt.
func (p plan9) PostProcess(text []byte) ([]byte, error) {
	return asmfmt.Format(bytes.NewReader(text))
}
