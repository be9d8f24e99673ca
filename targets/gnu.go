package targets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

// gnu holds the directives shared by every GNU as dialect. The operand
// methods live in the ISA-specific profiles embedding it.
type gnu struct {
	syntax   printer.Syntax
	macho    bool
	typeChar string
	prefixes decorations
	suffixes decorations
}

func newGNU(m *ir.Module, syntax printer.Syntax) gnu {
	return gnu{
		syntax:   syntax,
		macho:    printer.ModuleFormat(m) == printer.FormatMachO,
		typeChar: "@",
	}
}

func (g gnu) Syntax() printer.Syntax {
	return g.syntax
}

func (g gnu) Header(*ir.Module) string {
	return ""
}

func (g gnu) Footer(*ir.Module) string {
	if g.macho {
		return ""
	}
	return "\t.section .note.GNU-stack,\"\",@progbits\n"
}

func (g gnu) SectionHeader(s *ir.Section) string {
	if g.macho {
		return g.machoSection(s)
	}
	flags := ""
	if s.Flags.Has(ir.SectionLoaded) {
		flags += "a"
	}
	if s.Flags.Has(ir.SectionWritable) {
		flags += "w"
	}
	if s.Flags.Has(ir.SectionExecutable) {
		flags += "x"
	}
	if s.Flags.Has(ir.SectionThreadLocal) {
		flags += "T"
	}
	kind := "@progbits"
	if s.Contents == nil {
		kind = "@nobits"
	}
	return fmt.Sprintf("\t.section %s,%q,%s\n", s.Name, flags, kind)
}

// machoSection names the segment from the section flags unless the IR
// name already carries one.
func (g gnu) machoSection(s *ir.Section) string {
	if strings.Contains(s.Name, ",") {
		return "\t.section " + s.Name + "\n"
	}
	segment := "__TEXT"
	if s.Flags.Has(ir.SectionWritable) {
		segment = "__DATA"
	}
	if s.Contents == nil {
		return fmt.Sprintf("\t.section %s,%s,zerofill\n", segment, s.Name)
	}
	return fmt.Sprintf("\t.section %s,%s\n", segment, s.Name)
}

func (g gnu) SectionFooter(*ir.Section) string {
	return ""
}

func (g gnu) FunctionHeader(name string, _ *ir.Symbol) string {
	if g.macho {
		return ""
	}
	return fmt.Sprintf("\t.type %s, %sfunction\n", name, g.typeChar)
}

func (g gnu) FunctionFooter(name string) string {
	if g.macho {
		return ""
	}
	return fmt.Sprintf("\t.size %s, . - %s\n", name, name)
}

func (g gnu) Align(n uint64) string {
	return fmt.Sprintf("\t.balign %d\n", n)
}

func (g gnu) DefineSymbol(name string, sym *ir.Symbol) string {
	var sb strings.Builder
	if sym != nil && sym.Global {
		fmt.Fprintf(&sb, "\t.globl %s\n", name)
	}
	if sym != nil && !g.macho && (sym.Type == "object" || sym.Type == "tls_object") {
		fmt.Fprintf(&sb, "\t.type %s, %s%s\n", name, g.typeChar, sym.Type)
	}
	sb.WriteString(name + ":\n")
	return sb.String()
}

func (g gnu) DefineRelative(name string, delta uint64) string {
	return fmt.Sprintf("\t.set %s, . + %d\n", name, delta)
}

func (g gnu) IntegralSymbol(name string, value uint64) string {
	return fmt.Sprintf("\t.set %s, %#x\n", name, value)
}

func (g gnu) UndefinedSymbol(string) string {
	return ""
}

func (g gnu) AddressLabel(a ir.Addr) string {
	if g.macho {
		return fmt.Sprintf("L_%x", uint64(a))
	}
	return fmt.Sprintf(".L_%x", uint64(a))
}

// EscapeName quotes names GNU as would not read as one symbol.
func (g gnu) EscapeName(name string) string {
	if gnuPlainName(name) {
		return name
	}
	return strconv.Quote(name)
}

func gnuPlainName(name string) bool {
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '.', c == '$':
		default:
			return false
		}
	}
	return true
}

func (g gnu) Byte(b byte) string {
	return fmt.Sprintf("\t.byte 0x%02x", b)
}

func (g gnu) Zero(n uint64) string {
	return fmt.Sprintf("\t.zero %d", n)
}

func (g gnu) Data(size int, expr string) (string, bool) {
	switch size {
	case 1:
		return "\t.byte " + expr, true
	case 2:
		return "\t.short " + expr, true
	case 4:
		return "\t.long " + expr, true
	case 8:
		return "\t.quad " + expr, true
	}
	return "", false
}

func (g gnu) String(text []byte, terminated bool) (string, bool) {
	switch {
	case !terminated:
		return "\t.ascii " + gnuQuote(text), true
	case g.macho:
		return "\t.asciz " + gnuQuote(text), true
	}
	return "\t.string " + gnuQuote(text), true
}

// gnuQuote escapes text for a GNU as string literal.
func gnuQuote(text []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range text {
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "\\%03o", c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func (g gnu) CFI(d ir.CFIDirective, symbol string) string {
	args := make([]string, 0, len(d.Operands)+1)
	for _, o := range d.Operands {
		args = append(args, strconv.FormatInt(o, 10))
	}
	if symbol != "" {
		args = append(args, symbol)
	}
	if len(args) == 0 {
		return "\t" + d.Directive
	}
	return "\t" + d.Directive + " " + strings.Join(args, ", ")
}

func (g gnu) SymExprPrefix(attrs ir.AttributeSet, isNotBranch bool) string {
	return g.prefixes.lookup(attrs, isNotBranch)
}

func (g gnu) SymExprSuffix(attrs ir.AttributeSet, isNotBranch bool) string {
	return g.suffixes.lookup(attrs, isNotBranch)
}
