package printer

import (
	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/ir"
)

// Syntax holds the fixed tokens and limits of an assembler dialect.
type Syntax struct {
	// Comment starts a line comment.
	Comment string
	// PointerSize is the width of an untyped symbolic data entry.
	PointerSize int
	// MaxAlignment bounds inferred alignment. Alignment is inferred from
	// the address only for function entries and the first block of each
	// section; other blocks are aligned only by explicit hints.
	MaxAlignment uint64
	// DisplacementFirst makes memory operands take symbolic expressions
	// before immediates, matching encodings where the displacement
	// precedes the immediate.
	DisplacementFirst bool
	// CFI enables call-frame directives.
	CFI bool
	// Placeholder replaces references to skipped symbols.
	Placeholder string
}

// Profile is everything target-specific the engine needs.
//
// Methods producing directives that span whole lines (Header, Footer,
// SectionHeader, SectionFooter, FunctionHeader, FunctionFooter,
// DefineSymbol, DefineRelative, IntegralSymbol, UndefinedSymbol, Align)
// return complete lines ending in "\n", or "" for nothing. Statement
// methods (Byte, Zero, Data, String, CFI, Instruction) return a single
// statement without the newline so comments can be attached. The rest
// return operand fragments.
type Profile interface {
	Syntax() Syntax

	Header(m *ir.Module) string
	Footer(m *ir.Module) string
	SectionHeader(s *ir.Section) string
	SectionFooter(s *ir.Section) string
	// FunctionHeader and FunctionFooter receive the escaped name.
	FunctionHeader(name string, sym *ir.Symbol) string
	FunctionFooter(name string) string
	Align(n uint64) string

	DefineSymbol(name string, sym *ir.Symbol) string
	DefineRelative(name string, delta uint64) string
	IntegralSymbol(name string, value uint64) string
	UndefinedSymbol(name string) string
	AddressLabel(a ir.Addr) string
	EscapeName(name string) string

	Byte(b byte) string
	Zero(n uint64) string
	// Data emits a size-byte entry holding expr; false if size is unsupported.
	Data(size int, expr string) (string, bool)
	// String emits text, NUL-terminated when terminated is set; false when
	// the dialect cannot express it.
	String(text []byte, terminated bool) (string, bool)
	CFI(d ir.CFIDirective, symbol string) string

	SymExprPrefix(attrs ir.AttributeSet, isNotBranch bool) string
	SymExprSuffix(attrs ir.AttributeSet, isNotBranch bool) string

	// Fixup returns a printable copy of inst; it must not modify inst.
	Fixup(inst decoder.Instruction) decoder.Instruction
	Register(inst decoder.Instruction, op decoder.Operand) string
	// Immediate formats immediates and branch targets; symbolic is the
	// decorated expression or "".
	Immediate(inst decoder.Instruction, op decoder.Operand, symbolic string) string
	Indirect(inst decoder.Instruction, op decoder.Operand, symbolic string) string
	// Instruction joins the mnemonic and formatted operands, which arrive
	// in the decoder's operand order.
	Instruction(inst decoder.Instruction, operands []string) string
}

// SymbolLookup resolves an address to a printable symbol reference and the
// symbol's address.
type SymbolLookup func(addr uint64) (string, uint64)

// InstructionFormatter lets a profile format whole instructions from the
// decoder's native record. Returning false falls back to operand dispatch.
type InstructionFormatter interface {
	FormatInstruction(inst decoder.Instruction, lookup SymbolLookup) (string, bool)
}

// PostProcessor rewrites the complete output of a pass.
type PostProcessor interface {
	PostProcess(text []byte) ([]byte, error)
}
