package ir

import (
	"slices"
)

// CFIDirective is one call-frame directive recorded at an address.
type CFIDirective struct {
	Directive string // e.g. ".cfi_def_cfa_offset"
	Operands  []int64
	Symbol    *Symbol
}

// AuxData holds the side tables produced by upstream analysis. The printer
// only reads them.
type AuxData struct {
	FunctionEntries    []Addr
	FunctionLastBlocks []Addr
	// Alignment is keyed by block address.
	Alignment map[Addr]uint64
	// Comments is keyed by address.
	Comments map[Addr][]string
	// SymbolForwarding maps a stub symbol to the symbol it forwards to.
	SymbolForwarding map[*Symbol]*Symbol
	CFIDirectives    map[Addr][]CFIDirective
	// Encodings is keyed by data block address: "string", "ascii".
	Encodings map[Addr]string
	// SymbolicExpressionSizes is keyed by the address of the expression.
	SymbolicExpressionSizes map[Addr]uint64
}

// SortedFunctionEntries returns the entry addresses in ascending order with
// duplicates removed.
func (a *AuxData) SortedFunctionEntries() []Addr {
	return sortedUnique(a.FunctionEntries)
}

func sortedUnique(in []Addr) []Addr {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
