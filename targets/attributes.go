package targets

import (
	"github.com/Urethramancer/pprinter/ir"
)

// decoration is the text an assembler wants around a symbol carrying every
// attribute in mask.
type decoration struct {
	mask       ir.AttributeSet
	text       string
	branchOnly bool
}

// decorations are searched in order; the first match wins, so combined
// masks go before their parts.
type decorations []decoration

func (d decorations) lookup(attrs ir.AttributeSet, isNotBranch bool) string {
	for _, dec := range d {
		if attrs&dec.mask != dec.mask {
			continue
		}
		if dec.branchOnly && isNotBranch {
			continue
		}
		return dec.text
	}
	return ""
}

var elfX86Suffixes = decorations{
	{mask: ir.Attrs(ir.AttrGOTPCREL), text: "@GOTPCREL"},
	{mask: ir.Attrs(ir.AttrGOTTPOFF), text: "@GOTTPOFF"},
	{mask: ir.Attrs(ir.AttrGOTOFF), text: "@GOTOFF"},
	{mask: ir.Attrs(ir.AttrGOT), text: "@GOT"},
	{mask: ir.Attrs(ir.AttrPLT), text: "@PLT", branchOnly: true},
	{mask: ir.Attrs(ir.AttrNTPOFF), text: "@NTPOFF"},
	{mask: ir.Attrs(ir.AttrDTPOFF), text: "@DTPOFF"},
	{mask: ir.Attrs(ir.AttrTPOFF), text: "@TPOFF"},
	{mask: ir.Attrs(ir.AttrTLSGD), text: "@TLSGD"},
	{mask: ir.Attrs(ir.AttrTLSLD), text: "@TLSLD"},
}

var machoX86Suffixes = decorations{
	{mask: ir.Attrs(ir.AttrGOTPCREL), text: "@GOTPCREL"},
}

var arm64Prefixes = decorations{
	{mask: ir.Attrs(ir.AttrGOT, ir.AttrLO12), text: ":got_lo12:"},
	{mask: ir.Attrs(ir.AttrTPOFF, ir.AttrHI), text: ":tprel_hi12:"},
	{mask: ir.Attrs(ir.AttrTPOFF, ir.AttrLO12), text: ":tprel_lo12_nc:"},
	{mask: ir.Attrs(ir.AttrGOT), text: ":got:"},
	{mask: ir.Attrs(ir.AttrLO12), text: ":lo12:"},
}

var masmPrefixes = decorations{
	{mask: ir.Attrs(ir.AttrTPOFF), text: "SECTIONREL "},
}
