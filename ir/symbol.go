package ir

import (
	"fmt"
	"strings"
)

// SymbolKind says where a symbol's value comes from.
type SymbolKind int

const (
	// SymbolDefined symbols refer to an address inside a section.
	SymbolDefined SymbolKind = iota
	// SymbolUndefined symbols are resolved by the linker.
	SymbolUndefined
	// SymbolIntegral symbols hold an absolute value outside any section.
	SymbolIntegral
)

// Symbol is a named address or value.
type Symbol struct {
	Name    string
	Address Addr
	Kind    SymbolKind
	Global  bool
	// Type is the object type, e.g. "func", "object" or "".
	Type string
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s@%#x", s.Name, uint64(s.Address))
}

// Attribute is one decoration on a symbolic expression.
type Attribute uint32

// AttributeSet is a bit set of Attribute values.
type AttributeSet uint32

const (
	AttrGOT Attribute = iota
	AttrGOTPC
	AttrGOTOFF
	AttrGOTPCREL
	AttrPLT
	AttrPCREL
	AttrTPOFF
	AttrNTPOFF
	AttrDTPOFF
	AttrTLSGD
	AttrTLSLD
	AttrGOTTPOFF
	AttrLO12
	AttrHI
	AttrLO
	attrCount
)

var attributeNames = [...]string{
	"GOT", "GOTPC", "GOTOFF", "GOTPCREL", "PLT", "PCREL", "TPOFF", "NTPOFF",
	"DTPOFF", "TLSGD", "TLSLD", "GOTTPOFF", "LO12", "HI", "LO",
}

func (a Attribute) String() string {
	if a < attrCount {
		return attributeNames[a]
	}
	return fmt.Sprintf("Attribute(%d)", uint32(a))
}

// ParseAttribute maps a name such as "PLT" back to its Attribute.
func ParseAttribute(name string) (Attribute, error) {
	for i, n := range attributeNames {
		if strings.EqualFold(n, name) {
			return Attribute(i), nil
		}
	}
	return 0, fmt.Errorf("unknown symbolic expression attribute %q", name)
}

// Attrs builds a set from a list of attributes.
func Attrs(list ...Attribute) AttributeSet {
	var s AttributeSet
	for _, a := range list {
		s |= 1 << a
	}
	return s
}

// Has reports whether a is in the set.
func (s AttributeSet) Has(a Attribute) bool {
	return s&(1<<a) != 0
}

// List returns the attributes in declaration order.
func (s AttributeSet) List() []Attribute {
	var out []Attribute
	for a := Attribute(0); a < attrCount; a++ {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// SymbolicExpression is a relocation-like reference stored at a byte offset.
type SymbolicExpression interface {
	Attributes() AttributeSet
	// Symbols returns the symbols referenced by the expression.
	Symbols() []*Symbol
}

// SymAddrConst is "symbol + offset".
type SymAddrConst struct {
	Offset int64
	Symbol *Symbol
	Attrs  AttributeSet
}

// Attributes returns the decoration set.
func (e *SymAddrConst) Attributes() AttributeSet { return e.Attrs }

// Symbols returns the referenced symbol.
func (e *SymAddrConst) Symbols() []*Symbol { return []*Symbol{e.Symbol} }

// SymAddrAddr is "(symbol1 - symbol2) / scale + offset".
type SymAddrAddr struct {
	Scale   int64
	Offset  int64
	Symbol1 *Symbol
	Symbol2 *Symbol
	Attrs   AttributeSet
}

// Attributes returns the decoration set.
func (e *SymAddrAddr) Attributes() AttributeSet { return e.Attrs }

// Symbols returns both referenced symbols.
func (e *SymAddrAddr) Symbols() []*Symbol { return []*Symbol{e.Symbol1, e.Symbol2} }
