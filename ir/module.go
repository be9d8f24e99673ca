// Package ir holds the binary intermediate representation consumed by the
// printer: sections, blocks, symbols, symbolic expressions and the side
// tables produced by upstream analysis.
package ir

import (
	"sort"
)

// Addr is an absolute address in the module's address space.
type Addr uint64

// Module is one binary's worth of IR.
type Module struct {
	Name       string
	FileFormat string // "elf", "pe", "macho", "raw"
	ISA        string // "x64", "ia32", "arm64", "m68k"
	// BinaryType carries loader flags such as "EXEC", "DYN", "PIE".
	BinaryType []string
	Sections   []*Section
	Symbols    []*Symbol
	Aux        AuxData
}

// SectionFlags describes how a section is mapped.
type SectionFlags uint8

const (
	// SectionLoaded sections are mapped at run time.
	SectionLoaded SectionFlags = 1 << iota
	// SectionExecutable sections contain code.
	SectionExecutable
	// SectionWritable sections may be modified at run time.
	SectionWritable
	// SectionInitialized sections carry file contents.
	SectionInitialized
	// SectionThreadLocal sections hold TLS templates.
	SectionThreadLocal
)

// Has reports whether all bits in f are set.
func (s SectionFlags) Has(f SectionFlags) bool {
	return s&f == f
}

// Section is a contiguous address range with its blocks.
type Section struct {
	Name     string
	Address  Addr
	Size     uint64
	Contents []byte // nil for uninitialized sections
	Flags    SectionFlags
	Blocks   []*Block
	// SymbolicExpressions is keyed by offset from the section start.
	SymbolicExpressions map[uint64]SymbolicExpression
}

// End returns the first address past the section.
func (s *Section) End() Addr {
	return s.Address + Addr(s.Size)
}

// Contains reports whether a falls inside the section.
func (s *Section) Contains(a Addr) bool {
	return a >= s.Address && a < s.End()
}

// Bytes returns the contents of the range [off, off+size), padding with
// zeros for uninitialized or short sections.
func (s *Section) Bytes(off, size uint64) []byte {
	out := make([]byte, size)
	if off < uint64(len(s.Contents)) {
		copy(out, s.Contents[off:])
	}
	return out
}

// SortedBlocks returns the section's blocks in address order. Blocks at the
// same address keep their original order.
func (s *Section) SortedBlocks() []*Block {
	blocks := append([]*Block(nil), s.Blocks...)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Offset < blocks[j].Offset
	})
	return blocks
}

// BlockKind distinguishes code from data.
type BlockKind int

const (
	// CodeBlock holds instructions.
	CodeBlock BlockKind = iota
	// DataBlock holds bytes and symbolic data.
	DataBlock
)

func (k BlockKind) String() string {
	if k == CodeBlock {
		return "code"
	}
	return "data"
}

// Block is a code or data range inside a section.
type Block struct {
	Kind       BlockKind
	Offset     uint64 // from the section start
	Size       uint64
	DecodeMode int
	Section    *Section
}

// Address returns the block's absolute address.
func (b *Block) Address() Addr {
	return b.Section.Address + Addr(b.Offset)
}

// End returns the first address past the block.
func (b *Block) End() Addr {
	return b.Address() + Addr(b.Size)
}

// SortedSections returns the module's sections in address order.
func (m *Module) SortedSections() []*Section {
	sections := append([]*Section(nil), m.Sections...)
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Address < sections[j].Address
	})
	return sections
}

// End returns the first address past the highest section.
func (m *Module) End() Addr {
	var end Addr
	for _, s := range m.Sections {
		if s.End() > end {
			end = s.End()
		}
	}
	return end
}

// SectionAt returns the section containing a. Sections are assumed not to
// overlap.
func (m *Module) SectionAt(a Addr) *Section {
	for _, s := range m.Sections {
		if s.Contains(a) {
			return s
		}
	}
	return nil
}

// HasBinaryType reports whether the module carries the given loader flag.
func (m *Module) HasBinaryType(t string) bool {
	for _, bt := range m.BinaryType {
		if bt == t {
			return true
		}
	}
	return false
}

// AddBlock appends a block to the section and returns it.
func (s *Section) AddBlock(kind BlockKind, offset, size uint64) *Block {
	b := &Block{Kind: kind, Offset: offset, Size: size, Section: s}
	s.Blocks = append(s.Blocks, b)
	return b
}

// AddSymbolicExpression records e at offset from the section start.
func (s *Section) AddSymbolicExpression(offset uint64, e SymbolicExpression) {
	if s.SymbolicExpressions == nil {
		s.SymbolicExpressions = make(map[uint64]SymbolicExpression)
	}
	s.SymbolicExpressions[offset] = e
}
