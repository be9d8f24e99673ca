package targets

import (
	"bytes"
	"testing"

	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

func printWith(t *testing.T, m *ir.Module, setup func(p *printer.Printer)) string {
	t.Helper()
	p := printer.New(NewRegistry())
	if setup != nil {
		setup(p)
	}
	var buf bytes.Buffer
	if err := p.Print(&buf, nil, m); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	return buf.String()
}

// x64Module is a small dynamically linked program:
//
//	0x401000 main:   push rbp; lea rax, [rip+msg]; call helper; pop rbp; ret; nop
//	0x401010 helper: ret
//	0x402000 msg:    "hi"
//	0x403000 ptr:    .quad main
//	0x404000 buf:    16 bytes of bss
func x64Module(format string) *ir.Module {
	text := &ir.Section{
		Name:    ".text",
		Address: 0x401000,
		Size:    17,
		Contents: []byte{
			0x55,
			0x48, 0x8d, 0x05, 0xf8, 0x0f, 0x00, 0x00,
			0xe8, 0x03, 0x00, 0x00, 0x00,
			0x5d,
			0xc3,
			0x90,
			0xc3,
		},
		Flags: ir.SectionLoaded | ir.SectionExecutable | ir.SectionInitialized,
	}
	text.AddBlock(ir.CodeBlock, 0, 16)
	text.AddBlock(ir.CodeBlock, 16, 1)

	rodata := &ir.Section{
		Name:     ".rodata",
		Address:  0x402000,
		Size:     3,
		Contents: []byte("hi\x00"),
		Flags:    ir.SectionLoaded | ir.SectionInitialized,
	}
	rodata.AddBlock(ir.DataBlock, 0, 3)

	data := &ir.Section{
		Name:     ".data",
		Address:  0x403000,
		Size:     8,
		Contents: []byte{0x00, 0x10, 0x40, 0, 0, 0, 0, 0},
		Flags:    ir.SectionLoaded | ir.SectionWritable | ir.SectionInitialized,
	}
	data.AddBlock(ir.DataBlock, 0, 8)

	bss := &ir.Section{
		Name:    ".bss",
		Address: 0x404000,
		Size:    16,
		Flags:   ir.SectionLoaded | ir.SectionWritable,
	}
	bss.AddBlock(ir.DataBlock, 0, 16)

	main := &ir.Symbol{Name: "main", Address: 0x401000, Global: true, Type: "func"}
	helper := &ir.Symbol{Name: "helper", Address: 0x401010}
	msg := &ir.Symbol{Name: "msg", Address: 0x402000}
	ptr := &ir.Symbol{Name: "ptr", Address: 0x403000, Global: true, Type: "object"}
	buf := &ir.Symbol{Name: "buf", Address: 0x404000}

	text.AddSymbolicExpression(4, &ir.SymAddrConst{Symbol: msg})
	text.AddSymbolicExpression(9, &ir.SymAddrConst{Symbol: helper})
	data.AddSymbolicExpression(0, &ir.SymAddrConst{Symbol: main})

	return &ir.Module{
		Name:       "hello",
		FileFormat: format,
		ISA:        "x64",
		BinaryType: []string{"DYN"},
		Sections:   []*ir.Section{bss, data, rodata, text},
		Symbols:    []*ir.Symbol{main, helper, msg, ptr, buf},
		Aux: ir.AuxData{
			FunctionEntries:    []ir.Addr{0x401000, 0x401010},
			FunctionLastBlocks: []ir.Addr{0x401000, 0x401010},
			Encodings:          map[ir.Addr]string{0x402000: "string"},
		},
	}
}

// arm64Module calls helper, which loads through the low half of msg's
// address.
//
//	0x400000 main:   bl helper; ret
//	0x400008 helper: nop; ldr x0, [x1, :lo12:msg]; ret
func arm64Module() *ir.Module {
	text := &ir.Section{
		Name:    ".text",
		Address: 0x400000,
		Size:    20,
		Contents: []byte{
			0x02, 0x00, 0x00, 0x94,
			0xc0, 0x03, 0x5f, 0xd6,
			0x1f, 0x20, 0x03, 0xd5,
			0x20, 0x08, 0x40, 0xf9,
			0xc0, 0x03, 0x5f, 0xd6,
		},
		Flags: ir.SectionLoaded | ir.SectionExecutable | ir.SectionInitialized,
	}
	text.AddBlock(ir.CodeBlock, 0, 8)
	text.AddBlock(ir.CodeBlock, 8, 12)

	main := &ir.Symbol{Name: "main", Address: 0x400000, Global: true}
	helper := &ir.Symbol{Name: "helper", Address: 0x400008}
	msg := &ir.Symbol{Name: "msg", Kind: ir.SymbolUndefined}

	text.AddSymbolicExpression(0, &ir.SymAddrConst{Symbol: helper})
	text.AddSymbolicExpression(12, &ir.SymAddrConst{Symbol: msg, Attrs: ir.Attrs(ir.AttrLO12)})

	return &ir.Module{
		Name:       "arm",
		FileFormat: "elf",
		ISA:        "aarch64",
		Sections:   []*ir.Section{text},
		Symbols:    []*ir.Symbol{main, helper, msg},
		Aux: ir.AuxData{
			FunctionEntries:    []ir.Addr{0x400000, 0x400008},
			FunctionLastBlocks: []ir.Addr{0x400000, 0x400008},
		},
	}
}

// m68kModule is a raw image:
//
//	0x1000 main:   lea msg,a0; bsr.s helper; dbf d0,$1008
//	0x100C helper: rts
//	0x2000 msg:    'hi',0 followed by one pad byte
func m68kModule() *ir.Module {
	code := &ir.Section{
		Name:    "CODE",
		Address: 0x1000,
		Size:    14,
		Contents: []byte{
			0x41, 0xf9, 0x00, 0x00, 0x20, 0x00,
			0x61, 0x04,
			0x51, 0xc8, 0xff, 0xfe,
			0x4e, 0x75,
		},
		Flags: ir.SectionLoaded | ir.SectionExecutable | ir.SectionInitialized,
	}
	code.AddBlock(ir.CodeBlock, 0, 12)
	code.AddBlock(ir.CodeBlock, 12, 2)

	data := &ir.Section{
		Name:     "DATA",
		Address:  0x2000,
		Size:     4,
		Contents: []byte{'h', 'i', 0, 0},
		Flags:    ir.SectionLoaded | ir.SectionWritable | ir.SectionInitialized,
	}
	data.AddBlock(ir.DataBlock, 0, 3)
	data.AddBlock(ir.DataBlock, 3, 1)

	main := &ir.Symbol{Name: "main", Address: 0x1000, Global: true}
	helper := &ir.Symbol{Name: "helper", Address: 0x100C}
	msg := &ir.Symbol{Name: "msg", Address: 0x2000}

	code.AddSymbolicExpression(2, &ir.SymAddrConst{Symbol: msg})
	code.AddSymbolicExpression(7, &ir.SymAddrConst{Symbol: helper})

	return &ir.Module{
		Name:       "demo",
		FileFormat: "raw",
		ISA:        "m68k",
		Sections:   []*ir.Section{code, data},
		Symbols:    []*ir.Symbol{main, helper, msg},
		Aux: ir.AuxData{
			FunctionEntries:    []ir.Addr{0x1000, 0x100C},
			FunctionLastBlocks: []ir.Addr{0x1000, 0x100C},
			Encodings:          map[ir.Addr]string{0x2000: "string"},
		},
	}
}
