package targets

import (
	"testing"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/ir"
)

func TestDecorations(t *testing.T) {
	tests := []struct {
		name        string
		table       decorations
		attrs       ir.AttributeSet
		isNotBranch bool
		want        string
	}{
		{"plt call", elfX86Suffixes, ir.Attrs(ir.AttrPLT), false, "@PLT"},
		{"plt data", elfX86Suffixes, ir.Attrs(ir.AttrPLT), true, ""},
		{"gotpcrel", elfX86Suffixes, ir.Attrs(ir.AttrGOTPCREL), true, "@GOTPCREL"},
		{"tls", elfX86Suffixes, ir.Attrs(ir.AttrTLSGD), true, "@TLSGD"},
		{"macho got", machoX86Suffixes, ir.Attrs(ir.AttrGOTPCREL), true, "@GOTPCREL"},
		{"macho plt", machoX86Suffixes, ir.Attrs(ir.AttrPLT), false, ""},
		{"got lo12", arm64Prefixes, ir.Attrs(ir.AttrGOT, ir.AttrLO12), true, ":got_lo12:"},
		{"got page", arm64Prefixes, ir.Attrs(ir.AttrGOT), true, ":got:"},
		{"lo12", arm64Prefixes, ir.Attrs(ir.AttrLO12), true, ":lo12:"},
		{"tprel hi", arm64Prefixes, ir.Attrs(ir.AttrTPOFF, ir.AttrHI), true, ":tprel_hi12:"},
		{"section relative", masmPrefixes, ir.Attrs(ir.AttrTPOFF), true, "SECTIONREL "},
		{"none", arm64Prefixes, 0, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.table.lookup(tt.attrs, tt.isNotBranch); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGNUQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hi", `"hi"`},
		{`a"b\`, `"a\"b\\"`},
		{"\n\x00", `"\012\000"`},
		{"", `""`},
	}
	for _, tt := range tests {
		if got := gnuQuote([]byte(tt.in)); got != tt.want {
			t.Errorf("gnuQuote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestEscapeName(t *testing.T) {
	g := gnu{}
	i := intel{}
	tests := []struct {
		name    string
		escape  func(string) string
		in, out string
	}{
		{"gnu plain", g.EscapeName, "main", "main"},
		{"gnu dotted", g.EscapeName, ".L_401000", ".L_401000"},
		{"gnu at", g.EscapeName, "puts@GLIBC_2.2.5", `"puts@GLIBC_2.2.5"`},
		{"gnu digit", g.EscapeName, "1st", `"1st"`},
		{"intel register", i.EscapeName, "rax", "rax_renamed"},
		{"intel operator", i.EscapeName, "BYTE", "BYTE_renamed"},
		{"intel plain", i.EscapeName, "counter", "counter"},
		{"masm", masm{}.EscapeName, "a-b", "a_b"},
		{"masm leading digit", masm{}.EscapeName, "9x", "_x"},
		{"motorola", motorola{}.EscapeName, "foo.bar$", "foo.bar_"},
		{"plan9", plan9{}.EscapeName, ".text", "_text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.escape(tt.in); got != tt.out {
				t.Errorf("got %q, want %q", got, tt.out)
			}
		})
	}
}

func TestX86Fixup(t *testing.T) {
	mem := decoder.Operand{Kind: decoder.OperandMemory, Size: 8, Mem: decoder.Memory{Base: "rip", Disp: 16, PCRelative: true}}
	reg := decoder.Operand{Kind: decoder.OperandRegister, Reg: "rax"}

	in := decoder.Instruction{Mnemonic: "lea", Operands: []decoder.Operand{reg, mem}}
	out := x86Fixup(in)
	if out.Operands[1].Size != 0 {
		t.Errorf("lea kept its memory size: %+v", out.Operands[1])
	}
	if in.Operands[1].Size != 8 {
		t.Error("x86Fixup modified its input")
	}

	out = x86Fixup(decoder.Instruction{Mnemonic: "stosq", Operands: []decoder.Operand{mem, reg}})
	if len(out.Operands) != 0 {
		t.Errorf("string operation kept operands: %+v", out.Operands)
	}

	out = x86Fixup(decoder.Instruction{Mnemonic: "movsd_xmm", Operands: []decoder.Operand{reg, mem}})
	if out.Mnemonic != "movsd" || len(out.Operands) != 2 {
		t.Errorf("got %s with %d operands", out.Mnemonic, len(out.Operands))
	}
}

func TestSignedHex(t *testing.T) {
	for v, want := range map[int64]string{0: "0x0", 31: "0x1f", -31: "-0x1f"} {
		if got := signedHex(v); got != want {
			t.Errorf("signedHex(%d) = %s, want %s", v, got, want)
		}
	}
}

func TestIntelIndirect(t *testing.T) {
	p := intel{}
	inst := decoder.Instruction{Mnemonic: "mov"}
	tests := []struct {
		name     string
		op       decoder.Operand
		symbolic string
		want     string
	}{
		{"base index", decoder.Operand{Size: 4, Mem: decoder.Memory{Base: "rax", Index: "rbx", Scale: 4, Disp: -8}}, "", "dword ptr [rax+rbx*4-0x8]"},
		{"segment", decoder.Operand{Size: 8, Mem: decoder.Memory{Segment: "fs", Disp: 0x28}}, "", "qword ptr fs:[0x28]"},
		{"symbol", decoder.Operand{Mem: decoder.Memory{Base: "rip", Disp: 0x100}}, "table", "[rip+table]"},
		{"plain base", decoder.Operand{Size: 1, Mem: decoder.Memory{Base: "rdi"}}, "", "byte ptr [rdi]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.op.Kind = decoder.OperandMemory
			if got := p.Indirect(inst, tt.op, tt.symbolic); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestATTIndirect(t *testing.T) {
	p := att{}
	tests := []struct {
		name     string
		mnemonic string
		op       decoder.Operand
		symbolic string
		want     string
	}{
		{"base index", "mov", decoder.Operand{Mem: decoder.Memory{Base: "rax", Index: "rbx", Scale: 8}}, "", "(%rax,%rbx,8)"},
		{"segment", "mov", decoder.Operand{Mem: decoder.Memory{Segment: "fs", Disp: 0x28}}, "", "%fs:0x28"},
		{"indirect call", "call", decoder.Operand{Mem: decoder.Memory{Base: "rip", Disp: 8}}, "fn", "*fn(%rip)"},
		{"negative", "mov", decoder.Operand{Mem: decoder.Memory{Base: "rbp", Disp: -16}}, "", "-0x10(%rbp)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.op.Kind = decoder.OperandMemory
			inst := decoder.Instruction{Mnemonic: tt.mnemonic}
			if got := p.Indirect(inst, tt.op, tt.symbolic); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMASM(t *testing.T) {
	if got := masmHex(255); got != "0FFH" {
		t.Errorf("masmHex(255) = %s", got)
	}
	p := masm{}
	if got, ok := p.String([]byte(`say "hi"`), true); !ok || got != `BYTE "say ""hi""",0` {
		t.Errorf("String = %q, %v", got, ok)
	}
	if _, ok := p.String([]byte("a\n"), true); ok {
		t.Error("String accepted a control character")
	}

	inst := decoder.Instruction{Address: 0x1000, Size: 7}
	op := decoder.Operand{Kind: decoder.OperandMemory, Size: 8, Mem: decoder.Memory{Base: "rip", Disp: 0x10, PCRelative: true}}
	if got := p.Indirect(inst, op, ""); got != "QWORD PTR [01017H]" {
		t.Errorf("Indirect = %q", got)
	}
	op = decoder.Operand{Kind: decoder.OperandMemory, Mem: decoder.Memory{Base: "rbp", Disp: -8}}
	if got := p.Indirect(inst, op, ""); got != "[rbp-08H]" {
		t.Errorf("Indirect = %q", got)
	}
}

func TestMotorolaIndirect(t *testing.T) {
	p := motorola{}
	inst := decoder.Instruction{Mnemonic: "move.l"}
	tests := []struct {
		name     string
		mem      decoder.Memory
		symbolic string
		want     string
	}{
		{"indirect", decoder.Memory{Base: "a0"}, "", "(a0)"},
		{"post increment", decoder.Memory{Base: "a7", Mode: decoder.MemPostIncrement}, "", "(a7)+"},
		{"pre decrement", decoder.Memory{Base: "a7", Mode: decoder.MemPreDecrement}, "", "-(a7)"},
		{"displacement", decoder.Memory{Base: "a6", Disp: -4}, "", "(-4,a6)"},
		{"large displacement", decoder.Memory{Base: "a5", Disp: 0x100}, "", "($100,a5)"},
		{"indexed", decoder.Memory{Base: "a0", Index: "d1", Scale: 4}, "", "(0,a0,d1.l)"},
		{"pc relative", decoder.Memory{Base: "pc", Disp: 0x20, PCRelative: true}, "table", "(table,pc)"},
		{"absolute word", decoder.Memory{Mode: decoder.MemAbsolute, Disp: 0x4, Scale: 2}, "", "$4.w"},
		{"absolute long", decoder.Memory{Mode: decoder.MemAbsolute, Disp: 0xdff000, Scale: 4}, "", "$DFF000.l"},
		{"absolute symbol", decoder.Memory{Mode: decoder.MemAbsolute, Disp: 0x2000, Scale: 4}, "msg", "msg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := decoder.Operand{Kind: decoder.OperandMemory, Mem: tt.mem}
			if got := p.Indirect(inst, op, tt.symbolic); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMotorolaDirectives(t *testing.T) {
	p := motorola{}
	if got := p.Align(2); got != "\teven\n" {
		t.Errorf("Align(2) = %q", got)
	}
	if got, ok := p.String([]byte("it's"), false); !ok || got != "\tdc.b\t'it''s'" {
		t.Errorf("String = %q, %v", got, ok)
	}
	if _, ok := p.Data(8, "x"); ok {
		t.Error("Data accepted a quad")
	}
	if got := p.Fixup(decoder.Instruction{Mnemonic: "dbf"}).Mnemonic; got != "dbra" {
		t.Errorf("Fixup(dbf) = %s", got)
	}
}

func TestAArch64Fixup(t *testing.T) {
	p := aarch64{}
	in := decoder.Instruction{Mnemonic: "b", Operands: []decoder.Operand{
		{Kind: decoder.OperandRaw, Text: "ne"},
		{Kind: decoder.OperandBranch, Value: 0x400010},
	}}
	out := p.Fixup(in)
	if out.Mnemonic != "b.ne" || len(out.Operands) != 1 || out.Operands[0].Kind != decoder.OperandBranch {
		t.Errorf("got %+v", out)
	}
	if len(in.Operands) != 2 {
		t.Error("Fixup modified its input")
	}

	out = p.Fixup(decoder.Instruction{Mnemonic: "ret", Operands: []decoder.Operand{{Kind: decoder.OperandRegister, Reg: "x30"}}})
	if len(out.Operands) != 0 {
		t.Errorf("ret kept x30: %+v", out.Operands)
	}
	out = p.Fixup(decoder.Instruction{Mnemonic: "ret", Operands: []decoder.Operand{{Kind: decoder.OperandRegister, Reg: "x1"}}})
	if len(out.Operands) != 1 {
		t.Error("ret dropped an explicit register")
	}
}

func TestAArch64Indirect(t *testing.T) {
	p := aarch64{}
	var inst decoder.Instruction
	tests := []struct {
		mem      decoder.Memory
		symbolic string
		want     string
	}{
		{decoder.Memory{Base: "x1", Disp: 16}, "", "[x1, #16]"},
		{decoder.Memory{Base: "sp"}, "", "[sp]"},
		{decoder.Memory{Base: "x0", Disp: 8}, ":lo12:msg", "[x0, :lo12:msg]"},
	}
	for _, tt := range tests {
		op := decoder.Operand{Kind: decoder.OperandMemory, Mem: tt.mem}
		if got := p.Indirect(inst, op, tt.symbolic); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
