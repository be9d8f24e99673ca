package ir

import (
	"errors"
	"strings"
	"testing"
)

const sampleIR = `{
  "name": "hello",
  "format": "ELF",
  "isa": "x64",
  "binaryType": ["EXEC"],
  "symbols": [
    {"name": "main", "address": 4096, "global": true, "type": "func"},
    {"name": "puts", "kind": "undefined"},
    {"name": "puts@plt", "address": 4112},
    {"name": "msg", "address": 8192}
  ],
  "sections": [
    {
      "name": ".text", "address": 4096, "contents": "c3 90 90 90 90 90 90 90 90 90 90 90 90 90 90 90 c3",
      "flags": ["loaded", "executable", "initialized"],
      "blocks": [{"kind": "code", "offset": 0, "size": 16}, {"kind": "code", "offset": 16, "size": 1}]
    },
    {
      "name": ".data", "address": 8192, "size": 16, "contents": "0000000000000000",
      "flags": ["loaded", "writable", "initialized"],
      "blocks": [{"kind": "data", "offset": 0, "size": 16}],
      "symbolicExpressions": [
        {"at": 0, "symbol": 0, "offset": 4, "attributes": ["GOT"]},
        {"at": 8, "symbol": 0, "symbol2": 3}
      ]
    }
  ],
  "aux": {
    "functionEntries": [4096],
    "alignment": {"4096": 16},
    "symbolForwarding": {"2": 1},
    "encodings": {"8192": "string"}
  }
}`

func TestLoad(t *testing.T) {
	m, err := Load(strings.NewReader(sampleIR))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.FileFormat != "elf" || m.ISA != "x64" {
		t.Errorf("got format/isa %q/%q", m.FileFormat, m.ISA)
	}
	if len(m.Sections) != 2 || len(m.Symbols) != 4 {
		t.Fatalf("got %d sections, %d symbols", len(m.Sections), len(m.Symbols))
	}

	text := m.Sections[0]
	if text.Size != 17 {
		t.Errorf("size not derived from contents: %d", text.Size)
	}
	if !text.Flags.Has(SectionExecutable | SectionInitialized) {
		t.Errorf("flags not parsed: %b", text.Flags)
	}
	if got := text.Blocks[1].Address(); got != 4112 {
		t.Errorf("block address: got %#x", got)
	}

	data := m.Sections[1]
	c, ok := data.SymbolicExpressions[0].(*SymAddrConst)
	if !ok || c.Symbol != m.Symbols[0] || c.Offset != 4 || !c.Attrs.Has(AttrGOT) {
		t.Errorf("bad SymAddrConst: %+v", data.SymbolicExpressions[0])
	}
	d, ok := data.SymbolicExpressions[8].(*SymAddrAddr)
	if !ok || d.Symbol2 != m.Symbols[3] || d.Scale != 1 {
		t.Errorf("bad SymAddrAddr: %+v", data.SymbolicExpressions[8])
	}

	if m.Symbols[1].Kind != SymbolUndefined {
		t.Errorf("puts should be undefined")
	}
	if m.Aux.SymbolForwarding[m.Symbols[2]] != m.Symbols[1] {
		t.Errorf("forwarding not resolved")
	}
	if m.Aux.Alignment[4096] != 16 || m.Aux.Encodings[8192] != "string" {
		t.Errorf("aux tables not loaded: %+v", m.Aux)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, doc string
	}{
		{"BadJSON", `{"name": `},
		{"UnknownField", `{"bogus": 1}`},
		{"BadHex", `{"sections": [{"name": "x", "contents": "zz"}]}`},
		{"BadSymbolRef", `{"sections": [{"name": "x", "size": 8, "symbolicExpressions": [{"at": 0, "symbol": 9}]}]}`},
		{"BlockOverrun", `{"sections": [{"name": "x", "size": 4, "blocks": [{"kind": "data", "offset": 2, "size": 4}]}]}`},
		{"BadAttr", `{"symbols": [{"name": "a"}], "sections": [{"name": "x", "size": 8, "symbolicExpressions": [{"at": 0, "symbol": 0, "attributes": ["NOPE"]}]}]}`},
	}
	for _, tt := range tests {
		_, err := Load(strings.NewReader(tt.doc))
		if !errors.Is(err, ErrBadIR) {
			t.Errorf("[%s] expected ErrBadIR, got %v", tt.name, err)
		}
	}
}

func TestAttributeSet(t *testing.T) {
	s := Attrs(AttrPLT, AttrGOT)
	if !s.Has(AttrPLT) || !s.Has(AttrGOT) || s.Has(AttrTPOFF) {
		t.Errorf("membership wrong for %b", s)
	}
	list := s.List()
	if len(list) != 2 || list[0] != AttrGOT || list[1] != AttrPLT {
		t.Errorf("List() = %v", list)
	}
	if a, err := ParseAttribute("gotpcrel"); err != nil || a != AttrGOTPCREL {
		t.Errorf("ParseAttribute: %v %v", a, err)
	}
}

func TestSortedFunctionEntries(t *testing.T) {
	aux := AuxData{FunctionEntries: []Addr{0x30, 0x10, 0x20, 0x10}}
	got := aux.SortedFunctionEntries()
	want := []Addr{0x10, 0x20, 0x30}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}
