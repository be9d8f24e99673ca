package printer

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/ir"
)

// testProfile is a minimal GNU-like dialect.
type testProfile struct{}

func (testProfile) Syntax() Syntax {
	return Syntax{Comment: "#", PointerSize: 8, MaxAlignment: 16, DisplacementFirst: true, CFI: true}
}

func (testProfile) Header(*ir.Module) string { return ".syntax test\n" }
func (testProfile) Footer(*ir.Module) string { return ".end\n" }
func (testProfile) SectionHeader(s *ir.Section) string { return ".section " + s.Name + "\n" }
func (testProfile) SectionFooter(*ir.Section) string { return "" }
func (testProfile) Align(n uint64) string { return fmt.Sprintf(".align %d\n", n) }
func (testProfile) UndefinedSymbol(string) string { return "" }
func (testProfile) AddressLabel(a ir.Addr) string { return fmt.Sprintf(".L_%x", uint64(a)) }
func (testProfile) EscapeName(name string) string { return name }
func (testProfile) Byte(b byte) string { return fmt.Sprintf(".byte 0x%02x", b) }
func (testProfile) Zero(n uint64) string { return fmt.Sprintf(".zero %d", n) }
func (testProfile) SymExprPrefix(ir.AttributeSet, bool) string { return "" }

func (testProfile) FunctionHeader(name string, _ *ir.Symbol) string {
	return ".type " + name + ", @function\n"
}

func (testProfile) FunctionFooter(name string) string {
	return ".size " + name + ", .-" + name + "\n"
}

func (testProfile) DefineSymbol(name string, sym *ir.Symbol) string {
	if sym != nil && sym.Global {
		return ".globl " + name + "\n" + name + ":\n"
	}
	return name + ":\n"
}

func (testProfile) DefineRelative(name string, delta uint64) string {
	return fmt.Sprintf(".set %s, . + %d\n", name, delta)
}

func (testProfile) IntegralSymbol(name string, value uint64) string {
	return fmt.Sprintf(".set %s, %#x\n", name, value)
}

func (testProfile) Data(size int, expr string) (string, bool) {
	switch size {
	case 4:
		return ".long " + expr, true
	case 8:
		return ".quad " + expr, true
	}
	return "", false
}

func (testProfile) String(text []byte, terminated bool) (string, bool) {
	if terminated {
		return ".string " + strconv.Quote(string(text)), true
	}
	return ".ascii " + strconv.Quote(string(text)), true
}

func (testProfile) CFI(d ir.CFIDirective, symbol string) string {
	ops := make([]string, 0, len(d.Operands)+1)
	for _, o := range d.Operands {
		ops = append(ops, strconv.FormatInt(o, 10))
	}
	if symbol != "" {
		ops = append(ops, symbol)
	}
	return strings.TrimSpace(d.Directive + " " + strings.Join(ops, ", "))
}

func (testProfile) SymExprSuffix(attrs ir.AttributeSet, _ bool) string {
	if attrs.Has(ir.AttrPLT) {
		return "@PLT"
	}
	return ""
}

func (testProfile) Fixup(inst decoder.Instruction) decoder.Instruction { return inst.Clone() }

func (testProfile) Register(_ decoder.Instruction, op decoder.Operand) string { return op.Reg }

func (testProfile) Immediate(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	if symbolic != "" {
		return symbolic
	}
	return fmt.Sprintf("%#x", op.Value)
}

func (testProfile) Indirect(_ decoder.Instruction, op decoder.Operand, symbolic string) string {
	if symbolic != "" {
		return "[" + symbolic + "]"
	}
	return fmt.Sprintf("[%#x]", op.Mem.Disp)
}

func (testProfile) Instruction(inst decoder.Instruction, operands []string) string {
	if len(operands) == 0 {
		return "\t" + inst.Mnemonic
	}
	return "\t" + inst.Mnemonic + " " + strings.Join(operands, ", ")
}

// testDecode understands four opcodes: 90 nop, c3 ret, e8 call rel32 and
// b8 mov r0, imm32.
func testDecode(code []byte, addr uint64, _ int) (decoder.Instruction, error) {
	if len(code) == 0 {
		return decoder.Instruction{}, decoder.ErrDecode
	}
	inst := decoder.Instruction{Address: addr, Size: 1}
	switch code[0] {
	case 0x90:
		inst.Mnemonic = "nop"
	case 0xC3:
		inst.Mnemonic = "ret"
	case 0xE8, 0xB8:
		if len(code) < 5 {
			return decoder.Instruction{}, fmt.Errorf("%w: short operand", decoder.ErrDecode)
		}
		v := int64(int32(binary.LittleEndian.Uint32(code[1:])))
		inst.Size = 5
		if code[0] == 0xE8 {
			inst.Mnemonic = "call"
			inst.Operands = []decoder.Operand{{Kind: decoder.OperandBranch, Value: int64(addr) + 5 + v}}
		} else {
			inst.Mnemonic = "mov"
			inst.Operands = []decoder.Operand{
				{Kind: decoder.OperandRegister, Reg: "r0"},
				{Kind: decoder.OperandImmediate, Value: v},
			}
		}
	default:
		return decoder.Instruction{}, fmt.Errorf("%w: opcode %#02x", decoder.ErrDecode, code[0])
	}
	return inst, nil
}

func testFactory() *ProfileFactory {
	f := &ProfileFactory{
		NewProfile: func(*ir.Module) Profile { return testProfile{} },
		NewDecoder: func(*ir.Module) decoder.Decoder { return decoder.Func(testDecode) },
	}
	f.RegisterNamedPolicy("nohelper", Policy{SkipFunctions: NewStringSet("helper")})
	return f
}

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register([]string{"fmtA"}, []string{"isaX"}, []string{"syn1"}, testFactory(), true)
	return r
}

// testModule has main calling helper in .text, and a pointer to main
// followed by eight zero bytes in .data.
//
//	0x1000 main:   nop; call helper; ret; nop
//	0x1008 helper: ret
//	0x2000 table:  .quad main
//	0x2008 buf:    .zero 8
func testModule() *ir.Module {
	text := &ir.Section{
		Name:     ".text",
		Address:  0x1000,
		Size:     9,
		Contents: []byte{0x90, 0xE8, 0x02, 0x00, 0x00, 0x00, 0xC3, 0x90, 0xC3},
		Flags:    ir.SectionLoaded | ir.SectionExecutable | ir.SectionInitialized,
	}
	text.AddBlock(ir.CodeBlock, 0, 8)
	text.AddBlock(ir.CodeBlock, 8, 1)

	data := &ir.Section{
		Name:     ".data",
		Address:  0x2000,
		Size:     16,
		Contents: make([]byte, 16),
		Flags:    ir.SectionLoaded | ir.SectionWritable | ir.SectionInitialized,
	}
	data.AddBlock(ir.DataBlock, 0, 8)
	data.AddBlock(ir.DataBlock, 8, 8)
	data.Contents[1] = 0x10 // 0x1000, little endian

	main := &ir.Symbol{Name: "main", Address: 0x1000, Global: true}
	helper := &ir.Symbol{Name: "helper", Address: 0x1008}
	table := &ir.Symbol{Name: "table", Address: 0x2000}
	buf := &ir.Symbol{Name: "buf", Address: 0x2008}

	text.AddSymbolicExpression(2, &ir.SymAddrConst{Symbol: helper})
	data.AddSymbolicExpression(0, &ir.SymAddrConst{Symbol: main})

	return &ir.Module{
		Name:       "test",
		FileFormat: "fmtA",
		ISA:        "isaX",
		Sections:   []*ir.Section{data, text},
		Symbols:    []*ir.Symbol{main, helper, table, buf},
		Aux: ir.AuxData{
			FunctionEntries:    []ir.Addr{0x1008, 0x1000},
			FunctionLastBlocks: []ir.Addr{0x1000, 0x1008},
		},
	}
}

func symbolNamed(m *ir.Module, name string) *ir.Symbol {
	for _, s := range m.Symbols {
		if s.Name == name {
			return s
		}
	}
	return nil
}

const testModuleAsm = `.syntax test
.section .text
.align 16
.type main, @function
.globl main
main:
	nop
	call helper
	ret
	nop
.size main, .-main
.align 8
.type helper, @function
helper:
	ret
.size helper, .-helper
.section .data
.align 16
table:
.quad main
buf:
.zero 8
.end
`
