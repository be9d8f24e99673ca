// Package x86 decodes x86 and x86-64 machine code with x86asm.
package x86

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/Urethramancer/pprinter/decoder"
)

// Decoder decodes one processor mode: 32 or 64.
type Decoder struct {
	Mode int
}

// New returns a decoder for the given mode in bits.
func New(mode int) *Decoder {
	return &Decoder{Mode: mode}
}

// Decode implements decoder.Decoder.
func (d *Decoder) Decode(code []byte, addr uint64, _ int) (decoder.Instruction, error) {
	inst, err := x86asm.Decode(code, d.Mode)
	if err != nil {
		return decoder.Instruction{}, fmt.Errorf("%w at %#x: %v", decoder.ErrDecode, addr, err)
	}

	out := decoder.Instruction{
		Address:  addr,
		Size:     inst.Len,
		Mnemonic: strings.ToLower(inst.Op.String()),
		Prefixes: prefixes(inst),
		Raw:      inst,
	}
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		out.Operands = append(out.Operands, operand(inst, a, addr))
	}
	return out, nil
}

func prefixes(inst x86asm.Inst) []string {
	var out []string
	for _, p := range inst.Prefix {
		if p == 0 {
			break
		}
		if p&(x86asm.PrefixImplicit|x86asm.PrefixIgnored|x86asm.PrefixInvalid) != 0 {
			continue
		}
		switch p {
		case x86asm.PrefixLOCK:
			out = append(out, "lock")
		case x86asm.PrefixREP:
			out = append(out, "rep")
		case x86asm.PrefixREPN:
			out = append(out, "repne")
		}
	}
	return out
}

func operand(inst x86asm.Inst, a x86asm.Arg, addr uint64) decoder.Operand {
	switch a := a.(type) {
	case x86asm.Reg:
		return decoder.Operand{Kind: decoder.OperandRegister, Reg: RegisterName(a)}
	case x86asm.Imm:
		return decoder.Operand{Kind: decoder.OperandImmediate, Value: int64(a), Size: inst.DataSize / 8}
	case x86asm.Rel:
		target := int64(addr) + int64(inst.Len) + int64(a)
		return decoder.Operand{Kind: decoder.OperandBranch, Value: target}
	case x86asm.Mem:
		m := decoder.Memory{
			Base:       RegisterName(a.Base),
			Index:      RegisterName(a.Index),
			Scale:      int(a.Scale),
			Disp:       a.Disp,
			PCRelative: a.Base == x86asm.RIP || a.Base == x86asm.EIP,
		}
		if a.Segment != 0 {
			m.Segment = RegisterName(a.Segment)
		}
		if m.Base == "" && m.Index == "" {
			m.Mode = decoder.MemAbsolute
		}
		return decoder.Operand{Kind: decoder.OperandMemory, Mem: m, Size: inst.MemBytes}
	}
	return decoder.Operand{Kind: decoder.OperandRaw, Text: strings.ToLower(a.String())}
}

// RegisterName returns the GNU spelling of r, or "" for no register.
func RegisterName(r x86asm.Reg) string {
	if r == 0 {
		return ""
	}
	name := strings.ToLower(r.String())
	if len(name) < 2 || !isDigits(name[1:]) {
		return name
	}
	switch name[0] {
	case 'x':
		return "xmm" + name[1:]
	case 'm':
		return "mm" + name[1:]
	case 'f':
		return "st(" + name[1:] + ")"
	}
	return name
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// GNUMnemonic returns the AT&T mnemonic x86asm would print for inst,
// skipping any prefixes in front of it and dropping branch hints.
func GNUMnemonic(inst x86asm.Inst) string {
	text := x86asm.GNUSyntax(inst, 0, nil)
	for _, tok := range strings.Fields(text) {
		if !gnuPrefixes[tok] {
			mn, _, _ := strings.Cut(tok, ",")
			return mn
		}
	}
	return strings.ToLower(inst.Op.String())
}

var gnuPrefixes = map[string]bool{
	"lock": true, "rep": true, "repz": true, "repnz": true, "repe": true, "repne": true,
	"data16": true, "data32": true, "addr16": true, "addr32": true, "rex": true, "rex.w": true,
	"cs": true, "ds": true, "es": true, "fs": true, "gs": true, "ss": true,
	"bnd": true, "xacquire": true, "xrelease": true, "pt": true, "pn": true,
}

// GoSyntax formats inst in Go assembler syntax, resolving addresses through
// lookup.
func GoSyntax(inst x86asm.Inst, pc uint64, lookup func(uint64) (string, uint64)) string {
	return x86asm.GoSyntax(inst, pc, lookup)
}
