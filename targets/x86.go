package targets

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

// x86Syntax returns the GNU defaults for the module's word size.
func x86Syntax(m *ir.Module, comment string) printer.Syntax {
	s := printer.Syntax{
		Comment:           comment,
		PointerSize:       8,
		MaxAlignment:      16,
		DisplacementFirst: true,
		CFI:               true,
	}
	if printer.ModuleISA(m) == printer.ISAIA32 {
		s.PointerSize = 4
	}
	return s
}

// stringOps print without operands; the operands x86asm reports are the
// implicit rsi/rdi forms.
var stringOps = map[string]bool{
	"movsb": true, "movsw": true, "movsd": true, "movsq": true,
	"cmpsb": true, "cmpsw": true, "cmpsd": true, "cmpsq": true,
	"stosb": true, "stosw": true, "stosd": true, "stosq": true,
	"lodsb": true, "lodsw": true, "lodsd": true, "lodsq": true,
	"scasb": true, "scasw": true, "scasd": true, "scasq": true,
	"insb": true, "insw": true, "insd": true,
	"outsb": true, "outsw": true, "outsd": true,
}

// x86Fixup rewrites decoder artifacts the assemblers reject.
func x86Fixup(inst decoder.Instruction) decoder.Instruction {
	out := inst.Clone()
	if stringOps[out.Mnemonic] {
		out.Operands = nil
		return out
	}
	out.Mnemonic = strings.TrimSuffix(out.Mnemonic, "_xmm")
	if out.Mnemonic == "lea" {
		for i := range out.Operands {
			if out.Operands[i].Kind == decoder.OperandMemory {
				out.Operands[i].Size = 0
			}
		}
	}
	return out
}

func isIndirectBranch(inst decoder.Instruction) bool {
	switch inst.Mnemonic {
	case "call", "jmp", "lcall", "ljmp":
		return true
	}
	return false
}

func withPrefixes(inst decoder.Instruction, mnemonic string) string {
	if len(inst.Prefixes) == 0 {
		return mnemonic
	}
	return strings.Join(inst.Prefixes, " ") + " " + mnemonic
}

// signedHex prints v as 0x1f or -0x1f.
func signedHex(v int64) string {
	if v < 0 {
		return fmt.Sprintf("-%#x", uint64(-v))
	}
	return fmt.Sprintf("%#x", uint64(v))
}

var intelPointerSizes = map[int]string{
	1:  "byte",
	2:  "word",
	4:  "dword",
	6:  "fword",
	8:  "qword",
	10: "tbyte",
	16: "xmmword",
	32: "ymmword",
	64: "zmmword",
}

// intelReserved holds the words Intel syntax would read as registers or
// operators rather than symbols.
var intelReserved = func() map[string]bool {
	words := map[string]bool{
		"byte": true, "word": true, "dword": true, "fword": true, "qword": true,
		"tbyte": true, "oword": true, "xmmword": true, "ymmword": true, "zmmword": true,
		"ptr": true, "offset": true, "flat": true, "short": true, "near": true, "far": true,
		"st": true, "rip": true, "eip": true, "and": true, "or": true, "not": true,
		"shl": true, "shr": true, "mod": true,
	}
	for i := 1; i < 256; i++ {
		name := strings.ToLower(x86asm.Reg(i).String())
		if strings.HasPrefix(name, "reg(") {
			continue
		}
		words[name] = true
	}
	return words
}()
