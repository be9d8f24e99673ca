// Package targets holds the assembler dialects pprint can produce and
// installs them into a printer.Registry.
package targets

import (
	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/decoder/arm64"
	"github.com/Urethramancer/pprinter/decoder/m68k"
	"github.com/Urethramancer/pprinter/decoder/x86"
	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

// Syntax names.
const (
	SyntaxIntel    = "intel"
	SyntaxATT      = "att"
	SyntaxGo       = "go"
	SyntaxMASM     = "masm"
	SyntaxGNU      = "gnu"
	SyntaxMotorola = "mot"
)

// Register installs every supported target into r.
func Register(r *printer.Registry) {
	elf := []string{printer.FormatELF}
	x86s := []string{printer.ISAX64, printer.ISAIA32}
	x64 := []string{printer.ISAX64}

	r.Register(elf, x86s, []string{SyntaxIntel}, newFactory(newIntel, x86Decoder, elfPolicies), true)
	r.Register(elf, x86s, []string{SyntaxATT}, newFactory(newATT, x86Decoder, elfPolicies), false)
	r.Register(elf, x64, []string{SyntaxGo}, newFactory(newPlan9, x86Decoder, elfPolicies), false)
	r.Register([]string{printer.FormatMachO}, x64, []string{SyntaxATT}, newFactory(newATT, x86Decoder, machoPolicies), true)
	r.Register([]string{printer.FormatPE}, x86s, []string{SyntaxMASM}, newFactory(newMASM, x86Decoder, pePolicies), true)
	r.Register(elf, []string{printer.ISAARM64}, []string{SyntaxGNU}, newFactory(newAArch64, arm64Decoder, elfPolicies), true)
	r.Register([]string{printer.FormatELF, printer.FormatRaw}, []string{printer.ISAM68K}, []string{SyntaxMotorola},
		newFactory(newMotorola, m68kDecoder, m68kPolicies), true)
}

// NewRegistry returns a registry holding every supported target.
func NewRegistry() *printer.Registry {
	r := printer.NewRegistry()
	Register(r)
	return r
}

func newFactory(
	profile func(*ir.Module) printer.Profile,
	dec func(*ir.Module) decoder.Decoder,
	policies func(*printer.ProfileFactory),
) *printer.ProfileFactory {
	f := &printer.ProfileFactory{NewProfile: profile, NewDecoder: dec}
	policies(f)
	return f
}

func x86Decoder(m *ir.Module) decoder.Decoder {
	if printer.ModuleISA(m) == printer.ISAIA32 {
		return x86.New(32)
	}
	return x86.New(64)
}

func arm64Decoder(*ir.Module) decoder.Decoder {
	return arm64.New()
}

func m68kDecoder(*ir.Module) decoder.Decoder {
	return m68k.New()
}
