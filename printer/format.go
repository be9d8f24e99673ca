package printer

import (
	"strings"

	"github.com/Urethramancer/pprinter/ir"
)

// Normalized format and ISA names used as registry keys.
const (
	FormatELF       = "elf"
	FormatPE        = "pe"
	FormatMachO     = "macho"
	FormatRaw       = "raw"
	FormatUndefined = "undefined"

	ISAX64       = "x64"
	ISAIA32      = "ia32"
	ISAARM64     = "arm64"
	ISAM68K      = "m68k"
	ISAUndefined = "undefined"
)

var formatAliases = map[string]string{
	"elf":    FormatELF,
	"pe":     FormatPE,
	"coff":   FormatPE,
	"macho":  FormatMachO,
	"mach-o": FormatMachO,
	"raw":    FormatRaw,
	"bin":    FormatRaw,
}

var isaAliases = map[string]string{
	"x64":     ISAX64,
	"x86_64":  ISAX64,
	"amd64":   ISAX64,
	"ia32":    ISAIA32,
	"x86":     ISAIA32,
	"i386":    ISAIA32,
	"arm64":   ISAARM64,
	"aarch64": ISAARM64,
	"m68k":    ISAM68K,
	"68000":   ISAM68K,
}

// ModuleFormat returns the registry name of m's file format. Known aliases
// are normalized; other names pass through unchanged.
func ModuleFormat(m *ir.Module) string {
	return normalize(m.FileFormat, formatAliases, FormatUndefined)
}

// ModuleISA returns the registry name of m's instruction set, normalized
// like ModuleFormat.
func ModuleISA(m *ir.Module) string {
	return normalize(m.ISA, isaAliases, ISAUndefined)
}

func normalize(name string, aliases map[string]string, undefined string) string {
	if name == "" {
		return undefined
	}
	if n, ok := aliases[strings.ToLower(name)]; ok {
		return n
	}
	return name
}
