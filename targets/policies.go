package targets

import (
	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
)

// Named policies.
const (
	PolicyDynamic  = "dynamic"
	PolicyStatic   = "static"
	PolicyComplete = "complete"
	PolicyStandard = "standard"
)

// ELF startup code the C toolchain links in again on reassembly.
var elfStartFunctions = []string{
	"_start", "deregister_tm_clones", "register_tm_clones", "__do_global_dtors_aux",
	"frame_dummy", "__libc_csu_fini", "__libc_csu_init", "_dl_relocate_static_pie",
}

var elfStartSymbols = []string{
	"_IO_stdin_used", "__data_start", "__dso_handle", "__TMC_END__",
	"_edata", "__bss_start", "_end",
}

// ELF sections the linker regenerates.
var elfLinkerSections = []string{
	".comment", ".plt", ".init", ".fini", ".got", ".plt.got", ".got.plt", ".plt.sec",
	".eh_frame_hdr", ".eh_frame", ".rela.dyn", ".rela.plt", ".dynamic", ".dynsym",
	".dynstr", ".gnu.version", ".gnu.version_r", ".gnu.hash", ".note.gnu.build-id",
	".note.ABI-tag", ".interp", ".symtab", ".strtab", ".shstrtab",
}

var elfArraySections = []string{".init_array", ".fini_array"}

func elfPolicies(f *printer.ProfileFactory) {
	f.RegisterNamedPolicy(PolicyDynamic, printer.Policy{
		SkipFunctions: printer.NewStringSet(elfStartFunctions...),
		SkipSymbols:   printer.NewStringSet(elfStartSymbols...),
		SkipSections:  printer.NewStringSet(elfLinkerSections...),
		ArraySections: printer.NewStringSet(elfArraySections...),
	})

	// Static binaries carry their own startup code, so it is kept and the
	// C runtime's is left out at link time.
	static := f.FindRegisteredNamedPolicy(PolicyDynamic).Clone()
	static.SkipFunctions = printer.NewStringSet()
	static.CompilerArguments = printer.NewStringSet("-nostartfiles")
	f.RegisterNamedPolicy(PolicyStatic, static)

	f.RegisterNamedPolicy(PolicyComplete, printer.Policy{
		ArraySections:     printer.NewStringSet(elfArraySections...),
		CompilerArguments: printer.NewStringSet("-nostartfiles", "-nodefaultlibs"),
	})
	f.SelectDefault = elfDefault
}

func elfDefault(m *ir.Module) string {
	if m.HasBinaryType("STATIC") {
		return PolicyStatic
	}
	return PolicyDynamic
}

func pePolicies(f *printer.ProfileFactory) {
	f.RegisterNamedPolicy(PolicyStandard, printer.Policy{
		SkipSections: printer.NewStringSet(".reloc"),
	})
	f.RegisterNamedPolicy(PolicyComplete, printer.Policy{})
	f.SelectDefault = standardDefault
}

func machoPolicies(f *printer.ProfileFactory) {
	f.RegisterNamedPolicy(PolicyStandard, printer.Policy{
		SkipSymbols: printer.NewStringSet("__mh_execute_header", "dyld_stub_binder"),
		SkipSections: printer.NewStringSet(
			"__stubs", "__stub_helper", "__got", "__la_symbol_ptr",
			"__nl_symbol_ptr", "__unwind_info", "__eh_frame",
		),
		ArraySections: printer.NewStringSet("__mod_init_func", "__mod_term_func"),
	})
	f.RegisterNamedPolicy(PolicyComplete, printer.Policy{
		ArraySections: printer.NewStringSet("__mod_init_func", "__mod_term_func"),
	})
	f.SelectDefault = standardDefault
}

// m68k images are printed whole; there is no runtime to strip.
func m68kPolicies(f *printer.ProfileFactory) {
	f.RegisterNamedPolicy(PolicyComplete, printer.Policy{})
}

func standardDefault(*ir.Module) string {
	return PolicyStandard
}
