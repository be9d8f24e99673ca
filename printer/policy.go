package printer

import (
	"slices"

	"github.com/samber/lo"
)

// StringSet is an unordered set of names.
type StringSet map[string]struct{}

// NewStringSet returns a set holding items.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set. A nil set is empty.
func (s StringSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order.
func (s StringSet) Sorted() []string {
	keys := lo.Keys(s)
	slices.Sort(keys)
	return keys
}

// Clone returns an independent copy.
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// DebugStyle selects whether debugging annotations are printed.
type DebugStyle int

const (
	// NoDebug prints plain assembly.
	NoDebug DebugStyle = iota
	// DebugMessages adds addresses and side-table comments.
	DebugMessages
)

// Policy controls what a print pass omits.
type Policy struct {
	// SkipFunctions are functions whose blocks and labels are not printed.
	SkipFunctions StringSet
	// SkipSymbols are symbols whose labels are not printed.
	SkipSymbols StringSet
	// SkipSections are sections that are not printed.
	SkipSections StringSet
	// ArraySections hold pointer arrays that the toolchain regenerates;
	// they are 8-byte aligned and entries pointing at skipped functions
	// are dropped.
	ArraySections StringSet
	// CompilerArguments are passed through to whatever assembles the output.
	CompilerArguments StringSet
	Debug             DebugStyle
}

// Clone returns a deep copy of p.
func (p Policy) Clone() Policy {
	return Policy{
		SkipFunctions:     p.SkipFunctions.Clone(),
		SkipSymbols:       p.SkipSymbols.Clone(),
		SkipSections:      p.SkipSections.Clone(),
		ArraySections:     p.ArraySections.Clone(),
		CompilerArguments: p.CompilerArguments.Clone(),
		Debug:             p.Debug,
	}
}

// Apply returns a copy of p with the four option sets applied.
func (p Policy) Apply(functions, symbols, sections, arraySections PolicyOptions) Policy {
	out := p.Clone()
	out.SkipFunctions = functions.Apply(p.SkipFunctions)
	out.SkipSymbols = symbols.Apply(p.SkipSymbols)
	out.SkipSections = sections.Apply(p.SkipSections)
	out.ArraySections = arraySections.Apply(p.ArraySections)
	return out
}

// ShouldSkipFunction reports whether the named function is omitted.
func (p Policy) ShouldSkipFunction(name string) bool { return p.SkipFunctions.Has(name) }

// ShouldSkipSymbol reports whether the named symbol's label is omitted.
func (p Policy) ShouldSkipSymbol(name string) bool { return p.SkipSymbols.Has(name) }

// ShouldSkipSection reports whether the named section is omitted.
func (p Policy) ShouldSkipSection(name string) bool { return p.SkipSections.Has(name) }

// IsArraySection reports whether the named section holds a pointer array.
func (p Policy) IsArraySection(name string) bool { return p.ArraySections.Has(name) }

// PolicyOptions adjusts one of a Policy's sets: clear it unless UseDefaults,
// add Skip, then remove Keep. Keep wins over Skip for the same name.
type PolicyOptions struct {
	Skip        StringSet
	Keep        StringSet
	UseDefaults bool
}

// NewPolicyOptions returns options that keep the defaults unchanged.
func NewPolicyOptions() PolicyOptions {
	return PolicyOptions{Skip: StringSet{}, Keep: StringSet{}, UseDefaults: true}
}

// SkipName adds name to the skip set.
func (o *PolicyOptions) SkipName(name string) {
	if o.Skip == nil {
		o.Skip = StringSet{}
	}
	o.Skip[name] = struct{}{}
}

// KeepName adds name to the keep set.
func (o *PolicyOptions) KeepName(name string) {
	if o.Keep == nil {
		o.Keep = StringSet{}
	}
	o.Keep[name] = struct{}{}
}

// Apply returns the result of adjusting base. Base is not modified.
func (o PolicyOptions) Apply(base StringSet) StringSet {
	out := StringSet{}
	if o.UseDefaults {
		out = base.Clone()
	}
	for name := range o.Skip {
		out[name] = struct{}{}
	}
	for name := range o.Keep {
		delete(out, name)
	}
	return out
}
