package printer

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Urethramancer/pprinter/ir"
	"github.com/samber/lo"
)

// function describes the function containing an address. sym is nil when
// the function has no printable name of its own.
type function struct {
	entry ir.Addr
	name  string
	label string
	sym   *ir.Symbol
}

// containingFunction returns the function with the greatest entry at or
// below a. Addresses before the first entry or past the module have none;
// the last function runs to the end of the module.
func (e *Engine) containingFunction(a ir.Addr) (function, bool) {
	i := sort.Search(len(e.entries), func(i int) bool { return e.entries[i] > a })
	if i == 0 || a >= e.end {
		return function{}, false
	}
	return e.function(e.entries[i-1]), true
}

func (e *Engine) function(entry ir.Addr) function {
	syms := e.symbolsAt[entry]
	if len(syms) == 0 {
		return function{entry: entry, name: fmt.Sprintf("FUN_%d", uint64(entry))}
	}
	s := lo.FindOrElse(syms, syms[0], func(s *ir.Symbol) bool { return s.Global })
	f := function{entry: entry, name: s.Name}
	if !e.policy.ShouldSkipSymbol(s.Name) && !e.isAmbiguous(s.Name) {
		f.sym = s
		f.label = e.profile.EscapeName(s.Name)
	}
	return f
}

func (e *Engine) isAmbiguous(name string) bool {
	return e.nameCount[name] > 1
}

// noteAmbiguous reports the first encounter of an ambiguous symbol's
// address, inline or on its own line.
func (e *Engine) noteAmbiguous(a ir.Addr, inline bool) {
	if e.warned[a] {
		return
	}
	e.warned[a] = true
	format := "ambiguous symbol at %#x printed as %s"
	if inline {
		e.note(format, uint64(a), e.profile.AddressLabel(a))
	} else {
		e.warn(format, uint64(a), e.profile.AddressLabel(a))
	}
}

// symbolReference resolves how a reference to s is spelled. It reports
// false when s is skipped and the caller must print a placeholder.
func (e *Engine) symbolReference(s *ir.Symbol, inline bool) (string, bool) {
	if e.policy.ShouldSkipSymbol(s.Name) {
		return "", false
	}
	if target, ok := e.module.Aux.SymbolForwarding[s]; ok && target != nil {
		s = target
	}
	if s.Kind == ir.SymbolDefined && e.isAmbiguous(s.Name) {
		e.noteAmbiguous(s.Address, inline)
		return e.profile.AddressLabel(s.Address), true
	}
	return e.profile.EscapeName(s.Name), true
}

// reference is symbolReference for use inside an expression.
func (e *Engine) reference(s *ir.Symbol) string {
	if s == nil {
		return e.syntax.Placeholder
	}
	if s.Kind == ir.SymbolDefined && s.Address == 0 {
		e.note("symbolic expression refers to %s at address 0", s.Name)
	}
	name, ok := e.symbolReference(s, true)
	if !ok {
		return e.syntax.Placeholder
	}
	return name
}

func (e *Engine) symbolicExpression(x ir.SymbolicExpression, isNotBranch bool) string {
	attrs := x.Attributes()
	pre := e.profile.SymExprPrefix(attrs, isNotBranch)
	suf := e.profile.SymExprSuffix(attrs, isNotBranch)
	switch x := x.(type) {
	case *ir.SymAddrConst:
		return pre + e.reference(x.Symbol) + addend(x.Offset) + suf
	case *ir.SymAddrAddr:
		diff := e.reference(x.Symbol1) + "-" + e.reference(x.Symbol2)
		if x.Scale > 1 {
			diff = "(" + diff + ")/" + strconv.FormatInt(x.Scale, 10)
		}
		return pre + diff + addend(x.Offset) + suf
	}
	return e.syntax.Placeholder
}

func addend(n int64) string {
	switch {
	case n > 0:
		return "+" + strconv.FormatInt(n, 10)
	case n < 0:
		return strconv.FormatInt(n, 10)
	}
	return ""
}

// defineSymbol prints the label for s, or the address label standing in
// for an ambiguous name.
func (e *Engine) defineSymbol(s *ir.Symbol) {
	if e.policy.ShouldSkipSymbol(s.Name) {
		return
	}
	if !e.isAmbiguous(s.Name) {
		e.write(e.profile.DefineSymbol(e.profile.EscapeName(s.Name), s))
		return
	}
	if e.addressLabels[s.Address] {
		return
	}
	e.addressLabels[s.Address] = true
	e.noteAmbiguous(s.Address, false)
	e.write(e.profile.DefineSymbol(e.profile.AddressLabel(s.Address), nil))
}

// defineSymbols prints labels for symbols at a and relative definitions
// for those strictly inside (a, end).
func (e *Engine) defineSymbols(a, end ir.Addr) {
	for _, s := range e.symbolsAt[a] {
		e.defineSymbol(s)
	}
	i := sort.Search(len(e.symbolAddrs), func(i int) bool { return e.symbolAddrs[i] > a })
	for ; i < len(e.symbolAddrs) && e.symbolAddrs[i] < end; i++ {
		at := e.symbolAddrs[i]
		for _, s := range e.symbolsAt[at] {
			if e.policy.ShouldSkipSymbol(s.Name) {
				continue
			}
			name := e.profile.EscapeName(s.Name)
			if e.isAmbiguous(s.Name) {
				if e.addressLabels[at] {
					continue
				}
				e.addressLabels[at] = true
				e.noteAmbiguous(at, false)
				name = e.profile.AddressLabel(at)
			}
			e.write(e.profile.DefineRelative(name, uint64(at-a)))
		}
	}
}

// hasSymbolsIn reports whether any symbol lies strictly inside (a, end).
func (e *Engine) hasSymbolsIn(a, end ir.Addr) bool {
	i := sort.Search(len(e.symbolAddrs), func(i int) bool { return e.symbolAddrs[i] > a })
	return i < len(e.symbolAddrs) && e.symbolAddrs[i] < end
}

// lookup serves InstructionFormatter profiles.
func (e *Engine) lookup(addr uint64) (string, uint64) {
	for _, s := range e.symbolsAt[ir.Addr(addr)] {
		if name, ok := e.symbolReference(s, true); ok {
			return name, addr
		}
	}
	return "", 0
}

// refersToSkippedFunction reports whether x points at a function that the
// policy omits, so an array entry holding it must go too.
func (e *Engine) refersToSkippedFunction(x ir.SymbolicExpression) bool {
	for _, s := range x.Symbols() {
		if s == nil {
			continue
		}
		if e.policy.ShouldSkipFunction(s.Name) {
			return true
		}
		if s.Kind != ir.SymbolDefined {
			continue
		}
		if fn, ok := e.containingFunction(s.Address); ok && fn.entry == s.Address && e.policy.ShouldSkipFunction(fn.name) {
			return true
		}
	}
	return false
}
