package printer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// ErrConfiguration is returned when no printer can be resolved for a module:
// an unregistered target triple or an unknown policy name.
var ErrConfiguration = errors.New("printer configuration error")

// Target names a printer by file format, instruction set and syntax.
type Target struct {
	Format string
	ISA    string
	Syntax string
}

func (t Target) String() string {
	return t.Format + "/" + t.ISA + "/" + t.Syntax
}

// ParseTarget parses "format/isa/syntax".
func ParseTarget(s string) (Target, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || slices.Contains(parts, "") {
		return Target{}, fmt.Errorf("%w: target %q is not format/isa/syntax", ErrConfiguration, s)
	}
	return Target{Format: parts[0], ISA: parts[1], Syntax: parts[2]}, nil
}

type formatISA struct {
	format, isa string
}

// Registry maps target triples to factories and tracks the default syntax
// per format and ISA. Register everything before printing starts; the
// registry is not synchronized, so concurrent prints may only read it.
type Registry struct {
	factories map[Target]Factory
	defaults  map[formatISA]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Target]Factory),
		defaults:  make(map[formatISA]string),
	}
}

// Register installs f for every combination of the given formats, ISAs and
// syntaxes, replacing earlier registrations. With isDefault the syntaxes
// also become the default for each format and ISA; when several syntaxes
// are given the last one wins. It returns false and registers nothing when
// a list is empty or f is nil.
func (r *Registry) Register(formats, isas, syntaxes []string, f Factory, isDefault bool) bool {
	if len(formats) == 0 || len(isas) == 0 || len(syntaxes) == 0 || f == nil {
		return false
	}
	for _, format := range formats {
		for _, isa := range isas {
			for _, syntax := range syntaxes {
				r.factories[Target{Format: format, ISA: isa, Syntax: syntax}] = f
				if isDefault {
					r.SetDefaultSyntax(format, isa, syntax)
				}
			}
		}
	}
	return true
}

// Targets returns every registered triple in sorted order.
func (r *Registry) Targets() []Target {
	targets := lo.Keys(r.factories)
	slices.SortFunc(targets, func(a, b Target) int {
		return strings.Compare(a.String(), b.String())
	})
	return targets
}

// SetDefaultSyntax makes syntax the default for format and isa.
func (r *Registry) SetDefaultSyntax(format, isa, syntax string) {
	r.defaults[formatISA{format, isa}] = syntax
}

// DefaultSyntax returns the default syntax for format and isa, if any.
func (r *Registry) DefaultSyntax(format, isa string) (string, bool) {
	s, ok := r.defaults[formatISA{format, isa}]
	return s, ok
}

// IsDefault reports whether t's syntax is the default for its format and ISA.
func (r *Registry) IsDefault(t Target) bool {
	s, ok := r.DefaultSyntax(t.Format, t.ISA)
	return ok && s == t.Syntax
}

// Factory returns the factory registered for t.
func (r *Registry) Factory(t Target) (Factory, error) {
	f, ok := r.factories[t]
	if !ok {
		return nil, fmt.Errorf("%w: no printer registered for %s", ErrConfiguration, t)
	}
	return f, nil
}
