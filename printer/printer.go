// Package printer turns an ir.Module into assembly text. A Registry maps
// format, ISA and syntax to a Factory; the factory builds a single-use
// Engine that walks the module and defers every target-specific decision
// to a Profile. Printer is the facade tying these together.
package printer

import (
	"fmt"
	"io"
	"slices"

	"github.com/Urethramancer/pprinter/ir"
)

// Printer resolves a target and policy for a module and prints it.
type Printer struct {
	registry *Registry
	target   *Target
	debug    bool

	FunctionPolicy     PolicyOptions
	SymbolPolicy       PolicyOptions
	SectionPolicy      PolicyOptions
	ArraySectionPolicy PolicyOptions
	// CompilerArguments are added to the resolved policy's set.
	CompilerArguments []string
	// PolicyName selects a named policy; "default" uses the factory's
	// DefaultPolicy.
	PolicyName string
}

// New returns a printer using r, with default policies and the target
// derived from each module.
func New(r *Registry) *Printer {
	return &Printer{
		registry:           r,
		FunctionPolicy:     NewPolicyOptions(),
		SymbolPolicy:       NewPolicyOptions(),
		SectionPolicy:      NewPolicyOptions(),
		ArraySectionPolicy: NewPolicyOptions(),
		PolicyName:         DefaultPolicyName,
	}
}

// SetTarget fixes the target instead of deriving it from the module.
func (p *Printer) SetTarget(t Target) {
	p.target = &t
}

// SetFormat fixes format and ISA and uses their default syntax.
func (p *Printer) SetFormat(format, isa string) {
	p.target = &Target{Format: format, ISA: isa}
}

// Target returns the target m would be printed with.
func (p *Printer) Target(m *ir.Module) (Target, error) {
	var t Target
	if p.target != nil {
		t = *p.target
	} else {
		t = Target{Format: ModuleFormat(m), ISA: ModuleISA(m)}
	}
	if t.Syntax == "" {
		s, ok := p.registry.DefaultSyntax(t.Format, t.ISA)
		if !ok {
			return t, fmt.Errorf("%w: no default syntax for %s/%s", ErrConfiguration, t.Format, t.ISA)
		}
		t.Syntax = s
	}
	return t, nil
}

// SetDebug turns debugging annotations on or off.
func (p *Printer) SetDebug(on bool) {
	p.debug = on
}

// Debug reports whether debugging annotations are on.
func (p *Printer) Debug() bool {
	return p.debug
}

func (p *Printer) factory(m *ir.Module) (Factory, error) {
	t, err := p.Target(m)
	if err != nil {
		return nil, err
	}
	return p.registry.Factory(t)
}

// PolicyNames lists the policy names usable with m's target, "default"
// included.
func (p *Printer) PolicyNames(m *ir.Module) ([]string, error) {
	f, err := p.factory(m)
	if err != nil {
		return nil, err
	}
	names := []string{DefaultPolicyName}
	for _, np := range f.NamedPolicies() {
		if np.Name != DefaultPolicyName {
			names = append(names, np.Name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// NamedPolicyExists reports whether name resolves for m's target.
func (p *Printer) NamedPolicyExists(m *ir.Module, name string) bool {
	f, err := p.factory(m)
	if err != nil {
		return false
	}
	if name == DefaultPolicyName {
		return true
	}
	_, ok := f.FindNamedPolicy(name)
	return ok
}

// Policy returns the named policy for m before the option sets are applied.
func (p *Printer) Policy(m *ir.Module) (Policy, error) {
	f, err := p.factory(m)
	if err != nil {
		return Policy{}, err
	}
	return p.policy(f, m)
}

func (p *Printer) policy(f Factory, m *ir.Module) (Policy, error) {
	if p.PolicyName == "" || p.PolicyName == DefaultPolicyName {
		return f.DefaultPolicy(m), nil
	}
	pol, ok := f.FindNamedPolicy(p.PolicyName)
	if !ok {
		return Policy{}, fmt.Errorf("%w: unknown policy %q", ErrConfiguration, p.PolicyName)
	}
	return pol, nil
}

// Print writes m as assembly to w. Configuration errors wrap
// ErrConfiguration and leave w untouched.
func (p *Printer) Print(w io.Writer, ctx *Context, m *ir.Module) error {
	f, err := p.factory(m)
	if err != nil {
		return err
	}
	base, err := p.policy(f, m)
	if err != nil {
		return err
	}

	pol := base.Apply(p.FunctionPolicy, p.SymbolPolicy, p.SectionPolicy, p.ArraySectionPolicy)
	for _, a := range p.CompilerArguments {
		pol.CompilerArguments[a] = struct{}{}
	}
	if p.debug {
		pol.Debug = DebugMessages
	}
	return f.Build(ctx, m, pol).Print(w)
}
