package printer

import (
	"slices"
	"strings"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/ir"
	"github.com/samber/lo"
)

// DefaultPolicyName always resolves, to the factory's DefaultPolicy.
const DefaultPolicyName = "default"

// NamedPolicy pairs a policy with the name users select it by.
type NamedPolicy struct {
	Name   string
	Policy Policy
}

// Factory builds engines for one target and owns its named policies.
type Factory interface {
	// DefaultPolicy returns the policy used when none is named.
	DefaultPolicy(m *ir.Module) Policy
	// Build returns a single-use engine printing m under p.
	Build(ctx *Context, m *ir.Module, p Policy) *Engine
	// NamedPolicies lists the registered policies sorted by name.
	NamedPolicies() []NamedPolicy
	// FindNamedPolicy looks up a registered policy.
	FindNamedPolicy(name string) (Policy, bool)
}

// PolicyTable holds named policies. Register and deregister only while the
// owning factory is being set up.
type PolicyTable struct {
	policies map[string]*Policy
}

// RegisterNamedPolicy adds or replaces a named policy.
func (t *PolicyTable) RegisterNamedPolicy(name string, p Policy) {
	if t.policies == nil {
		t.policies = make(map[string]*Policy)
	}
	t.policies[name] = &p
}

// DeregisterNamedPolicy removes a named policy if present.
func (t *PolicyTable) DeregisterNamedPolicy(name string) {
	delete(t.policies, name)
}

// FindRegisteredNamedPolicy returns a pointer to the stored policy so setup
// code can adjust it in place, or nil.
func (t *PolicyTable) FindRegisteredNamedPolicy(name string) *Policy {
	return t.policies[name]
}

// FindNamedPolicy returns a copy of the named policy.
func (t *PolicyTable) FindNamedPolicy(name string) (Policy, bool) {
	p, ok := t.policies[name]
	if !ok {
		return Policy{}, false
	}
	return p.Clone(), true
}

// NamedPolicies returns every registered policy sorted by name.
func (t *PolicyTable) NamedPolicies() []NamedPolicy {
	out := lo.MapToSlice(t.policies, func(name string, p *Policy) NamedPolicy {
		return NamedPolicy{Name: name, Policy: p.Clone()}
	})
	slices.SortFunc(out, func(a, b NamedPolicy) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// ProfileFactory is a Factory that pairs a Profile with a Decoder.
type ProfileFactory struct {
	PolicyTable
	NewProfile func(m *ir.Module) Profile
	NewDecoder func(m *ir.Module) decoder.Decoder
	// SelectDefault names the registered policy DefaultPolicy returns.
	// When nil or the name is missing, an empty policy is used.
	SelectDefault func(m *ir.Module) string
}

// DefaultPolicy implements Factory.
func (f *ProfileFactory) DefaultPolicy(m *ir.Module) Policy {
	if f.SelectDefault != nil {
		if p, ok := f.FindNamedPolicy(f.SelectDefault(m)); ok {
			return p
		}
	}
	return Policy{}
}

// Build implements Factory.
func (f *ProfileFactory) Build(ctx *Context, m *ir.Module, p Policy) *Engine {
	return NewEngine(ctx, m, p, f.NewProfile(m), f.NewDecoder(m))
}
