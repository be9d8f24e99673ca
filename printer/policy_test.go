package printer

import (
	"slices"
	"testing"
)

func TestPolicyOptionsApply(t *testing.T) {
	base := NewStringSet("a", "b")
	tests := []struct {
		name string
		opts PolicyOptions
		want []string
	}{
		{"Defaults", NewPolicyOptions(), []string{"a", "b"}},
		{"SkipWithoutDefaults", PolicyOptions{Skip: NewStringSet("a")}, []string{"a"}},
		{"KeepWithDefaults", PolicyOptions{Keep: NewStringSet("a"), UseDefaults: true}, []string{"b"}},
		{"SkipAdds", PolicyOptions{Skip: NewStringSet("c"), UseDefaults: true}, []string{"a", "b", "c"}},
		{"KeepWins", PolicyOptions{Skip: NewStringSet("c"), Keep: NewStringSet("c"), UseDefaults: true}, []string{"a", "b"}},
		{"ClearAll", PolicyOptions{}, []string{}},
	}
	for _, tt := range tests {
		got := tt.opts.Apply(base).Sorted()
		if !slices.Equal(got, tt.want) {
			t.Errorf("[%s] got %v, want %v", tt.name, got, tt.want)
		}
	}
	if !slices.Equal(base.Sorted(), []string{"a", "b"}) {
		t.Errorf("Apply modified its input: %v", base.Sorted())
	}
}

func TestPolicyApply(t *testing.T) {
	p := Policy{
		SkipFunctions:     NewStringSet("_start"),
		SkipSections:      NewStringSet(".plt"),
		ArraySections:     NewStringSet(".init_array"),
		CompilerArguments: NewStringSet("-nostartfiles"),
		Debug:             DebugMessages,
	}
	fn := NewPolicyOptions()
	fn.KeepName("_start")
	sec := NewPolicyOptions()
	sec.SkipName(".comment")

	out := p.Apply(fn, NewPolicyOptions(), sec, PolicyOptions{})
	if out.ShouldSkipFunction("_start") {
		t.Error("kept function still skipped")
	}
	if !out.ShouldSkipSection(".plt") || !out.ShouldSkipSection(".comment") {
		t.Errorf("section set wrong: %v", out.SkipSections.Sorted())
	}
	if out.IsArraySection(".init_array") {
		t.Error("array sections should have been cleared")
	}
	if !out.CompilerArguments.Has("-nostartfiles") || out.Debug != DebugMessages {
		t.Error("untouched fields not carried over")
	}
	if !p.ShouldSkipFunction("_start") {
		t.Error("Apply modified the receiver")
	}
}

func TestPolicyClone(t *testing.T) {
	p := Policy{SkipSymbols: NewStringSet("x")}
	c := p.Clone()
	c.SkipSymbols["y"] = struct{}{}
	if p.ShouldSkipSymbol("y") {
		t.Error("clone shares its sets")
	}
}

func TestPolicyTable(t *testing.T) {
	var tab PolicyTable
	tab.RegisterNamedPolicy("b", Policy{SkipSections: NewStringSet(".b")})
	tab.RegisterNamedPolicy("a", Policy{})
	tab.RegisterNamedPolicy("gone", Policy{})
	tab.DeregisterNamedPolicy("gone")

	var names []string
	for _, np := range tab.NamedPolicies() {
		names = append(names, np.Name)
	}
	if !slices.Equal(names, []string{"a", "b"}) {
		t.Errorf("got %v", names)
	}
	if tab.FindRegisteredNamedPolicy("gone") != nil {
		t.Error("deregistered policy still found")
	}
	p, ok := tab.FindNamedPolicy("b")
	if !ok || !p.ShouldSkipSection(".b") {
		t.Errorf("lookup failed: %+v %v", p, ok)
	}
	p.SkipSections[".c"] = struct{}{}
	if q, _ := tab.FindNamedPolicy("b"); q.ShouldSkipSection(".c") {
		t.Error("FindNamedPolicy returned shared sets")
	}

	stored := tab.FindRegisteredNamedPolicy("a")
	stored.Debug = DebugMessages
	stored.SkipSymbols = NewStringSet("x")
	if q, _ := tab.FindNamedPolicy("a"); q.Debug != DebugMessages || !q.ShouldSkipSymbol("x") {
		t.Errorf("in-place change to a registered policy was lost: %+v", q)
	}
}
