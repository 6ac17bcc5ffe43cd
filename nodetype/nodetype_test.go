package nodetype

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rules struct {
	aggregates []string
	bases      []string
}

func (r rules) AggregateTypes() []string { return r.aggregates }
func (r rules) RuleBaseTypes() []string  { return r.bases }

func TestRegistry(t *testing.T) {
	reg := NewRegistry(
		Definition{Name: "nt:base"},
		Definition{Name: "nt:hierarchyNode", Supertypes: []string{"nt:base"}},
		Definition{Name: "nt:folder", Supertypes: []string{"nt:hierarchyNode"}},
		Definition{Name: "nt:file", Supertypes: []string{"nt:hierarchyNode"}},
		Definition{Name: "mix:title", Auxiliary: true, Supertypes: []string{"nt:base"}},
	)

	info, ok := reg.Lookup("nt:hierarchyNode")
	require.True(t, ok)
	assert.Equal(t, []string{"nt:file", "nt:folder"}, info.PrimarySubtypes)
	assert.Empty(t, info.AuxiliarySubtypes)

	info, ok = reg.Lookup("nt:base")
	require.True(t, ok)
	assert.Equal(t, []string{"nt:hierarchyNode"}, info.PrimarySubtypes)
	assert.Equal(t, []string{"mix:title"}, info.AuxiliarySubtypes)

	_, ok = reg.Lookup("dam:Asset")
	assert.False(t, ok)

	assert.Equal(t, 5, reg.Len())
	assert.Equal(t, "mix:title", reg.Names()[0])
}

// Every seed has one primary and two auxiliary subtypes; all 5 seeds plus
// their 15 subtypes must be protected.
func TestResolve_Subtypes(t *testing.T) {
	seeds := []string{"testIndexRule1", "testIndexRule2", "testAggregate1", "testAggregate2", "testAggregate3"}

	var defs []Definition
	var want []string
	for _, s := range seeds {
		defs = append(defs,
			Definition{Name: s},
			Definition{Name: s + "TestPrimarySubType", Supertypes: []string{s}},
			Definition{Name: s + "TestMixinSubType1", Auxiliary: true, Supertypes: []string{s}},
			Definition{Name: s + "TestMixinSubType2", Auxiliary: true, Supertypes: []string{s}},
		)
		want = append(want, s, s+"TestPrimarySubType", s+"TestMixinSubType1", s+"TestMixinSubType2")
	}
	reg := NewRegistry(defs...)

	protected, unresolved := Resolve(reg,
		rules{aggregates: []string{"testAggregate1"}, bases: []string{"testIndexRule1"}},
		rules{aggregates: []string{"testAggregate2", "testAggregate3"}, bases: []string{"testIndexRule2"}},
	)

	assert.Empty(t, unresolved)
	assert.Equal(t, 20, protected.Len())
	for _, n := range want {
		assert.True(t, protected.Contains(n), n)
	}
}

func TestResolve_Transitive(t *testing.T) {
	reg := NewRegistry(
		Definition{Name: "a"},
		Definition{Name: "b", Supertypes: []string{"a"}},
		Definition{Name: "c", Supertypes: []string{"b"}},
		Definition{Name: "d", Auxiliary: true, Supertypes: []string{"c"}},
		Definition{Name: "unrelated"},
	)

	protected, _ := Resolve(reg, rules{bases: []string{"a"}})
	assert.Equal(t, []string{"a", "b", "c", "d"}, protected.Sorted())
}

func TestResolve_Unresolved(t *testing.T) {
	reg := NewRegistry(
		Definition{Name: "known"},
		Definition{Name: "ghostChild", Supertypes: []string{"known"}},
	)
	// ghostChild is defined, but "phantom" is only referenced as a subtype.
	p := ProviderFunc(func(name string) (Info, bool) {
		info, ok := reg.Lookup(name)
		if ok && name == "known" {
			info.PrimarySubtypes = append(info.PrimarySubtypes, "phantom")
		}
		return info, ok
	})

	protected, unresolved := Resolve(p, rules{aggregates: []string{"known", "missing"}})
	assert.Equal(t, []string{"ghostChild", "known"}, protected.Sorted())
	assert.Equal(t, []string{"missing", "phantom"}, unresolved)
}

func TestResolve_Cycle(t *testing.T) {
	graph := map[string][]string{
		"x": {"y"},
		"y": {"z"},
		"z": {"x", "y"},
	}
	calls := 0
	p := ProviderFunc(func(name string) (Info, bool) {
		calls++
		subs, ok := graph[name]
		return Info{Name: name, PrimarySubtypes: subs, AuxiliarySubtypes: subs}, ok
	})

	protected, unresolved := Resolve(p, rules{bases: []string{"x", "x"}})
	assert.Equal(t, []string{"x", "y", "z"}, protected.Sorted())
	assert.Empty(t, unresolved)
	assert.Equal(t, 3, calls)
}

func TestResolve_DeepChain(t *testing.T) {
	const depth = 100000
	p := ProviderFunc(func(name string) (Info, bool) {
		var n int
		if _, err := fmt.Sscanf(name, "t%d", &n); err != nil {
			return Info{}, false
		}
		if n == depth {
			return Info{Name: name}, true
		}
		return Info{Name: name, PrimarySubtypes: []string{fmt.Sprintf("t%d", n+1)}}, true
	})

	protected, _ := Resolve(p, rules{bases: []string{"t0"}})
	assert.Equal(t, depth+1, protected.Len())
}

func TestResolve_NoSources(t *testing.T) {
	protected, unresolved := Resolve(NewRegistry(), nil)
	assert.Zero(t, protected.Len())
	assert.Empty(t, unresolved)
}

func TestResolverCaches(t *testing.T) {
	calls := 0
	p := ProviderFunc(func(name string) (Info, bool) {
		calls++
		return Info{Name: name}, true
	})
	r := NewResolver(p, rules{bases: []string{"a", "b"}})

	assert.Equal(t, []string{"a", "b"}, r.Protected().Sorted())
	assert.Equal(t, []string{"a", "b"}, r.Protected().Sorted())
	assert.Empty(t, r.Unresolved())
	assert.Equal(t, 2, calls)
}

func TestLoadYAML(t *testing.T) {
	doc := `
nodeTypes:
  - name: nt:base
  - name: nt:folder
    supertypes: [nt:base]
  - name: mix:versionable
    mixin: true
    supertypes: [nt:base]
`
	reg, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)

	info, ok := reg.Lookup("nt:base")
	require.True(t, ok)
	assert.Equal(t, []string{"nt:folder"}, info.PrimarySubtypes)
	assert.Equal(t, []string{"mix:versionable"}, info.AuxiliarySubtypes)

	_, err = LoadYAML(strings.NewReader("nodeTypes:\n  - supertypes: [a]\n"))
	assert.Error(t, err)

	_, err = LoadYAML(strings.NewReader("nodeTypes:\n  - name: a\n    unknownKey: 1\n"))
	assert.Error(t, err)
}
