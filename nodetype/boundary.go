package nodetype

import (
	"sort"
	"sync"
)

// RuleSource yields the categories an indexing configuration names: the
// keys of its aggregate rules and the base category of each indexing rule.
type RuleSource interface {
	AggregateTypes() []string
	RuleBaseTypes() []string
}

// Set is a set of category names.
type Set map[string]struct{}

// NewSet creates a set holding names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports whether name is in the set. A nil set contains nothing.
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names.
func (s Set) Len() int { return len(s) }

// Sorted returns the names in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Resolve computes the protected categories: every seed named by sources
// plus every primary and auxiliary subtype reachable from it. Names the
// provider cannot resolve are left out and reported in unresolved (sorted).
//
// The subtype graph is walked with an explicit work list and a visited set,
// so cycles and deep hierarchies are harmless.
func Resolve(p Provider, sources ...RuleSource) (protected Set, unresolved []string) {
	var seeds []string
	for _, src := range sources {
		if src == nil {
			continue
		}
		seeds = append(seeds, src.AggregateTypes()...)
		seeds = append(seeds, src.RuleBaseTypes()...)
	}

	protected = make(Set)
	visited := make(map[string]bool, len(seeds))
	missing := make(Set)

	stack := make([]string, 0, len(seeds))
	for i := len(seeds) - 1; i >= 0; i-- {
		stack = append(stack, seeds[i])
	}

	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[name] {
			continue
		}
		visited[name] = true

		info, ok := p.Lookup(name)
		if !ok {
			missing[name] = struct{}{}
			continue
		}
		protected[name] = struct{}{}

		for _, sub := range info.AuxiliarySubtypes {
			if !visited[sub] {
				stack = append(stack, sub)
			}
		}
		for _, sub := range info.PrimarySubtypes {
			if !visited[sub] {
				stack = append(stack, sub)
			}
		}
	}

	return protected, missing.Sorted()
}

// Resolver computes the protected set once and serves it afterwards.
type Resolver struct {
	provider Provider
	sources  []RuleSource

	once       sync.Once
	protected  Set
	unresolved []string
}

// NewResolver creates a Resolver over the given provider and sources.
func NewResolver(p Provider, sources ...RuleSource) *Resolver {
	return &Resolver{provider: p, sources: sources}
}

func (r *Resolver) resolve() {
	r.once.Do(func() {
		r.protected, r.unresolved = Resolve(r.provider, r.sources...)
	})
}

// Protected returns the cached protected set.
func (r *Resolver) Protected() Set {
	r.resolve()
	return r.protected
}

// Unresolved returns the names the provider could not resolve.
func (r *Resolver) Unresolved() []string {
	r.resolve()
	return r.unresolved
}
