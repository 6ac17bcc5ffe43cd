// Package nodetype models the category (node type) hierarchy and derives
// the set of categories whose subtrees a split must keep whole.
package nodetype

import (
	"sort"
)

// Info is the hierarchy view of one category: the categories directly
// derived from it.
type Info struct {
	Name              string
	PrimarySubtypes   []string
	AuxiliarySubtypes []string
}

// Provider resolves a category name to its hierarchy entry.
// ok is false when the name is unknown.
type Provider interface {
	Lookup(name string) (info Info, ok bool)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(name string) (Info, bool)

// Lookup implements Provider.
func (f ProviderFunc) Lookup(name string) (Info, bool) { return f(name) }

// Definition declares a category the way node type files do: by naming its
// supertypes. Auxiliary (mixin) categories are flagged.
type Definition struct {
	Name       string   `yaml:"name" json:"name"`
	Auxiliary  bool     `yaml:"mixin,omitempty" json:"mixin,omitempty"`
	Supertypes []string `yaml:"supertypes,omitempty" json:"supertypes,omitempty"`
}

// Registry is an in-memory Provider built from definitions.
// It is not safe for concurrent mutation; Lookup may run concurrently
// once all definitions are added.
type Registry struct {
	defined map[string]bool
	primary map[string][]string
	aux     map[string][]string
}

// NewRegistry creates a registry holding defs.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{
		defined: make(map[string]bool),
		primary: make(map[string][]string),
		aux:     make(map[string][]string),
	}
	for _, d := range defs {
		r.Define(d)
	}
	return r
}

// Define adds d and records it as a subtype of each of its supertypes.
// Redefining a name adds further supertypes; it never removes any.
func (r *Registry) Define(d Definition) {
	if d.Name == "" {
		return
	}
	r.defined[d.Name] = true
	for _, super := range d.Supertypes {
		if d.Auxiliary {
			r.aux[super] = appendUnique(r.aux[super], d.Name)
		} else {
			r.primary[super] = appendUnique(r.primary[super], d.Name)
		}
	}
}

// Lookup implements Provider. Subtype lists are sorted.
func (r *Registry) Lookup(name string) (Info, bool) {
	if !r.defined[name] {
		return Info{}, false
	}
	return Info{
		Name:              name,
		PrimarySubtypes:   sortedCopy(r.primary[name]),
		AuxiliarySubtypes: sortedCopy(r.aux[name]),
	}, true
}

// Names returns every defined category, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defined))
	for n := range r.defined {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of defined categories.
func (r *Registry) Len() int { return len(r.defined) }

func appendUnique(list []string, name string) []string {
	for _, v := range list {
		if v == name {
			return list
		}
	}
	return append(list, name)
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
