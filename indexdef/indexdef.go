// Package indexdef holds the indexing configuration a split consults: the
// aggregate rules and indexing rules of every index that will be built from
// the partitions.
package indexdef

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/flatsplit/nodetype"
)

// Rule is an indexing rule; it applies to nodes of BaseType and its subtypes.
type Rule struct {
	BaseType   string   `yaml:"baseType" json:"base_type"`
	Properties []string `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// Definition is one index definition.
type Definition struct {
	Path string `yaml:"path" json:"path"`
	// Aggregates maps a category to the relative node names aggregated
	// into documents of that category.
	Aggregates map[string][]string `yaml:"aggregates,omitempty" json:"aggregates,omitempty"`
	Rules      []Rule              `yaml:"rules,omitempty" json:"rules,omitempty"`
	// RelativeNodeNames are child names property definitions reach into.
	RelativeNodeNames []string `yaml:"relativeNodeNames,omitempty" json:"relative_node_names,omitempty"`
}

var _ nodetype.RuleSource = Definition{}

// AggregateTypes implements nodetype.RuleSource. Keys are sorted.
func (d Definition) AggregateTypes() []string {
	out := make([]string, 0, len(d.Aggregates))
	for k := range d.Aggregates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RuleBaseTypes implements nodetype.RuleSource.
func (d Definition) RuleBaseTypes() []string {
	out := make([]string, 0, len(d.Rules))
	for _, r := range d.Rules {
		if r.BaseType != "" {
			out = append(out, r.BaseType)
		}
	}
	return out
}

// Sources adapts defs for nodetype.Resolve.
func Sources(defs []Definition) []nodetype.RuleSource {
	out := make([]nodetype.RuleSource, len(defs))
	for i, d := range defs {
		out[i] = d
	}
	return out
}

// PreferredPathElements returns the union of every definition's relative
// node names, sorted. Readers of the partitions use it to order children.
func PreferredPathElements(defs []Definition) []string {
	set := make(map[string]struct{})
	for _, d := range defs {
		for _, n := range d.RelativeNodeNames {
			set[n] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// File is the YAML layout of an index definition file:
//
//	indexes:
//	  - path: /oak:index/damAssetLucene
//	    aggregates:
//	      dam:Asset: [jcr:content, jcr:content/metadata]
//	    rules:
//	      - baseType: dam:Asset
//	    relativeNodeNames: [jcr:content]
type File struct {
	Indexes []Definition `yaml:"indexes"`
}

// Validate checks that every definition has a path and that paths are unique.
func Validate(defs []Definition) error {
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		if d.Path == "" {
			return fmt.Errorf("indexdef: definition %d has no path", i)
		}
		if seen[d.Path] {
			return fmt.Errorf("indexdef: duplicate definition %s", d.Path)
		}
		seen[d.Path] = true
	}
	return nil
}

// LoadYAML reads and validates an index definition file.
func LoadYAML(r io.Reader) ([]Definition, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("indexdef: decode yaml: %w", err)
	}
	if err := Validate(f.Indexes); err != nil {
		return nil, err
	}
	return f.Indexes, nil
}
