package nodetype

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a node type file:
//
//	nodeTypes:
//	  - name: nt:folder
//	    supertypes: [nt:hierarchyNode]
//	  - name: mix:title
//	    mixin: true
type File struct {
	NodeTypes []Definition `yaml:"nodeTypes"`
}

// LoadYAML reads a node type file into a Registry.
func LoadYAML(r io.Reader) (*Registry, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("nodetype: decode yaml: %w", err)
	}
	for i, d := range f.NodeTypes {
		if d.Name == "" {
			return nil, fmt.Errorf("nodetype: entry %d has no name", i)
		}
	}
	return NewRegistry(f.NodeTypes...), nil
}
