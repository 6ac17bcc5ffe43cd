package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/flatsplit/indexdef"
	"github.com/hupe1980/flatsplit/nodetype"
)

// config is the --config file: the node type hierarchy and the index
// definitions whose rules decide which subtrees stay whole.
//
//	nodeTypes:
//	  - name: dam:Asset
//	    supertypes: [nt:hierarchyNode]
//	indexes:
//	  - path: /oak:index/damAssetLucene
//	    rules:
//	      - baseType: dam:Asset
//	    relativeNodeNames: [jcr:content]
type config struct {
	NodeTypes []nodetype.Definition `yaml:"nodeTypes"`
	Indexes   []indexdef.Definition `yaml:"indexes"`
}

func decodeConfig(r io.Reader) (*config, error) {
	var c config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for i, d := range c.NodeTypes {
		if d.Name == "" {
			return nil, fmt.Errorf("config: node type %d has no name", i)
		}
	}
	if err := indexdef.Validate(c.Indexes); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

func loadConfig(path string) (*config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeConfig(f)
}

// Resolver returns the boundary resolver over the configured hierarchy.
func (c *config) Resolver() *nodetype.Resolver {
	return nodetype.NewResolver(nodetype.NewRegistry(c.NodeTypes...), indexdef.Sources(c.Indexes)...)
}

// PreferredPathElements returns the union of the relative node names.
func (c *config) PreferredPathElements() []string {
	return indexdef.PreferredPathElements(c.Indexes)
}
