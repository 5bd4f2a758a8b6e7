package builder

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAML source format:
//
//	nodes:
//	  - key: home
//	    title: Home
//	    controller: Home
//	    action: Index
//	    children:
//	      - title: About
//	        url: ~/about
//	        attributes:
//	          visibility: MenuHelper
type yamlSiteMap struct {
	Nodes []Definition `yaml:"nodes"`
}

// YAMLProvider reads node definitions from a YAML document.
type YAMLProvider struct {
	name string
	read func() ([]byte, error)
}

// NewYAMLFileProvider reads the document at path on every build.
func NewYAMLFileProvider(path string) *YAMLProvider {
	return &YAMLProvider{
		name: path,
		read: func() ([]byte, error) { return os.ReadFile(path) },
	}
}

// NewYAMLProvider serves a document held in memory.
func NewYAMLProvider(name string, data []byte) *YAMLProvider {
	data = bytes.Clone(data)
	return &YAMLProvider{
		name: name,
		read: func() ([]byte, error) { return data, nil },
	}
}

// Name returns the source name reported on relations.
func (p *YAMLProvider) Name() string { return p.name }

// GetNodes implements NodeProvider.
func (p *YAMLProvider) GetNodes(ctx context.Context, helper *NodeHelper) ([]Relation, error) {
	data, err := p.read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, p.name, err)
	}
	defs, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	return definitionsToRelations(ctx, helper, p.name, defs)
}

// ParseYAML decodes a YAML document into definitions. Unknown fields are
// rejected.
func ParseYAML(data []byte) ([]Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc yamlSiteMap
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return doc.Nodes, nil
}

var _ NodeProvider = (*YAMLProvider)(nil)
