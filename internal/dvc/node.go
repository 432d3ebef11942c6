package dvc

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resolve follows alias nodes to the node they refer to. Any other node
// is returned as is.
func Resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// documentRoot unwraps a document node to its top-level mapping.
func documentRoot(doc *yaml.Node) (*yaml.Node, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, fmt.Errorf("%w: empty document", ErrMalformedDocument)
		}
		root = Resolve(root.Content[0])
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrMalformedDocument)
	}
	return root, nil
}

// MappingValue returns the value node stored under key in mapping, or nil.
// Aliases are resolved on both the mapping and the returned value.
func MappingValue(mapping *yaml.Node, key string) *yaml.Node {
	mapping = Resolve(mapping)
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return Resolve(mapping.Content[i+1])
		}
	}
	return nil
}

// mappingPairs calls fn for each key/value pair of mapping in order, with
// aliased values resolved.
func mappingPairs(mapping *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	mapping = Resolve(mapping)
	if mapping == nil {
		return nil
	}
	if mapping.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: expected a mapping at line %d", ErrMalformedDocument, mapping.Line)
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if err := fn(mapping.Content[i].Value, Resolve(mapping.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// ScalarText returns the textual form of a value node. Scalars keep the
// text they were written with; anything else is re-encoded as flow YAML.
func ScalarText(node *yaml.Node) string {
	node = Resolve(node)
	if node == nil {
		return ""
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value
	}

	flow := *node
	flow.Style = yaml.FlowStyle
	data, err := yaml.Marshal(&flow)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// commandText decodes a cmd value, which DVC allows to be a string or a
// list of strings run in sequence.
func commandText(node *yaml.Node) string {
	node = Resolve(node)
	if node == nil {
		return ""
	}
	if node.Kind == yaml.SequenceNode {
		parts := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			parts = append(parts, ScalarText(item))
		}
		return strings.Join(parts, "\n")
	}
	return ScalarText(node)
}

// outputPaths decodes an outs/deps list. Entries are either plain paths
// or single-key mappings of path to options.
func outputPaths(node *yaml.Node) []string {
	node = Resolve(node)
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	var paths []string
	for _, item := range node.Content {
		item = Resolve(item)
		switch item.Kind {
		case yaml.ScalarNode:
			paths = append(paths, item.Value)
		case yaml.MappingNode:
			if len(item.Content) >= 2 {
				paths = append(paths, item.Content[0].Value)
			}
		}
	}
	return paths
}
