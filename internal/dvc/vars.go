package dvc

import (
	"gopkg.in/yaml.v3"
)

// MergeVars collects a vars declaration into one flat map. A sequence is
// merged entry by entry with later entries overriding earlier ones; string
// entries name params files and are skipped. Nested mappings flatten to
// dotted names, so {model: {lr: 0.1}} yields "model.lr".
func MergeVars(node *yaml.Node) map[string]string {
	vars := make(map[string]string)
	node = Resolve(node)
	if node == nil {
		return vars
	}

	switch node.Kind {
	case yaml.SequenceNode:
		for _, entry := range node.Content {
			if entry = Resolve(entry); entry.Kind == yaml.MappingNode {
				flattenInto(vars, "", entry)
			}
		}
	case yaml.MappingNode:
		flattenInto(vars, "", node)
	}
	return vars
}

func flattenInto(vars map[string]string, prefix string, mapping *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		name := mapping.Content[i].Value
		if prefix != "" {
			name = prefix + "." + name
		}
		value := Resolve(mapping.Content[i+1])
		if value.Kind == yaml.MappingNode {
			flattenInto(vars, name, value)
			continue
		}
		vars[name] = ScalarText(value)
	}
}

// overlay returns base with every entry of top applied over it.
func overlay(base, top map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(top))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range top {
		merged[k] = v
	}
	return merged
}
