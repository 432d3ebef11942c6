// Package materialize rewrites a dvc-matrix.yaml document into the dvc.yaml
// that DVC consumes, replacing every foreach-matrix declaration with the
// explicit foreach list it expands to.
package materialize

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dvc-matrix/dvc-matrix/internal/dvc"
	"github.com/dvc-matrix/dvc-matrix/internal/lock"
	"github.com/dvc-matrix/dvc-matrix/internal/matrix"
	"github.com/dvc-matrix/dvc-matrix/internal/util"
)

// Result summarizes one materialization.
type Result struct {
	// Expanded maps each rewritten stage to its instance count, in
	// document order.
	Expanded []StageCount
}

// StageCount is the number of instances one stage expanded into.
type StageCount struct {
	Stage     string
	Instances int
}

// Total returns the number of generated instances.
func (r Result) Total() int {
	n := 0
	for _, s := range r.Expanded {
		n += s.Instances
	}
	return n
}

// Document returns a deep copy of doc with every foreach-matrix replaced by
// a foreach list. The foreach key takes the declaration's position, and
// original scalar nodes are reused so tags and quoting survive. Stages
// without a declaration pass through unchanged.
func Document(doc *yaml.Node) (*yaml.Node, Result, error) {
	var result Result
	if doc == nil {
		return nil, result, fmt.Errorf("%w: empty document", dvc.ErrMalformedDocument)
	}
	out := deepCopy(doc)

	root := out
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, result, fmt.Errorf("%w: top level is not a mapping", dvc.ErrMalformedDocument)
	}

	stages := dvc.MappingValue(root, dvc.KeyStages)
	if stages == nil {
		return out, result, nil
	}
	if stages.Kind != yaml.MappingNode {
		return nil, result, fmt.Errorf("%w: %s is not a mapping", dvc.ErrMalformedDocument, dvc.KeyStages)
	}

	for i := 0; i+1 < len(stages.Content); i += 2 {
		name, stage := stages.Content[i].Value, stages.Content[i+1]
		n, err := expandStage(stage)
		if err != nil {
			return nil, result, fmt.Errorf("stage %q: %w", name, err)
		}
		if n >= 0 {
			result.Expanded = append(result.Expanded, StageCount{Stage: name, Instances: n})
		}
	}
	return out, result, nil
}

// expandStage rewrites one stage mapping in place. It returns the number
// of generated instances, or -1 when the stage has no declaration.
func expandStage(stage *yaml.Node) (int, error) {
	stage = dvc.Resolve(stage)
	if stage == nil || stage.Kind != yaml.MappingNode {
		return -1, nil
	}
	for i := 0; i+1 < len(stage.Content); i += 2 {
		if dvc.Resolve(stage.Content[i]).Value != dvc.KeyForeachMatrix {
			continue
		}
		decl := dvc.Resolve(stage.Content[i+1])
		if decl == nil || decl.Kind != yaml.MappingNode {
			return 0, fmt.Errorf("%w: %s must be a mapping", dvc.ErrMalformedDocument, dvc.KeyForeachMatrix)
		}
		for j := 0; j+1 < len(decl.Content); j += 2 {
			if err := dvc.CheckParameterName(dvc.Resolve(decl.Content[j]).Value); err != nil {
				return 0, err
			}
		}
		list := foreachList(decl)
		stage.Content[i] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: dvc.KeyForeach}
		stage.Content[i+1] = list
		return len(list.Content), nil
	}
	return -1, nil
}

// foreachList expands decl into a sequence of mappings. The cross product
// runs over value positions so each entry can reuse the original node.
func foreachList(decl *yaml.Node) *yaml.Node {
	var names []*yaml.Node
	var values [][]*yaml.Node
	var positions matrix.ParameterSet
	for i := 0; i+1 < len(decl.Content); i += 2 {
		nodes := dvc.ValueNodes(decl.Content[i+1])
		param := matrix.Parameter{Name: strconv.Itoa(len(names))}
		for j := range nodes {
			param.Values = append(param.Values, strconv.Itoa(j))
		}
		names = append(names, decl.Content[i])
		values = append(values, nodes)
		positions = append(positions, param)
	}

	list := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, combo := range matrix.Expand(positions) {
		entry := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for p, b := range combo {
			j, _ := strconv.Atoi(b.Value)
			key := *dvc.Resolve(names[p])
			key.Anchor = ""
			key.HeadComment, key.LineComment, key.FootComment = "", "", ""
			value := deepCopy(values[p][j])
			value.Anchor = ""
			entry.Content = append(entry.Content, &key, value)
		}
		list.Content = append(list.Content, entry)
	}
	return list
}

// deepCopy copies n. Aliases are replaced by copies of the node they
// refer to, so the copy holds no pointers back into n and rewriting an
// anchored declaration cannot leave an alias without its anchor.
func deepCopy(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		c := deepCopy(n.Alias)
		c.Anchor = ""
		return c
	}
	c := *n
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = deepCopy(child)
		}
	}
	return &c
}

// File materializes the matrix document at src into dst. It returns
// dvc.ErrSourceNotFound when src does not exist. The destination is
// locked for the duration of the write (waiting at most lockTimeout, or
// lock.DefaultTimeout when zero) and written atomically, so dst either
// holds the complete new document or is left untouched.
func File(src, dst string, lockTimeout time.Duration) (Result, error) {
	doc, err := dvc.LoadDocument(src)
	if err != nil {
		return Result{}, err
	}

	out, result, err := Document(doc.Node())
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", src, err)
	}

	l := lock.New(dst)
	if lockTimeout <= 0 {
		lockTimeout = lock.DefaultTimeout
	}
	if err := l.Acquire(lockTimeout); err != nil {
		return Result{}, err
	}
	defer func() { _ = l.Release() }()

	if err := util.AtomicWriteYAML(dst, out); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", dst, err)
	}
	return result, nil
}
