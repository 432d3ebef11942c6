package dvc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dvc-matrix/dvc-matrix/internal/matrix"
)

// Document keys shared by the matrix and pipeline documents.
const (
	KeyStages        = "stages"
	KeyVars          = "vars"
	KeyForeachMatrix = "foreach-matrix"
	KeyForeach       = "foreach"
	KeyDo            = "do"
	KeyCmd           = "cmd"
	KeyOuts          = "outs"
	KeyDeps          = "deps"
)

// StageBody is the command and output section of a stage: the do section
// of a matrix or foreach stage, or the stage itself otherwise.
type StageBody struct {
	Cmd  string
	Outs []string
	Deps []string
}

// Stage is one entry under stages in a matrix or pipeline document.
type Stage struct {
	Name string

	// Matrix holds the foreach-matrix declaration when HasMatrix is set.
	Matrix    matrix.ParameterSet
	HasMatrix bool

	// Foreach holds an explicit foreach list when HasForeach is set.
	Foreach    []matrix.Combination
	HasForeach bool

	// Do is the per-instance template section, nil when absent.
	Do *StageBody

	// Body is the stage's own cmd/outs/deps, used by plain stages.
	Body StageBody

	// Vars merges the stage vars with the do section vars.
	Vars map[string]string
}

// IsIterated reports whether the stage expands into <name>@<index>
// instances.
func (s *Stage) IsIterated() bool {
	return s.HasMatrix || s.HasForeach
}

// Combinations returns the ordered instances of an iterated stage.
func (s *Stage) Combinations() []matrix.Combination {
	switch {
	case s.HasMatrix:
		return matrix.Expand(s.Matrix)
	case s.HasForeach:
		return s.Foreach
	}
	return nil
}

// Template returns the section holding the stage's command and output
// templates. Iterated stages must carry a do section; ok is false when it
// is missing.
func (s *Stage) Template() (body StageBody, ok bool) {
	if s.IsIterated() {
		if s.Do == nil {
			return StageBody{}, false
		}
		return *s.Do, true
	}
	return s.Body, s.Body.Cmd != "" || len(s.Body.Outs) > 0
}

// Document is a decoded dvc-matrix.yaml or dvc.yaml.
type Document struct {
	// Vars is the merged top-level vars sequence.
	Vars   map[string]string
	Stages []Stage

	node *yaml.Node
}

// Stage returns the stage named name.
func (d *Document) Stage(name string) (*Stage, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Stages {
		if d.Stages[i].Name == name {
			return &d.Stages[i], true
		}
	}
	return nil, false
}

// StageNames returns stage names in document order.
func (d *Document) StageNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.Stages))
	for i, s := range d.Stages {
		names[i] = s.Name
	}
	return names
}

// Node returns the underlying YAML document node.
func (d *Document) Node() *yaml.Node {
	return d.node
}

// ParseDocument decodes a matrix or pipeline document.
func ParseDocument(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return FromNode(&node)
}

// FromNode builds a Document from an already decoded YAML node.
func FromNode(node *yaml.Node) (*Document, error) {
	root, err := documentRoot(node)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Vars: MergeVars(MappingValue(root, KeyVars)),
		node: node,
	}

	err = mappingPairs(MappingValue(root, KeyStages), func(name string, value *yaml.Node) error {
		stage, err := parseStage(name, value)
		if err != nil {
			return fmt.Errorf("stage %q: %w", name, err)
		}
		doc.Stages = append(doc.Stages, stage)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func parseStage(name string, node *yaml.Node) (Stage, error) {
	stage := Stage{Name: name, Vars: MergeVars(MappingValue(node, KeyVars))}
	if node.Kind != yaml.MappingNode {
		return stage, fmt.Errorf("%w: stage is not a mapping", ErrMalformedDocument)
	}

	if decl := MappingValue(node, KeyForeachMatrix); decl != nil {
		params, err := ParameterSetFromNode(decl)
		if err != nil {
			return stage, err
		}
		stage.Matrix = params
		stage.HasMatrix = true
	}

	if list := MappingValue(node, KeyForeach); list != nil {
		stage.Foreach = combinationsFromNode(list)
		stage.HasForeach = true
	}

	if do := MappingValue(node, KeyDo); do != nil && do.Kind == yaml.MappingNode {
		body := parseBody(do)
		stage.Do = &body
		stage.Vars = overlay(stage.Vars, MergeVars(MappingValue(do, KeyVars)))
	}

	stage.Body = parseBody(node)
	return stage, nil
}

func parseBody(node *yaml.Node) StageBody {
	return StageBody{
		Cmd:  commandText(MappingValue(node, KeyCmd)),
		Outs: outputPaths(MappingValue(node, KeyOuts)),
		Deps: outputPaths(MappingValue(node, KeyDeps)),
	}
}

// reservedParameters are written next to parameter values in the flat
// status report, so no parameter may take their names.
var reservedParameters = map[string]bool{"stage_name": true, "status": true, "cmd": true}

// IsReservedParameter reports whether name collides with a status report key.
func IsReservedParameter(name string) bool {
	return reservedParameters[name]
}

// CheckParameterName rejects a foreach-matrix parameter named after a
// status report key.
func CheckParameterName(name string) error {
	if IsReservedParameter(name) {
		return fmt.Errorf("%w: parameter name %q is reserved", ErrMalformedDocument, name)
	}
	return nil
}

// ParameterSetFromNode decodes a foreach-matrix mapping. Every value is
// stringified; a scalar in place of a list is a one-value list.
func ParameterSetFromNode(node *yaml.Node) (matrix.ParameterSet, error) {
	var params matrix.ParameterSet
	err := mappingPairs(node, func(name string, value *yaml.Node) error {
		if err := CheckParameterName(name); err != nil {
			return err
		}
		param := matrix.Parameter{Name: name}
		for _, item := range ValueNodes(value) {
			param.Values = append(param.Values, ScalarText(item))
		}
		params = append(params, param)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyForeachMatrix, err)
	}
	return params, nil
}

// ValueNodes returns the value list of one foreach-matrix parameter, with
// aliases resolved for the list and each of its items.
func ValueNodes(value *yaml.Node) []*yaml.Node {
	value = Resolve(value)
	if value == nil || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		return nil
	}
	if value.Kind != yaml.SequenceNode {
		return []*yaml.Node{value}
	}
	items := make([]*yaml.Node, len(value.Content))
	for i, item := range value.Content {
		items[i] = Resolve(item)
	}
	return items
}

// combinationsFromNode decodes an explicit foreach list. Mapping entries
// bind each key; scalar entries bind the single name "item".
func combinationsFromNode(node *yaml.Node) []matrix.Combination {
	node = Resolve(node)
	if node.Kind != yaml.SequenceNode {
		return nil
	}
	combos := make([]matrix.Combination, 0, len(node.Content))
	for _, entry := range node.Content {
		entry = Resolve(entry)
		var combo matrix.Combination
		if entry.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(entry.Content); i += 2 {
				combo = append(combo, matrix.Binding{Name: entry.Content[i].Value, Value: ScalarText(entry.Content[i+1])})
			}
		} else {
			combo = matrix.Combination{{Name: "item", Value: ScalarText(entry)}}
		}
		combos = append(combos, combo)
	}
	return combos
}

// readDocument reads path, mapping a missing file to ErrSourceNotFound.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// LoadDocument reads and decodes a matrix or pipeline document.
func LoadDocument(path string) (*Document, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
