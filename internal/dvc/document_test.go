package dvc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/dvc-matrix/dvc-matrix/internal/matrix"
)

const matrixYAML = `
vars:
  - params.yaml
  - data_dir: data
  - model:
      depth: 3
  - data_dir: data/raw
stages:
  prepare:
    cmd: python prepare.py ${data_dir}
    outs:
      - prepared
  train:
    foreach-matrix:
      lr: [0.1, 0.01]
      layers: [2, 4]
      optimizer: adam
    vars:
      script: train.py
    do:
      cmd: python ${script} --lr ${item.lr} --layers ${item.layers}
      vars:
        - epochs: 10
      outs:
        - models/${item.lr}/${item.layers}.pkl
        - metrics/${item.lr}.json:
            cache: false
`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(matrixYAML))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	wantVars := map[string]string{"data_dir": "data/raw", "model.depth": "3"}
	if diff := cmp.Diff(wantVars, doc.Vars); diff != "" {
		t.Errorf("Vars mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"prepare", "train"}, doc.StageNames()); diff != "" {
		t.Errorf("StageNames mismatch:\n%s", diff)
	}

	prepare, ok := doc.Stage("prepare")
	if !ok {
		t.Fatal("prepare stage missing")
	}
	if prepare.IsIterated() {
		t.Error("prepare should not be iterated")
	}
	body, ok := prepare.Template()
	if !ok || body.Cmd != "python prepare.py ${data_dir}" {
		t.Errorf("prepare Template = %+v, %v", body, ok)
	}

	train, ok := doc.Stage("train")
	if !ok {
		t.Fatal("train stage missing")
	}
	wantParams := matrix.ParameterSet{
		{Name: "lr", Values: []string{"0.1", "0.01"}},
		{Name: "layers", Values: []string{"2", "4"}},
		{Name: "optimizer", Values: []string{"adam"}},
	}
	if diff := cmp.Diff(wantParams, train.Matrix); diff != "" {
		t.Errorf("Matrix mismatch:\n%s", diff)
	}
	if len(train.Combinations()) != 4 {
		t.Errorf("len(Combinations) = %d, want 4", len(train.Combinations()))
	}
	wantStageVars := map[string]string{"script": "train.py", "epochs": "10"}
	if diff := cmp.Diff(wantStageVars, train.Vars); diff != "" {
		t.Errorf("stage Vars mismatch:\n%s", diff)
	}
	tpl, ok := train.Template()
	if !ok {
		t.Fatal("train Template missing")
	}
	wantOuts := []string{"models/${item.lr}/${item.layers}.pkl", "metrics/${item.lr}.json"}
	if diff := cmp.Diff(wantOuts, tpl.Outs); diff != "" {
		t.Errorf("Outs mismatch:\n%s", diff)
	}
}

func TestParseDocument_Foreach(t *testing.T) {
	doc, err := ParseDocument([]byte(`
stages:
  train:
    foreach:
      - lr: 0.1
        bs: 32
      - lr: 0.01
        bs: 64
  copy:
    foreach: [a, b]
  broken:
    foreach:
      - lr: 1
`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	train, _ := doc.Stage("train")
	want := []matrix.Combination{
		{{Name: "lr", Value: "0.1"}, {Name: "bs", Value: "32"}},
		{{Name: "lr", Value: "0.01"}, {Name: "bs", Value: "64"}},
	}
	if diff := cmp.Diff(want, train.Combinations()); diff != "" {
		t.Errorf("Combinations mismatch:\n%s", diff)
	}

	copyStage, _ := doc.Stage("copy")
	if diff := cmp.Diff([]matrix.Combination{{{Name: "item", Value: "a"}}, {{Name: "item", Value: "b"}}}, copyStage.Combinations()); diff != "" {
		t.Errorf("scalar foreach mismatch:\n%s", diff)
	}

	broken, _ := doc.Stage("broken")
	if _, ok := broken.Template(); ok {
		t.Error("iterated stage without do section should have no template")
	}
}

func TestParseDocument_Malformed(t *testing.T) {
	for _, in := range []string{"", "- a\n- b\n", "stages: [a, b]\n"} {
		if _, err := ParseDocument([]byte(in)); !errors.Is(err, ErrMalformedDocument) {
			t.Errorf("ParseDocument(%q) error = %v, want ErrMalformedDocument", in, err)
		}
	}
}

func TestParseDocument_ReservedParameter(t *testing.T) {
	for _, name := range []string{"stage_name", "status", "cmd"} {
		in := "stages:\n  train:\n    foreach-matrix:\n      lr: [0.1]\n      " + name + ": [x]\n"
		_, err := ParseDocument([]byte(in))
		if !errors.Is(err, ErrMalformedDocument) {
			t.Errorf("%s: error = %v, want ErrMalformedDocument", name, err)
			continue
		}
		if !strings.Contains(err.Error(), "reserved") {
			t.Errorf("%s: error = %v, want reserved name", name, err)
		}
	}

	if _, err := ParseDocument([]byte("stages:\n  train:\n    foreach-matrix:\n      stage: [a]\n")); err != nil {
		t.Errorf("non-reserved name rejected: %v", err)
	}
}

func TestLoadDocument_NotFound(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "dvc-matrix.yaml"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("LoadDocument error = %v, want ErrSourceNotFound", err)
	}
}

func TestLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dvc.yaml")
	if err := os.WriteFile(path, []byte(matrixYAML), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.Node() == nil {
		t.Error("Node() = nil")
	}
}

func TestScalarText_NonScalar(t *testing.T) {
	doc, err := ParseDocument([]byte(`
stages:
  s:
    foreach-matrix:
      shape: [[1, 2], {a: b}]
    do:
      cmd: echo
`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	s, _ := doc.Stage("s")
	if diff := cmp.Diff([]string{"[1, 2]", "{a: b}"}, s.Matrix[0].Values); diff != "" {
		t.Errorf("values mismatch:\n%s", diff)
	}
}

func TestParseDocument_Aliases(t *testing.T) {
	doc, err := ParseDocument([]byte(`
vars:
  - root: &root data/raw
stages:
  train:
    foreach-matrix: &grid
      lr: &lrs [0.1, 0.01]
      size: [1, 2]
    do:
      cmd: python train.py --data ${root}
  eval:
    foreach-matrix: *grid
    do:
      cmd: python eval.py
  sweep:
    foreach-matrix:
      lr: *lrs
    do:
      cmd: python sweep.py
  copy:
    cmd: cp -r data/raw out
    outs:
      - *root
`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	train, _ := doc.Stage("train")
	eval, ok := doc.Stage("eval")
	if !ok || !eval.HasMatrix {
		t.Fatalf("eval = %+v, want a matrix stage", eval)
	}
	if diff := cmp.Diff(train.Matrix, eval.Matrix); diff != "" {
		t.Errorf("aliased grid differs (-train +eval):\n%s", diff)
	}

	sweep, _ := doc.Stage("sweep")
	wantSweep := matrix.ParameterSet{{Name: "lr", Values: []string{"0.1", "0.01"}}}
	if diff := cmp.Diff(wantSweep, sweep.Matrix); diff != "" {
		t.Errorf("aliased value list mismatch (-want +got):\n%s", diff)
	}
	if got := len(sweep.Combinations()); got != 2 {
		t.Errorf("sweep expands to %d instances, want 2", got)
	}

	copyStage, _ := doc.Stage("copy")
	if diff := cmp.Diff([]string{"data/raw"}, copyStage.Body.Outs); diff != "" {
		t.Errorf("aliased outs mismatch (-want +got):\n%s", diff)
	}
}

func TestValueNodes(t *testing.T) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte("list: &l [a, b]\nref: *l\nnone: ~\none: x\n"), &node); err != nil {
		t.Fatal(err)
	}
	root := node.Content[0]
	tests := map[string]int{"list": 2, "ref": 2, "none": 0, "one": 1}
	for key, want := range tests {
		if got := len(ValueNodes(MappingValue(root, key))); got != want {
			t.Errorf("ValueNodes(%s) has %d items, want %d", key, got, want)
		}
	}
}
