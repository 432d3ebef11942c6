package dvc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func varsNode(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(src), &node); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return node.Content[0]
}

func TestMergeVars(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]string
	}{
		{
			name: "later entries win",
			src:  "- data_dir: data\n- data_dir: /mnt/data\n  seed: 7\n",
			want: map[string]string{"data_dir": "/mnt/data", "seed": "7"},
		},
		{
			name: "params file references are skipped",
			src:  "- params.yaml\n- epochs: 10\n",
			want: map[string]string{"epochs": "10"},
		},
		{
			name: "nested mappings flatten",
			src:  "- model:\n    lr: 0.1\n    layers: [64, 32]\n",
			want: map[string]string{"model.lr": "0.1", "model.layers": "[64, 32]"},
		},
		{
			name: "plain mapping",
			src:  "a: 1\nb: two\n",
			want: map[string]string{"a": "1", "b": "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeVars(varsNode(t, tt.src))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MergeVars mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeVars_Nil(t *testing.T) {
	if got := MergeVars(nil); len(got) != 0 {
		t.Errorf("MergeVars(nil) = %v, want empty", got)
	}
}

func TestOverlay(t *testing.T) {
	base := map[string]string{"a": "1", "b": "2"}
	got := overlay(base, map[string]string{"b": "3"})
	if diff := cmp.Diff(map[string]string{"a": "1", "b": "3"}, got); diff != "" {
		t.Errorf("overlay mismatch (-want +got):\n%s", diff)
	}
	if base["b"] != "2" {
		t.Error("overlay modified base")
	}
}
