package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const testMatrix = `vars:
  - data_dir: data
stages:
  prepare:
    cmd: python prepare.py
  train:
    foreach-matrix:
      size: [1, 2]
      lr: [0.1, 0.01]
    do:
      cmd: python train.py --size ${item.size} --lr ${item.lr} --data ${data_dir}
      outs:
        - models/${item.size}-${item.lr}.pkl
`

// resetFlags restores every command flag variable, since cobra keeps
// parsed values between Execute calls.
func resetFlags() {
	rootDir = "."
	rootTheme = ""
	rootVerbose = false
	generateFile = ""
	generateOutput = ""
	statusJSON = false
	statusKey = ""
	statusStatusFile = ""
	statusShowCmd = false
	statusExitCode = false
}

// runCommand executes the root command with args and returns stdout and
// stderr.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// newProject creates a project directory holding the test matrix file.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dvc-matrix.yaml"), testMatrix)
	return dir
}
