// Package util provides small file and process helpers for dvc-matrix.
package util

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"
)

// AtomicWriteYAML encodes v as block-style YAML with two-space indentation
// and writes it atomically. Nothing is written if encoding fails.
func AtomicWriteYAML(path string, v interface{}) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return AtomicWriteFile(path, buf.Bytes(), 0644)
}

// AtomicWriteFile writes data to a file atomically.
// It first writes to a temporary file, then renames it to the target path.
// This prevents a half-written pipeline file if the process dies mid-write.
// The rename operation is atomic on POSIX systems.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpFile := path + ".tmp"

	if err := os.WriteFile(tmpFile, data, perm); err != nil {
		_ = os.Remove(tmpFile)
		return err
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return err
	}

	return nil
}
