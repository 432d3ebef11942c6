// Package dvc provides read models for the three documents the matrix
// tooling works with, plus the decoded output of `dvc status --json`.
//
//   - dvc-matrix.yaml: stages declare a foreach-matrix cross product
//   - dvc.yaml: the rendered pipeline, with explicit foreach lists
//   - dvc.lock: what the last `dvc repro` actually ran, keyed by <base>@<index>
//
// Documents are decoded through yaml.Node so mapping order survives: the
// order of parameters and values in a foreach-matrix fixes every stage
// index. All read models are snapshots; nothing in this package writes
// files.
package dvc
