package reconcile

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/dvc-matrix/dvc-matrix/internal/dvc"
	"github.com/dvc-matrix/dvc-matrix/internal/matrix"
)

// Stage statuses. A changed stage may combine several reasons, joined with
// ", " in the order changed outs, changed deps.
const (
	StatusNotRun         = "not run"
	StatusOK             = "ok"
	StatusChanged        = "changed"
	StatusChangedCommand = dvc.ChangedCommand
	StatusChangedOuts    = dvc.ChangedOuts
	StatusChangedDeps    = dvc.ChangedDeps
)

// StageRecord is the reconciled view of one stage instance.
type StageRecord struct {
	Name   string
	Params matrix.Combination
	Cmd    string
	Status string
}

// IsChanged reports whether the record carries any changed status.
func (r StageRecord) IsChanged() bool {
	return strings.HasPrefix(r.Status, StatusChanged)
}

// MarshalJSON writes the record as one flat object: stage_name, then each
// parameter in order, then status and cmd. A parameter named after one of
// those keys is left out so the object has no duplicate keys.
func (r StageRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key, value string) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if err := write("stage_name", r.Name); err != nil {
		return nil, err
	}
	for _, b := range r.Params {
		if dvc.IsReservedParameter(b.Name) {
			continue
		}
		if err := write(b.Name, b.Value); err != nil {
			return nil, err
		}
	}
	if err := write("status", r.Status); err != nil {
		return nil, err
	}
	if r.Cmd != "" {
		if err := write("cmd", r.Cmd); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// StageGroup holds the records of one stage base name.
type StageGroup struct {
	Base    string
	Records []StageRecord
}

// Flatten concatenates the records of groups in order.
func Flatten(groups []StageGroup) []StageRecord {
	var records []StageRecord
	for _, g := range groups {
		records = append(records, g.Records...)
	}
	return records
}

// statusOf derives a record status from the external status map.
func statusOf(name string, status dvc.Status) string {
	reasons, ok := status.Reasons(name)
	if !ok {
		return StatusOK
	}

	present := make(map[string]bool, len(reasons))
	for _, r := range reasons {
		present[r] = true
	}
	if present[StatusChangedCommand] {
		return StatusChangedCommand
	}

	var parts []string
	for _, reason := range []string{StatusChangedOuts, StatusChangedDeps} {
		if present[reason] {
			parts = append(parts, reason)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return StatusChanged
}
