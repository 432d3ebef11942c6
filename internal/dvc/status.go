package dvc

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/jsonc"
)

// Change reasons reported by `dvc status --json`.
const (
	ChangedCommand = "changed command"
	ChangedOuts    = "changed outs"
	ChangedDeps    = "changed deps"
)

// Status maps a composite stage name to its change reasons. A stage that
// is absent has not changed.
type Status map[string][]string

// Reasons returns the change reasons of stage and whether it is present.
func (s Status) Reasons(stage string) ([]string, bool) {
	reasons, ok := s[stage]
	return reasons, ok
}

// ParseStatus decodes the output of `dvc status --json`. Each stage maps
// to a list whose entries are either bare reason strings or single-key
// objects whose key is the reason. Comments and trailing commas are
// accepted so hand-edited snapshots load too.
func ParseStatus(data []byte) (Status, error) {
	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("parsing status: %w", err)
	}

	status := make(Status, len(raw))
	for stage, entries := range raw {
		reasons := []string{}
		for _, entry := range entries {
			var tag string
			if err := json.Unmarshal(entry, &tag); err == nil {
				reasons = append(reasons, tag)
				continue
			}
			var object map[string]json.RawMessage
			if err := json.Unmarshal(entry, &object); err != nil {
				return nil, fmt.Errorf("parsing status of %q: unexpected entry %s", stage, entry)
			}
			keys := make([]string, 0, len(object))
			for key := range object {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			reasons = append(reasons, keys...)
		}
		status[stage] = reasons
	}
	return status, nil
}
