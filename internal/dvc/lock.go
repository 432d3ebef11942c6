package dvc

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dvc-matrix/dvc-matrix/internal/matrix"
)

// LockStage is one recorded execution in dvc.lock.
type LockStage struct {
	// Name is the composite <base>@<index> name, or a bare stage name.
	Name string
	Cmd  string
	Outs []string
	Deps []string
}

// Base returns the stage base name of the entry.
func (s LockStage) Base() string {
	base, _, _ := matrix.SplitStageName(s.Name)
	return base
}

// LockDocument is a decoded dvc.lock.
type LockDocument struct {
	Stages []LockStage
}

// Entries returns the lock entries recorded for base, in lock-file order.
// An entry belongs to base when its name contains base and the text that
// follows is empty or an @<index> suffix.
func (l *LockDocument) Entries(base string) []LockStage {
	if l == nil {
		return nil
	}
	var entries []LockStage
	for _, s := range l.Stages {
		if !strings.Contains(s.Name, base) {
			continue
		}
		if s.Name == base || s.Base() == base {
			entries = append(entries, s)
		}
	}
	return entries
}

// ParseLock decodes a dvc.lock document.
func ParseLock(data []byte) (*LockDocument, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if len(node.Content) == 0 {
		return &LockDocument{}, nil
	}
	root, err := documentRoot(&node)
	if err != nil {
		return nil, err
	}

	lock := &LockDocument{}
	err = mappingPairs(MappingValue(root, KeyStages), func(name string, value *yaml.Node) error {
		lock.Stages = append(lock.Stages, LockStage{
			Name: name,
			Cmd:  commandText(MappingValue(value, KeyCmd)),
			Outs: lockPaths(MappingValue(value, KeyOuts)),
			Deps: lockPaths(MappingValue(value, KeyDeps)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// lockPaths decodes the path field of recorded outs or deps.
func lockPaths(node *yaml.Node) []string {
	node = Resolve(node)
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	var paths []string
	for _, item := range node.Content {
		item = Resolve(item)
		if path := MappingValue(item, "path"); path != nil {
			paths = append(paths, path.Value)
		} else if item.Kind == yaml.ScalarNode {
			paths = append(paths, item.Value)
		}
	}
	return paths
}

// LoadLock reads dvc.lock. A missing lock file means nothing has run yet
// and yields an empty document.
func LoadLock(path string) (*LockDocument, error) {
	data, err := readDocument(path)
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			return &LockDocument{}, nil
		}
		return nil, err
	}
	lock, err := ParseLock(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lock, nil
}
