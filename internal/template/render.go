package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvc-matrix/dvc-matrix/internal/matrix"
)

// ErrUnresolvedField matches any *UnresolvedFieldError via errors.Is.
var ErrUnresolvedField = errors.New("unresolved template field")

// UnresolvedFieldError lists every placeholder that had no value in the
// combination, the stage vars or the global vars.
type UnresolvedFieldError struct {
	Template string
	Fields   []string
}

func (e *UnresolvedFieldError) Error() string {
	return fmt.Sprintf("unresolved template fields in %q: %s", e.Template, strings.Join(e.Fields, ", "))
}

// Is reports whether target is ErrUnresolvedField.
func (e *UnresolvedFieldError) Is(target error) bool {
	return target == ErrUnresolvedField
}

// Render substitutes every placeholder in t. Names resolve against combo
// first, then stageVars, then globalVars. Field and variable placeholders
// share that lookup order; the item prefix only marks intent.
func (t Template) Render(combo matrix.Combination, stageVars, globalVars map[string]string) (string, error) {
	var sb strings.Builder
	var unresolved []string

	for _, tok := range t.tokens {
		if tok.Kind == Literal {
			sb.WriteString(tok.Text)
			continue
		}
		value, ok := lookup(tok.Text, combo, stageVars, globalVars)
		if !ok {
			unresolved = append(unresolved, tok.Text)
			continue
		}
		sb.WriteString(value)
	}

	if len(unresolved) > 0 {
		return "", &UnresolvedFieldError{Template: t.source, Fields: unresolved}
	}
	return sb.String(), nil
}

// Render parses tpl and renders it.
func Render(tpl string, combo matrix.Combination, stageVars, globalVars map[string]string) (string, error) {
	return Parse(tpl).Render(combo, stageVars, globalVars)
}

func lookup(name string, combo matrix.Combination, stageVars, globalVars map[string]string) (string, bool) {
	if v, ok := combo.Get(name); ok {
		return v, true
	}
	if v, ok := stageVars[name]; ok {
		return v, true
	}
	v, ok := globalVars[name]
	return v, ok
}
