package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoMatch is returned by Invert when the rendered string does not have
// the shape the template describes.
var ErrNoMatch = errors.New("rendered text does not match template")

// Pattern compiles the template into a regular expression. Literal text is
// matched verbatim, each field becomes a capturing group of one or more
// non-slash characters, and each variable becomes the same group without
// capturing. Bind variables first when their values are known. The pattern
// is unanchored.
func (t Template) Pattern() *regexp.Regexp {
	var sb strings.Builder
	for _, tok := range t.tokens {
		switch tok.Kind {
		case Literal:
			sb.WriteString(regexp.QuoteMeta(tok.Text))
		case Field:
			sb.WriteString(`([^/]+)`)
		case Var:
			sb.WriteString(`(?:[^/]+)`)
		}
	}
	// Only literals are escaped and groups are fixed, so this cannot fail.
	return regexp.MustCompile(sb.String())
}

// Invert recovers the field values that render t into rendered. The first
// match anywhere in rendered wins. When a field occurs more than once, the
// value captured by its last occurrence is kept.
func (t Template) Invert(rendered string) (map[string]string, error) {
	groups := t.Pattern().FindStringSubmatch(rendered)
	if groups == nil {
		return nil, fmt.Errorf("%w: %q against %q", ErrNoMatch, rendered, t.source)
	}

	fields := t.Fields()
	values := make(map[string]string, len(fields))
	for i, name := range fields {
		values[name] = groups[i+1]
	}
	return values, nil
}

// Bind returns a copy of t with every variable found in scopes replaced by
// its value as literal text. Scopes are searched in order, so pass stage
// vars before global vars. Unknown variables stay placeholders.
func (t Template) Bind(scopes ...map[string]string) Template {
	bound := Template{source: t.source, tokens: make([]Token, 0, len(t.tokens))}
	for _, tok := range t.tokens {
		if tok.Kind == Var {
			if value, ok := lookupVar(tok.Text, scopes); ok {
				tok = Token{Kind: Literal, Text: value}
			}
		}
		bound.tokens = append(bound.tokens, tok)
	}
	return bound
}

func lookupVar(name string, scopes []map[string]string) (string, bool) {
	for _, scope := range scopes {
		if v, ok := scope[name]; ok {
			return v, true
		}
	}
	return "", false
}

// Invert parses tpl and inverts rendered against it.
func Invert(tpl, rendered string) (map[string]string, error) {
	return Parse(tpl).Invert(rendered)
}
