// Package template parses the restricted ${item.<field>} placeholder
// grammar used in stage commands and output paths, renders templates for a
// combination, and inverts rendered strings back to the field values that
// produced them.
//
// Two placeholder forms are recognized:
//
//	${item.size}   a matrix field, bound per combination
//	${data_dir}    a variable, resolved from stage or global vars
//
// Anything else, including a bare $NAME, is literal text.
package template

import (
	"regexp"
	"strings"
)

// TokenKind classifies a parsed template token.
type TokenKind int

const (
	// Literal is verbatim text.
	Literal TokenKind = iota
	// Field is an ${item.<field>} placeholder.
	Field
	// Var is a ${<name>} placeholder that does not use the item prefix.
	Var
)

// Token is one element of a parsed template. For Literal tokens Text is
// the literal text; for Field and Var tokens it is the referenced name.
type Token struct {
	Kind TokenKind
	Text string
}

// Template is a parsed placeholder template.
type Template struct {
	source string
	tokens []Token
}

const itemPrefix = "item."

var (
	fieldName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	varName   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
)

// Parse splits s into literal and placeholder tokens. Parse never fails:
// malformed placeholders are kept as literal text.
func Parse(s string) Template {
	t := Template{source: s}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.tokens = append(t.tokens, Token{Kind: Literal, Text: lit.String()})
			lit.Reset()
		}
	}

	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			lit.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			lit.WriteString(rest)
			break
		}
		end += start

		inner := rest[start+2 : end]
		lit.WriteString(rest[:start])
		switch {
		case strings.HasPrefix(inner, itemPrefix) && fieldName.MatchString(inner[len(itemPrefix):]):
			flush()
			t.tokens = append(t.tokens, Token{Kind: Field, Text: inner[len(itemPrefix):]})
		case varName.MatchString(inner) && !strings.HasPrefix(inner, itemPrefix):
			flush()
			t.tokens = append(t.tokens, Token{Kind: Var, Text: inner})
		default:
			// Not a placeholder; rescan after the "${" so a nested
			// placeholder is still found.
			lit.WriteString("${")
			rest = rest[start+2:]
			continue
		}
		rest = rest[end+1:]
	}
	flush()
	return t
}

// String returns the original template text.
func (t Template) String() string {
	return t.source
}

// Tokens returns the parsed token sequence.
func (t Template) Tokens() []Token {
	return t.tokens
}

// Fields returns the ${item.<field>} names in order of appearance.
// Repeated fields are listed once per occurrence.
func (t Template) Fields() []string {
	var fields []string
	for _, tok := range t.tokens {
		if tok.Kind == Field {
			fields = append(fields, tok.Text)
		}
	}
	return fields
}

// HasPlaceholders reports whether the template contains any field or
// variable reference.
func (t Template) HasPlaceholders() bool {
	for _, tok := range t.tokens {
		if tok.Kind != Literal {
			return true
		}
	}
	return false
}

// Display formats a rendered command for humans: every backslash line
// continuation is followed by a tab so continued lines stay indented.
func Display(cmd string) string {
	return strings.ReplaceAll(cmd, "\\\n", "\\\n\t")
}
