// Package matrix expands named parameter lists into their ordered cross
// product and names the resulting stage instances.
package matrix

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedGridArg is returned by ParseGridArgs for arguments that are
// not of the form --name=v1,v2.
var ErrMalformedGridArg = errors.New("malformed grid argument")

// Parameter is one named value list of a matrix declaration.
type Parameter struct {
	Name   string
	Values []string
}

// ParameterSet is an ordered list of parameters. Order matters: it fixes
// the order of the cross product and therefore every stage index.
type ParameterSet []Parameter

// Names returns the parameter names in declaration order.
func (p ParameterSet) Names() []string {
	names := make([]string, len(p))
	for i, param := range p {
		names[i] = param.Name
	}
	return names
}

// Size returns the number of combinations Expand will produce. The
// product of no parameters is one empty combination.
func (p ParameterSet) Size() int {
	n := 1
	for _, param := range p {
		n *= len(param.Values)
	}
	return n
}

// Binding is a single parameter value inside a Combination.
type Binding struct {
	Name  string
	Value string
}

// Combination is one element of the cross product, holding exactly one
// value per parameter in declaration order.
type Combination []Binding

// Get returns the value bound to name.
func (c Combination) Get(name string) (string, bool) {
	for _, b := range c {
		if b.Name == name {
			return b.Value, true
		}
	}
	return "", false
}

// Map returns the combination as a plain map.
func (c Combination) Map() map[string]string {
	m := make(map[string]string, len(c))
	for _, b := range c {
		m[b.Name] = b.Value
	}
	return m
}

// String renders the combination as name=value pairs.
func (c Combination) String() string {
	parts := make([]string, len(c))
	for i, b := range c {
		parts[i] = b.Name + "=" + b.Value
	}
	return strings.Join(parts, " ")
}

// Expand returns the cross product of params. The last parameter varies
// fastest. An empty value list anywhere yields no combinations; no
// parameters at all yield a single empty combination.
func Expand(params ParameterSet) []Combination {
	total := params.Size()
	if total == 0 {
		return nil
	}

	result := make([]Combination, 0, total)
	indices := make([]int, len(params))
	for {
		combo := make(Combination, len(params))
		for i, param := range params {
			combo[i] = Binding{Name: param.Name, Value: param.Values[indices[i]]}
		}
		result = append(result, combo)

		// Odometer increment, rightmost first.
		pos := len(params) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(params[pos].Values) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return result
		}
	}
}

// StageName returns the composite name of the index-th instance of base.
func StageName(base string, index int) string {
	return base + "@" + strconv.Itoa(index)
}

// SplitStageName splits a composite "<base>@<index>" name. For a bare
// name, ok is false and index is -1.
func SplitStageName(name string) (base string, index int, ok bool) {
	at := strings.LastIndex(name, "@")
	if at < 0 {
		return name, -1, false
	}
	index, err := strconv.Atoi(name[at+1:])
	if err != nil || index < 0 {
		return name, -1, false
	}
	return name[:at], index, true
}

// ParseGridArgs parses ad-hoc grid arguments of the form --name=v1,v2
// into a ParameterSet, keeping argument order.
func ParseGridArgs(args []string) (ParameterSet, error) {
	var params ParameterSet
	for _, arg := range args {
		name, values, found := strings.Cut(arg, "=")
		name = strings.TrimLeft(name, "-")
		if !found || name == "" {
			return nil, fmt.Errorf("%w: %q (want --name=v1,v2)", ErrMalformedGridArg, arg)
		}
		params = append(params, Parameter{Name: name, Values: strings.Split(values, ",")})
	}
	return params, nil
}
