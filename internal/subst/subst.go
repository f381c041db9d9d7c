// ABOUTME: ${name} placeholder substitution used by argument templates and native classifiers
// ABOUTME: Small state-machine scanner; unknown names are a hard error, never passed through

package subst

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnterminated is returned when a "${" has no closing brace.
var ErrUnterminated = errors.New("unterminated placeholder")

// UnboundError reports a placeholder with no binding.
type UnboundError struct {
	Name   string
	Offset int // byte offset of the "$" in the template
}

func (e *UnboundError) Error() string {
	return fmt.Sprintf("unbound placeholder ${%s} at offset %d", e.Name, e.Offset)
}

// Bindings maps placeholder names to their replacement values.
type Bindings map[string]string

type state int

const (
	stateText state = iota
	stateDollar
	stateName
)

// Substitute replaces every ${name} in template with bindings[name].
// A "$" that does not open a placeholder is copied verbatim.
func Substitute(template string, bindings Bindings) (string, error) {
	var out strings.Builder
	out.Grow(len(template))

	st := stateText
	start := 0 // offset of the current "$"
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch st {
		case stateText:
			if c == '$' {
				st = stateDollar
				start = i
				continue
			}
			out.WriteByte(c)
		case stateDollar:
			switch c {
			case '{':
				st = stateName
			case '$':
				out.WriteByte('$')
				start = i
			default:
				out.WriteByte('$')
				out.WriteByte(c)
				st = stateText
			}
		case stateName:
			if c != '}' {
				continue
			}
			name := template[start+2 : i]
			val, ok := bindings[name]
			if !ok {
				return "", &UnboundError{Name: name, Offset: start}
			}
			out.WriteString(val)
			st = stateText
		}
	}

	switch st {
	case stateDollar:
		out.WriteByte('$')
	case stateName:
		return "", fmt.Errorf("%w at offset %d", ErrUnterminated, start)
	}
	return out.String(), nil
}

// SubstituteAll applies Substitute to each token independently.
func SubstituteAll(tokens []string, bindings Bindings) ([]string, error) {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		s, err := Substitute(tok, bindings)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
