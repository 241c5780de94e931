package schema

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var formats = validator.New()

const (
	ConstraintRequired = "required"
	ConstraintKind     = "kind"
	ConstraintFormat   = "format"
	ConstraintEnum     = "enum"
)

// FieldError names one violated constraint at one field path.
type FieldError struct {
	Path       string `json:"path"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

// Error aggregates every field-level violation found in one pass.
type Error struct {
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Path, f.Message)
	}
	return strings.Join(parts, "; ")
}

// Validate interprets the descriptor against raw, untyped input and returns
// a value conforming exactly to the declared shape. Defaults are applied
// before required checks, so an absent optional field with a default is
// never reported missing. Validation is pure: it never executes node logic
// and never touches the network.
func Validate(f *Field, raw any) (any, error) {
	verr := &Error{}
	out := validate(f, raw, "$", verr)
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return out, nil
}

// ValidateObject is Validate for the common case of an object root fed from
// a map of property values.
func ValidateObject(f *Field, raw map[string]any) (map[string]any, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	out, err := Validate(f, raw)
	if err != nil {
		return nil, err
	}
	typed, _ := out.(map[string]any)
	return typed, nil
}

func validate(f *Field, raw any, path string, verr *Error) any {
	switch f.Kind {
	case KindAny:
		return raw

	case KindString:
		s, ok := raw.(string)
		if !ok {
			verr.add(path, ConstraintKind, fmt.Sprintf("expected string, got %T", raw))
			return nil
		}
		if f.Format != "" {
			if err := formats.Var(s, string(f.Format)); err != nil {
				verr.add(path, ConstraintFormat, fmt.Sprintf("not a valid %s", f.Format))
				return nil
			}
		}
		return s

	case KindNumber:
		n, ok := toNumber(raw)
		if !ok {
			verr.add(path, ConstraintKind, fmt.Sprintf("expected number, got %T", raw))
			return nil
		}
		return n

	case KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			verr.add(path, ConstraintKind, fmt.Sprintf("expected boolean, got %T", raw))
			return nil
		}
		return b

	case KindEnum:
		s, ok := raw.(string)
		if !ok {
			verr.add(path, ConstraintKind, fmt.Sprintf("expected string, got %T", raw))
			return nil
		}
		for _, v := range f.Values {
			if s == v {
				return s
			}
		}
		verr.add(path, ConstraintEnum, fmt.Sprintf("%q is not one of %v", s, f.Values))
		return nil

	case KindObject:
		m, ok := raw.(map[string]any)
		if !ok {
			verr.add(path, ConstraintKind, fmt.Sprintf("expected object, got %T", raw))
			return nil
		}
		// An object with no declared members is freeform: the value passes
		// through unchanged. Response header maps use this.
		if len(f.Fields) == 0 {
			return m
		}
		out := make(map[string]any, len(f.Fields))
		for _, member := range f.Fields {
			memberPath := path + "." + member.Name
			value, present := m[member.Name]
			if !present || value == nil {
				if member.Field.Default != nil {
					// Defaults pass through validation too, so they are
					// normalized the same way user input is.
					out[member.Name] = validate(member.Field, member.Field.Default, memberPath, verr)
					continue
				}
				if member.Field.Required {
					verr.add(memberPath, ConstraintRequired, "required field is missing")
				}
				continue
			}
			out[member.Name] = validate(member.Field, value, memberPath, verr)
		}
		return out

	case KindArray:
		items, ok := raw.([]any)
		if !ok {
			verr.add(path, ConstraintKind, fmt.Sprintf("expected array, got %T", raw))
			return nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = validate(f.Elem, item, fmt.Sprintf("%s[%d]", path, i), verr)
		}
		return out

	default:
		verr.add(path, ConstraintKind, fmt.Sprintf("unknown kind %q", f.Kind))
		return nil
	}
}

func (e *Error) add(path, constraint, message string) {
	e.Fields = append(e.Fields, FieldError{Path: path, Constraint: constraint, Message: message})
}

// toNumber normalizes the numeric types JSON decoding and Go callers
// produce into float64.
func toNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
