// Package schema models the declarative shape of a node's inputs, outputs
// and secret values as plain data, so the form renderer can serialize it
// and the validator can interpret it without reflection.
package schema

import "fmt"

type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	// KindAny accepts any value. Used by result schemas whose shape is
	// only known at runtime, such as the code node's output.
	KindAny Kind = "any"
)

// Widget is a presentation hint for the form renderer. It never affects
// validation.
type Widget string

const (
	WidgetText     Widget = "text"
	WidgetTextarea Widget = "textarea"
	WidgetSelect   Widget = "select"
	WidgetCode     Widget = "code"
	WidgetPassword Widget = "password"
)

type Format string

const (
	FormatURL   Format = "url"
	FormatEmail Format = "email"
)

// Field describes one typed field. Object members are kept as an ordered
// slice so the builder renders them in declaration order; name uniqueness
// within a level is enforced by Check at registry build time.
type Field struct {
	Kind        Kind     `json:"kind"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Widget      Widget   `json:"widget,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Default     any      `json:"default,omitempty"`
	Format      Format   `json:"format,omitempty"`
	Values      []string `json:"values,omitempty"`
	Fields      []Named  `json:"fields,omitempty"`
	Elem        *Field   `json:"elem,omitempty"`
}

type Named struct {
	Name  string `json:"name"`
	Field *Field `json:"field"`
}

// Object builds an object field from ordered members.
func Object(fields ...Named) *Field {
	return &Field{Kind: KindObject, Fields: fields}
}

// N pairs a member name with its field.
func N(name string, f *Field) Named {
	return Named{Name: name, Field: f}
}

// KeyValueList models lists like HTTP headers as an array of {key, value}
// objects. Duplicate keys are a UI concern, not a schema violation.
func KeyValueList() *Field {
	return &Field{
		Kind: KindArray,
		Elem: Object(
			N("key", &Field{Kind: KindString, Required: true}),
			N("value", &Field{Kind: KindString, Required: true}),
		),
	}
}

// Check verifies structural invariants of the descriptor tree: member name
// uniqueness per object level, enum values present, array element declared.
// It is called once at registry build time; a failure is a defect in the
// node package, not user input.
func Check(f *Field) error {
	return check(f, "$")
}

func check(f *Field, path string) error {
	if f == nil {
		return fmt.Errorf("%s: nil field", path)
	}
	switch f.Kind {
	case KindString, KindNumber, KindBoolean, KindAny:
		return nil
	case KindEnum:
		if len(f.Values) == 0 {
			return fmt.Errorf("%s: enum without values", path)
		}
		return nil
	case KindObject:
		seen := make(map[string]struct{}, len(f.Fields))
		for _, m := range f.Fields {
			if m.Name == "" {
				return fmt.Errorf("%s: unnamed member", path)
			}
			if _, dup := seen[m.Name]; dup {
				return fmt.Errorf("%s: duplicate member %q", path, m.Name)
			}
			seen[m.Name] = struct{}{}
			if err := check(m.Field, path+"."+m.Name); err != nil {
				return err
			}
		}
		return nil
	case KindArray:
		if f.Elem == nil {
			return fmt.Errorf("%s: array without element type", path)
		}
		return check(f.Elem, path+"[]")
	default:
		return fmt.Errorf("%s: unknown kind %q", path, f.Kind)
	}
}
