package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind is the declared type of a tool argument.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
)

func parseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindString, "":
		return KindString, nil
	case KindNumber, "integer", "float":
		return KindNumber, nil
	case KindBoolean, "bool":
		return KindBoolean, nil
	default:
		return "", fmt.Errorf("unknown argument kind: %q", value)
	}
}

// Handler is the executable behind a tool. It receives the validated
// argument map and returns the result rendered as text.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Field describes a single declared tool argument.
type Field struct {
	Name        string
	Kind        Kind
	Required    bool
	Default     any
	Description string
}

// Spec is the validated record for one registered tool: identity,
// human-readable description, ordered argument schema, and the handler.
type Spec struct {
	Name        string
	Description string
	Fields      []Field
	Handler     Handler
}

// Builder assembles a Spec field by field. Errors accumulate and surface
// once from Spec(), so call sites stay fluent.
type Builder struct {
	spec Spec
	err  error
}

func New(name, description string) *Builder {
	b := &Builder{spec: Spec{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}}
	if b.spec.Name == "" {
		b.err = errors.New("tool name is required")
	}
	return b
}

func (b *Builder) String(name, description string, required bool) *Builder {
	return b.field(Field{Name: name, Kind: KindString, Required: required, Description: description})
}

func (b *Builder) Number(name, description string, required bool) *Builder {
	return b.field(Field{Name: name, Kind: KindNumber, Required: required, Description: description})
}

func (b *Builder) Boolean(name, description string, required bool) *Builder {
	return b.field(Field{Name: name, Kind: KindBoolean, Required: required, Description: description})
}

// WithDefault attaches a default value to the most recently added field.
func (b *Builder) WithDefault(value any) *Builder {
	if b.err != nil {
		return b
	}
	if len(b.spec.Fields) == 0 {
		b.err = errors.New("default declared before any field")
		return b
	}
	last := &b.spec.Fields[len(b.spec.Fields)-1]
	if last.Required {
		b.err = fmt.Errorf("field %q is required and cannot carry a default", last.Name)
		return b
	}
	last.Default = value
	return b
}

func (b *Builder) Handler(fn Handler) *Builder {
	if b.err == nil && fn == nil {
		b.err = errors.New("nil handler")
		return b
	}
	b.spec.Handler = fn
	return b
}

func (b *Builder) field(f Field) *Builder {
	if b.err != nil {
		return b
	}
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		b.err = errors.New("field name is required")
		return b
	}
	if f.Required && f.Default != nil {
		b.err = fmt.Errorf("field %q is required and cannot carry a default", f.Name)
		return b
	}
	for _, existing := range b.spec.Fields {
		if existing.Name == f.Name {
			b.err = fmt.Errorf("duplicate field %q in tool %q", f.Name, b.spec.Name)
			return b
		}
	}
	b.spec.Fields = append(b.spec.Fields, f)
	return b
}

// Spec finalizes the builder.
func (b *Builder) Spec() (Spec, error) {
	if b.err != nil {
		return Spec{}, b.err
	}
	if b.spec.Handler == nil {
		return Spec{}, fmt.Errorf("tool %q has no handler", b.spec.Name)
	}
	return b.spec, nil
}

// MustSpec is for statically declared builtins where a broken definition is
// a programming error.
func (b *Builder) MustSpec() Spec {
	spec, err := b.Spec()
	if err != nil {
		panic(err)
	}
	return spec
}
