package tool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// FieldViolation is one offending argument in a validation failure.
type FieldViolation struct {
	Field   string
	Message string
}

// ValidationError carries the complete violation set for one argument
// mapping, never just the first offender.
type ValidationError struct {
	Violations []FieldViolation
}

func (e ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "invalid arguments: " + strings.Join(parts, "; ")
}

// Validate checks a raw argument mapping against the declared fields and
// returns the fully-typed argument map. Coercion is attempted for string
// inputs on number/boolean fields, defaults fill absent optional fields, and
// unknown keys are rejected. All violations are collected and reported in
// field order.
func Validate(fields []Field, raw map[string]any) (map[string]any, error) {
	declared := make(map[string]Field, len(fields))
	for _, f := range fields {
		declared[f.Name] = f
	}

	var violations []FieldViolation
	out := make(map[string]any, len(fields))

	for name := range raw {
		if _, ok := declared[name]; !ok {
			violations = append(violations, FieldViolation{Field: name, Message: "unknown field"})
		}
	}

	for _, f := range fields {
		value, present := raw[f.Name]
		if !present {
			if f.Required {
				violations = append(violations, FieldViolation{Field: f.Name, Message: "required field missing"})
				continue
			}
			if f.Default != nil {
				coerced, err := coerce(f.Kind, f.Default)
				if err != nil {
					violations = append(violations, FieldViolation{Field: f.Name, Message: "invalid default: " + err.Error()})
					continue
				}
				out[f.Name] = coerced
			}
			continue
		}
		coerced, err := coerce(f.Kind, value)
		if err != nil {
			violations = append(violations, FieldViolation{Field: f.Name, Message: err.Error()})
			continue
		}
		out[f.Name] = coerced
	}

	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })
		return nil, ValidationError{Violations: violations}
	}
	return out, nil
}

func coerce(kind Kind, value any) (any, error) {
	switch kind {
	case KindString:
		switch value.(type) {
		case string:
			return value, nil
		case bool, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return cast.ToStringE(value)
		default:
			return nil, fmt.Errorf("expected string, got %T", value)
		}
	case KindNumber:
		switch value.(type) {
		case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return cast.ToFloat64E(value)
		case string:
			n, err := cast.ToFloat64E(value)
			if err != nil {
				return nil, fmt.Errorf("cannot coerce %q to number", value)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("expected number, got %T", value)
		}
	case KindBoolean:
		switch value.(type) {
		case bool:
			return value, nil
		case string:
			b, err := cast.ToBoolE(value)
			if err != nil {
				return nil, fmt.Errorf("cannot coerce %q to boolean", value)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}
