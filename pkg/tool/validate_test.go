package tool

import (
	"errors"
	"testing"
)

var calcFields = []Field{
	{Name: "operation", Kind: KindString, Required: true},
	{Name: "a", Kind: KindNumber, Required: true},
	{Name: "b", Kind: KindNumber, Required: true},
	{Name: "verbose", Kind: KindBoolean, Default: false},
}

func TestValidateCoercesStringNumerics(t *testing.T) {
	out, err := Validate(calcFields, map[string]any{
		"operation": "add",
		"a":         "2",
		"b":         "3",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out["a"].(float64) != 2 || out["b"].(float64) != 3 {
		t.Fatalf("expected numeric coercion, got %v", out)
	}
	if out["verbose"].(bool) != false {
		t.Fatalf("expected default applied, got %v", out["verbose"])
	}
}

func TestValidateEnumeratesEveryViolation(t *testing.T) {
	_, err := Validate(calcFields, map[string]any{
		"a":     "not-a-number",
		"extra": 1,
	})
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	// a fails coercion, b and operation are missing, extra is unknown.
	if len(verr.Violations) != 4 {
		t.Fatalf("expected 4 violations, got %d: %v", len(verr.Violations), verr.Violations)
	}
	fields := map[string]bool{}
	for _, v := range verr.Violations {
		fields[v.Field] = true
	}
	for _, want := range []string{"a", "b", "operation", "extra"} {
		if !fields[want] {
			t.Fatalf("missing violation for %s: %v", want, verr.Violations)
		}
	}
}

func TestValidateViolationsSortedByField(t *testing.T) {
	_, err := Validate(calcFields, map[string]any{})
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for i := 1; i < len(verr.Violations); i++ {
		if verr.Violations[i-1].Field > verr.Violations[i].Field {
			t.Fatalf("violations not sorted: %v", verr.Violations)
		}
	}
}

func TestValidateBooleanCoercion(t *testing.T) {
	out, err := Validate(calcFields, map[string]any{
		"operation": "add",
		"a":         1,
		"b":         2,
		"verbose":   "true",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out["verbose"].(bool) != true {
		t.Fatalf("expected boolean coercion, got %v", out["verbose"])
	}
}

func TestValidateRejectsWrongTypes(t *testing.T) {
	_, err := Validate(calcFields, map[string]any{
		"operation": []string{"add"},
		"a":         map[string]any{},
		"b":         2,
	})
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", verr.Violations)
	}
}

func TestDecodeArgs(t *testing.T) {
	var decoded struct {
		Operation string  `mapstructure:"operation"`
		A         float64 `mapstructure:"a"`
		B         float64 `mapstructure:"b"`
	}
	args, err := Validate(calcFields, map[string]any{"operation": "add", "a": "2", "b": 3})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := DecodeArgs(args, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Operation != "add" || decoded.A != 2 || decoded.B != 3 {
		t.Fatalf("unexpected decode result: %+v", decoded)
	}
}
