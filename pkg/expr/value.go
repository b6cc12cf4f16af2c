package expr

import (
	"encoding/json"

	"github.com/aretw0/cadence/pkg/rational"
)

// ValueKind discriminates the evaluation result union.
type ValueKind int

const (
	// ValueNumber is an exact rational result.
	ValueNumber ValueKind = iota
	// ValueText is a pass-through string (color, instrument name).
	ValueText
)

// Value is the result of evaluating an expression or reading a variable.
type Value struct {
	Kind   ValueKind
	Number rational.Rational
	Text   string
}

// NumberValue wraps a rational as a Value.
func NumberValue(r rational.Rational) Value {
	return Value{Kind: ValueNumber, Number: r}
}

// TextValue wraps a pass-through string as a Value.
func TextValue(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool {
	return v.Kind == ValueNumber
}

func (v Value) String() string {
	if v.Kind == ValueText {
		return v.Text
	}
	return v.Number.String()
}

// MarshalJSON renders numbers as exact fraction text plus a float
// approximation, so API consumers get both forms.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == ValueText {
		return json.Marshal(struct {
			Kind  string `json:"kind"`
			Value string `json:"value"`
		}{Kind: "text", Value: v.Text})
	}
	return json.Marshal(struct {
		Kind  string  `json:"kind"`
		Value string  `json:"value"`
		Float float64 `json:"float"`
	}{Kind: "number", Value: v.Number.String(), Float: v.Number.Float()})
}
