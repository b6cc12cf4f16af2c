package domain

import (
	"github.com/aretw0/cadence/pkg/expr"
	"github.com/aretw0/cadence/pkg/rational"
)

// VariableKind discriminates the closed variable storage union.
type VariableKind int

const (
	// VariableLiteral is a plain rational value.
	VariableLiteral VariableKind = iota
	// VariableString is a pass-through string (color, instrument).
	VariableString
	// VariableExpression is a compiled formula plus its source text.
	VariableExpression
)

func (k VariableKind) String() string {
	switch k {
	case VariableLiteral:
		return "literal"
	case VariableString:
		return "string"
	case VariableExpression:
		return "expression"
	}
	return "unknown"
}

// Variable is the tagged storage for one named value of an entity. Exactly
// the fields implied by Kind are meaningful; dispatch is explicit, never
// probed via runtime type inspection.
type Variable struct {
	Kind    VariableKind
	Literal rational.Rational // VariableLiteral
	Text    string            // VariableString
	Expr    expr.Node         // VariableExpression
	Source  string            // VariableExpression: retained source text
}

// LiteralVariable wraps a rational as a literal variable.
func LiteralVariable(r rational.Rational) Variable {
	return Variable{Kind: VariableLiteral, Literal: r}
}

// StringVariable wraps a pass-through string.
func StringVariable(text string) Variable {
	return Variable{Kind: VariableString, Text: text}
}

// ExpressionVariable wraps a compiled expression with its source text.
func ExpressionVariable(node expr.Node, source string) Variable {
	return Variable{Kind: VariableExpression, Expr: node, Source: source}
}

// IsExpression reports whether the variable holds a compiled formula.
func (v Variable) IsExpression() bool {
	return v.Kind == VariableExpression
}

// SourceText renders the variable the way it would appear in a document:
// expression source for formulas, canonical fraction text for literals,
// raw text for strings.
func (v Variable) SourceText() string {
	switch v.Kind {
	case VariableExpression:
		return v.Source
	case VariableString:
		return v.Text
	default:
		return v.Literal.String()
	}
}

// Clone deep-copies the variable, including its expression tree.
func (v Variable) Clone() Variable {
	if v.Kind == VariableExpression && v.Expr != nil {
		v.Expr = expr.Clone(v.Expr)
	}
	return v
}
