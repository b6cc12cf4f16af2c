package expr

import (
	"fmt"
)

// Env provides entity variable access during evaluation. The entity store
// implements it; evaluation recurses through Value for referenced entities,
// which terminates because edits are gated on acyclicity.
type Env interface {
	// Value returns the evaluated value of an entity's variable.
	Value(entity int, name string) (Value, error)
	// ResolveOwner walks the parent chain of entity until it finds one that
	// defines the named base variable, defaulting to the root.
	ResolveOwner(entity int, name string) (int, error)
}

// Evaluate walks the expression tree against env, producing an exact
// rational or a pass-through text value.
func Evaluate(n Node, env Env) (Value, error) {
	switch v := n.(type) {
	case *Literal:
		return NumberValue(v.Value), nil

	case *VariableRef:
		return env.Value(v.Entity, v.Name)

	case *HelperCall:
		owner, err := env.ResolveOwner(v.Entity, v.Helper.BaseVariable())
		if err != nil {
			return Value{}, err
		}
		return env.Value(owner, v.Helper.BaseVariable())

	case *BinaryOp:
		left, err := Evaluate(v.Left, env)
		if err != nil {
			return Value{}, err
		}
		if !left.IsNumber() {
			return Value{}, &EvaluationTypeError{Op: v.Op.String(), Value: left.String()}
		}
		right, err := Evaluate(v.Right, env)
		if err != nil {
			return Value{}, err
		}
		if !right.IsNumber() {
			return Value{}, &EvaluationTypeError{Op: v.Op.String(), Value: right.String()}
		}
		switch v.Op {
		case OpAdd:
			return NumberValue(left.Number.Add(right.Number)), nil
		case OpSub:
			return NumberValue(left.Number.Sub(right.Number)), nil
		case OpMul:
			return NumberValue(left.Number.Mul(right.Number)), nil
		case OpDiv:
			quotient, err := left.Number.Div(right.Number)
			if err != nil {
				return Value{}, err
			}
			return NumberValue(quotient), nil
		}
	}
	return Value{}, fmt.Errorf("unreachable expression node %T", n)
}
