package expr

import "fmt"

// SyntaxError reports malformed expression text.
type SyntaxError struct {
	Pos int    // Byte offset into the source
	Msg string // Human-readable reason
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// UnknownEntityError reports a reference to an entity id that does not exist.
type UnknownEntityError struct {
	Entity int
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity e%d", e.Entity)
}

// UnknownVariableError reports a reference to a variable the target entity
// does not define.
type UnknownVariableError struct {
	Entity int
	Name   string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("entity e%d has no variable %q", e.Entity, e.Name)
}

// EvaluationTypeError reports an operator applied to a non-numeric value.
type EvaluationTypeError struct {
	Op    string
	Value string // Offending value, rendered
}

func (e *EvaluationTypeError) Error() string {
	return fmt.Sprintf("operator %q applied to non-numeric value %q", e.Op, e.Value)
}
