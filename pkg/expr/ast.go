package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/cadence/pkg/rational"
)

// Node is a parsed expression. The variants form a closed set: Literal,
// VariableRef, BinaryOp and HelperCall. Nothing outside this grammar is
// interpretable, which is what keeps evaluation free of host-code execution.
type Node interface {
	fmt.Stringer
	isNode()
}

// Literal is an exact rational constant.
type Literal struct {
	Value rational.Rational
}

// VariableRef reads another entity's variable, written as "e3.duration".
type VariableRef struct {
	Entity int
	Name   string
}

// Op is a binary arithmetic operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	}
	return "?"
}

// BinaryOp applies an arithmetic operator to two sub-expressions.
type BinaryOp struct {
	Op    Op
	Left  Node
	Right Node
}

// Helper identifies one of the chain-resolved lookup forms.
type Helper int

const (
	// HelperTempo is the effective tempo of an entity, resolved by walking
	// its parent chain until an entity defines the tempo variable.
	HelperTempo Helper = iota
	// HelperMeasure is the effective measure length of an entity, resolved
	// the same way against the measure-length variable.
	HelperMeasure
)

// Base variable names the helper forms resolve against.
const (
	BaseVarTempo         = "tempo"
	BaseVarMeasureLength = "measureLength"
)

func (h Helper) String() string {
	if h == HelperMeasure {
		return "measure"
	}
	return "tempo"
}

// BaseVariable returns the variable name the helper looks up the parent
// chain for.
func (h Helper) BaseVariable() string {
	if h == HelperMeasure {
		return BaseVarMeasureLength
	}
	return BaseVarTempo
}

// HelperCall is a chain-resolved lookup, written as "tempo(e2)" or
// "measure(e2)".
type HelperCall struct {
	Helper Helper
	Entity int
}

func (*Literal) isNode()     {}
func (*VariableRef) isNode() {}
func (*BinaryOp) isNode()    {}
func (*HelperCall) isNode()  {}

// precedence levels for the printer; higher binds tighter.
func precedence(n Node) int {
	if b, ok := n.(*BinaryOp); ok {
		if b.Op == OpAdd || b.Op == OpSub {
			return 1
		}
		return 2
	}
	return 3
}

func (l *Literal) String() string {
	if l.Value.Num() < 0 {
		// Keep negatives reparseable as a unary minus.
		return "-" + l.Value.Abs().String()
	}
	return l.Value.String()
}

func (r *VariableRef) String() string {
	return "e" + strconv.Itoa(r.Entity) + "." + r.Name
}

func (b *BinaryOp) String() string {
	var sb strings.Builder
	writeOperand(&sb, b.Left, precedence(b), false)
	sb.WriteString(" " + b.Op.String() + " ")
	// Subtraction and division are left-associative, so an equal-precedence
	// right operand still needs grouping.
	strict := b.Op == OpSub || b.Op == OpDiv
	writeOperand(&sb, b.Right, precedence(b), strict)
	return sb.String()
}

func writeOperand(sb *strings.Builder, n Node, parent int, strict bool) {
	p := precedence(n)
	needsParens := p < parent || (strict && p == parent)
	if !needsParens {
		if l, ok := n.(*Literal); ok && l.Value.Num() < 0 {
			needsParens = true // avoid "a - -1" style output
		}
	}
	if needsParens {
		sb.WriteString("(")
		sb.WriteString(n.String())
		sb.WriteString(")")
		return
	}
	sb.WriteString(n.String())
}

func (h *HelperCall) String() string {
	return h.Helper.String() + "(e" + strconv.Itoa(h.Entity) + ")"
}

// Walk visits n and every sub-expression in depth-first order.
func Walk(n Node, fn func(Node)) {
	fn(n)
	if b, ok := n.(*BinaryOp); ok {
		Walk(b.Left, fn)
		Walk(b.Right, fn)
	}
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Literal:
		c := *v
		return &c
	case *VariableRef:
		c := *v
		return &c
	case *HelperCall:
		c := *v
		return &c
	case *BinaryOp:
		return &BinaryOp{Op: v.Op, Left: Clone(v.Left), Right: Clone(v.Right)}
	}
	return n
}
