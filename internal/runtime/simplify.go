package runtime

import (
	"sort"

	"github.com/aretw0/cadence/pkg/expr"
	"github.com/aretw0/cadence/pkg/rational"
)

// simplify applies the algebraic clean-up pass between inlining rounds:
// literal arithmetic is folded, multiplicative identities are removed, and
// repeated additive terms of the same structural shape are folded into a
// single scaled term by summing their coefficients.
func simplify(n expr.Node) expr.Node {
	b, ok := n.(*expr.BinaryOp)
	if !ok {
		return n
	}
	b = &expr.BinaryOp{Op: b.Op, Left: simplify(b.Left), Right: simplify(b.Right)}

	if folded, ok := foldLiterals(b); ok {
		return folded
	}
	if b.Op == expr.OpAdd || b.Op == expr.OpSub {
		return foldSum(b)
	}
	return applyIdentities(b)
}

// foldLiterals evaluates an operator over two literals. Division by zero is
// left in the tree so the error surfaces at evaluation time.
func foldLiterals(b *expr.BinaryOp) (expr.Node, bool) {
	left, lok := b.Left.(*expr.Literal)
	right, rok := b.Right.(*expr.Literal)
	if !lok || !rok {
		return nil, false
	}
	switch b.Op {
	case expr.OpAdd:
		return &expr.Literal{Value: left.Value.Add(right.Value)}, true
	case expr.OpSub:
		return &expr.Literal{Value: left.Value.Sub(right.Value)}, true
	case expr.OpMul:
		return &expr.Literal{Value: left.Value.Mul(right.Value)}, true
	case expr.OpDiv:
		quotient, err := left.Value.Div(right.Value)
		if err != nil {
			return nil, false
		}
		return &expr.Literal{Value: quotient}, true
	}
	return nil, false
}

func applyIdentities(b *expr.BinaryOp) expr.Node {
	one := rational.FromInt(1)
	switch b.Op {
	case expr.OpMul:
		if lit, ok := b.Left.(*expr.Literal); ok {
			if lit.Value.IsZero() {
				return &expr.Literal{Value: rational.FromInt(0)}
			}
			if lit.Value == one {
				return b.Right
			}
		}
		if lit, ok := b.Right.(*expr.Literal); ok {
			if lit.Value.IsZero() {
				return &expr.Literal{Value: rational.FromInt(0)}
			}
			if lit.Value == one {
				return b.Left
			}
		}
	case expr.OpDiv:
		if lit, ok := b.Right.(*expr.Literal); ok && lit.Value == one {
			return b.Left
		}
	}
	return b
}

// term is one additive component: coefficient times a structural core.
// A nil core is the constant term.
type term struct {
	coeff rational.Rational
	core  expr.Node
}

// foldSum flattens an additive tree into terms, groups terms whose cores
// print identically, sums coefficients, and rebuilds a canonical sum.
func foldSum(n expr.Node) expr.Node {
	var terms []term
	collectTerms(n, rational.FromInt(1), &terms)

	grouped := make(map[string]*term)
	var order []string
	for _, t := range terms {
		key := ""
		if t.core != nil {
			key = t.core.String()
		}
		if existing, ok := grouped[key]; ok {
			existing.coeff = existing.coeff.Add(t.coeff)
			continue
		}
		copied := t
		grouped[key] = &copied
		order = append(order, key)
	}
	// Constant term last, symbolic terms in stable print order.
	sort.SliceStable(order, func(i, j int) bool {
		if (order[i] == "") != (order[j] == "") {
			return order[j] == ""
		}
		return order[i] < order[j]
	})

	var out expr.Node
	for _, key := range order {
		t := grouped[key]
		if t.coeff.IsZero() {
			continue
		}
		out = appendTerm(out, *t)
	}
	if out == nil {
		return &expr.Literal{Value: rational.FromInt(0)}
	}
	return out
}

// collectTerms walks Add/Sub spines, scaling by sign, and extracts the
// literal coefficient of each leaf term.
func collectTerms(n expr.Node, scale rational.Rational, out *[]term) {
	if b, ok := n.(*expr.BinaryOp); ok {
		switch b.Op {
		case expr.OpAdd:
			collectTerms(b.Left, scale, out)
			collectTerms(b.Right, scale, out)
			return
		case expr.OpSub:
			collectTerms(b.Left, scale, out)
			collectTerms(b.Right, scale.Neg(), out)
			return
		}
	}
	coeff, core := splitCoefficient(n)
	*out = append(*out, term{coeff: scale.Mul(coeff), core: core})
}

// splitCoefficient peels literal factors off a term: 2 * x yields (2, x),
// x / 4 yields (1/4, x), a bare literal yields (value, nil).
func splitCoefficient(n expr.Node) (rational.Rational, expr.Node) {
	switch v := n.(type) {
	case *expr.Literal:
		return v.Value, nil
	case *expr.BinaryOp:
		switch v.Op {
		case expr.OpMul:
			lc, lcore := splitCoefficient(v.Left)
			rc, rcore := splitCoefficient(v.Right)
			if lcore == nil {
				return lc.Mul(rc), rcore
			}
			if rcore == nil {
				return lc.Mul(rc), lcore
			}
		case expr.OpDiv:
			if lit, ok := v.Right.(*expr.Literal); ok && !lit.Value.IsZero() {
				lc, lcore := splitCoefficient(v.Left)
				inv, _ := rational.FromInt(1).Div(lit.Value)
				return lc.Mul(inv), lcore
			}
		}
	}
	return rational.FromInt(1), n
}

// appendTerm attaches coeff*core to the running sum, preferring subtraction
// over negative coefficients so the printed form stays readable.
func appendTerm(sum expr.Node, t term) expr.Node {
	negative := t.coeff.Cmp(rational.Rational{}) < 0
	coeff := t.coeff
	if negative && sum != nil {
		coeff = coeff.Neg()
	}

	var node expr.Node
	switch {
	case t.core == nil:
		node = &expr.Literal{Value: coeff}
	case coeff == rational.FromInt(1):
		node = t.core
	default:
		node = &expr.BinaryOp{Op: expr.OpMul, Left: &expr.Literal{Value: coeff}, Right: t.core}
	}

	if sum == nil {
		return node
	}
	op := expr.OpAdd
	if negative {
		op = expr.OpSub
	}
	return &expr.BinaryOp{Op: op, Left: sum, Right: node}
}
