package runtime

import (
	"math"
	"sort"

	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
)

const (
	// defaultMaxRebaseIterations bounds the symbolic inlining loop so rebase
	// terminates even on pathological reference chains.
	defaultMaxRebaseIterations = 15
	// defaultRebaseTolerance is the numeric verification tolerance, in
	// evaluated seconds/Hz units.
	defaultRebaseTolerance = 1e-4
)

// RebaseCounts tallies per-variable outcomes of rebasing one entity.
type RebaseCounts struct {
	Exact    int `json:"exact"`    // symbolic rewrite verified and accepted
	Fallback int `json:"fallback"` // degraded to a numeric snapshot
}

// RebaseReport aggregates a whole-module rebase.
type RebaseReport struct {
	PerEntity map[int]RebaseCounts `json:"per_entity"`
	Exact     int                  `json:"exact"`
	Fallback  int                  `json:"fallback"`
}

// RebaseToRoot rewrites each expression variable of the entity into a
// root-relative expression preserving its evaluated value. The function is
// total over valid entities: when symbolic rewriting fails verification or
// exhausts the iteration bound, the variable degrades to a literal snapshot
// of its current value, and the degradation is reported through the
// logger and the OnRebaseFallback hook rather than silently.
func (m *Module) RebaseToRoot(id int) (RebaseCounts, error) {
	var counts RebaseCounts
	entity, ok := m.entities[id]
	if !ok {
		return counts, &expr.UnknownEntityError{Entity: id}
	}
	if id == domain.RootID {
		return counts, nil
	}

	names := make([]string, 0, len(entity.Vars))
	for name, v := range entity.Vars {
		if v.IsExpression() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		original, err := m.GetVariable(id, name)
		if err != nil {
			// Broken evaluation means there is no value to preserve; the
			// variable is left untouched.
			m.logger.Error("rebase cannot evaluate variable", "entity", id, "name", name, "err", err)
			counts.Fallback++
			continue
		}

		node := expr.Clone(entity.Vars[name].Expr)
		iterations := 0
		for ; iterations < m.maxRebaseIterations; iterations++ {
			if !hasNonRootReads(node) {
				break
			}
			node = simplify(m.inlineOnce(node))
		}

		if m.acceptRewrite(node, original) {
			recompiled, err := m.Compile(node.String())
			if err == nil {
				m.commitVariable(entity, name, recompiled)
				counts.Exact++
				continue
			}
			m.logger.Error("rebase produced unparseable source", "entity", id, "name", name, "err", err)
		}

		m.commitVariable(entity, name, freezeValue(original))
		counts.Fallback++
		m.logger.Warn("rebase fell back to numeric snapshot",
			"entity", id, "name", name, "iterations", iterations)
		if m.hooks.OnRebaseFallback != nil {
			m.hooks.OnRebaseFallback(&domain.RebaseEvent{
				Entity:     id,
				Name:       name,
				Iterations: iterations,
				Fallback:   true,
			})
		}
	}
	return counts, nil
}

// RebaseModule rebases every non-root entity in ascending id order, so
// entities processed earlier serve as already-simplified inputs for later
// ones.
func (m *Module) RebaseModule() (RebaseReport, error) {
	report := RebaseReport{PerEntity: make(map[int]RebaseCounts)}
	for _, id := range m.IDs() {
		if id == domain.RootID {
			continue
		}
		counts, err := m.RebaseToRoot(id)
		if err != nil {
			return report, err
		}
		report.PerEntity[id] = counts
		report.Exact += counts.Exact
		report.Fallback += counts.Fallback
	}
	return report, nil
}

// acceptRewrite verifies a candidate rewrite: it must read only from the
// root and evaluate within tolerance of the original value.
func (m *Module) acceptRewrite(node expr.Node, original expr.Value) bool {
	if hasNonRootReads(node) {
		return false
	}
	if !original.IsNumber() {
		return false
	}
	rewritten, err := expr.Evaluate(node, m)
	if err != nil || !rewritten.IsNumber() {
		return false
	}
	return math.Abs(rewritten.Number.Float()-original.Number.Float()) <= m.rebaseTolerance
}

// hasNonRootReads reports whether the tree still references a non-root
// entity.
func hasNonRootReads(n expr.Node) bool {
	found := false
	expr.Walk(n, func(node expr.Node) {
		switch v := node.(type) {
		case *expr.VariableRef:
			if v.Entity != domain.RootID {
				found = true
			}
		case *expr.HelperCall:
			if v.Entity != domain.RootID {
				found = true
			}
		}
	})
	return found
}

// inlineOnce performs one structural inlining pass: non-root references are
// replaced by the referenced entity's own expression or literal, and helper
// calls on non-root entities are rewritten toward their resolved owner,
// reaching the root-entity form in at most one step per pass.
func (m *Module) inlineOnce(n expr.Node) expr.Node {
	switch v := n.(type) {
	case *expr.VariableRef:
		if v.Entity == domain.RootID {
			return v
		}
		target, ok := m.entities[v.Entity]
		if !ok {
			return v
		}
		tv, ok := target.Vars[v.Name]
		if !ok {
			return v
		}
		switch tv.Kind {
		case domain.VariableLiteral:
			return &expr.Literal{Value: tv.Literal}
		case domain.VariableExpression:
			return expr.Clone(tv.Expr)
		}
		return v // strings cannot be inlined; verification will reject

	case *expr.HelperCall:
		if v.Entity == domain.RootID {
			return v
		}
		owner, err := m.ResolveOwner(v.Entity, v.Helper.BaseVariable())
		if err != nil {
			return v
		}
		if owner == domain.RootID {
			return &expr.HelperCall{Helper: v.Helper, Entity: domain.RootID}
		}
		return &expr.VariableRef{Entity: owner, Name: v.Helper.BaseVariable()}

	case *expr.BinaryOp:
		return &expr.BinaryOp{Op: v.Op, Left: m.inlineOnce(v.Left), Right: m.inlineOnce(v.Right)}
	}
	return n
}

// freezeValue renders an evaluated value as the closest storable variable.
func freezeValue(value expr.Value) domain.Variable {
	if value.IsNumber() {
		return domain.LiteralVariable(value.Number)
	}
	return domain.StringVariable(value.Text)
}
