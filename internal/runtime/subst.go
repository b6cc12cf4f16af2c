package runtime

import (
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
)

// rewriteWithout rewrites an expression tree so it no longer reads from
// target, substituting literal snapshots of target's current values. Helper
// calls are rewritten when they currently resolve to target, since deleting
// target would change what the chain lookup finds.
//
// ok is false when a read of target cannot be expressed as a literal (a
// text-valued reference inside arithmetic, or a variable target no longer
// defines); callers then snapshot the whole enclosing variable instead.
func (m *Module) rewriteWithout(n expr.Node, target int, values map[string]expr.Value) (rewritten expr.Node, ok bool) {
	switch v := n.(type) {
	case *expr.Literal:
		return expr.Clone(n), true

	case *expr.VariableRef:
		if v.Entity != target {
			return expr.Clone(n), true
		}
		value, defined := values[v.Name]
		if !defined || !value.IsNumber() {
			return nil, false
		}
		return &expr.Literal{Value: value.Number}, true

	case *expr.HelperCall:
		base := v.Helper.BaseVariable()
		owner, err := m.ResolveOwner(v.Entity, base)
		if err != nil {
			return nil, false
		}
		if owner != target {
			// The call may still name target as its argument; the chain
			// lookup skips it, and retargetHelperArgs repoints the argument
			// after the deletion commits.
			return expr.Clone(n), true
		}
		value, defined := values[base]
		if !defined || !value.IsNumber() {
			return nil, false
		}
		return &expr.Literal{Value: value.Number}, true

	case *expr.BinaryOp:
		left, ok := m.rewriteWithout(v.Left, target, values)
		if !ok {
			return nil, false
		}
		right, ok := m.rewriteWithout(v.Right, target, values)
		if !ok {
			return nil, false
		}
		return &expr.BinaryOp{Op: v.Op, Left: left, Right: right}, true
	}
	return nil, false
}

// retargetHelperArgs rewrites helper calls whose argument names a removed
// entity so they name the nearest surviving ancestor instead. Such calls
// resolve past the removed entity up the parent chain, so the dependency
// graph never linked their holder to it and the dependent rewrites left
// them untouched. The resolved owner is unchanged by the repoint; only the
// dangling id is.
func (m *Module) retargetHelperArgs(removed map[int]bool, oldParents map[int]int) error {
	survivor := func(start int) int {
		current := start
		for removed[current] {
			next, ok := oldParents[current]
			if !ok || next == domain.NoParent {
				return domain.RootID
			}
			current = next
		}
		return current
	}
	for id, entity := range m.entities {
		for name, v := range entity.Vars {
			if !v.IsExpression() {
				continue
			}
			changed := false
			rewritten := retargetNode(v.Expr, removed, survivor, &changed)
			if !changed {
				continue
			}
			recompiled, err := m.Compile(rewritten.String())
			if err != nil {
				return err
			}
			entity.Vars[name] = recompiled
			m.purgeEntity(id)
		}
	}
	return nil
}

func retargetNode(n expr.Node, removed map[int]bool, survivor func(int) int, changed *bool) expr.Node {
	switch v := n.(type) {
	case *expr.HelperCall:
		if removed[v.Entity] {
			*changed = true
			return &expr.HelperCall{Helper: v.Helper, Entity: survivor(v.Entity)}
		}
	case *expr.BinaryOp:
		return &expr.BinaryOp{
			Op:    v.Op,
			Left:  retargetNode(v.Left, removed, survivor, changed),
			Right: retargetNode(v.Right, removed, survivor, changed),
		}
	}
	return expr.Clone(n)
}

// snapshotVariables evaluates every variable of the entity right now,
// before any rewrite invalidates them.
func (m *Module) snapshotVariables(id int) (map[string]expr.Value, error) {
	entity, ok := m.entities[id]
	if !ok {
		return nil, &expr.UnknownEntityError{Entity: id}
	}
	values := make(map[string]expr.Value, len(entity.Vars))
	for name := range entity.Vars {
		value, err := m.GetVariable(id, name)
		if err != nil {
			return nil, err
		}
		values[name] = value
	}
	return values, nil
}

// snapshotVariable freezes one variable to the literal form of its current
// evaluated value.
func (m *Module) snapshotVariable(id int, name string) (domain.Variable, error) {
	value, err := m.GetVariable(id, name)
	if err != nil {
		return domain.Variable{}, err
	}
	if value.IsNumber() {
		return domain.LiteralVariable(value.Number), nil
	}
	return domain.StringVariable(value.Text), nil
}

// detachReferences rewrites every expression variable of dependent so it no
// longer reads from target. Variables that cannot be rewritten structurally
// are frozen to their current evaluated value.
func (m *Module) detachReferences(dependent, target int, values map[string]expr.Value) error {
	entity := m.entities[dependent]
	for name, v := range entity.Vars {
		if !v.IsExpression() {
			continue
		}
		rewritten, ok := m.rewriteWithout(v.Expr, target, values)
		if ok {
			// Recompile from printed source so constant trees fold and the
			// retained source text stays canonical.
			recompiled, err := m.Compile(rewritten.String())
			if err != nil {
				return err
			}
			entity.Vars[name] = recompiled
			continue
		}
		frozen, err := m.snapshotVariable(dependent, name)
		if err != nil {
			return err
		}
		entity.Vars[name] = frozen
	}
	return nil
}
