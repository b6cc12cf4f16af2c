package runtime

import (
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
)

// Liberate severs all dependencies flowing through one entity: the entity's
// own expression variables are replaced with literal snapshots of their
// current evaluated values (breaking its outgoing edges), then every
// dependent's references to this entity are rewritten with the same
// snapshot (breaking the incoming edges without changing any dependent's
// value).
//
// Distinct from rebase: rebase eliminates one entity's chain toward the
// root; liberate frees everyone else from depending on this entity.
func (m *Module) Liberate(id int) error {
	entity, ok := m.entities[id]
	if !ok {
		return &expr.UnknownEntityError{Entity: id}
	}

	// Evaluate everything first; both halves of the rewrite need the
	// pre-liberation values.
	values, err := m.snapshotVariables(id)
	if err != nil {
		return err
	}
	g, err := m.dependencyGraph()
	if err != nil {
		return err
	}
	dependents := g.DirectDependents(id)

	for name, v := range entity.Vars {
		if !v.IsExpression() {
			continue
		}
		entity.Vars[name] = freezeValue(values[name])
	}
	for _, dependent := range dependents {
		if err := m.detachReferences(dependent, id, values); err != nil {
			return err
		}
		m.purgeEntity(dependent)
	}

	m.touch(entity, "", domain.EventEntityChange)
	m.MarkDirty(id)
	m.logger.Debug("entity liberated", "entity", id, "dependents", len(dependents))
	return nil
}
