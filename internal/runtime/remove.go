package runtime

import (
	"fmt"

	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
)

// RemoveMode selects what happens to an entity's dependents on removal.
type RemoveMode string

const (
	// RemoveCascade deletes the entity together with every transitive
	// dependent.
	RemoveCascade RemoveMode = "cascade"
	// RemoveKeep rewrites every dependent's referencing expressions to a
	// literal snapshot of the removed entity's current values, then deletes
	// only the entity itself.
	RemoveKeep RemoveMode = "keep"
)

// RemoveEntity removes an entity. The root entity is never removable.
func (m *Module) RemoveEntity(id int, mode RemoveMode) error {
	if id == domain.RootID {
		return domain.ErrRootEntity
	}
	if _, ok := m.entities[id]; !ok {
		return &expr.UnknownEntityError{Entity: id}
	}
	switch mode {
	case RemoveCascade:
		return m.removeCascade(id)
	case RemoveKeep:
		return m.removeKeep(id)
	}
	return fmt.Errorf("unknown remove mode %q", mode)
}

func (m *Module) removeCascade(id int) error {
	g, err := m.dependencyGraph()
	if err != nil {
		return err
	}
	doomed := map[int]bool{id: true}
	for _, dependent := range g.TransitiveDependents(id) {
		doomed[dependent] = true
	}

	// The root is never deleted. If it depends on anything doomed, its
	// affected variables are frozen to their current values first.
	if doomed[domain.RootID] {
		delete(doomed, domain.RootID)
		if err := m.freezeDoomedReads(domain.RootID, doomed); err != nil {
			return err
		}
	}

	oldParents := make(map[int]int, len(doomed))
	for victim := range doomed {
		oldParents[victim] = m.entities[victim].Parent
		delete(m.entities, victim)
		m.purgeEntity(victim)
	}
	m.reparentOrphans(doomed, oldParents)
	if err := m.retargetHelperArgs(doomed, oldParents); err != nil {
		return err
	}
	m.rev++
	if m.hooks.OnEntityChange != nil {
		m.hooks.OnEntityChange(&domain.EntityEvent{Type: domain.EventEntityChange, Entity: id, Rev: m.rev})
	}
	m.logger.Debug("entity removed", "entity", id, "mode", "cascade", "removed", len(doomed))
	return nil
}

// freezeDoomedReads snapshots every expression variable of id that reads
// from a doomed entity.
func (m *Module) freezeDoomedReads(id int, doomed map[int]bool) error {
	entity := m.entities[id]
	g, err := m.dependencyGraph()
	if err != nil {
		return err
	}
	reads := false
	for _, dep := range g.Dependencies(id) {
		if doomed[dep] {
			reads = true
			break
		}
	}
	if !reads {
		return nil
	}
	for name, v := range entity.Vars {
		if !v.IsExpression() {
			continue
		}
		frozen, err := m.snapshotVariable(id, name)
		if err != nil {
			return err
		}
		entity.Vars[name] = frozen
	}
	return nil
}

func (m *Module) removeKeep(id int) error {
	// Snapshot before anything mutates; dependent rewrites must see the
	// entity's pre-removal values.
	values, err := m.snapshotVariables(id)
	if err != nil {
		return err
	}
	g, err := m.dependencyGraph()
	if err != nil {
		return err
	}
	for _, dependent := range g.DirectDependents(id) {
		if err := m.detachReferences(dependent, id, values); err != nil {
			return err
		}
		m.purgeEntity(dependent)
	}

	removed := map[int]bool{id: true}
	oldParents := map[int]int{id: m.entities[id].Parent}
	delete(m.entities, id)
	m.purgeEntity(id)
	m.reparentOrphans(removed, oldParents)
	if err := m.retargetHelperArgs(removed, oldParents); err != nil {
		return err
	}

	m.rev++
	if m.hooks.OnEntityChange != nil {
		m.hooks.OnEntityChange(&domain.EntityEvent{Type: domain.EventEntityChange, Entity: id, Rev: m.rev})
	}
	m.logger.Debug("entity removed", "entity", id, "mode", "keep")
	return nil
}

// reparentOrphans relinks entities whose parent chain passes through removed
// entities, preserving the inherited tempo/measure lookup path. oldParents
// holds the parent links the removed entities had.
func (m *Module) reparentOrphans(removed map[int]bool, oldParents map[int]int) {
	survivingParent := func(start int) int {
		current := start
		for removed[current] {
			next, ok := oldParents[current]
			if !ok || next == domain.NoParent {
				return domain.NoParent
			}
			current = next
		}
		return current
	}
	for _, entity := range m.entities {
		if entity.Parent != domain.NoParent && removed[entity.Parent] {
			entity.Parent = survivingParent(entity.Parent)
		}
	}
}
