package runtime

import (
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
)

type cacheKey struct {
	entity int
	name   string
}

// MarkDirty clears the entity's cached values and, using the dependency
// graph, those of every transitive dependent. Invalidation is eager at edit
// time so reads are guaranteed fresh; the sweep costs O(transitive
// dependents) per edit, which is the right trade at interactive scale.
func (m *Module) MarkDirty(id int) {
	m.purgeEntity(id)
	g, err := m.dependencyGraph()
	if err != nil {
		// A broken graph rebuild here means an edit committed with an
		// unresolvable reference, which the write path prevents.
		m.logger.Error("dependency graph rebuild failed during invalidation", "err", err)
		m.cache = make(map[cacheKey]expr.Value)
		return
	}
	for _, dependent := range g.TransitiveDependents(id) {
		m.purgeEntity(dependent)
	}
}

func (m *Module) purgeEntity(id int) {
	for key := range m.cache {
		if key.entity == id {
			delete(m.cache, key)
		}
	}
}

// GetVariable returns the cached value when clean, otherwise evaluates the
// variable, stores the result and marks it clean. Recursion through
// referenced entities terminates because acyclicity is enforced at write
// time.
func (m *Module) GetVariable(id int, name string) (expr.Value, error) {
	entity, ok := m.entities[id]
	if !ok {
		return expr.Value{}, &expr.UnknownEntityError{Entity: id}
	}
	v, ok := entity.Vars[name]
	if !ok {
		return expr.Value{}, &expr.UnknownVariableError{Entity: id, Name: name}
	}

	switch v.Kind {
	case domain.VariableLiteral:
		return expr.NumberValue(v.Literal), nil
	case domain.VariableString:
		return expr.TextValue(v.Text), nil
	}

	key := cacheKey{entity: id, name: name}
	if cached, ok := m.cache[key]; ok {
		return cached, nil
	}
	if m.hooks.OnEvaluate != nil {
		m.hooks.OnEvaluate(id, name)
	}
	value, err := expr.Evaluate(v.Expr, m)
	if err != nil {
		return expr.Value{}, err
	}
	m.cache[key] = value
	return value, nil
}

// VariableState reports cache validity: deleted when the entity or variable
// no longer exists, clean when a valid value is at hand (literals and
// strings always are), dirty when the next read must recompute.
func (m *Module) VariableState(id int, name string) domain.CacheState {
	entity, ok := m.entities[id]
	if !ok {
		return domain.StateDeleted
	}
	v, ok := entity.Vars[name]
	if !ok {
		return domain.StateDeleted
	}
	if !v.IsExpression() {
		return domain.StateClean
	}
	if _, ok := m.cache[cacheKey{entity: id, name: name}]; ok {
		return domain.StateClean
	}
	return domain.StateDirty
}

// EvaluateAll computes a full snapshot of every variable of every entity.
func (m *Module) EvaluateAll() (map[int]map[string]expr.Value, error) {
	out := make(map[int]map[string]expr.Value, len(m.entities))
	for _, id := range m.IDs() {
		entity := m.entities[id]
		values := make(map[string]expr.Value, len(entity.Vars))
		for name := range entity.Vars {
			value, err := m.GetVariable(id, name)
			if err != nil {
				return nil, err
			}
			values[name] = value
		}
		out[id] = values
	}
	return out, nil
}
