package runtime

import (
	"github.com/aretw0/cadence/internal/graph"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
	"github.com/aretw0/cadence/pkg/rational"
)

// Compile parses source text into a variable. A constant expression folds
// down to a literal; anything with references stays an expression carrying
// its source text.
func (m *Module) Compile(source string) (domain.Variable, error) {
	node, err := expr.Parse(source)
	if err != nil {
		return domain.Variable{}, err
	}
	if lit, ok := constantFold(node); ok {
		return domain.LiteralVariable(lit), nil
	}
	return domain.ExpressionVariable(node, source), nil
}

// constantFold evaluates reference-free trees at compile time. Trees whose
// folding would divide by zero are left alone so the error surfaces at
// evaluation, per the error taxonomy.
func constantFold(node expr.Node) (folded rational.Rational, ok bool) {
	hasRefs := false
	expr.Walk(node, func(n expr.Node) {
		switch n.(type) {
		case *expr.VariableRef, *expr.HelperCall:
			hasRefs = true
		}
	})
	if hasRefs {
		return folded, false
	}
	value, err := expr.Evaluate(node, nil)
	if err != nil || !value.IsNumber() {
		return folded, false
	}
	return value.Number, true
}

// AddEntity creates an entity with an initial variable set, which may
// reference existing entities. Returns the allocated id. The edit is
// all-or-nothing: any invalid variable rejects the whole entity.
func (m *Module) AddEntity(parent int, vars map[string]domain.Variable) (int, error) {
	if parent != domain.NoParent {
		if _, ok := m.entities[parent]; !ok {
			return 0, &expr.UnknownEntityError{Entity: parent}
		}
	}
	for _, v := range vars {
		if !v.IsExpression() {
			continue
		}
		refs, err := graph.Extract(v.Expr, m)
		if err != nil {
			return 0, err
		}
		// A new entity cannot be referenced yet, so existence of every
		// target is the whole acyclicity argument.
		for _, ref := range refs {
			if _, ok := m.entities[ref]; !ok {
				return 0, &expr.UnknownEntityError{Entity: ref}
			}
		}
	}

	id := m.nextID
	m.nextID++
	entity := domain.NewEntity(id)
	entity.Parent = parent
	for name, v := range vars {
		entity.Vars[name] = v.Clone()
	}
	m.entities[id] = entity
	m.touch(entity, "", domain.EventEntityChange)
	m.logger.Debug("entity added", "entity", id, "parent", parent, "vars", len(vars))
	return id, nil
}

// SetVariable compiles source and commits it as the named variable of the
// entity. Acyclicity is re-validated before commit; on any error the prior
// value is left untouched and no cache state changes.
func (m *Module) SetVariable(id int, name, source string) error {
	entity, ok := m.entities[id]
	if !ok {
		return &expr.UnknownEntityError{Entity: id}
	}
	v, err := m.Compile(source)
	if err != nil {
		return err
	}
	if v.IsExpression() {
		refs, err := graph.Extract(v.Expr, m)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if ref == id {
				return &domain.SelfReferenceError{Entity: id, Name: name}
			}
			if _, ok := m.entities[ref]; !ok {
				return &expr.UnknownEntityError{Entity: ref}
			}
		}
		g, err := m.dependencyGraph()
		if err != nil {
			return err
		}
		if g.WouldCreateCycle(id, refs) {
			return &domain.CircularDependencyError{Entity: id, Name: name}
		}
	}

	m.commitVariable(entity, name, v)
	return nil
}

// SetStringVariable stores a pass-through string value (color, instrument).
func (m *Module) SetStringVariable(id int, name, text string) error {
	entity, ok := m.entities[id]
	if !ok {
		return &expr.UnknownEntityError{Entity: id}
	}
	m.commitVariable(entity, name, domain.StringVariable(text))
	return nil
}

// commitVariable performs the committed half of a set: store, bump revision,
// invalidate the entity and its transitive dependents.
func (m *Module) commitVariable(entity *domain.Entity, name string, v domain.Variable) {
	entity.Vars[name] = v
	m.touch(entity, name, domain.EventEntityChange)
	m.MarkDirty(entity.ID)
	m.logger.Debug("variable set", "entity", entity.ID, "name", name, "kind", v.Kind.String())
}

// Value returns the evaluated value of an entity's variable; implements
// expr.Env so evaluation can recurse through references.
func (m *Module) Value(entity int, name string) (expr.Value, error) {
	return m.GetVariable(entity, name)
}

// DirectDependencies returns the entities id directly reads from.
func (m *Module) DirectDependencies(id int) ([]int, error) {
	if _, ok := m.entities[id]; !ok {
		return nil, &expr.UnknownEntityError{Entity: id}
	}
	g, err := m.dependencyGraph()
	if err != nil {
		return nil, err
	}
	return g.Dependencies(id), nil
}

// DependentEntities returns every entity whose value transitively depends
// on id.
func (m *Module) DependentEntities(id int) ([]int, error) {
	if _, ok := m.entities[id]; !ok {
		return nil, &expr.UnknownEntityError{Entity: id}
	}
	g, err := m.dependencyGraph()
	if err != nil {
		return nil, err
	}
	return g.TransitiveDependents(id), nil
}
