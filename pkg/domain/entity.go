package domain

// NoParent marks an entity without a parent link (including the root).
const NoParent = -1

// Entity is an addressable unit whose named variables may be literals,
// strings, or expressions referencing other entities.
type Entity struct {
	// ID is a non-negative identifier. Id 0 is the distinguished root
	// entity; it is always present and never deleted.
	ID int

	// Parent is used only to walk upward for inherited tempo and measure
	// length. It is a lookup chain, not an ownership relation.
	Parent int

	// Vars maps variable names to their tagged storage.
	Vars map[string]Variable

	// Rev is the module revision at which the entity was last mutated.
	Rev int64
}

// NewEntity creates an entity with an empty variable set.
func NewEntity(id int) *Entity {
	return &Entity{
		ID:     id,
		Parent: NoParent,
		Vars:   make(map[string]Variable),
	}
}

// Clone returns a deep copy; variable expressions are copied so callers can
// rewrite them without aliasing the original.
func (e *Entity) Clone() *Entity {
	clone := &Entity{
		ID:     e.ID,
		Parent: e.Parent,
		Rev:    e.Rev,
		Vars:   make(map[string]Variable, len(e.Vars)),
	}
	for name, v := range e.Vars {
		clone.Vars[name] = v.Clone()
	}
	return clone
}
