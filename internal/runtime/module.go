package runtime

import (
	"log/slog"
	"sort"

	"github.com/aretw0/cadence/internal/graph"
	"github.com/aretw0/cadence/internal/logging"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
	"github.com/aretw0/cadence/pkg/rational"
)

// Default root variables. The root always owns tempo and measure length so
// the helper chain lookups have a guaranteed terminus.
var rootDefaults = map[string]rational.Rational{
	domain.VarStartTime:     rational.FromInt(0),
	domain.VarTempo:         rational.FromInt(60),
	domain.VarMeasureLength: rational.FromInt(4),
	domain.VarFrequency:     rational.FromInt(440),
}

// Module owns all entities, variable storage, id allocation and the caches
// layered on top. It is single-threaded: callers must treat every mutating
// call as an atomic unit and serialize access through one logical owner.
type Module struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	entities map[int]*domain.Entity
	nextID   int
	rev      int64

	// Dependency graph snapshot, memoized against rev.
	graphSnapshot *graph.Graph
	graphRev      int64

	// Evaluation cache for expression variables.
	cache map[cacheKey]expr.Value

	maxRebaseIterations int
	rebaseTolerance     float64
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets a structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Module) {
		m.hooks = hooks
	}
}

// WithMaxRebaseIterations bounds the symbolic inlining loop.
func WithMaxRebaseIterations(n int) Option {
	return func(m *Module) {
		if n > 0 {
			m.maxRebaseIterations = n
		}
	}
}

// WithRebaseTolerance sets the numeric verification tolerance for rebase.
func WithRebaseTolerance(tol float64) Option {
	return func(m *Module) {
		if tol > 0 {
			m.rebaseTolerance = tol
		}
	}
}

// NewModule creates a module holding only the root entity with its default
// variables.
func NewModule(opts ...Option) *Module {
	m := &Module{
		logger:              logging.NewNop(),
		entities:            make(map[int]*domain.Entity),
		nextID:              domain.RootID + 1,
		cache:               make(map[cacheKey]expr.Value),
		graphRev:            -1,
		maxRebaseIterations: defaultMaxRebaseIterations,
		rebaseTolerance:     defaultRebaseTolerance,
	}
	for _, opt := range opts {
		opt(m)
	}

	root := domain.NewEntity(domain.RootID)
	for name, value := range rootDefaults {
		root.Vars[name] = domain.LiteralVariable(value)
	}
	m.entities[domain.RootID] = root
	return m
}

// Restore builds a module from pre-compiled entities (a loaded document) and
// validates the whole graph: every referenced id must exist, no expression
// may reference its own entity, and the graph must be acyclic.
func Restore(entities []*domain.Entity, opts ...Option) (*Module, error) {
	m := NewModule(opts...)
	nextID := domain.RootID + 1
	for _, e := range entities {
		if e.ID == domain.RootID {
			root := e.Clone()
			// The guaranteed root variables survive a document that omits
			// them; explicit values win.
			for name, value := range rootDefaults {
				if _, ok := root.Vars[name]; !ok {
					root.Vars[name] = domain.LiteralVariable(value)
				}
			}
			m.entities[domain.RootID] = root
			continue
		}
		m.entities[e.ID] = e.Clone()
		if e.ID >= nextID {
			nextID = e.ID + 1
		}
	}
	m.nextID = nextID

	for _, id := range m.IDs() {
		entity := m.entities[id]
		for name, v := range entity.Vars {
			if !v.IsExpression() {
				continue
			}
			refs, err := graph.Extract(v.Expr, m)
			if err != nil {
				return nil, err
			}
			for _, ref := range refs {
				if ref == id {
					return nil, &domain.SelfReferenceError{Entity: id, Name: name}
				}
				if _, ok := m.entities[ref]; !ok {
					return nil, &expr.UnknownEntityError{Entity: ref}
				}
			}
		}
	}

	g, err := m.dependencyGraph()
	if err != nil {
		return nil, err
	}
	if cycle := g.FindCycle(); cycle != nil {
		return nil, &domain.CircularDependencyError{Path: cycle}
	}
	return m, nil
}

// Entity returns the entity for id, if present.
func (m *Module) Entity(id int) (*domain.Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// IDs returns all entity ids in ascending order.
func (m *Module) IDs() []int {
	ids := make([]int, 0, len(m.entities))
	for id := range m.entities {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Revision returns the monotonically increasing modification counter.
func (m *Module) Revision() int64 {
	return m.rev
}

// ResolveOwner walks the parent chain of entity until one defines the named
// base variable, defaulting to the root. Implements expr.Env and
// graph.Resolver.
func (m *Module) ResolveOwner(entity int, name string) (int, error) {
	current, ok := m.entities[entity]
	if !ok {
		return 0, &expr.UnknownEntityError{Entity: entity}
	}
	for {
		if _, defined := current.Vars[name]; defined {
			return current.ID, nil
		}
		if current.Parent == domain.NoParent {
			return domain.RootID, nil
		}
		next, ok := m.entities[current.Parent]
		if !ok {
			return domain.RootID, nil
		}
		current = next
	}
}

// dependencyGraph returns the graph snapshot, rebuilding it only when a
// mutation has advanced the module revision past the cached one.
func (m *Module) dependencyGraph() (*graph.Graph, error) {
	if m.graphSnapshot != nil && m.graphRev == m.rev {
		return m.graphSnapshot, nil
	}
	g, err := graph.Build(m.entities, m)
	if err != nil {
		return nil, err
	}
	m.graphSnapshot = g
	m.graphRev = m.rev
	return g, nil
}

// touch commits a mutation: bump the revision, stamp the entity, fire hooks.
// The graph snapshot invalidates itself via the revision check.
func (m *Module) touch(entity *domain.Entity, name string, event domain.EventType) {
	m.rev++
	entity.Rev = m.rev
	if m.hooks.OnEntityChange != nil {
		m.hooks.OnEntityChange(&domain.EntityEvent{
			Type:   event,
			Entity: entity.ID,
			Name:   name,
			Rev:    m.rev,
		})
	}
}
