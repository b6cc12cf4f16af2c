package cadence

import (
	"log/slog"

	"github.com/aretw0/cadence/internal/logging"
	"github.com/aretw0/cadence/internal/runtime"
	"github.com/aretw0/cadence/pkg/document"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
)

// Engine is the high-level entry point for the library. It wraps the
// internal runtime and works in terms of variable source text, compiling on
// the way in.
type Engine struct {
	module      *runtime.Module
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	runtimeOpts []runtime.Option
}

// Version is the library version, overridable at build time via -ldflags.
var Version = "0.1.0"

// Re-exported runtime types, so consumers never import internal packages.
type (
	RemoveMode   = runtime.RemoveMode
	RebaseCounts = runtime.RebaseCounts
	RebaseReport = runtime.RebaseReport
)

const (
	RemoveCascade = runtime.RemoveCascade
	RemoveKeep    = runtime.RemoveKeep
)

// Option configures the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxRebaseIterations bounds the symbolic rewriting loop of rebase.
func WithMaxRebaseIterations(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxRebaseIterations(n))
	}
}

// WithRebaseTolerance sets the numeric verification tolerance of rebase.
func WithRebaseTolerance(tol float64) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRebaseTolerance(tol))
	}
}

// New creates an engine holding only the root entity with its defaults.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	e.module = runtime.NewModule(e.moduleOptions()...)
	return e
}

// Load builds an engine from YAML document bytes.
func Load(data []byte, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	m, err := document.Load(data, e.moduleOptions()...)
	if err != nil {
		return nil, err
	}
	e.module = m
	return e, nil
}

// LoadFile reads path and calls Load.
func LoadFile(path string, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	m, err := document.LoadFile(path, e.moduleOptions()...)
	if err != nil {
		return nil, err
	}
	e.module = m
	return e, nil
}

func (e *Engine) moduleOptions() []runtime.Option {
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	opts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	}
	return append(opts, e.runtimeOpts...)
}

// IDs returns all entity ids in ascending order.
func (e *Engine) IDs() []int {
	return e.module.IDs()
}

// Entity returns the stored entity for id.
func (e *Engine) Entity(id int) (*domain.Entity, bool) {
	return e.module.Entity(id)
}

// Revision returns the monotonic edit counter.
func (e *Engine) Revision() int64 {
	return e.module.Revision()
}

// AddEntity creates an entity from variable source text. Sources may
// reference existing entities; parent is domain.NoParent for a top-level
// entity.
func (e *Engine) AddEntity(parent int, sources map[string]string) (int, error) {
	vars := make(map[string]domain.Variable, len(sources))
	for name, source := range sources {
		v, err := e.module.Compile(source)
		if err != nil {
			return 0, err
		}
		vars[name] = v
	}
	return e.module.AddEntity(parent, vars)
}

// RemoveEntity removes an entity in the given mode.
func (e *Engine) RemoveEntity(id int, mode runtime.RemoveMode) error {
	return e.module.RemoveEntity(id, mode)
}

// SetVariable compiles source and stores it as the entity's variable.
func (e *Engine) SetVariable(id int, name, source string) error {
	return e.module.SetVariable(id, name, source)
}

// SetStringVariable stores a pass-through string value.
func (e *Engine) SetStringVariable(id int, name, text string) error {
	return e.module.SetStringVariable(id, name, text)
}

// GetVariable evaluates one variable.
func (e *Engine) GetVariable(id int, name string) (expr.Value, error) {
	return e.module.GetVariable(id, name)
}

// MarkDirty invalidates the entity's cached values and those of every
// transitive dependent. Edits do this themselves; it is exposed for callers
// that mutate inputs the engine cannot see.
func (e *Engine) MarkDirty(id int) {
	e.module.MarkDirty(id)
}

// EvaluateAll computes every variable of every entity.
func (e *Engine) EvaluateAll() (map[int]map[string]expr.Value, error) {
	return e.module.EvaluateAll()
}

// DirectDependencies returns the entities id directly reads from.
func (e *Engine) DirectDependencies(id int) ([]int, error) {
	return e.module.DirectDependencies(id)
}

// DependentEntities returns every entity transitively reading from id.
func (e *Engine) DependentEntities(id int) ([]int, error) {
	return e.module.DependentEntities(id)
}

// RebaseToRoot rewrites the entity's expressions to be root-relative.
func (e *Engine) RebaseToRoot(id int) (runtime.RebaseCounts, error) {
	return e.module.RebaseToRoot(id)
}

// RebaseModule rebases every non-root entity.
func (e *Engine) RebaseModule() (runtime.RebaseReport, error) {
	return e.module.RebaseModule()
}

// Liberate severs all dependency edges through id while preserving values.
func (e *Engine) Liberate(id int) error {
	return e.module.Liberate(id)
}

// Snapshot captures the current entities as a document.
func (e *Engine) Snapshot() *document.Document {
	return document.Snapshot(e.module)
}
