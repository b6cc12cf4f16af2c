package domain

// EventType defines the category of the event.
type EventType string

const (
	EventEntityChange   EventType = "entity_change"
	EventEvaluate       EventType = "evaluate"
	EventRebaseFallback EventType = "rebase_fallback"
)

// EntityEvent reports a committed mutation of an entity.
type EntityEvent struct {
	Type   EventType `json:"type"`
	Entity int       `json:"entity"`
	Name   string    `json:"name,omitempty"` // variable name, when one was targeted
	Rev    int64     `json:"rev"`
}

// RebaseEvent reports the outcome of rebasing one variable.
type RebaseEvent struct {
	Entity     int    `json:"entity"`
	Name       string `json:"name"`
	Iterations int    `json:"iterations"`
	Fallback   bool   `json:"fallback"` // symbolic rewrite abandoned for a numeric snapshot
}

// LifecycleHooks defines callbacks for engine observability. All hooks are
// optional and run synchronously inside the mutating call.
type LifecycleHooks struct {
	// OnEntityChange fires after a mutation commits (add, set, remove).
	OnEntityChange func(*EntityEvent)
	// OnEvaluate fires when a variable is recomputed (cache miss).
	OnEvaluate func(entity int, name string)
	// OnRebaseFallback fires when a rebase degrades to the numeric
	// snapshot instead of a symbolic rewrite.
	OnRebaseFallback func(*RebaseEvent)
}
