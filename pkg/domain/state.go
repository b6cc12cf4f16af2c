package domain

// CacheState defines the validity of an entity's cached variable values.
type CacheState string

const (
	// StateClean means the cached value is valid.
	StateClean CacheState = "clean"
	// StateDirty means the value needs recompute; entered via MarkDirty.
	StateDirty CacheState = "dirty"
	// StateDeleted is terminal, entered after either deletion mode.
	StateDeleted CacheState = "deleted"
)
