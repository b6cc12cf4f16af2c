/*
Package domain contains the core domain models for the Cadence engine.

It defines the fundamental entities of the reactive expression graph: the
Entity, its tagged Variable storage, cache validity states, the typed errors
of the edit taxonomy, and lifecycle hooks. This package is kept pure and free
of I/O or persistence concerns, following Hexagonal Architecture principles.

# Key Entities

  - Entity: an addressable unit whose named variables may be literals,
    strings, or expressions referencing other entities.
  - Variable: the closed union Literal | StringValue | Expression,
    dispatched explicitly on Kind.
  - CacheState: Clean/Dirty/Deleted validity of computed values.
  - LifecycleHooks: observability callbacks for mutations, cache misses and
    rebase fallbacks.
*/
package domain
