// Package graph builds the directed dependency graph over entities and
// answers the reachability and acyclicity questions that gate edits.
package graph

import (
	"sort"

	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
)

// Resolver resolves helper-call lookups to the entity that owns the base
// variable, walking the parent chain and defaulting to the root.
type Resolver interface {
	ResolveOwner(entity int, name string) (int, error)
}

// Extract returns every entity id the expression reads from, sorted and
// deduplicated. It is a structural walk of the AST, not text matching;
// helper calls contribute the entity they resolve to, not the literal
// argument.
func Extract(n expr.Node, r Resolver) ([]int, error) {
	seen := make(map[int]bool)
	var walkErr error
	expr.Walk(n, func(node expr.Node) {
		if walkErr != nil {
			return
		}
		switch v := node.(type) {
		case *expr.VariableRef:
			seen[v.Entity] = true
		case *expr.HelperCall:
			owner, err := r.ResolveOwner(v.Entity, v.Helper.BaseVariable())
			if err != nil {
				walkErr = err
				return
			}
			seen[owner] = true
		}
	})
	if walkErr != nil {
		return nil, walkErr
	}
	refs := make([]int, 0, len(seen))
	for id := range seen {
		refs = append(refs, id)
	}
	sort.Ints(refs)
	return refs, nil
}

// Graph is an immutable adjacency snapshot: for each entity, the entities
// its expressions read from, plus the reverse relation.
type Graph struct {
	deps       map[int][]int
	dependents map[int][]int
}

// Build constructs the graph in O(entities + edges). Edge A -> B exists iff
// some expression variable of A references B, directly or through a
// resolved helper call.
func Build(entities map[int]*domain.Entity, r Resolver) (*Graph, error) {
	g := &Graph{
		deps:       make(map[int][]int, len(entities)),
		dependents: make(map[int][]int, len(entities)),
	}
	for id, entity := range entities {
		merged := make(map[int]bool)
		for _, v := range entity.Vars {
			if !v.IsExpression() {
				continue
			}
			refs, err := Extract(v.Expr, r)
			if err != nil {
				return nil, err
			}
			for _, ref := range refs {
				merged[ref] = true
			}
		}
		deps := make([]int, 0, len(merged))
		for ref := range merged {
			deps = append(deps, ref)
		}
		sort.Ints(deps)
		g.deps[id] = deps
		for _, ref := range deps {
			g.dependents[ref] = append(g.dependents[ref], id)
		}
	}
	for id := range g.dependents {
		sort.Ints(g.dependents[id])
	}
	return g, nil
}

// Dependencies returns the entities id directly reads from.
func (g *Graph) Dependencies(id int) []int {
	return append([]int(nil), g.deps[id]...)
}

// DirectDependents returns the entities that directly read from id.
func (g *Graph) DirectDependents(id int) []int {
	return append([]int(nil), g.dependents[id]...)
}

// TransitiveDependents returns every entity whose value depends on id,
// directly or through other entities, sorted ascending. id itself is not
// included.
func (g *Graph) TransitiveDependents(id int) []int {
	visited := map[int]bool{id: true}
	queue := append([]int(nil), g.dependents[id]...)
	var out []int
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		out = append(out, current)
		queue = append(queue, g.dependents[current]...)
	}
	sort.Ints(out)
	return out
}

// reachable reports whether to can be reached from from along dependency
// edges (from reads ... reads to).
func (g *Graph) reachable(from, to int) bool {
	if from == to {
		return true
	}
	visited := make(map[int]bool)
	queue := []int{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, next := range g.deps[current] {
			if next == to {
				return true
			}
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	return false
}

// WouldCreateCycle reports whether adding edges target -> refs would close a
// cycle: any path from a new reference back to target means accepting the
// edit would do so. A reference to target itself counts.
func (g *Graph) WouldCreateCycle(target int, refs []int) bool {
	for _, ref := range refs {
		if g.reachable(ref, target) {
			return true
		}
	}
	return false
}

// FindCycle proves acyclicity with Kahn's algorithm; when a cycle exists it
// extracts one deterministic witness path via DFS over ascending ids, first
// id repeated at the end. Returns nil for acyclic graphs.
func (g *Graph) FindCycle() []int {
	ids := make([]int, 0, len(g.deps))
	for id := range g.deps {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	indeg := make(map[int]int, len(ids))
	for _, id := range ids {
		indeg[id] += 0
		for _, dep := range g.deps[id] {
			indeg[dep]++
		}
	}
	var ready []int
	for _, id := range ids {
		if indeg[id] == 0 {
			ready = append(ready, id)
		}
	}
	processed := 0
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		processed++
		for _, dep := range g.deps[current] {
			indeg[dep]--
			if indeg[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if processed == len(ids) {
		return nil
	}
	return g.cycleWitness(ids)
}

// cycleWitness runs a colored DFS to reconstruct one cycle path.
func (g *Graph) cycleWitness(ids []int) []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[int]int, len(ids))
	parent := make(map[int]int, len(ids))

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.deps[u] { // already sorted
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back-edge u -> v closes the cycle v ... u -> v.
				cycle = append(cycle, v)
				for cur := u; cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}
	for _, id := range ids {
		if color[id] == white && dfs(id) {
			break
		}
	}
	if len(cycle) == 0 {
		return nil
	}
	// Parent walk produced reverse order; normalize to forward traversal.
	out := make([]int, len(cycle))
	for i := range cycle {
		out[i] = cycle[len(cycle)-1-i]
	}
	return out
}
