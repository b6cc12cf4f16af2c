package graph

import (
	"testing"

	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
)

// chainResolver walks explicit parent links, defaulting to root, against a
// fixed set of base-variable owners.
type chainResolver struct {
	parents map[int]int
	owns    map[int]map[string]bool
}

func (c *chainResolver) ResolveOwner(entity int, name string) (int, error) {
	current := entity
	for {
		if c.owns[current][name] {
			return current, nil
		}
		parent, ok := c.parents[current]
		if !ok {
			return domain.RootID, nil
		}
		current = parent
	}
}

func mustParse(t *testing.T, source string) expr.Node {
	t.Helper()
	node, err := expr.Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q): %v", source, err)
	}
	return node
}

func entityWith(t *testing.T, id int, sources map[string]string) *domain.Entity {
	t.Helper()
	e := domain.NewEntity(id)
	for name, source := range sources {
		e.Vars[name] = domain.ExpressionVariable(mustParse(t, source), source)
	}
	return e
}

func TestExtract_WalksAST(t *testing.T) {
	resolver := &chainResolver{}
	node := mustParse(t, "(e1.startTime + e2.duration) * e1.frequency")
	refs, err := Extract(node, resolver)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(refs) != 2 || refs[0] != 1 || refs[1] != 2 {
		t.Errorf("refs = %v, want [1 2]", refs)
	}
}

func TestExtract_HelperResolvesThroughChain(t *testing.T) {
	// e3's parent is e2 which owns tempo; the edge goes to e2, not e3.
	resolver := &chainResolver{
		parents: map[int]int{3: 2},
		owns:    map[int]map[string]bool{2: {"tempo": true}},
	}
	refs, err := Extract(mustParse(t, "tempo(e3)"), resolver)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(refs) != 1 || refs[0] != 2 {
		t.Errorf("refs = %v, want [2]", refs)
	}

	// No owner anywhere: resolves to root.
	refs, _ = Extract(mustParse(t, "measure(e3)"), resolver)
	if len(refs) != 1 || refs[0] != domain.RootID {
		t.Errorf("refs = %v, want [0]", refs)
	}
}

func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	entities := map[int]*domain.Entity{
		0: domain.NewEntity(0),
		1: entityWith(t, 1, map[string]string{"startTime": "e0.startTime"}),
		2: entityWith(t, 2, map[string]string{"startTime": "e1.startTime + e1.duration"}),
		3: entityWith(t, 3, map[string]string{"startTime": "e2.startTime"}),
		4: domain.NewEntity(4),
	}
	g, err := Build(entities, &chainResolver{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestGraph_Adjacency(t *testing.T) {
	g := buildTestGraph(t)

	if deps := g.Dependencies(2); len(deps) != 1 || deps[0] != 1 {
		t.Errorf("Dependencies(2) = %v, want [1]", deps)
	}
	if direct := g.DirectDependents(1); len(direct) != 1 || direct[0] != 2 {
		t.Errorf("DirectDependents(1) = %v, want [2]", direct)
	}
	if all := g.TransitiveDependents(1); len(all) != 2 || all[0] != 2 || all[1] != 3 {
		t.Errorf("TransitiveDependents(1) = %v, want [2 3]", all)
	}
	if all := g.TransitiveDependents(4); len(all) != 0 {
		t.Errorf("TransitiveDependents(4) = %v, want empty", all)
	}
}

func TestGraph_WouldCreateCycle(t *testing.T) {
	g := buildTestGraph(t)

	// e1 referencing e3 closes e1 -> e3 -> e2 -> e1.
	if !g.WouldCreateCycle(1, []int{3}) {
		t.Error("edge 1 -> 3 should close a cycle")
	}
	// Self reference is the degenerate cycle.
	if !g.WouldCreateCycle(2, []int{2}) {
		t.Error("self reference should count as a cycle")
	}
	// e4 is isolated; referencing it is safe.
	if g.WouldCreateCycle(1, []int{4}) {
		t.Error("edge 1 -> 4 should be safe")
	}
	if g.WouldCreateCycle(4, []int{3}) {
		t.Error("edge 4 -> 3 should be safe")
	}
}

func TestGraph_FindCycle(t *testing.T) {
	acyclic := buildTestGraph(t)
	if cycle := acyclic.FindCycle(); cycle != nil {
		t.Errorf("FindCycle on acyclic graph = %v, want nil", cycle)
	}

	entities := map[int]*domain.Entity{
		0: domain.NewEntity(0),
		1: entityWith(t, 1, map[string]string{"duration": "e2.duration"}),
		2: entityWith(t, 2, map[string]string{"duration": "e3.duration"}),
		3: entityWith(t, 3, map[string]string{"duration": "e1.duration"}),
	}
	g, err := Build(entities, &chainResolver{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cycle := g.FindCycle()
	if len(cycle) != 4 {
		t.Fatalf("cycle = %v, want a 3-cycle with closing repeat", cycle)
	}
	if cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("cycle %v should repeat its first id at the end", cycle)
	}
}
