// Package graph renders a module's dependency structure as Mermaid
// flowchart syntax.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/cadence/pkg/document"
	"github.com/aretw0/cadence/pkg/domain"
)

// Overlay contains dynamic state to highlight on the rendered graph.
type Overlay struct {
	// Focus is an entity to emphasize, or domain.NoParent for none.
	Focus int
	// Dependents of the focused entity, styled as affected.
	Dependents []int
}

// GenerateMermaid produces a flowchart from a document snapshot and its
// dependency adjacency (entity id to the ids it reads from).
// Shapes carry semantics:
//   - Root: ((circle))
//   - Entity with expression variables: [/parallelogram/]
//   - Literal-only entity: [rectangle]
//
// Solid arrows are dependency reads, dotted arrows are parent links.
func GenerateMermaid(doc *document.Document, deps map[int][]int, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, record := range doc.Entities {
		id := nodeID(record.ID)

		opener, closer := "[", "]"
		switch {
		case record.ID == domain.RootID:
			opener, closer = "((", "))"
		case hasExpression(record):
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, nodeLabel(record), closer))

		for _, target := range deps[record.ID] {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", id, nodeID(target)))
		}
		if record.Parent != nil {
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", id, nodeID(*record.Parent)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef affected fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		if overlay.Focus != domain.NoParent {
			sb.WriteString(fmt.Sprintf("    class %s focus;\n", nodeID(overlay.Focus)))
		}
		for _, id := range overlay.Dependents {
			sb.WriteString(fmt.Sprintf("    class %s affected;\n", nodeID(id)))
		}
	}

	return sb.String()
}

func nodeID(id int) string {
	return fmt.Sprintf("e%d", id)
}

// nodeLabel lists the entity's variables as "name = source" lines, quotes
// escaped for Mermaid.
func nodeLabel(record document.EntityRecord) string {
	sources := record.Sources()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{nodeID(record.ID)}
	for _, name := range names {
		line := fmt.Sprintf("%s = %s", name, sources[name])
		lines = append(lines, strings.ReplaceAll(line, "\"", "'"))
	}
	return strings.Join(lines, " <br/> ")
}

// hasExpression reports whether any variable carries expression source.
// Plain scalars are literals or strings; anything else that is not a bare
// rational is an expression.
func hasExpression(record document.EntityRecord) bool {
	sources := record.Sources()
	for name, raw := range record.Variables {
		switch raw.(type) {
		case string, int, int64, float64:
			continue
		}
		if !isNumeric(sources[name]) {
			return true
		}
	}
	return false
}

func isNumeric(source string) bool {
	for _, r := range source {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '/' {
			return false
		}
	}
	return len(source) > 0
}
