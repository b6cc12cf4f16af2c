// Package document serializes an entity tree to and from YAML. A document is
// the at-rest form of a module: entity ids, parent links, and variables kept
// as literal scalars, plain strings, or expression source text.
package document

import (
	"fmt"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/cadence/internal/runtime"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
	"github.com/aretw0/cadence/pkg/rational"
)

// Document is the YAML form of a module. The root entity is listed like any
// other but must carry id 0.
type Document struct {
	Entities []EntityRecord `yaml:"entities" json:"entities"`
}

// EntityRecord is one entity in a document. Parent is omitted for top-level
// entities. Variable values come in three shapes:
//
//	duration: 2            # whole-number literal
//	duration: {expr: 3/2}  # non-integer rational, or any expression source
//	color: crimson         # pass-through string
type EntityRecord struct {
	ID        int            `yaml:"id" json:"id" mapstructure:"id"`
	Parent    *int           `yaml:"parent,omitempty" json:"parent,omitempty" mapstructure:"parent"`
	Variables map[string]any `yaml:"variables,omitempty" json:"variables,omitempty" mapstructure:"variables"`
}

// exprCell is the {expr: "..."} wrapper used for anything that is not a
// whole-number literal or a plain string.
type exprCell struct {
	Expr string `yaml:"expr" json:"expr" mapstructure:"expr"`
}

// Parse decodes YAML bytes into a Document without building a module.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &doc, nil
}

// Marshal renders the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Build compiles the document into entities ready for runtime.Restore.
// Compilation is per-variable; cross-entity validation (unknown references,
// cycles) happens in Restore, which sees the whole set at once.
func (d *Document) Build() ([]*domain.Entity, error) {
	seen := make(map[int]bool, len(d.Entities))
	entities := make([]*domain.Entity, 0, len(d.Entities))
	for _, record := range d.Entities {
		if record.ID < 0 {
			return nil, fmt.Errorf("entity id %d: negative ids are reserved", record.ID)
		}
		if seen[record.ID] {
			return nil, fmt.Errorf("entity id %d: duplicate", record.ID)
		}
		seen[record.ID] = true

		entity := domain.NewEntity(record.ID)
		if record.Parent != nil {
			entity.Parent = *record.Parent
		}
		for name, raw := range record.Variables {
			v, err := decodeVariable(raw)
			if err != nil {
				return nil, fmt.Errorf("entity %d, variable %q: %w", record.ID, name, err)
			}
			entity.Vars[name] = v
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// decodeVariable maps one YAML value onto a variable. Integers and floats
// are literals, strings are pass-through text, and {expr: "..."} maps are
// parsed as expression source.
func decodeVariable(raw any) (domain.Variable, error) {
	switch value := raw.(type) {
	case int:
		return domain.LiteralVariable(rational.FromInt(int64(value))), nil
	case int64:
		return domain.LiteralVariable(rational.FromInt(value)), nil
	case float64:
		return domain.LiteralVariable(rational.FromFloat(value)), nil
	case string:
		return domain.StringVariable(value), nil
	case map[string]any:
		var cell exprCell
		if err := mapstructure.Decode(value, &cell); err != nil {
			return domain.Variable{}, fmt.Errorf("decoding expression cell: %w", err)
		}
		if cell.Expr == "" {
			return domain.Variable{}, fmt.Errorf("expression cell is missing expr")
		}
		node, err := expr.Parse(cell.Expr)
		if err != nil {
			return domain.Variable{}, err
		}
		return domain.ExpressionVariable(node, cell.Expr), nil
	}
	return domain.Variable{}, fmt.Errorf("unsupported value %v (%T)", raw, raw)
}

// Sources renders the record's variables back to editable text: literal
// numbers print as numbers, expressions as their source.
func (r EntityRecord) Sources() map[string]string {
	sources := make(map[string]string, len(r.Variables))
	for name, raw := range r.Variables {
		switch value := raw.(type) {
		case string:
			sources[name] = value
		case int:
			sources[name] = fmt.Sprintf("%d", value)
		case int64:
			sources[name] = fmt.Sprintf("%d", value)
		case exprCell:
			sources[name] = value.Expr
		case map[string]any:
			if text, ok := value["expr"].(string); ok {
				sources[name] = text
			}
		default:
			sources[name] = fmt.Sprint(raw)
		}
	}
	return sources
}

// encodeVariable is the inverse of decodeVariable.
func encodeVariable(v domain.Variable) any {
	switch v.Kind {
	case domain.VariableString:
		return v.Text
	case domain.VariableExpression:
		return exprCell{Expr: v.SourceText()}
	}
	if v.Literal.IsInt() {
		return v.Literal.Num()
	}
	return exprCell{Expr: v.Literal.String()}
}

// Load decodes YAML bytes and builds a validated module from them.
func Load(data []byte, opts ...runtime.Option) (*runtime.Module, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	entities, err := doc.Build()
	if err != nil {
		return nil, err
	}
	return runtime.Restore(entities, opts...)
}

// LoadFile reads path and calls Load.
func LoadFile(path string, opts ...runtime.Option) (*runtime.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Load(data, opts...)
}

// Snapshot captures a module's entities as a document, in ascending id
// order so output is deterministic.
func Snapshot(m *runtime.Module) *Document {
	doc := &Document{}
	for _, id := range m.IDs() {
		entity, ok := m.Entity(id)
		if !ok {
			continue
		}
		record := EntityRecord{ID: id}
		if entity.Parent != domain.NoParent {
			parent := entity.Parent
			record.Parent = &parent
		}
		if len(entity.Vars) > 0 {
			record.Variables = make(map[string]any, len(entity.Vars))
			names := make([]string, 0, len(entity.Vars))
			for name := range entity.Vars {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				record.Variables[name] = encodeVariable(entity.Vars[name])
			}
		}
		doc.Entities = append(doc.Entities, record)
	}
	return doc
}
