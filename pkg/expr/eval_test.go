package expr

import (
	"errors"
	"testing"

	"github.com/aretw0/cadence/pkg/rational"
)

// fakeEnv is a flat variable table with a parent chain for helper lookups.
type fakeEnv struct {
	vars    map[int]map[string]Value
	parents map[int]int // child -> parent; absent means no parent
}

func (f *fakeEnv) Value(entity int, name string) (Value, error) {
	vars, ok := f.vars[entity]
	if !ok {
		return Value{}, &UnknownEntityError{Entity: entity}
	}
	v, ok := vars[name]
	if !ok {
		return Value{}, &UnknownVariableError{Entity: entity, Name: name}
	}
	return v, nil
}

func (f *fakeEnv) ResolveOwner(entity int, name string) (int, error) {
	if _, ok := f.vars[entity]; !ok {
		return 0, &UnknownEntityError{Entity: entity}
	}
	current := entity
	for {
		if _, ok := f.vars[current][name]; ok {
			return current, nil
		}
		parent, ok := f.parents[current]
		if !ok {
			return 0, nil // root default
		}
		current = parent
	}
}

func num(n, d int64) Value {
	r, _ := rational.New(n, d)
	return NumberValue(r)
}

func TestEvaluate_References(t *testing.T) {
	env := &fakeEnv{vars: map[int]map[string]Value{
		0: {"frequency": num(440, 1)},
		1: {"frequency": num(660, 1)},
	}}

	node, err := Parse("e0.frequency * 3 / 2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := Evaluate(node, env)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.Number != rational.FromInt(660) {
		t.Errorf("440 * 3/2 = %s, want 660", got.Number)
	}
}

func TestEvaluate_HelperChain(t *testing.T) {
	env := &fakeEnv{
		vars: map[int]map[string]Value{
			0: {"tempo": num(60, 1)},
			1: {},
			2: {"tempo": num(120, 1)},
			3: {},
		},
		parents: map[int]int{1: 0, 3: 2},
	}

	node, _ := Parse("tempo(e1)")
	got, err := Evaluate(node, env)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.Number != rational.FromInt(60) {
		t.Errorf("tempo(e1) = %s, want 60 from root", got.Number)
	}

	node, _ = Parse("tempo(e3)")
	got, err = Evaluate(node, env)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.Number != rational.FromInt(120) {
		t.Errorf("tempo(e3) = %s, want 120 from e2", got.Number)
	}
}

func TestEvaluate_UnknownEntity(t *testing.T) {
	env := &fakeEnv{vars: map[int]map[string]Value{0: {}}}
	node, _ := Parse("e7.duration")
	_, err := Evaluate(node, env)
	var unknown *UnknownEntityError
	if !errors.As(err, &unknown) {
		t.Fatalf("error is %v, want *UnknownEntityError", err)
	}
	if unknown.Entity != 7 {
		t.Errorf("unknown.Entity = %d, want 7", unknown.Entity)
	}
}

func TestEvaluate_TypeError(t *testing.T) {
	env := &fakeEnv{vars: map[int]map[string]Value{
		1: {"color": TextValue("blue")},
	}}
	node, _ := Parse("e1.color + 1")
	_, err := Evaluate(node, env)
	var typeErr *EvaluationTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("error is %v, want *EvaluationTypeError", err)
	}
}

func TestEvaluate_DivisionByZero(t *testing.T) {
	node, _ := Parse("1 / (2 - 2)")
	_, err := Evaluate(node, nil)
	var arith *rational.ArithmeticError
	if !errors.As(err, &arith) {
		t.Fatalf("error is %v, want *rational.ArithmeticError", err)
	}
}

func TestEvaluate_TextPassThrough(t *testing.T) {
	env := &fakeEnv{vars: map[int]map[string]Value{
		1: {"instrument": TextValue("flute")},
	}}
	node, _ := Parse("e1.instrument")
	got, err := Evaluate(node, env)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.Kind != ValueText || got.Text != "flute" {
		t.Errorf("got %v, want text \"flute\"", got)
	}
}
