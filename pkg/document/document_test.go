package document_test

import (
	"testing"

	"github.com/aretw0/cadence/internal/runtime"
	"github.com/aretw0/cadence/pkg/document"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
	"github.com/aretw0/cadence/pkg/rational"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const melody = `
entities:
  - id: 0
    variables:
      tempo: 60
      frequency: 440
  - id: 1
    variables:
      startTime: {expr: e0.startTime}
      duration: {expr: 60 / tempo(e0)}
      frequency: {expr: "e0.frequency * rat(3, 2)"}
      color: crimson
  - id: 2
    parent: 1
    variables:
      startTime: {expr: e1.startTime + e1.duration}
      swing: {expr: 1/3}
`

func number(t *testing.T, m *runtime.Module, id int, name string) rational.Rational {
	t.Helper()
	value, err := m.GetVariable(id, name)
	require.NoError(t, err)
	require.True(t, value.IsNumber())
	return value.Number
}

func TestLoad_BuildsWorkingModule(t *testing.T) {
	m, err := document.Load([]byte(melody))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, m.IDs())
	assert.Equal(t, rational.FromInt(660), number(t, m, 1, "frequency"))
	assert.Equal(t, rational.FromInt(1), number(t, m, 2, "startTime"))

	third, err := rational.New(1, 3)
	require.NoError(t, err)
	assert.Equal(t, third, number(t, m, 2, "swing"))

	color, err := m.GetVariable(1, "color")
	require.NoError(t, err)
	assert.Equal(t, expr.TextValue("crimson"), color)

	// Parent links survive the round trip.
	entity, ok := m.Entity(2)
	require.True(t, ok)
	assert.Equal(t, 1, entity.Parent)

	// A document omitting some root defaults still has all of them.
	assert.Equal(t, rational.FromInt(4), number(t, m, 0, domain.VarMeasureLength))
}

func TestLoad_ForwardReferencesAreFine(t *testing.T) {
	doc := `
entities:
  - id: 1
    variables:
      startTime: {expr: e2.startTime + 1}
  - id: 2
    variables:
      startTime: 0
`
	m, err := document.Load([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, rational.FromInt(1), number(t, m, 1, "startTime"))
}

func TestLoad_Rejections(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want any
	}{
		{
			name: "syntax error",
			doc: `
entities:
  - id: 1
    variables:
      duration: {expr: "1 +"}
`,
			want: new(*expr.SyntaxError),
		},
		{
			name: "unknown reference",
			doc: `
entities:
  - id: 1
    variables:
      duration: {expr: e9.duration}
`,
			want: new(*expr.UnknownEntityError),
		},
		{
			name: "cycle",
			doc: `
entities:
  - id: 1
    variables:
      duration: {expr: e2.duration}
  - id: 2
    variables:
      duration: {expr: e1.duration}
`,
			want: new(*domain.CircularDependencyError),
		},
		{
			name: "self reference",
			doc: `
entities:
  - id: 1
    variables:
      duration: {expr: e1.duration + 1}
`,
			want: new(*domain.SelfReferenceError),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := document.Load([]byte(tc.doc))
			require.Error(t, err)
			assert.ErrorAs(t, err, tc.want)
		})
	}
}

func TestBuild_DuplicateAndNegativeIDs(t *testing.T) {
	_, err := document.Load([]byte("entities: [{id: 3}, {id: 3}]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = document.Load([]byte("entities: [{id: -2}]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved")
}

func TestSnapshot_RoundTrip(t *testing.T) {
	m, err := document.Load([]byte(melody))
	require.NoError(t, err)

	data, err := document.Snapshot(m).Marshal()
	require.NoError(t, err)

	restored, err := document.Load(data)
	require.NoError(t, err)

	want, err := m.EvaluateAll()
	require.NoError(t, err)
	got, err := restored.EvaluateAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Expressions stay expressions across the round trip, not frozen values.
	entity, ok := restored.Entity(2)
	require.True(t, ok)
	assert.True(t, entity.Vars["startTime"].IsExpression())
}

func TestSnapshot_EncodesNonIntegerLiterals(t *testing.T) {
	m, err := document.Load([]byte("entities: []"))
	require.NoError(t, err)
	id, err := m.AddEntity(domain.NoParent, map[string]domain.Variable{})
	require.NoError(t, err)
	require.NoError(t, m.SetVariable(id, "swing", "2 / 3"))

	data, err := document.Snapshot(m).Marshal()
	require.NoError(t, err)

	restored, err := document.Load(data)
	require.NoError(t, err)
	twoThirds, err := rational.New(2, 3)
	require.NoError(t, err)
	assert.Equal(t, twoThirds, number(t, restored, id, "swing"))
}
