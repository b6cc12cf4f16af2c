package cadence_test

import (
	"testing"

	"github.com/aretw0/cadence"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/rational"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_EndToEnd(t *testing.T) {
	eng := cadence.New()

	note, err := eng.AddEntity(domain.NoParent, map[string]string{
		"startTime": "e0.startTime",
		"duration":  "60 / tempo(e0)",
		"frequency": "e0.frequency * rat(3, 2)",
	})
	require.NoError(t, err)

	next, err := eng.AddEntity(domain.NoParent, map[string]string{
		"startTime": "e1.startTime + e1.duration",
		"frequency": "e0.frequency * 2",
	})
	require.NoError(t, err)

	freq, err := eng.GetVariable(note, "frequency")
	require.NoError(t, err)
	assert.Equal(t, rational.FromInt(660), freq.Number)

	start, err := eng.GetVariable(next, "startTime")
	require.NoError(t, err)
	assert.Equal(t, rational.FromInt(1), start.Number)

	// Doubling the tempo halves the first note's duration and moves the
	// second note's start with it.
	require.NoError(t, eng.SetVariable(domain.RootID, "tempo", "120"))
	start, err = eng.GetVariable(next, "startTime")
	require.NoError(t, err)
	half, err := rational.New(1, 2)
	require.NoError(t, err)
	assert.Equal(t, half, start.Number)
}

func TestEngine_MarkDirtyForcesRecompute(t *testing.T) {
	evals := 0
	eng := cadence.New(cadence.WithLifecycleHooks(domain.LifecycleHooks{
		OnEvaluate: func(entity int, name string) { evals++ },
	}))

	note, err := eng.AddEntity(domain.NoParent, map[string]string{
		"frequency": "e0.frequency * 2",
	})
	require.NoError(t, err)

	_, err = eng.GetVariable(note, "frequency")
	require.NoError(t, err)
	_, err = eng.GetVariable(note, "frequency")
	require.NoError(t, err)
	assert.Equal(t, 1, evals)

	eng.MarkDirty(note)
	_, err = eng.GetVariable(note, "frequency")
	require.NoError(t, err)
	assert.Equal(t, 2, evals)
}

func TestEngine_SnapshotRoundTrip(t *testing.T) {
	eng := cadence.New()
	_, err := eng.AddEntity(domain.NoParent, map[string]string{
		"duration": "e0.measureLength / 4",
	})
	require.NoError(t, err)

	data, err := eng.Snapshot().Marshal()
	require.NoError(t, err)

	restored, err := cadence.Load(data)
	require.NoError(t, err)
	value, err := restored.GetVariable(1, "duration")
	require.NoError(t, err)
	assert.Equal(t, rational.FromInt(1), value.Number)
}

func TestEngine_RemoveKeepThroughFacade(t *testing.T) {
	eng := cadence.New()
	first, err := eng.AddEntity(domain.NoParent, map[string]string{"startTime": "1"})
	require.NoError(t, err)
	second, err := eng.AddEntity(domain.NoParent, map[string]string{"startTime": "e1.startTime + 1"})
	require.NoError(t, err)

	require.NoError(t, eng.RemoveEntity(first, cadence.RemoveKeep))

	value, err := eng.GetVariable(second, "startTime")
	require.NoError(t, err)
	assert.Equal(t, rational.FromInt(2), value.Number)
	assert.Equal(t, []int{domain.RootID, second}, eng.IDs())
}
