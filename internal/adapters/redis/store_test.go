package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/cadence/internal/adapters/redis"
	"github.com/aretw0/cadence/pkg/document"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/rational"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.DocumentStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewFromClient(client, opts...), mr
}

func sampleDocument(t *testing.T) *document.Document {
	t.Helper()
	m, err := document.Load([]byte(`
entities:
  - id: 1
    variables:
      startTime: {expr: e0.startTime}
      duration: {expr: 60 / tempo(e0)}
      color: crimson
`))
	require.NoError(t, err)
	return document.Snapshot(m)
}

func TestDocumentStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	doc := sampleDocument(t)

	require.NoError(t, store.Save(ctx, "melody", doc))

	loaded, err := store.Load(ctx, "melody")
	require.NoError(t, err)

	m, err := document.Load(must(loaded.Marshal()))
	require.NoError(t, err)
	value, err := m.GetVariable(1, "duration")
	require.NoError(t, err)
	assert.Equal(t, rational.FromInt(1), value.Number)
}

func must(data []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return data
}

func TestDocumentStore_LoadMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentStore_ListAndDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	doc := sampleDocument(t)

	require.NoError(t, store.Save(ctx, "a", doc))
	require.NoError(t, store.Save(ctx, "b", doc))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)

	require.NoError(t, store.Delete(ctx, "a"))
	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)

	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentStore_PrefixIsolation(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})

	first := redis.NewFromClient(client, redis.WithPrefix("tenant1:"))
	second := redis.NewFromClient(client, redis.WithPrefix("tenant2:"))
	ctx := context.Background()
	doc := sampleDocument(t)

	require.NoError(t, first.Save(ctx, "melody", doc))
	assert.True(t, mr.Exists("tenant1:melody"))

	_, err = second.Load(ctx, "melody")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentStore_TTLExpiresDocument(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "ephemeral", sampleDocument(t)))
	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ephemeral"}, names)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "ephemeral")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
