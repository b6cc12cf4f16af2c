// Package redis persists documents in Redis, one JSON value per named
// document plus a sorted-set index for listing.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/cadence/pkg/document"
	"github.com/aretw0/cadence/pkg/domain"
)

// DocumentStore keeps named documents in Redis.
type DocumentStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*DocumentStore)

// WithTTL sets the expiration for stored documents. Zero means no
// expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *DocumentStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for documents.
func WithPrefix(prefix string) Option {
	return func(s *DocumentStore) {
		s.prefix = prefix
	}
}

// New creates a store with its own Redis client.
func New(address, password string, db int, opts ...Option) *DocumentStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *DocumentStore {
	store := &DocumentStore{
		client: client,
		prefix: "cadence:document:",
		ttl:    0,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *DocumentStore) key(name string) string {
	return s.prefix + name
}

func (s *DocumentStore) indexKey() string {
	return s.prefix + "index"
}

// Save persists the document under name.
func (s *DocumentStore) Save(ctx context.Context, name string, doc *document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(name), data, s.ttl)

	// Index score is the expiry instant so List can prune lazily; documents
	// without a TTL get a far-future score.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: name})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving to redis: %w", err)
	}
	return nil
}

// Load retrieves the document stored under name.
func (s *DocumentStore) Load(ctx context.Context, name string) (*document.Document, error) {
	val, err := s.client.Get(ctx, s.key(name)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("reading from redis: %w", err)
	}

	var doc document.Document
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling document: %w", err)
	}
	return &doc, nil
}

// Delete removes the named document and its index entry.
func (s *DocumentStore) Delete(ctx context.Context, name string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(name))
	pipe.ZRem(ctx, s.indexKey(), name)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the names of stored documents, pruning index entries whose
// TTL has lapsed.
func (s *DocumentStore) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("pruning expired documents: %w", err)
	}

	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return names, nil
}

// Close closes the redis client.
func (s *DocumentStore) Close() error {
	return s.client.Close()
}
