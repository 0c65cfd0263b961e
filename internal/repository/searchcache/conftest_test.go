package searchcache

import (
	"context"
	"testing"
	"time"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"

	"github.com/ebrains-kg/kgsearch/internal/db"
)

type mockSearcher struct {
	result *elastic.SearchResult
	err    error
	calls  int
	index  string
	body   []byte
}

func (m *mockSearcher) Search(_ context.Context, index string, body []byte) (*elastic.SearchResult, error) {
	m.calls++
	m.index, m.body = index, body
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setFn        func(ctx context.Context, key string, value []byte) error
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn        func(ctx context.Context, key string) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestCachedSearcher(t *testing.T, inner *mockSearcher, ttl time.Duration) (*CachedSearcher, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cs := New(inner, ms, "kgsearch:", ttl, nil, zap.NewNop())
	return cs, ms
}
