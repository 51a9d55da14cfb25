package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cadence/api/internal/auth"
)

func backends(t *testing.T) map[string]Backend {
	s := miniredis.RunT(t)
	redisStore, err := NewRedisStore("redis://" + s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisStore.Close() })
	return map[string]Backend{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

func TestManagerIssueLookupRevoke(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := NewManager(backend, time.Hour)

			token, err := m.Issue(ctx, "user-1")
			require.NoError(t, err)
			assert.Len(t, token, auth.TokenBytes*2)

			userID, ok, err := m.Lookup(ctx, token)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "user-1", userID)

			_, ok, err = m.Lookup(ctx, "unknown")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, m.Revoke(ctx, token))
			_, ok, err = m.Lookup(ctx, token)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestManagerStoresOnlyTokenHashes(t *testing.T) {
	backend := NewMemoryStore()
	m := NewManager(backend, time.Hour)

	token, err := m.Issue(context.Background(), "user-1")
	require.NoError(t, err)

	_, rawStored := backend.entries[token]
	_, hashStored := backend.entries[auth.HashToken(token)]
	assert.False(t, rawStored)
	assert.True(t, hashStored)
}

func TestMemoryStoreExpires(t *testing.T) {
	backend := NewMemoryStore()
	now := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	backend.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, backend.Save(ctx, "h", "user-1", time.Minute))
	now = now.Add(59 * time.Second)
	userID, err := backend.Lookup(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	now = now.Add(time.Second)
	_, err = backend.Lookup(ctx, "h")
	require.ErrorIs(t, err, ErrNotFound)
}
