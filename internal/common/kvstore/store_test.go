package kvstore

import (
	"context"
	"errors"
	"testing"

	"banking-client/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func newMiniredisStore(t *testing.T, prefix string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedis(config.RedisConfig{Address: mr.Addr()}, prefix)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func stores(t *testing.T) map[string]Store {
	redisStore, _ := newMiniredisStore(t, "test:")
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

// ==========================
// Contract Tests
// ==========================

func TestStore_GetSetDel(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, KeyToken)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, KeyToken, "abc"))
			v, err := s.Get(ctx, KeyToken)
			require.NoError(t, err)
			assert.Equal(t, "abc", v)

			require.NoError(t, s.Del(ctx, KeyToken, KeyUser))
			_, err = s.Get(ctx, KeyToken)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{KeyToken, KeyUser, KeyTheme, KeyLanguage} {
				require.NoError(t, s.Set(ctx, k, "x"))
			}

			require.NoError(t, s.Clear(ctx))

			for _, k := range []string{KeyToken, KeyUser, KeyTheme, KeyLanguage} {
				_, err := s.Get(ctx, k)
				assert.ErrorIs(t, err, ErrNotFound, k)
			}
		})
	}
}

func TestStore_JSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type profile struct {
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(ctx, s, KeyUser, profile{Name: "huy"}))

	var got profile
	require.NoError(t, GetJSON(ctx, s, KeyUser, &got))
	assert.Equal(t, "huy", got.Name)

	require.NoError(t, s.Set(ctx, KeyUser, "{broken"))
	assert.Error(t, GetJSON(ctx, s, KeyUser, &got))

	assert.Equal(t, "light", GetOr(ctx, s, KeyTheme, "light"))
}

// ==========================
// Redis-specific Tests
// ==========================

func TestRedisStore_ClearKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t, "bank:")

	require.NoError(t, mr.Set("other:key", "keep"))
	require.NoError(t, store.Set(ctx, KeyToken, "t"))
	assert.True(t, mr.Exists("bank:jwtToken"))

	require.NoError(t, store.Clear(ctx))

	assert.False(t, mr.Exists("bank:jwtToken"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store := NewRedisFromClient(db, "p:")

	mock.ExpectGet("p:jwtToken").RedisNil()
	mock.ExpectGet("p:user").SetErr(errors.New("connection reset"))
	mock.ExpectSet("p:app_theme", "dark", 0).SetErr(errors.New("read only replica"))

	_, err := store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, KeyUser)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")

	err = store.Set(ctx, KeyTheme, "dark")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read only replica")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	mr := miniredis.RunT(t)
	s, err = Open(ctx, config.StorageConfig{Driver: "redis", KeyPrefix: "x:", Redis: config.RedisConfig{Address: mr.Addr()}})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)

	_, err = Open(ctx, config.StorageConfig{Driver: "etcd"})
	assert.Error(t, err)
}

var _ Store = (*RedisStore)(nil)
