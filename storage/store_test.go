package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-payment-console/storage"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "token")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.Set(ctx, "token", "t1"))
	require.NoError(t, s.Set(ctx, "expiration", "1700000000000"))
	require.NoError(t, s.Set(ctx, "token", "t2"))

	v, found, err := s.Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "t2", v)

	require.NoError(t, s.Delete(ctx, "token", "expiration", "missing"))
	_, found, err = s.Get(ctx, "expiration")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.Delete(ctx))
}

func TestDrivers(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := storage.New(storage.Config{}, storage.Dependencies{})
		require.NoError(t, err)
		exerciseStore(t, s)
		require.NoError(t, s.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "console.db")
		s, err := storage.New(storage.Config{Driver: storage.DriverSQLite, SQLite: &storage.SQLiteConfig{DSN: dsn}}, storage.Dependencies{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		exerciseStore(t, s)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := storage.New(storage.Config{
			Driver: storage.DriverRedis,
			Redis:  &storage.RedisConfig{Addr: mr.Addr(), Prefix: "test:"},
		}, storage.Dependencies{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		exerciseStore(t, s)

		require.NoError(t, s.Set(context.Background(), "persist:auth", "{}"))
		require.True(t, mr.Exists("test:persist:auth"))
	})

	t.Run("misconfigured", func(t *testing.T) {
		_, err := storage.New(storage.Config{Driver: storage.DriverSQLite}, storage.Dependencies{})
		require.Error(t, err)
		_, err = storage.New(storage.Config{Driver: storage.DriverRedis}, storage.Dependencies{})
		require.Error(t, err)
		_, err = storage.New(storage.Config{Driver: "etcd"}, storage.Dependencies{})
		require.Error(t, err)
	})
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	base := storage.NewMemory()
	a := storage.WithNamespace(base, "ws-a")
	b := storage.WithNamespace(base, "ws-b")

	require.NoError(t, a.Set(ctx, "token", "ta"))
	require.NoError(t, b.Set(ctx, "token", "tb"))

	v, _, err := a.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, "ta", v)

	raw, found, err := base.Get(ctx, "ws-b:token")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "tb", raw)

	require.NoError(t, a.Delete(ctx, "token"))
	_, found, _ = a.Get(ctx, "token")
	require.False(t, found)
	_, found, _ = b.Get(ctx, "token")
	require.True(t, found)

	require.NoError(t, a.Close())
	require.NoError(t, base.Set(ctx, "still", "open"))
}
