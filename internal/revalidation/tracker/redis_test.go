package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisTracker(t *testing.T) {
	client, mr := setupTestRedis(t)
	tr := NewRedis(client, time.Hour)
	ctx := context.Background()

	t.Run("unknown key is empty", func(t *testing.T) {
		v, err := tr.Last(ctx, Key("p1", "/p1"))
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("advance then read", func(t *testing.T) {
		require.NoError(t, tr.Advance(ctx, Key("p1", "/p1"), "abc"))
		v, err := tr.Last(ctx, Key("p1", "/p1"))
		require.NoError(t, err)
		assert.Equal(t, "abc", v)

		assert.True(t, mr.Exists(keyPrefix+"project:p1:/p1"))
		assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"project:p1:/p1"))
	})

	t.Run("expired value forces regeneration", func(t *testing.T) {
		require.NoError(t, tr.Advance(ctx, "path:/x", "f"))
		mr.FastForward(2 * time.Hour)
		v, err := tr.Last(ctx, "path:/x")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("redis down surfaces error", func(t *testing.T) {
		mr.SetError("LOADING")
		defer mr.SetError("")
		_, err := tr.Last(ctx, Key("p1", "/p1"))
		assert.Error(t, err)
	})
}

func TestMemoryTracker(t *testing.T) {
	tr := NewMemory()
	ctx := context.Background()

	v, err := tr.Last(ctx, "project:a")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, tr.Advance(ctx, "project:a", "f1"))
	require.NoError(t, tr.Advance(ctx, "project:a", "f2"))
	v, _ = tr.Last(ctx, "project:a")
	assert.Equal(t, "f2", v)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "project:jane:/jane", Key("jane", "/jane"))
	assert.Equal(t, "project:jane:/jane/preview", Key("jane", "/jane/preview"))
	assert.Equal(t, "path:/about", Key("", "/about"))
}
