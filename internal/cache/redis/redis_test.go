package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := &Cache{cli: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	c.Set(ctx, time.Minute, "push-tokens:1", []string{"a", "b"})

	var res []string
	require.NoError(t, c.GetToStruct(ctx, "push-tokens:1", &res))
	assert.Equal(t, []string{"a", "b"}, res)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.GetToStruct(ctx, "push-tokens:1", &res), ErrNotFoundInCache)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	c.Set(ctx, time.Minute, "k", 1)
	c.Delete(ctx, "k")

	var res int
	assert.ErrorIs(t, c.GetToStruct(ctx, "k", &res), ErrNotFoundInCache)
}

func TestCache_InvalidateKeysByPattern(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	c.Set(ctx, time.Minute, "push-tokens:1", []string{"a"})
	c.Set(ctx, time.Minute, "push-tokens:2", []string{"b"})
	c.Set(ctx, time.Minute, "other", []string{"c"})

	c.InvalidateKeysByPattern(ctx, "push-tokens:*")

	assert.False(t, mr.Exists("push-tokens:1"))
	assert.False(t, mr.Exists("push-tokens:2"))
	assert.True(t, mr.Exists("other"))
}

func TestCache_Lock(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	token, ok, err := c.Lock(ctx, "reminders:lock", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.Lock(ctx, "reminders:lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Unlock(ctx, "reminders:lock", "not-mine"))
	assert.True(t, mr.Exists("reminders:lock"))

	require.NoError(t, c.Unlock(ctx, "reminders:lock", token))
	assert.False(t, mr.Exists("reminders:lock"))

	_, ok, err = c.Lock(ctx, "reminders:lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
