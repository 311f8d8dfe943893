package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct{ hits, misses int }

func (o *countingObserver) CacheHit()  { o.hits++ }
func (o *countingObserver) CacheMiss() { o.misses++ }

func newClockedCache(obs Observer) (*MemoryCache, *time.Time) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(obs)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCacheExpires(t *testing.T) {
	obs := &countingObserver{}
	c, now := newClockedCache(obs)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	*now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	c, now := newClockedCache(nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	*now = now.Add(24 * time.Hour)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCacheDelete(t *testing.T) {
	c, _ := newClockedCache(nil)
	ctx := context.Background()

	for _, k := range HandleKeys("tourist") {
		require.NoError(t, c.Set(ctx, k, []byte("x"), time.Minute))
	}
	require.NoError(t, c.Delete(ctx, HandleKeys("Tourist")...))
	for _, k := range HandleKeys("tourist") {
		_, ok, _ := c.Get(ctx, k)
		assert.False(t, ok, k)
	}
}

func TestMemoryCacheCopiesValue(t *testing.T) {
	c, _ := newClockedCache(nil)
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'z'
	got, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))

	got[0] = 'X'
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestJSONHelpers(t *testing.T) {
	c, _ := newClockedCache(nil)
	ctx := context.Background()

	type payload struct {
		Handle string `json:"handle"`
		Rating int    `json:"rating"`
	}
	require.NoError(t, SetJSON(ctx, c, "p", payload{"tourist", 3800}, time.Minute))

	got, ok, err := GetJSON[payload](ctx, c, "p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{"tourist", 3800}, got)

	_, ok, err = GetJSON[payload](ctx, c, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), time.Minute))
	_, _, err = GetJSON[payload](ctx, c, "bad")
	assert.Error(t, err)
}
