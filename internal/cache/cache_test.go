package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetExpire(t *testing.T) {
	c := New(true)
	now := time.Date(2024, 9, 8, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	etag := c.Set("etl:runs:10:", []byte(`[]`), time.Minute)
	data, got, ok := c.Get("etl:runs:10:")
	require.True(t, ok)
	assert.Equal(t, []byte(`[]`), data)
	assert.Equal(t, etag, got)

	now = now.Add(2 * time.Minute)
	_, _, ok = c.Get("etl:runs:10:")
	assert.False(t, ok)

	c.EvictExpired()
	assert.Equal(t, 0, c.Stats()["total_keys"])
}

func TestCache_Invalidate(t *testing.T) {
	c := New(true)
	c.Set("etl:runs:10:", []byte("a"), time.Minute)
	c.Set("etl:runs:5:nfl", []byte("b"), time.Minute)
	c.Set("other", []byte("c"), time.Minute)

	assert.Equal(t, 2, c.Invalidate("etl:runs:"))
	_, _, ok := c.Get("other")
	assert.True(t, ok)
}

func TestCache_Disabled(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("v"), time.Minute)
	assert.NotEmpty(t, etag)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("payload"))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch(`W/"other", `+etag, etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.False(t, CheckETagMatch("", etag))
	assert.False(t, CheckETagMatch(`W/"nope"`, etag))
}
