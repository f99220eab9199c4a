package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

func TestKey(t *testing.T) {
	a, err := Key("leaderboard", []payload{{"bob", 5}, {"amy", 1}})
	require.NoError(t, err)
	b, err := Key("leaderboard", []payload{{"bob", 5}, {"amy", 1}})
	require.NoError(t, err)
	c, err := Key("leaderboard", []payload{{"bob", 5}, {"amy", 2}})
	require.NoError(t, err)
	d, err := Key("best", []payload{{"bob", 5}, {"amy", 1}})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.True(t, strings.HasPrefix(a, "cookoff:leaderboard:"))
	assert.Len(t, strings.TrimPrefix(a, "cookoff:leaderboard:"), 64)
}

func TestKey_UnencodableInput(t *testing.T) {
	_, err := Key("x", make(chan int))
	assert.Error(t, err)
}

func TestNopCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NopCache{}

	require.NoError(t, c.Set(ctx, "k", payload{"bob", 1}))
	var got payload
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	lb, err := Key("leaderboard", 1)
	require.NoError(t, err)
	best, err := Key("best", 1)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, lb, []payload{{"bob", 8}}))
	require.NoError(t, c.Set(ctx, best, []payload{{"al", 10}}))

	var got []payload
	ok, err := c.Get(ctx, lb, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []payload{{"bob", 8}}, got)

	removed, err := c.Invalidate(ctx, "leaderboard")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	ok, err = c.Get(ctx, lb, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
