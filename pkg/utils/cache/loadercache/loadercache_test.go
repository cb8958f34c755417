//nolint:funlen // by design
package loadercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/simresults-indexer/pkg/utils/cache"
)

func TestGetWithoutLoader(t *testing.T) {
	c := New[string, int]()
	_, err := c.Get(context.Background(), "x")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestGetOrLoadMemoizes(t *testing.T) {
	ctx := context.Background()
	c := New[string, int]()
	calls := 0
	load := func(context.Context) (*int, error) {
		calls++
		v := calls * 10
		return &v, nil
	}
	v, err := c.GetOrLoad(ctx, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 10, *v)
	v, err = c.GetOrLoad(ctx, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 10, *v)
	assert.Equal(t, 1, calls)

	c.Invalidate(ctx, "k")
	v, err = c.GetOrLoad(ctx, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 20, *v)

	c.InvalidateAll(ctx)
	assert.Equal(t, 0, c.Len())
}

func TestLoaderErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("boom")
	c := New(WithLoader[string, int](func(_ context.Context, k string) (*int, error) {
		return nil, errBoom
	}))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, c.Len())
}

func TestExpiration(t *testing.T) {
	ctx := context.Background()
	calls := 0
	c := New(
		WithExpiration[string, int](10*time.Millisecond),
		WithLoader[string, int](func(_ context.Context, k string) (*int, error) {
			calls++
			return &calls, nil
		}))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
