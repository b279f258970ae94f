package links

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	links   map[string]*Link
	calls   int
	forgets int
}

func (r *countingResolver) Resolve(_ context.Context, code string) (*Link, error) {
	r.calls++
	link, ok := r.links[code]
	if !ok {
		return nil, NewLinkNotFoundError(code)
	}
	copied := *link
	return &copied, nil
}

func (r *countingResolver) Forget(context.Context, string) {
	r.forgets++
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, LinkCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mr, NewRedisLinkCache(rdb, time.Minute, logger)
}

func TestRedisLinkCache(t *testing.T) {
	ctx := context.Background()
	mr, cache := newTestCache(t)

	link := &Link{ID: 7, Code: "abc1234", OriginalURL: "https://example.com", UTM: UTMTags{Source: "x"}}

	cached, err := cache.Get(ctx, "abc1234")
	require.NoError(t, err)
	assert.Nil(t, cached)

	require.NoError(t, cache.Set(ctx, link))
	assert.True(t, mr.Exists("link:abc1234"))
	assert.Equal(t, time.Minute, mr.TTL("link:abc1234"))

	cached, err = cache.Get(ctx, "abc1234")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, link.ID, cached.ID)
	assert.Equal(t, "x", cached.UTM.Source)

	require.NoError(t, cache.Invalidate(ctx, "abc1234"))
	assert.False(t, mr.Exists("link:abc1234"))
}

func TestRedisLinkCacheCorruptEntryIsAMiss(t *testing.T) {
	mr, cache := newTestCache(t)
	require.NoError(t, mr.Set("link:abc1234", "{not json"))

	cached, err := cache.Get(context.Background(), "abc1234")
	assert.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisLinkCacheUnavailableIsAMiss(t *testing.T) {
	mr, cache := newTestCache(t)
	mr.Close()

	cached, err := cache.Get(context.Background(), "abc1234")
	assert.NoError(t, err)
	assert.Nil(t, cached)
	assert.NoError(t, cache.Set(context.Background(), &Link{Code: "abc1234"}))
}

func TestNewRedisLinkCacheWithoutClient(t *testing.T) {
	cache := NewRedisLinkCache(nil, time.Minute, nil)
	cached, err := cache.Get(context.Background(), "abc1234")
	assert.NoError(t, err)
	assert.Nil(t, cached)
}

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()

	rdb, err := NewRedisClient(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, rdb)

	_, err = NewRedisClient(ctx, "not-a-url")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	rdb, err = NewRedisClient(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NotNil(t, rdb)
	rdb.Close()
}

func TestCachedResolver(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	next := &countingResolver{links: map[string]*Link{
		"abc1234": {ID: 1, Code: "abc1234", OriginalURL: "https://example.com"},
	}}
	resolver := NewCachedResolver(next, cache)

	t.Run("second lookup is served from the cache", func(t *testing.T) {
		first, err := resolver.Resolve(ctx, "abc1234")
		require.NoError(t, err)
		second, err := resolver.Resolve(ctx, "abc1234")
		require.NoError(t, err)

		assert.Equal(t, first.OriginalURL, second.OriginalURL)
		assert.Equal(t, 1, next.calls)
	})

	t.Run("forget drops the cached link", func(t *testing.T) {
		resolver.Forget(ctx, "abc1234")
		_, err := resolver.Resolve(ctx, "abc1234")
		require.NoError(t, err)

		assert.Equal(t, 2, next.calls)
		assert.Equal(t, 1, next.forgets)
	})

	t.Run("unknown codes are not cached", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "zzz9999")
		var notFound *LinkNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "zzz9999", notFound.Code)

		_, err = resolver.Resolve(ctx, "zzz9999")
		require.Error(t, err)
		assert.Equal(t, 4, next.calls)
	})
}
