package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/picklesmaker/pickles/internal/config"
	"github.com/picklesmaker/pickles/internal/content"
	"github.com/picklesmaker/pickles/internal/resolver"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(v uint64) *uint64 { return &v }

func TestReportKeyDependsOnSelectionRevisionAndOptions(t *testing.T) {
	opts := content.DefaultOptions()
	a := ReportKey(0, resolver.Selection{BrandID: id(1)}, opts)

	assert.Equal(t, a, ReportKey(0, resolver.Selection{BrandID: id(1)}, content.DefaultOptions()))
	assert.NotEqual(t, a, ReportKey(1, resolver.Selection{BrandID: id(1)}, opts))
	assert.NotEqual(t, a, ReportKey(0, resolver.Selection{BrandID: id(2)}, opts))
	assert.NotEqual(t, a, ReportKey(0, resolver.Selection{BrandID: id(1)}, opts.WithLimit(content.Interior, 10)))
	assert.Contains(t, a, "pickles:report:0:")
}

func TestNewWithoutAddrIsNop(t *testing.T) {
	c := New(config.RedisConfig{})
	_, ok := c.(Nop)
	require.True(t, ok)

	c.Put(context.Background(), 0, resolver.Selection{}, content.DefaultOptions(), &resolver.Report{})
	_, _, hit := c.Get(context.Background(), resolver.Selection{}, content.DefaultOptions())
	assert.False(t, hit)
	assert.NoError(t, c.Invalidate(context.Background()))
	assert.NoError(t, c.Close())
}

func TestRedisUnavailableCountsAsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedis(client, time.Minute)
	defer c.Close()

	ctx := context.Background()
	_, rev, hit := c.Get(ctx, resolver.Selection{}, content.DefaultOptions())
	assert.False(t, hit)
	assert.Equal(t, NoRevision, rev)
	c.Put(ctx, rev, resolver.Selection{}, content.DefaultOptions(), &resolver.Report{Success: true})
	assert.Error(t, c.Invalidate(ctx))
}

func newMiniRedisCache(t *testing.T) *Redis {
	t.Helper()
	srv := miniredis.RunT(t)
	c := NewRedis(redis.NewClient(&redis.Options{Addr: srv.Addr()}), time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisHitAndInvalidate(t *testing.T) {
	c := newMiniRedisCache(t)
	ctx := context.Background()
	sel := resolver.Selection{BrandID: id(1)}
	opts := content.DefaultOptions()

	_, rev, hit := c.Get(ctx, sel, opts)
	require.False(t, hit)
	assert.Equal(t, int64(0), rev)

	c.Put(ctx, rev, sel, opts, &resolver.Report{Success: true, Message: "cached"})
	report, rev, hit := c.Get(ctx, sel, opts)
	require.True(t, hit)
	assert.Equal(t, int64(0), rev)
	assert.Equal(t, "cached", report.Message)

	require.NoError(t, c.Invalidate(ctx))
	_, rev, hit = c.Get(ctx, sel, opts)
	assert.False(t, hit)
	assert.Equal(t, int64(1), rev)
}

func TestRedisReportResolvedBeforeInvalidateIsNotServed(t *testing.T) {
	c := newMiniRedisCache(t)
	ctx := context.Background()
	sel := resolver.Selection{BrandID: id(1)}
	opts := content.DefaultOptions()

	_, rev, hit := c.Get(ctx, sel, opts)
	require.False(t, hit)

	// A catalog write lands while the report is being resolved.
	require.NoError(t, c.Invalidate(ctx))
	c.Put(ctx, rev, sel, opts, &resolver.Report{Message: "old catalog"})

	_, _, hit = c.Get(ctx, sel, opts)
	assert.False(t, hit)
}
