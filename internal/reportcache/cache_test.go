package reportcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/billing-dashboard/internal/billing"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ttl), mr
}

func sampleReport() billing.UsageData {
	return billing.UsageData{
		Service:          billing.ServiceGemini,
		Period:           billing.Period7d,
		Currency:         "USD",
		StartDate:        "2025-06-01",
		EndDate:          "2025-06-07",
		TotalCost:        12.5,
		AverageDailyCost: 12.5 / 7,
		GeneratedAt:      "2025-06-08T00:00:00Z",
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, billing.ServiceGemini, billing.Period7d)
	require.False(t, ok)

	cache.Set(ctx, sampleReport())

	got, ok := cache.Get(ctx, billing.ServiceGemini, billing.Period7d)
	require.True(t, ok)
	require.Equal(t, sampleReport(), got)

	// Different period is a separate entry.
	_, ok = cache.Get(ctx, billing.ServiceGemini, billing.Period30d)
	require.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, sampleReport())
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, billing.ServiceGemini, billing.Period7d)
	require.False(t, ok)
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("billing:report:gemini:7d", "{not json"))

	_, ok := cache.Get(context.Background(), billing.ServiceGemini, billing.Period7d)
	require.False(t, ok)
}

func TestNilCacheIsPassThrough(t *testing.T) {
	var cache *Cache
	cache.Set(context.Background(), sampleReport())
	_, ok := cache.Get(context.Background(), billing.ServiceGemini, billing.Period7d)
	require.False(t, ok)
}
