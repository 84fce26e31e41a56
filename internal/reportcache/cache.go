package reportcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsboard/billing-dashboard/internal/billing"
)

// Cache stores rendered usage reports keyed by (service, period) so repeat
// panel loads within the TTL skip the aggregation query. A nil cache or a
// nil client degrades to pass-through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, service billing.ServiceKey, period billing.PeriodKey) (billing.UsageData, bool) {
	if c == nil || c.client == nil {
		return billing.UsageData{}, false
	}
	data, err := c.client.Get(ctx, key(service, period)).Bytes()
	if err != nil {
		return billing.UsageData{}, false
	}
	var report billing.UsageData
	if err := json.Unmarshal(data, &report); err != nil {
		// Stale schema or corrupt entry; treat as a miss.
		return billing.UsageData{}, false
	}
	return report, true
}

func (c *Cache) Set(ctx context.Context, report billing.UsageData) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	c.client.Set(ctx, key(report.Service, report.Period), data, c.ttl)
}

func key(service billing.ServiceKey, period billing.PeriodKey) string {
	return fmt.Sprintf("billing:report:%s:%s", service, period)
}
