package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLs for cached market data
const (
	TTLQuote  = 1 * time.Minute // 현재가
	TTLSeries = 12 * time.Hour   // 일봉 시계열
	TTLDaily  = 24 * time.Hour   // 스케줄 리포트
)

// Cache stores JSON values under "<prefix>:cache:<key>".
// A nil or disabled Cache misses on every Get and drops every Set.
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache over client
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Enabled reports whether reads and writes reach Redis
func (c *Cache) Enabled() bool {
	return c != nil && c.client.Enabled()
}

func (c *Cache) key(name string) string {
	return c.prefix + ":cache:" + name
}

// Get decodes the value stored under key into dest; a missing key is a miss, not an error
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value as JSON for ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Redis().Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// Keys
// =============================================================================

// SeriesKey identifies a daily price history for one ticker and period
func SeriesKey(ticker, period string) string {
	return "series:" + strings.ToUpper(ticker) + ":" + period
}

// QuoteKey identifies the latest quote for one ticker
func QuoteKey(ticker string) string {
	return "quote:" + strings.ToUpper(ticker)
}

// ReportKey identifies the last scheduled report for a benchmark
func ReportKey(benchmark string) string {
	return "report:last:" + benchmark
}
