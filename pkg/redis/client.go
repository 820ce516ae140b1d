package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/betascope/pkg/config"
)

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 2 * time.Second
)

// Client is the shared Redis handle behind the price cache and the rate limiter.
// A disabled Client is valid and makes both of them pass-through.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb *redis.Client
}

// New connects when REDIS_ENABLED is set; otherwise it returns a disabled client
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return Disabled(), nil
	}

	c := &Client{rdb: redis.NewClient(options(cfg.Redis))}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// options maps RedisConfig onto go-redis options.
// Timeouts stay short: a slow cache must never stall an analysis.
func options(rc config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(rc.Host, rc.Port),
		Password:     rc.Password,
		DB:           rc.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	}
}

// Disabled returns a client that turns every operation into a no-op
func Disabled() *Client {
	return &Client{}
}

// Ping verifies the connection
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := c.rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether there is a live connection behind c
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Redis returns the go-redis client; nil when disabled
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
