package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/betascope/pkg/logger"
	"github.com/wonny/betascope/pkg/redis"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; betascope/1.0)"
	defaultTimeout   = 30 * time.Second
	errorBodyLimit   = 512
)

// Client fetches market data over HTTP.
// Every request passes the local token bucket, then the shared Redis window, then the retry loop.
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	userAgent   string
	limiter     *rate.Limiter
	shared      *redis.RateLimiter
	sharedCfg   redis.RateLimitConfig
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// StatusError is returned by GetJSON for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// New creates a client; timeout <= 0 means 30s
func New(log *logger.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithComponent("http"),
		userAgent:  defaultUserAgent,
		retryConfig: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Enabled:      true,
		},
	}
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = true
	return c
}

// DisableRetry makes every request a single attempt
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithRate limits this process to perSecond requests (burst 1)
func (c *Client) WithRate(perSecond float64) *Client {
	if perSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return c
}

// WithRateLimiter adds a window shared by every process using the same Redis
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	c.shared = limiter
	c.sharedCfg = cfg
	return c
}

// WithUserAgent overrides the User-Agent header
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	return c.do(req)
}

// GetJSON performs a GET request and decodes a 2xx JSON body into dest
func (c *Client) GetJSON(ctx context.Context, url string, dest interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	log := c.logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	attempts := 1
	if c.retryConfig.Enabled {
		attempts += c.retryConfig.MaxRetries
	}

	start := time.Now()
	delay := c.retryConfig.InitialDelay
	for attempt := 1; ; attempt++ {
		if err := c.wait(req.Context()); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		retryable := err != nil || IsRetryableError(resp.StatusCode)
		if !retryable || attempt == attempts {
			if err != nil {
				log.WithError(err).WithField("duration", time.Since(start)).Error("HTTP request failed")
				return nil, err
			}
			log.WithFields(map[string]interface{}{
				"status_code": resp.StatusCode,
				"attempts":    attempt,
				"duration":    time.Since(start),
			}).Debug("HTTP request completed")
			return resp, nil
		}

		wait := delay
		if resp != nil {
			wait = retryAfter(resp, delay, c.retryConfig.MaxDelay)
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		log.WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   wait,
		}).Warn("Retrying HTTP request")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}

		delay *= 2
		if delay > c.retryConfig.MaxDelay {
			delay = c.retryConfig.MaxDelay
		}
	}
}

// wait blocks on the local limiter first, then on the shared one
func (c *Client) wait(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait failed: %w", err)
		}
	}
	if c.shared != nil {
		if err := c.shared.Wait(ctx, c.sharedCfg); err != nil {
			return fmt.Errorf("rate limit wait failed: %w", err)
		}
	}
	return nil
}

// retryAfter honours a Retry-After header in seconds, capped at ceiling
func retryAfter(resp *http.Response, fallback, ceiling time.Duration) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return fallback
	}
	if d := time.Duration(secs) * time.Second; d < ceiling {
		return d
	}
	return ceiling
}

// IsRetryableError checks if a status code should be retried
func IsRetryableError(statusCode int) bool {
	// 5xx and 429 Too Many Requests
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
