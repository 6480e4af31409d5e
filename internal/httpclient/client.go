// Package httpclient implements the resilient outbound HTTP client: a
// token-bucket rate limiter, a circuit breaker, jittered retries, and a TTL
// response cache, composed in front of any JSON REST endpoint.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

// Options configures one named Client.
type Options struct {
	Name               string
	BaseURL            string
	MaxTokens          float64
	RefillPerSec       float64
	BreakerThreshold   uint32
	BreakerResetTime   time.Duration
	RetryMaxElapsed    time.Duration
	DefaultCacheTTL    time.Duration
	Timeout            time.Duration
}

// GetOptions configures a single call through Client.Get.
type GetOptions[T any] struct {
	Cache     bool
	CacheKey  string
	CacheTTL  time.Duration
	Validator Validator
	Transform func(payload any) (T, error)
}

// Client is one named resilient HTTP client instance.
type Client struct {
	name            string
	baseURL         string
	http            *http.Client
	bucket          *tokenBucket
	breaker         atomic.Pointer[gobreaker.CircuitBreaker[any]]
	breakerSettings gobreaker.Settings
	retryMaxElapsed time.Duration
	cache           *gocache.Cache
	log             zerolog.Logger

	requests, successes, failures, retries, cacheHits, circuitOpens int64
}

// New builds a Client per Options, wiring the rate limiter, breaker, and
// cache that every call to Get passes through.
func New(opts Options, logger zerolog.Logger) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.BreakerThreshold == 0 {
		opts.BreakerThreshold = 5
	}
	if opts.BreakerResetTime == 0 {
		opts.BreakerResetTime = 30 * time.Second
	}
	if opts.RetryMaxElapsed == 0 {
		opts.RetryMaxElapsed = 10 * time.Second
	}
	if opts.DefaultCacheTTL == 0 {
		opts.DefaultCacheTTL = 60 * time.Second
	}

	breakerSettings := gobreaker.Settings{
		Name:    opts.Name,
		Timeout: opts.BreakerResetTime,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerThreshold
		},
	}

	c := &Client{
		name:            opts.Name,
		baseURL:         opts.BaseURL,
		http:            &http.Client{Timeout: opts.Timeout},
		bucket:          newTokenBucket(opts.MaxTokens, opts.RefillPerSec),
		breakerSettings: breakerSettings,
		retryMaxElapsed: opts.RetryMaxElapsed,
		cache:           gocache.New(opts.DefaultCacheTTL, opts.DefaultCacheTTL*2),
		log:             logger,
	}
	c.breaker.Store(gobreaker.NewCircuitBreaker[any](breakerSettings))
	return c
}

// Get issues a rate-limited, circuit-broken, retried, optionally-cached GET
// request against path (joined to the client's BaseURL) and decodes the
// response through opts.Transform.
func Get[T any](ctx context.Context, c *Client, path string, opts GetOptions[T]) (T, error) {
	var zero T

	cacheKey := opts.CacheKey
	if cacheKey == "" {
		cacheKey = path
	}

	if opts.Cache {
		if cached, found := c.cache.Get(cacheKey); found {
			atomic.AddInt64(&c.cacheHits, 1)
			typed, ok := cached.(T)
			if ok {
				return typed, nil
			}
		}
	}

	result, err := c.breaker.Load().Execute(func() (any, error) {
		return c.doWithRetry(ctx, path, opts.Validator)
	})
	if err != nil {
		atomic.AddInt64(&c.failures, 1)
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			atomic.AddInt64(&c.circuitOpens, 1)
			return zero, poolsentinel.Classify(poolsentinel.KindCircuitOpen, fmt.Errorf("%s: circuit open", c.name))
		}
		return zero, err
	}
	atomic.AddInt64(&c.successes, 1)

	transform := opts.Transform
	if transform == nil {
		transform = func(payload any) (T, error) {
			typed, ok := payload.(T)
			if !ok {
				return zero, fmt.Errorf("%s: response did not match expected type", c.name)
			}
			return typed, nil
		}
	}

	typed, err := transform(result)
	if err != nil {
		return zero, fmt.Errorf("%s: transform failed: %w", c.name, err)
	}

	if opts.Cache {
		ttl := opts.CacheTTL
		if ttl == 0 {
			ttl = gocache.DefaultExpiration
		}
		c.cache.Set(cacheKey, typed, ttl)
	}
	return typed, nil
}

func (c *Client) doWithRetry(ctx context.Context, path string, validator Validator) (any, error) {
	var payload any

	op := func() error {
		atomic.AddInt64(&c.requests, 1)

		for {
			ok, wait := c.bucket.tryTake()
			if ok {
				break
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%s: build request: %w", c.name, err))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return poolsentinel.Classify(poolsentinel.KindTransient, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return poolsentinel.Classify(poolsentinel.KindTransient, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			atomic.AddInt64(&c.retries, 1)
			return poolsentinel.Classify(poolsentinel.KindRateLimited, fmt.Errorf("%s: rate limited (429)", c.name))
		}
		if resp.StatusCode >= 500 {
			return poolsentinel.Classify(poolsentinel.KindTransient, fmt.Errorf("%s: server error %d", c.name, resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("%s: client error %d", c.name, resp.StatusCode))
		}

		if err := json.Unmarshal(body, &payload); err != nil {
			return backoff.Permanent(fmt.Errorf("%s: decode response: %w", c.name, err))
		}
		if validator != nil && !validator(payload) {
			return backoff.Permanent(fmt.Errorf("%s: response failed validation", c.name))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.RandomizationFactor = 0.2
	bo.MaxElapsedTime = c.retryMaxElapsed

	notify := func(err error, wait time.Duration) {
		atomic.AddInt64(&c.retries, 1)
		c.log.Debug().Err(err).Dur("wait", wait).Str("path", path).Msg("retrying request")
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, err
	}
	return payload, nil
}

// ClearCache empties the response cache.
func (c *Client) ClearCache() {
	c.cache.Flush()
}

// IsHealthy reports whether the circuit breaker is closed.
func (c *Client) IsHealthy() bool {
	return c.breaker.Load().State() == gobreaker.StateClosed
}

// ResetCircuit forces the circuit breaker back to a fresh closed state,
// discarding any tripped/half-open state and its failure counts.
func (c *Client) ResetCircuit() {
	c.breaker.Store(gobreaker.NewCircuitBreaker[any](c.breakerSettings))
}

// Stats returns a snapshot of this client's lifetime counters.
func (c *Client) Stats() poolsentinel.ClientStats {
	return poolsentinel.ClientStats{
		Name:         c.name,
		Requests:     atomic.LoadInt64(&c.requests),
		Successes:    atomic.LoadInt64(&c.successes),
		Failures:     atomic.LoadInt64(&c.failures),
		Retries:      atomic.LoadInt64(&c.retries),
		CacheHits:    atomic.LoadInt64(&c.cacheHits),
		CircuitOpens: atomic.LoadInt64(&c.circuitOpens),
	}
}

// TokensRemaining exposes the current bucket level, mainly for tests.
func (c *Client) TokensRemaining() float64 {
	return c.bucket.remaining()
}
