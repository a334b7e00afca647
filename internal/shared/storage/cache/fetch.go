// Package cache provides a read-through TTL cache that retries rate-limited
// loads with exponential backoff.
package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultTTL        = 5 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Options tunes cache and retry behavior. The clock and sleep hooks are
// injectable for tests.
type Options struct {
	TTL        time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Now        func() time.Time
	Sleep      func(ctx context.Context, d time.Duration) error
}

type entry[T any] struct {
	value   T
	expires time.Time
}

// Cache caches successful loads per key and collapses concurrent loads of the
// same key into a single call.
type Cache[T any] struct {
	opts    Options
	mu      sync.Mutex
	entries map[string]entry[T]
	group   singleflight.Group
}

// New constructs a Cache with the given options.
func New[T any](opts Options) *Cache[T] {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Cache[T]{
		opts:    opts,
		entries: make(map[string]entry[T]),
	}
}

// Fetch returns the cached value for key if fresh, otherwise invokes fn.
// Rate-limited loads are retried up to MaxRetries with exponential backoff;
// other errors return immediately. Successful loads are cached for TTL.
func (c *Cache[T]) Fetch(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if cached, ok := c.entries[key]; ok && c.opts.Now().Before(cached.expires) {
		c.mu.Unlock()
		return cached.value, nil
	}
	c.mu.Unlock()

	result, err, _ := c.group.Do(key, func() (any, error) {
		return c.load(ctx, key, fn)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (c *Cache[T]) load(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			c.mu.Lock()
			c.entries[key] = entry[T]{value: value, expires: c.opts.Now().Add(c.opts.TTL)}
			c.mu.Unlock()
			return value, nil
		}
		if !RateLimited(err) {
			var zero T
			return zero, err
		}
		lastErr = err
		delay := c.opts.RetryDelay * (1 << attempt)
		if sleepErr := c.opts.Sleep(ctx, delay); sleepErr != nil {
			var zero T
			return zero, sleepErr
		}
	}
	var zero T
	return zero, lastErr
}

// Invalidate drops the cached value for key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops all cached values.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

// RateLimited reports whether err signals provider throttling. Structured
// signals are preferred; message inspection is the fallback.
func RateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rl interface{ RateLimited() bool }
	if errors.As(err, &rl) {
		return rl.RateLimited()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
