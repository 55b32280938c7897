/*
Package redis caches computed holiday pay results in Redis.

PURPOSE:
  A computation is a pure function of its request and the rule table it ran
  against, so a result can be reused whenever both are unchanged. The cache
  key is the digest of (table digest, canonical request); publishing a new
  rule set changes the table digest and every older entry simply stops being
  addressed. Entries expire after TTL.

FAILURE MODEL:
  The cache is best-effort. Get reports a miss as (nil, false, nil) and a
  Redis failure as an error; callers compute anyway and log the error.

SEE ALSO:
  - api/handlers.go: read-through use in the compute endpoint
  - generic/canonical.go: Digest
*/
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
)

const (
	DefaultPrefix = "statpay:holidaypay:"
	DefaultTTL    = 24 * time.Hour
)

// Cache stores HolidayPayResult JSON under request digests.
type Cache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// Options configure a Cache. Zero values take the defaults.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// New connects a client for opts.Addr.
func New(opts Options) *Cache {
	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   1,
	})
	return NewWithClient(client, opts)
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, opts Options) *Cache {
	c := &Cache{client: client, prefix: opts.Prefix, ttl: opts.TTL}
	if c.prefix == "" {
		c.prefix = DefaultPrefix
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	return c
}

func (c *Cache) Close() error { return c.client.Close() }

// Ping checks the connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Key is the cache key of req computed against the table with tableDigest.
func (c *Cache) Key(tableDigest string, req holidaypay.ComputeRequest) (string, error) {
	digest, err := generic.Digest(struct {
		Table   string                    `json:"table"`
		Request holidaypay.ComputeRequest `json:"request"`
	}{tableDigest, req})
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	return c.prefix + digest, nil
}

// Get returns the cached result under key. A miss is (nil, false, nil).
func (c *Cache) Get(ctx context.Context, key string) (*holidaypay.HolidayPayResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var res holidaypay.HolidayPayResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	// An entry that no longer matches its own fingerprint is treated as absent.
	ok, err := holidaypay.VerifyFingerprint(res)
	if err != nil || !ok {
		return nil, false, nil
	}
	return &res, true, nil
}

// Set stores res under key for the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, res *holidaypay.HolidayPayResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
