// Package cache provides a Redis-backed cache for customer-by-phone
// lookups.  The lookup is made on every finalize to decide whether
// document tracking can be offered; caching it keeps the finalize dialog
// snappy for repeat customers.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akshayadesk/ticket-board/internal/model"
	"github.com/akshayadesk/ticket-board/internal/upstream"
)

// CustomerCache caches positive customer lookups keyed by phone number.
// A nil Redis client disables the cache entirely; callers degrade to
// direct lookups.
type CustomerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCustomerCache builds a cache with the given TTL.
func NewCustomerCache(rdb *redis.Client, ttl time.Duration) *CustomerCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CustomerCache{rdb: rdb, ttl: ttl}
}

func key(phone string) string { return "customer:phone:" + phone }

// Get returns a cached customer for the phone number, if present.
func (c *CustomerCache) Get(ctx context.Context, phone string) (*model.Customer, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key(phone)).Bytes()
	if err != nil {
		return nil, false
	}
	var cust model.Customer
	if err := json.Unmarshal(raw, &cust); err != nil {
		return nil, false
	}
	return &cust, true
}

// Set stores a customer under its phone number.  Failures are ignored;
// the cache is purely an optimization.
func (c *CustomerCache) Set(ctx context.Context, phone string, cust *model.Customer) {
	if c.rdb == nil || cust == nil {
		return
	}
	raw, err := json.Marshal(cust)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key(phone), raw, c.ttl).Err()
}

// Directory resolves customers through the cache, falling back to the
// upstream API.  Only positive hits are cached: a miss must stay fresh so
// a just-created customer record enables document tracking immediately.
type Directory struct {
	remote interface {
		ResolveCustomerByPhone(ctx context.Context, cred upstream.Credential, phone string) (*model.Customer, error)
	}
	cache  *CustomerCache
	logger *zap.Logger
}

// NewDirectory wraps the upstream client with the cache.
func NewDirectory(remote *upstream.Client, cache *CustomerCache, logger *zap.Logger) *Directory {
	return &Directory{remote: remote, cache: cache, logger: logger}
}

// ResolveCustomerByPhone implements the lifecycle.CustomerDirectory
// contract.
func (d *Directory) ResolveCustomerByPhone(ctx context.Context, cred upstream.Credential, phone string) (*model.Customer, error) {
	if cust, ok := d.cache.Get(ctx, phone); ok {
		return cust, nil
	}
	cust, err := d.remote.ResolveCustomerByPhone(ctx, cred, phone)
	if err != nil {
		return nil, err
	}
	if cust != nil {
		d.cache.Set(ctx, phone, cust)
	}
	return cust, nil
}
