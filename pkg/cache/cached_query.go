// Copyright 2026 Cyborg Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL  = 5 * time.Minute
	maxLocalTTL = time.Minute
)

// KeyFunc builds a cache key from query parameters.
type KeyFunc func(params ...any) string

// QueryFunc loads the value from the source of truth.
type QueryFunc[T any] func(ctx context.Context) (T, error)

// Option configures a CachedQuery.
type Option[T any] func(*CachedQuery[T])

func WithTTL[T any](ttl time.Duration) Option[T] {
	return func(q *CachedQuery[T]) {
		q.ttl = ttl
	}
}

// WithLocal adds an in-process tier in front of Redis. Local entries live
// at most a minute so replicas converge after an invalidation.
func WithLocal[T any](local *Local) Option[T] {
	return func(q *CachedQuery[T]) {
		q.local = local
	}
}

func WithLogPrefix[T any](prefix string) Option[T] {
	return func(q *CachedQuery[T]) {
		q.logPrefix = prefix
	}
}

// CachedQuery is a read-through cache over a single query. Without a Redis
// client or a local tier every Get calls the query.
type CachedQuery[T any] struct {
	cache     ICache
	local     *Local
	keyFunc   KeyFunc
	queryFunc QueryFunc[T]
	ttl       time.Duration
	logPrefix string
}

func NewCachedQuery[T any](cache ICache, keyFunc KeyFunc, queryFunc QueryFunc[T], opts ...Option[T]) *CachedQuery[T] {
	q := &CachedQuery[T]{
		cache:     cache,
		keyFunc:   keyFunc,
		queryFunc: queryFunc,
		ttl:       defaultTTL,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Get returns the cached value for params, loading and storing it on a miss.
func (q *CachedQuery[T]) Get(ctx context.Context, params ...any) (T, error) {
	var zero T
	if q.queryFunc == nil {
		return zero, errors.New("cached query has no query function")
	}
	if q.cache == nil && q.local == nil {
		return q.queryFunc(ctx)
	}

	key := q.keyFunc(params...)
	if q.local != nil {
		if raw, ok := q.local.Get(key); ok {
			var v T
			if err := sonic.Unmarshal(raw, &v); err == nil {
				return v, nil
			}
			q.local.Del(key)
		}
	}
	if q.cache != nil {
		raw, err := q.cache.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var v T
			if uerr := sonic.Unmarshal(raw, &v); uerr == nil {
				q.setLocal(key, raw)
				return v, nil
			}
			log.Warnw(q.logPrefix+" cached value corrupted, reloading", "key", key)
		case !errors.Is(err, redis.Nil):
			log.Warnw(q.logPrefix+" cache read failed", "key", key, "error", err)
		}
	}

	v, err := q.queryFunc(ctx)
	if err != nil {
		return zero, err
	}
	b, err := sonic.Marshal(v)
	if err != nil {
		return v, nil
	}
	q.setLocal(key, b)
	if q.cache != nil {
		if serr := q.cache.Set(ctx, key, b, q.ttl).Err(); serr != nil {
			log.Warnw(q.logPrefix+" cache write failed", "key", key, "error", serr)
		}
	}
	return v, nil
}

func (q *CachedQuery[T]) setLocal(key string, raw []byte) {
	if q.local != nil {
		q.local.Set(key, raw, min(q.ttl, maxLocalTTL))
	}
}

// Invalidate removes the cached value for params.
func (q *CachedQuery[T]) Invalidate(ctx context.Context, params ...any) error {
	key := q.keyFunc(params...)
	if q.local != nil {
		q.local.Del(key)
	}
	if q.cache == nil {
		return nil
	}
	return q.cache.Del(ctx, key).Err()
}
