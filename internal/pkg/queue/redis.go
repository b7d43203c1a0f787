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

package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cyborghq/cyborg/pkg/cache"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/safe"
	"github.com/redis/go-redis/v9"
)

// RedisQueue is a reliable list queue. A worker atomically moves a task from
// the pending list to the processing list and removes it there once handled,
// so tasks held by a crashed process are found again on the next Start.
// Delivery is at-least-once.
type RedisQueue struct {
	conf    Conf
	client  cache.ICache
	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRedisQueue(conf Conf, client cache.ICache) *RedisQueue {
	conf.SetDefaults()
	return &RedisQueue{conf: conf, client: client}
}

func (q *RedisQueue) pendingKey() string    { return q.conf.KeyPrefix + ":pending" }
func (q *RedisQueue) processingKey() string { return q.conf.KeyPrefix + ":processing" }
func (q *RedisQueue) delayedKey() string    { return q.conf.KeyPrefix + ":delayed" }

func (q *RedisQueue) Enqueue(ctx context.Context, task *Task, opts ...EnqueueOption) error {
	q.mu.Lock()
	stopped := q.stopped
	q.mu.Unlock()
	if stopped {
		return ErrQueueStopped
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}
	raw, err := sonic.Marshal(task)
	if err != nil {
		return err
	}

	cfg := buildEnqueueConfig(opts)
	if cfg.delay > 0 {
		due := time.Now().Add(cfg.delay).UnixMilli()
		return q.client.ZAdd(ctx, q.delayedKey(), redis.Z{Score: float64(due), Member: raw}).Err()
	}
	return q.client.LPush(ctx, q.pendingKey(), raw).Err()
}

func (q *RedisQueue) Start(handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())

	recovered, err := q.recover(ctx)
	if err != nil {
		cancel()
		return err
	}
	if recovered > 0 {
		log.Infow("recovered unacknowledged tasks", "count", recovered)
	}

	q.cancel = cancel
	q.started = true

	q.wg.Add(1)
	safe.Go(func() {
		defer q.wg.Done()
		q.promote(ctx)
	})
	for i := 0; i < q.conf.Workers; i++ {
		q.wg.Add(1)
		safe.Go(func() {
			defer q.wg.Done()
			q.work(ctx, handler)
		})
	}
	log.Infow("redis task queue started", "workers", q.conf.Workers, "prefix", q.conf.KeyPrefix)
	return nil
}

// recover moves everything left in the processing list back to pending.
func (q *RedisQueue) recover(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.client.RPopLPush(ctx, q.processingKey(), q.pendingKey()).Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

func (q *RedisQueue) work(ctx context.Context, handler Handler) {
	for ctx.Err() == nil {
		raw, err := q.client.BRPopLPush(ctx, q.pendingKey(), q.processingKey(), q.conf.blockTimeout()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Warnw("failed to pop task", "error", err)
			sleep(ctx, q.conf.pollInterval())
			continue
		}
		q.handle(ctx, handler, raw)
	}
}

func (q *RedisQueue) handle(ctx context.Context, handler Handler, raw string) {
	// Handlers run to completion even when the queue is stopping; an
	// interrupted task stays in the processing list for the next Start.
	ack := func() {
		if err := q.client.LRem(context.Background(), q.processingKey(), 1, raw).Err(); err != nil {
			log.Errorw("failed to ack task", "error", err)
		}
	}

	var task Task
	if err := sonic.UnmarshalString(raw, &task); err != nil {
		log.Errorw("dropping undecodable task", "error", err)
		ack()
		return
	}

	err := process(context.WithoutCancel(ctx), handler, &task)
	if err != nil {
		if shouldRetry(q.conf, &task, err) {
			task.Attempt++
			log.Warnw("task failed, retrying", "taskId", task.Id, "type", task.Type, "attempt", task.Attempt, "error", err)
			if err := q.Enqueue(context.Background(), &task, WithDelay(q.conf.retryDelay())); err != nil {
				log.Errorw("failed to requeue task", "taskId", task.Id, "error", err)
				return
			}
		} else {
			log.Errorw("task failed", "taskId", task.Id, "type", task.Type, "attempt", task.Attempt, "error", err)
		}
	}
	ack()
}

// promote moves due delayed tasks to the pending list.
func (q *RedisQueue) promote(ctx context.Context) {
	ticker := time.NewTicker(q.conf.pollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.promoteDue(ctx); err != nil && ctx.Err() == nil {
				log.Warnw("failed to promote delayed tasks", "error", err)
			}
		}
	}
}

func (q *RedisQueue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := q.client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{Min: "-inf", Max: now, Count: 100}).Result()
	if err != nil {
		return err
	}
	for _, raw := range due {
		removed, err := q.client.ZRem(ctx, q.delayedKey(), raw).Result()
		if err != nil {
			return err
		}
		// Another instance promoted it first.
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.pendingKey(), raw).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.started {
		q.stopped = true
		q.mu.Unlock()
		return ErrNotStarted
	}
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
