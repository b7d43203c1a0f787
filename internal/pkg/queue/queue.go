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
	"fmt"
	"strings"
	"time"

	"github.com/cyborghq/cyborg/pkg/cache"
	"github.com/cyborghq/cyborg/pkg/env"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/safe"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideQueue)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	ErrQueueStopped = errors.New("queue is stopped")
	ErrNotStarted   = errors.New("queue is not started")
)

// Conf is the [queue] section of the config file.
type Conf struct {
	Backend      string `mapstructure:"backend"`
	Workers      int    `mapstructure:"workers"`
	BufferSize   int    `mapstructure:"bufferSize"`
	KeyPrefix    string `mapstructure:"keyPrefix"`
	MaxRetry     int    `mapstructure:"maxRetry"`
	RetryDelay   int    `mapstructure:"retryDelay"`   // ms
	BlockTimeout int    `mapstructure:"blockTimeout"` // ms, redis only
	PollInterval int    `mapstructure:"pollInterval"` // ms, delayed task promotion
}

func (c *Conf) SetDefaults() {
	c.Workers = env.GetEnvInt("QUEUE_WORKERS", c.Workers)
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 1024
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "cyborg:queue"
	}
	if c.MaxRetry < 0 {
		c.MaxRetry = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5000
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = 1000
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500
	}
}

func (c Conf) retryDelay() time.Duration   { return time.Duration(c.RetryDelay) * time.Millisecond }
func (c Conf) blockTimeout() time.Duration { return time.Duration(c.BlockTimeout) * time.Millisecond }
func (c Conf) pollInterval() time.Duration { return time.Duration(c.PollInterval) * time.Millisecond }

// Queue dispatches tasks to a pool of worker goroutines.
type Queue interface {
	Enqueue(ctx context.Context, task *Task, opts ...EnqueueOption) error
	Start(handler Handler) error
	Stop(ctx context.Context) error
}

// EnqueueOption tunes a single enqueue.
type EnqueueOption interface {
	apply(*enqueueConfig)
}

type enqueueConfig struct {
	delay time.Duration
}

type enqueueOptionFunc func(*enqueueConfig)

func (f enqueueOptionFunc) apply(c *enqueueConfig) { f(c) }

// WithDelay postpones delivery of the task.
func WithDelay(d time.Duration) EnqueueOption {
	return enqueueOptionFunc(func(c *enqueueConfig) {
		c.delay = d
	})
}

func buildEnqueueConfig(opts []EnqueueOption) enqueueConfig {
	var cfg enqueueConfig
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&cfg)
		}
	}
	return cfg
}

// NewQueue builds the configured backend. The redis backend requires a client.
func NewQueue(conf Conf, client cache.ICache) (Queue, error) {
	conf.SetDefaults()
	switch conf.Backend {
	case BackendMemory:
		return NewMemoryQueue(conf), nil
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("queue backend %q requires a redis client", conf.Backend)
		}
		return NewRedisQueue(conf, client), nil
	default:
		return nil, fmt.Errorf("unsupported queue backend: %s", conf.Backend)
	}
}

func ProvideQueue(conf Conf, client cache.ICache) (Queue, func(), error) {
	q, err := NewQueue(conf, client)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := q.Stop(ctx); err != nil && !errors.Is(err, ErrNotStarted) {
			log.Warnw("failed to stop task queue", "error", err)
		}
	}
	return q, cleanup, nil
}

// process runs the handler for one task, turning panics into errors.
func process(ctx context.Context, h Handler, task *Task) error {
	return safe.Call(func() error {
		return h.ProcessTask(ctx, task)
	})
}

// shouldRetry reports whether a failed task gets another attempt.
func shouldRetry(conf Conf, task *Task, err error) bool {
	if errors.Is(err, ErrUnknownTaskType) {
		return false
	}
	return task.Attempt < conf.MaxRetry
}
