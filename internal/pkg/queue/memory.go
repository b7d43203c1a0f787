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
	"sync"
	"time"

	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/safe"
)

// MemoryQueue keeps tasks in a buffered channel. Tasks do not survive a restart.
type MemoryQueue struct {
	conf    Conf
	tasks   chan *Task
	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewMemoryQueue(conf Conf) *MemoryQueue {
	conf.SetDefaults()
	return &MemoryQueue{
		conf:  conf,
		tasks: make(chan *Task, conf.BufferSize),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task *Task, opts ...EnqueueOption) error {
	q.mu.Lock()
	stopped := q.stopped
	q.mu.Unlock()
	if stopped {
		return ErrQueueStopped
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	cfg := buildEnqueueConfig(opts)
	if cfg.delay > 0 {
		time.AfterFunc(cfg.delay, func() {
			if err := q.push(context.Background(), task); err != nil {
				log.Warnw("dropped delayed task", "taskId", task.Id, "type", task.Type, "error", err)
			}
		})
		return nil
	}
	return q.push(ctx, task)
}

func (q *MemoryQueue) push(ctx context.Context, task *Task) error {
	q.mu.Lock()
	stopped := q.stopped
	q.mu.Unlock()
	if stopped {
		return ErrQueueStopped
	}
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Start(handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.started = true

	for i := 0; i < q.conf.Workers; i++ {
		q.wg.Add(1)
		safe.Go(func() {
			defer q.wg.Done()
			q.work(ctx, handler)
		})
	}
	log.Infow("memory task queue started", "workers", q.conf.Workers)
	return nil
}

func (q *MemoryQueue) work(ctx context.Context, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			q.handle(ctx, handler, task)
		}
	}
}

func (q *MemoryQueue) handle(ctx context.Context, handler Handler, task *Task) {
	err := process(ctx, handler, task)
	if err == nil {
		return
	}
	if shouldRetry(q.conf, task, err) {
		task.Attempt++
		log.Warnw("task failed, retrying", "taskId", task.Id, "type", task.Type, "attempt", task.Attempt, "error", err)
		if err := q.Enqueue(context.Background(), task, WithDelay(q.conf.retryDelay())); err != nil {
			log.Errorw("failed to requeue task", "taskId", task.Id, "error", err)
		}
		return
	}
	log.Errorw("task failed", "taskId", task.Id, "type", task.Type, "attempt", task.Attempt, "error", err)
}

// Stop stops accepting tasks and waits for in-flight handlers or ctx.
func (q *MemoryQueue) Stop(ctx context.Context) error {
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
