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
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cyborghq/cyborg/pkg/id"
)

var ErrUnknownTaskType = errors.New("unknown task type")

// Task is one unit of background work.
type Task struct {
	Id         string    `json:"id"`
	Type       string    `json:"type"`
	Payload    []byte    `json:"payload"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// NewTask encodes payload with sonic and stamps a fresh id.
func NewTask(taskType string, payload any) (*Task, error) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	return &Task{
		Id:      id.GetUild(),
		Type:    taskType,
		Payload: raw,
	}, nil
}

// Decode unmarshals the task payload into v.
func (t *Task) Decode(v any) error {
	return sonic.Unmarshal(t.Payload, v)
}

// Handler processes tasks.
type Handler interface {
	ProcessTask(ctx context.Context, task *Task) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, task *Task) error

func (f HandlerFunc) ProcessTask(ctx context.Context, task *Task) error {
	return f(ctx, task)
}

// Mux routes tasks to handlers by type.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewMux() *Mux {
	return &Mux{handlers: make(map[string]Handler)}
}

func (m *Mux) Handle(taskType string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[taskType] = h
}

func (m *Mux) HandleFunc(taskType string, fn func(ctx context.Context, task *Task) error) {
	m.Handle(taskType, HandlerFunc(fn))
}

func (m *Mux) ProcessTask(ctx context.Context, task *Task) error {
	m.mu.RLock()
	h, ok := m.handlers[task.Type]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTaskType, task.Type)
	}
	return h.ProcessTask(ctx, task)
}
