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

package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cyborghq/cyborg/pkg/id"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/safe"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// Event is a domain event delivered in-process.
type Event struct {
	Id      string         `json:"id"`
	Type    string         `json:"type"`
	Subject string         `json:"subject"`
	Time    time.Time      `json:"time"`
	Data    map[string]any `json:"data,omitempty"`
}

// New stamps an id and time on a new event.
func New(eventType, subject string, data map[string]any) Event {
	return Event{
		Id:      id.GetUild(),
		Type:    eventType,
		Subject: subject,
		Time:    time.Now().UTC(),
		Data:    data,
	}
}

type Handler interface {
	Handle(ctx context.Context, e Event) error
}

type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Bus fans events out to registered handlers synchronously.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

func (eb *Bus) RegisterHandler(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
}

// Publish calls every handler of e.Type and the wildcard handlers. A failing
// or panicking handler does not stop the others; their errors are joined.
func (eb *Bus) Publish(ctx context.Context, e Event) error {
	eb.mu.RLock()
	handlers := make([]Handler, 0, len(eb.handlers[e.Type])+len(eb.handlers[Wildcard]))
	handlers = append(handlers, eb.handlers[e.Type]...)
	handlers = append(handlers, eb.handlers[Wildcard]...)
	eb.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		err := safe.Call(func() error { return h.Handle(ctx, e) })
		if err != nil {
			log.Warnw("event handler failed", "eventType", e.Type, "eventId", e.Id, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.Type, err))
		}
	}
	return errors.Join(errs...)
}
