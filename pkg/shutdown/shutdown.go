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

package shutdown

import (
	"sync"
	"sync/atomic"

	"github.com/google/wire"
)

// ProviderSet provides the shutdown manager.
var ProviderSet = wire.NewSet(NewManager)

// Manager coordinates a single process-wide shutdown request.
type Manager struct {
	once     sync.Once
	done     chan struct{}
	stopping atomic.Bool
}

func NewManager() *Manager {
	return &Manager{done: make(chan struct{})}
}

// Shutdown marks the process as stopping. Safe to call more than once.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.stopping.Store(true)
		close(m.done)
	})
}

// Wait returns a channel closed on Shutdown.
func (m *Manager) Wait() <-chan struct{} {
	return m.done
}

// IsShuttingDown reports whether Shutdown was called.
func (m *Manager) IsShuttingDown() bool {
	return m.stopping.Load()
}
