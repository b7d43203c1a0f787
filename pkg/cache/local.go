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
	"encoding/binary"
	"time"

	"github.com/VictoriaMetrics/fastcache"
)

// DefaultLocalSize is the byte budget of the in-process cache.
const DefaultLocalSize = 32 << 20

// Local is an in-process byte cache with per-entry expiry. Entries larger
// than 64KB are not stored.
type Local struct {
	c   *fastcache.Cache
	now func() time.Time
}

func NewLocal(maxBytes int) *Local {
	return &Local{c: fastcache.New(maxBytes), now: time.Now}
}

// ProvideLocal builds the process-wide local cache.
func ProvideLocal() (*Local, func()) {
	l := NewLocal(DefaultLocalSize)
	return l, l.c.Reset
}

// Get returns the value of key if present and not expired.
func (l *Local) Get(key string) ([]byte, bool) {
	raw, ok := l.c.HasGet(nil, []byte(key))
	if !ok || len(raw) < 8 {
		return nil, false
	}
	expireAt := int64(binary.BigEndian.Uint64(raw[:8]))
	if l.now().UnixNano() >= expireAt {
		l.c.Del([]byte(key))
		return nil, false
	}
	return raw[8:], true
}

func (l *Local) Set(key string, value []byte, ttl time.Duration) {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(l.now().Add(ttl).UnixNano()))
	copy(buf[8:], value)
	l.c.Set([]byte(key), buf)
}

func (l *Local) Del(key string) {
	l.c.Del([]byte(key))
}
