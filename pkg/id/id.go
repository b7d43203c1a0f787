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

package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// GetUild returns a lexicographically sortable ULID string.
func GetUild() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// GetUUID returns a random UUIDv4 string.
func GetUUID() string {
	return uuid.NewString()
}

// GetUUIDWithoutDashes returns a UUIDv4 without separators.
func GetUUIDWithoutDashes() string {
	u := uuid.New()
	dst := make([]byte, 32)
	const hex = "0123456789abcdef"
	for i, b := range u {
		dst[i*2] = hex[b>>4]
		dst[i*2+1] = hex[b&0x0f]
	}
	return string(dst)
}
