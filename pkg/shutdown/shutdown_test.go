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

import "testing"

func TestManagerShutdownIdempotent(t *testing.T) {
	m := NewManager()
	if m.IsShuttingDown() {
		t.Fatalf("new manager should not be stopping")
	}
	m.Shutdown()
	m.Shutdown()
	select {
	case <-m.Wait():
	default:
		t.Fatalf("wait channel should be closed")
	}
	if !m.IsShuttingDown() {
		t.Fatalf("expected stopping")
	}
}
