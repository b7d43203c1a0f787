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

package env

import (
	"testing"
	"time"
)

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CYBORG_TEST_INT", "42")
	if got := GetEnvInt("CYBORG_TEST_INT", 7); got != 42 {
		t.Fatalf("GetEnvInt valid value = %d, want 42", got)
	}

	t.Setenv("CYBORG_TEST_INT", "not-int")
	if got := GetEnvInt("CYBORG_TEST_INT", 7); got != 7 {
		t.Fatalf("GetEnvInt invalid value = %d, want 7", got)
	}

	t.Setenv("CYBORG_TEST_INT", "")
	if got := GetEnvInt("CYBORG_TEST_INT", 7); got != 7 {
		t.Fatalf("GetEnvInt empty value = %d, want 7", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("CYBORG_TEST_BOOL", "true")
	if got := GetEnvBool("CYBORG_TEST_BOOL", false); got != true {
		t.Fatalf("GetEnvBool true = %v, want true", got)
	}

	t.Setenv("CYBORG_TEST_BOOL", "FALSE")
	if got := GetEnvBool("CYBORG_TEST_BOOL", true); got != false {
		t.Fatalf("GetEnvBool false = %v, want false", got)
	}

	t.Setenv("CYBORG_TEST_BOOL", "not-bool")
	if got := GetEnvBool("CYBORG_TEST_BOOL", true); got != true {
		t.Fatalf("GetEnvBool invalid = %v, want true", got)
	}
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("CYBORG_TEST_STRING", "hello")
	if got := GetEnvString("CYBORG_TEST_STRING", "default"); got != "hello" {
		t.Fatalf("GetEnvString valid = %q, want %q", got, "hello")
	}

	t.Setenv("CYBORG_TEST_STRING", "")
	if got := GetEnvString("CYBORG_TEST_STRING", "default"); got != "default" {
		t.Fatalf("GetEnvString empty = %q, want %q", got, "default")
	}
}

func TestGetEnvMillis(t *testing.T) {
	t.Setenv("CYBORG_TEST_MILLIS", "2000")
	if got := GetEnvMillis("CYBORG_TEST_MILLIS", time.Second); got != 2*time.Second {
		t.Fatalf("GetEnvMillis ms = %v, want 2s", got)
	}

	t.Setenv("CYBORG_TEST_MILLIS", "750ms")
	if got := GetEnvMillis("CYBORG_TEST_MILLIS", time.Second); got != 750*time.Millisecond {
		t.Fatalf("GetEnvMillis duration = %v, want 750ms", got)
	}

	t.Setenv("CYBORG_TEST_MILLIS", "-5")
	if got := GetEnvMillis("CYBORG_TEST_MILLIS", time.Second); got != time.Second {
		t.Fatalf("GetEnvMillis negative = %v, want default", got)
	}

	t.Setenv("CYBORG_TEST_MILLIS", "junk")
	if got := GetEnvMillis("CYBORG_TEST_MILLIS", time.Second); got != time.Second {
		t.Fatalf("GetEnvMillis invalid = %v, want default", got)
	}
}
