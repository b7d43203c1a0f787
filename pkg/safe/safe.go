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

package safe

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cyborghq/cyborg/pkg/log"
)

// Go runs fn on a new goroutine and logs any panic instead of crashing the process.
func Go(fn func()) {
	go func() {
		defer Recover("goroutine")
		fn()
	}()
}

// GoCtx is Go for functions that take a context.
func GoCtx(ctx context.Context, fn func(ctx context.Context)) {
	go func() {
		defer Recover("goroutine")
		fn(ctx)
	}()
}

// Recover logs a recovered panic. It must be called directly by defer.
func Recover(scope string) {
	if r := recover(); r != nil {
		log.Errorw("recovered from panic", "scope", scope, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
	}
}

// Call runs fn and converts a panic into an error.
func Call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.Errorw("recovered from panic", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	return fn()
}
