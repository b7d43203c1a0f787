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

package middleware

import (
	"github.com/cyborghq/cyborg/pkg/id"
	"github.com/gofiber/fiber/v2"
)

const headerRequestId = "X-Request-Id"

// RequestIdMiddleware propagates or assigns a request id.
func RequestIdMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(headerRequestId)
		if rid == "" {
			rid = id.GetUUID()
		}
		c.Locals(REQUEST_ID, rid)
		c.Set(headerRequestId, rid)
		return c.Next()
	}
}
