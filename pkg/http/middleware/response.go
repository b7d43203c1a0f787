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
	"github.com/cyborghq/cyborg/pkg/http"
	"github.com/gofiber/fiber/v2"
)

// Keys handlers use to hand data to the response middleware.
const (
	DETAIL     = "detail"
	OPERATION  = "operation"
	MESSAGE    = "message"
	REQUEST_ID = "requestId"
	USER_ID    = "userId"
	USER_TYPE  = "userType"
)

// ResponseMiddleware wraps the value a handler stored under DETAIL into the
// API envelope, keeping the status code the handler chose. Handlers that
// write their own body are left alone.
func ResponseMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if len(c.Response().Body()) > 0 {
			return nil
		}

		detail := c.Locals(DETAIL)
		operation := c.Locals(OPERATION)
		if detail == nil && operation == nil {
			return nil
		}

		status := c.Response().StatusCode()
		if status == 0 {
			status = fiber.StatusOK
		}
		msg, _ := c.Locals(MESSAGE).(string)
		if detail == nil {
			detail = fiber.Map{"id": operation}
		}
		return http.WithRepJSON(c, status, msg, detail)
	}
}
