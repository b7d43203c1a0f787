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

package router

import (
	"github.com/cyborghq/cyborg/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) notificationRouter(r fiber.Router, auth fiber.Handler) {
	notifications := r.Group("/notifications", auth)
	{
		notifications.Get("/", rt.listNotifications)
		notifications.Patch("/:notificationId/read", rt.markNotificationRead)
	}
}

func (rt *Router) listNotifications(c *fiber.Ctx) error {
	items, err := rt.Services.Notification.List(c.UserContext(), middleware.CurrentUserId(c), c.QueryBool("unread", false))
	if err != nil {
		return writeServiceError(c, err)
	}
	c.Locals(middleware.DETAIL, items)
	return nil
}

func (rt *Router) markNotificationRead(c *fiber.Ctx) error {
	if err := rt.Services.Notification.MarkRead(c.UserContext(), c.Params("notificationId"), middleware.CurrentUserId(c)); err != nil {
		return writeServiceError(c, err)
	}
	c.Locals(middleware.MESSAGE, "Notification marked as read")
	c.Locals(middleware.OPERATION, c.Params("notificationId"))
	return nil
}
