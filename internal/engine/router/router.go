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
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cyborghq/cyborg/internal/engine/service"
	"github.com/cyborghq/cyborg/pkg/http"
	"github.com/cyborghq/cyborg/pkg/http/middleware"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/wire"
)

// ProviderSet provides the HTTP router.
var ProviderSet = wire.NewSet(NewRouter)

// userTypeUser is the token user type allowed on the patient API.
const userTypeUser = "user"

type Router struct {
	Http        *http.Http
	Services    *service.Services
	ShutdownMgr *shutdown.Manager
}

func NewRouter(httpConf *http.Http, services *service.Services, shutdownMgr *shutdown.Manager) *Router {
	httpConf.SetDefaults()
	return &Router{
		Http:        httpConf,
		Services:    services,
		ShutdownMgr: shutdownMgr,
	}
}

// Router builds the fiber app with every route mounted.
func (rt *Router) Router() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "cyborg",
		DisableStartupMessage: true,
		BodyLimit:             rt.Http.BodyLimit,
		ReadTimeout:           time.Duration(rt.Http.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(rt.Http.WriteTimeout) * time.Second,
		IdleTimeout:           time.Duration(rt.Http.IdleTimeout) * time.Second,
		ErrorHandler:          http.ErrorHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	app.Use(
		recover.New(),
		middleware.RequestIdMiddleware(),
		middleware.CorsMiddleware(rt.Http.AllowOrigins),
		middleware.HttpMetricsMiddleware(),
	)
	if rt.Http.AccessLog {
		app.Use(middleware.AccessLogMiddleware(false))
	}
	app.Use(middleware.ResponseMiddleware())

	app.Get("/health", rt.health)

	api := app.Group(rt.Http.Prefix)
	auth := middleware.AuthorizationMiddleware(rt.Http.Auth)
	userOnly := middleware.RequireUserType(userTypeUser)

	rt.actionPlanRouter(api, auth, userOnly)
	rt.reportRouter(api, auth, userOnly)
	rt.notificationRouter(api, auth)

	return app
}

func (rt *Router) health(c *fiber.Ctx) error {
	if rt.ShutdownMgr != nil && rt.ShutdownMgr.IsShuttingDown() {
		return http.WithRepErrMsg(c, http.ServiceUnavailable.Code, "shutting down", c.Path())
	}
	c.Locals(middleware.MESSAGE, "Server is running")
	c.Locals(middleware.DETAIL, fiber.Map{"status": "ok"})
	return nil
}

// writeServiceError maps a service error onto the response envelope.
func writeServiceError(c *fiber.Ctx, err error) error {
	var (
		notFound   *service.NotFoundError
		notReady   *service.NotReadyError
		conflict   *service.ConflictError
		validation *service.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return http.WithRepErrMsg(c, http.NotFound.Code, notFound.Error(), c.Path())
	case errors.As(err, &notReady):
		return http.WithRepErrMsg(c, http.BadRequest.Code, notReady.Error(), c.Path())
	case errors.As(err, &conflict):
		return http.WithRepErrMsg(c, http.Conflict.Code, conflict.Error(), c.Path())
	case errors.As(err, &validation):
		return http.WithRepErrMsg(c, http.BadRequest.Code, validation.Error(), c.Path())
	default:
		log.Errorw("request failed", "path", c.Path(), "method", c.Method(), "error", err)
		return http.WithRepErrMsg(c, http.Failed.Code, http.Failed.Msg, c.Path())
	}
}

// reply stores data and message for the response middleware.
func reply(c *fiber.Ctx, status int, msg string, data any) error {
	c.Status(status)
	c.Locals(middleware.MESSAGE, msg)
	c.Locals(middleware.DETAIL, data)
	return nil
}
