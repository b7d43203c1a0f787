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
	"strings"

	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/pkg/http"
	"github.com/cyborghq/cyborg/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) actionPlanRouter(r fiber.Router, auth, userOnly fiber.Handler) {
	plans := r.Group("/action-plans", auth, userOnly)
	{
		plans.Post("/", rt.createActionPlan)
		plans.Get("/:planId", rt.getActionPlan)
		plans.Post("/:planId/retry", rt.retryActionPlan)
		plans.Get("/:planId/pdf", rt.exportActionPlan)
	}
}

func (rt *Router) createActionPlan(c *fiber.Ctx) error {
	var req struct {
		ReportId string `json:"reportId"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
		}
	}
	return rt.startActionPlan(c, req.ReportId)
}

// startActionPlan serves both the plan collection and the per-report alias.
func (rt *Router) startActionPlan(c *fiber.Ctx, reportId string) error {
	res, err := rt.Services.ActionPlan.CreateOrResume(c.UserContext(), middleware.CurrentUserId(c), strings.TrimSpace(reportId))
	if err != nil {
		return writeServiceError(c, err)
	}

	plan := res.Plan
	switch {
	case res.Created:
		return reply(c, http.Accepted.Code, "Action plan generation started", planStatus(plan))
	case plan.Status == model.PlanStatusReady:
		return reply(c, http.Success.Code, "Action plan already generated", fiber.Map{
			"planId":   plan.PlanId,
			"status":   plan.Status,
			"planJson": plan.PlanJson,
			"readyAt":  plan.ReadyAt,
		})
	default:
		return reply(c, http.Accepted.Code, "Action plan generation already in progress", planStatus(plan))
	}
}

func (rt *Router) getActionPlan(c *fiber.Ctx) error {
	plan, err := rt.Services.ActionPlan.Get(c.UserContext(), c.Params("planId"), middleware.CurrentUserId(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	c.Locals(middleware.DETAIL, plan)
	return nil
}

func (rt *Router) retryActionPlan(c *fiber.Ctx) error {
	res, err := rt.Services.ActionPlan.Retry(c.UserContext(), c.Params("planId"), middleware.CurrentUserId(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	if !res.Requeued {
		return reply(c, http.Success.Code, "Already pending", planStatus(res.Plan))
	}
	return reply(c, http.Accepted.Code, "Retry started", planStatus(res.Plan))
}

func (rt *Router) exportActionPlan(c *fiber.Ctx) error {
	out, fileName, err := rt.Services.ActionPlan.ExportDocument(c.UserContext(), c.Params("planId"), middleware.CurrentUserId(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	c.Attachment(fileName)
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(out)
}

func planStatus(plan *model.ActionPlan) fiber.Map {
	return fiber.Map{"planId": plan.PlanId, "status": plan.Status}
}
