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
	"github.com/cyborghq/cyborg/internal/engine/service"
	"github.com/cyborghq/cyborg/pkg/http"
	"github.com/cyborghq/cyborg/pkg/http/middleware"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) reportRouter(r fiber.Router, auth, userOnly fiber.Handler) {
	reports := r.Group("/reports", auth, userOnly)
	{
		reports.Post("/", rt.uploadReport)
		reports.Get("/", rt.listReports)
		reports.Post("/:reportId/action-plan", rt.createReportActionPlan)
	}
}

func (rt *Router) uploadReport(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "No file provided", c.Path())
	}
	contentType := fh.Header.Get(fiber.HeaderContentType)
	if err := service.ValidateReportFile(fh.Filename, contentType, fh.Size); err != nil {
		return writeServiceError(c, err)
	}

	f, err := fh.Open()
	if err != nil {
		log.Errorw("failed to open uploaded file", "fileName", fh.Filename, "error", err)
		return http.WithRepErrMsg(c, http.BadRequest.Code, "No file provided", c.Path())
	}
	defer f.Close()

	report, err := rt.Services.Report.Upload(c.UserContext(), middleware.CurrentUserId(c), service.ReportUpload{
		FileName:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return reply(c, http.Created.Code, "Blood report uploaded successfully", fiber.Map{
		"reportId":   report.ReportId,
		"fileName":   report.FileName,
		"uploadedAt": report.UploadedAt,
	})
}

func (rt *Router) listReports(c *fiber.Ctx) error {
	page := rt.Http.QueryInt(c, "page")
	pageSize := rt.Http.QueryInt(c, "pageSize")
	reports, total, err := rt.Services.Report.List(c.UserContext(), middleware.CurrentUserId(c), page, pageSize)
	if err != nil {
		return writeServiceError(c, err)
	}
	c.Locals(middleware.DETAIL, fiber.Map{
		"list":  reports,
		"total": total,
	})
	return nil
}

func (rt *Router) createReportActionPlan(c *fiber.Ctx) error {
	return rt.startActionPlan(c, c.Params("reportId"))
}
