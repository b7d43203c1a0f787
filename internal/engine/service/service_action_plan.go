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

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/internal/engine/repo"
	"github.com/cyborghq/cyborg/internal/pkg/document"
	"github.com/cyborghq/cyborg/internal/pkg/queue"
	"github.com/cyborghq/cyborg/pkg/database"
	"github.com/cyborghq/cyborg/pkg/id"
	"github.com/cyborghq/cyborg/pkg/log"
	"golang.org/x/sync/singleflight"
)

// TaskTypePlanGenerate runs one generation attempt for a pending plan.
const TaskTypePlanGenerate = "plan.generate"

// PlanTaskPayload is the payload of a plan.generate task.
type PlanTaskPayload struct {
	PlanId string `json:"planId"`
}

// CreateResult is returned by CreateOrResume. Created is false when an
// existing pending or ready plan was returned.
type CreateResult struct {
	Plan    *model.ActionPlan
	Created bool
}

// RetryResult is returned by Retry. Requeued is false when the plan was
// already pending.
type RetryResult struct {
	Plan     *model.ActionPlan
	Requeued bool
}

// ActionPlanService serves the action plan API: create, read, retry and
// export. Generation itself runs in PlanGenerator on queue workers.
type ActionPlanService struct {
	planRepo   repo.IActionPlanRepository
	reportRepo repo.IBloodReportRepository
	queue      queue.Queue
	group      singleflight.Group
	now        func() time.Time
}

func NewActionPlanService(repos *repo.Repositories, q queue.Queue) *ActionPlanService {
	return &ActionPlanService{
		planRepo:   repos.ActionPlan,
		reportRepo: repos.BloodReport,
		queue:      q,
		now:        time.Now,
	}
}

// CreateOrResume returns the in-flight or ready plan of a report, or creates
// a new pending plan and enqueues its generation. Concurrent calls for the
// same report in this process share one execution.
func (s *ActionPlanService) CreateOrResume(ctx context.Context, userId, reportId string) (*CreateResult, error) {
	reportId = strings.TrimSpace(reportId)
	if reportId == "" {
		return nil, &ValidationError{Msg: "reportId is required"}
	}

	report, err := s.reportRepo.Get(ctx, reportId)
	if err != nil {
		log.Errorw("failed to get blood report", "reportId", reportId, "error", err)
		return nil, fmt.Errorf("get blood report: %w", err)
	}
	if report == nil || report.UserId != userId {
		return nil, &NotFoundError{Resource: "Blood report"}
	}

	v, err, _ := s.group.Do(reportId, func() (any, error) {
		return s.createOrResume(ctx, report)
	})
	if err != nil {
		return nil, err
	}
	return v.(*CreateResult), nil
}

func (s *ActionPlanService) createOrResume(ctx context.Context, report *model.BloodReport) (*CreateResult, error) {
	latest, err := s.planRepo.GetLatestByReport(ctx, report.ReportId)
	if err != nil {
		log.Errorw("failed to get latest action plan", "reportId", report.ReportId, "error", err)
		return nil, fmt.Errorf("get latest action plan: %w", err)
	}
	if latest != nil && (latest.Status == model.PlanStatusPending || latest.Status == model.PlanStatusReady) {
		return &CreateResult{Plan: latest}, nil
	}

	plan := &model.ActionPlan{
		PlanId:   id.GetUild(),
		UserId:   report.UserId,
		ReportId: report.ReportId,
		Status:   model.PlanStatusPending,
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		if !database.IsDuplicateKey(err) {
			log.Errorw("failed to create action plan", "reportId", report.ReportId, "error", err)
			return nil, fmt.Errorf("create action plan: %w", err)
		}
		// another instance created the pending plan first
		existing, gerr := s.planRepo.GetPendingByReport(ctx, report.ReportId)
		if gerr != nil {
			return nil, fmt.Errorf("get pending action plan: %w", gerr)
		}
		if existing == nil {
			return nil, &ConflictError{Msg: "Action plan generation already in progress"}
		}
		return &CreateResult{Plan: existing}, nil
	}

	if err := s.reportRepo.SetActionPlan(ctx, report.ReportId, plan.PlanId); err != nil {
		log.Warnw("failed to link action plan to report", "reportId", report.ReportId, "planId", plan.PlanId, "error", err)
	}
	s.enqueue(ctx, plan.PlanId)
	log.Infow("action plan generation started", "planId", plan.PlanId, "reportId", report.ReportId)
	return &CreateResult{Plan: plan, Created: true}, nil
}

// Get returns the plan if it exists and belongs to userId.
func (s *ActionPlanService) Get(ctx context.Context, planId, userId string) (*model.ActionPlan, error) {
	plan, err := s.planRepo.Get(ctx, planId)
	if err != nil {
		log.Errorw("failed to get action plan", "planId", planId, "error", err)
		return nil, fmt.Errorf("get action plan: %w", err)
	}
	if plan == nil || plan.UserId != userId {
		return nil, &NotFoundError{Resource: "Action plan"}
	}
	return plan, nil
}

// Retry resets a ready or failed plan to pending and enqueues a new attempt.
func (s *ActionPlanService) Retry(ctx context.Context, planId, userId string) (*RetryResult, error) {
	plan, err := s.Get(ctx, planId, userId)
	if err != nil {
		return nil, err
	}
	if plan.IsPending() {
		return &RetryResult{Plan: plan}, nil
	}

	if err := s.planRepo.ResetForRetry(ctx, plan); err != nil {
		switch {
		case database.IsDuplicateKey(err):
			return nil, &ConflictError{Msg: "Another action plan is already being generated for this report"}
		case errors.Is(err, repo.ErrVersionConflict), errors.Is(err, repo.ErrInvalidTransition):
			// someone else moved the plan; report where it is now
			current, gerr := s.Get(ctx, planId, userId)
			if gerr != nil {
				return nil, gerr
			}
			return &RetryResult{Plan: current}, nil
		default:
			log.Errorw("failed to reset action plan", "planId", planId, "error", err)
			return nil, fmt.Errorf("reset action plan: %w", err)
		}
	}

	if err := s.reportRepo.SetActionPlan(ctx, plan.ReportId, plan.PlanId); err != nil {
		log.Warnw("failed to link action plan to report", "reportId", plan.ReportId, "planId", plan.PlanId, "error", err)
	}
	s.enqueue(ctx, plan.PlanId)
	log.Infow("action plan retry started", "planId", plan.PlanId, "retryCount", plan.RetryCount)
	return &RetryResult{Plan: plan, Requeued: true}, nil
}

// ExportDocument renders a ready plan as PDF. It returns the file bytes and
// a download file name.
func (s *ActionPlanService) ExportDocument(ctx context.Context, planId, userId string) ([]byte, string, error) {
	plan, err := s.Get(ctx, planId, userId)
	if err != nil {
		return nil, "", err
	}
	if !plan.IsReady() {
		return nil, "", &NotReadyError{PlanId: plan.PlanId, Status: string(plan.Status)}
	}

	meta := document.Meta{PlanId: plan.PlanId, ReadyAt: plan.ReadyAt, Generated: s.now()}
	if report, err := s.reportRepo.Get(ctx, plan.ReportId); err == nil && report != nil {
		meta.FileName = report.FileName
	}
	out, err := document.RenderPlan(meta, plan.PlanJson)
	if err != nil {
		log.Errorw("failed to render action plan", "planId", plan.PlanId, "error", err)
		return nil, "", fmt.Errorf("render action plan: %w", err)
	}
	return out, fmt.Sprintf("action-plan-%s.pdf", plan.PlanId), nil
}

// enqueue schedules generation. A failed enqueue leaves the plan pending for
// the stale plan sweeper.
func (s *ActionPlanService) enqueue(ctx context.Context, planId string) {
	if err := EnqueueGeneration(ctx, s.queue, planId); err != nil {
		log.Errorw("failed to enqueue action plan generation", "planId", planId, "error", err)
	}
}

// EnqueueGeneration submits a plan.generate task for planId.
func EnqueueGeneration(ctx context.Context, q queue.Queue, planId string) error {
	task, err := queue.NewTask(TaskTypePlanGenerate, PlanTaskPayload{PlanId: planId})
	if err != nil {
		return err
	}
	return q.Enqueue(ctx, task)
}
