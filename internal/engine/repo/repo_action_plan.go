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

package repo

import (
	"context"
	"errors"
	"time"

	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/pkg/database"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when a conditional update matched no row:
// the plan changed status or version since it was read.
var ErrVersionConflict = errors.New("action plan was modified concurrently")

// ErrInvalidTransition is returned for a status change the state machine forbids.
var ErrInvalidTransition = errors.New("invalid action plan status transition")

// IActionPlanRepository persists action plans. Every state change is a
// conditional update on (planId, status, version) that bumps the version, and
// on success the passed plan is updated in place.
type IActionPlanRepository interface {
	Create(ctx context.Context, plan *model.ActionPlan) error
	Get(ctx context.Context, planId string) (*model.ActionPlan, error)
	GetLatestByReport(ctx context.Context, reportId string) (*model.ActionPlan, error)
	GetPendingByReport(ctx context.Context, reportId string) (*model.ActionPlan, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]*model.ActionPlan, error)

	ClaimJob(ctx context.Context, plan *model.ActionPlan) error
	ReleaseClaim(ctx context.Context, plan *model.ActionPlan) error
	MarkProcessing(ctx context.Context, plan *model.ActionPlan, externalJobId string) error
	MarkReady(ctx context.Context, plan *model.ActionPlan, result ReadyResult) error
	MarkFailed(ctx context.Context, plan *model.ActionPlan, message string) error
	ResetForRetry(ctx context.Context, plan *model.ActionPlan) error
}

// ReadyResult is the outcome written when a plan becomes ready.
type ReadyResult struct {
	PlanJson     datatypes.JSON
	JobStatus    model.JobStatus
	UsedFallback bool
	ErrorMessage string
}

type ActionPlanRepo struct {
	database.IDatabase
	now func() time.Time
}

func NewActionPlanRepo(db database.IDatabase) IActionPlanRepository {
	return &ActionPlanRepo{IDatabase: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *ActionPlanRepo) Create(ctx context.Context, plan *model.ActionPlan) error {
	if plan.Status == model.PlanStatusPending {
		reportId := plan.ReportId
		plan.PendingReportId = &reportId
	}
	return r.Database().WithContext(ctx).Table(plan.TableName()).Create(plan).Error
}

func (r *ActionPlanRepo) Get(ctx context.Context, planId string) (*model.ActionPlan, error) {
	var plan model.ActionPlan
	err := r.Database().WithContext(ctx).Table(plan.TableName()).
		Where("plan_id = ?", planId).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *ActionPlanRepo) GetLatestByReport(ctx context.Context, reportId string) (*model.ActionPlan, error) {
	var plan model.ActionPlan
	err := r.Database().WithContext(ctx).Table(plan.TableName()).
		Where("report_id = ?", reportId).
		Order("id DESC").
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *ActionPlanRepo) GetPendingByReport(ctx context.Context, reportId string) (*model.ActionPlan, error) {
	var plan model.ActionPlan
	err := r.Database().WithContext(ctx).Table(plan.TableName()).
		Where("pending_report_id = ?", reportId).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListStalePending returns pending plans not touched since before, oldest first.
func (r *ActionPlanRepo) ListStalePending(ctx context.Context, before time.Time, limit int) ([]*model.ActionPlan, error) {
	var plans []*model.ActionPlan
	err := r.Database().WithContext(ctx).Table(model.ActionPlan{}.TableName()).
		Where("status = ? AND updated_at < ?", model.PlanStatusPending, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&plans).Error
	return plans, err
}

// ClaimJob marks the start of an AI attempt. Only one worker can claim a
// pending plan whose job status is still empty.
func (r *ActionPlanRepo) ClaimJob(ctx context.Context, plan *model.ActionPlan) error {
	now := r.now()
	return r.transition(ctx, plan, map[string]any{
		"job_status":     model.JobStatusSubmitting,
		"job_updated_at": now,
	}, func(p *model.ActionPlan) {
		p.JobStatus = model.JobStatusSubmitting
		p.JobUpdatedAt = &now
	}, "job_status = ?", model.JobStatusNone)
}

// ReleaseClaim clears the job state of a pending plan so that it can be claimed again.
// A job that already reached a terminal status is never released.
func (r *ActionPlanRepo) ReleaseClaim(ctx context.Context, plan *model.ActionPlan) error {
	if plan.JobStatus.Terminal() {
		return ErrInvalidTransition
	}
	return r.transition(ctx, plan, map[string]any{
		"job_status":      model.JobStatusNone,
		"external_job_id": "",
		"job_updated_at":  nil,
	}, func(p *model.ActionPlan) {
		p.JobStatus = model.JobStatusNone
		p.ExternalJobId = ""
		p.JobUpdatedAt = nil
	}, "job_status = ?", plan.JobStatus)
}

// MarkProcessing records the external job id of a claimed plan.
func (r *ActionPlanRepo) MarkProcessing(ctx context.Context, plan *model.ActionPlan, externalJobId string) error {
	if !model.CanAdvanceJob(plan.JobStatus, model.JobStatusProcessing) {
		return ErrInvalidTransition
	}
	now := r.now()
	return r.transition(ctx, plan, map[string]any{
		"job_status":      model.JobStatusProcessing,
		"external_job_id": externalJobId,
		"job_updated_at":  now,
	}, func(p *model.ActionPlan) {
		p.JobStatus = model.JobStatusProcessing
		p.ExternalJobId = externalJobId
		p.JobUpdatedAt = &now
	}, "job_status = ?", plan.JobStatus)
}

func (r *ActionPlanRepo) MarkReady(ctx context.Context, plan *model.ActionPlan, result ReadyResult) error {
	if len(result.PlanJson) == 0 {
		return errors.New("ready plan requires plan json")
	}
	if !model.CanTransition(plan.Status, model.PlanStatusReady) ||
		!model.CanAdvanceJob(plan.JobStatus, result.JobStatus) {
		return ErrInvalidTransition
	}
	now := r.now()
	return r.transition(ctx, plan, map[string]any{
		"status":            model.PlanStatusReady,
		"plan_json":         result.PlanJson,
		"job_status":        result.JobStatus,
		"used_fallback":     result.UsedFallback,
		"error_message":     result.ErrorMessage,
		"ready_at":          now,
		"job_updated_at":    now,
		"pending_report_id": nil,
	}, func(p *model.ActionPlan) {
		p.Status = model.PlanStatusReady
		p.PlanJson = result.PlanJson
		p.JobStatus = result.JobStatus
		p.UsedFallback = result.UsedFallback
		p.ErrorMessage = result.ErrorMessage
		p.ReadyAt = &now
		p.JobUpdatedAt = &now
		p.PendingReportId = nil
	}, "job_status = ?", plan.JobStatus)
}

func (r *ActionPlanRepo) MarkFailed(ctx context.Context, plan *model.ActionPlan, message string) error {
	if message == "" {
		message = "Action plan generation failed"
	}
	if !model.CanTransition(plan.Status, model.PlanStatusFailed) {
		return ErrInvalidTransition
	}
	now := r.now()
	return r.transition(ctx, plan, map[string]any{
		"status":            model.PlanStatusFailed,
		"error_message":     message,
		"failed_at":         now,
		"pending_report_id": nil,
	}, func(p *model.ActionPlan) {
		p.Status = model.PlanStatusFailed
		p.ErrorMessage = message
		p.FailedAt = &now
		p.PendingReportId = nil
	}, "")
}

// ResetForRetry moves a ready or failed plan back to pending and clears the
// previous attempt. A unique violation means another pending plan exists for
// the same report.
func (r *ActionPlanRepo) ResetForRetry(ctx context.Context, plan *model.ActionPlan) error {
	if !model.CanTransition(plan.Status, model.PlanStatusPending) {
		return ErrInvalidTransition
	}
	now := r.now()
	reportId := plan.ReportId
	return r.transition(ctx, plan, map[string]any{
		"status":            model.PlanStatusPending,
		"plan_json":         nil,
		"error_message":     "",
		"ready_at":          nil,
		"failed_at":         nil,
		"external_job_id":   "",
		"job_status":        model.JobStatusNone,
		"job_updated_at":    nil,
		"used_fallback":     false,
		"retry_count":       gorm.Expr("retry_count + 1"),
		"last_retry_at":     now,
		"pending_report_id": reportId,
	}, func(p *model.ActionPlan) {
		p.Status = model.PlanStatusPending
		p.PlanJson = nil
		p.ErrorMessage = ""
		p.ReadyAt = nil
		p.FailedAt = nil
		p.ExternalJobId = ""
		p.JobStatus = model.JobStatusNone
		p.JobUpdatedAt = nil
		p.UsedFallback = false
		p.RetryCount++
		p.LastRetryAt = &now
		p.PendingReportId = &reportId
	}, "")
}

// transition applies updates where plan_id, status and version still match
// plan, plus an optional extra condition.
func (r *ActionPlanRepo) transition(ctx context.Context, plan *model.ActionPlan, updates map[string]any, apply func(*model.ActionPlan), extra string, extraArgs ...any) error {
	now := r.now()
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = now

	query := r.Database().WithContext(ctx).Table(plan.TableName()).
		Where("plan_id = ? AND status = ? AND version = ?", plan.PlanId, plan.Status, plan.Version)
	if extra != "" {
		query = query.Where(extra, extraArgs...)
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	apply(plan)
	plan.Version++
	plan.UpdatedAt = now
	return nil
}
