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
	"time"

	"github.com/bytedance/sonic"
	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/internal/engine/repo"
	"github.com/cyborghq/cyborg/internal/pkg/aijob"
	"github.com/cyborghq/cyborg/internal/pkg/notify"
	"github.com/cyborghq/cyborg/internal/pkg/queue"
	"github.com/cyborghq/cyborg/pkg/cache"
	"github.com/cyborghq/cyborg/pkg/event"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/safe"
	"github.com/cyborghq/cyborg/pkg/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
)

// Generation outcomes reported to metrics.
const (
	outcomeCompleted = "completed"
	outcomeFallback  = "fallback"
	outcomeFailed    = "failed"
	outcomeAborted   = "aborted"
)

const questionnaireCacheKey = "cyborg:questionnaire:latest"

var (
	errNoQuestionnaire     = errors.New("no questionnaire available")
	errNoOnboardingAnswers = errors.New("no onboarding answers for user")
)

// PlanGenerator runs generation attempts for pending plans. It is the
// handler of plan.generate tasks.
type PlanGenerator struct {
	planRepo       repo.IActionPlanRepository
	reportRepo     repo.IBloodReportRepository
	onboardingRepo repo.IOnboardingRepository
	notifications  *NotificationService
	questionnaire  *cache.CachedQuery[*model.Questionnaire]

	aiEnabled bool
	client    aijob.JobClient
	poller    *aijob.Poller
	fallback  *aijob.FallbackGenerator
	metrics   *aijob.Metrics
	bus       *event.Bus
}

// GeneratorDeps groups what a PlanGenerator needs beyond the repositories.
type GeneratorDeps struct {
	AIEnabled bool
	Client    aijob.JobClient
	Poller    *aijob.Poller
	Fallback  *aijob.FallbackGenerator
	Metrics   *aijob.Metrics
	Bus       *event.Bus
	Cache     cache.ICache
	Local     *cache.Local
}

func NewPlanGenerator(repos *repo.Repositories, notifications *NotificationService, deps GeneratorDeps) *PlanGenerator {
	g := &PlanGenerator{
		planRepo:       repos.ActionPlan,
		reportRepo:     repos.BloodReport,
		onboardingRepo: repos.Onboarding,
		notifications:  notifications,
		aiEnabled:      deps.AIEnabled,
		client:         deps.Client,
		poller:         deps.Poller,
		fallback:       deps.Fallback,
		metrics:        deps.Metrics,
		bus:            deps.Bus,
	}
	if g.bus == nil {
		g.bus = event.NewEventBus()
	}
	g.questionnaire = cache.NewCachedQuery[*model.Questionnaire](
		deps.Cache,
		func(...any) string { return questionnaireCacheKey },
		g.onboardingRepo.GetLatestQuestionnaire,
		cache.WithTTL[*model.Questionnaire](10*time.Minute),
		cache.WithLocal[*model.Questionnaire](deps.Local),
		cache.WithLogPrefix[*model.Questionnaire]("questionnaire"),
	)
	return g
}

// Register binds the generator to mux.
func (g *PlanGenerator) Register(mux *queue.Mux) {
	mux.Handle(TaskTypePlanGenerate, g)
}

// ProcessTask implements queue.Handler.
func (g *PlanGenerator) ProcessTask(ctx context.Context, task *queue.Task) error {
	var payload PlanTaskPayload
	if err := task.Decode(&payload); err != nil {
		log.Errorw("invalid plan.generate payload", "taskId", task.Id, "error", err)
		return nil
	}
	return g.RunGeneration(ctx, payload.PlanId)
}

// RunGeneration performs one generation attempt for planId. Plans that are
// gone or no longer pending are skipped. Failures of the attempt are written
// to the plan and are not returned; only a failure to load the plan is.
func (g *PlanGenerator) RunGeneration(ctx context.Context, planId string) error {
	ctx, span := trace.Tracer("cyborg/service").Start(ctx, "PlanGenerator.RunGeneration",
		oteltrace.WithAttributes(attribute.String("plan.id", planId)))
	defer span.End()

	start := time.Now()
	plan, err := g.planRepo.Get(ctx, planId)
	if err != nil {
		span.RecordError(err)
		log.Errorw("failed to load action plan", "planId", planId, "error", err)
		return fmt.Errorf("load action plan: %w", err)
	}
	if plan == nil || !plan.IsPending() {
		log.Debugw("action plan not pending, skipping generation", "planId", planId)
		return nil
	}

	var outcome string
	err = safe.Call(func() error {
		var gerr error
		outcome, gerr = g.generate(ctx, plan)
		return gerr
	})
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrVersionConflict):
		log.Infow("action plan changed by another actor, aborting attempt", "planId", planId)
		outcome = outcomeAborted
	case ctx.Err() != nil:
		// left pending for the stale plan sweeper
		log.Warnw("action plan generation interrupted", "planId", planId, "error", err)
		outcome = outcomeAborted
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Errorw("action plan generation failed", "planId", planId, "error", err)
		if ferr := g.fail(ctx, plan, err.Error()); ferr != nil {
			log.Errorw("failed to mark action plan failed", "planId", planId, "error", ferr)
		}
		outcome = outcomeFailed
	}

	span.SetAttributes(attribute.String("plan.outcome", outcome))
	g.metrics.ObserveGeneration(outcome, time.Since(start).Seconds())
	return nil
}

func (g *PlanGenerator) generate(ctx context.Context, plan *model.ActionPlan) (string, error) {
	report, err := g.reportRepo.Get(ctx, plan.ReportId)
	if err != nil {
		return "", fmt.Errorf("get blood report: %w", err)
	}
	if report == nil {
		return outcomeFailed, g.fail(ctx, plan, "Blood report not found")
	}
	meta := aijob.ReportMeta{FileName: report.FileName, UploadedAt: report.UploadedAt}

	if !g.aiEnabled {
		return outcomeFallback, g.readyWithFallback(ctx, plan, meta, model.JobStatusCompleted, "")
	}

	if err := g.planRepo.ClaimJob(ctx, plan); err != nil {
		return "", err
	}

	jobId, jobErr := g.submit(ctx, plan, report)
	if jobErr == nil {
		if err := g.planRepo.MarkProcessing(context.WithoutCancel(ctx), plan, jobId); err != nil {
			return "", err
		}
		var res *aijob.PollResult
		res, jobErr = g.poller.Poll(ctx, jobId)
		if jobErr == nil {
			log.Infow("ai job completed", "planId", plan.PlanId, "jobId", jobId, "pollCount", res.PollCount, "elapsed", res.Elapsed)
			return outcomeCompleted, g.ready(ctx, plan, repo.ReadyResult{
				PlanJson:  datatypes.JSON(res.Result),
				JobStatus: model.JobStatusCompleted,
			})
		}
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	log.Warnw("ai job failed, using fallback plan", "planId", plan.PlanId, "jobId", plan.ExternalJobId, "error", jobErr)
	return outcomeFallback, g.readyWithFallback(ctx, plan, meta, model.JobStatusFailed, jobErr.Error())
}

// submit resolves the onboarding inputs of the user and submits the job.
// Missing inputs count as a failed submission.
func (g *PlanGenerator) submit(ctx context.Context, plan *model.ActionPlan, report *model.BloodReport) (string, error) {
	questionnaire, err := g.questionnaire.Get(ctx)
	if err != nil {
		return "", &aijob.SubmissionError{Err: err}
	}
	if questionnaire == nil {
		return "", &aijob.SubmissionError{Err: errNoQuestionnaire}
	}
	answer, err := g.onboardingRepo.GetLatestAnswer(ctx, plan.UserId)
	if err != nil {
		return "", &aijob.SubmissionError{Err: err}
	}
	if answer == nil {
		return "", &aijob.SubmissionError{Err: errNoOnboardingAnswers}
	}

	jobId, err := g.client.Submit(ctx, aijob.SubmitRequest{
		BloodReportId:       report.ReportId,
		QuestionnaireId:     questionnaire.QuestionnaireId,
		OnboardingAnswersId: answer.AnswerId,
	})
	if err != nil {
		return "", err
	}
	log.Infow("ai job submitted", "planId", plan.PlanId, "jobId", jobId)
	return jobId, nil
}

func (g *PlanGenerator) readyWithFallback(ctx context.Context, plan *model.ActionPlan, meta aijob.ReportMeta, jobStatus model.JobStatus, errMsg string) error {
	fallback := g.fallback.Generate(ctx, meta)
	planJson, err := sonic.Marshal(fallback)
	if err != nil {
		return err
	}
	return g.ready(ctx, plan, repo.ReadyResult{
		PlanJson:     planJson,
		JobStatus:    jobStatus,
		UsedFallback: true,
		ErrorMessage: errMsg,
	})
}

func (g *PlanGenerator) ready(ctx context.Context, plan *model.ActionPlan, result repo.ReadyResult) error {
	ctx = context.WithoutCancel(ctx)
	if err := g.planRepo.MarkReady(ctx, plan, result); err != nil {
		return err
	}
	log.Infow("action plan ready", "planId", plan.PlanId, "usedFallback", plan.UsedFallback, "jobStatus", plan.JobStatus)

	if err := g.reportRepo.SetActionPlan(ctx, plan.ReportId, plan.PlanId); err != nil {
		log.Warnw("failed to link action plan to report", "planId", plan.PlanId, "reportId", plan.ReportId, "error", err)
	}
	if g.notifications != nil {
		if _, err := g.notifications.CreatePlanReady(ctx, plan); err != nil {
			log.Warnw("failed to create plan ready notification", "planId", plan.PlanId, "error", err)
		}
	}
	g.publish(ctx, notify.EventPlanReady, plan, map[string]any{
		"usedFallback": plan.UsedFallback,
		"jobStatus":    string(plan.JobStatus),
	})
	return nil
}

func (g *PlanGenerator) fail(ctx context.Context, plan *model.ActionPlan, message string) error {
	ctx = context.WithoutCancel(ctx)
	if err := g.planRepo.MarkFailed(ctx, plan, message); err != nil {
		return err
	}
	log.Warnw("action plan failed", "planId", plan.PlanId, "errorMessage", plan.ErrorMessage)
	g.publish(ctx, notify.EventPlanFailed, plan, map[string]any{
		"errorMessage": plan.ErrorMessage,
	})
	return nil
}

func (g *PlanGenerator) publish(ctx context.Context, eventType string, plan *model.ActionPlan, data map[string]any) {
	data["planId"] = plan.PlanId
	data["reportId"] = plan.ReportId
	data["userId"] = plan.UserId
	if err := g.bus.Publish(ctx, event.New(eventType, plan.PlanId, data)); err != nil {
		log.Warnw("failed to publish plan event", "planId", plan.PlanId, "eventType", eventType, "error", err)
	}
}
