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
	"sync"
	"testing"
	"time"

	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/pkg/database"
	"github.com/cyborghq/cyborg/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newTestDB(t *testing.T) database.IDatabase {
	t.Helper()
	m, err := database.NewManager(database.Database{
		Driver:       database.DriverSQLite,
		SQLite:       database.SQLiteConfig{Path: "file:" + id.GetUUIDWithoutDashes() + "?mode=memory&cache=shared"},
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	db := database.NewDatabaseAdapter(m)
	require.NoError(t, AutoMigrate(db))
	return db
}

func newPendingPlan(reportId string) *model.ActionPlan {
	return &model.ActionPlan{
		PlanId:   id.GetUild(),
		UserId:   "u1",
		ReportId: reportId,
		Status:   model.PlanStatusPending,
	}
}

func TestActionPlanSinglePendingPerReport(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, newPendingPlan("r1")))
	err := r.Create(ctx, newPendingPlan("r1"))
	assert.True(t, database.IsDuplicateKey(err), "got %v", err)

	require.NoError(t, r.Create(ctx, newPendingPlan("r2")))
}

func TestActionPlanConcurrentCreate(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Create(ctx, newPendingPlan("r1")); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestActionPlanLifecycle(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	plan := newPendingPlan("r1")
	require.NoError(t, r.Create(ctx, plan))

	require.NoError(t, r.ClaimJob(ctx, plan))
	assert.Equal(t, model.JobStatusSubmitting, plan.JobStatus)
	assert.Equal(t, int64(1), plan.Version)

	require.NoError(t, r.MarkProcessing(ctx, plan, "job-1"))
	require.NoError(t, r.MarkReady(ctx, plan, ReadyResult{
		PlanJson:  datatypes.JSON(`{"summary":"x"}`),
		JobStatus: model.JobStatusCompleted,
	}))

	stored, err := r.Get(ctx, plan.PlanId)
	require.NoError(t, err)
	assert.Equal(t, model.PlanStatusReady, stored.Status)
	assert.Equal(t, model.JobStatusCompleted, stored.JobStatus)
	assert.Equal(t, "job-1", stored.ExternalJobId)
	assert.Nil(t, stored.PendingReportId)
	assert.NotNil(t, stored.ReadyAt)
	assert.Equal(t, int64(3), stored.Version)
	assert.True(t, stored.IsReady())

	pending, err := r.GetPendingByReport(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, pending)

	// a new pending plan for the same report is allowed once the first left pending
	require.NoError(t, r.Create(ctx, newPendingPlan("r1")))
}

func TestActionPlanClaimOnce(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	plan := newPendingPlan("r1")
	require.NoError(t, r.Create(ctx, plan))

	first, err := r.Get(ctx, plan.PlanId)
	require.NoError(t, err)
	second, err := r.Get(ctx, plan.PlanId)
	require.NoError(t, err)

	require.NoError(t, r.ClaimJob(ctx, first))
	assert.ErrorIs(t, r.ClaimJob(ctx, second), ErrVersionConflict)
}

func TestActionPlanJobStatusTable(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	plan := newPendingPlan("r1")
	require.NoError(t, r.Create(ctx, plan))

	// an unclaimed plan has no submitted job to track
	assert.ErrorIs(t, r.MarkProcessing(ctx, plan, "job-1"), ErrInvalidTransition)
	assert.ErrorIs(t, r.MarkReady(ctx, plan, ReadyResult{
		PlanJson:  datatypes.JSON(`{"summary":"x"}`),
		JobStatus: model.JobStatusFailed,
	}), ErrInvalidTransition)

	require.NoError(t, r.ClaimJob(ctx, plan))
	// the job id is recorded before the job can complete
	assert.ErrorIs(t, r.MarkReady(ctx, plan, ReadyResult{
		PlanJson:  datatypes.JSON(`{"summary":"x"}`),
		JobStatus: model.JobStatusCompleted,
	}), ErrInvalidTransition)

	require.NoError(t, r.MarkProcessing(ctx, plan, "job-1"))
	assert.ErrorIs(t, r.MarkProcessing(ctx, plan, "job-2"), ErrInvalidTransition)

	stored, err := r.Get(ctx, plan.PlanId)
	require.NoError(t, err)
	assert.Equal(t, model.PlanStatusPending, stored.Status)
	assert.Equal(t, model.JobStatusProcessing, stored.JobStatus)
	assert.Equal(t, "job-1", stored.ExternalJobId)
	assert.Equal(t, int64(2), stored.Version)
}

func TestActionPlanReleaseClaim(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	plan := newPendingPlan("r1")
	require.NoError(t, r.Create(ctx, plan))
	require.NoError(t, r.ClaimJob(ctx, plan))
	require.NoError(t, r.MarkProcessing(ctx, plan, "job-1"))

	require.NoError(t, r.ReleaseClaim(ctx, plan))
	assert.Equal(t, model.JobStatusNone, plan.JobStatus)
	assert.Empty(t, plan.ExternalJobId)
	require.NoError(t, r.ClaimJob(ctx, plan))

	settled := *plan
	settled.JobStatus = model.JobStatusCompleted
	assert.ErrorIs(t, r.ReleaseClaim(ctx, &settled), ErrInvalidTransition)
}

func TestActionPlanStaleWriteRejected(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	plan := newPendingPlan("r1")
	require.NoError(t, r.Create(ctx, plan))
	stale := *plan

	require.NoError(t, r.MarkFailed(ctx, plan, "Blood report not found"))
	err := r.MarkReady(ctx, &stale, ReadyResult{PlanJson: datatypes.JSON(`{}`), JobStatus: model.JobStatusCompleted})
	assert.ErrorIs(t, err, ErrVersionConflict)

	stored, err := r.Get(ctx, plan.PlanId)
	require.NoError(t, err)
	assert.Equal(t, model.PlanStatusFailed, stored.Status)
	assert.Equal(t, "Blood report not found", stored.ErrorMessage)
	assert.NotNil(t, stored.FailedAt)
}

func TestActionPlanResetForRetry(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	plan := newPendingPlan("r1")
	require.NoError(t, r.Create(ctx, plan))
	require.NoError(t, r.ClaimJob(ctx, plan))
	require.NoError(t, r.MarkReady(ctx, plan, ReadyResult{
		PlanJson:     datatypes.JSON(`{"summary":"fallback"}`),
		JobStatus:    model.JobStatusFailed,
		UsedFallback: true,
		ErrorMessage: "submit failed",
	}))

	require.NoError(t, r.ResetForRetry(ctx, plan))

	stored, err := r.Get(ctx, plan.PlanId)
	require.NoError(t, err)
	assert.Equal(t, model.PlanStatusPending, stored.Status)
	assert.Empty(t, stored.PlanJson)
	assert.Empty(t, stored.ErrorMessage)
	assert.Nil(t, stored.ReadyAt)
	assert.Equal(t, model.JobStatusNone, stored.JobStatus)
	assert.False(t, stored.UsedFallback)
	assert.Equal(t, 1, stored.RetryCount)
	assert.NotNil(t, stored.LastRetryAt)
	require.NotNil(t, stored.PendingReportId)
	assert.Equal(t, "r1", *stored.PendingReportId)

	assert.ErrorIs(t, r.ResetForRetry(ctx, plan), ErrInvalidTransition)
}

func TestActionPlanRetryConflictsWithOtherPending(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	old := newPendingPlan("r1")
	require.NoError(t, r.Create(ctx, old))
	require.NoError(t, r.MarkFailed(ctx, old, "boom"))
	require.NoError(t, r.Create(ctx, newPendingPlan("r1")))

	err := r.ResetForRetry(ctx, old)
	assert.True(t, database.IsDuplicateKey(err), "got %v", err)
}

func TestActionPlanListStalePending(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	plan := newPendingPlan("r1")
	require.NoError(t, r.Create(ctx, plan))

	stale, err := r.ListStalePending(ctx, time.Now().UTC().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	stale, err = r.ListStalePending(ctx, time.Now().UTC().Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestActionPlanLatestByReport(t *testing.T) {
	r := NewActionPlanRepo(newTestDB(t))
	ctx := context.Background()

	none, err := r.GetLatestByReport(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, none)

	first := newPendingPlan("r1")
	require.NoError(t, r.Create(ctx, first))
	require.NoError(t, r.MarkFailed(ctx, first, "x"))
	second := newPendingPlan("r1")
	require.NoError(t, r.Create(ctx, second))

	latest, err := r.GetLatestByReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, second.PlanId, latest.PlanId)
}

func TestNotificationMarkRead(t *testing.T) {
	r := NewNotificationRepo(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &model.Notification{NotificationId: "n1", UserId: "u1", Type: model.NotificationActionPlanReady}))

	list, total, err := r.ListByUser(ctx, "u1", true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)

	ok, err := r.MarkRead(ctx, "n1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.MarkRead(ctx, "n1", "other")
	require.NoError(t, err)
	assert.False(t, ok)

	_, total, err = r.ListByUser(ctx, "u1", true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestOnboardingLatest(t *testing.T) {
	db := newTestDB(t)
	r := NewOnboardingRepo(db)
	ctx := context.Background()

	q, err := r.GetLatestQuestionnaire(ctx)
	require.NoError(t, err)
	assert.Nil(t, q)

	require.NoError(t, db.Database().Create(&model.Questionnaire{QuestionnaireId: "q1", Version: 1}).Error)
	require.NoError(t, db.Database().Create(&model.Questionnaire{QuestionnaireId: "q2", Version: 2}).Error)
	require.NoError(t, db.Database().Create(&model.OnboardingAnswer{AnswerId: "a1", UserId: "u1", QuestionnaireId: "q2"}).Error)

	q, err = r.GetLatestQuestionnaire(ctx)
	require.NoError(t, err)
	assert.Equal(t, "q2", q.QuestionnaireId)

	a, err := r.GetLatestAnswer(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.AnswerId)
}
