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
	"testing"
	"time"

	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/internal/pkg/aijob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRequeuesStalePlans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stale := f.createPending(t, f.seedReport(t, "u1"))
	require.NoError(t, f.repos.ActionPlan.ClaimJob(ctx, stale))
	fresh := f.createPending(t, f.seedReport(t, "u1"))
	require.NoError(t, f.db.Database().Model(&model.ActionPlan{}).
		Where("plan_id = ?", stale.PlanId).
		Update("updated_at", time.Now().UTC().Add(-time.Hour)).Error)

	s := NewPlanSweeper(SweeperConf{StaleAfter: 600}, time.Minute, f.repos, f.queue)
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []string{stale.PlanId, fresh.PlanId, stale.PlanId}, f.queue.planIds(t))
	stored := f.reload(t, stale.PlanId)
	assert.Equal(t, model.PlanStatusPending, stored.Status)
	assert.Equal(t, model.JobStatusNone, stored.JobStatus)

	// the released plan is fresh again
	n, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSweeperOutlastsAttemptBudget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// a 15 minute poll window with the default 30s request timeout
	ai := aijob.Conf{PollMaxWait: 900000}
	ai.SetDefaults()
	s := NewPlanSweeper(SweeperConf{StaleAfter: 600}, ai.AttemptBudget(), f.repos, f.queue)
	assert.Equal(t, 900+90+60, s.conf.StaleAfter)

	polling := f.createPending(t, f.seedReport(t, "u1"))
	require.NoError(t, f.repos.ActionPlan.ClaimJob(ctx, polling))
	require.NoError(t, f.repos.ActionPlan.MarkProcessing(ctx, polling, "job-1"))
	require.NoError(t, f.db.Database().Model(&model.ActionPlan{}).
		Where("plan_id = ?", polling.PlanId).
		Update("updated_at", time.Now().UTC().Add(-12*time.Minute)).Error)

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	stored := f.reload(t, polling.PlanId)
	assert.Equal(t, model.JobStatusProcessing, stored.JobStatus)
	assert.Equal(t, "job-1", stored.ExternalJobId)

	require.NoError(t, f.db.Database().Model(&model.ActionPlan{}).
		Where("plan_id = ?", polling.PlanId).
		Update("updated_at", time.Now().UTC().Add(-20*time.Minute)).Error)
	n, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.JobStatusNone, f.reload(t, polling.PlanId).JobStatus)
}

func TestSweeperKeepsLongerStaleAfter(t *testing.T) {
	f := newFixture(t)
	s := NewPlanSweeper(SweeperConf{StaleAfter: 3600}, 5*time.Minute, f.repos, f.queue)
	assert.Equal(t, 3600, s.conf.StaleAfter)
}

func TestSweeperDisabled(t *testing.T) {
	f := newFixture(t)
	s := NewPlanSweeper(SweeperConf{}, time.Minute, f.repos, f.queue)
	require.NoError(t, s.Start())
	assert.Nil(t, s.cron)
	s.Stop()
}

func TestSweeperRejectsBadSpec(t *testing.T) {
	f := newFixture(t)
	s := NewPlanSweeper(SweeperConf{Enabled: true, Spec: "not a spec"}, time.Minute, f.repos, f.queue)
	assert.Error(t, s.Start())
}
