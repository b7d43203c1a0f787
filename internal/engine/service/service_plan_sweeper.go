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
	"time"

	"github.com/cyborghq/cyborg/internal/engine/repo"
	"github.com/cyborghq/cyborg/internal/pkg/queue"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/robfig/cron"
)

// SweeperConf is the [sweeper] section of the config file.
type SweeperConf struct {
	Enabled    bool   `mapstructure:"enabled"`
	Spec       string `mapstructure:"spec"`
	StaleAfter int    `mapstructure:"staleAfter"` // seconds, raised above the ai attempt budget
	BatchSize  int    `mapstructure:"batchSize"`
}

func (c *SweeperConf) SetDefaults() {
	if c.Spec == "" {
		c.Spec = "@every 1m"
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 600
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
}

const staleMargin = time.Minute

// fit raises StaleAfter above the longest generation attempt, so a plan is
// never released while a worker still polls its job.
func (c *SweeperConf) fit(attemptBudget time.Duration) {
	floor := int((attemptBudget + staleMargin + time.Second - 1) / time.Second)
	if c.StaleAfter < floor {
		log.Warnw("sweeper staleAfter is below the ai attempt budget, raising it",
			"staleAfter", c.StaleAfter, "attemptBudget", attemptBudget.String(), "raisedTo", floor)
		c.StaleAfter = floor
	}
}

// PlanSweeper re-enqueues plans that stayed pending for longer than
// StaleAfter, which covers lost tasks and workers that died mid-attempt.
type PlanSweeper struct {
	conf     SweeperConf
	planRepo repo.IActionPlanRepository
	queue    queue.Queue
	cron     *cron.Cron
	now      func() time.Time
}

// NewPlanSweeper builds a sweeper whose stale age exceeds attemptBudget,
// see aijob.Conf.AttemptBudget.
func NewPlanSweeper(conf SweeperConf, attemptBudget time.Duration, repos *repo.Repositories, q queue.Queue) *PlanSweeper {
	conf.SetDefaults()
	conf.fit(attemptBudget)
	return &PlanSweeper{
		conf:     conf,
		planRepo: repos.ActionPlan,
		queue:    q,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules Sweep. It does nothing when the sweeper is disabled.
func (s *PlanSweeper) Start() error {
	if !s.conf.Enabled {
		return nil
	}
	s.cron = cron.New()
	err := s.cron.AddFunc(s.conf.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			log.Errorw("stale plan sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Infow("stale plan sweeper started", "spec", s.conf.Spec, "staleAfter", s.conf.StaleAfter)
	return nil
}

func (s *PlanSweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep resets the job state of stale pending plans and enqueues them again.
// It returns the number of plans requeued.
func (s *PlanSweeper) Sweep(ctx context.Context) (int, error) {
	before := s.now().Add(-time.Duration(s.conf.StaleAfter) * time.Second)
	plans, err := s.planRepo.ListStalePending(ctx, before, s.conf.BatchSize)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, plan := range plans {
		// releasing bumps the version, so a worker still holding the plan aborts
		if err := s.planRepo.ReleaseClaim(ctx, plan); err != nil {
			if !errors.Is(err, repo.ErrVersionConflict) {
				log.Warnw("failed to release stale action plan", "planId", plan.PlanId, "error", err)
			}
			continue
		}
		if err := EnqueueGeneration(ctx, s.queue, plan.PlanId); err != nil {
			log.Errorw("failed to requeue stale action plan", "planId", plan.PlanId, "error", err)
			continue
		}
		requeued++
	}
	if requeued > 0 {
		log.Infow("requeued stale action plans", "count", requeued)
	}
	return requeued, nil
}
