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
	"github.com/cyborghq/cyborg/internal/engine/repo"
	"github.com/cyborghq/cyborg/internal/pkg/aijob"
	"github.com/cyborghq/cyborg/internal/pkg/queue"
	"github.com/cyborghq/cyborg/internal/pkg/storage"
	"github.com/cyborghq/cyborg/pkg/cache"
	"github.com/cyborghq/cyborg/pkg/event"
	"github.com/google/wire"
)

// ProviderSet provides the service layer.
var ProviderSet = wire.NewSet(
	ProvideServices,
)

// Services groups the services used by the router and the workers.
type Services struct {
	ActionPlan   *ActionPlanService
	Generator    *PlanGenerator
	Sweeper      *PlanSweeper
	Report       *ReportService
	Notification *NotificationService
}

// ProvideServices wires every service from its dependencies.
func ProvideServices(
	repos *repo.Repositories,
	cacheClient cache.ICache,
	local *cache.Local,
	q queue.Queue,
	st storage.IStorage,
	bus *event.Bus,
	aiConf aijob.Conf,
	client aijob.JobClient,
	poller *aijob.Poller,
	fallback *aijob.FallbackGenerator,
	metrics *aijob.Metrics,
	sweeperConf SweeperConf,
) *Services {
	notifications := NewNotificationService(repos)
	return &Services{
		ActionPlan: NewActionPlanService(repos, q),
		Generator: NewPlanGenerator(repos, notifications, GeneratorDeps{
			AIEnabled: aiConf.Enabled,
			Client:    client,
			Poller:    poller,
			Fallback:  fallback,
			Metrics:   metrics,
			Bus:       bus,
			Cache:     cacheClient,
			Local:     local,
		}),
		Sweeper:      NewPlanSweeper(sweeperConf, aiConf.AttemptBudget(), repos, q),
		Report:       NewReportService(repos, st),
		Notification: notifications,
	}
}
