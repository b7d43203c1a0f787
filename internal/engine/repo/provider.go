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
	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/pkg/database"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideRepositories)

// Repositories groups every repository for the service layer.
type Repositories struct {
	ActionPlan   IActionPlanRepository
	BloodReport  IBloodReportRepository
	Onboarding   IOnboardingRepository
	Notification INotificationRepository
}

func NewRepositories(db database.IDatabase) *Repositories {
	return &Repositories{
		ActionPlan:   NewActionPlanRepo(db),
		BloodReport:  NewBloodReportRepo(db),
		Onboarding:   NewOnboardingRepo(db),
		Notification: NewNotificationRepo(db),
	}
}

// ProvideRepositories migrates the schema when autoMigrate is set and
// returns the repositories.
func ProvideRepositories(db database.IDatabase, conf database.Database) (*Repositories, error) {
	if conf.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}
	return NewRepositories(db), nil
}

// AutoMigrate creates or updates every table.
func AutoMigrate(db database.IDatabase) error {
	return db.Database().AutoMigrate(model.Models()...)
}
