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

	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/pkg/database"
	"gorm.io/gorm"
)

// IOnboardingRepository reads the questionnaire and answers referenced by AI jobs.
type IOnboardingRepository interface {
	GetLatestQuestionnaire(ctx context.Context) (*model.Questionnaire, error)
	GetLatestAnswer(ctx context.Context, userId string) (*model.OnboardingAnswer, error)
}

type OnboardingRepo struct {
	database.IDatabase
}

func NewOnboardingRepo(db database.IDatabase) IOnboardingRepository {
	return &OnboardingRepo{IDatabase: db}
}

func (r *OnboardingRepo) GetLatestQuestionnaire(ctx context.Context) (*model.Questionnaire, error) {
	var q model.Questionnaire
	err := r.Database().WithContext(ctx).Table(q.TableName()).
		Order("version DESC, id DESC").
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *OnboardingRepo) GetLatestAnswer(ctx context.Context, userId string) (*model.OnboardingAnswer, error) {
	var a model.OnboardingAnswer
	err := r.Database().WithContext(ctx).Table(a.TableName()).
		Where("user_id = ?", userId).
		Order("id DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
