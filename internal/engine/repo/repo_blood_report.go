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

type IBloodReportRepository interface {
	Create(ctx context.Context, report *model.BloodReport) error
	Get(ctx context.Context, reportId string) (*model.BloodReport, error)
	ListByUser(ctx context.Context, userId string, pageNum, pageSize int) ([]*model.BloodReport, int64, error)
	SetActionPlan(ctx context.Context, reportId, planId string) error
}

type BloodReportRepo struct {
	database.IDatabase
}

func NewBloodReportRepo(db database.IDatabase) IBloodReportRepository {
	return &BloodReportRepo{IDatabase: db}
}

func (r *BloodReportRepo) Create(ctx context.Context, report *model.BloodReport) error {
	return r.Database().WithContext(ctx).Table(report.TableName()).Create(report).Error
}

func (r *BloodReportRepo) Get(ctx context.Context, reportId string) (*model.BloodReport, error) {
	var report model.BloodReport
	err := r.Database().WithContext(ctx).Table(report.TableName()).
		Where("report_id = ?", reportId).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *BloodReportRepo) ListByUser(ctx context.Context, userId string, pageNum, pageSize int) ([]*model.BloodReport, int64, error) {
	var reports []*model.BloodReport
	var total int64
	query := r.Database().WithContext(ctx).Table(model.BloodReport{}.TableName()).
		Where("user_id = ?", userId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (pageNum - 1) * pageSize
	err := query.Order("uploaded_at DESC, id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&reports).Error
	return reports, total, err
}

// SetActionPlan links the report to its latest plan.
func (r *BloodReportRepo) SetActionPlan(ctx context.Context, reportId, planId string) error {
	return r.Database().WithContext(ctx).Table(model.BloodReport{}.TableName()).
		Where("report_id = ?", reportId).
		Update("action_plan_id", planId).Error
}
