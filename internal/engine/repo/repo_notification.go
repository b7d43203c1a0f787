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

	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/pkg/database"
)

type INotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userId string, unreadOnly bool, pageNum, pageSize int) ([]*model.Notification, int64, error)
	MarkRead(ctx context.Context, notificationId, userId string) (bool, error)
}

type NotificationRepo struct {
	database.IDatabase
}

func NewNotificationRepo(db database.IDatabase) INotificationRepository {
	return &NotificationRepo{IDatabase: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.Database().WithContext(ctx).Table(n.TableName()).Create(n).Error
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userId string, unreadOnly bool, pageNum, pageSize int) ([]*model.Notification, int64, error) {
	var list []*model.Notification
	var total int64
	query := r.Database().WithContext(ctx).Table(model.Notification{}.TableName()).
		Where("user_id = ?", userId)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (pageNum - 1) * pageSize
	err := query.Order("id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&list).Error
	return list, total, err
}

// MarkRead reports false when no notification of the user matched.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationId, userId string) (bool, error) {
	res := r.Database().WithContext(ctx).Table(model.Notification{}.TableName()).
		Where("notification_id = ? AND user_id = ?", notificationId, userId).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// mysql reports zero affected rows when the row was already read
	var n int64
	err := r.Database().WithContext(ctx).Table(model.Notification{}.TableName()).
		Where("notification_id = ? AND user_id = ?", notificationId, userId).
		Count(&n).Error
	return n > 0, err
}
