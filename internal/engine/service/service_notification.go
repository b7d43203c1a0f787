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
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cyborghq/cyborg/internal/engine/model"
	"github.com/cyborghq/cyborg/internal/engine/repo"
	"github.com/cyborghq/cyborg/pkg/id"
	"github.com/cyborghq/cyborg/pkg/log"
)

// notificationListSize is the number of notifications returned by List.
const notificationListSize = 50

type NotificationService struct {
	notificationRepo repo.INotificationRepository
}

func NewNotificationService(repos *repo.Repositories) *NotificationService {
	return &NotificationService{notificationRepo: repos.Notification}
}

// CreatePlanReady stores the in-app notification for a ready plan.
func (s *NotificationService) CreatePlanReady(ctx context.Context, plan *model.ActionPlan) (*model.Notification, error) {
	metadata, err := sonic.Marshal(map[string]string{
		"planId":   plan.PlanId,
		"reportId": plan.ReportId,
	})
	if err != nil {
		return nil, err
	}
	n := &model.Notification{
		NotificationId: id.GetUild(),
		UserId:         plan.UserId,
		Type:           model.NotificationActionPlanReady,
		Title:          "Action Plan Ready",
		Message:        "Your personalized action plan is ready to view.",
		Metadata:       metadata,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.Errorw("failed to create notification", "planId", plan.PlanId, "userId", plan.UserId, "error", err)
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

// List returns the newest notifications of a user.
func (s *NotificationService) List(ctx context.Context, userId string, unreadOnly bool) ([]*model.Notification, error) {
	items, _, err := s.notificationRepo.ListByUser(ctx, userId, unreadOnly, 1, notificationListSize)
	if err != nil {
		log.Errorw("failed to list notifications", "userId", userId, "error", err)
		return nil, err
	}
	return items, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationId, userId string) error {
	ok, err := s.notificationRepo.MarkRead(ctx, notificationId, userId)
	if err != nil {
		log.Errorw("failed to mark notification read", "notificationId", notificationId, "error", err)
		return err
	}
	if !ok {
		return &NotFoundError{Resource: "Notification"}
	}
	return nil
}
