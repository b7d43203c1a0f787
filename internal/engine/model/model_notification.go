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

package model

import "gorm.io/datatypes"

// Notification types.
const (
	NotificationActionPlanReady = "actionPlan:ready"
)

type Notification struct {
	BaseModel
	NotificationId string         `gorm:"column:notification_id;type:varchar(64);uniqueIndex" json:"notificationId"`
	UserId         string         `gorm:"column:user_id;type:varchar(64);index" json:"userId"`
	Type           string         `gorm:"column:type;type:varchar(64)" json:"type"`
	Title          string         `gorm:"column:title;type:varchar(255)" json:"title"`
	Message        string         `gorm:"column:message;type:text" json:"message"`
	Metadata       datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	Read           bool           `gorm:"column:is_read;index" json:"read"`
}

func (Notification) TableName() string {
	return "t_notification"
}
