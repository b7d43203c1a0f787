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

import "time"

// BloodReport is an uploaded lab file. ActionPlanId points at the latest plan.
type BloodReport struct {
	BaseModel
	ReportId     string    `gorm:"column:report_id;type:varchar(64);uniqueIndex" json:"reportId"`
	UserId       string    `gorm:"column:user_id;type:varchar(64);index" json:"userId"`
	FileName     string    `gorm:"column:file_name;type:varchar(255)" json:"fileName"`
	ObjectKey    string    `gorm:"column:object_key;type:varchar(512)" json:"-"`
	FileSize     int64     `gorm:"column:file_size" json:"fileSize"`
	MimeType     string    `gorm:"column:mime_type;type:varchar(128)" json:"mimeType"`
	UploadedAt   time.Time `gorm:"column:uploaded_at" json:"uploadedAt"`
	ActionPlanId string    `gorm:"column:action_plan_id;type:varchar(64)" json:"actionPlanId,omitempty"`
}

func (BloodReport) TableName() string {
	return "t_blood_report"
}
