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

import (
	"time"

	"gorm.io/datatypes"
)

// PlanStatus is the user-facing status of an action plan.
type PlanStatus string

const (
	PlanStatusPending PlanStatus = "pending"
	PlanStatusReady   PlanStatus = "ready"
	PlanStatusFailed  PlanStatus = "failed"
)

// JobStatus tracks the external AI job of the current attempt. Empty means
// no attempt has claimed the plan yet.
type JobStatus string

const (
	JobStatusNone       JobStatus = ""
	JobStatusSubmitting JobStatus = "submitting"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

var planTransitions = map[PlanStatus][]PlanStatus{
	PlanStatusPending: {PlanStatusReady, PlanStatusFailed},
	PlanStatusReady:   {PlanStatusPending},
	PlanStatusFailed:  {PlanStatusPending},
}

var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusNone:       {JobStatusSubmitting, JobStatusCompleted},
	JobStatusSubmitting: {JobStatusProcessing, JobStatusFailed},
	JobStatusProcessing: {JobStatusCompleted, JobStatusFailed},
}

// CanTransition reports whether a plan may move from one status to another.
func CanTransition(from, to PlanStatus) bool {
	for _, s := range planTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanAdvanceJob reports whether the job status of one attempt may move
// forward. Retry resets it to JobStatusNone outside this table.
func CanAdvanceJob(from, to JobStatus) bool {
	for _, s := range jobTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether an attempt ended with this job status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ActionPlan is one generated (or generating) plan for a blood report.
type ActionPlan struct {
	BaseModel
	PlanId          string         `gorm:"column:plan_id;type:varchar(64);uniqueIndex" json:"planId"`
	UserId          string         `gorm:"column:user_id;type:varchar(64);index" json:"userId"`
	ReportId        string         `gorm:"column:report_id;type:varchar(64);index" json:"reportId"`
	Status          PlanStatus     `gorm:"column:status;type:varchar(16);index" json:"status"`
	JobStatus       JobStatus      `gorm:"column:job_status;type:varchar(16)" json:"jobStatus,omitempty"`
	ExternalJobId   string         `gorm:"column:external_job_id;type:varchar(128)" json:"externalJobId,omitempty"`
	PlanJson        datatypes.JSON `gorm:"column:plan_json" json:"planJson,omitempty"`
	ErrorMessage    string         `gorm:"column:error_message;type:text" json:"errorMessage,omitempty"`
	UsedFallback    bool           `gorm:"column:used_fallback" json:"usedFallback"`
	RetryCount      int            `gorm:"column:retry_count" json:"retryCount"`
	ReadyAt         *time.Time     `gorm:"column:ready_at" json:"readyAt,omitempty"`
	FailedAt        *time.Time     `gorm:"column:failed_at" json:"failedAt,omitempty"`
	JobUpdatedAt    *time.Time     `gorm:"column:job_updated_at" json:"jobUpdatedAt,omitempty"`
	LastRetryAt     *time.Time     `gorm:"column:last_retry_at" json:"lastRetryAt,omitempty"`
	PendingReportId *string        `gorm:"column:pending_report_id;type:varchar(64);uniqueIndex" json:"-"`
	Version         int64          `gorm:"column:version" json:"-"`
}

func (ActionPlan) TableName() string {
	return "t_action_plan"
}

func (p *ActionPlan) IsPending() bool { return p.Status == PlanStatusPending }

func (p *ActionPlan) IsReady() bool { return p.Status == PlanStatusReady && len(p.PlanJson) > 0 }
