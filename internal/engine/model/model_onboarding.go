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

// Questionnaire and OnboardingAnswer are owned by the onboarding flow. Only
// their ids are read here, to reference them in AI job submissions.

type Questionnaire struct {
	BaseModel
	QuestionnaireId string `gorm:"column:questionnaire_id;type:varchar(64);uniqueIndex" json:"questionnaireId"`
	Version         int    `gorm:"column:version;index" json:"version"`
	Title           string `gorm:"column:title;type:varchar(255)" json:"title"`
}

func (Questionnaire) TableName() string {
	return "t_questionnaire"
}

type OnboardingAnswer struct {
	BaseModel
	AnswerId        string `gorm:"column:answer_id;type:varchar(64);uniqueIndex" json:"answerId"`
	UserId          string `gorm:"column:user_id;type:varchar(64);index" json:"userId"`
	QuestionnaireId string `gorm:"column:questionnaire_id;type:varchar(64)" json:"questionnaireId"`
}

func (OnboardingAnswer) TableName() string {
	return "t_onboarding_answer"
}
