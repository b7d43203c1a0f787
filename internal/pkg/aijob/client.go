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

package aijob

import (
	"context"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// SubmitRequest names the records the AI service reads to build a plan.
type SubmitRequest struct {
	BloodReportId       string `json:"blood_report_id"`
	QuestionnaireId     string `json:"questionnaire_id"`
	OnboardingAnswersId string `json:"onboarding_answers_id"`
}

// JobState is the body of a status response.
type JobState struct {
	Status   string   `json:"status"`
	Progress *float64 `json:"progress,omitempty"`
	Message  string   `json:"message,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// JobClient talks to the external AI job service.
type JobClient interface {
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	FetchStatus(ctx context.Context, jobId string) (*JobState, error)
	FetchResult(ctx context.Context, jobId string) ([]byte, error)
}

type submitResponse struct {
	JobId    string `json:"jobId"`
	JobIdAlt string `json:"job_id"`
}

// Client is the resty-backed JobClient.
type Client struct {
	http       *resty.Client
	submitPath string
}

var _ JobClient = (*Client)(nil)

func NewClient(conf Conf) *Client {
	conf.SetDefaults()
	client := resty.New().
		SetBaseURL(conf.BaseURL).
		SetTimeout(conf.RequestTimeout()).
		SetHeader("X-API-KEY", conf.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &Client{
		http:       client,
		submitPath: conf.SubmitPath,
	}
}

// Submit posts a new job and returns the remote job id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.submitPath)
	if err != nil {
		return "", &SubmissionError{Err: err}
	}
	if !resp.IsSuccess() {
		return "", &SubmissionError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 512)}
	}

	var out submitResponse
	if err := sonic.Unmarshal(resp.Body(), &out); err != nil {
		return "", &SubmissionError{Err: err}
	}
	jobId := strings.TrimSpace(out.JobId)
	if jobId == "" {
		jobId = strings.TrimSpace(out.JobIdAlt)
	}
	if jobId == "" {
		return "", &SubmissionError{Err: ErrMissingJobId}
	}
	return jobId, nil
}

// FetchStatus reads the current status of a job. Transport errors are
// returned to the caller, which owns the retry policy.
func (c *Client) FetchStatus(ctx context.Context, jobId string) (*JobState, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("jobId", jobId).
		Get("/report/jobs/{jobId}")
	if err != nil {
		return nil, &StatusCheckError{JobId: jobId, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &StatusCheckError{JobId: jobId, StatusCode: resp.StatusCode()}
	}

	var state JobState
	if err := sonic.Unmarshal(resp.Body(), &state); err != nil {
		return nil, &StatusCheckError{JobId: jobId, Err: err}
	}
	state.Status = strings.ToLower(strings.TrimSpace(state.Status))
	if state.Status == "" {
		return nil, &StatusCheckError{JobId: jobId, Err: ErrMissingStatus}
	}
	return &state, nil
}

// FetchResult returns the raw JSON result of a completed job.
func (c *Client) FetchResult(ctx context.Context, jobId string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("jobId", jobId).
		Get("/report/jobs/{jobId}/result")
	if err != nil {
		return nil, &ResultFetchError{JobId: jobId, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &ResultFetchError{JobId: jobId, StatusCode: resp.StatusCode()}
	}
	if resp.StatusCode() == http.StatusNoContent || len(resp.Body()) == 0 {
		return nil, &ResultFetchError{JobId: jobId, Err: ErrEmptyResult}
	}

	// a plan is a non-empty object; anything else is treated as a failed fetch
	body := resp.Body()
	var decoded any
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return nil, &ResultFetchError{JobId: jobId, Err: err}
	}
	switch v := decoded.(type) {
	case nil:
		return nil, &ResultFetchError{JobId: jobId, Err: ErrEmptyResult}
	case map[string]any:
		if len(v) == 0 {
			return nil, &ResultFetchError{JobId: jobId, Err: ErrEmptyResult}
		}
	default:
		return nil, &ResultFetchError{JobId: jobId, Err: ErrInvalidResult}
	}
	return append([]byte(nil), body...), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
