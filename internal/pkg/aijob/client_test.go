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
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Conf{BaseURL: srv.URL + "/v1", APIKey: "test-key", Timeout: 5})
}

func TestClientSubmit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/report/jobs/mongo-ids", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		var body map[string]string
		require.NoError(t, sonic.ConfigDefault.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "r1", body["blood_report_id"])
		assert.Equal(t, "q1", body["questionnaire_id"])
		assert.Equal(t, "a1", body["onboarding_answers_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobId":"job-42"}`))
	})

	jobId, err := c.Submit(context.Background(), SubmitRequest{BloodReportId: "r1", QuestionnaireId: "q1", OnboardingAnswersId: "a1"})
	require.NoError(t, err)
	assert.Equal(t, "job-42", jobId)
}

func TestClientSubmitAcceptsSnakeCaseId(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"job_id":"job-7"}`))
	})

	jobId, err := c.Submit(context.Background(), SubmitRequest{})
	require.NoError(t, err)
	assert.Equal(t, "job-7", jobId)
}

func TestClientSubmitErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	})
	_, err := c.Submit(context.Background(), SubmitRequest{})
	var se *SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)

	c = newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err = c.Submit(context.Background(), SubmitRequest{})
	require.ErrorAs(t, err, &se)
	assert.True(t, errors.Is(err, ErrMissingJobId))
}

func TestClientFetchStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/report/jobs/job-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"COMPLETED","progress":1}`))
	})

	state, err := c.FetchStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, state.Status)
	require.NotNil(t, state.Progress)
	assert.Equal(t, 1.0, *state.Progress)
}

func TestClientFetchStatusErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.FetchStatus(context.Background(), "job-1")
	var sce *StatusCheckError
	require.ErrorAs(t, err, &sce)
	assert.Equal(t, http.StatusBadGateway, sce.StatusCode)

	c = newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"progress":0.5}`))
	})
	_, err = c.FetchStatus(context.Background(), "job-1")
	require.ErrorAs(t, err, &sce)
	assert.ErrorIs(t, err, ErrMissingStatus)
}

func TestClientFetchResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/report/jobs/job-1/result", r.URL.Path)
		_, _ = w.Write([]byte(`{"summary":"from ai"}`))
	})

	body, err := c.FetchResult(context.Background(), "job-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"from ai"}`, string(body))
}

func TestClientFetchResultEmpty(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"no content": func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) },
		"null":       func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`null`)) },
		"empty":      func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{}`)) },
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, h)
			_, err := c.FetchResult(context.Background(), "job-1")
			var rfe *ResultFetchError
			require.ErrorAs(t, err, &rfe)
			assert.ErrorIs(t, err, ErrEmptyResult)
		})
	}
}

func TestClientFetchResultRejectsNonObject(t *testing.T) {
	for _, body := range []string{`[{"title":"Nutrition","items":["a"]}]`, `"a plan"`, `42`} {
		t.Run(body, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := c.FetchResult(context.Background(), "job-1")
			var rfe *ResultFetchError
			require.ErrorAs(t, err, &rfe)
			assert.ErrorIs(t, err, ErrInvalidResult)
		})
	}
}

func TestConfApplyEnv(t *testing.T) {
	t.Setenv("AI_ENABLED", "true")
	t.Setenv("AI_POLL_INTERVAL", "500")
	t.Setenv("AI_POLL_MAX_WAIT", "10000")
	t.Setenv("REAL_AI_API_URL", "http://ai.internal/v2/")

	c := Conf{}
	c.SetDefaults()
	c.ApplyEnv()

	assert.True(t, c.Enabled)
	assert.Equal(t, 500, c.PollInterval)
	assert.Equal(t, 10000, c.PollMaxWait)
	assert.Equal(t, "http://ai.internal/v2", c.BaseURL)

	p := c.Policy()
	assert.Equal(t, 500*time.Millisecond, p.Interval)
	assert.Equal(t, 10*time.Second, p.MaxWait)
}
