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
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingJobId  = errors.New("response has no jobId")
	ErrMissingStatus = errors.New("no status returned from API")
	ErrEmptyResult   = errors.New("no result data returned from API")
	ErrInvalidResult = errors.New("result is not a JSON object")
)

// SubmissionError is returned when a job could not be submitted.
type SubmissionError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to submit plan request: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("failed to submit plan request: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// StatusCheckError is returned when the status of a job could not be read.
type StatusCheckError struct {
	JobId      string
	StatusCode int
	Err        error
}

func (e *StatusCheckError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to check job status: job %s: status %d", e.JobId, e.StatusCode)
	}
	return fmt.Sprintf("failed to check job status: job %s: %v", e.JobId, e.Err)
}

func (e *StatusCheckError) Unwrap() error { return e.Err }

// ResultFetchError is returned when a completed job's result could not be read.
type ResultFetchError struct {
	JobId      string
	StatusCode int
	Err        error
}

func (e *ResultFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch job result: job %s: status %d", e.JobId, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch job result: job %s: %v", e.JobId, e.Err)
}

func (e *ResultFetchError) Unwrap() error { return e.Err }

// PollTimeoutError is returned when no terminal status was seen within the
// poll budget. LastErr is the last transient error, if any.
type PollTimeoutError struct {
	JobId     string
	PollCount int
	Elapsed   time.Duration
	LastErr   error
}

func (e *PollTimeoutError) Error() string {
	msg := fmt.Sprintf("polling timeout after %dms (%d polls)", e.Elapsed.Milliseconds(), e.PollCount)
	if e.LastErr != nil {
		msg += ": last error: " + e.LastErr.Error()
	}
	return msg
}

func (e *PollTimeoutError) Unwrap() error { return e.LastErr }

// UnknownStatusError is returned for a status string the poller does not know.
type UnknownStatusError struct {
	JobId  string
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown job status: %q", e.Status)
}

// JobFailedError carries the failure detail reported by the remote service.
type JobFailedError struct {
	JobId  string
	Detail string
}

func (e *JobFailedError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = "job failed without error message"
	}
	return "job failed: " + detail
}
