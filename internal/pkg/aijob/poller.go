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
	"math"
	"time"
)

// Outcome classifies a remote status string.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeRunning
	OutcomeCompleted
	OutcomeFailed
)

// BackoffFunc returns the wait before poll attempt+1, given the configured
// interval. attempt starts at 1.
type BackoffFunc func(attempt int, interval time.Duration) time.Duration

// FixedBackoff waits the configured interval between every attempt.
func FixedBackoff(_ int, interval time.Duration) time.Duration {
	return interval
}

// ExponentialBackoff grows the interval by factor per attempt, capped at
// maxInterval when it is positive.
func ExponentialBackoff(factor float64, maxInterval time.Duration) BackoffFunc {
	return func(attempt int, interval time.Duration) time.Duration {
		d := time.Duration(float64(interval) * math.Pow(factor, float64(attempt-1)))
		if maxInterval > 0 && d > maxInterval {
			return maxInterval
		}
		return d
	}
}

// ClassifyStatus is the default status predicate.
func ClassifyStatus(status string) Outcome {
	switch status {
	case StatusCompleted:
		return OutcomeCompleted
	case StatusFailed:
		return OutcomeFailed
	case StatusProcessing, StatusPending:
		return OutcomeRunning
	default:
		return OutcomeUnknown
	}
}

// PollPolicy bounds a poll loop.
type PollPolicy struct {
	Interval time.Duration
	MaxWait  time.Duration
	Backoff  BackoffFunc
	Classify func(status string) Outcome
}

func (p PollPolicy) withDefaults() PollPolicy {
	if p.Interval <= 0 {
		p.Interval = 2 * time.Second
	}
	if p.MaxWait <= 0 {
		p.MaxWait = 5 * time.Minute
	}
	if p.Backoff == nil {
		p.Backoff = FixedBackoff
	}
	if p.Classify == nil {
		p.Classify = ClassifyStatus
	}
	return p
}

// PollAttempt describes one status check.
type PollAttempt struct {
	JobId   string
	Attempt int
	Status  string
	Err     error
	Elapsed time.Duration
}

// PollResult is returned by Poll. It is non-nil on error as well so callers
// can report how far the loop got.
type PollResult struct {
	JobId          string
	TerminalStatus string
	Result         []byte
	PollCount      int
	Elapsed        time.Duration
}

// Observer is notified after every status check.
type Observer interface {
	OnPollAttempt(a PollAttempt)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(a PollAttempt)

func (f ObserverFunc) OnPollAttempt(a PollAttempt) { f(a) }

// PollerOption configures a Poller.
type PollerOption func(*Poller)

func WithClock(clock Clock) PollerOption {
	return func(p *Poller) {
		p.clock = clock
	}
}

func WithObserver(o Observer) PollerOption {
	return func(p *Poller) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// Poller drives a job to a terminal status.
type Poller struct {
	client    JobClient
	policy    PollPolicy
	clock     Clock
	observers []Observer
}

func NewPoller(client JobClient, policy PollPolicy, opts ...PollerOption) *Poller {
	p := &Poller{
		client: client,
		policy: policy.withDefaults(),
		clock:  RealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Policy returns the effective policy.
func (p *Poller) Policy() PollPolicy {
	return p.policy
}

// Poll checks the job status immediately and then after every backoff
// interval until the job completes, fails, reports an unknown status or the
// budget runs out. Transient status-check errors are retried within the budget.
func (p *Poller) Poll(ctx context.Context, jobId string) (*PollResult, error) {
	start := p.clock.Now()
	res := &PollResult{JobId: jobId}
	var lastErr error

	for {
		res.Elapsed = p.clock.Now().Sub(start)
		if res.Elapsed >= p.policy.MaxWait {
			return res, &PollTimeoutError{JobId: jobId, PollCount: res.PollCount, Elapsed: res.Elapsed, LastErr: lastErr}
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.PollCount++
		state, err := p.client.FetchStatus(ctx, jobId)
		attempt := PollAttempt{JobId: jobId, Attempt: res.PollCount, Err: err, Elapsed: p.clock.Now().Sub(start)}
		if state != nil {
			attempt.Status = state.Status
		}
		p.notify(attempt)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return res, ctxErr
			}
			lastErr = err
		} else {
			switch p.policy.Classify(state.Status) {
			case OutcomeCompleted:
				res.TerminalStatus = StatusCompleted
				result, err := p.client.FetchResult(ctx, jobId)
				res.Elapsed = p.clock.Now().Sub(start)
				if err != nil {
					return res, err
				}
				res.Result = result
				return res, nil
			case OutcomeFailed:
				res.TerminalStatus = StatusFailed
				res.Elapsed = p.clock.Now().Sub(start)
				detail := state.Error
				if detail == "" {
					detail = state.Message
				}
				return res, &JobFailedError{JobId: jobId, Detail: detail}
			case OutcomeRunning:
				lastErr = nil
			default:
				res.Elapsed = p.clock.Now().Sub(start)
				return res, &UnknownStatusError{JobId: jobId, Status: state.Status}
			}
		}

		wait := p.policy.Backoff(res.PollCount, p.policy.Interval)
		if remaining := p.policy.MaxWait - p.clock.Now().Sub(start); wait > remaining {
			wait = remaining
		}
		if err := p.clock.Sleep(ctx, wait); err != nil {
			res.Elapsed = p.clock.Now().Sub(start)
			return res, err
		}
	}
}

func (p *Poller) notify(a PollAttempt) {
	for _, o := range p.observers {
		o.OnPollAttempt(a)
	}
}
