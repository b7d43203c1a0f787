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

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports poll attempts and generation outcomes.
type Metrics struct {
	pollAttempts *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	duration     prometheus.Histogram
}

var _ Observer = (*Metrics)(nil)

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pollAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cyborg",
			Subsystem: "ai_job",
			Name:      "poll_attempts_total",
			Help:      "Status checks issued against the AI job service.",
		}, []string{"status"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cyborg",
			Subsystem: "ai_job",
			Name:      "generations_total",
			Help:      "Plan generations by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cyborg",
			Subsystem: "ai_job",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of a plan generation attempt.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
	if reg != nil {
		m.pollAttempts = register(reg, m.pollAttempts)
		m.outcomes = register(reg, m.outcomes)
		m.duration = register(reg, m.duration)
	}
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) OnPollAttempt(a PollAttempt) {
	status := a.Status
	if a.Err != nil {
		status = "error"
	} else if status == "" {
		status = "unknown"
	}
	m.pollAttempts.WithLabelValues(status).Inc()
}

// ObserveGeneration records the outcome (completed, fallback, failed, aborted) and duration
// of one generation attempt.
func (m *Metrics) ObserveGeneration(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}
