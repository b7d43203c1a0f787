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
	"strings"
	"time"

	"github.com/cyborghq/cyborg/pkg/env"
)

const (
	defaultBaseURL    = "http://localhost:8000/v1"
	defaultAPIKey     = "local-dev-key"
	defaultSubmitPath = "/report/jobs/mongo-ids"
)

// Conf is the [ai] section of the config file. Durations are milliseconds
// unless noted.
type Conf struct {
	Enabled         bool    `mapstructure:"enabled"`
	BaseURL         string  `mapstructure:"baseUrl"`
	APIKey          string  `mapstructure:"apiKey"`
	SubmitPath      string  `mapstructure:"submitPath"`
	Timeout         int     `mapstructure:"timeout"` // seconds, per request
	PollInterval    int     `mapstructure:"pollInterval"`
	PollMaxWait     int     `mapstructure:"pollMaxWait"`
	BackoffFactor   float64 `mapstructure:"backoffFactor"`
	MaxPollInterval int     `mapstructure:"maxPollInterval"`
	FallbackDelay   int     `mapstructure:"fallbackDelay"`
}

func (c *Conf) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.APIKey == "" {
		c.APIKey = defaultAPIKey
	}
	if c.SubmitPath == "" {
		c.SubmitPath = defaultSubmitPath
	}
	if c.Timeout <= 0 {
		c.Timeout = 30
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2000
	}
	if c.PollMaxWait <= 0 {
		c.PollMaxWait = 300000
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = 1
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// ApplyEnv lets the deployment environment override the tunables.
func (c *Conf) ApplyEnv() {
	c.Enabled = env.GetEnvBool("AI_ENABLED", c.Enabled)
	c.BaseURL = strings.TrimRight(env.GetEnvString("REAL_AI_API_URL", c.BaseURL), "/")
	c.APIKey = env.GetEnvString("REAL_AI_API_KEY", c.APIKey)
	c.PollInterval = int(env.GetEnvMillis("AI_POLL_INTERVAL", c.pollInterval()) / time.Millisecond)
	c.PollMaxWait = int(env.GetEnvMillis("AI_POLL_MAX_WAIT", c.pollMaxWait()) / time.Millisecond)
}

func (c Conf) pollInterval() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}

func (c Conf) pollMaxWait() time.Duration {
	return time.Duration(c.PollMaxWait) * time.Millisecond
}

// RequestTimeout is the per-call timeout of the job client.
func (c Conf) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// FallbackDelayDuration is the simulated processing time of the fallback generator.
func (c Conf) FallbackDelayDuration() time.Duration {
	return time.Duration(c.FallbackDelay) * time.Millisecond
}

// AttemptBudget bounds how long one generation attempt keeps a plan claimed:
// the submit call, the poll window with its last status and result calls,
// and the fallback delay.
func (c Conf) AttemptBudget() time.Duration {
	return c.pollMaxWait() + 3*c.RequestTimeout() + c.FallbackDelayDuration()
}

// Policy builds the poll policy described by the config.
func (c Conf) Policy() PollPolicy {
	p := PollPolicy{
		Interval: c.pollInterval(),
		MaxWait:  c.pollMaxWait(),
	}
	if c.BackoffFactor > 1 {
		p.Backoff = ExponentialBackoff(c.BackoffFactor, time.Duration(c.MaxPollInterval)*time.Millisecond)
	}
	return p
}
