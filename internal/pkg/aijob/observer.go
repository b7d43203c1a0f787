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
	"github.com/cyborghq/cyborg/pkg/log"
)

// LogObserver writes every poll attempt to the package logger.
type LogObserver struct{}

func (LogObserver) OnPollAttempt(a PollAttempt) {
	if a.Err != nil {
		log.Warnw("ai job status check failed", "jobId", a.JobId, "attempt", a.Attempt, "elapsed", a.Elapsed, "error", a.Err)
		return
	}
	log.Debugw("ai job status", "jobId", a.JobId, "attempt", a.Attempt, "status", a.Status, "elapsed", a.Elapsed)
}
