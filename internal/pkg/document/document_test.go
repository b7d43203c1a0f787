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

package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cyborghq/cyborg/internal/pkg/aijob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFallbackPlan(t *testing.T) {
	raw, err := sonic.Marshal(aijob.GenerateFallbackPlan(aijob.ReportMeta{FileName: "labs.pdf", UploadedAt: time.Now()}))
	require.NoError(t, err)
	readyAt := time.Now()

	out, err := RenderPlan(Meta{PlanId: "p1", FileName: "labs.pdf", ReadyAt: &readyAt, Generated: time.Now()}, raw)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderArbitraryPlan(t *testing.T) {
	out, err := RenderPlan(Meta{PlanId: "p2"}, []byte(`{"goals":["sleep more"],"score":7.5,"nested":{"a":{"b":1}}}`))
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderNonObjectRoot(t *testing.T) {
	for _, raw := range []string{`[{"title":"Nutrition","items":["a"]}]`, `"eat more greens"`, `3`} {
		out, err := RenderPlan(Meta{PlanId: "p3"}, []byte(raw))
		require.NoError(t, err, raw)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), raw)
	}
}

func TestRenderRejectsEmpty(t *testing.T) {
	_, err := RenderPlan(Meta{}, []byte(`{}`))
	assert.ErrorIs(t, err, ErrEmptyPlan)

	for _, raw := range []string{`[]`, `null`, `""`} {
		_, err = RenderPlan(Meta{}, []byte(raw))
		assert.ErrorIs(t, err, ErrEmptyPlan, raw)
	}

	_, err = RenderPlan(Meta{}, []byte(`not json`))
	assert.Error(t, err)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Week 1 to 2", humanize("week1to2"))
	assert.Equal(t, "Check In Frequency", humanize("checkInFrequency"))
}
