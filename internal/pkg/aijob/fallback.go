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
	"time"
)

// ReportMeta is the source report information stamped on a fallback plan.
type ReportMeta struct {
	FileName   string
	UploadedAt time.Time
}

type Recommendation struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

type Timeline struct {
	Week1To2  string `json:"week1to2"`
	Week3To4  string `json:"week3to4"`
	Week5To8  string `json:"week5to8"`
	Week9To12 string `json:"week9to12"`
}

type KeyMetrics struct {
	ProgressMarkers  []string `json:"progressMarkers"`
	CheckInFrequency string   `json:"checkInFrequency"`
}

type LabsReviewed struct {
	FileName   string `json:"fileName"`
	UploadedAt string `json:"uploadedAt"`
}

// Plan is the locally generated action plan.
type Plan struct {
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	Timeline        Timeline         `json:"timeline"`
	KeyMetrics      KeyMetrics       `json:"keyMetrics"`
	LabsReviewed    LabsReviewed     `json:"labsReviewed"`
}

const fallbackSummary = "Based on your latest bloodwork, this personalized action plan focuses on optimizing your metabolic health, improving cardiovascular fitness, and enhancing recovery protocols."

// GenerateFallbackPlan builds the deterministic plan for a report. The same
// meta always yields an equal plan.
func GenerateFallbackPlan(meta ReportMeta) *Plan {
	uploadedAt := ""
	if !meta.UploadedAt.IsZero() {
		uploadedAt = meta.UploadedAt.UTC().Format(time.RFC3339)
	}
	return &Plan{
		Summary: fallbackSummary,
		Recommendations: []Recommendation{
			{
				Title: "Nutrition & Supplementation",
				Items: []string{
					"Increase protein intake to 1.8-2.2g per kg of body weight, prioritizing lean sources",
					"Add 3-4 servings of fatty fish weekly for omega-3 fatty acids (EPA/DHA: 2-3g daily)",
					"Implement intermittent fasting 2x per week with 16:8 protocol for metabolic flexibility",
					"Supplement with: Magnesium glycinate (400mg), Vitamin D3 (4000 IU), and Zinc (15mg daily)",
					"Reduce refined carbohydrates; prioritize complex carbs with high fiber content",
					"Stay hydrated: minimum 3-4 liters of water daily, increase during training days",
				},
			},
			{
				Title: "Training & Movement",
				Items: []string{
					"3x per week resistance training (full-body or upper/lower split) focusing on compound lifts",
					"2x per week zone 2 cardio (130-150 BPM) for 30-45 minutes to build aerobic base",
					"1x per week high-intensity interval training (HIIT) session: 6-8 rounds of 30s hard / 90s easy",
					"Daily mobility work: 10-15 minutes of stretching and foam rolling, focusing on hip flexors and thoracic spine",
					"Progressive overload: increase weight or reps by 2-5% every 2 weeks",
					"Avoid overtraining; ensure at least 1-2 complete rest days per week",
				},
			},
			{
				Title: "Recovery & Sleep Optimization",
				Items: []string{
					"Target 7.5-8.5 hours of sleep nightly with consistent bedtime (±30 minutes variance)",
					"Finish last meal 3 hours before bed; avoid caffeine after 2 PM",
					"Implement evening wind-down routine: dim lights, no screens 60 minutes before bed",
					"Consider magnesium supplementation 1-2 hours before sleep for sleep quality",
					"Keep bedroom cool (65-68°F), dark, and free from distractions",
					"Morning sun exposure for 15-30 minutes to regulate circadian rhythm",
					"Active recovery: light yoga, swimming, or walking on non-training days",
				},
			},
			{
				Title: "Stress Management & Mental Health",
				Items: []string{
					"Practice meditation or mindfulness for 10-15 minutes daily (app suggestions: Calm, Headspace)",
					"Regular breathwork: Box breathing (4-4-4-4) for stress reduction, 5 minutes daily",
					"Limit cortisol spikes: avoid excessive caffeine and late-night work sessions",
					"Schedule 2-3 social activities per week for mental well-being",
					"Consider journaling: 5-10 minutes daily to process emotions and set intentions",
				},
			},
			{
				Title: "Lab Follow-up & Monitoring",
				Items: []string{
					"Retest bloodwork in 8-12 weeks to measure progress",
					"Key biomarkers to track: Cholesterol profile, glucose, HbA1C, inflammation markers (CRP, homocysteine)",
					"Schedule annual comprehensive health assessment including cardiovascular screening",
					"Consider continuous glucose monitor (CGM) for 2-4 weeks to understand dietary impacts",
				},
			},
		},
		Timeline: Timeline{
			Week1To2:  "Establish baseline habits and sleep routine; start resistance training",
			Week3To4:  "Optimize nutrition; introduce HIIT and recovery protocols",
			Week5To8:  "Progressive overload in training; reassess energy and recovery",
			Week9To12: "Consolidate gains; prepare for follow-up bloodwork",
		},
		KeyMetrics: KeyMetrics{
			ProgressMarkers: []string{
				"Improved sleep quality and morning energy",
				"Increased strength (weight lifted or reps completed)",
				"Better recovery between sessions",
				"Sustained energy throughout the day",
			},
			CheckInFrequency: "Bi-weekly self-assessment; bloodwork at 12 weeks",
		},
		LabsReviewed: LabsReviewed{
			FileName:   meta.FileName,
			UploadedAt: uploadedAt,
		},
	}
}

// FallbackGenerator produces fallback plans, optionally after a simulated
// processing delay.
type FallbackGenerator struct {
	delay time.Duration
	clock Clock
}

func NewFallbackGenerator(delay time.Duration, clock Clock) *FallbackGenerator {
	if clock == nil {
		clock = RealClock()
	}
	return &FallbackGenerator{delay: delay, clock: clock}
}

// Generate waits for the configured delay and returns the fallback plan. A
// cancelled ctx only cuts the delay short.
func (g *FallbackGenerator) Generate(ctx context.Context, meta ReportMeta) *Plan {
	if g != nil && g.delay > 0 {
		_ = g.clock.Sleep(ctx, g.delay)
	}
	return GenerateFallbackPlan(meta)
}
