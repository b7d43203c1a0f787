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

// Package document renders action plans as PDF files.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-pdf/fpdf"
)

var ErrEmptyPlan = errors.New("plan has no content")

// Meta is printed in the document header.
type Meta struct {
	PlanId    string
	FileName  string
	ReadyAt   *time.Time
	Generated time.Time
}

// knownKeys are rendered in this order, before any other keys.
var knownKeys = []string{"summary", "recommendations", "timeline", "keyMetrics", "labsReviewed"}

var headings = map[string]string{
	"summary":         "Summary",
	"recommendations": "Recommendations",
	"timeline":        "Timeline",
	"keyMetrics":      "Key Metrics",
	"labsReviewed":    "Labs Reviewed",
}

type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// RenderPlan lays out planJSON as an A4 PDF. Plans produced by the AI service
// may carry arbitrary extra fields; those are printed after the known sections.
func RenderPlan(meta Meta, planJSON []byte) ([]byte, error) {
	var decoded any
	if err := sonic.Unmarshal(planJSON, &decoded); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	plan, ok := decoded.(map[string]any)
	if !ok {
		if isEmpty(decoded) {
			return nil, ErrEmptyPlan
		}
		plan = map[string]any{"recommendations": decoded}
	}
	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Action Plan", true)
	pdf.SetCreator("cyborg", true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	r.header(meta)

	for _, key := range knownKeys {
		if v, ok := plan[key]; ok {
			r.section(headings[key], v)
		}
	}
	extra := make([]string, 0)
	for key := range plan {
		if _, ok := headings[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		r.section(humanize(key), plan[key])
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *renderer) header(meta Meta) {
	r.pdf.SetFont("Helvetica", "B", 18)
	r.pdf.CellFormat(0, 10, "Your Personalized Action Plan", "", 1, "L", false, 0, "")
	r.pdf.SetFont("Helvetica", "", 9)
	r.pdf.SetTextColor(100, 100, 100)
	lines := []string{"Plan: " + meta.PlanId}
	if meta.FileName != "" {
		lines = append(lines, "Source report: "+meta.FileName)
	}
	if meta.ReadyAt != nil {
		lines = append(lines, "Generated: "+meta.ReadyAt.UTC().Format(time.RFC1123))
	}
	if !meta.Generated.IsZero() {
		lines = append(lines, "Exported: "+meta.Generated.UTC().Format(time.RFC1123))
	}
	for _, l := range lines {
		r.pdf.CellFormat(0, 5, r.tr(l), "", 1, "L", false, 0, "")
	}
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.Ln(4)
}

func (r *renderer) section(title string, v any) {
	r.pdf.SetFont("Helvetica", "B", 14)
	r.pdf.CellFormat(0, 9, r.tr(title), "B", 1, "L", false, 0, "")
	r.pdf.Ln(2)
	r.value(v, 0)
	r.pdf.Ln(3)
}

func (r *renderer) value(v any, depth int) {
	indent := float64(depth) * 5
	switch val := v.(type) {
	case map[string]any:
		if title, ok := val["title"].(string); ok {
			r.subheading(title, indent)
			if items, ok := val["items"]; ok {
				r.value(items, depth+1)
			}
			return
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch inner := val[k].(type) {
			case map[string]any, []any:
				r.subheading(humanize(k), indent)
				r.value(inner, depth+1)
			default:
				r.text(humanize(k)+": "+scalar(inner), indent)
			}
		}
	case []any:
		for _, item := range val {
			switch item.(type) {
			case map[string]any, []any:
				r.value(item, depth)
			default:
				r.text("- "+scalar(item), indent)
			}
		}
	default:
		r.text(scalar(val), indent)
	}
}

func (r *renderer) subheading(s string, indent float64) {
	r.pdf.SetFont("Helvetica", "B", 11)
	r.pdf.SetX(r.leftMargin() + indent)
	r.pdf.MultiCell(0, 6, r.tr(s), "", "L", false)
}

func (r *renderer) text(s string, indent float64) {
	r.pdf.SetFont("Helvetica", "", 10)
	r.pdf.SetX(r.leftMargin() + indent)
	r.pdf.MultiCell(0, 5, r.tr(s), "", "L", false)
}

func (r *renderer) leftMargin() float64 {
	left, _, _, _ := r.pdf.GetMargins()
	return left
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	}
	return false
}

func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}

// humanize turns "week1to2" into "Week 1 to 2" and "checkInFrequency" into
// "Check In Frequency".
func humanize(key string) string {
	var b strings.Builder
	runes := []rune(key)
	for i, c := range runes {
		if i == 0 {
			b.WriteString(strings.ToUpper(string(c)))
			continue
		}
		prev := runes[i-1]
		switch {
		case c >= 'A' && c <= 'Z' && !(prev >= 'A' && prev <= 'Z'):
			b.WriteRune(' ')
		case c >= '0' && c <= '9' && !(prev >= '0' && prev <= '9'):
			b.WriteRune(' ')
		case prev >= '0' && prev <= '9' && !(c >= '0' && c <= '9'):
			b.WriteRune(' ')
		}
		b.WriteRune(c)
	}
	return b.String()
}
