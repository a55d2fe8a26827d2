package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studentbridge-backend/internal/types"
)

func TestImprovementRatio(t *testing.T) {
	if ratio, ok := ImprovementRatio(100, 150); !ok || ratio != 0.5 {
		t.Fatalf("ImprovementRatio(100, 150) = (%v, %v), want (0.5, true)", ratio, ok)
	}
	// Gains past doubling clamp to 1.
	if ratio, ok := ImprovementRatio(100, 350); !ok || ratio != 1 {
		t.Fatalf("ImprovementRatio(100, 350) = (%v, %v), want (1, true)", ratio, ok)
	}
	// Regressions clamp to 0 rather than going negative.
	if ratio, ok := ImprovementRatio(100, 40); !ok || ratio != 0 {
		t.Fatalf("ImprovementRatio(100, 40) = (%v, %v), want (0, true)", ratio, ok)
	}
	// A zero baseline is a data error: excluded, never a divide.
	if _, ok := ImprovementRatio(0, 50); ok {
		t.Fatal("zero baseline must be excluded")
	}
}

func TestEffectivenessScoreExcludesZeroBaselines(t *testing.T) {
	samples := []*types.MetricSample{
		{MetricName: "gpa_points", ValueBefore: 100, ValueAfter: 150},
		{MetricName: "attendance_rate", ValueBefore: 0, ValueAfter: 90},
	}
	if got := EffectivenessScore(samples); got != 0.5 {
		t.Fatalf("score = %v, want 0.5 (zero-baseline sample excluded)", got)
	}
	if got := EffectivenessScore(nil); got != 0 {
		t.Fatalf("score with no samples = %v, want 0", got)
	}
	onlyBad := []*types.MetricSample{{MetricName: "x", ValueBefore: 0, ValueAfter: 1}}
	if got := EffectivenessScore(onlyBad); got != 0 {
		t.Fatalf("score with only excluded samples = %v, want 0", got)
	}
}

func TestRecommendationsBundles(t *testing.T) {
	low := Recommendations(0.2, nil)
	if len(low) != 3 || !strings.Contains(low[0], "redesign") {
		t.Fatalf("low-score bundle = %v, want 3-item redesign bundle", low)
	}
	mid := Recommendations(0.5, nil)
	if len(mid) != 2 || !strings.Contains(mid[0], "Refine") {
		t.Fatalf("mid-score bundle = %v, want 2-item refinement bundle", mid)
	}
	high := Recommendations(0.8, nil)
	if len(high) != 0 {
		t.Fatalf("high-score bundle = %v, want empty", high)
	}
}

func TestRecommendationsFlagsLowImpactMetrics(t *testing.T) {
	impacts := []MetricImpact{
		{MetricName: "gpa_points", ImprovementPercent: 5},
		{MetricName: "attendance_rate", ImprovementPercent: 40},
		{MetricName: "broken_metric", Excluded: true},
	}
	// Even a strong overall score still flags the lagging metric.
	got := Recommendations(0.9, impacts)
	if len(got) != 1 {
		t.Fatalf("recommendations = %v, want exactly one focus entry", got)
	}
	if !strings.Contains(got[0], "gpa_points") {
		t.Fatalf("focus entry = %q, want mention of gpa_points", got[0])
	}
}

func TestMeasureBuildsReport(t *testing.T) {
	log := testLogger(t)
	samples := &fakeSampleRepo{}
	svc := NewEffectivenessService(samples, log)
	ctx := context.Background()
	interventionID := uuid.New()

	for _, s := range []*types.MetricSample{
		{InterventionID: interventionID, MetricName: "gpa_points", ValueBefore: 100, ValueAfter: 150, RecordedAt: time.Now().UTC()},
		{InterventionID: interventionID, MetricName: "attendance_rate", ValueBefore: 0, ValueAfter: 80, RecordedAt: time.Now().UTC()},
	} {
		if _, err := svc.RecordSample(ctx, s); err != nil {
			t.Fatalf("RecordSample: %v", err)
		}
	}

	report, err := svc.Measure(ctx, interventionID)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if report.Score != 0.5 {
		t.Fatalf("score = %v, want 0.5", report.Score)
	}
	if len(report.Impacts) != 2 {
		t.Fatalf("impacts = %d, want 2", len(report.Impacts))
	}
	var excluded bool
	for _, impact := range report.Impacts {
		if impact.MetricName == "attendance_rate" {
			excluded = impact.Excluded
		}
	}
	if !excluded {
		t.Fatal("zero-baseline impact must be marked excluded")
	}
	// 0.5 lands in the refinement band.
	if len(report.Recommendations) < 2 {
		t.Fatalf("recommendations = %v, want refinement bundle", report.Recommendations)
	}
}

func TestRecordSampleValidation(t *testing.T) {
	log := testLogger(t)
	svc := NewEffectivenessService(&fakeSampleRepo{}, log)
	ctx := context.Background()

	if _, err := svc.RecordSample(ctx, nil); err == nil {
		t.Fatal("nil sample must be rejected")
	}
	if _, err := svc.RecordSample(ctx, &types.MetricSample{MetricName: "gpa_points"}); err == nil {
		t.Fatal("missing intervention id must be rejected")
	}
	if _, err := svc.RecordSample(ctx, &types.MetricSample{InterventionID: uuid.New()}); err == nil {
		t.Fatal("missing metric name must be rejected")
	}
}
