package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

// MetricImpact is the per-metric view of an intervention's effect. Excluded
// marks a zero-baseline sample that cannot contribute a ratio.
type MetricImpact struct {
	MetricName         string  `json:"metric_name"`
	ImprovementPercent float64 `json:"improvement_percent"`
	AbsoluteChange     float64 `json:"absolute_change"`
	Excluded           bool    `json:"excluded"`
}

type EffectivenessReport struct {
	InterventionID  uuid.UUID      `json:"intervention_id"`
	Score           float64        `json:"score"`
	Impacts         []MetricImpact `json:"impacts"`
	Recommendations []string       `json:"recommendations"`
}

// ImprovementRatio is the clamped relative improvement for one sample.
// ok=false when the baseline is zero: a data error, excluded from the mean.
func ImprovementRatio(before, after float64) (float64, bool) {
	if before == 0 {
		return 0, false
	}
	return clampFloat((after-before)/before, 0, 1), true
}

// EffectivenessScore is the mean improvement ratio over the usable samples,
// always within [0,1]. No usable samples yields 0.
func EffectivenessScore(samples []*types.MetricSample) float64 {
	sum := 0.0
	count := 0
	for _, sample := range samples {
		if sample == nil {
			continue
		}
		ratio, ok := ImprovementRatio(sample.ValueBefore, sample.ValueAfter)
		if !ok {
			continue
		}
		sum += ratio
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func MetricImpacts(samples []*types.MetricSample) []MetricImpact {
	out := make([]MetricImpact, 0, len(samples))
	for _, sample := range samples {
		if sample == nil {
			continue
		}
		impact := MetricImpact{
			MetricName:     sample.MetricName,
			AbsoluteChange: sample.ValueAfter - sample.ValueBefore,
		}
		if sample.ValueBefore == 0 {
			impact.Excluded = true
		} else {
			impact.ImprovementPercent = (sample.ValueAfter - sample.ValueBefore) / sample.ValueBefore * 100
		}
		out = append(out, impact)
	}
	return out
}

const lowImpactPercent = 10

// Recommendations builds the adjustment bundle for the measured score, plus a
// metric-specific focus entry for every under-performing metric regardless of
// the overall score.
func Recommendations(score float64, impacts []MetricImpact) []string {
	out := []string{}
	switch {
	case score < 0.3:
		out = append(out,
			"Comprehensively redesign the intervention approach",
			"Reassess the student's baseline needs before continuing",
			"Increase session frequency and add one-on-one support",
		)
	case score < 0.6:
		out = append(out,
			"Refine the current strategies where progress is slow",
			"Adjust pacing and shorten the check-in cadence",
		)
	}
	for _, impact := range impacts {
		if impact.Excluded {
			continue
		}
		if impact.ImprovementPercent < lowImpactPercent {
			out = append(out, fmt.Sprintf("Focus support on %s: improvement below %d%%", impact.MetricName, lowImpactPercent))
		}
	}
	return out
}

type EffectivenessService interface {
	Measure(ctx context.Context, interventionID uuid.UUID) (*EffectivenessReport, error)
	RecordSample(ctx context.Context, sample *types.MetricSample) (*types.MetricSample, error)
}

type effectivenessService struct {
	samples repos.MetricSampleRepo
	log     *logger.Logger
}

func NewEffectivenessService(samples repos.MetricSampleRepo, baseLog *logger.Logger) EffectivenessService {
	return &effectivenessService{
		samples: samples,
		log:     baseLog.With("service", "EffectivenessService"),
	}
}

func (s *effectivenessService) Measure(ctx context.Context, interventionID uuid.UUID) (*EffectivenessReport, error) {
	if interventionID == uuid.Nil {
		return nil, fmt.Errorf("intervention_id required")
	}

	samples, err := s.samples.GetByInterventionID(ctx, nil, interventionID)
	if err != nil {
		return nil, fmt.Errorf("load metric samples: %w", err)
	}

	for _, sample := range samples {
		if sample != nil && sample.ValueBefore == 0 {
			s.log.Warn("Metric sample has zero baseline, excluding from score",
				"intervention_id", interventionID,
				"metric", sample.MetricName,
			)
		}
	}

	score := EffectivenessScore(samples)
	impacts := MetricImpacts(samples)
	return &EffectivenessReport{
		InterventionID:  interventionID,
		Score:           score,
		Impacts:         impacts,
		Recommendations: Recommendations(score, impacts),
	}, nil
}

func (s *effectivenessService) RecordSample(ctx context.Context, sample *types.MetricSample) (*types.MetricSample, error) {
	if sample == nil {
		return nil, fmt.Errorf("sample required")
	}
	if sample.InterventionID == uuid.Nil {
		return nil, fmt.Errorf("intervention_id required")
	}
	if sample.MetricName == "" {
		return nil, fmt.Errorf("metric_name required")
	}
	return s.samples.Create(ctx, nil, sample)
}
