package services

import (
	"context"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

// ScoreResult is one scoring run over a student profile. LowConfidence marks
// any category that fell back to its documented default.
type ScoreResult struct {
	Levels        map[types.RiskCategory]types.RiskLevel
	Rationale     string
	LowConfidence bool
}

type RiskScorer interface {
	Score(ctx context.Context, profile *types.SignalProfile) ScoreResult
}

type riskScorer struct {
	insight InsightClient
	log     *logger.Logger
}

func NewRiskScorer(insight InsightClient, baseLog *logger.Logger) RiskScorer {
	return &riskScorer{
		insight: insight,
		log:     baseLog.With("service", "RiskScorer"),
	}
}

// Score never fails: a missing or malformed insight result degrades the
// affected categories to MODERATE (or the deterministic floor, whichever is
// higher) and flags the result as low-confidence.
func (s *riskScorer) Score(ctx context.Context, profile *types.SignalProfile) ScoreResult {
	floors := floorLevels(profile)

	result, err := s.insight.Generate(ctx, InsightRequest{
		Kind: InsightRiskAnalysis,
		Context: map[string]any{
			"gpa":                    profile.GPA,
			"absence_count":          profile.AbsenceCount,
			"tardy_count":            profile.TardyCount,
			"disciplinary_incidents": profile.DisciplinaryIncidents,
			"engagement_score":       profile.EngagementScore,
			"wellbeing_score":        profile.WellbeingScore,
			"financial_aid_status":   profile.FinancialAidStatus,
			"sources":                profile.Sources,
		},
	})
	if err != nil {
		s.log.Warn("Risk analysis insight failed, scoring from signal floors only",
			"student_id", profile.StudentID,
			"error", err,
		)
		out := ScoreResult{Levels: map[types.RiskCategory]types.RiskLevel{}, LowConfidence: true}
		for _, cat := range types.CategoryPriorityOrder {
			level := types.RiskModerate
			if floor, ok := floors[cat]; ok && floor > level {
				level = floor
			}
			out.Levels[cat] = level
		}
		return out
	}

	out := ScoreResult{Levels: map[types.RiskCategory]types.RiskLevel{}}
	for _, cat := range types.CategoryPriorityOrder {
		level, ok := extractCategoryLevel(result, cat)
		if !ok {
			level = types.RiskModerate
			out.LowConfidence = true
			s.log.Warn("Insight result missing or malformed for category, defaulting to MODERATE",
				"student_id", profile.StudentID,
				"category", cat,
			)
		}
		if floor, hasFloor := floors[cat]; hasFloor && floor > level {
			level = floor
		}
		out.Levels[cat] = level
	}
	out.Rationale = anyString(result["overall_rationale"])
	return out
}

func extractCategoryLevel(result map[string]any, cat types.RiskCategory) (types.RiskLevel, bool) {
	entry, ok := anyMap(result[string(cat)])
	if !ok {
		return 0, false
	}
	return types.ParseRiskLevel(anyString(entry["level"]))
}

// floorLevels derives deterministic minimum levels from the raw signals, so
// a degraded insight call still yields a usable assessment. Categories with
// no backing source get no floor.
func floorLevels(profile *types.SignalProfile) map[types.RiskCategory]types.RiskLevel {
	floors := map[types.RiskCategory]types.RiskLevel{}
	if profile == nil {
		return floors
	}

	if profile.HasSource(types.SignalAcademic) {
		switch {
		case profile.GPA < 1.5:
			floors[types.CategoryAcademic] = types.RiskCritical
		case profile.GPA < 2.0:
			floors[types.CategoryAcademic] = types.RiskHigh
		case profile.GPA < 2.7:
			floors[types.CategoryAcademic] = types.RiskModerate
		default:
			floors[types.CategoryAcademic] = types.RiskLow
		}
	}

	if profile.HasSource(types.SignalAttendance) {
		switch {
		case profile.AbsenceCount >= 20:
			floors[types.CategoryAttendance] = types.RiskCritical
		case profile.AbsenceCount >= 10:
			floors[types.CategoryAttendance] = types.RiskHigh
		case profile.AbsenceCount >= 5 || profile.TardyCount >= 10:
			floors[types.CategoryAttendance] = types.RiskModerate
		default:
			floors[types.CategoryAttendance] = types.RiskLow
		}
	}

	if profile.HasSource(types.SignalBehavioral) {
		switch {
		case profile.DisciplinaryIncidents >= 6:
			floors[types.CategoryBehavioral] = types.RiskCritical
		case profile.DisciplinaryIncidents >= 3:
			floors[types.CategoryBehavioral] = types.RiskHigh
		case profile.DisciplinaryIncidents >= 1:
			floors[types.CategoryBehavioral] = types.RiskModerate
		default:
			floors[types.CategoryBehavioral] = types.RiskLow
		}
	}

	if profile.HasSource(types.SignalSocialEmotional) {
		switch {
		case profile.WellbeingScore < 0.3:
			floors[types.CategoryEmotional] = types.RiskHigh
		case profile.WellbeingScore < 0.5:
			floors[types.CategoryEmotional] = types.RiskModerate
		default:
			floors[types.CategoryEmotional] = types.RiskLow
		}
		switch {
		case profile.EngagementScore < 0.3:
			floors[types.CategorySocialEmotional] = types.RiskHigh
		case profile.EngagementScore < 0.5:
			floors[types.CategorySocialEmotional] = types.RiskModerate
		default:
			floors[types.CategorySocialEmotional] = types.RiskLow
		}
	}

	if profile.HasSource(types.SignalFinancial) {
		switch profile.FinancialAidStatus {
		case "delinquent":
			floors[types.CategoryFinancial] = types.RiskHigh
		case "at_risk":
			floors[types.CategoryFinancial] = types.RiskModerate
		default:
			floors[types.CategoryFinancial] = types.RiskLow
		}
	}

	return floors
}
