package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

// recentWindow is how many of the student's latest interventions feed the
// recent-effectiveness mean.
const recentWindow = 3

// RecommendLevel applies the fixed scaling rules in priority order; the first
// matching rule wins. The result is always within [1,5] for any input.
func RecommendLevel(current int, trend types.Trend, potentialIndex, recentEffectiveness float64) int {
	current = types.ClampLevel(current)
	potentialIndex = clampFloat(potentialIndex, 0, 1)

	switch {
	case trend == types.TrendDeclining && potentialIndex < 0.4:
		return types.ClampLevel(current + 2)
	case trend == types.TrendStable && recentEffectiveness < 0.5:
		return types.ClampLevel(current + 1)
	case trend == types.TrendImproving && potentialIndex > 0.7:
		return types.ClampLevel(current - 1)
	default:
		return current
	}
}

// StrategyForLevel maps an intervention level to its fixed strategy bundle.
func StrategyForLevel(level int) []string {
	switch types.ClampLevel(level) {
	case 1:
		return []string{"Self-guided study resources", "Monthly progress self-report"}
	case 2:
		return []string{"Peer study group placement", "Biweekly advisor check-in"}
	case 3:
		return []string{"Weekly tutoring session", "Advisor-monitored study plan"}
	case 4:
		return []string{"Twice-weekly tutoring", "Weekly advisor meeting", "Family progress updates"}
	default:
		return []string{"Weekly comprehensive support plan", "Dedicated case manager", "Daily check-in during critical periods"}
	}
}

func SupportIntensity(level int) float64 {
	return float64(types.ClampLevel(level)) / float64(types.MaxInterventionLevel)
}

// PotentialIndex estimates a student's capacity for improvement from the
// social-emotional signals. Without that source the estimate is neutral.
func PotentialIndex(profile *types.SignalProfile) float64 {
	if profile == nil || !profile.HasSource(types.SignalSocialEmotional) {
		return 0.5
	}
	return clampFloat((profile.EngagementScore+profile.WellbeingScore)/2, 0, 1)
}

type ScalerService interface {
	// Rescale recomputes and persists the student's intervention level from
	// the given trend and potential index.
	Rescale(ctx context.Context, studentID uuid.UUID, trend types.Trend, potentialIndex float64) (*types.InterventionLevel, error)
	// DeriveTrend compares the student's two latest assessments.
	DeriveTrend(ctx context.Context, studentID uuid.UUID) (types.Trend, error)
	CurrentLevel(ctx context.Context, studentID uuid.UUID) (*types.InterventionLevel, error)
}

type scalerService struct {
	levels        repos.InterventionLevelRepo
	interventions repos.InterventionRepo
	samples       repos.MetricSampleRepo
	assessments   repos.RiskAssessmentRepo
	log           *logger.Logger
}

func NewScalerService(
	levels repos.InterventionLevelRepo,
	interventions repos.InterventionRepo,
	samples repos.MetricSampleRepo,
	assessments repos.RiskAssessmentRepo,
	baseLog *logger.Logger,
) ScalerService {
	return &scalerService{
		levels:        levels,
		interventions: interventions,
		samples:       samples,
		assessments:   assessments,
		log:           baseLog.With("service", "ScalerService"),
	}
}

func (s *scalerService) Rescale(ctx context.Context, studentID uuid.UUID, trend types.Trend, potentialIndex float64) (*types.InterventionLevel, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("student_id required")
	}

	current := types.MinInterventionLevel
	row, err := s.levels.GetByStudentID(ctx, nil, studentID)
	if err != nil && !errors.Is(err, repos.ErrNotFound) {
		return nil, fmt.Errorf("load intervention level: %w", err)
	}
	if row != nil {
		current = row.Level
	}

	recent, err := s.recentEffectiveness(ctx, studentID)
	if err != nil {
		// Recoverable: scale on trend and potential alone.
		s.log.Warn("Failed to compute recent effectiveness, using 0", "student_id", studentID, "error", err)
		recent = 0
	}

	recommended := RecommendLevel(current, trend, potentialIndex, recent)
	updated := &types.InterventionLevel{
		StudentID:        studentID,
		Level:            recommended,
		SupportIntensity: SupportIntensity(recommended),
	}
	if err := s.levels.Upsert(ctx, nil, updated); err != nil {
		return nil, fmt.Errorf("persist intervention level: %w", err)
	}

	s.log.Info("Intervention level rescaled",
		"student_id", studentID,
		"previous", current,
		"recommended", recommended,
		"trend", trend,
		"potential_index", potentialIndex,
		"recent_effectiveness", recent,
	)
	return updated, nil
}

// recentEffectiveness is the mean measured score of the student's last up to
// three interventions. Interventions with no usable samples are excluded.
func (s *scalerService) recentEffectiveness(ctx context.Context, studentID uuid.UUID) (float64, error) {
	rows, err := s.interventions.RecentByStudent(ctx, nil, studentID, recentWindow)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	count := 0
	for _, row := range rows {
		samples, err := s.samples.GetByInterventionID(ctx, nil, row.ID)
		if err != nil {
			return 0, err
		}
		usable := false
		for _, sample := range samples {
			if sample != nil && sample.ValueBefore != 0 {
				usable = true
				break
			}
		}
		if !usable {
			continue
		}
		sum += EffectivenessScore(samples)
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}

func (s *scalerService) DeriveTrend(ctx context.Context, studentID uuid.UUID) (types.Trend, error) {
	rows, err := s.assessments.GetByStudentID(ctx, nil, studentID, 2)
	if err != nil {
		return types.TrendStable, err
	}
	if len(rows) < 2 {
		return types.TrendStable, nil
	}
	latest, previous := rows[0], rows[1]
	switch {
	case latest.OverallLevel < previous.OverallLevel:
		return types.TrendImproving, nil
	case latest.OverallLevel > previous.OverallLevel:
		return types.TrendDeclining, nil
	default:
		return types.TrendStable, nil
	}
}

func (s *scalerService) CurrentLevel(ctx context.Context, studentID uuid.UUID) (*types.InterventionLevel, error) {
	row, err := s.levels.GetByStudentID(ctx, nil, studentID)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return &types.InterventionLevel{
				StudentID:        studentID,
				Level:            types.MinInterventionLevel,
				SupportIntensity: SupportIntensity(types.MinInterventionLevel),
			}, nil
		}
		return nil, err
	}
	return row, nil
}
