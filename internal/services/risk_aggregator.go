package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

// AggregateRisk reduces per-category levels to the single overall level and
// the category that carries it. The maximum level wins; equal levels are
// broken by CategoryPriorityOrder, so the attribution is deterministic.
func AggregateRisk(levels map[types.RiskCategory]types.RiskLevel) (types.RiskLevel, types.RiskCategory) {
	best := types.RiskLevel(0)
	var bestCat types.RiskCategory
	for _, cat := range types.CategoryPriorityOrder {
		level, ok := levels[cat]
		if !ok {
			continue
		}
		if level > best {
			best = level
			bestCat = cat
		}
	}
	if best == 0 {
		return types.RiskLow, ""
	}
	return best, bestCat
}

// TriggerSet returns the categories whose level meets or exceeds their
// configured threshold, in CategoryPriorityOrder.
func TriggerSet(levels map[types.RiskCategory]types.RiskLevel, thresholds map[types.RiskCategory]types.RiskLevel) []types.RiskCategory {
	out := []types.RiskCategory{}
	for _, cat := range types.CategoryPriorityOrder {
		level, ok := levels[cat]
		if !ok {
			continue
		}
		threshold, ok := thresholds[cat]
		if !ok {
			continue
		}
		if level >= threshold {
			out = append(out, cat)
		}
	}
	return out
}

type AssessmentService interface {
	// AssessStudent runs aggregation, scoring, and reduction, then appends the
	// resulting RiskAssessment to the student's log.
	AssessStudent(ctx context.Context, studentID uuid.UUID) (*types.RiskAssessment, error)
	History(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.RiskAssessment, error)
	// Latest returns the newest assessment on file, or repos.ErrNotFound when
	// the student has never been assessed.
	Latest(ctx context.Context, studentID uuid.UUID) (*types.RiskAssessment, error)
}

type assessmentService struct {
	signals     SignalService
	scorer      RiskScorer
	assessments repos.RiskAssessmentRepo
	thresholds  map[types.RiskCategory]types.RiskLevel
	log         *logger.Logger
}

func NewAssessmentService(
	signals SignalService,
	scorer RiskScorer,
	assessments repos.RiskAssessmentRepo,
	thresholds map[types.RiskCategory]types.RiskLevel,
	baseLog *logger.Logger,
) AssessmentService {
	return &assessmentService{
		signals:     signals,
		scorer:      scorer,
		assessments: assessments,
		thresholds:  thresholds,
		log:         baseLog.With("service", "AssessmentService"),
	}
}

func (s *assessmentService) AssessStudent(ctx context.Context, studentID uuid.UUID) (*types.RiskAssessment, error) {
	profile, err := s.signals.BuildProfile(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("build profile: %w", err)
	}

	score := s.scorer.Score(ctx, profile)
	overall, overallCat := AggregateRisk(score.Levels)
	triggered := TriggerSet(score.Levels, s.thresholds)

	assessment := &types.RiskAssessment{
		StudentID:       studentID,
		OverallLevel:    overall,
		OverallCategory: overallCat,
		Rationale:       score.Rationale,
		LowConfidence:   score.LowConfidence,
	}
	if err := assessment.SetLevels(score.Levels); err != nil {
		return nil, fmt.Errorf("encode category levels: %w", err)
	}
	if err := assessment.SetTriggered(triggered); err != nil {
		return nil, fmt.Errorf("encode trigger set: %w", err)
	}

	// The append must succeed: a scoring run with no durable assessment is a
	// fatal failure for this operation.
	if _, err := s.assessments.Append(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("append assessment: %w", err)
	}

	s.log.Info("Student assessed",
		"student_id", studentID,
		"overall_level", overall.String(),
		"overall_category", overallCat,
		"triggered", len(triggered),
		"low_confidence", score.LowConfidence,
	)
	return assessment, nil
}

func (s *assessmentService) History(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.RiskAssessment, error) {
	return s.assessments.GetByStudentID(ctx, nil, studentID, limit)
}

func (s *assessmentService) Latest(ctx context.Context, studentID uuid.UUID) (*types.RiskAssessment, error) {
	return s.assessments.GetLatest(ctx, nil, studentID)
}
