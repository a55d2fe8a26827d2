package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/yungbote/studentbridge-backend/internal/clients/redis"
	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

// PlanOutcome reports one planning cycle. A category can be skipped because
// its insight call failed (recoverable, other categories proceed) or because
// an open intervention already exists for it.
type PlanOutcome struct {
	Created []*types.Intervention
	Skipped []SkippedCategory
}

type SkippedCategory struct {
	Category types.RiskCategory
	Reason   string
}

type PlannerService interface {
	PlanInterventions(ctx context.Context, assessment *types.RiskAssessment) (*PlanOutcome, error)
}

type plannerService struct {
	insight       InsightClient
	interventions repos.InterventionRepo
	levels        repos.InterventionLevelRepo
	locker        redisclient.Locker
	lockTTL       time.Duration
	log           *logger.Logger
}

func NewPlannerService(
	insight InsightClient,
	interventions repos.InterventionRepo,
	levels repos.InterventionLevelRepo,
	locker redisclient.Locker,
	lockTTL time.Duration,
	baseLog *logger.Logger,
) PlannerService {
	return &plannerService{
		insight:       insight,
		interventions: interventions,
		levels:        levels,
		locker:        locker,
		lockTTL:       lockTTL,
		log:           baseLog.With("service", "PlannerService"),
	}
}

func (s *plannerService) PlanInterventions(ctx context.Context, assessment *types.RiskAssessment) (*PlanOutcome, error) {
	if assessment == nil {
		return nil, fmt.Errorf("assessment required")
	}

	levels := assessment.Levels()
	currentLevel := s.currentLevel(ctx, assessment.StudentID)
	outcome := &PlanOutcome{}

	for _, category := range assessment.Triggered() {
		created, err := s.planCategory(ctx, assessment, category, levels[category], currentLevel)
		if err != nil {
			// One category's failure never aborts the others.
			s.log.Warn("Planning failed for category, skipping",
				"student_id", assessment.StudentID,
				"category", category,
				"error", err,
			)
			outcome.Skipped = append(outcome.Skipped, SkippedCategory{Category: category, Reason: err.Error()})
			continue
		}
		if created == nil {
			outcome.Skipped = append(outcome.Skipped, SkippedCategory{Category: category, Reason: "open intervention exists"})
			continue
		}
		outcome.Created = append(outcome.Created, created)
	}
	return outcome, nil
}

// planCategory returns (nil, nil) on a duplicate guard hit.
func (s *plannerService) planCategory(
	ctx context.Context,
	assessment *types.RiskAssessment,
	category types.RiskCategory,
	level types.RiskLevel,
	currentLevel *types.InterventionLevel,
) (*types.Intervention, error) {
	lockKey := fmt.Sprintf("intervention:%s:%s", assessment.StudentID, category)
	release, acquired, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		// Another planner holds the key; it will create the intervention.
		return nil, nil
	}
	defer release()

	result, err := s.insight.Generate(ctx, InsightRequest{
		Kind: InsightInterventionPlan,
		Context: map[string]any{
			"category":           string(category),
			"risk_level":         level.String(),
			"overall_risk_level": assessment.OverallLevel.String(),
			"rationale":          assessment.Rationale,
			"support_level":      currentLevel.Level,
			"support_intensity":  currentLevel.SupportIntensity,
			"support_strategies": StrategyForLevel(currentLevel.Level),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("plan insight: %w", err)
	}

	if !level.Valid() {
		level = assessment.OverallLevel
	}
	row := &types.Intervention{
		StudentID:           assessment.StudentID,
		Category:            category,
		RiskLevelAtCreation: level,
		Status:              types.StatusActive,
		StrategicObjectives: types.StringListJSON(anyStringList(result["strategic_objectives"])),
		ActionSteps:         types.StringListJSON(anyStringList(result["action_steps"])),
		SupportMechanisms:   types.StringListJSON(anyStringList(result["support_mechanisms"])),
		ExpectedOutcomes:    types.StringListJSON(anyStringList(result["expected_outcomes"])),
	}

	created, err := s.interventions.CreateIfNoOpen(ctx, nil, row)
	if err != nil {
		if errors.Is(err, repos.ErrDuplicateActive) {
			return nil, nil
		}
		// Repository write failure is fatal for this category's operation.
		return nil, fmt.Errorf("create intervention: %w", err)
	}

	s.log.Info("Intervention created",
		"student_id", assessment.StudentID,
		"intervention_id", created.ID,
		"category", category,
		"risk_level", level.String(),
	)
	return created, nil
}

func (s *plannerService) currentLevel(ctx context.Context, studentID uuid.UUID) *types.InterventionLevel {
	row, err := s.levels.GetByStudentID(ctx, nil, studentID)
	if err != nil {
		if !errors.Is(err, repos.ErrNotFound) {
			s.log.Warn("Failed to load intervention level, assuming minimum", "student_id", studentID, "error", err)
		}
		return &types.InterventionLevel{
			StudentID:        studentID,
			Level:            types.MinInterventionLevel,
			SupportIntensity: float64(types.MinInterventionLevel) / float64(types.MaxInterventionLevel),
		}
	}
	return row
}
