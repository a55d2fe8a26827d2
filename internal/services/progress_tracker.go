package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

// TrackResult is one tracking cycle's outcome. Skipped means the insight call
// failed and the intervention was left untouched (recoverable).
type TrackResult struct {
	InterventionID uuid.UUID                `json:"intervention_id"`
	Status         types.InterventionStatus `json:"status"`
	Snapshot       *types.ProgressSnapshot  `json:"snapshot,omitempty"`
	Skipped        bool                     `json:"skipped"`
	Terminal       bool                     `json:"terminal"`
}

type TrackerService interface {
	Track(ctx context.Context, interventionID uuid.UUID) (*TrackResult, error)
}

type trackerService struct {
	insight       InsightClient
	interventions repos.InterventionRepo
	escalation    EscalationService
	log           *logger.Logger
}

func NewTrackerService(
	insight InsightClient,
	interventions repos.InterventionRepo,
	escalation EscalationService,
	baseLog *logger.Logger,
) TrackerService {
	return &trackerService{
		insight:       insight,
		interventions: interventions,
		escalation:    escalation,
		log:           baseLog.With("service", "TrackerService"),
	}
}

// classifyAssessment maps the analysis text onto the status machine. The
// match set is fixed; anything else stays IN_PROGRESS.
func classifyAssessment(text string) types.InterventionStatus {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "critical intervention required"):
		return types.StatusCriticalReview
	case strings.Contains(lower, "highly effective"):
		return types.StatusSuccessful
	case strings.Contains(lower, "needs modification"), strings.Contains(lower, "needs adjustment"):
		return types.StatusNeedsAdjustment
	default:
		return types.StatusInProgress
	}
}

func (s *trackerService) Track(ctx context.Context, interventionID uuid.UUID) (*TrackResult, error) {
	row, err := s.interventions.GetByID(ctx, nil, interventionID)
	if err != nil {
		return nil, fmt.Errorf("load intervention: %w", err)
	}
	if row.Status.Terminal() {
		out := &TrackResult{InterventionID: row.ID, Status: row.Status, Terminal: true}
		// A CRITICAL_REVIEW row may still lack its ticket if a prior
		// escalation attempt failed after the status committed. CreateTicket
		// is idempotent per intervention, so retry here until one exists.
		if row.Status == types.StatusCriticalReview {
			if err := s.escalate(ctx, row); err != nil {
				return out, fmt.Errorf("escalate intervention: %w", err)
			}
		}
		return out, nil
	}

	result, err := s.insight.Generate(ctx, InsightRequest{
		Kind: InsightEffectivenessAnalysis,
		Context: map[string]any{
			"category":             string(row.Category),
			"risk_level":           row.RiskLevelAtCreation.String(),
			"status":               string(row.Status),
			"strategic_objectives": types.StringList(row.StrategicObjectives),
			"action_steps":         types.StringList(row.ActionSteps),
			"expected_outcomes":    types.StringList(row.ExpectedOutcomes),
			"history":              snapshotHistory(row.Snapshots),
		},
	})
	if err != nil {
		s.log.Warn("Effectiveness insight failed, skipping tracking cycle",
			"intervention_id", interventionID,
			"error", err,
		)
		return &TrackResult{InterventionID: row.ID, Status: row.Status, Skipped: true}, nil
	}

	progress, ok := anyFloat(result["progress_percentage"])
	if !ok {
		progress = 0
	}
	score, ok := anyFloat(result["effectiveness_score"])
	if !ok {
		score = 0
	}
	snapshot := &types.ProgressSnapshot{
		InterventionID:     row.ID,
		ProgressPercentage: clampFloat(progress, 0, 100),
		EffectivenessScore: clampFloat(score, 0, 1),
		CurrentPhase:       anyString(result["current_phase"]),
		RecordedAt:         time.Now().UTC(),
	}
	if err := snapshot.SetMilestones(extractMilestones(result["milestones"])); err != nil {
		return nil, fmt.Errorf("encode milestones: %w", err)
	}

	newStatus := classifyAssessment(anyString(result["assessment_text"]))

	updated, err := s.interventions.UpdateStatusWithSnapshot(ctx, nil, row.ID, newStatus, snapshot)
	if err != nil {
		if errors.Is(err, repos.ErrTerminalStatus) {
			// A concurrent tracker terminated it between our read and write.
			return &TrackResult{InterventionID: row.ID, Status: row.Status, Terminal: true}, nil
		}
		return nil, fmt.Errorf("update intervention status: %w", err)
	}

	out := &TrackResult{
		InterventionID: updated.ID,
		Status:         updated.Status,
		Snapshot:       snapshot,
		Terminal:       updated.Status.Terminal(),
	}

	if updated.Status == types.StatusCriticalReview {
		if err := s.escalate(ctx, updated); err != nil {
			return out, fmt.Errorf("escalate intervention: %w", err)
		}
	}

	s.log.Info("Intervention tracked",
		"intervention_id", updated.ID,
		"status", updated.Status,
		"progress", snapshot.ProgressPercentage,
		"effectiveness", snapshot.EffectivenessScore,
	)
	return out, nil
}

func (s *trackerService) escalate(ctx context.Context, row *types.Intervention) error {
	description := fmt.Sprintf("Intervention %s (%s) requires critical review", row.ID, row.Category)
	_, err := s.escalation.CreateTicket(ctx, row.ID, row.StudentID, types.TicketPriorityHigh, description)
	return err
}

func snapshotHistory(snapshots []types.ProgressSnapshot) []map[string]any {
	out := make([]map[string]any, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, map[string]any{
			"progress_percentage": snap.ProgressPercentage,
			"effectiveness_score": snap.EffectivenessScore,
			"current_phase":       snap.CurrentPhase,
			"recorded_at":         snap.RecordedAt,
		})
	}
	return out
}

func extractMilestones(v any) []types.Milestone {
	raw, ok := v.([]any)
	if !ok {
		return []types.Milestone{}
	}
	now := time.Now().UTC()
	out := make([]types.Milestone, 0, len(raw))
	for _, item := range raw {
		entry, ok := anyMap(item)
		if !ok {
			continue
		}
		name := anyString(entry["name"])
		if name == "" {
			continue
		}
		completed, _ := entry["completed"].(bool)
		milestone := types.Milestone{Name: name, Completed: completed}
		if completed {
			milestone.CompletedAt = &now
		}
		out = append(out, milestone)
	}
	return out
}
