package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/studentbridge-backend/internal/types"
)

// ConsolidatedPlan is one student's planning-cycle bundle: every generated
// intervention, ordered by urgency.
type ConsolidatedPlan struct {
	StudentID    uuid.UUID          `json:"student_id"`
	OverallLevel types.RiskLevel    `json:"overall_level"`
	Items        []ConsolidatedItem `json:"items"`
}

type ConsolidatedItem struct {
	InterventionID      uuid.UUID          `json:"intervention_id"`
	Category            types.RiskCategory `json:"category"`
	RiskLevel           types.RiskLevel    `json:"risk_level"`
	StrategicObjectives []string           `json:"strategic_objectives"`
	ActionSteps         []string           `json:"action_steps"`
	SupportMechanisms   []string           `json:"support_mechanisms"`
	ExpectedOutcomes    []string           `json:"expected_outcomes"`
}

// Consolidate merges a cycle's interventions into one bundle, sorted
// descending by each intervention's risk level at creation with ties broken
// by CategoryPriorityOrder, the same ordering rule the aggregator uses. The
// category key is the typed category stored on the intervention row itself,
// never re-derived from a display name.
func Consolidate(assessment *types.RiskAssessment, interventions []*types.Intervention) ConsolidatedPlan {
	plan := ConsolidatedPlan{Items: []ConsolidatedItem{}}
	if assessment != nil {
		plan.StudentID = assessment.StudentID
		plan.OverallLevel = assessment.OverallLevel
	}

	for _, iv := range interventions {
		if iv == nil {
			continue
		}
		if plan.StudentID == uuid.Nil {
			plan.StudentID = iv.StudentID
		}
		plan.Items = append(plan.Items, ConsolidatedItem{
			InterventionID:      iv.ID,
			Category:            iv.Category,
			RiskLevel:           iv.RiskLevelAtCreation,
			StrategicObjectives: types.StringList(iv.StrategicObjectives),
			ActionSteps:         types.StringList(iv.ActionSteps),
			SupportMechanisms:   types.StringList(iv.SupportMechanisms),
			ExpectedOutcomes:    types.StringList(iv.ExpectedOutcomes),
		})
	}

	sort.SliceStable(plan.Items, func(i, j int) bool {
		if plan.Items[i].RiskLevel != plan.Items[j].RiskLevel {
			return plan.Items[i].RiskLevel > plan.Items[j].RiskLevel
		}
		return types.CategoryRank(plan.Items[i].Category) < types.CategoryRank(plan.Items[j].Category)
	})
	return plan
}
