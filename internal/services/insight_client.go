package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yungbote/studentbridge-backend/internal/clients/openai"
	"github.com/yungbote/studentbridge-backend/internal/logger"
)

type InsightKind string

const (
	InsightRiskAnalysis          InsightKind = "RISK_ANALYSIS"
	InsightInterventionPlan      InsightKind = "INTERVENTION_PLAN"
	InsightEffectivenessAnalysis InsightKind = "EFFECTIVENESS_ANALYSIS"
)

type InsightRequest struct {
	Kind    InsightKind
	Context map[string]any
}

// InsightClient is the insight-generation collaborator. Implementations must
// return already-structured data under the declared per-kind schema; callers
// substitute documented defaults for anything missing or malformed and never
// propagate a parse failure upward.
type InsightClient interface {
	Generate(ctx context.Context, req InsightRequest) (map[string]any, error)
}

type openaiInsightClient struct {
	ai  openai.Client
	log *logger.Logger
}

func NewOpenAIInsightClient(ai openai.Client, baseLog *logger.Logger) InsightClient {
	return &openaiInsightClient{
		ai:  ai,
		log: baseLog.With("service", "InsightClient"),
	}
}

func (c *openaiInsightClient) Generate(ctx context.Context, req InsightRequest) (map[string]any, error) {
	system, schemaName, schema, err := insightSchema(req.Kind)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req.Context)
	if err != nil {
		return nil, fmt.Errorf("encode insight context: %w", err)
	}

	result, err := c.ai.GenerateJSON(ctx, system, string(payload), schemaName, schema)
	if err != nil {
		return nil, fmt.Errorf("insight %s: %w", req.Kind, err)
	}
	return result, nil
}

func insightSchema(kind InsightKind) (system string, schemaName string, schema map[string]any, err error) {
	switch kind {
	case InsightRiskAnalysis:
		return systemRiskAnalysis, "risk_analysis_v1", riskAnalysisSchema(), nil
	case InsightInterventionPlan:
		return systemInterventionPlan, "intervention_plan_v1", interventionPlanSchema(), nil
	case InsightEffectivenessAnalysis:
		return systemEffectivenessAnalysis, "effectiveness_analysis_v1", effectivenessAnalysisSchema(), nil
	default:
		return "", "", nil, fmt.Errorf("unknown insight kind %q", kind)
	}
}

const systemRiskAnalysis = `You are a student-support risk analyst. Given a student's aggregated signals, rate each risk category as LOW, MODERATE, HIGH, or CRITICAL and explain your overall reasoning briefly. Base every rating strictly on the provided data.`

const systemInterventionPlan = `You are a student-support intervention planner. Given a student's risk category, risk level, and current support level, produce a concrete remediation plan. Steps must be specific and actionable; keep each item to one sentence.`

const systemEffectivenessAnalysis = `You are a student-support progress analyst. Given an intervention's plan and its progress history, estimate progress and effectiveness, describe the current phase, and give an overall assessment in plain language. If the intervention works well, say "highly effective"; if it needs changes, say "needs adjustment"; if the situation is deteriorating badly, say "critical intervention required".`

func riskAnalysisSchema() map[string]any {
	categoryEntry := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"level":     map[string]any{"type": "string", "enum": []string{"LOW", "MODERATE", "HIGH", "CRITICAL"}},
			"rationale": map[string]any{"type": "string"},
		},
		"required":             []string{"level", "rationale"},
		"additionalProperties": false,
	}
	properties := map[string]any{}
	required := []string{}
	for _, cat := range []string{
		"academic", "emotional", "skillDevelopment", "careerPreparation",
		"attendance", "behavioral", "financial", "socialEmotional",
	} {
		properties[cat] = categoryEntry
		required = append(required, cat)
	}
	properties["overall_rationale"] = map[string]any{"type": "string"}
	required = append(required, "overall_rationale")
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func interventionPlanSchema() map[string]any {
	stringList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"strategic_objectives": stringList,
			"action_steps":         stringList,
			"support_mechanisms":   stringList,
			"expected_outcomes":    stringList,
		},
		"required":             []string{"strategic_objectives", "action_steps", "support_mechanisms", "expected_outcomes"},
		"additionalProperties": false,
	}
}

func effectivenessAnalysisSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"progress_percentage": map[string]any{"type": "number"},
			"effectiveness_score": map[string]any{"type": "number"},
			"current_phase":       map[string]any{"type": "string"},
			"assessment_text":     map[string]any{"type": "string"},
			"milestones": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":      map[string]any{"type": "string"},
						"completed": map[string]any{"type": "boolean"},
					},
					"required":             []string{"name", "completed"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"progress_percentage", "effectiveness_score", "current_phase", "assessment_text", "milestones"},
		"additionalProperties": false,
	}
}
