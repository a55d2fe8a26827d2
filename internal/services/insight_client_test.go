package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/yungbote/studentbridge-backend/internal/clients/openai"
)

type fakeGenerateJSON struct {
	system     string
	user       string
	schemaName string
	result     map[string]any
}

var _ openai.Client = (*fakeGenerateJSON)(nil)

func (f *fakeGenerateJSON) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	f.system = system
	f.user = user
	f.schemaName = schemaName
	return f.result, nil
}

func TestGenerateRoutesKindToSchema(t *testing.T) {
	cases := []struct {
		kind       InsightKind
		schemaName string
	}{
		{InsightRiskAnalysis, "risk_analysis_v1"},
		{InsightInterventionPlan, "intervention_plan_v1"},
		{InsightEffectivenessAnalysis, "effectiveness_analysis_v1"},
	}
	for _, tc := range cases {
		ai := &fakeGenerateJSON{result: map[string]any{"ok": true}}
		client := NewOpenAIInsightClient(ai, testLogger(t))

		got, err := client.Generate(context.Background(), InsightRequest{
			Kind:    tc.kind,
			Context: map[string]any{"student_id": "s-1"},
		})
		if err != nil {
			t.Fatalf("%s: Generate: %v", tc.kind, err)
		}
		if got["ok"] != true {
			t.Fatalf("%s: result = %v", tc.kind, got)
		}
		if ai.schemaName != tc.schemaName {
			t.Fatalf("%s: schema name = %q, want %q", tc.kind, ai.schemaName, tc.schemaName)
		}
		if ai.system == "" {
			t.Fatalf("%s: system prompt is empty", tc.kind)
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(ai.user), &payload); err != nil {
			t.Fatalf("%s: user payload is not JSON: %v", tc.kind, err)
		}
		if payload["student_id"] != "s-1" {
			t.Fatalf("%s: payload = %v, want the request context", tc.kind, payload)
		}
	}
}

func TestGenerateRejectsUnknownKind(t *testing.T) {
	client := NewOpenAIInsightClient(&fakeGenerateJSON{}, testLogger(t))
	if _, err := client.Generate(context.Background(), InsightRequest{Kind: "WEATHER"}); err == nil {
		t.Fatal("expected an error for an unknown insight kind")
	}
}
