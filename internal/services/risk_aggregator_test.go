package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/studentbridge-backend/internal/config"
	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

func TestAggregateRiskMaxWins(t *testing.T) {
	levels := map[types.RiskCategory]types.RiskLevel{
		types.CategoryAcademic:         types.RiskHigh,
		types.CategoryEmotional:        types.RiskCritical,
		types.CategorySkillDevelopment: types.RiskLow,
	}
	overall, cat := AggregateRisk(levels)
	if overall != types.RiskCritical {
		t.Fatalf("overall = %s, want CRITICAL", overall)
	}
	if cat != types.CategoryEmotional {
		t.Fatalf("overall category = %s, want emotional", cat)
	}
}

func TestAggregateRiskTieBreakIsDeterministic(t *testing.T) {
	// attendance outranks behavioral in the priority order, so a HIGH tie
	// must always attribute to attendance no matter the map iteration order.
	levels := map[types.RiskCategory]types.RiskLevel{
		types.CategoryBehavioral: types.RiskHigh,
		types.CategoryAttendance: types.RiskHigh,
		types.CategoryFinancial:  types.RiskLow,
	}
	for i := 0; i < 50; i++ {
		overall, cat := AggregateRisk(levels)
		if overall != types.RiskHigh || cat != types.CategoryAttendance {
			t.Fatalf("iteration %d: got (%s, %s), want (HIGH, attendance)", i, overall, cat)
		}
	}
}

func TestAggregateRiskEmptyInput(t *testing.T) {
	overall, cat := AggregateRisk(nil)
	if overall != types.RiskLow || cat != "" {
		t.Fatalf("got (%s, %q), want (LOW, empty)", overall, cat)
	}
}

func TestTriggerSetThresholds(t *testing.T) {
	levels := map[types.RiskCategory]types.RiskLevel{
		types.CategoryAcademic:          types.RiskModerate,
		types.CategoryEmotional:         types.RiskModerate,
		types.CategorySkillDevelopment:  types.RiskLow,
		types.CategoryCareerPreparation: types.RiskHigh,
	}
	got := TriggerSet(levels, config.DefaultThresholds())

	// academic MODERATE meets its MODERATE threshold; emotional MODERATE is
	// below its HIGH threshold; careerPreparation HIGH meets HIGH.
	want := []types.RiskCategory{types.CategoryAcademic, types.CategoryCareerPreparation}
	if len(got) != len(want) {
		t.Fatalf("triggered = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("triggered[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTriggerSetOrderFollowsPriority(t *testing.T) {
	levels := map[types.RiskCategory]types.RiskLevel{}
	for _, cat := range types.CategoryPriorityOrder {
		levels[cat] = types.RiskCritical
	}
	thresholds := map[types.RiskCategory]types.RiskLevel{}
	for _, cat := range types.CategoryPriorityOrder {
		thresholds[cat] = types.RiskLow
	}
	got := TriggerSet(levels, thresholds)
	if len(got) != len(types.CategoryPriorityOrder) {
		t.Fatalf("triggered %d categories, want %d", len(got), len(types.CategoryPriorityOrder))
	}
	for i, cat := range types.CategoryPriorityOrder {
		if got[i] != cat {
			t.Fatalf("triggered[%d] = %s, want %s", i, got[i], cat)
		}
	}
}

func TestAssessStudentAppendsAssessment(t *testing.T) {
	log := testLogger(t)
	studentID := uuid.New()

	signals := &fakeSignalRepo{}
	signals.rows = append(signals.rows, &types.StudentSignal{
		ID:         uuid.New(),
		StudentID:  studentID,
		Source:     types.SignalAcademic,
		Payload:    datatypes.JSON([]byte(`{"gpa": 1.8}`)),
		ObservedAt: time.Now().UTC(),
	})

	insight := &fakeInsight{results: map[InsightKind]map[string]any{
		InsightRiskAnalysis: healthyRiskAnalysis(),
	}}
	assessments := &fakeAssessmentRepo{}

	svc := NewAssessmentService(
		NewSignalService(signals, log),
		NewRiskScorer(insight, log),
		assessments,
		config.DefaultThresholds(),
		log,
	)

	got, err := svc.AssessStudent(context.Background(), studentID)
	if err != nil {
		t.Fatalf("AssessStudent: %v", err)
	}
	if got.OverallLevel != types.RiskCritical {
		t.Fatalf("overall = %s, want CRITICAL", got.OverallLevel)
	}
	if got.OverallCategory != types.CategoryEmotional {
		t.Fatalf("overall category = %s, want emotional", got.OverallCategory)
	}
	if len(assessments.rows) != 1 {
		t.Fatalf("appended %d assessments, want 1", len(assessments.rows))
	}

	triggered := got.Triggered()
	want := map[types.RiskCategory]bool{
		types.CategoryAcademic:  true,
		types.CategoryEmotional: true,
	}
	if len(triggered) != len(want) {
		t.Fatalf("triggered = %v, want academic and emotional", triggered)
	}
	for _, cat := range triggered {
		if !want[cat] {
			t.Fatalf("unexpected triggered category %s", cat)
		}
	}
}

func TestLatestReturnsNewestAssessment(t *testing.T) {
	log := testLogger(t)
	studentID := uuid.New()
	assessments := &fakeAssessmentRepo{}

	svc := NewAssessmentService(
		NewSignalService(&fakeSignalRepo{}, log),
		NewRiskScorer(&fakeInsight{}, log),
		assessments,
		config.DefaultThresholds(),
		log,
	)

	if _, err := svc.Latest(context.Background(), studentID); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("Latest on empty log = %v, want ErrNotFound", err)
	}

	older := &types.RiskAssessment{StudentID: studentID, OverallLevel: types.RiskLow}
	newer := &types.RiskAssessment{StudentID: studentID, OverallLevel: types.RiskHigh}
	for _, row := range []*types.RiskAssessment{older, newer} {
		if _, err := assessments.Append(context.Background(), nil, row); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := svc.Latest(context.Background(), studentID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != newer.ID {
		t.Fatalf("Latest returned %s, want the newest row %s", got.ID, newer.ID)
	}
}
