package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

func testLogger(t interface{ Fatalf(string, ...any) }) *logger.Logger {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// fakeInsight answers per-kind with canned results or errors and records
// every request it saw.
type fakeInsight struct {
	mu       sync.Mutex
	results  map[InsightKind]map[string]any
	errs     map[InsightKind]error
	requests []InsightRequest
	// perCall lets a test fail only selected calls of one kind.
	perCall []func(req InsightRequest) (map[string]any, error)
	calls   int
}

func (f *fakeInsight) Generate(ctx context.Context, req InsightRequest) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	idx := f.calls
	f.calls++
	if idx < len(f.perCall) && f.perCall[idx] != nil {
		return f.perCall[idx](req)
	}
	if err, ok := f.errs[req.Kind]; ok && err != nil {
		return nil, err
	}
	if res, ok := f.results[req.Kind]; ok {
		out := map[string]any{}
		for k, v := range res {
			out[k] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("no canned result for %s", req.Kind)
}

type fakeSignalRepo struct {
	rows []*types.StudentSignal
}

func (f *fakeSignalRepo) Create(ctx context.Context, tx *gorm.DB, row *types.StudentSignal) (*types.StudentSignal, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeSignalRepo) LatestPerSource(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.StudentSignal, error) {
	latest := map[types.SignalSource]*types.StudentSignal{}
	for _, row := range f.rows {
		if row.StudentID != studentID {
			continue
		}
		cur, ok := latest[row.Source]
		if !ok || row.ObservedAt.After(cur.ObservedAt) {
			latest[row.Source] = row
		}
	}
	out := []*types.StudentSignal{}
	for _, row := range latest {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeSignalRepo) ActiveStudentIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	out := []uuid.UUID{}
	for _, row := range f.rows {
		if !seen[row.StudentID] {
			seen[row.StudentID] = true
			out = append(out, row.StudentID)
		}
	}
	return out, nil
}

type fakeAssessmentRepo struct {
	rows []*types.RiskAssessment
}

func (f *fakeAssessmentRepo) Append(ctx context.Context, tx *gorm.DB, row *types.RiskAssessment) (*types.RiskAssessment, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeAssessmentRepo) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, limit int) ([]*types.RiskAssessment, error) {
	out := []*types.RiskAssessment{}
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].StudentID == studentID {
			out = append(out, f.rows[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeAssessmentRepo) GetLatest(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.RiskAssessment, error) {
	rows, _ := f.GetByStudentID(ctx, tx, studentID, 1)
	if len(rows) == 0 {
		return nil, repos.ErrNotFound
	}
	return rows[0], nil
}

type fakeInterventionRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*types.Intervention
	// snapshots keyed by intervention id, append order preserved.
	snapshots map[uuid.UUID][]*types.ProgressSnapshot
	createErr error
}

func newFakeInterventionRepo() *fakeInterventionRepo {
	return &fakeInterventionRepo{
		rows:      map[uuid.UUID]*types.Intervention{},
		snapshots: map[uuid.UUID][]*types.ProgressSnapshot{},
	}
}

func (f *fakeInterventionRepo) CreateIfNoOpen(ctx context.Context, tx *gorm.DB, row *types.Intervention) (*types.Intervention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.rows {
		if existing.StudentID == row.StudentID && existing.Category == row.Category && existing.Status.Open() {
			return nil, repos.ErrDuplicateActive
		}
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeInterventionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Intervention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, repos.ErrNotFound
	}
	copied := *row
	copied.Snapshots = nil
	for _, snap := range f.snapshots[id] {
		copied.Snapshots = append(copied.Snapshots, *snap)
	}
	return &copied, nil
}

func (f *fakeInterventionRepo) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Intervention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*types.Intervention{}
	for _, row := range f.rows {
		if row.StudentID == studentID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeInterventionRepo) ListOpenByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Intervention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*types.Intervention{}
	for _, row := range f.rows {
		if row.StudentID == studentID && row.Status.Open() {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeInterventionRepo) RecentByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, limit int) ([]*types.Intervention, error) {
	rows, _ := f.GetByStudentID(ctx, tx, studentID)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeInterventionRepo) UpdateStatusWithSnapshot(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.InterventionStatus, snapshot *types.ProgressSnapshot) (*types.Intervention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, repos.ErrNotFound
	}
	if row.Status.Terminal() {
		return nil, repos.ErrTerminalStatus
	}
	row.Status = status
	if snapshot != nil {
		snapshot.InterventionID = id
		f.snapshots[id] = append(f.snapshots[id], snapshot)
	}
	copied := *row
	return &copied, nil
}

type fakeLevelRepo struct {
	rows map[uuid.UUID]*types.InterventionLevel
}

func newFakeLevelRepo() *fakeLevelRepo {
	return &fakeLevelRepo{rows: map[uuid.UUID]*types.InterventionLevel{}}
}

func (f *fakeLevelRepo) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.InterventionLevel, error) {
	row, ok := f.rows[studentID]
	if !ok {
		return nil, repos.ErrNotFound
	}
	return row, nil
}

func (f *fakeLevelRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.InterventionLevel) error {
	row.Level = types.ClampLevel(row.Level)
	row.SupportIntensity = float64(row.Level) / float64(types.MaxInterventionLevel)
	f.rows[row.StudentID] = row
	return nil
}

type fakeSampleRepo struct {
	rows []*types.MetricSample
}

func (f *fakeSampleRepo) Create(ctx context.Context, tx *gorm.DB, row *types.MetricSample) (*types.MetricSample, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeSampleRepo) GetByInterventionID(ctx context.Context, tx *gorm.DB, interventionID uuid.UUID) ([]*types.MetricSample, error) {
	out := []*types.MetricSample{}
	for _, row := range f.rows {
		if row.InterventionID == interventionID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeTicketRepo struct {
	rows      []*types.SupportTicket
	createErr error
}

func (f *fakeTicketRepo) Create(ctx context.Context, tx *gorm.DB, row *types.SupportTicket) (*types.SupportTicket, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeTicketRepo) ExistsOpenForIntervention(ctx context.Context, tx *gorm.DB, interventionID uuid.UUID) (bool, error) {
	for _, row := range f.rows {
		if row.InterventionID == interventionID && row.Status == types.TicketOpen {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTicketRepo) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.SupportTicket, error) {
	out := []*types.SupportTicket{}
	for _, row := range f.rows {
		if row.StudentID == studentID {
			out = append(out, row)
		}
	}
	return out, nil
}

// fakeLocker optionally denies acquisition for specific keys.
type fakeLocker struct {
	mu       sync.Mutex
	denied   map[string]bool
	acquired []string
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied[key] {
		return nil, false, nil
	}
	f.acquired = append(f.acquired, key)
	return func() {}, true, nil
}

func (f *fakeLocker) Close() error { return nil }

func healthyRiskAnalysis() map[string]any {
	entry := func(level string) map[string]any {
		return map[string]any{"level": level, "rationale": "per signal data"}
	}
	return map[string]any{
		"academic":          entry("HIGH"),
		"emotional":         entry("CRITICAL"),
		"skillDevelopment":  entry("LOW"),
		"careerPreparation": entry("LOW"),
		"attendance":        entry("LOW"),
		"behavioral":        entry("LOW"),
		"financial":         entry("LOW"),
		"socialEmotional":   entry("LOW"),
		"overall_rationale": "academic decline with emotional distress",
	}
}

func healthyPlan() map[string]any {
	return map[string]any{
		"strategic_objectives": []any{"Raise GPA above 2.5"},
		"action_steps":         []any{"Enroll in weekly tutoring"},
		"support_mechanisms":   []any{"Peer mentor"},
		"expected_outcomes":    []any{"Improved midterm grades"},
	}
}

func effectivenessResult(text string, progress, score float64) map[string]any {
	return map[string]any{
		"progress_percentage": progress,
		"effectiveness_score": score,
		"current_phase":       "mid-cycle",
		"assessment_text":     text,
		"milestones": []any{
			map[string]any{"name": "first tutoring session", "completed": true},
			map[string]any{"name": "midterm review", "completed": false},
		},
	}
}
