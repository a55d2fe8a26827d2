package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/studentbridge-backend/internal/types"
)

func TestRecordSignalRejectsUnknownSource(t *testing.T) {
	log := testLogger(t)
	svc := NewSignalService(&fakeSignalRepo{}, log)
	ctx := context.Background()

	if _, err := svc.RecordSignal(ctx, nil); err == nil {
		t.Fatal("nil signal must be rejected")
	}
	if _, err := svc.RecordSignal(ctx, &types.StudentSignal{Source: types.SignalAcademic}); err == nil {
		t.Fatal("missing student id must be rejected")
	}
	if _, err := svc.RecordSignal(ctx, &types.StudentSignal{
		StudentID: uuid.New(),
		Source:    "horoscope",
	}); err == nil {
		t.Fatal("unknown source must be rejected")
	}

	got, err := svc.RecordSignal(ctx, &types.StudentSignal{
		StudentID:  uuid.New(),
		Source:     types.SignalAcademic,
		Payload:    datatypes.JSON([]byte(`{"gpa": 3.1}`)),
		ObservedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("RecordSignal: %v", err)
	}
	if got.ID == uuid.Nil {
		t.Fatal("expected persisted signal with id")
	}
}

func TestBuildProfileUsesLatestPerSource(t *testing.T) {
	log := testLogger(t)
	repo := &fakeSignalRepo{}
	svc := NewSignalService(repo, log)
	ctx := context.Background()
	studentID := uuid.New()
	now := time.Now().UTC()

	seed := []*types.StudentSignal{
		{StudentID: studentID, Source: types.SignalAcademic, Payload: datatypes.JSON([]byte(`{"gpa": 3.4}`)), ObservedAt: now.Add(-48 * time.Hour)},
		{StudentID: studentID, Source: types.SignalAcademic, Payload: datatypes.JSON([]byte(`{"gpa": 2.1}`)), ObservedAt: now},
		{StudentID: studentID, Source: types.SignalAttendance, Payload: datatypes.JSON([]byte(`{"absence_count": 7, "tardy_count": 2}`)), ObservedAt: now},
		{StudentID: uuid.New(), Source: types.SignalAcademic, Payload: datatypes.JSON([]byte(`{"gpa": 4.0}`)), ObservedAt: now},
	}
	for _, row := range seed {
		if _, err := repo.Create(ctx, nil, row); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	profile, err := svc.BuildProfile(ctx, studentID)
	if err != nil {
		t.Fatalf("BuildProfile: %v", err)
	}
	if profile.GPA != 2.1 {
		t.Fatalf("gpa = %v, want the newer 2.1 reading", profile.GPA)
	}
	if profile.AbsenceCount != 7 || profile.TardyCount != 2 {
		t.Fatalf("attendance = %d/%d, want 7/2", profile.AbsenceCount, profile.TardyCount)
	}
	if len(profile.Sources) != 2 {
		t.Fatalf("sources = %v, want academic and attendance", profile.Sources)
	}
}

func TestBuildProfileSkipsMalformedPayload(t *testing.T) {
	log := testLogger(t)
	repo := &fakeSignalRepo{}
	svc := NewSignalService(repo, log)
	ctx := context.Background()
	studentID := uuid.New()
	now := time.Now().UTC()

	seed := []*types.StudentSignal{
		{StudentID: studentID, Source: types.SignalAcademic, Payload: datatypes.JSON([]byte(`{"gpa": "three"`)), ObservedAt: now},
		{StudentID: studentID, Source: types.SignalFinancial, Payload: datatypes.JSON([]byte(`{"aid_status": "at_risk"}`)), ObservedAt: now},
	}
	for _, row := range seed {
		if _, err := repo.Create(ctx, nil, row); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	profile, err := svc.BuildProfile(ctx, studentID)
	if err != nil {
		t.Fatalf("BuildProfile: %v", err)
	}
	if profile.HasSource(types.SignalAcademic) {
		t.Fatal("malformed academic payload must not register its source")
	}
	if !profile.HasSource(types.SignalFinancial) {
		t.Fatal("well-formed financial payload must survive a sibling's failure")
	}
	if profile.FinancialAidStatus != "at_risk" {
		t.Fatalf("aid status = %q, want at_risk", profile.FinancialAidStatus)
	}
}
