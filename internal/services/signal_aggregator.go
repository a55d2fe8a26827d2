package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/studentbridge-backend/internal/logger"
	"github.com/yungbote/studentbridge-backend/internal/repos"
	"github.com/yungbote/studentbridge-backend/internal/types"
)

type SignalService interface {
	RecordSignal(ctx context.Context, signal *types.StudentSignal) (*types.StudentSignal, error)
	BuildProfile(ctx context.Context, studentID uuid.UUID) (*types.SignalProfile, error)
}

type signalService struct {
	signals repos.StudentSignalRepo
	log     *logger.Logger
}

func NewSignalService(signals repos.StudentSignalRepo, baseLog *logger.Logger) SignalService {
	return &signalService{
		signals: signals,
		log:     baseLog.With("service", "SignalService"),
	}
}

func (s *signalService) RecordSignal(ctx context.Context, signal *types.StudentSignal) (*types.StudentSignal, error) {
	if signal == nil {
		return nil, fmt.Errorf("signal required")
	}
	if signal.StudentID == uuid.Nil {
		return nil, fmt.Errorf("student_id required")
	}
	valid := false
	for _, src := range types.SignalSources {
		if signal.Source == src {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("unknown signal source %q", signal.Source)
	}
	return s.signals.Create(ctx, nil, signal)
}

// Payload shapes per source. A payload that fails to decode is skipped, not
// fatal: the profile simply lacks that source.
type academicPayload struct {
	GPA float64 `json:"gpa"`
}

type attendancePayload struct {
	AbsenceCount int `json:"absence_count"`
	TardyCount   int `json:"tardy_count"`
}

type behavioralPayload struct {
	DisciplinaryIncidents int `json:"disciplinary_incidents"`
}

type socialEmotionalPayload struct {
	EngagementScore float64 `json:"engagement_score"`
	WellbeingScore  float64 `json:"wellbeing_score"`
}

type financialPayload struct {
	AidStatus string `json:"aid_status"`
}

func (s *signalService) BuildProfile(ctx context.Context, studentID uuid.UUID) (*types.SignalProfile, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("student_id required")
	}

	rows, err := s.signals.LatestPerSource(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("load signals: %w", err)
	}

	profile := &types.SignalProfile{StudentID: studentID}
	for _, row := range rows {
		if err := s.foldSignal(profile, row); err != nil {
			s.log.Warn("Skipping malformed signal payload",
				"student_id", studentID,
				"source", row.Source,
				"error", err,
			)
			continue
		}
		profile.Sources = append(profile.Sources, row.Source)
	}
	return profile, nil
}

func (s *signalService) foldSignal(profile *types.SignalProfile, row *types.StudentSignal) error {
	switch row.Source {
	case types.SignalAcademic:
		var p academicPayload
		if err := json.Unmarshal(row.Payload, &p); err != nil {
			return err
		}
		profile.GPA = p.GPA
	case types.SignalAttendance:
		var p attendancePayload
		if err := json.Unmarshal(row.Payload, &p); err != nil {
			return err
		}
		profile.AbsenceCount = p.AbsenceCount
		profile.TardyCount = p.TardyCount
	case types.SignalBehavioral:
		var p behavioralPayload
		if err := json.Unmarshal(row.Payload, &p); err != nil {
			return err
		}
		profile.DisciplinaryIncidents = p.DisciplinaryIncidents
	case types.SignalSocialEmotional:
		var p socialEmotionalPayload
		if err := json.Unmarshal(row.Payload, &p); err != nil {
			return err
		}
		profile.EngagementScore = p.EngagementScore
		profile.WellbeingScore = p.WellbeingScore
	case types.SignalFinancial:
		var p financialPayload
		if err := json.Unmarshal(row.Payload, &p); err != nil {
			return err
		}
		profile.FinancialAidStatus = p.AidStatus
	default:
		return fmt.Errorf("unknown source %q", row.Source)
	}
	return nil
}
