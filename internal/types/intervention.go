package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InterventionStatus string

const (
	StatusActive          InterventionStatus = "ACTIVE"
	StatusInProgress      InterventionStatus = "IN_PROGRESS"
	StatusSuccessful      InterventionStatus = "SUCCESSFUL"
	StatusNeedsAdjustment InterventionStatus = "NEEDS_ADJUSTMENT"
	StatusCriticalReview  InterventionStatus = "CRITICAL_REVIEW"
)

// Terminal reports whether the status ends the tracking lifecycle.
// NEEDS_ADJUSTMENT is not terminal: it loops back into tracking.
func (s InterventionStatus) Terminal() bool {
	return s == StatusSuccessful || s == StatusCriticalReview
}

// Open reports whether the status counts against the one-active-intervention
// invariant for a (student, category) pair.
func (s InterventionStatus) Open() bool {
	return s == StatusActive || s == StatusInProgress || s == StatusNeedsAdjustment
}

// OpenStatuses is the set used by the conditional create guard.
var OpenStatuses = []InterventionStatus{StatusActive, StatusInProgress, StatusNeedsAdjustment}

type Intervention struct {
	ID                  uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID           uuid.UUID          `gorm:"type:uuid;not null;index:idx_intervention_student_category" json:"student_id"`
	Category            RiskCategory       `gorm:"type:text;not null;index:idx_intervention_student_category" json:"category"`
	RiskLevelAtCreation RiskLevel          `gorm:"not null" json:"risk_level_at_creation"`
	Status              InterventionStatus `gorm:"type:text;not null;index" json:"status"`
	StrategicObjectives datatypes.JSON     `gorm:"type:jsonb" json:"strategic_objectives"`
	ActionSteps         datatypes.JSON     `gorm:"type:jsonb" json:"action_steps"`
	SupportMechanisms   datatypes.JSON     `gorm:"type:jsonb" json:"support_mechanisms"`
	ExpectedOutcomes    datatypes.JSON     `gorm:"type:jsonb" json:"expected_outcomes"`
	Snapshots           []ProgressSnapshot `gorm:"foreignKey:InterventionID;references:ID" json:"snapshots,omitempty"`
	CreatedAt           time.Time          `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time          `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt           gorm.DeletedAt     `gorm:"index" json:"deleted_at,omitempty"`
}

func (Intervention) TableName() string { return "intervention" }

func StringListJSON(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(b)
}

func StringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}
	}
	return out
}

type Milestone struct {
	Name        string     `json:"name"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ProgressSnapshot struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	InterventionID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"intervention_id"`
	ProgressPercentage float64        `gorm:"not null" json:"progress_percentage"`
	EffectivenessScore float64        `gorm:"not null" json:"effectiveness_score"`
	CurrentPhase       string         `gorm:"type:text" json:"current_phase"`
	Milestones         datatypes.JSON `gorm:"type:jsonb" json:"milestones"`
	RecordedAt         time.Time      `gorm:"not null;default:now();index" json:"recorded_at"`
}

func (ProgressSnapshot) TableName() string { return "progress_snapshot" }

func (s *ProgressSnapshot) SetMilestones(ms []Milestone) error {
	if ms == nil {
		ms = []Milestone{}
	}
	b, err := json.Marshal(ms)
	if err != nil {
		return err
	}
	s.Milestones = datatypes.JSON(b)
	return nil
}

func (s *ProgressSnapshot) MilestoneList() []Milestone {
	if len(s.Milestones) == 0 {
		return []Milestone{}
	}
	var out []Milestone
	if err := json.Unmarshal(s.Milestones, &out); err != nil {
		return []Milestone{}
	}
	return out
}
