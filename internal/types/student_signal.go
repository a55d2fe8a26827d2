package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SignalSource string

const (
	SignalAcademic        SignalSource = "academic"
	SignalAttendance      SignalSource = "attendance"
	SignalBehavioral      SignalSource = "behavioral"
	SignalSocialEmotional SignalSource = "socialEmotional"
	SignalFinancial       SignalSource = "financial"
)

var SignalSources = []SignalSource{
	SignalAcademic,
	SignalAttendance,
	SignalBehavioral,
	SignalSocialEmotional,
	SignalFinancial,
}

type StudentSignal struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	Source     SignalSource   `gorm:"type:text;not null;index" json:"source"`
	Payload    datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	ObservedAt time.Time      `gorm:"not null;index" json:"observed_at"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudentSignal) TableName() string { return "student_signal" }

// SignalProfile is the in-memory aggregate the Signal Aggregator folds the
// latest per-source signals into. It is not persisted; RiskAssessment is the
// durable artifact of a scoring run.
type SignalProfile struct {
	StudentID             uuid.UUID      `json:"student_id"`
	GPA                   float64        `json:"gpa"`
	AbsenceCount          int            `json:"absence_count"`
	TardyCount            int            `json:"tardy_count"`
	DisciplinaryIncidents int            `json:"disciplinary_incidents"`
	EngagementScore       float64        `json:"engagement_score"`
	WellbeingScore        float64        `json:"wellbeing_score"`
	FinancialAidStatus    string         `json:"financial_aid_status"`
	Sources               []SignalSource `json:"sources"`
}

func (p *SignalProfile) HasSource(s SignalSource) bool {
	for _, src := range p.Sources {
		if src == s {
			return true
		}
	}
	return false
}
