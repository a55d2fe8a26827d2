package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinInterventionLevel = 1
	MaxInterventionLevel = 5
)

// InterventionLevel is one row per student, written only by the Adaptive
// Scaler. Level is clamped to [1,5] at every write.
type InterventionLevel struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"student_id"`
	Level            int       `gorm:"not null;default:1" json:"level"`
	SupportIntensity float64   `gorm:"not null;default:0.2" json:"support_intensity"`
	CreatedAt        time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (InterventionLevel) TableName() string { return "intervention_level" }

func ClampLevel(level int) int {
	if level < MinInterventionLevel {
		return MinInterventionLevel
	}
	if level > MaxInterventionLevel {
		return MaxInterventionLevel
	}
	return level
}
