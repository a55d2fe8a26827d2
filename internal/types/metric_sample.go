package types

import (
	"time"

	"github.com/google/uuid"
)

// MetricSample is a before/after measurement for one performance metric of
// one intervention. Immutable once recorded.
type MetricSample struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	InterventionID uuid.UUID `gorm:"type:uuid;not null;index" json:"intervention_id"`
	MetricName     string    `gorm:"type:text;not null" json:"metric_name"`
	ValueBefore    float64   `gorm:"not null" json:"value_before"`
	ValueAfter     float64   `gorm:"not null" json:"value_after"`
	RecordedAt     time.Time `gorm:"not null;default:now()" json:"recorded_at"`
}

func (MetricSample) TableName() string { return "metric_sample" }
