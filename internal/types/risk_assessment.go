package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RiskAssessment is append-only: rows are created by the Risk Aggregator and
// never updated or deleted afterwards.
type RiskAssessment struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	CategoryLevels      datatypes.JSON `gorm:"type:jsonb" json:"category_levels"`
	OverallLevel        RiskLevel      `gorm:"not null" json:"overall_level"`
	OverallCategory     RiskCategory   `gorm:"type:text;not null" json:"overall_category"`
	TriggeredCategories datatypes.JSON `gorm:"type:jsonb" json:"triggered_categories"`
	Rationale           string         `gorm:"type:text" json:"rationale"`
	LowConfidence       bool           `gorm:"not null;default:false" json:"low_confidence"`
	CreatedAt           time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (RiskAssessment) TableName() string { return "risk_assessment" }

func (a *RiskAssessment) Levels() map[RiskCategory]RiskLevel {
	out := map[RiskCategory]RiskLevel{}
	if len(a.CategoryLevels) == 0 {
		return out
	}
	raw := map[string]int{}
	if err := json.Unmarshal(a.CategoryLevels, &raw); err != nil {
		return out
	}
	for k, v := range raw {
		cat, ok := ParseRiskCategory(k)
		if !ok {
			continue
		}
		lvl := RiskLevel(v)
		if !lvl.Valid() {
			continue
		}
		out[cat] = lvl
	}
	return out
}

func (a *RiskAssessment) SetLevels(levels map[RiskCategory]RiskLevel) error {
	raw := make(map[string]int, len(levels))
	for k, v := range levels {
		raw[string(k)] = int(v)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	a.CategoryLevels = datatypes.JSON(b)
	return nil
}

func (a *RiskAssessment) Triggered() []RiskCategory {
	var raw []string
	if len(a.TriggeredCategories) == 0 {
		return nil
	}
	if err := json.Unmarshal(a.TriggeredCategories, &raw); err != nil {
		return nil
	}
	out := make([]RiskCategory, 0, len(raw))
	for _, s := range raw {
		if cat, ok := ParseRiskCategory(s); ok {
			out = append(out, cat)
		}
	}
	return out
}

func (a *RiskAssessment) SetTriggered(cats []RiskCategory) error {
	raw := make([]string, 0, len(cats))
	for _, c := range cats {
		raw = append(raw, string(c))
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	a.TriggeredCategories = datatypes.JSON(b)
	return nil
}
