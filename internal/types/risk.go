package types

import "strings"

// RiskLevel is an ordered severity. Higher values always dominate when
// reducing a set of category levels to one overall level.
type RiskLevel int

const (
	RiskLow      RiskLevel = 1
	RiskModerate RiskLevel = 2
	RiskHigh     RiskLevel = 3
	RiskCritical RiskLevel = 4
)

func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "LOW"
	case RiskModerate:
		return "MODERATE"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

func (l RiskLevel) Valid() bool {
	return l >= RiskLow && l <= RiskCritical
}

func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLow, true
	case "MODERATE", "MEDIUM":
		return RiskModerate, true
	case "HIGH":
		return RiskHigh, true
	case "CRITICAL":
		return RiskCritical, true
	default:
		return 0, false
	}
}

// RiskCategory is one dimension of student risk.
type RiskCategory string

const (
	CategoryAcademic          RiskCategory = "academic"
	CategoryEmotional         RiskCategory = "emotional"
	CategorySkillDevelopment  RiskCategory = "skillDevelopment"
	CategoryCareerPreparation RiskCategory = "careerPreparation"
	CategoryAttendance        RiskCategory = "attendance"
	CategoryBehavioral        RiskCategory = "behavioral"
	CategoryFinancial         RiskCategory = "financial"
	CategorySocialEmotional   RiskCategory = "socialEmotional"
)

// CategoryPriorityOrder is the declared tie-break order for reducing equal
// risk levels to one category attribution. Earlier entries win ties, so the
// same inputs always yield the same overall category.
var CategoryPriorityOrder = []RiskCategory{
	CategoryAcademic,
	CategoryEmotional,
	CategorySkillDevelopment,
	CategoryCareerPreparation,
	CategoryAttendance,
	CategoryBehavioral,
	CategoryFinancial,
	CategorySocialEmotional,
}

func CategoryRank(c RiskCategory) int {
	for i, cat := range CategoryPriorityOrder {
		if cat == c {
			return i
		}
	}
	return len(CategoryPriorityOrder)
}

func ParseRiskCategory(s string) (RiskCategory, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, cat := range CategoryPriorityOrder {
		if strings.ToLower(string(cat)) == key {
			return cat, true
		}
	}
	return "", false
}
