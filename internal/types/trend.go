package types

import "strings"

// Trend is the qualitative direction of a student's recent performance.
type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendStable    Trend = "STABLE"
	TrendDeclining Trend = "DECLINING"
)

func ParseTrend(s string) (Trend, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IMPROVING":
		return TrendImproving, true
	case "STABLE":
		return TrendStable, true
	case "DECLINING":
		return TrendDeclining, true
	default:
		return "", false
	}
}
