package domain

import "strconv"

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// SeverityFromScore buckets a 0-10 score: LOW below 4, MEDIUM below 7, HIGH otherwise.
func SeverityFromScore(score float64) Severity {
	switch {
	case score >= 7:
		return SeverityHigh
	case score >= 4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// FormatScore renders a severity score without trailing zeros, e.g. 8 or 5.3.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
