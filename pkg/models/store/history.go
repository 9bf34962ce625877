package store

import "time"

// HistoryRecord is one row of the local remediation history.
type HistoryRecord struct {
	FindingID    string
	FindingType  string
	AccountID    string
	Region       string
	Severity     float64
	ResourceType string
	Target       string
	Status       string
	Action       string
	Step         string
	ErrorDetail  string
	Details      map[string]string
	RecordedAt   time.Time
}
