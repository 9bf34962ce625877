package api

import "time"

// AuditRecord is the archived trail of one invocation.
type AuditRecord struct {
	RecordedAt time.Time `json:"recorded_at"`
	Finding    Finding   `json:"finding"`
	Outcome    Outcome   `json:"outcome"`
}

type Finding struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Title         string  `json:"title,omitempty"`
	Severity      float64 `json:"severity"`
	SeverityLabel string  `json:"severity_label"`
	AccountID     string  `json:"account_id"`
	Region        string  `json:"region,omitempty"`
	ResourceType  string  `json:"resource_type"`
	InstanceID    string  `json:"instance_id,omitempty"`
	AccessKeyID   string  `json:"access_key_id,omitempty"`
	UserName      string  `json:"user_name,omitempty"`
}

type Outcome struct {
	Status      string            `json:"status"`
	Attempted   bool              `json:"attempted"`
	Succeeded   bool              `json:"succeeded"`
	Action      string            `json:"action,omitempty"`
	Target      string            `json:"target,omitempty"`
	Step        string            `json:"step,omitempty"`
	ErrorDetail string            `json:"error_detail,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}
