package api

import (
	"encoding/json"
	"time"
)

// Event is the well-formed EventBridge envelope a GuardDuty finding arrives in.
// It is used to build events; incoming bytes go through the tolerant finding
// parser instead.
type Event struct {
	ID         string          `json:"id,omitempty"`
	Source     string          `json:"source,omitempty"`
	Account    string          `json:"account,omitempty"`
	Region     string          `json:"region,omitempty"`
	DetailType string          `json:"detail-type,omitempty"`
	Time       *time.Time      `json:"time,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
}

type FindingDetail struct {
	ID        string   `json:"id,omitempty"`
	Type      string   `json:"type,omitempty"`
	Title     string   `json:"title,omitempty"`
	Severity  float64  `json:"severity,omitempty"`
	AccountID string   `json:"accountId,omitempty"`
	Resource  Resource `json:"resource"`
}

type Resource struct {
	ResourceType     string            `json:"resourceType,omitempty"`
	InstanceDetails  *InstanceDetails  `json:"instanceDetails,omitempty"`
	AccessKeyDetails *AccessKeyDetails `json:"accessKeyDetails,omitempty"`
}

type InstanceDetails struct {
	InstanceID string `json:"instanceId,omitempty"`
}

type AccessKeyDetails struct {
	AccessKeyID string `json:"accessKeyId,omitempty"`
	UserName    string `json:"userName,omitempty"`
}
