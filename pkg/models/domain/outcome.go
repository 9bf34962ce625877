package domain

type OutcomeStatus string

const (
	// OutcomeSucceeded means every remediation step completed.
	OutcomeSucceeded OutcomeStatus = "succeeded"
	// OutcomeFailed means a provider call failed; earlier steps may have taken effect.
	OutcomeFailed OutcomeStatus = "failed"
	// OutcomeAborted means the finding lacked the identifier the strategy needs.
	OutcomeAborted OutcomeStatus = "aborted"
	// OutcomeSkipped means no strategy exists for the resource type.
	OutcomeSkipped OutcomeStatus = "skipped"
)

// RemediationOutcome is the result of a single routing decision.
type RemediationOutcome struct {
	ResourceType string
	Status       OutcomeStatus
	Action       string
	Target       string
	Step         string
	ErrorDetail  string
	Details      map[string]string
}

func (o RemediationOutcome) Attempted() bool {
	return o.Status == OutcomeSucceeded || o.Status == OutcomeFailed
}

func (o RemediationOutcome) Succeeded() bool {
	return o.Status == OutcomeSucceeded
}

// Detail returns the named detail or an empty string.
func (o RemediationOutcome) Detail(key string) string {
	if o.Details == nil {
		return ""
	}
	return o.Details[key]
}

// Keys of RemediationOutcome.Details.
const (
	DetailIsolationGroupID = "isolation_group_id"
	DetailVPCID            = "vpc_id"
	DetailUserName         = "user_name"
	DetailAccessKeyID      = "access_key_id"
	DetailKeyStatus        = "key_status"
)
