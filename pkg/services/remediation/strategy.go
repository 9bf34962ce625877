// Package remediation routes findings to the containment strategy registered for
// their resource type and reports the outcome to the security team.
package remediation

import (
	"context"

	"github.com/de-tools/threat-response/pkg/models/domain"
)

// Strategy contains a single kind of compromised resource.
type Strategy interface {
	// GetResourceType returns the finding resource type the strategy handles.
	GetResourceType() string
	// Action describes the containment the strategy performs.
	Action() string
	// Remediate never returns an error; every failure is reported through the outcome.
	Remediate(ctx context.Context, f domain.Finding) domain.RemediationOutcome
}
