package remediation

import (
	"errors"

	"github.com/de-tools/threat-response/pkg/models/domain"
)

func Succeeded(s Strategy, target string, details map[string]string) domain.RemediationOutcome {
	return domain.RemediationOutcome{
		ResourceType: s.GetResourceType(),
		Status:       domain.OutcomeSucceeded,
		Action:       s.Action(),
		Target:       target,
		Details:      details,
	}
}

// Failed builds a failed outcome. The error detail is the provider's own message;
// the step is taken from a wrapped StepError when present.
func Failed(s Strategy, target string, details map[string]string, err error) domain.RemediationOutcome {
	o := domain.RemediationOutcome{
		ResourceType: s.GetResourceType(),
		Status:       domain.OutcomeFailed,
		Action:       s.Action(),
		Target:       target,
		Details:      details,
		ErrorDetail:  err.Error(),
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		o.Step = stepErr.Step
		o.ErrorDetail = stepErr.Err.Error()
	}
	return o
}

func Aborted(s Strategy, err error) domain.RemediationOutcome {
	return domain.RemediationOutcome{
		ResourceType: s.GetResourceType(),
		Status:       domain.OutcomeAborted,
		Action:       s.Action(),
		ErrorDetail:  err.Error(),
	}
}

func Skipped(resourceType string) domain.RemediationOutcome {
	return domain.RemediationOutcome{
		ResourceType: resourceType,
		Status:       domain.OutcomeSkipped,
		Action:       "notify only",
	}
}
