package remediation

import (
	"errors"
	"fmt"
)

// ErrMissingIdentifier is reported when a finding lacks the resource identifier
// a strategy needs.
var ErrMissingIdentifier = errors.New("missing resource identifier")

// StepError records which provider call of a multi-step remediation failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func NewStepError(step string, err error) error {
	return &StepError{Step: step, Err: err}
}
