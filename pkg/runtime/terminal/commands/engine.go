package commands

import (
	"context"

	"github.com/de-tools/threat-response/pkg/models/api"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/de-tools/threat-response/pkg/services/remediation"
)

// Engine is the remediation engine as seen by the CLI.
type Engine interface {
	Process(ctx context.Context, raw []byte) (domain.Finding, domain.RemediationOutcome, error)
	Strategies() []remediation.Strategy
	ListHistory(ctx context.Context, limit int) ([]api.AuditRecord, error)
	Close() error
}

type EngineLoader func(ctx context.Context) (Engine, error)
