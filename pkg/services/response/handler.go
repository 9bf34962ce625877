// Package response is the entry point for a single finding invocation.
package response

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/de-tools/threat-response/pkg/models/api"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/de-tools/threat-response/pkg/services/finding"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Router interface {
	Route(ctx context.Context, f domain.Finding) domain.RemediationOutcome
}

// Recorder keeps a trail of processed findings. It must not report failures.
type Recorder interface {
	Record(ctx context.Context, f domain.Finding, o domain.RemediationOutcome)
}

// Recorders fans a record out to every recorder in order.
type Recorders []Recorder

func (rs Recorders) Record(ctx context.Context, f domain.Finding, o domain.RemediationOutcome) {
	for _, r := range rs {
		r.Record(ctx, f, o)
	}
}

type Handler struct {
	router   Router
	recorder Recorder
}

// NewHandler creates a handler. recorder may be nil to disable the audit trail.
func NewHandler(router Router, recorder Recorder) *Handler {
	return &Handler{
		router:   router,
		recorder: recorder,
	}
}

// Handle processes one raw event and always returns the fixed acknowledgement.
// Whether the remediation itself succeeded is reported to the security team,
// not to the caller.
func (h *Handler) Handle(ctx context.Context, raw []byte) api.Response {
	_, _, _ = h.Process(ctx, raw)
	return api.Acknowledgement()
}

// Process parses and routes one raw event. The error is non-nil only when a
// panic was recovered; the outcome is then zero.
//
// The caller's cancellation and deadline are dropped: once started, the
// remediation runs to completion or to its first failed step, and the
// notification and audit record are always attempted.
func (h *Handler) Process(ctx context.Context, raw []byte) (f domain.Finding, outcome domain.RemediationOutcome, err error) {
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			zerolog.Ctx(ctx).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic while handling event")
			err = fmt.Errorf("panic while handling event: %v", rec)
		}
	}()

	logger := zerolog.Ctx(ctx).With().Str("invocation_id", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx)

	f = finding.Parse(ctx, raw)
	outcome = h.router.Route(ctx, f)

	if h.recorder != nil {
		h.recorder.Record(ctx, f, outcome)
	}

	return f, outcome, nil
}
