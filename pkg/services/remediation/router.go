package remediation

import (
	"context"
	"fmt"
	"sort"

	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/de-tools/threat-response/pkg/services/notify"
	"github.com/rs/zerolog"
)

type Options struct {
	// NotifyOnAbort alerts the team when a finding lacks the identifier its
	// strategy needs. Such findings are only logged by default.
	NotifyOnAbort bool
}

type Router struct {
	strategies map[string]Strategy
	notifier   notify.Notifier
	opts       Options
}

func NewRouter(notifier notify.Notifier, opts Options, strategies ...Strategy) (*Router, error) {
	if notifier == nil {
		return nil, fmt.Errorf("notifier must be provided")
	}

	r := &Router{
		strategies: make(map[string]Strategy),
		notifier:   notifier,
		opts:       opts,
	}

	for _, s := range strategies {
		resourceType := s.GetResourceType()
		if _, exists := r.strategies[resourceType]; exists {
			return nil, fmt.Errorf("duplicate strategy for resource type: %s", resourceType)
		}
		r.strategies[resourceType] = s
	}

	if len(r.strategies) == 0 {
		return nil, fmt.Errorf("at least one strategy must be provided")
	}

	return r, nil
}

// Strategies returns the registered strategies ordered by resource type.
func (r *Router) Strategies() []Strategy {
	res := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].GetResourceType() < res[j].GetResourceType()
	})
	return res
}

// Route runs the strategy matching the finding's resource type, or none for an
// unrecognized type, and sends at most one notification describing the outcome.
func (r *Router) Route(ctx context.Context, f domain.Finding) domain.RemediationOutcome {
	logger := zerolog.Ctx(ctx).With().
		Str("finding_id", f.ID).
		Str("resource_type", f.Resource.ResourceType).
		Str("account_id", f.AccountID).
		Logger()
	ctx = logger.WithContext(ctx)

	var outcome domain.RemediationOutcome
	if strategy, ok := r.strategies[f.Resource.ResourceType]; ok {
		outcome = strategy.Remediate(ctx, f)
	} else {
		logger.Info().Msg("no remediation strategy for resource type, sending alert only")
		outcome = Skipped(f.Resource.ResourceType)
	}

	logger.Info().
		Str("status", string(outcome.Status)).
		Str("target", outcome.Target).
		Msg("remediation finished")

	msg, send, err := ComposeNotification(f, outcome, r.opts.NotifyOnAbort)
	if err != nil {
		logger.Error().Err(err).Msg("failed to compose notification")
		msg, send = fallbackNotification(f, outcome), true
	}
	if send {
		r.notifier.Notify(ctx, msg)
	}

	return outcome
}
