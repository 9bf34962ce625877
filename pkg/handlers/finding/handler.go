package finding

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/de-tools/threat-response/pkg/models/api"
	"github.com/de-tools/threat-response/pkg/services/remediation"
	"github.com/rs/zerolog"
)

const maxEventSize = 1 << 20

type EventHandler interface {
	Handle(ctx context.Context, raw []byte) api.Response
}

type StrategyLister interface {
	Strategies() []remediation.Strategy
}

type HistoryLister interface {
	ListHistory(ctx context.Context, limit int) ([]api.AuditRecord, error)
}

type Handler struct {
	events     EventHandler
	strategies StrategyLister
	history    HistoryLister
}

// NewHandler creates the finding handler. history may be nil when the local
// history is disabled.
func NewHandler(events EventHandler, strategies StrategyLister, history HistoryLister) *Handler {
	return &Handler{
		events:     events,
		strategies: strategies,
		history:    history,
	}
}

// SubmitFinding runs one event through the remediation engine. The reply is the
// fixed acknowledgement regardless of the remediation outcome.
func (h *Handler) SubmitFinding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventSize))
	if err != nil {
		logger.Error().Err(err).Msg("failed to read event body")
		http.Error(w, "failed to read event body", http.StatusBadRequest)
		return
	}

	resp := h.events.Handle(ctx, raw)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if err = json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode response")
	}
}

func (h *Handler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	strategies := h.strategies.Strategies()
	response := make([]api.Strategy, 0, len(strategies))
	for _, s := range strategies {
		response = append(response, api.Strategy{
			ResourceType: s.GetResourceType(),
			Action:       s.Action(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode strategies")
	}
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if h.history == nil {
		http.Error(w, "remediation history is not enabled", http.StatusNotFound)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.history.ListHistory(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list remediation history")
		http.Error(w, "failed to list remediation history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(records); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode history")
	}
}
