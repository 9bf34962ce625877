package adapters

import (
	"time"

	"github.com/de-tools/threat-response/pkg/models/api"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/de-tools/threat-response/pkg/models/store"
)

func MapHistoryDomainToStore(f domain.Finding, o domain.RemediationOutcome, at time.Time) store.HistoryRecord {
	return store.HistoryRecord{
		FindingID:    f.ID,
		FindingType:  f.Type,
		AccountID:    f.AccountID,
		Region:       f.Region,
		Severity:     f.Severity,
		ResourceType: f.Resource.ResourceType,
		Target:       o.Target,
		Status:       string(o.Status),
		Action:       o.Action,
		Step:         o.Step,
		ErrorDetail:  o.ErrorDetail,
		Details:      o.Details,
		RecordedAt:   at.UTC(),
	}
}

// MapHistoryStoreToApi rebuilds the audit view of a stored row. The row does
// not carry the resource identifiers, so the outcome target stands in for them.
func MapHistoryStoreToApi(r store.HistoryRecord) api.AuditRecord {
	status := domain.OutcomeStatus(r.Status)
	outcome := domain.RemediationOutcome{
		ResourceType: r.ResourceType,
		Status:       status,
		Action:       r.Action,
		Target:       r.Target,
		Step:         r.Step,
		ErrorDetail:  r.ErrorDetail,
		Details:      r.Details,
	}

	return api.AuditRecord{
		RecordedAt: r.RecordedAt.UTC(),
		Finding: api.Finding{
			ID:            r.FindingID,
			Type:          r.FindingType,
			Severity:      r.Severity,
			SeverityLabel: domain.SeverityFromScore(r.Severity).String(),
			AccountID:     r.AccountID,
			Region:        r.Region,
			ResourceType:  r.ResourceType,
		},
		Outcome: MapOutcomeDomainToApi(outcome),
	}
}

func MapHistoryStoreToApiList(records []store.HistoryRecord) []api.AuditRecord {
	res := make([]api.AuditRecord, 0, len(records))
	for _, r := range records {
		res = append(res, MapHistoryStoreToApi(r))
	}
	return res
}
