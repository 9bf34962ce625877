package adapters

import (
	"time"

	"github.com/de-tools/threat-response/pkg/models/api"
	"github.com/de-tools/threat-response/pkg/models/domain"
)

func MapFindingDomainToApi(f domain.Finding) api.Finding {
	res := api.Finding{
		ID:            f.ID,
		Type:          f.Type,
		Title:         f.Title,
		Severity:      f.Severity,
		SeverityLabel: domain.SeverityFromScore(f.Severity).String(),
		AccountID:     f.AccountID,
		Region:        f.Region,
		ResourceType:  f.Resource.ResourceType,
	}
	switch f.Resource.ResourceType {
	case domain.ResourceTypeInstance:
		res.InstanceID = f.Resource.Instance.InstanceID
	case domain.ResourceTypeAccessKey:
		res.AccessKeyID = f.Resource.AccessKey.AccessKeyID
		res.UserName = f.Resource.AccessKey.UserName
	}
	return res
}

func MapOutcomeDomainToApi(o domain.RemediationOutcome) api.Outcome {
	res := api.Outcome{
		Status:      string(o.Status),
		Attempted:   o.Attempted(),
		Succeeded:   o.Succeeded(),
		Action:      o.Action,
		Target:      o.Target,
		Step:        o.Step,
		ErrorDetail: o.ErrorDetail,
	}
	if len(o.Details) > 0 {
		res.Details = make(map[string]string, len(o.Details))
		for k, v := range o.Details {
			res.Details[k] = v
		}
	}
	return res
}

func MapAuditRecord(f domain.Finding, o domain.RemediationOutcome, at time.Time) api.AuditRecord {
	return api.AuditRecord{
		RecordedAt: at.UTC(),
		Finding:    MapFindingDomainToApi(f),
		Outcome:    MapOutcomeDomainToApi(o),
	}
}
