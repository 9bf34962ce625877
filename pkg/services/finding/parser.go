// Package finding turns raw EventBridge envelopes into domain findings.
package finding

import (
	"context"
	"encoding/json"

	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Parse normalizes a raw event into a Finding. It never fails: anything absent,
// null or of the wrong shape falls back to its default.
func Parse(ctx context.Context, raw []byte) domain.Finding {
	logger := zerolog.Ctx(ctx)

	if json.Valid(raw) {
		logger.Info().RawJSON("event", raw).Msg("received event")
	} else {
		logger.Info().Str("event", string(raw)).Msg("received event")
	}

	envelope := decodeObject(raw)
	detail := envelope.object("detail")
	resource := detail.object("resource")
	instance := resource.object("instanceDetails")
	accessKey := resource.object("accessKeyDetails")

	f := domain.Finding{
		ID:        detail.string("id", domain.UnknownValue),
		Type:      detail.string("type", domain.UnknownValue),
		Title:     detail.string("title", ""),
		Severity:  detail.number("severity", 0),
		AccountID: detail.string("accountId", domain.UnknownValue),
		Region:    envelope.string("region", ""),
		Resource: domain.ResourceDescriptor{
			ResourceType: resource.string("resourceType", domain.UnknownValue),
			Instance: domain.InstanceDetails{
				InstanceID: instance.string("instanceId", domain.UnknownValue),
			},
			AccessKey: domain.AccessKeyDetails{
				AccessKeyID: accessKey.string("accessKeyId", domain.UnknownValue),
				UserName:    accessKey.string("userName", domain.UnknownValue),
			},
		},
	}

	logger.Info().
		Str("finding_type", f.Type).
		Float64("severity", f.Severity).
		Str("resource_type", f.Resource.ResourceType).
		Str("finding_id", f.ID).
		Msg("processing finding")

	return f
}

type object map[string]json.RawMessage

func decodeObject(raw []byte) object {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return object{}
	}
	return obj
}

func (o object) object(key string) object {
	raw, ok := o[key]
	if !ok {
		return object{}
	}
	return decodeObject(raw)
}

func (o object) string(key, def string) string {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return def
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return def
	}
	return s
}

func (o object) number(key string, def float64) float64 {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return def
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return def
	}
	return n
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
