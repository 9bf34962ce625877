// Package credential deactivates compromised IAM access keys.
package credential

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/de-tools/threat-response/pkg/services/remediation"
	"github.com/rs/zerolog"
)

const StepDeactivateKey = "deactivate-access-key"

// IAMAPI is the subset of the IAM client used by the deactivator.
type IAMAPI interface {
	UpdateAccessKey(ctx context.Context, params *iam.UpdateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.UpdateAccessKeyOutput, error)
}

type Deactivator struct {
	client IAMAPI
}

func NewDeactivatorFromConfig(cfg aws.Config) *Deactivator {
	return NewDeactivator(iam.NewFromConfig(cfg))
}

func NewDeactivator(client IAMAPI) *Deactivator {
	return &Deactivator{client: client}
}

func (d *Deactivator) GetResourceType() string {
	return domain.ResourceTypeAccessKey
}

func (d *Deactivator) Action() string {
	return "deactivate access key"
}

// Remediate marks the key Inactive. Keys are never deleted so the record stays
// available for investigation.
func (d *Deactivator) Remediate(ctx context.Context, f domain.Finding) domain.RemediationOutcome {
	keyID := f.Resource.AccessKey.AccessKeyID
	userName := f.Resource.AccessKey.UserName
	logger := zerolog.Ctx(ctx).With().
		Str("access_key_id", keyID).
		Str("user_name", userName).
		Logger()

	if !domain.IsKnown(keyID) {
		logger.Error().Msg("no access key ID found in finding")
		return remediation.Aborted(d, fmt.Errorf("%w: access key ID", remediation.ErrMissingIdentifier))
	}

	details := map[string]string{
		domain.DetailUserName:    userName,
		domain.DetailAccessKeyID: keyID,
	}

	logger.Info().Msg("deactivating access key")

	_, err := d.client.UpdateAccessKey(ctx, &iam.UpdateAccessKeyInput{
		UserName:    aws.String(userName),
		AccessKeyId: aws.String(keyID),
		Status:      types.StatusTypeInactive,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to deactivate access key")
		return remediation.Failed(d, keyID, details, remediation.NewStepError(StepDeactivateKey, err))
	}

	logger.Info().Msg("successfully deactivated access key")
	details[domain.DetailKeyStatus] = string(types.StatusTypeInactive)

	return remediation.Succeeded(d, keyID, details)
}
