package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockIAM struct {
	mock.Mock
}

func (m *mockIAM) UpdateAccessKey(
	ctx context.Context,
	params *iam.UpdateAccessKeyInput,
	_ ...func(*iam.Options),
) (*iam.UpdateAccessKeyOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*iam.UpdateAccessKeyOutput), args.Error(1)
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func keyFinding(keyID, user string) domain.Finding {
	return domain.Finding{
		ID:        "f-2",
		Type:      "UnauthorizedAccess:IAMUser/MaliciousIPCaller",
		Severity:  5,
		AccountID: "222",
		Resource: domain.ResourceDescriptor{
			ResourceType: domain.ResourceTypeAccessKey,
			AccessKey:    domain.AccessKeyDetails{AccessKeyID: keyID, UserName: user},
		},
	}
}

func TestDeactivator_Remediate_SetsInactive(t *testing.T) {
	client := new(mockIAM)
	client.On("UpdateAccessKey", mock.Anything, &iam.UpdateAccessKeyInput{
		UserName:    aws.String("alice"),
		AccessKeyId: aws.String("AKIAEXAMPLE"),
		Status:      types.StatusTypeInactive,
	}).Return(&iam.UpdateAccessKeyOutput{}, nil).Once()

	outcome := NewDeactivator(client).Remediate(testContext(t), keyFinding("AKIAEXAMPLE", "alice"))

	assert.Equal(t, domain.OutcomeSucceeded, outcome.Status)
	assert.Equal(t, domain.ResourceTypeAccessKey, outcome.ResourceType)
	assert.Equal(t, "AKIAEXAMPLE", outcome.Target)
	assert.Equal(t, "alice", outcome.Detail(domain.DetailUserName))
	assert.Equal(t, "Inactive", outcome.Detail(domain.DetailKeyStatus))
	client.AssertExpectations(t)
}

func TestDeactivator_Remediate_ProviderFailure(t *testing.T) {
	client := new(mockIAM)
	client.On("UpdateAccessKey", mock.Anything, mock.Anything).
		Return(nil, errors.New("NoSuchEntity: key not found")).Once()

	outcome := NewDeactivator(client).Remediate(testContext(t), keyFinding("AKIAEXAMPLE", "alice"))

	assert.Equal(t, domain.OutcomeFailed, outcome.Status)
	assert.True(t, outcome.Attempted())
	assert.Equal(t, StepDeactivateKey, outcome.Step)
	assert.Equal(t, "NoSuchEntity: key not found", outcome.ErrorDetail)
	assert.Empty(t, outcome.Detail(domain.DetailKeyStatus))
	client.AssertNumberOfCalls(t, "UpdateAccessKey", 1)
}

func TestDeactivator_Remediate_MissingKeyID(t *testing.T) {
	for _, id := range []string{"", domain.UnknownValue} {
		t.Run("id="+id, func(t *testing.T) {
			client := new(mockIAM)

			outcome := NewDeactivator(client).Remediate(testContext(t), keyFinding(id, "alice"))

			assert.Equal(t, domain.OutcomeAborted, outcome.Status)
			assert.False(t, outcome.Attempted())
			client.AssertNotCalled(t, "UpdateAccessKey", mock.Anything, mock.Anything)
		})
	}
}
