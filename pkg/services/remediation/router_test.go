package remediation

import (
	"context"
	"errors"
	"testing"

	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, msg domain.Notification) {
	m.Called(ctx, msg)
}

type mockStrategy struct {
	mock.Mock
	resourceType string
}

func (m *mockStrategy) GetResourceType() string { return m.resourceType }

func (m *mockStrategy) Action() string { return "contain " + m.resourceType }

func (m *mockStrategy) Remediate(ctx context.Context, f domain.Finding) domain.RemediationOutcome {
	args := m.Called(ctx, f)
	return args.Get(0).(domain.RemediationOutcome)
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func findingFor(resourceType string) domain.Finding {
	return domain.Finding{
		ID:        "f-1",
		Type:      "Recon:EC2/PortProbeUnprotectedPort",
		Severity:  2,
		AccountID: "111",
		Resource:  domain.ResourceDescriptor{ResourceType: resourceType},
	}
}

func newTestRouter(t *testing.T, opts Options) (*Router, *mockNotifier, *mockStrategy, *mockStrategy) {
	notifier := new(mockNotifier)
	instance := &mockStrategy{resourceType: domain.ResourceTypeInstance}
	accessKey := &mockStrategy{resourceType: domain.ResourceTypeAccessKey}

	router, err := NewRouter(notifier, opts, instance, accessKey)
	require.NoError(t, err)
	return router, notifier, instance, accessKey
}

func TestNewRouter_Validation(t *testing.T) {
	notifier := new(mockNotifier)

	_, err := NewRouter(notifier, Options{})
	assert.EqualError(t, err, "at least one strategy must be provided")

	_, err = NewRouter(notifier, Options{},
		&mockStrategy{resourceType: "Instance"},
		&mockStrategy{resourceType: "Instance"},
	)
	assert.EqualError(t, err, "duplicate strategy for resource type: Instance")

	_, err = NewRouter(nil, Options{}, &mockStrategy{resourceType: "Instance"})
	assert.Error(t, err)
}

func TestRouter_Strategies_Sorted(t *testing.T) {
	router, _, _, _ := newTestRouter(t, Options{})

	strategies := router.Strategies()

	require.Len(t, strategies, 2)
	assert.Equal(t, "AccessKey", strategies[0].GetResourceType())
	assert.Equal(t, "Instance", strategies[1].GetResourceType())
}

func TestRouter_Route_DispatchesByResourceType(t *testing.T) {
	tests := []struct {
		name         string
		resourceType string
		outcome      domain.RemediationOutcome
		subject      string
	}{
		{
			name:         "instance",
			resourceType: domain.ResourceTypeInstance,
			outcome: domain.RemediationOutcome{
				ResourceType: domain.ResourceTypeInstance,
				Status:       domain.OutcomeSucceeded,
				Target:       "i-0123",
				Details:      map[string]string{domain.DetailIsolationGroupID: "sg-1"},
			},
			subject: "AUTOMATED ISOLATION: EC2 Instance i-0123",
		},
		{
			name:         "access key",
			resourceType: domain.ResourceTypeAccessKey,
			outcome: domain.RemediationOutcome{
				ResourceType: domain.ResourceTypeAccessKey,
				Status:       domain.OutcomeSucceeded,
				Target:       "AKIA1",
				Details:      map[string]string{domain.DetailUserName: "alice"},
			},
			subject: "AUTOMATED KEY REVOCATION: alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, notifier, instance, accessKey := newTestRouter(t, Options{})
			f := findingFor(tt.resourceType)

			selected, other := instance, accessKey
			if tt.resourceType == domain.ResourceTypeAccessKey {
				selected, other = accessKey, instance
			}
			selected.On("Remediate", mock.Anything, f).Return(tt.outcome).Once()
			notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
				return n.Subject == tt.subject
			})).Once()

			outcome := router.Route(testContext(t), f)

			assert.Equal(t, tt.outcome, outcome)
			selected.AssertExpectations(t)
			other.AssertNotCalled(t, "Remediate", mock.Anything, mock.Anything)
			notifier.AssertExpectations(t)
		})
	}
}

func TestRouter_Route_UnrecognizedTypeSendsGenericAlert(t *testing.T) {
	for _, resourceType := range []string{"", domain.UnknownValue, "S3Bucket", "instance", "INSTANCE", "accesskey"} {
		t.Run("type="+resourceType, func(t *testing.T) {
			router, notifier, instance, accessKey := newTestRouter(t, Options{})
			f := findingFor(resourceType)

			var sent []domain.Notification
			notifier.On("Notify", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { sent = append(sent, args.Get(1).(domain.Notification)) })

			outcome := router.Route(testContext(t), f)

			assert.Equal(t, domain.OutcomeSkipped, outcome.Status)
			assert.False(t, outcome.Attempted())
			instance.AssertNotCalled(t, "Remediate", mock.Anything, mock.Anything)
			accessKey.AssertNotCalled(t, "Remediate", mock.Anything, mock.Anything)

			require.Len(t, sent, 1)
			assert.Equal(t, "GuardDuty Alert: Recon:EC2/PortProbeUnprotectedPort", sent[0].Subject)
			assert.Contains(t, sent[0].Body, "Account: 111")
			assert.Contains(t, sent[0].Body, "Finding ID: f-1")
			assert.Contains(t, sent[0].Body, "Resource Type: "+resourceType)
			assert.Contains(t, sent[0].Body, "Severity: 2")
		})
	}
}

func TestRouter_Route_AbortedIsSilentByDefault(t *testing.T) {
	router, notifier, instance, _ := newTestRouter(t, Options{})
	f := findingFor(domain.ResourceTypeInstance)
	instance.On("Remediate", mock.Anything, f).
		Return(Aborted(instance, ErrMissingIdentifier)).Once()

	outcome := router.Route(testContext(t), f)

	assert.Equal(t, domain.OutcomeAborted, outcome.Status)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestRouter_Route_AbortedNotifiesWhenEnabled(t *testing.T) {
	router, notifier, instance, _ := newTestRouter(t, Options{NotifyOnAbort: true})
	f := findingFor(domain.ResourceTypeInstance)
	instance.On("Remediate", mock.Anything, f).
		Return(Aborted(instance, ErrMissingIdentifier)).Once()
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
		return n.Subject == "REMEDIATION ABORTED: Instance finding f-1"
	})).Once()

	router.Route(testContext(t), f)

	notifier.AssertExpectations(t)
}

func TestRouter_Route_FailureSendsExactlyOneFailureNotification(t *testing.T) {
	router, notifier, instance, _ := newTestRouter(t, Options{})
	f := findingFor(domain.ResourceTypeInstance)
	instance.On("Remediate", mock.Anything, f).
		Return(Failed(instance, "i-0123", nil, NewStepError("describe-instance", errors.New("throttled")))).Once()

	var sent []domain.Notification
	notifier.On("Notify", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = append(sent, args.Get(1).(domain.Notification)) })

	router.Route(testContext(t), f)

	require.Len(t, sent, 1)
	assert.Equal(t, "REMEDIATION FAILED: EC2 i-0123", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Error: throttled")
	assert.NotContains(t, sent[0].Subject, "AUTOMATED ISOLATION")
}

func TestRouter_Route_UnknownOutcomeUsesFallback(t *testing.T) {
	notifier := new(mockNotifier)
	strategy := &mockStrategy{resourceType: "Bucket"}
	router, err := NewRouter(notifier, Options{}, strategy)
	require.NoError(t, err)

	f := findingFor("Bucket")
	strategy.On("Remediate", mock.Anything, f).
		Return(Succeeded(strategy, "bucket-1", nil)).Once()
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
		return n.Subject == "GuardDuty Remediation succeeded: Recon:EC2/PortProbeUnprotectedPort"
	})).Once()

	router.Route(testContext(t), f)

	notifier.AssertExpectations(t)
}
