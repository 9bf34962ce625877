package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/threat-response/pkg/models/api"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/de-tools/threat-response/pkg/runtime/terminal/export"
	"github.com/de-tools/threat-response/pkg/services/remediation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Process(ctx context.Context, raw []byte) (domain.Finding, domain.RemediationOutcome, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(domain.Finding), args.Get(1).(domain.RemediationOutcome), args.Error(2)
}

func (m *mockEngine) Strategies() []remediation.Strategy {
	args := m.Called()
	return args.Get(0).([]remediation.Strategy)
}

func (m *mockEngine) Close() error {
	return nil
}

func (m *mockEngine) ListHistory(ctx context.Context, limit int) ([]api.AuditRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.AuditRecord), args.Error(1)
}

type stubStrategy struct {
	resourceType string
	action       string
}

func (s stubStrategy) GetResourceType() string { return s.resourceType }

func (s stubStrategy) Action() string { return s.action }

func (s stubStrategy) Remediate(context.Context, domain.Finding) domain.RemediationOutcome {
	return domain.RemediationOutcome{}
}

func loaderFor(engine Engine) EngineLoader {
	return func(context.Context) (Engine, error) {
		return engine, nil
	}
}

const event = `{"detail":{"id":"f-1","resource":{"resourceType":"Instance"}}}`

func TestRemediateCmd(t *testing.T) {
	finding := domain.Finding{ID: "f-1", Type: "Recon:EC2/PortProbeUnprotectedPort"}

	tests := []struct {
		name        string
		outcome     domain.RemediationOutcome
		processErr  error
		useStdin    bool
		expectedErr string
		expectedOut string
	}{
		{
			name: "event file succeeded",
			outcome: domain.RemediationOutcome{
				ResourceType: domain.ResourceTypeInstance,
				Status:       domain.OutcomeSucceeded,
				Target:       "i-1",
			},
			expectedOut: "Outcome: succeeded",
		},
		{
			name:     "stdin skipped",
			useStdin: true,
			outcome: domain.RemediationOutcome{
				ResourceType: "S3Bucket",
				Status:       domain.OutcomeSkipped,
			},
			expectedOut: "Outcome: skipped",
		},
		{
			name: "failed outcome returns error",
			outcome: domain.RemediationOutcome{
				ResourceType: domain.ResourceTypeInstance,
				Status:       domain.OutcomeFailed,
				Target:       "i-1",
				Step:         "create-isolation-group",
			},
			expectedOut: "Outcome: failed",
			expectedErr: "remediation of Instance i-1 failed at step create-isolation-group",
		},
		{
			name:        "processing error",
			processErr:  errors.New("panic while handling event: boom"),
			expectedErr: "panic while handling event: boom",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := new(mockEngine)
			engine.On("Process", mock.Anything, []byte(event)).
				Return(finding, tc.outcome, tc.processErr).Once()

			var out bytes.Buffer
			cmd := NewRemediateCmd(loaderFor(engine), export.NewReporter(&out))
			cmd.SetOut(&out)
			cmd.SetErr(&out)

			if tc.useStdin {
				cmd.SetIn(strings.NewReader(event))
				cmd.SetArgs([]string{"--event", "-"})
			} else {
				path := filepath.Join(t.TempDir(), "event.json")
				require.NoError(t, os.WriteFile(path, []byte(event), 0o600))
				cmd.SetArgs([]string{"--event", path})
			}

			err := cmd.ExecuteContext(context.Background())

			if tc.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErr)
			} else {
				require.NoError(t, err)
			}
			if tc.expectedOut != "" {
				assert.Contains(t, out.String(), tc.expectedOut)
			}
			engine.AssertExpectations(t)
		})
	}
}

func TestRemediateCmd_MissingFile(t *testing.T) {
	engine := new(mockEngine)
	var out bytes.Buffer
	cmd := NewRemediateCmd(loaderFor(engine), export.NewReporter(&out))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--event", filepath.Join(t.TempDir(), "missing.json")})

	err := cmd.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read event file")
	engine.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestStrategiesCmd(t *testing.T) {
	engine := new(mockEngine)
	engine.On("Strategies").Return([]remediation.Strategy{
		stubStrategy{resourceType: "AccessKey", action: "deactivate access key"},
		stubStrategy{resourceType: "Instance", action: "isolate instance"},
	}).Once()

	var out bytes.Buffer
	cmd := NewStrategiesCmd(loaderFor(engine))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "AccessKey    deactivate access key")
	assert.Contains(t, out.String(), "Instance     isolate instance")
	engine.AssertExpectations(t)
}

func TestStrategiesCmd_LoadError(t *testing.T) {
	cmd := NewStrategiesCmd(func(context.Context) (Engine, error) {
		return nil, errors.New("failed to load configuration")
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.ExecuteContext(context.Background())

	assert.EqualError(t, err, "failed to load configuration")
}

func TestHistoryCmd(t *testing.T) {
	engine := new(mockEngine)
	engine.On("ListHistory", mock.Anything, 5).Return([]api.AuditRecord{
		{
			RecordedAt: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
			Finding:    api.Finding{ID: "f-1", ResourceType: "Instance"},
			Outcome:    api.Outcome{Status: "succeeded", Target: "i-1"},
		},
	}, nil).Once()

	var out bytes.Buffer
	cmd := NewHistoryCmd(loaderFor(engine))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--limit", "5"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "RECORDED AT")
	assert.Contains(t, out.String(), "2024-03-01 12:30:00")
	assert.Contains(t, out.String(), "succeeded")
	assert.Contains(t, out.String(), "i-1")
	engine.AssertExpectations(t)
}

func TestHistoryCmd_Error(t *testing.T) {
	engine := new(mockEngine)
	engine.On("ListHistory", mock.Anything, 20).Return(nil, errors.New("remediation history is not configured")).Once()

	cmd := NewHistoryCmd(loaderFor(engine))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.ExecuteContext(context.Background())

	assert.EqualError(t, err, "failed to list remediation history: remediation history is not configured")
}
