// Package compute isolates compromised EC2 instances behind a deny-all
// security group.
package compute

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/de-tools/threat-response/pkg/services/remediation"
	"github.com/rs/zerolog"
)

const (
	DefaultGroupPrefix = "ISOLATION-"

	StepDescribeInstance = "describe-instance"
	StepCreateGroup      = "create-isolation-group"
	StepRevokeEgress     = "revoke-default-egress"
	StepReplaceGroups    = "replace-instance-groups"

	errCodeDuplicateGroup     = "InvalidGroup.Duplicate"
	errCodePermissionNotFound = "InvalidPermission.NotFound"

	tagFindingID  = "threat-response:finding-id"
	tagInstanceID = "threat-response:instance-id"
)

// EC2API is the subset of the EC2 client used by the isolator.
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	CreateSecurityGroup(ctx context.Context, params *ec2.CreateSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error)
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	RevokeSecurityGroupEgress(ctx context.Context, params *ec2.RevokeSecurityGroupEgressInput, optFns ...func(*ec2.Options)) (*ec2.RevokeSecurityGroupEgressOutput, error)
	ModifyInstanceAttribute(ctx context.Context, params *ec2.ModifyInstanceAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyInstanceAttributeOutput, error)
}

type Isolator struct {
	client      EC2API
	groupPrefix string
}

func NewIsolatorFromConfig(cfg aws.Config, groupPrefix string) *Isolator {
	return NewIsolator(ec2.NewFromConfig(cfg), groupPrefix)
}

func NewIsolator(client EC2API, groupPrefix string) *Isolator {
	if groupPrefix == "" {
		groupPrefix = DefaultGroupPrefix
	}
	return &Isolator{
		client:      client,
		groupPrefix: groupPrefix,
	}
}

func (i *Isolator) GetResourceType() string {
	return domain.ResourceTypeInstance
}

func (i *Isolator) Action() string {
	return "isolate instance with a deny-all security group"
}

// GroupName is the deterministic isolation group name for an instance.
func (i *Isolator) GroupName(instanceID string) string {
	return i.groupPrefix + instanceID
}

// Remediate runs describe, create group, revoke egress and replace groups in
// order, stopping at the first failure. Completed steps are not rolled back.
func (i *Isolator) Remediate(ctx context.Context, f domain.Finding) domain.RemediationOutcome {
	instanceID := f.Resource.Instance.InstanceID
	logger := zerolog.Ctx(ctx).With().Str("instance_id", instanceID).Logger()

	if !domain.IsKnown(instanceID) {
		logger.Error().Msg("no instance ID found in finding")
		return remediation.Aborted(i, fmt.Errorf("%w: instance ID", remediation.ErrMissingIdentifier))
	}

	logger.Info().Msg("isolating EC2 instance")
	details := make(map[string]string)

	vpcID, err := i.describeVPC(ctx, instanceID)
	if err != nil {
		return i.failed(logger, instanceID, details, err)
	}
	details[domain.DetailVPCID] = vpcID

	groupID, err := i.createIsolationGroup(ctx, f, instanceID, vpcID)
	if err != nil {
		return i.failed(logger, instanceID, details, err)
	}
	details[domain.DetailIsolationGroupID] = groupID

	if err = i.revokeEgress(ctx, groupID); err != nil {
		return i.failed(logger, instanceID, details, err)
	}

	if err = i.replaceGroups(ctx, instanceID, groupID); err != nil {
		return i.failed(logger, instanceID, details, err)
	}

	logger.Info().
		Str("isolation_group_id", groupID).
		Msg("successfully isolated instance")

	return remediation.Succeeded(i, instanceID, details)
}

func (i *Isolator) failed(
	logger zerolog.Logger,
	instanceID string,
	details map[string]string,
	err error,
) domain.RemediationOutcome {
	logger.Error().Err(err).Msg("failed to isolate instance")
	return remediation.Failed(i, instanceID, details, err)
}

func (i *Isolator) describeVPC(ctx context.Context, instanceID string) (string, error) {
	resp, err := i.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", remediation.NewStepError(StepDescribeInstance, err)
	}

	if len(resp.Reservations) == 0 || len(resp.Reservations[0].Instances) == 0 {
		return "", remediation.NewStepError(StepDescribeInstance, fmt.Errorf("instance %s not found", instanceID))
	}
	return aws.ToString(resp.Reservations[0].Instances[0].VpcId), nil
}

func (i *Isolator) createIsolationGroup(
	ctx context.Context,
	f domain.Finding,
	instanceID, vpcID string,
) (string, error) {
	name := i.GroupName(instanceID)
	input := &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(fmt.Sprintf("Isolation SG for compromised instance %s", instanceID)),
		TagSpecifications: []types.TagSpecification{
			{
				ResourceType: types.ResourceTypeSecurityGroup,
				Tags: []types.Tag{
					{Key: aws.String("Name"), Value: aws.String(name)},
					{Key: aws.String(tagFindingID), Value: aws.String(f.ID)},
					{Key: aws.String(tagInstanceID), Value: aws.String(instanceID)},
				},
			},
		},
	}
	if vpcID != "" {
		input.VpcId = aws.String(vpcID)
	}

	resp, err := i.client.CreateSecurityGroup(ctx, input)
	if err == nil {
		return aws.ToString(resp.GroupId), nil
	}
	if !hasErrorCode(err, errCodeDuplicateGroup) {
		return "", remediation.NewStepError(StepCreateGroup, err)
	}

	groupID, lookupErr := i.findGroup(ctx, name, vpcID)
	if lookupErr != nil {
		return "", remediation.NewStepError(StepCreateGroup, errors.Join(err, lookupErr))
	}
	zerolog.Ctx(ctx).Warn().
		Str("isolation_group_id", groupID).
		Msg("isolation group already exists, reusing it")
	return groupID, nil
}

func (i *Isolator) findGroup(ctx context.Context, name, vpcID string) (string, error) {
	filters := []types.Filter{
		{Name: aws.String("group-name"), Values: []string{name}},
	}
	if vpcID != "" {
		filters = append(filters, types.Filter{Name: aws.String("vpc-id"), Values: []string{vpcID}})
	}

	resp, err := i.client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: filters,
	})
	if err != nil {
		return "", fmt.Errorf("failed to look up security group %s: %w", name, err)
	}
	if len(resp.SecurityGroups) == 0 {
		return "", fmt.Errorf("security group %s not found", name)
	}
	return aws.ToString(resp.SecurityGroups[0].GroupId), nil
}

func (i *Isolator) revokeEgress(ctx context.Context, groupID string) error {
	_, err := i.client.RevokeSecurityGroupEgress(ctx, &ec2.RevokeSecurityGroupEgressInput{
		GroupId: aws.String(groupID),
		IpPermissions: []types.IpPermission{
			{
				IpProtocol: aws.String("-1"),
				IpRanges:   []types.IpRange{{CidrIp: aws.String("0.0.0.0/0")}},
			},
		},
	})
	if err == nil {
		return nil
	}
	if hasErrorCode(err, errCodePermissionNotFound) {
		zerolog.Ctx(ctx).Warn().
			Str("isolation_group_id", groupID).
			Msg("default egress rule already revoked")
		return nil
	}
	return remediation.NewStepError(StepRevokeEgress, err)
}

func (i *Isolator) replaceGroups(ctx context.Context, instanceID, groupID string) error {
	_, err := i.client.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
		InstanceId: aws.String(instanceID),
		Groups:     []string{groupID},
	})
	if err != nil {
		return remediation.NewStepError(StepReplaceGroups, err)
	}
	return nil
}

func hasErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
