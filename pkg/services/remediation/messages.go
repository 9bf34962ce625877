package remediation

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/de-tools/threat-response/pkg/models/domain"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

type messageKey struct {
	resourceType string
	status       domain.OutcomeStatus
}

type messageData struct {
	Finding       domain.Finding
	Outcome       domain.RemediationOutcome
	SeverityLabel string
	Severity      string
}

func newMessage(name, subject, body string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New(name + "-subject").Parse(subject)),
		body:    template.Must(template.New(name + "-body").Parse(strings.TrimLeft(body, "\n"))),
	}
}

var genericAlert = newMessage("generic-alert",
	`GuardDuty Alert: {{.Finding.Type}}`,
	`Account: {{.Finding.AccountID}}
Finding ID: {{.Finding.ID}}
Resource Type: {{.Finding.Resource.ResourceType}}
Severity: {{.Severity}}`)

var abortedAlert = newMessage("aborted",
	`REMEDIATION ABORTED: {{.Outcome.ResourceType}} finding {{.Finding.ID}}`,
	`
Automated remediation was not attempted: {{.Outcome.ErrorDetail}}.

Finding Type: {{.Finding.Type}}
Finding ID: {{.Finding.ID}}
Account: {{.Finding.AccountID}}
Resource Type: {{.Outcome.ResourceType}}
Severity: {{.Severity}} ({{.SeverityLabel}})

Manual review required.`)

var messages = map[messageKey]messageTemplate{
	{domain.ResourceTypeInstance, domain.OutcomeSucceeded}: newMessage("isolation-succeeded",
		`AUTOMATED ISOLATION: EC2 Instance {{.Outcome.Target}}`,
		`
AUTOMATED THREAT RESPONSE EXECUTED

Finding Type: {{.Finding.Type}}
Account: {{.Finding.AccountID}}
Instance ID: {{.Outcome.Target}}
Action Taken: Instance isolated with deny-all security group {{.Outcome.Detail "isolation_group_id"}}

The instance has been cut off from all network access.
Please investigate and take further action.`),

	{domain.ResourceTypeInstance, domain.OutcomeFailed}: newMessage("isolation-failed",
		`REMEDIATION FAILED: EC2 {{.Outcome.Target}}`,
		`Failed to isolate instance {{.Outcome.Target}}. Manual intervention required.
{{- with .Outcome.Step}}
Failed Step: {{.}}{{end}}
{{- with .Outcome.Detail "isolation_group_id"}}
Isolation Group: {{.}} (created, may need cleanup){{end}}
Error: {{.Outcome.ErrorDetail}}`),

	{domain.ResourceTypeAccessKey, domain.OutcomeSucceeded}: newMessage("revocation-succeeded",
		`AUTOMATED KEY REVOCATION: {{.Outcome.Detail "user_name"}}`,
		`
AUTOMATED THREAT RESPONSE EXECUTED

Finding Type: {{.Finding.Type}}
Account: {{.Finding.AccountID}}
Username: {{.Outcome.Detail "user_name"}}
Access Key: {{.Outcome.Target}}
Action Taken: Access key deactivated

Please investigate the user account for further compromise.
Consider forcing password reset and reviewing CloudTrail for this user.`),

	{domain.ResourceTypeAccessKey, domain.OutcomeFailed}: newMessage("revocation-failed",
		`REMEDIATION FAILED: IAM Key {{.Outcome.Target}}`,
		`Failed to deactivate key {{.Outcome.Target}}. Manual intervention required.
Error: {{.Outcome.ErrorDetail}}`),
}

// ComposeNotification picks the message for an outcome. The boolean is false when
// the outcome calls for no notification: aborted outcomes stay silent unless
// notifyOnAbort is set.
func ComposeNotification(
	f domain.Finding,
	o domain.RemediationOutcome,
	notifyOnAbort bool,
) (domain.Notification, bool, error) {
	var tmpl messageTemplate
	switch o.Status {
	case domain.OutcomeSkipped:
		tmpl = genericAlert
	case domain.OutcomeAborted:
		if !notifyOnAbort {
			return domain.Notification{}, false, nil
		}
		tmpl = abortedAlert
	default:
		var ok bool
		tmpl, ok = messages[messageKey{resourceType: o.ResourceType, status: o.Status}]
		if !ok {
			return domain.Notification{}, false, fmt.Errorf(
				"no message for %s outcome of resource type %s", o.Status, o.ResourceType)
		}
	}

	data := messageData{
		Finding:       f,
		Outcome:       o,
		Severity:      domain.FormatScore(f.Severity),
		SeverityLabel: domain.SeverityFromScore(f.Severity).String(),
	}

	subject, err := render(tmpl.subject, data)
	if err != nil {
		return domain.Notification{}, false, err
	}
	body, err := render(tmpl.body, data)
	if err != nil {
		return domain.Notification{}, false, err
	}

	return domain.Notification{Subject: subject, Body: body}, true, nil
}

// fallbackNotification is sent when no template could be rendered, so a human
// still hears about the outcome.
func fallbackNotification(f domain.Finding, o domain.RemediationOutcome) domain.Notification {
	return domain.Notification{
		Subject: fmt.Sprintf("GuardDuty Remediation %s: %s", o.Status, f.Type),
		Body: fmt.Sprintf(
			"Account: %s\nFinding ID: %s\nResource Type: %s\nTarget: %s\nStatus: %s\nError: %s",
			f.AccountID, f.ID, o.ResourceType, o.Target, o.Status, o.ErrorDetail,
		),
	}
}

func render(t *template.Template, data messageData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
