// Package notify delivers alerts to the security team.
package notify

import (
	"context"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/rs/zerolog"
)

// MaxSubjectLength is the SNS limit on message subjects.
const MaxSubjectLength = 100

// Notifier is the terminal sink of every invocation. Implementations must not
// surface delivery failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, msg domain.Notification)
}

// Publisher is the subset of the SNS client the notifier depends on.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSNotifier struct {
	client   Publisher
	topicARN string
}

func NewSNSNotifier(cfg aws.Config, topicARN string) *SNSNotifier {
	return NewNotifier(sns.NewFromConfig(cfg), topicARN)
}

func NewNotifier(client Publisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
	}
}

func (n *SNSNotifier) Notify(ctx context.Context, msg domain.Notification) {
	logger := zerolog.Ctx(ctx)

	if n.topicARN == "" {
		logger.Error().
			Str("subject", msg.Subject).
			Msg("notification topic is not configured, dropping notification")
		return
	}

	subject := TruncateSubject(msg.Subject)
	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(msg.Body),
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("topic_arn", n.topicARN).
			Str("subject", subject).
			Msg("failed to send notification")
		return
	}

	logger.Info().
		Str("subject", subject).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("notification sent")
}

// TruncateSubject makes s a valid SNS subject: control characters such as line
// breaks become spaces and the result is cut to MaxSubjectLength characters.
func TruncateSubject(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)

	runes := []rune(s)
	if len(runes) <= MaxSubjectLength {
		return s
	}
	return string(runes[:MaxSubjectLength])
}
