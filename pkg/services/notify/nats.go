package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const DefaultNATSSubject = "sec.responses.threat"

// MessagePublisher is the subset of *nats.Conn used by the NATS notifier.
type MessagePublisher interface {
	Publish(subj string, data []byte) error
}

// alertMessage is the payload published for downstream responders.
type alertMessage struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

type NATSNotifier struct {
	conn    MessagePublisher
	subject string
	now     func() time.Time
}

func NewNATSNotifier(conn MessagePublisher, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	return &NATSNotifier{
		conn:    conn,
		subject: subject,
		now:     time.Now,
	}
}

// DialNATS connects to the server at url, retrying in the background while it
// is unreachable.
func DialNATS(ctx context.Context, url string) (*nats.Conn, error) {
	logger := zerolog.Ctx(ctx).With().Str("component", "nats_notifier").Logger()

	nc, err := nats.Connect(url,
		nats.Name("threat-response"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return nc, nil
}

func (n *NATSNotifier) Notify(ctx context.Context, msg domain.Notification) {
	logger := zerolog.Ctx(ctx)

	data, err := json.Marshal(alertMessage{
		Subject: msg.Subject,
		Body:    msg.Body,
		SentAt:  n.now().UTC(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode alert message")
		return
	}

	if err = n.conn.Publish(n.subject, data); err != nil {
		logger.Error().
			Err(err).
			Str("nats_subject", n.subject).
			Msg("failed to publish alert to NATS")
		return
	}

	logger.Debug().Str("nats_subject", n.subject).Msg("alert published to NATS")
}

// Fanout delivers every notification to each notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, msg domain.Notification) {
	for _, n := range f {
		n.Notify(ctx, msg)
	}
}
