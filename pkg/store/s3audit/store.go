// Package s3audit archives the trail of each processed finding to S3.
package s3audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/threat-response/pkg/adapters"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/rs/zerolog"
)

// PutObjectAPI is the subset of the S3 client used by the store.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Settings struct {
	Bucket string
	Prefix string
}

type Store struct {
	client   PutObjectAPI
	settings Settings
	now      func() time.Time
}

func NewStoreFromConfig(cfg aws.Config, settings Settings) *Store {
	return NewStore(s3.NewFromConfig(cfg), settings)
}

func NewStore(client PutObjectAPI, settings Settings) *Store {
	return &Store{
		client:   client,
		settings: settings,
		now:      time.Now,
	}
}

// Key returns the object key of a finding's audit record.
func (s *Store) Key(f domain.Finding) string {
	return fmt.Sprintf("%s%s/%s.json", s.settings.Prefix, sanitize(f.AccountID), sanitize(f.ID))
}

// Record writes the audit record. Failures are logged and never returned: the
// archive must not affect remediation that already happened.
func (s *Store) Record(ctx context.Context, f domain.Finding, o domain.RemediationOutcome) {
	logger := zerolog.Ctx(ctx)

	record := adapters.MapAuditRecord(f, o, s.now())
	data, err := json.Marshal(record)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode audit record")
		return
	}

	key := s.Key(f)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.settings.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("bucket", s.settings.Bucket).
			Str("key", key).
			Msg("failed to archive audit record")
		return
	}

	logger.Debug().Str("bucket", s.settings.Bucket).Str("key", key).Msg("audit record archived")
}

func sanitize(s string) string {
	if s == "" {
		return domain.UnknownValue
	}
	return strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(s)
}
