// Package app wires configuration, AWS clients and the remediation engine
// together for the process entrypoints.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/threat-response/pkg/adapters"
	"github.com/de-tools/threat-response/pkg/models/api"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/de-tools/threat-response/pkg/services/config"
	"github.com/de-tools/threat-response/pkg/services/notify"
	"github.com/de-tools/threat-response/pkg/services/remediation"
	"github.com/de-tools/threat-response/pkg/services/remediation/compute"
	"github.com/de-tools/threat-response/pkg/services/remediation/credential"
	"github.com/de-tools/threat-response/pkg/services/response"
	"github.com/de-tools/threat-response/pkg/store/duckdb"
	"github.com/de-tools/threat-response/pkg/store/duckdb/history"
	"github.com/de-tools/threat-response/pkg/store/s3audit"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ErrHistoryDisabled is returned when no history database is configured.
var ErrHistoryDisabled = errors.New("remediation history is not configured")

type App struct {
	Config  *config.Config
	Router  *remediation.Router
	Handler *response.Handler
	History history.Store

	db   *sql.DB
	nats *nats.Conn
}

// Factory builds an App from a resolved configuration.
type Factory func(ctx context.Context, cfg *config.Config) (*App, error)

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := zerolog.Ctx(ctx)

	awsCfg, err := config.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	if cfg.Notification.TopicARN == "" {
		logger.Warn().Msg("no notification topic configured, alerts will only be logged")
	}

	a := &App{Config: cfg}

	notifier := notify.Fanout{notify.NewSNSNotifier(awsCfg, cfg.Notification.TopicARN)}
	if cfg.Notification.NATSURL != "" {
		a.nats, err = notify.DialNATS(ctx, cfg.Notification.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect alert bus: %w", err)
		}
		notifier = append(notifier, notify.NewNATSNotifier(a.nats, cfg.Notification.NATSSubject))
		logger.Info().Str("nats_subject", cfg.Notification.NATSSubject).Msg("NATS alert publishing enabled")
	}

	a.Router, err = remediation.NewRouter(
		notifier,
		remediation.Options{NotifyOnAbort: cfg.Notification.NotifyOnAbort},
		compute.NewIsolatorFromConfig(awsCfg, cfg.Isolation.GroupPrefix),
		credential.NewDeactivatorFromConfig(awsCfg),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create remediation router: %w", err)
	}

	var recorders response.Recorders
	if cfg.Audit.Bucket != "" {
		recorders = append(recorders, s3audit.NewStoreFromConfig(awsCfg, s3audit.Settings{
			Bucket: cfg.Audit.Bucket,
			Prefix: cfg.Audit.Prefix,
		}))
		logger.Info().Str("bucket", cfg.Audit.Bucket).Msg("audit archive enabled")
	}

	if cfg.History.DBPath != "" {
		a.db, err = duckdb.NewDB(duckdb.Settings{DbPath: cfg.History.DBPath})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		a.History, err = history.NewStore(a.db)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		recorders = append(recorders, history.NewRecorder(a.History))
		logger.Info().Str("db_path", cfg.History.DBPath).Msg("remediation history enabled")
	}

	var recorder response.Recorder
	if len(recorders) > 0 {
		recorder = recorders
	}
	a.Handler = response.NewHandler(a.Router, recorder)

	return a, nil
}

// Close drains the alert bus connection and closes the history database.
func (a *App) Close() error {
	var errs []error
	if a.nats != nil {
		if err := a.nats.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("failed to drain NATS connection: %w", err))
		}
		a.nats = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close history database: %w", err))
		}
		a.db = nil
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func (a *App) Process(ctx context.Context, raw []byte) (domain.Finding, domain.RemediationOutcome, error) {
	return a.Handler.Process(ctx, raw)
}

func (a *App) Strategies() []remediation.Strategy {
	return a.Router.Strategies()
}

// ListHistory returns the most recent remediations, newest first.
func (a *App) ListHistory(ctx context.Context, limit int) ([]api.AuditRecord, error) {
	if a.History == nil {
		return nil, ErrHistoryDisabled
	}
	records, err := a.History.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return adapters.MapHistoryStoreToApiList(records), nil
}
