package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/de-tools/threat-response/pkg/adapters"
	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/de-tools/threat-response/pkg/models/store"
	"github.com/rs/zerolog"
)

const DefaultListLimit = 50

// Store keeps the local remediation history, newest first on read.
type Store interface {
	Add(ctx context.Context, record store.HistoryRecord) error
	List(ctx context.Context, limit int) ([]store.HistoryRecord, error)
}

type historyStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &historyStore{
		db: db,
	}, nil
}

func (h *historyStore) Add(ctx context.Context, record store.HistoryRecord) error {
	details, err := json.Marshal(record.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query := `
		INSERT INTO remediation_history (
			finding_id, finding_type, account_id, region, severity, resource_type,
			target, status, action, step, error_detail, details, recorded_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`

	_, err = h.db.ExecContext(ctx, query,
		record.FindingID,
		record.FindingType,
		record.AccountID,
		record.Region,
		record.Severity,
		record.ResourceType,
		record.Target,
		record.Status,
		record.Action,
		record.Step,
		record.ErrorDetail,
		string(details),
		record.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	return nil
}

func (h *historyStore) List(ctx context.Context, limit int) ([]store.HistoryRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT finding_id, finding_type, account_id, region, severity, resource_type,
			target, status, action, step, error_detail, details, recorded_at
		FROM remediation_history
		ORDER BY recorded_at DESC
		LIMIT ?
	`
	rows, err := h.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records := make([]store.HistoryRecord, 0)
	for rows.Next() {
		var (
			r       store.HistoryRecord
			region  sql.NullString
			target  sql.NullString
			action  sql.NullString
			step    sql.NullString
			errText sql.NullString
			details sql.NullString
		)
		err = rows.Scan(
			&r.FindingID, &r.FindingType, &r.AccountID, &region, &r.Severity, &r.ResourceType,
			&target, &r.Status, &action, &step, &errText, &details, &r.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		r.Region = region.String
		r.Target = target.String
		r.Action = action.String
		r.Step = step.String
		r.ErrorDetail = errText.String

		if details.Valid && details.String != "" && details.String != "null" {
			if err = json.Unmarshal([]byte(details.String), &r.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details of finding %s: %w", r.FindingID, err)
			}
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return records, nil
}

// Recorder appends every processed finding to the history store. Write
// failures are logged only.
type Recorder struct {
	store Store
	now   func() time.Time
}

func NewRecorder(s Store) *Recorder {
	return &Recorder{
		store: s,
		now:   time.Now,
	}
}

func (r *Recorder) Record(ctx context.Context, f domain.Finding, o domain.RemediationOutcome) {
	err := r.store.Add(ctx, adapters.MapHistoryDomainToStore(f, o, r.now()))
	if err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Str("finding_id", f.ID).
			Msg("failed to record remediation history")
	}
}
