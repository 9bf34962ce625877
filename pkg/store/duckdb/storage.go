package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const HistoryTableSchema = `
	CREATE TABLE IF NOT EXISTS remediation_history (
		finding_id VARCHAR NOT NULL,
		finding_type VARCHAR NOT NULL,
		account_id VARCHAR NOT NULL,
		region VARCHAR,
		severity DOUBLE,
		resource_type VARCHAR NOT NULL,
		target VARCHAR,
		status VARCHAR NOT NULL,
		action VARCHAR,
		step VARCHAR,
		error_detail VARCHAR,
		details VARCHAR,
		recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

const HistoryIndex = `
	CREATE INDEX IF NOT EXISTS remediation_history_recorded_at ON remediation_history (recorded_at);
`

var bootQueries = []string{
	HistoryTableSchema,
	HistoryIndex,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=2", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
