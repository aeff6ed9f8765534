package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"usedcars-pipeline/models"
	"usedcars-pipeline/utils"
)

var postgresDialect = sqlDialect{
	quote:       pq.QuoteIdentifier,
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	typeOf: func(k models.Kind) string {
		switch k {
		case models.KindNumber:
			return "DOUBLE PRECISION"
		case models.KindBool:
			return "BOOLEAN"
		case models.KindDate:
			return "DATE"
		default:
			return "TEXT"
		}
	},
	boolValue: func(b bool) any { return b },
}

// insertBatchSize keeps one INSERT well under the 65535 parameter limit.
const insertBatchSize = 50

// PostgresWriter mirrors the accumulated dataset into PostgreSQL.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) Name() string { return "postgres" }

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	stmts := []string{
		postgresDialect.createTableSQL(),
		`CREATE TABLE IF NOT EXISTS ` + runsTable + ` (
			run_id     TEXT        PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			batches    TEXT[]      NOT NULL DEFAULT '{}',
			records    INTEGER     NOT NULL DEFAULT 0
		)`,
	}
	stmts = append(stmts, postgresDialect.indexSQL()...)
	for _, s := range stmts {
		if _, err := pw.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Write replaces the table contents with dataset inside one transaction and
// records the run.
func (pw *PostgresWriter) Write(ctx context.Context, run models.MergeRun, dataset *models.Table) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(datasetTable)); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	for i := 0; i < len(dataset.Listings); i += insertBatchSize {
		end := min(i+insertBatchSize, len(dataset.Listings))
		if err := pw.insertBatch(ctx, tx, run.ID, dataset.Listings[i:end]); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO `+runsTable+` (run_id, started_at, batches, records) VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id) DO NOTHING`,
		run.ID, run.StartedAt, pq.Array(run.Batches), run.Records)
	if err != nil {
		return fmt.Errorf("postgres: record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	pw.logger.Info("[postgres] Stored %d listings (table: %s)", dataset.Len(), datasetTable)
	return nil
}

func (pw *PostgresWriter) insertBatch(ctx context.Context, tx *sql.Tx, runID string, batch []*models.Listing) error {
	args := make([]any, 0, len(batch)*(len(models.CanonicalFields)+2))
	for _, l := range batch {
		args = append(args, postgresDialect.rowArgs(l, runID)...)
	}
	if _, err := tx.ExecContext(ctx, postgresDialect.insertSQL(len(batch)), args...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// FetchAll reads the mirrored dataset back in key order.
func (pw *PostgresWriter) FetchAll(ctx context.Context) (*models.Table, error) {
	return fetchDataset(ctx, pw.db, postgresDialect)
}

// ReadDataset makes the mirror usable as a DatasetReader.
func (pw *PostgresWriter) ReadDataset() (*models.Table, error) {
	return pw.FetchAll(context.Background())
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
