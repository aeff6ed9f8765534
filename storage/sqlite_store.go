package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"usedcars-pipeline/models"
	"usedcars-pipeline/utils"
)

var sqliteDialect = sqlDialect{
	quote:       func(s string) string { return fmt.Sprintf("%q", s) },
	placeholder: func(int) string { return "?" },
	typeOf: func(k models.Kind) string {
		switch k {
		case models.KindNumber:
			return "REAL"
		case models.KindBool:
			return "INTEGER"
		default:
			return "TEXT"
		}
	},
	boolValue: func(b bool) any {
		if b {
			return 1
		}
		return 0
	},
}

// SQLiteStore exports the accumulated dataset into a SQLite file and reads it
// back for the serving side.
type SQLiteStore struct {
	path   string
	logger *utils.Logger
}

// NewSQLiteStore creates a SQLiteStore for the database file at path.
func NewSQLiteStore(path string, logger *utils.Logger) *SQLiteStore {
	return &SQLiteStore{path: path, logger: logger}
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// Write drops and recreates the dataset table from dataset and records the run.
func (s *SQLiteStore) Write(ctx context.Context, run models.MergeRun, dataset *models.Table) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("sqlite: open: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		"DROP TABLE IF EXISTS " + sqliteDialect.quote(datasetTable),
		sqliteDialect.createTableSQL(),
		`CREATE TABLE IF NOT EXISTS ` + runsTable + ` (
			run_id     TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			batches    INTEGER NOT NULL,
			records    INTEGER NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("sqlite: schema: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, sqliteDialect.insertSQL(1))
	if err != nil {
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()
	for _, l := range dataset.Listings {
		if _, err := stmt.ExecContext(ctx, sqliteDialect.rowArgs(l, run.ID)...); err != nil {
			return fmt.Errorf("sqlite: insert %s: %w", l.Key, err)
		}
	}

	for _, q := range sqliteDialect.indexSQL() {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("sqlite: index: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO `+runsTable+` (run_id, started_at, batches, records) VALUES (?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format("2006-01-02T15:04:05Z"), len(run.Batches), run.Records)
	if err != nil {
		return fmt.Errorf("sqlite: record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	s.logger.Info("[sqlite] Exported %d listings to %s", dataset.Len(), s.path)
	return nil
}

// ReadDataset loads the exported dataset table.
func (s *SQLiteStore) ReadDataset() (*models.Table, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	defer db.Close()

	t, err := fetchDataset(context.Background(), db, sqliteDialect)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) Close() error { return nil }
