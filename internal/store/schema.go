package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

// Migrate brings db up to schemaVersion. It is safe to call on every
// start.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	stmts := []string{`
CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  role TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  link TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  posted TEXT NOT NULL DEFAULT '',
  posted_raw TEXT NOT NULL DEFAULT '',
  posted_date TEXT NOT NULL DEFAULT '',
  fit_score INTEGER NOT NULL DEFAULT 0,
  preference_match TEXT NOT NULL DEFAULT '',
  why_fit TEXT NOT NULL DEFAULT '',
  cv_gap TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  applicant_count TEXT NOT NULL DEFAULT '',
  applicant_count_numeric INTEGER,
  applicant_count_prev INTEGER,
  applicant_count_prev_date TEXT NOT NULL DEFAULT '',
  alternate_links TEXT NOT NULL DEFAULT '[]',
  enrichment TEXT NOT NULL DEFAULT '{}',
  manual_link INTEGER NOT NULL DEFAULT 0,
  application_status TEXT NOT NULL DEFAULT '',
  dismiss_reason TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  last_seen_at TEXT NOT NULL
);`, `
CREATE INDEX IF NOT EXISTS idx_documents_status_created
ON documents(application_status, created_at);`, `
CREATE TABLE IF NOT EXISTS applicant_history (
  document_id TEXT NOT NULL,
  date TEXT NOT NULL,
  count INTEGER NOT NULL,
  raw_text TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL,
  PRIMARY KEY (document_id, date, count)
);`, `
CREATE TABLE IF NOT EXISTS source_stats (
  date TEXT PRIMARY KEY,
  total INTEGER NOT NULL,
  counts TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS notifications (
  document_id TEXT PRIMARY KEY,
  role TEXT NOT NULL,
  company TEXT NOT NULL,
  fit_score INTEGER NOT NULL,
  link TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  seen INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema v1: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}
