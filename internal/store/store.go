// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists fetched registry study records in SQLite and
// maintains a full-text index over them.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "studies.db"

	// idField is the registry column used as the archive key.
	idField = "NCTId"
)

// Store manages the study archive SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// NewStore opens or creates the archive database at dataDir/index/studies.db,
// creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dataDir:    cfg.DataDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS studies (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			nct_id TEXT NOT NULL UNIQUE,
			content_hash TEXT NOT NULL,
			fetched_at TEXT NOT NULL,
			record TEXT NOT NULL,
			body TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='studies_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE studies_fts USING fts5(body, content=studies, content_rowid=rowid)`,
			`CREATE TRIGGER studies_ai AFTER INSERT ON studies BEGIN
				INSERT INTO studies_fts(rowid, body) VALUES (new.rowid, new.body);
			END`,
			`CREATE TRIGGER studies_ad AFTER DELETE ON studies BEGIN
				INSERT INTO studies_fts(studies_fts, rowid, body) VALUES('delete', old.rowid, old.body);
			END`,
			`CREATE TRIGGER studies_au AFTER UPDATE ON studies BEGIN
				INSERT INTO studies_fts(studies_fts, rowid, body) VALUES('delete', old.rowid, old.body);
				INSERT INTO studies_fts(rowid, body) VALUES (new.rowid, new.body);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an archive ingestion run.
type IngestSummary struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Total returns the number of study rows processed.
func (s IngestSummary) Total() int {
	return s.Inserted + s.Updated + s.Skipped
}

// Ingest upserts the table's rows into the archive, keyed by NCT ID. Each
// record carries a content hash so an unchanged study is skipped on
// re-ingest; rows without an NCT ID value are skipped. The table must carry
// the NCTId column.
func (s *Store) Ingest(ctx context.Context, table *types.StudyTable, w io.Writer) (IngestSummary, error) {
	idIdx := table.FieldIndex(idField)
	if idIdx < 0 {
		return IngestSummary{}, fmt.Errorf("table has no %s column", idField)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)

	var summary IngestSummary

	for _, row := range table.Rows {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		nctID := row[idIdx]
		if nctID == "" {
			summary.Skipped++
			continue
		}

		record := make(map[string]string, len(table.Fields))
		for i, field := range table.Fields {
			record[field] = row[i]
		}
		recordJSON, err := json.Marshal(record)
		if err != nil {
			return summary, fmt.Errorf("encoding record %s: %w", nctID, err)
		}

		sum := sha256.Sum256(recordJSON)
		hash := hex.EncodeToString(sum[:])

		var storedHash string
		err = tx.QueryRowContext(ctx,
			`SELECT content_hash FROM studies WHERE nct_id = ?`, nctID,
		).Scan(&storedHash)

		switch {
		case err == nil && storedHash == hash:
			summary.Skipped++
			continue
		case err == nil:
			_, err = tx.ExecContext(ctx,
				`UPDATE studies SET content_hash = ?, fetched_at = ?, record = ?, body = ?
				 WHERE nct_id = ?`,
				hash, fetchedAt, string(recordJSON), strings.Join(row, "\n"), nctID,
			)
			if err != nil {
				return summary, fmt.Errorf("updating study %s: %w", nctID, err)
			}
			summary.Updated++
		case err == sql.ErrNoRows:
			_, err = tx.ExecContext(ctx,
				`INSERT INTO studies (nct_id, content_hash, fetched_at, record, body)
				 VALUES (?, ?, ?, ?, ?)`,
				nctID, hash, fetchedAt, string(recordJSON), strings.Join(row, "\n"),
			)
			if err != nil {
				return summary, fmt.Errorf("inserting study %s: %w", nctID, err)
			}
			summary.Inserted++
		default:
			return summary, fmt.Errorf("checking study %s: %w", nctID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing ingest: %w", err)
	}

	fmt.Fprintf(w, "inserted: %d, updated: %d, skipped: %d\n",
		summary.Inserted, summary.Updated, summary.Skipped)

	return summary, nil
}
