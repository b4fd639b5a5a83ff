// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists screened candidates and their findings in a
// per-run SQLite database with a full-text index over finding text, so
// a finished run can be queried without re-reading the JSON artifacts.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "findings.db"
)

// Store manages the findings SQLite database for one run.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the findings database at
// runDir/index/findings.db, creating the schema if needed.
func NewStore(runDir string, maxResults int) (*Store, error) {
	dbDir := filepath.Join(runDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: dbDir, maxResults: maxResults}
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
		`CREATE TABLE IF NOT EXISTS candidates (
			id TEXT PRIMARY KEY,
			title TEXT,
			abstract TEXT,
			year INTEGER,
			backend TEXT,
			score INTEGER,
			rationale TEXT,
			stored_path TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			candidate_id TEXT NOT NULL REFERENCES candidates(id),
			text TEXT NOT NULL,
			category TEXT NOT NULL,
			modality TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_candidate ON findings(candidate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_category ON findings(category)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_modality ON findings(modality)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='findings_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE findings_fts USING fts5(text, content=findings, content_rowid=rowid)`,
			`CREATE TRIGGER findings_ai AFTER INSERT ON findings BEGIN
				INSERT INTO findings_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER findings_ad AFTER DELETE ON findings BEGIN
				INSERT INTO findings_fts(findings_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
			`CREATE TRIGGER findings_au AFTER UPDATE ON findings BEGIN
				INSERT INTO findings_fts(findings_fts, rowid, text) VALUES('delete', old.rowid, old.text);
				INSERT INTO findings_fts(rowid, text) VALUES (new.rowid, new.text);
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

// IngestSummary holds counts from one indexing pass.
type IngestSummary struct {
	Candidates int
	Findings   int
}

// Ingest stores accepted candidates, their findings, and stored paths
// from download results. Re-ingesting the same candidates replaces
// their previous rows, so the operation is idempotent.
func (s *Store) Ingest(ctx context.Context, accepted []types.ScoredCandidate, findings []types.Finding, downloads []types.DownloadResult) (IngestSummary, error) {
	stored := make(map[string]string, len(downloads))
	for _, d := range downloads {
		if d.Status == types.DownloadOK {
			stored[d.CandidateID] = d.StoredPath
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var summary IngestSummary

	for _, sc := range accepted {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO candidates (id, title, abstract, year, backend, score, rationale, stored_path)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				title=excluded.title, abstract=excluded.abstract, year=excluded.year,
				backend=excluded.backend, score=excluded.score,
				rationale=excluded.rationale, stored_path=excluded.stored_path`,
			sc.ExternalID, sc.Title, sc.Abstract, sc.Year, sc.Backend,
			sc.Score, sc.Rationale, stored[sc.ExternalID],
		)
		if err != nil {
			return summary, fmt.Errorf("upserting candidate %s: %w", sc.ExternalID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM findings WHERE candidate_id = ?`, sc.ExternalID,
		); err != nil {
			return summary, fmt.Errorf("clearing findings for %s: %w", sc.ExternalID, err)
		}
		summary.Candidates++
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (candidate_id, text, category, modality) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return summary, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		if _, err := stmt.ExecContext(ctx, f.CandidateID, f.Text, string(f.Category), f.Modality); err != nil {
			return summary, fmt.Errorf("inserting finding for %s: %w", f.CandidateID, err)
		}
		summary.Findings++
	}

	return summary, tx.Commit()
}
