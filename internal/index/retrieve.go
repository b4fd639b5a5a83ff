// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// QueryOptions holds parameters for findings queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over finding text.
	Query string

	// Category filters by finding category.
	Category types.Category

	// Modality filters by interaction modality.
	Modality string

	// CandidateID filters by source paper.
	CandidateID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Category == "" && q.Modality == "" && q.CandidateID == ""
}

// QueryResult is a finding joined with its candidate's metadata.
type QueryResult struct {
	types.Finding `yaml:",inline"`
	Title         string `json:"title" yaml:"title"`
	Year          int    `json:"year,omitempty" yaml:"year,omitempty"`
	Score         int    `json:"score" yaml:"score"`
	StoredPath    string `json:"stored_path,omitempty" yaml:"stored_path,omitempty"`
}

// Retrieve queries the findings database with optional full-text search
// and structured filters. Full-text queries are ranked by relevance;
// structured-only queries are sorted by category, then candidate.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT f.candidate_id, f.text, f.category, f.modality,
				c.title, c.year, c.score, c.stored_path
			FROM findings_fts
			JOIN findings f ON f.rowid = findings_fts.rowid
			LEFT JOIN candidates c ON f.candidate_id = c.id
			WHERE findings_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT f.candidate_id, f.text, f.category, f.modality,
				c.title, c.year, c.score, c.stored_path
			FROM findings f
			LEFT JOIN candidates c ON f.candidate_id = c.id
			WHERE 1=1`)
	}

	if opts.Category != "" {
		qb.WriteString(` AND f.category = ?`)
		args = append(args, string(opts.Category))
	}
	if opts.Modality != "" {
		qb.WriteString(` AND f.modality = ?`)
		args = append(args, opts.Modality)
	}
	if opts.CandidateID != "" {
		qb.WriteString(` AND f.candidate_id = ?`)
		args = append(args, opts.CandidateID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY findings_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY f.category, f.candidate_id, f.rowid`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr         QueryResult
			category   string
			modality   sql.NullString
			title      sql.NullString
			year       sql.NullInt64
			score      sql.NullInt64
			storedPath sql.NullString
		)

		if err := rows.Scan(
			&qr.CandidateID, &qr.Text, &category, &modality,
			&title, &year, &score, &storedPath,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.Category = types.Category(category)
		if modality.Valid {
			qr.Modality = modality.String
		}
		if title.Valid {
			qr.Title = title.String
		}
		if year.Valid {
			qr.Year = int(year.Int64)
		}
		if score.Valid {
			qr.Score = int(score.Int64)
		}
		if storedPath.Valid {
			qr.StoredPath = storedPath.String
		}

		results = append(results, qr)
	}

	return results, rows.Err()
}

// CategoryCounts returns the number of indexed findings per category.
func (s *Store) CategoryCounts(ctx context.Context) (map[types.Category]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, count(*) FROM findings GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("counting findings: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.Category]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[types.Category(category)] = n
	}
	return counts, rows.Err()
}
