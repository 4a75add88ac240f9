// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for archive queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// Field and Value filter on an exact registry field value, e.g.
	// Field "OverallStatus", Value "Recruiting".
	Field string
	Value string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Field == ""
}

// StudyResult is one archived study record.
type StudyResult struct {
	NCTID     string            `json:"nct_id" yaml:"nct_id"`
	FetchedAt string            `json:"fetched_at" yaml:"fetched_at"`
	Record    map[string]string `json:"record" yaml:"record"`
}

// Search queries the archive with optional full-text search and an exact
// field filter. Results are ranked by relevance for full-text queries or
// sorted by NCT ID otherwise.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]StudyResult, error) {
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
			`SELECT s.nct_id, s.fetched_at, s.record
			FROM studies_fts
			JOIN studies s ON s.rowid = studies_fts.rowid
			WHERE studies_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT s.nct_id, s.fetched_at, s.record
			FROM studies s
			WHERE 1=1`)
	}

	if opts.Field != "" {
		qb.WriteString(` AND json_extract(s.record, ?) = ?`)
		args = append(args, jsonPath(opts.Field), opts.Value)
	}

	if useFTS {
		qb.WriteString(` ORDER BY studies_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY s.nct_id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var results []StudyResult
	for rows.Next() {
		var (
			sr         StudyResult
			recordJSON string
		)
		if err := rows.Scan(&sr.NCTID, &sr.FetchedAt, &recordJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(recordJSON), &sr.Record); err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", sr.NCTID, err)
		}
		results = append(results, sr)
	}

	return results, rows.Err()
}

// FieldCount is one value of a registry field with its study count.
type FieldCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// Counts groups archived studies by a registry field value, most frequent
// first. Studies that do not carry the field count under the empty value.
func (s *Store) Counts(ctx context.Context, field string) ([]FieldCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json_extract(record, ?) AS value, COUNT(*)
		 FROM studies
		 GROUP BY value
		 ORDER BY COUNT(*) DESC, value`,
		jsonPath(field),
	)
	if err != nil {
		return nil, fmt.Errorf("counting by %s: %w", field, err)
	}
	defer rows.Close()

	var counts []FieldCount
	for rows.Next() {
		var (
			value sql.NullString
			fc    FieldCount
		)
		if err := rows.Scan(&value, &fc.Count); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if value.Valid {
			fc.Value = value.String
		}
		counts = append(counts, fc)
	}

	return counts, rows.Err()
}

// jsonPath builds a JSON1 path expression for a registry field name.
func jsonPath(field string) string {
	return fmt.Sprintf(`$."%s"`, field)
}
