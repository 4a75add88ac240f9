// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

// TermFile is the on-disk representation of a term sweep: a curated list of
// search terms that share return fields, an optional search-field
// restriction, and an optional per-term record limit. The digital-health
// term list the study sweeps lives in one of these.
type TermFile struct {
	Terms        []string `yaml:"terms"`
	ReturnFields []string `yaml:"return_fields"`
	SearchField  string   `yaml:"search_field,omitempty"`
	Limit        int      `yaml:"limit,omitempty"`
}

// ReadTermFile loads a term file from disk.
func ReadTermFile(path string) (*TermFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading term file: %w", err)
	}
	var tf TermFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing term file: %w", err)
	}
	if len(tf.Terms) == 0 {
		return nil, fmt.Errorf("term file %s lists no terms", path)
	}
	return &tf, nil
}

// Queries expands the term file into one Query per term.
func (tf *TermFile) Queries() []Query {
	queries := make([]Query, len(tf.Terms))
	for i, term := range tf.Terms {
		queries[i] = Query{
			Expression:   term,
			ReturnFields: tf.ReturnFields,
			SearchField:  tf.SearchField,
			Limit:        tf.Limit,
		}
	}
	return queries
}

// ResultFile is a saved fetch: the query that produced it, the normalized
// table, and summary statistics. Saving a sweep lets the study reload
// results without re-querying the registry.
type ResultFile struct {
	Query   QueryParams       `yaml:"query"`
	Table   *types.StudyTable `yaml:"table"`
	Summary ResultSummary     `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	Expression   string   `yaml:"expression"`
	ReturnFields []string `yaml:"return_fields"`
	SearchField  string   `yaml:"search_field,omitempty"`
	Limit        int      `yaml:"limit,omitempty"`
}

// ResultSummary stores result statistics and a timestamp.
type ResultSummary struct {
	Studies   int       `yaml:"studies"`
	FetchedAt time.Time `yaml:"fetched_at"`
}

// WriteResultFile saves a query and its result table to a YAML file.
func WriteResultFile(path string, q Query, table *types.StudyTable) error {
	rf := ResultFile{
		Query: QueryParams{
			Expression:   q.Expression,
			ReturnFields: q.ReturnFields,
			SearchField:  q.SearchField,
			Limit:        q.Limit,
		},
		Table: table,
		Summary: ResultSummary{
			Studies:   table.NumRows(),
			FetchedAt: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved fetch from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}

// ToQuery converts stored QueryParams back into a Query.
func (p QueryParams) ToQuery() Query {
	return Query{
		Expression:   p.Expression,
		ReturnFields: p.ReturnFields,
		SearchField:  p.SearchField,
		Limit:        p.Limit,
	}
}
