// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the dhnotes tooling.
package types

// StudyTable is a normalized tabular view of registry study records. Fields
// holds the column names in request order; every row has exactly one cell
// per field.
//
// Invariants after registry post-processing: no Rank column, no duplicate
// rows, no missing-value markers (absent cells are empty strings), and no
// raw tab or newline characters inside a cell (list-valued cells are joined
// with a single tab, so splitting a cell on tab recovers the original list).
type StudyTable struct {
	Fields []string   `json:"fields" yaml:"fields"`
	Rows   [][]string `json:"rows" yaml:"rows"`
}

// NumRows returns the number of study records in the table.
func (t *StudyTable) NumRows() int { return len(t.Rows) }

// FieldIndex returns the column position of the named field, or -1 if the
// table does not carry it.
func (t *StudyTable) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, field), or "" when the field is absent.
func (t *StudyTable) Cell(row int, field string) string {
	i := t.FieldIndex(field)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// Article is one PubMed Central full-text record. Fields the source XML
// does not carry are empty strings.
type Article struct {
	PMCID    string `json:"pmc_id" yaml:"pmc_id"`
	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`
	Text     string `json:"text" yaml:"text"`
}
