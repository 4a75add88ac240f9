// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notes computes descriptive statistics over clinical-note metadata:
// note counts over time by category and compound annual growth rates per
// category. Rendering is left to downstream tools; everything here returns
// plain tables.
package notes

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

// Record is one note-metadata row: the time period the note was written in
// and the category it is grouped under (typically the encounter department
// specialty).
type Record struct {
	Period   string
	Category string
}

// ReadCSV loads note metadata from CSV with a header row. Column names are
// matched case-insensitively against the configured period and category
// columns. Rows with an empty period are skipped; an empty category is kept
// as its own bucket.
func ReadCSV(r io.Reader, cfg types.NotesConfig) ([]Record, error) {
	periodCol := cfg.PeriodColumn
	if periodCol == "" {
		periodCol = "year"
	}
	categoryCol := cfg.CategoryColumn
	if categoryCol == "" {
		categoryCol = "department_specialty"
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	periodIdx, categoryIdx := -1, -1
	for i, name := range header {
		switch {
		case strings.EqualFold(strings.TrimSpace(name), periodCol):
			periodIdx = i
		case strings.EqualFold(strings.TrimSpace(name), categoryCol):
			categoryIdx = i
		}
	}
	if periodIdx < 0 {
		return nil, fmt.Errorf("CSV has no %q column", periodCol)
	}
	if categoryIdx < 0 {
		return nil, fmt.Errorf("CSV has no %q column", categoryCol)
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		if periodIdx >= len(row) {
			continue
		}
		period := strings.TrimSpace(row[periodIdx])
		if period == "" {
			continue
		}
		category := ""
		if categoryIdx < len(row) {
			category = strings.TrimSpace(row[categoryIdx])
		}
		records = append(records, Record{Period: period, Category: category})
	}

	return records, nil
}

// comparePeriods orders periods numerically when both parse as integers
// (calendar years do) and lexicographically otherwise.
func comparePeriods(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
