// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

// buildTable normalizes accumulated study records into a StudyTable. Columns
// follow the requested field order with the rank field excluded. Cells are
// sanitized scalars; list values are joined with a single tab after each
// element is sanitized, so splitting on tab recovers the list. Exact
// duplicate rows are dropped, keeping first occurrence order.
func buildTable(fields []string, records []map[string]any) *types.StudyTable {
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.EqualFold(f, rankField) {
			continue
		}
		cols = append(cols, f)
	}

	table := &types.StudyTable{Fields: cols}
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		row := make([]string, len(cols))
		for i, f := range cols {
			row[i] = flattenCell(rec[f])
		}

		// Unit separator cannot appear in sanitized cells, so the joined
		// row is a collision-free dedup key.
		key := strings.Join(row, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		table.Rows = append(table.Rows, row)
	}

	return table
}

// flattenCell converts one decoded JSON value into a table cell. Missing
// values become empty strings rather than a null marker.
func flattenCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return sanitize(x)
	case []any:
		parts := make([]string, len(x))
		for i, elem := range x {
			parts[i] = flattenScalar(elem)
		}
		return strings.Join(parts, "\t")
	default:
		return flattenScalar(v)
	}
}

func flattenScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return sanitize(x)
	case float64:
		return sanitize(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		return strconv.FormatBool(x)
	default:
		return sanitize(fmt.Sprint(x))
	}
}

// sanitize replaces literal tab, newline, and carriage-return characters
// with spaces so cells stay single-line and tab remains free to act as the
// list delimiter.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
