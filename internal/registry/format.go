// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

// FormatTable writes a human-readable preview of the result table to w.
// Long cells are truncated; flattened lists show their first element with a
// count of the rest.
func FormatTable(t *types.StudyTable, w io.Writer) {
	if t == nil || t.NumRows() == 0 {
		fmt.Fprintln(w, "No studies.")
		return
	}

	widths := make([]int, len(t.Fields))
	for i, f := range t.Fields {
		widths[i] = len(f)
		if widths[i] > 40 {
			widths[i] = 40
		}
	}

	for i, f := range t.Fields {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprintf(w, "%-*s", widths[i], truncate(f, 40))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", tableWidth(widths)))

	for _, row := range t.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], truncate(previewCell(cell), 40))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n%d studies\n", t.NumRows())
}

// FormatJSON writes the table as an indented array of field-to-value records.
func FormatJSON(t *types.StudyTable, w io.Writer) error {
	records := make([]map[string]string, 0, t.NumRows())
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Fields))
		for i, f := range t.Fields {
			rec[f] = row[i]
		}
		records = append(records, rec)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes the table as RFC 4180 CSV with a header row. Cells that
// carry flattened lists keep their embedded tabs; the CSV writer quotes them.
func WriteCSV(t *types.StudyTable, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Fields); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// previewCell collapses a flattened list for display.
func previewCell(cell string) string {
	parts := strings.Split(cell, "\t")
	if len(parts) == 1 {
		return cell
	}
	return fmt.Sprintf("%s (+%d)", parts[0], len(parts)-1)
}

func tableWidth(widths []int) int {
	total := 0
	for i, w := range widths {
		if i > 0 {
			total += 2
		}
		total += w
	}
	if total > 110 {
		return 110
	}
	return total
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
