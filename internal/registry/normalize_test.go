package registry

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildTableDropsRankColumn(t *testing.T) {
	records := []map[string]any{
		{"Rank": float64(1), "NCTId": []any{"NCT00000001"}},
	}
	table := buildTable([]string{"NCTId", "Rank"}, records)

	if !reflect.DeepEqual(table.Fields, []string{"NCTId"}) {
		t.Errorf("Fields = %v", table.Fields)
	}
}

func TestBuildTableFlattensLists(t *testing.T) {
	records := []map[string]any{
		{"NCTId": []any{"NCT00000001"}, "Condition": []any{"diabetes", "obesity", "asthma"}},
	}
	table := buildTable([]string{"NCTId", "Condition"}, records)

	cell := table.Cell(0, "Condition")
	parts := strings.Split(cell, "\t")
	if len(parts) != 3 {
		t.Fatalf("split on tab yields %d parts, want 3: %q", len(parts), cell)
	}
	if parts[1] != "obesity" {
		t.Errorf("parts[1] = %q", parts[1])
	}
}

func TestBuildTableNormalizesMissingValues(t *testing.T) {
	records := []map[string]any{
		{"NCTId": []any{"NCT00000001"}}, // Condition absent
		{"NCTId": []any{"NCT00000002"}, "Condition": nil},
	}
	table := buildTable([]string{"NCTId", "Condition"}, records)

	for i := 0; i < 2; i++ {
		if got := table.Cell(i, "Condition"); got != "" {
			t.Errorf("row %d Condition = %q, want empty string", i, got)
		}
	}
}

func TestBuildTableSanitizesCells(t *testing.T) {
	records := []map[string]any{
		{"BriefSummary": []any{"line one\nline two\tindented", "second\r\nitem"}},
	}
	table := buildTable([]string{"BriefSummary"}, records)

	cell := table.Cell(0, "BriefSummary")
	parts := strings.Split(cell, "\t")
	if len(parts) != 2 {
		t.Fatalf("list length not preserved: %q", cell)
	}
	for _, p := range parts {
		if strings.ContainsAny(p, "\n\r") {
			t.Errorf("element %q still carries newline characters", p)
		}
	}
	if parts[0] != "line one line two indented" {
		t.Errorf("parts[0] = %q", parts[0])
	}
	if parts[1] != "second item" {
		t.Errorf("parts[1] = %q", parts[1])
	}
}

func TestBuildTableDropsExactDuplicates(t *testing.T) {
	dup := map[string]any{"NCTId": []any{"NCT00000001"}, "Condition": []any{"diabetes"}}
	records := []map[string]any{
		dup,
		{"NCTId": []any{"NCT00000002"}, "Condition": []any{"diabetes"}},
		dup,
	}
	table := buildTable([]string{"NCTId", "Condition"}, records)

	if got := table.NumRows(); got != 2 {
		t.Errorf("NumRows = %d, want 2", got)
	}
	// First-occurrence order is kept.
	if got := table.Cell(0, "NCTId"); got != "NCT00000001" {
		t.Errorf("row 0 = %q", got)
	}
}

func TestFlattenCellScalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "plain", "plain"},
		{"string with tab", "a\tb", "a b"},
		{"number", float64(42), "42"},
		{"fractional number", float64(2.5), "2.5"},
		{"bool", true, "true"},
		{"empty list", []any{}, ""},
		{"single list", []any{"only"}, "only"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flattenCell(tt.in); got != tt.want {
				t.Errorf("flattenCell(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
