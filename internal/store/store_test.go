package store

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	cfg := types.StoreConfig{
		DataDir:    tmpDir,
		MaxResults: 20,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func sampleTable() *types.StudyTable {
	return &types.StudyTable{
		Fields: []string{"NCTId", "BriefTitle", "OverallStatus", "StartDate"},
		Rows: [][]string{
			{"NCT00000101", "Metformin adherence via text reminders", "Recruiting", "January 2019"},
			{"NCT00000102", "Telehealth follow-up after cardiac surgery", "Completed", "March 2018"},
			{"NCT00000103", "Wearable monitoring in heart failure", "Recruiting", "June 2020"},
		},
	}
}

func ingestHelper(t *testing.T, s *Store, table *types.StudyTable) IngestSummary {
	t.Helper()
	summary, err := s.Ingest(context.Background(), table, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

// --- ingest ---

func TestIngestInsertsStudies(t *testing.T) {
	s, _ := testSetup(t)

	summary := ingestHelper(t, s, sampleTable())

	if summary.Inserted != 3 || summary.Updated != 0 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v, want 3 inserted", summary)
	}

	results, err := s.Search(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	// No full-text query, so results come back sorted by NCT ID.
	for i, want := range []string{"NCT00000101", "NCT00000102", "NCT00000103"} {
		if results[i].NCTID != want {
			t.Errorf("results[%d].NCTID = %q, want %q", i, results[i].NCTID, want)
		}
	}
	if got := results[0].Record["BriefTitle"]; got != "Metformin adherence via text reminders" {
		t.Errorf("BriefTitle = %q", got)
	}
}

func TestIngestSkipsUnchanged(t *testing.T) {
	s, _ := testSetup(t)

	ingestHelper(t, s, sampleTable())
	summary := ingestHelper(t, s, sampleTable())

	if summary.Inserted != 0 || summary.Updated != 0 || summary.Skipped != 3 {
		t.Fatalf("summary = %+v, want 3 skipped", summary)
	}
}

func TestIngestUpdatesChanged(t *testing.T) {
	s, _ := testSetup(t)

	ingestHelper(t, s, sampleTable())

	table := sampleTable()
	table.Rows[1][2] = "Terminated"
	summary := ingestHelper(t, s, table)

	if summary.Updated != 1 || summary.Skipped != 2 {
		t.Fatalf("summary = %+v, want 1 updated, 2 skipped", summary)
	}

	results, err := s.Search(context.Background(), QueryOptions{Field: "OverallStatus", Value: "Terminated"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].NCTID != "NCT00000102" {
		t.Fatalf("results = %+v, want NCT00000102", results)
	}
}

func TestIngestRequiresIDColumn(t *testing.T) {
	s, _ := testSetup(t)

	table := &types.StudyTable{
		Fields: []string{"BriefTitle"},
		Rows:   [][]string{{"A study without an identifier"}},
	}
	if _, err := s.Ingest(context.Background(), table, io.Discard); err == nil {
		t.Fatal("expected error for table without NCTId column")
	}
}

func TestIngestSkipsBlankID(t *testing.T) {
	s, _ := testSetup(t)

	table := sampleTable()
	table.Rows[2][0] = ""
	summary := ingestHelper(t, s, table)

	if summary.Inserted != 2 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v, want 2 inserted, 1 skipped", summary)
	}
}

// --- search ---

func TestSearchFullText(t *testing.T) {
	s, _ := testSetup(t)
	ingestHelper(t, s, sampleTable())

	results, err := s.Search(context.Background(), QueryOptions{Query: "metformin"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].NCTID != "NCT00000101" {
		t.Fatalf("results = %+v, want NCT00000101", results)
	}
}

func TestSearchFullTextAfterUpdate(t *testing.T) {
	s, _ := testSetup(t)
	ingestHelper(t, s, sampleTable())

	table := sampleTable()
	table.Rows[0][1] = "Insulin adherence via text reminders"
	ingestHelper(t, s, table)

	results, err := s.Search(context.Background(), QueryOptions{Query: "metformin"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("stale index: got %d results for old title", len(results))
	}

	results, err = s.Search(context.Background(), QueryOptions{Query: "insulin"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].NCTID != "NCT00000101" {
		t.Fatalf("results = %+v, want NCT00000101", results)
	}
}

func TestSearchFieldFilter(t *testing.T) {
	s, _ := testSetup(t)
	ingestHelper(t, s, sampleTable())

	results, err := s.Search(context.Background(), QueryOptions{Field: "OverallStatus", Value: "Recruiting"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Record["OverallStatus"] != "Recruiting" {
			t.Errorf("unexpected status %q for %s", r.Record["OverallStatus"], r.NCTID)
		}
	}
}

func TestSearchMaxResults(t *testing.T) {
	s, _ := testSetup(t)
	ingestHelper(t, s, sampleTable())

	results, err := s.Search(context.Background(), QueryOptions{MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

// --- counts ---

func TestCounts(t *testing.T) {
	s, _ := testSetup(t)
	ingestHelper(t, s, sampleTable())

	counts, err := s.Counts(context.Background(), "OverallStatus")
	if err != nil {
		t.Fatal(err)
	}

	want := []FieldCount{
		{Value: "Recruiting", Count: 2},
		{Value: "Completed", Count: 1},
	}
	if len(counts) != len(want) {
		t.Fatalf("got %d groups, want %d", len(counts), len(want))
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}
}

func TestCountsMissingField(t *testing.T) {
	s, _ := testSetup(t)
	ingestHelper(t, s, sampleTable())

	counts, err := s.Counts(context.Background(), "Phase")
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 1 || counts[0].Value != "" || counts[0].Count != 3 {
		t.Fatalf("counts = %+v, want single empty-value group of 3", counts)
	}
}

// --- export ---

func TestExportYAML(t *testing.T) {
	s, tmpDir := testSetup(t)
	ingestHelper(t, s, sampleTable())

	if err := s.ExportYAML(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, indexDir, "export.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	var results []StudyResult
	if err := yaml.Unmarshal(data, &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("exported %d studies, want 3", len(results))
	}
	if results[0].Record["NCTId"] != "NCT00000101" {
		t.Errorf("first exported record = %+v", results[0].Record)
	}
}

func TestExportJSONWithFilter(t *testing.T) {
	s, tmpDir := testSetup(t)
	ingestHelper(t, s, sampleTable())

	opts := QueryOptions{Field: "OverallStatus", Value: "Completed"}
	if err := s.ExportJSON(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, indexDir, "export.json"))
	if err != nil {
		t.Fatal(err)
	}

	var results []StudyResult
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].NCTID != "NCT00000102" {
		t.Fatalf("results = %+v, want only NCT00000102", results)
	}
}
