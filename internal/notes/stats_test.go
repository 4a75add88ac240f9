package notes

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

func rec(period, category string, n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{Period: period, Category: category}
	}
	return records
}

func sampleRecords() []Record {
	var records []Record
	records = append(records, rec("2019", "Cardiology", 4)...)
	records = append(records, rec("2019", "Oncology", 2)...)
	records = append(records, rec("2020", "Cardiology", 8)...)
	records = append(records, rec("2020", "Oncology", 3)...)
	records = append(records, rec("2020", "Dermatology", 1)...)
	records = append(records, rec("2021", "Cardiology", 16)...)
	return records
}

// --- CSV loading ---

const sampleCSV = `encounterkey,year,department_specialty,note_type
e1,2019,Cardiology,progress
e2,2019,Oncology,progress
e3,2020,Cardiology,discharge
e4,,Cardiology,progress
e5,2020,,progress
`

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(sampleCSV), types.NotesConfig{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	// Row with empty year is skipped; empty specialty is kept.
	if len(records) != 4 {
		t.Fatalf("len(records) = %d, want 4", len(records))
	}
	if records[0] != (Record{Period: "2019", Category: "Cardiology"}) {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[3] != (Record{Period: "2020", Category: ""}) {
		t.Errorf("records[3] = %+v", records[3])
	}
}

func TestReadCSVCustomColumns(t *testing.T) {
	csvData := "Month,Clinic\n2020-01,Peds\n"
	cfg := types.NotesConfig{PeriodColumn: "month", CategoryColumn: "clinic"}
	records, err := ReadCSV(strings.NewReader(csvData), cfg)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(records) != 1 || records[0].Period != "2020-01" || records[0].Category != "Peds" {
		t.Errorf("records = %+v", records)
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("a,b\n1,2\n"), types.NotesConfig{}); err == nil {
		t.Error("missing configured columns should fail")
	}
}

// --- Counts ---

func TestCountsByPeriod(t *testing.T) {
	counts := CountsByPeriod(sampleRecords(), 0, false)

	want := []Count{
		{"2019", "Cardiology", 4},
		{"2019", "Oncology", 2},
		{"2020", "Cardiology", 8},
		{"2020", "Oncology", 3},
		{"2020", "Dermatology", 1},
		{"2021", "Cardiology", 16},
	}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("counts = %v, want %v", counts, want)
	}
}

func TestCountsByPeriodTopN(t *testing.T) {
	counts := CountsByPeriod(sampleRecords(), 2, false)

	for _, c := range counts {
		if c.Category == "Dermatology" {
			t.Error("Dermatology should be cut by topN=2")
		}
	}
}

func TestCountsByPeriodTotal(t *testing.T) {
	counts := CountsByPeriod(sampleRecords(), 1, true)

	totals := map[string]int{}
	kept := map[string]bool{}
	for _, c := range counts {
		kept[c.Category] = true
		if c.Category == TotalCategory {
			totals[c.Period] = c.Count
		}
	}

	// topN=1 keeps only Cardiology, but the total series survives the cut.
	if !kept[TotalCategory] || !kept["Cardiology"] {
		t.Errorf("kept = %v", kept)
	}
	if kept["Oncology"] {
		t.Error("Oncology should be cut by topN=1")
	}
	if totals["2020"] != 12 {
		t.Errorf("2020 total = %d, want 12", totals["2020"])
	}
}

// --- Crosstab ---

func TestNewCrosstab(t *testing.T) {
	ct := NewCrosstab(sampleRecords())

	if !reflect.DeepEqual(ct.Periods, []string{"2019", "2020", "2021"}) {
		t.Errorf("Periods = %v", ct.Periods)
	}
	if !reflect.DeepEqual(ct.Categories, []string{"Cardiology", "Dermatology", "Oncology"}) {
		t.Errorf("Categories = %v", ct.Categories)
	}

	// Dermatology appears only in 2020.
	want := [][]int{
		{4, 0, 2},
		{8, 1, 3},
		{16, 0, 0},
	}
	if !reflect.DeepEqual(ct.Counts, want) {
		t.Errorf("Counts = %v, want %v", ct.Counts, want)
	}
}

func TestCrosstabPeriodOrderNumeric(t *testing.T) {
	var records []Record
	records = append(records, rec("9", "A", 1)...)
	records = append(records, rec("10", "A", 1)...)
	ct := NewCrosstab(records)
	if !reflect.DeepEqual(ct.Periods, []string{"9", "10"}) {
		t.Errorf("Periods = %v, want numeric order", ct.Periods)
	}
}

// --- CAGR ---

func TestCAGR(t *testing.T) {
	ct := NewCrosstab(sampleRecords())
	rates, err := CAGR(ct)
	if err != nil {
		t.Fatalf("CAGR: %v", err)
	}
	if len(rates) != 3 {
		t.Fatalf("len(rates) = %d, want 3", len(rates))
	}

	byCategory := map[string]GrowthRate{}
	for _, r := range rates {
		byCategory[r.Category] = r
	}

	// Cardiology: 4 → 16 over 3 periods: (16/4)^(1/2)-1 = 100%.
	if got := byCategory["Cardiology"]; math.Abs(got.CAGR-100.0) > 1e-9 {
		t.Errorf("Cardiology CAGR = %f, want 100", got.CAGR)
	}
	if got := byCategory["Cardiology"].Count; got != 28 {
		t.Errorf("Cardiology Count = %d, want 28", got)
	}

	// Oncology: first 2, last 0→1: (1/2)^(1/2)-1 ≈ -29.29%.
	wantOnc := (math.Sqrt(0.5) - 1) * 100
	if got := byCategory["Oncology"]; math.Abs(got.CAGR-wantOnc) > 1e-9 {
		t.Errorf("Oncology CAGR = %f, want %f", got.CAGR, wantOnc)
	}

	// Dermatology: first 0→1, last 0→1: flat.
	if got := byCategory["Dermatology"]; math.Abs(got.CAGR) > 1e-9 {
		t.Errorf("Dermatology CAGR = %f, want 0", got.CAGR)
	}

	// Ascending order.
	for i := 1; i < len(rates); i++ {
		if rates[i].CAGR < rates[i-1].CAGR {
			t.Errorf("rates not ascending: %v", rates)
		}
	}
}

func TestCAGRSinglePeriod(t *testing.T) {
	ct := NewCrosstab(rec("2020", "A", 3))
	if _, err := CAGR(ct); err == nil {
		t.Error("single-period crosstab should fail")
	}
}

// --- formatting ---

func TestFormatCounts(t *testing.T) {
	var buf bytes.Buffer
	FormatCounts(CountsByPeriod(sampleRecords(), 0, false), &buf)
	s := buf.String()
	if !strings.Contains(s, "Cardiology") || !strings.Contains(s, "2021") {
		t.Errorf("output missing expected rows:\n%s", s)
	}
}

func TestFormatGrowthEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatGrowth(nil, &buf)
	if !strings.Contains(buf.String(), "No categories") {
		t.Error("empty growth output should say so")
	}
}
