// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notes

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// TotalCategory is the synthetic category carrying per-period totals when a
// counts table is built with totals enabled.
const TotalCategory = "Total"

// Count is one (period, category) tally.
type Count struct {
	Period   string `json:"period" yaml:"period"`
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// CountsByPeriod tallies records per (period, category). When topN > 0 only
// the topN categories by overall volume are kept; addTotal appends a
// per-period total series under TotalCategory that survives the topN cut.
// Output is ordered by period, then count descending, then category.
func CountsByPeriod(records []Record, topN int, addTotal bool) []Count {
	type key struct{ period, category string }
	tallies := make(map[key]int)
	volume := make(map[string]int)
	periodTotals := make(map[string]int)

	for _, r := range records {
		tallies[key{r.Period, r.Category}]++
		volume[r.Category]++
		periodTotals[r.Period]++
	}

	keep := topCategories(volume, topN)

	var counts []Count
	for k, n := range tallies {
		if keep != nil && !keep[k.category] {
			continue
		}
		counts = append(counts, Count{Period: k.period, Category: k.category, Count: n})
	}

	if addTotal {
		for period, n := range periodTotals {
			counts = append(counts, Count{Period: period, Category: TotalCategory, Count: n})
		}
	}

	sort.Slice(counts, func(i, j int) bool {
		if c := comparePeriods(counts[i].Period, counts[j].Period); c != 0 {
			return c < 0
		}
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Category < counts[j].Category
	})

	return counts
}

// topCategories returns the topN categories by volume, or nil when no cut
// applies. Ties break alphabetically so the cut is deterministic.
func topCategories(volume map[string]int, topN int) map[string]bool {
	if topN <= 0 || len(volume) <= topN {
		return nil
	}

	categories := make([]string, 0, len(volume))
	for c := range volume {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if volume[categories[i]] != volume[categories[j]] {
			return volume[categories[i]] > volume[categories[j]]
		}
		return categories[i] < categories[j]
	})

	keep := make(map[string]bool, topN)
	for _, c := range categories[:topN] {
		keep[c] = true
	}
	return keep
}

// Crosstab is a period-by-category count matrix. Periods ascend; categories
// are alphabetical. Counts[i][j] is the tally for Periods[i], Categories[j].
type Crosstab struct {
	Periods    []string
	Categories []string
	Counts     [][]int
}

// NewCrosstab cross-tabulates records into a period-by-category matrix.
func NewCrosstab(records []Record) *Crosstab {
	type key struct{ period, category string }
	tallies := make(map[key]int)
	periodSet := make(map[string]bool)
	categorySet := make(map[string]bool)

	for _, r := range records {
		tallies[key{r.Period, r.Category}]++
		periodSet[r.Period] = true
		categorySet[r.Category] = true
	}

	ct := &Crosstab{}
	for p := range periodSet {
		ct.Periods = append(ct.Periods, p)
	}
	sort.Slice(ct.Periods, func(i, j int) bool {
		return comparePeriods(ct.Periods[i], ct.Periods[j]) < 0
	})
	for c := range categorySet {
		ct.Categories = append(ct.Categories, c)
	}
	sort.Strings(ct.Categories)

	ct.Counts = make([][]int, len(ct.Periods))
	for i, p := range ct.Periods {
		ct.Counts[i] = make([]int, len(ct.Categories))
		for j, c := range ct.Categories {
			ct.Counts[i][j] = tallies[key{p, c}]
		}
	}
	return ct
}

// GrowthRate is one category's compound annual growth rate and its total
// note volume across all periods.
type GrowthRate struct {
	Category string  `json:"category" yaml:"category"`
	CAGR     float64 `json:"cagr_percent" yaml:"cagr_percent"`
	Count    int     `json:"count" yaml:"count"`
}

// CAGR computes each category's compound annual growth rate over the
// crosstab, in percent, sorted ascending.
//
// Zero cells are replaced with 1 before the growth computation so categories
// absent from a period do not produce divisions by zero; totals are summed
// before that substitution. With the substitution the period-over-period
// growth factors telescope, so the rate reduces to
// (last/first)^(1/(periods-1)) - 1.
func CAGR(ct *Crosstab) ([]GrowthRate, error) {
	if len(ct.Periods) < 2 {
		return nil, fmt.Errorf("CAGR needs at least 2 periods, have %d", len(ct.Periods))
	}

	exponent := 1.0 / float64(len(ct.Periods)-1)

	rates := make([]GrowthRate, 0, len(ct.Categories))
	for j, category := range ct.Categories {
		total := 0
		for i := range ct.Periods {
			total += ct.Counts[i][j]
		}

		first := float64(ct.Counts[0][j])
		if first == 0 {
			first = 1
		}
		last := float64(ct.Counts[len(ct.Periods)-1][j])
		if last == 0 {
			last = 1
		}

		rate := (math.Pow(last/first, exponent) - 1) * 100

		rates = append(rates, GrowthRate{Category: category, CAGR: rate, Count: total})
	}

	sort.Slice(rates, func(i, j int) bool {
		if rates[i].CAGR != rates[j].CAGR {
			return rates[i].CAGR < rates[j].CAGR
		}
		return rates[i].Category < rates[j].Category
	})
	return rates, nil
}

// FormatCounts writes a counts table to w.
func FormatCounts(counts []Count, w io.Writer) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "No notes.")
		return
	}

	fmt.Fprintf(w, "%-8s  %-40s  %s\n", "Period", "Category", "Count")
	fmt.Fprintln(w, strings.Repeat("-", 58))
	for _, c := range counts {
		category := c.Category
		if len(category) > 40 {
			category = category[:37] + "..."
		}
		fmt.Fprintf(w, "%-8s  %-40s  %d\n", c.Period, category, c.Count)
	}
}

// FormatGrowth writes a growth-rate table to w.
func FormatGrowth(rates []GrowthRate, w io.Writer) {
	if len(rates) == 0 {
		fmt.Fprintln(w, "No categories.")
		return
	}

	fmt.Fprintf(w, "%-40s  %-10s  %s\n", "Category", "CAGR (%)", "Count")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, r := range rates {
		category := r.Category
		if len(category) > 40 {
			category = category[:37] + "..."
		}
		fmt.Fprintf(w, "%-40s  %-10.2f  %d\n", category, r.CAGR, r.Count)
	}
}
