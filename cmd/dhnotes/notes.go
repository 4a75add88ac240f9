// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BMiao10/DigitalHealthNotes/internal/notes"
	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Descriptive statistics over clinical note metadata",
	Long: `Notes computes descriptive statistics from a clinical note metadata CSV:
note volume per period broken down by category, and compound annual growth
rates per category across the observed periods.`,
}

// --- counts subcommand ---

var notesCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Count notes per period and category",
	RunE:  runNotesCounts,
}

func runNotesCounts(cmd *cobra.Command, args []string) error {
	records, cfg, err := readNotesCSV(cmd)
	if err != nil {
		return err
	}

	addTotal, _ := cmd.Flags().GetBool("total")
	counts := notes.CountsByPeriod(records, cfg.TopN, addTotal)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}

	notes.FormatCounts(counts, os.Stdout)
	return nil
}

// --- cagr subcommand ---

var notesCAGRCmd = &cobra.Command{
	Use:   "cagr",
	Short: "Compute per-category compound annual growth rates",
	Long: `CAGR crosstabulates note counts by period and category, then computes each
category's compound annual growth rate across the observed periods. At
least two periods are required.`,
	RunE: runNotesCAGR,
}

func runNotesCAGR(cmd *cobra.Command, args []string) error {
	records, _, err := readNotesCSV(cmd)
	if err != nil {
		return err
	}

	ct := notes.NewCrosstab(records)
	rates, err := notes.CAGR(ct)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rates)
	}

	notes.FormatGrowth(rates, os.Stdout)
	return nil
}

// --- shared helpers ---

func readNotesCSV(cmd *cobra.Command) ([]notes.Record, types.NotesConfig, error) {
	csvPath, _ := cmd.Flags().GetString("csv")
	if csvPath == "" {
		return nil, types.NotesConfig{}, fmt.Errorf("--csv required")
	}

	cfg := pipelineConfig().Notes
	if col, _ := cmd.Flags().GetString("period-column"); col != "" {
		cfg.PeriodColumn = col
	}
	if col, _ := cmd.Flags().GetString("category-column"); col != "" {
		cfg.CategoryColumn = col
	}
	if topN, _ := cmd.Flags().GetInt("top"); topN > 0 {
		cfg.TopN = topN
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, cfg, err
	}
	defer f.Close()

	records, err := notes.ReadCSV(f, cfg)
	if err != nil {
		return nil, cfg, err
	}
	return records, cfg, nil
}

func init() {
	for _, c := range []*cobra.Command{notesCountsCmd, notesCAGRCmd} {
		c.Flags().String("csv", "", "clinical note metadata CSV file")
		c.Flags().String("period-column", "", "time-period column name (default: year)")
		c.Flags().String("category-column", "", "grouping column name (default: department_specialty)")
		c.Flags().Bool("json", false, "output results as JSON")
	}
	notesCountsCmd.Flags().Int("top", 0, "keep only the N largest categories (0 = all)")
	notesCountsCmd.Flags().Bool("total", false, "add a per-period total across all categories")

	notesCmd.AddCommand(notesCountsCmd)
	notesCmd.AddCommand(notesCAGRCmd)

	rootCmd.AddCommand(notesCmd)
}
