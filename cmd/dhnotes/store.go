// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BMiao10/DigitalHealthNotes/internal/registry"
	"github.com/BMiao10/DigitalHealthNotes/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local study archive (ingest, search, export)",
	Long: `Store manages a local SQLite archive of fetched registry studies. Use
subcommands to ingest saved result files, query the archive, or export it.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest [result.yaml...]",
	Short: "Ingest saved registry result files into the archive",
	Long: `Ingest reads one or more registry result files and upserts their study
rows into the archive, keyed by NCT ID. Studies whose content is unchanged
since the last ingest are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	var total store.IngestSummary
	for _, path := range args {
		rf, err := registry.ReadResultFile(path)
		if err != nil {
			return err
		}
		if rf.Table == nil {
			return fmt.Errorf("%s carries no result table", path)
		}

		fmt.Printf("%s: ", filepath.Base(path))
		summary, err := s.Ingest(context.Background(), rf.Table, os.Stdout)
		if err != nil {
			return err
		}
		total.Inserted += summary.Inserted
		total.Updated += summary.Updated
		total.Skipped += summary.Skipped
	}

	if len(args) > 1 {
		fmt.Printf("\ntotal: inserted: %d, updated: %d, skipped: %d\n",
			total.Inserted, total.Updated, total.Skipped)
	}
	return nil
}

// --- search subcommand ---

var storeSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query the archive with full-text search and field filters",
	RunE:  runStoreSearch,
}

func runStoreSearch(cmd *cobra.Command, args []string) error {
	opts := storeQueryOpts(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query or --field and --value")
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for _, r := range results {
		title := r.Record["BriefTitle"]
		if len(title) > 70 {
			title = title[:67] + "..."
		}
		fmt.Printf("%-12s  %s\n", r.NCTID, title)
	}
	fmt.Printf("\n%d results\n", len(results))
	return nil
}

// --- counts subcommand ---

var storeCountsCmd = &cobra.Command{
	Use:   "counts [field]",
	Short: "Count archived studies grouped by a registry field",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreCounts,
}

func runStoreCounts(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	counts, err := s.Counts(context.Background(), args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}

	for _, c := range counts {
		value := c.Value
		if value == "" {
			value = "(none)"
		}
		fmt.Printf("%6d  %s\n", c.Count, value)
	}
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the archive to YAML or JSON",
	Long: `Export writes the full archive (or a filtered subset) to
index/export.yaml or export.json under the data directory. Supports the
same filter flags as search for partial exports.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := storeQueryOpts(cmd, args)

	switch format {
	case "yaml", "":
		if err := s.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to index/export.yaml")
	case "json":
		if err := s.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg := pipelineConfig().Store
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if maxResults, _ := cmd.Flags().GetInt("max-results"); maxResults > 0 {
		cfg.MaxResults = maxResults
	}
	return store.NewStore(cfg)
}

func storeQueryOpts(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	field, _ := cmd.Flags().GetString("field")
	value, _ := cmd.Flags().GetString("value")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:      queryText,
		Field:      field,
		Value:      value,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("data-dir", "", "base directory for archive state (default: data)")
	storeCmd.PersistentFlags().Int("max-results", 0, "default maximum number of query results")

	// Search flags.
	storeSearchCmd.Flags().String("query", "", "full-text search query")
	storeSearchCmd.Flags().String("field", "", "filter by exact registry field value (with --value)")
	storeSearchCmd.Flags().String("value", "", "value for --field")
	storeSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeSearchCmd.Flags().Bool("json", false, "output results as JSON")

	// Counts flags.
	storeCountsCmd.Flags().Bool("json", false, "output counts as JSON")

	// Export flags.
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	storeExportCmd.Flags().String("field", "", "filter by exact registry field value (with --value)")
	storeExportCmd.Flags().String("value", "", "value for --field")

	// Wire subcommands.
	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeSearchCmd)
	storeCmd.AddCommand(storeCountsCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
