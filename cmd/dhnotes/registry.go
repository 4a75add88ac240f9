// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BMiao10/DigitalHealthNotes/internal/registry"
	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

// defaultReturnFields covers the study attributes the analyses group by.
var defaultReturnFields = []string{
	"NCTId", "BriefTitle", "Condition", "InterventionName",
	"OverallStatus", "StartDate", "LocationCountry", "LeadSponsorClass",
}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Fetch study records from the ClinicalTrials.gov registry",
	Long: `Registry queries the ClinicalTrials.gov StudyFields API and returns a
normalized, deduplicated table of study records. Large result sets are
fetched page by page.

Run a single query with --query, or sweep a curated term list with
--terms-file. Sweep results are saved as one YAML result file per term.`,
	RunE: runRegistry,
}

func runRegistry(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	fetcher := &registry.Fetcher{
		Client: &http.Client{Timeout: cfg.HTTP.Timeout},
	}

	termsFile, _ := cmd.Flags().GetString("terms-file")
	if termsFile != "" {
		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = filepath.Join(cfg.Store.DataDir, "registry")
		}
		return runRegistrySweep(fetcher, cfg.Registry, termsFile, outDir)
	}

	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	if queryText == "" {
		return fmt.Errorf("query required: provide --query or --terms-file")
	}

	fieldList, _ := cmd.Flags().GetString("fields")
	searchField, _ := cmd.Flags().GetString("search-field")
	limit, _ := cmd.Flags().GetInt("limit")

	q := registry.Query{
		Expression:   queryText,
		ReturnFields: splitFields(fieldList),
		SearchField:  searchField,
		Limit:        limit,
	}

	table, err := fetcher.Fetch(context.Background(), q, cfg.Registry)
	if errors.Is(err, registry.ErrNoStudiesFound) {
		fmt.Fprintf(os.Stderr, "No studies found for %q.\n", queryText)
		return nil
	}
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	format, _ := cmd.Flags().GetString("format")
	return writeRegistryOutput(table, q, out, format)
}

func runRegistrySweep(fetcher *registry.Fetcher, cfg types.RegistryConfig, termsFile, outDir string) error {
	tf, err := registry.ReadTermFile(termsFile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var failed int
	for _, q := range tf.Queries() {
		table, err := fetcher.Fetch(context.Background(), q, cfg)
		if errors.Is(err, registry.ErrNoStudiesFound) {
			fmt.Printf("%-40s  no studies\n", q.Expression)
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%-40s  failed: %v\n", q.Expression, err)
			failed++
			continue
		}

		path := filepath.Join(outDir, termSlug(q.Expression)+".yaml")
		if err := registry.WriteResultFile(path, q, table); err != nil {
			return err
		}
		fmt.Printf("%-40s  %d studies -> %s\n", q.Expression, table.NumRows(), path)
	}

	if failed > 0 {
		return fmt.Errorf("%d term(s) failed", failed)
	}
	return nil
}

func writeRegistryOutput(table *types.StudyTable, q registry.Query, out, format string) error {
	if out != "" {
		switch {
		case strings.HasSuffix(out, ".csv"):
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := registry.WriteCSV(table, f); err != nil {
				return err
			}
		default:
			if err := registry.WriteResultFile(out, q, table); err != nil {
				return err
			}
		}
		fmt.Printf("%d studies -> %s\n", table.NumRows(), out)
		return nil
	}

	switch format {
	case "json":
		return registry.FormatJSON(table, os.Stdout)
	case "csv":
		return registry.WriteCSV(table, os.Stdout)
	case "table", "":
		registry.FormatTable(table, os.Stdout)
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or csv", format)
	}
}

// splitFields parses a comma-separated field list, falling back to the
// default set.
func splitFields(s string) []string {
	if s == "" {
		return defaultReturnFields
	}
	parts := strings.Split(s, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}

// termSlug turns a search term into a filesystem-safe file stem.
func termSlug(term string) string {
	slug := strings.ToLower(term)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	return strings.Trim(slug, "-")
}

func init() {
	registryCmd.Flags().String("query", "", "free-text search expression")
	registryCmd.Flags().String("fields", "", "comma-separated return fields (default: common study attributes)")
	registryCmd.Flags().String("search-field", "", "restrict the expression to one study field")
	registryCmd.Flags().Int("limit", 0, "maximum records to fetch (0 = all matches)")
	registryCmd.Flags().String("terms-file", "", "YAML term file to sweep instead of a single query")
	registryCmd.Flags().String("out", "", "output path: .csv for CSV, otherwise a YAML result file (sweep: output directory)")
	registryCmd.Flags().String("format", "table", "stdout format: table, json, or csv")

	rootCmd.AddCommand(registryCmd)
}
