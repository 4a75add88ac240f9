// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BMiao10/DigitalHealthNotes/internal/pmc"
	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

var pmcCmd = &cobra.Command{
	Use:   "pmc",
	Short: "Retrieve articles from PubMed Central (search, fetch)",
	Long: `PMC talks to the NCBI E-utilities. Use search to discover the UIDs of
open-access articles matching a term, and fetch to download their full
text as structured records.`,
}

// --- search subcommand ---

var pmcSearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search PubMed Central for matching article UIDs",
	Long: `Search runs an esearch against the pmc database and prints the matching
UIDs together with the total hit count and NCBI's query translation.`,
	RunE: runPMCSearch,
}

func runPMCSearch(cmd *cobra.Command, args []string) error {
	term, opts, err := pmcSearchParams(cmd, args)
	if err != nil {
		return err
	}

	cfg := pipelineConfig()
	client := &pmc.Client{Client: &http.Client{Timeout: cfg.HTTP.Timeout}}

	result, err := client.Search(context.Background(), term, opts, cfg.Eutils)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("%d articles match", result.Count)
	if result.QueryTranslation != "" {
		fmt.Printf(" (%s)", result.QueryTranslation)
	}
	fmt.Println()
	for _, uid := range result.UIDs {
		fmt.Println(uid)
	}
	return nil
}

func pmcSearchParams(cmd *cobra.Command, args []string) (string, pmc.SearchOptions, error) {
	term, _ := cmd.Flags().GetString("term")
	if term == "" && len(args) > 0 {
		term = strings.Join(args, " ")
	}
	if term == "" {
		return "", pmc.SearchOptions{}, fmt.Errorf("search term required")
	}

	var opts pmc.SearchOptions
	opts.RetStart, _ = cmd.Flags().GetInt("retstart")
	opts.Sort, _ = cmd.Flags().GetString("sort")
	opts.MinDate, _ = cmd.Flags().GetString("from")
	opts.MaxDate, _ = cmd.Flags().GetString("to")
	opts.DateType, _ = cmd.Flags().GetString("date-type")

	return term, opts, nil
}

// --- fetch subcommand ---

var pmcFetchCmd = &cobra.Command{
	Use:   "fetch [uid...]",
	Short: "Fetch full-text articles by UID or search term",
	Long: `Fetch downloads full-text JATS XML for the given PMC UIDs and parses each
article into its identifier, title, abstract, and body text. With --term
the UIDs come from a search instead of the command line.`,
	RunE: runPMCFetch,
}

func runPMCFetch(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	client := &pmc.Client{Client: &http.Client{Timeout: cfg.HTTP.Timeout}}

	uids := args
	if term, _ := cmd.Flags().GetString("term"); term != "" {
		result, err := client.Search(context.Background(), term, pmc.SearchOptions{}, cfg.Eutils)
		if err != nil {
			return err
		}
		uids = result.UIDs
	}
	if len(uids) == 0 {
		return fmt.Errorf("no UIDs: pass them as arguments or use --term")
	}

	articles, err := client.FetchArticles(context.Background(), uids, cfg.Eutils)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out != "" {
		data, err := json.MarshalIndent(articles, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("%d articles -> %s\n", len(articles), out)
		return nil
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	}

	for _, a := range articles {
		printArticle(a)
	}
	fmt.Printf("%d articles\n", len(articles))
	return nil
}

func printArticle(a types.Article) {
	fmt.Printf("PMC%s  %s\n", a.PMCID, a.Title)
	if a.Abstract != "" {
		abstract := a.Abstract
		if len(abstract) > 300 {
			abstract = abstract[:297] + "..."
		}
		fmt.Printf("  %s\n", abstract)
	}
	fmt.Println()
}

func init() {
	pmcSearchCmd.Flags().String("term", "", "search term (alternative to positional args)")
	pmcSearchCmd.Flags().Int("retstart", 0, "0-based offset into the UID list")
	pmcSearchCmd.Flags().String("sort", "", "result order (e.g. pub_date, relevance)")
	pmcSearchCmd.Flags().String("from", "", "publication date range start (YYYY/MM/DD or YYYY)")
	pmcSearchCmd.Flags().String("to", "", "publication date range end (YYYY/MM/DD or YYYY)")
	pmcSearchCmd.Flags().String("date-type", "", "date field for range filters (e.g. pdat)")
	pmcSearchCmd.Flags().Bool("json", false, "output results as JSON")

	pmcFetchCmd.Flags().String("term", "", "fetch every article matching this search term")
	pmcFetchCmd.Flags().String("out", "", "write articles to a JSON file instead of stdout")
	pmcFetchCmd.Flags().Bool("json", false, "output articles as JSON")

	pmcCmd.AddCommand(pmcSearchCmd)
	pmcCmd.AddCommand(pmcFetchCmd)

	rootCmd.AddCommand(pmcCmd)
}
