// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the dhnotes CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BMiao10/DigitalHealthNotes/internal/secrets"
	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the dhnotes CLI.
var rootCmd = &cobra.Command{
	Use:   "dhnotes",
	Short: "Tooling for digital-health clinical trial and literature analysis",
	Long: `dhnotes collects and analyzes digital-health research material. It fetches
study records from the ClinicalTrials.gov registry, retrieves full-text
articles from PubMed Central, computes descriptive statistics over clinical
note metadata, and archives fetched studies in a searchable local store.

Each stage is a subcommand: registry, pmc, notes, and store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./dhnotes.yaml or ~/.config/dhnotes/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dhnotes")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "dhnotes"))
		}
	}

	viper.SetEnvPrefix("DHNOTES")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the typed configuration from viper. Keys are read
// explicitly so config files, environment variables, and defaults compose.
func pipelineConfig() types.PipelineConfig {
	var cfg types.PipelineConfig

	cfg.HTTP.Timeout = viper.GetDuration("http.timeout")
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = 30 * time.Second
	}
	cfg.HTTP.UserAgent = viper.GetString("http.user_agent")
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = "dhnotes/" + version
	}

	cfg.Registry.HTTPConfig = cfg.HTTP
	cfg.Registry.BaseURL = viper.GetString("registry.base_url")
	cfg.Registry.PageSize = viper.GetInt("registry.page_size")
	cfg.Registry.ResultLimit = viper.GetInt("registry.result_limit")

	cfg.Eutils.HTTPConfig = cfg.HTTP
	cfg.Eutils.BaseURL = viper.GetString("eutils.base_url")
	cfg.Eutils.APIKey = secretDefault(secrets.NCBIAPIKey, viper.GetString("eutils.api_key"))
	cfg.Eutils.Email = secretDefault(secrets.EutilsEmail, viper.GetString("eutils.email"))
	cfg.Eutils.Tool = viper.GetString("eutils.tool")
	if cfg.Eutils.Tool == "" {
		cfg.Eutils.Tool = "dhnotes"
	}
	cfg.Eutils.RetMax = viper.GetInt("eutils.retmax")

	cfg.Store.DataDir = viper.GetString("store.data_dir")
	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = "data"
	}
	cfg.Store.MaxResults = viper.GetInt("store.max_results")

	cfg.Notes.PeriodColumn = viper.GetString("notes.period_column")
	cfg.Notes.CategoryColumn = viper.GetString("notes.category_column")
	cfg.Notes.TopN = viper.GetInt("notes.top_n")

	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
