// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PayneLeee/EmpathyScale/internal/search"
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search academic APIs for candidate papers",
	Long: `Search fans the given queries out across the enabled academic APIs
(arXiv, Semantic Scholar, OpenAlex), deduplicates the union, and prints
the aggregated candidates. No model calls are made; this is the discovery
stage in isolation.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 20, "maximum results per backend call")
	searchCmd.Flags().Int("screening-cap", 0, "cap on aggregated candidates (0 = default)")
	searchCmd.Flags().StringSlice("backends", []string{"arxiv", "semantic-scholar", "openalex", "pubmed", "crossref"},
		"search backends: arxiv, semantic-scholar, openalex, pubmed, crossref")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("report", "", "also save a YAML report to this path")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more search queries")
	}

	cfg := searchConfig(cmd)
	client := &http.Client{Timeout: cfg.Timeout}
	backends := search.Enabled(cfg, client)
	if len(backends) == 0 {
		return fmt.Errorf("no search backends enabled")
	}

	queries := make([]types.Query, len(args))
	for i, a := range args {
		queries[i] = types.Query{Text: strings.TrimSpace(a), Origin: types.OriginGenerated}
	}

	out := search.FanOut(cmd.Context(), queries, backends, cfg, os.Stderr)

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := search.WriteReportFile(path, queries, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "report saved to %s\n", path)
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return search.FormatJSON(out, os.Stdout)
	}
	search.FormatTable(out, os.Stdout)
	return nil
}
