// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PayneLeee/EmpathyScale/internal/index"
	"github.com/PayneLeee/EmpathyScale/internal/run"
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

var findingsCmd = &cobra.Command{
	Use:   "findings [query]",
	Short: "Query a run's findings index",
	Long: `Findings searches the SQLite index of a finished run with FTS5
full-text search over finding text, structured filters (category,
modality, paper), or both. By default the most recent run is queried;
use --run to pick another.`,
	RunE: runFindings,
}

func init() {
	findingsCmd.Flags().String("run", "", "run ID (default: most recent run)")
	findingsCmd.Flags().String("category", "", "filter by category: definitions, behaviors, measurement")
	findingsCmd.Flags().String("modality", "", "filter by interaction modality")
	findingsCmd.Flags().String("paper", "", "filter by candidate ID")
	findingsCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	findingsCmd.Flags().Bool("json", false, "output results as JSON")
	findingsCmd.Flags().Bool("counts", false, "print per-category finding counts only")

	rootCmd.AddCommand(findingsCmd)
}

func runFindings(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	runID, _ := cmd.Flags().GetString("run")

	store, err := run.NewStore(dataDir)
	if err != nil {
		return err
	}
	dir, err := store.Open(runID)
	if err != nil {
		return err
	}

	db, err := index.NewStore(dir.Path, 0)
	if err != nil {
		return err
	}
	defer db.Close()

	if counts, _ := cmd.Flags().GetBool("counts"); counts {
		perCategory, err := db.CategoryCounts(cmd.Context())
		if err != nil {
			return err
		}
		for _, cat := range types.Categories {
			fmt.Printf("%-12s %d\n", cat, perCategory[cat])
		}
		return nil
	}

	opts := findingsOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --category, --modality, or --paper")
	}

	results, err := db.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatFindingsOutput(results, jsonOutput)
}

func findingsOptsFromFlags(cmd *cobra.Command, args []string) index.QueryOptions {
	category, _ := cmd.Flags().GetString("category")
	modality, _ := cmd.Flags().GetString("modality")
	paperID, _ := cmd.Flags().GetString("paper")
	limit, _ := cmd.Flags().GetInt("limit")

	return index.QueryOptions{
		Query:       strings.Join(args, " "),
		Category:    types.Category(category),
		Modality:    modality,
		CandidateID: paperID,
		MaxResults:  limit,
	}
}

func formatFindingsOutput(results []index.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-12s  %-55s  %-30s  %s\n",
		"Rank", "Category", "Finding", "Paper", "Year")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 112))

	for i, r := range results {
		text := r.Text
		if len(text) > 55 {
			text = text[:52] + "..."
		}
		title := r.Title
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-12s  %-55s  %-30s  %s\n",
			i+1, r.Category, text, title, year)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}
