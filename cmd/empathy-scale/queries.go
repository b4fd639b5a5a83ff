// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PayneLeee/EmpathyScale/internal/llm"
	"github.com/PayneLeee/EmpathyScale/internal/query"
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Synthesize search queries from a study context",
	Long: `Queries runs only the query synthesis stage and prints the resulting
search queries, one per line, with their origin (generated or template
fallback). Useful for inspecting what a full run would search for.`,
	RunE: runQueries,
}

func init() {
	contextFlags(queriesCmd)
	queriesCmd.Flags().Int("count", 0, "target number of queries (default 6)")

	rootCmd.AddCommand(queriesCmd)
}

func runQueries(cmd *cobra.Command, args []string) error {
	study, err := studyContext(cmd)
	if err != nil {
		return err
	}
	count, _ := cmd.Flags().GetInt("count")

	cfg := types.SynthesisConfig{
		AIConfig:   aiConfig(cmd),
		QueryCount: count,
	}

	queries := query.Synthesize(cmd.Context(), llm.NewOpenAIClient(cfg.AIConfig), study, cfg, os.Stderr)
	for _, q := range queries {
		fmt.Printf("%-22s %s\n", "["+string(q.Origin)+"]", q.Text)
	}
	return nil
}
