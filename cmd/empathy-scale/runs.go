// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PayneLeee/EmpathyScale/internal/run"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List and prune pipeline runs",
	RunE:  runRunsList,
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent runs",
	RunE:  runRunsPrune,
}

func init() {
	runsPruneCmd.Flags().Int("keep", 10, "number of recent runs to keep")

	runsCmd.AddCommand(runsPruneCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := runStore(cmd)
	if err != nil {
		return err
	}

	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	latest, _ := store.Latest()
	for _, meta := range runs {
		marker := " "
		if meta.RunID == latest {
			marker = "*"
		}
		fmt.Fprintf(os.Stdout, "%s %-28s  %-11s  %s\n",
			marker, meta.RunID, meta.Status, meta.Scenario)
	}
	return nil
}

func runRunsPrune(cmd *cobra.Command, args []string) error {
	store, err := runStore(cmd)
	if err != nil {
		return err
	}
	keep, _ := cmd.Flags().GetInt("keep")
	return store.Prune(keep)
}

func runStore(cmd *cobra.Command) (*run.Store, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return run.NewStore(dataDir)
}
