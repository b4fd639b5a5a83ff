// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the empathy-scale CLI: the
// literature pipeline behind empathy scale design for human-robot
// interaction studies. Each operation is a subcommand: run executes the
// full pipeline, queries and search run individual stages, findings
// queries a finished run's index.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PayneLeee/EmpathyScale/internal/secrets"
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

// rootCmd is the base command for the empathy-scale CLI.
var rootCmd = &cobra.Command{
	Use:   "empathy-scale",
	Short: "Literature pipeline for empathy scale design in HRI",
	Long: `empathy-scale turns a structured study context (scenario, robot platform,
interaction modalities, assessment goals) into a categorized literature base:
it synthesizes search queries, fans out across academic APIs, screens the
candidates for relevance, extracts empathy findings, downloads papers into
category directories, and builds a queryable findings index.

Each run writes its artifacts to an isolated directory under data/runs/.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./empathy-scale.yaml or ~/.config/empathy-scale/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "data", "base directory for run data")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("empathy-scale")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "empathy-scale"))
		}
	}

	viper.SetEnvPrefix("EMPATHY_SCALE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
