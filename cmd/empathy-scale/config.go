// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "empathy-scale/0.1"
)

// aiConfig builds the completion settings shared by the synthesis,
// screening, and extraction stages. Precedence: flag, then
// EMPATHY_SCALE_* environment / config file, then .secrets/.
func aiConfig(cmd *cobra.Command) types.AIConfig {
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("model")
	}
	apiKey := secretDefault("openai-api-key", viper.GetString("openai_api_key"))
	return types.AIConfig{
		Model:   model,
		APIKey:  apiKey,
		BaseURL: viper.GetString("openai_base_url"),
	}
}

// searchConfig builds the backend fan-out settings from flags, config,
// and secrets.
func searchConfig(cmd *cobra.Command) types.SearchConfig {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	screenCap, _ := cmd.Flags().GetInt("screening-cap")
	backends, _ := cmd.Flags().GetStringSlice("backends")

	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		MaxPerBackend:         maxResults,
		ScreeningCap:          screenCap,
		SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", viper.GetString("semantic_scholar_api_key")),
		OpenAlexEmail:         secretDefault("openalex-email", viper.GetString("openalex_email")),
	}
	for _, b := range backends {
		switch b {
		case "arxiv":
			cfg.EnableArxiv = true
		case "semantic-scholar":
			cfg.EnableSemanticScholar = true
		case "openalex":
			cfg.EnableOpenAlex = true
		case "pubmed":
			cfg.EnablePubMed = true
		case "crossref":
			cfg.EnableCrossref = true
		}
	}
	return cfg
}

// pipelineConfig assembles the full configuration for a pipeline run.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	threshold, _ := cmd.Flags().GetInt("threshold")
	maxDownloads, _ := cmd.Flags().GetInt("max-downloads")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	ai := aiConfig(cmd)
	cfg := types.PipelineConfig{
		Synthesis: types.SynthesisConfig{AIConfig: ai},
		Search:    searchConfig(cmd),
		Screening: types.ScreeningConfig{AIConfig: ai, Threshold: threshold},
		Extraction: types.ExtractionConfig{
			AIConfig:      ai,
			MaxCandidates: maxDownloads,
		},
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   defaultTimeout,
				UserAgent: defaultUserAgent,
			},
			MaxDownloads: maxDownloads,
		},
		Run: types.RunConfig{DataDir: dataDir},
	}
	return cfg
}

// studyContext loads the study context from --context (a YAML or JSON
// file) or from the individual flags. Flags override file fields.
func studyContext(cmd *cobra.Command) (types.StudyContext, error) {
	var study types.StudyContext

	if path, _ := cmd.Flags().GetString("context"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return study, fmt.Errorf("reading context file: %w", err)
		}
		if err := yaml.Unmarshal(data, &study); err != nil {
			return study, fmt.Errorf("parsing context file %s: %w", path, err)
		}
	}

	if v, _ := cmd.Flags().GetString("scenario"); v != "" {
		study.Scenario = v
	}
	if v, _ := cmd.Flags().GetString("platform"); v != "" {
		study.Platform = v
	}
	if v, _ := cmd.Flags().GetString("modalities"); v != "" {
		study.Modalities = v
	}
	if goals, _ := cmd.Flags().GetStringArray("goal"); len(goals) > 0 {
		study.Goals = goals
	}

	return study, nil
}

// contextFlags registers the study-context flags shared by run and queries.
func contextFlags(cmd *cobra.Command) {
	cmd.Flags().String("context", "", "study context file (YAML or JSON)")
	cmd.Flags().String("scenario", "", "assessment scenario")
	cmd.Flags().String("platform", "", "robot platform")
	cmd.Flags().String("modalities", "", "interaction modalities (comma-separated)")
	cmd.Flags().StringArray("goal", nil, "assessment goal (repeatable)")
	cmd.Flags().String("model", "", "completion model (default gpt-4o)")
}
