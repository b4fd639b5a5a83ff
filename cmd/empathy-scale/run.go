// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/PayneLeee/EmpathyScale/internal/llm"
	"github.com/PayneLeee/EmpathyScale/internal/pipeline"
	"github.com/PayneLeee/EmpathyScale/internal/run"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full literature pipeline",
	Long: `Run executes every pipeline stage for one study context: query
synthesis, backend search, relevance screening, findings extraction,
categorized PDF download, and findings index assembly. Artifacts land in
a fresh timestamped directory under <data-dir>/runs/.

Interrupting the run keeps the artifacts of every completed stage.`,
	RunE: runPipeline,
}

func init() {
	contextFlags(runCmd)
	runCmd.Flags().Int("threshold", 3, "minimum accepted relevance score (1-5)")
	runCmd.Flags().Int("max-results", 20, "maximum results per backend call")
	runCmd.Flags().Int("screening-cap", 80, "maximum candidates forwarded to screening")
	runCmd.Flags().Int("max-downloads", 50, "maximum papers to extract and download")
	runCmd.Flags().StringSlice("backends", []string{"arxiv", "semantic-scholar", "openalex", "pubmed", "crossref"},
		"search backends: arxiv, semantic-scholar, openalex, pubmed, crossref")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	study, err := studyContext(cmd)
	if err != nil {
		return err
	}
	cfg := pipelineConfig(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := run.NewStore(cfg.Run.DataDir)
	if err != nil {
		return err
	}
	dir, err := store.Create(study.Scenario)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "run %s\n", dir.ID)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	deps := pipeline.Deps{
		Completer: llm.NewOpenAIClient(cfg.Synthesis.AIConfig),
		Client:    &http.Client{Timeout: cfg.Search.Timeout},
		Config:    cfg,
		Log:       os.Stderr,
		Progress:  barProgress(os.Stderr),
	}

	res, err := pipeline.Run(ctx, deps, study, dir)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %d findings across %d categories, papers in %s\n",
		dir.ID, res.Index.Summary.FindingsTotal, len(res.Index.ByCategory),
		dir.Join(run.PapersDir))
	return nil
}

// barProgress renders one progress bar per fan-out stage on w. The stage
// callbacks fire from concurrent workers, so the closure state is guarded
// by a mutex.
func barProgress(w io.Writer) pipeline.ProgressFunc {
	var (
		mu    sync.Mutex
		stage string
		bar   *progressbar.ProgressBar
	)
	return func(s string, done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if s != stage {
			stage = s
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(s),
				progressbar.OptionSetWriter(w),
				progressbar.OptionClearOnFinish(),
			)
		}
		bar.Set(done)
	}
}
