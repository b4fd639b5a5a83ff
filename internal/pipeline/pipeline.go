// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the full literature pass: query synthesis,
// backend search, relevance screening, findings extraction, categorized
// download, and index assembly. Each stage completes fully before the
// next starts, and each stage's artifact is persisted to the run
// directory as soon as the stage finishes, so a cancelled run leaves
// the completed stages' outputs behind.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/PayneLeee/EmpathyScale/internal/download"
	"github.com/PayneLeee/EmpathyScale/internal/extract"
	"github.com/PayneLeee/EmpathyScale/internal/index"
	"github.com/PayneLeee/EmpathyScale/internal/llm"
	"github.com/PayneLeee/EmpathyScale/internal/organize"
	"github.com/PayneLeee/EmpathyScale/internal/query"
	"github.com/PayneLeee/EmpathyScale/internal/run"
	"github.com/PayneLeee/EmpathyScale/internal/screen"
	"github.com/PayneLeee/EmpathyScale/internal/search"
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// ProgressFunc receives fan-out progress for a named stage. The CLI
// attaches a progress bar; tests attach counters.
type ProgressFunc func(stage string, done, total int)

// Deps carries everything a pipeline run needs. Completer and Client
// are interfaces/values the tests substitute.
type Deps struct {
	Completer llm.Completer
	Client    *http.Client
	Config    types.PipelineConfig

	// Backends overrides the configured backend set when non-nil.
	Backends []search.Backend

	// Log receives terse progress and warning lines.
	Log io.Writer

	// Progress is optional.
	Progress ProgressFunc
}

// Result holds every stage's output for one run.
type Result struct {
	Queries   []types.Query
	Search    search.Output
	Scored    []types.ScoredCandidate
	Accepted  []types.ScoredCandidate
	Findings  []types.Finding
	Downloads []types.DownloadResult
	Index     types.FindingsIndex
}

// Artifact filenames within the run directory.
const (
	queriesFile  = "queries.json"
	reportFile   = "report.yaml"
	scoredFile   = "scored.json"
	findingsFile = "findings.json"
	indexFile    = "index.json"
	summaryFile  = "summary.json"
)

// Run executes the pipeline into the given run directory. The
// configuration must validate before any stage executes. A run that
// finds zero candidates is a valid terminal state: later stages are
// skipped and an empty index is produced.
func Run(ctx context.Context, d Deps, study types.StudyContext, dir *run.Dir) (*Result, error) {
	if err := d.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	w := d.Log
	if w == nil {
		w = io.Discard
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	if err := dir.SetStatus(run.StatusRunning); err != nil {
		fmt.Fprintf(w, "warning: updating run status: %v\n", err)
	}
	res := &Result{}

	fail := func(err error) (*Result, error) {
		status := run.StatusFailed
		if ctx.Err() != nil {
			status = run.StatusCancelled
		}
		if statusErr := dir.SetStatus(status); statusErr != nil {
			fmt.Fprintf(w, "warning: updating run status: %v\n", statusErr)
		}
		return res, err
	}

	// Stage 1: query synthesis.
	res.Queries = query.Synthesize(ctx, d.Completer, study, d.Config.Synthesis, w)
	if err := dir.WriteJSON(filepath.Join(run.QueriesDir, queriesFile), res.Queries); err != nil {
		fmt.Fprintf(w, "warning: saving queries: %v\n", err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Stage 2: backend fan-out and aggregation.
	backends := d.Backends
	if backends == nil {
		backends = search.Enabled(d.Config.Search, client)
	}
	res.Search = search.FanOut(ctx, res.Queries, backends, d.Config.Search, w)
	reportPath := dir.Join(run.SearchDir, reportFile)
	if err := search.WriteReportFile(reportPath, res.Queries, res.Search); err != nil {
		fmt.Fprintf(w, "warning: saving search report: %v\n", err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	if len(res.Search.Candidates) == 0 {
		fmt.Fprintf(w, "no candidates found, ending run\n")
		return finish(ctx, d, res, dir, w)
	}

	// Stage 3: relevance screening.
	res.Scored = screen.Screen(ctx, d.Completer, study, res.Search.Candidates,
		d.Config.Screening, w, stageProgress(d.Progress, "screening"))
	threshold := d.Config.Screening.Threshold
	if threshold == 0 {
		threshold = screen.DefaultThreshold
	}
	res.Accepted = screen.Accepted(res.Scored, threshold)
	if err := dir.WriteJSON(filepath.Join(run.ScreenDir, scoredFile), res.Scored); err != nil {
		fmt.Fprintf(w, "warning: saving screening results: %v\n", err)
	}
	fmt.Fprintf(w, "screened %d candidates, accepted %d\n", len(res.Scored), len(res.Accepted))
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Stage 4: findings extraction.
	res.Findings = extract.Extract(ctx, d.Completer, res.Accepted,
		d.Config.Extraction, w, stageProgress(d.Progress, "extraction"))
	if err := dir.WriteJSON(filepath.Join(run.FindingsDir, findingsFile), res.Findings); err != nil {
		fmt.Fprintf(w, "warning: saving findings: %v\n", err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Stage 5: categorized download.
	res.Downloads = download.Download(ctx, client, res.Accepted, res.Findings,
		d.Config.Download, dir.Join(run.PapersDir), w, stageProgress(d.Progress, "download"))
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	return finish(ctx, d, res, dir, w)
}

// finish assembles the index, persists the final artifacts, and marks
// the run completed.
func finish(ctx context.Context, d Deps, res *Result, dir *run.Dir, w io.Writer) (*Result, error) {
	base := types.Summary{
		QueriesGenerated: len(res.Queries),
		CandidatesFound:  len(res.Search.Candidates),
		Screened:         len(res.Scored),
		Accepted:         len(res.Accepted),
		BackendErrors:    res.Search.BackendErrors,
	}
	res.Index = organize.Build(res.Accepted, res.Findings, res.Downloads, base)

	if err := dir.WriteJSON(filepath.Join(run.FindingsDir, indexFile), res.Index); err != nil {
		return res, fmt.Errorf("saving findings index: %w", err)
	}
	if err := dir.WriteJSON(summaryFile, res.Index.Summary); err != nil {
		return res, fmt.Errorf("saving run summary: %w", err)
	}

	if err := ingest(ctx, res, dir); err != nil {
		fmt.Fprintf(w, "warning: findings database: %v\n", err)
	}

	if err := dir.SetStatus(run.StatusCompleted); err != nil {
		fmt.Fprintf(w, "warning: updating run status: %v\n", err)
	}

	s := res.Index.Summary
	fmt.Fprintf(w, "run complete: %d findings from %d papers, %d downloaded (%d failed)\n",
		s.FindingsTotal, s.Accepted, s.Downloaded, s.DownloadFailures)
	return res, nil
}

// ingest mirrors the run's accepted candidates and findings into the
// per-run SQLite database.
func ingest(ctx context.Context, res *Result, dir *run.Dir) error {
	if len(res.Accepted) == 0 {
		return nil
	}
	store, err := index.NewStore(dir.Path, 0)
	if err != nil {
		return err
	}
	defer store.Close()
	if _, err := store.Ingest(ctx, res.Accepted, res.Findings, res.Downloads); err != nil {
		return err
	}
	return store.ExportJSON(ctx, index.QueryOptions{})
}

func stageProgress(p ProgressFunc, stage string) func(done, total int) {
	if p == nil {
		return nil
	}
	return func(done, total int) { p(stage, done, total) }
}
