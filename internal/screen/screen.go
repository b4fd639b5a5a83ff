// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package screen scores candidates for relevance against the two scale
// design criteria and applies the acceptance threshold. Every candidate
// keeps its score for auditing; rejection only removes it from downstream
// stages, not from the screening report.
package screen

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/PayneLeee/EmpathyScale/internal/llm"
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

const (
	// DefaultThreshold is the minimum accepted score.
	DefaultThreshold = 3

	defaultConcurrency = 4
)

// Progress is called after each candidate is scored, with the number done
// so far and the total. The counter increments atomically, so callbacks
// may fire from concurrent scoring goroutines.
type Progress func(done, total int)

// Screen scores every candidate concurrently, bounded by cfg.Concurrency,
// and returns one ScoredCandidate per input in input order. A failed or
// unparseable completion yields score 0 for that candidate and never
// aborts its siblings.
func Screen(ctx context.Context, c llm.Completer, study types.StudyContext, candidates []types.Candidate, cfg types.ScreeningConfig, w io.Writer, progress Progress) []types.ScoredCandidate {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	scored := make([]types.ScoredCandidate, len(candidates))
	var done atomic.Int64

	g := &errgroup.Group{}
	g.SetLimit(concurrency)
	for i, cand := range candidates {
		g.Go(func() error {
			scored[i] = scoreOne(ctx, c, study, cand, cfg, w)
			if progress != nil {
				progress(int(done.Add(1)), len(candidates))
			}
			return nil
		})
	}
	g.Wait()

	return scored
}

// scoreOne issues one completion call for the candidate and parses the
// score and rationale out of the response.
func scoreOne(ctx context.Context, c llm.Completer, study types.StudyContext, cand types.Candidate, cfg types.ScreeningConfig, w io.Writer) types.ScoredCandidate {
	sc := types.ScoredCandidate{Candidate: cand}

	prompt, err := renderPrompt(study, cand)
	if err != nil {
		fmt.Fprintf(w, "warning: rendering screening prompt for %q: %v\n", cand.Title, err)
		sc.Rationale = "prompt rendering failed"
		return sc
	}

	text, err := llm.CompleteWithRetry(ctx, c, prompt, cfg.MaxRetries)
	if err != nil {
		fmt.Fprintf(w, "warning: screening %q failed: %v\n", cand.Title, err)
		sc.Rationale = fmt.Sprintf("screening call failed: %v", err)
		return sc
	}

	score, rationale, ok := parseScore(text)
	if !ok {
		fmt.Fprintf(w, "warning: unparseable score for %q\n", cand.Title)
		sc.Rationale = "unparseable screening response"
		return sc
	}

	sc.Score = score
	sc.Rationale = rationale
	return sc
}

var (
	scorePattern  = regexp.MustCompile(`SCORE:\s*(\d+)`)
	reasonPattern = regexp.MustCompile(`(?s)REASON:\s*(.+)`)
)

// parseScore extracts "SCORE: n" and "REASON: ..." from the response.
// Only scores 1-5 count as parsed; anything else degrades to score 0.
func parseScore(text string) (score int, rationale string, ok bool) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 5 {
		return 0, "", false
	}

	rationale = "relevance assessment"
	if rm := reasonPattern.FindStringSubmatch(text); rm != nil {
		rationale = strings.TrimSpace(rm[1])
	}
	return n, rationale, true
}

// Accepted filters to candidates at or above the threshold, preserving
// first-seen order. A zero threshold falls back to the default.
func Accepted(scored []types.ScoredCandidate, threshold int) []types.ScoredCandidate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	var accepted []types.ScoredCandidate
	for _, sc := range scored {
		if sc.Accepted(threshold) {
			accepted = append(accepted, sc)
		}
	}
	return accepted
}
