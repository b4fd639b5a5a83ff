// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls categorized findings out of accepted candidates'
// abstracts. One completion call per candidate produces zero or more
// findings tagged with the fixed category vocabulary and an optional
// interaction-modality sub-tag.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/PayneLeee/EmpathyScale/internal/llm"
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

const (
	defaultMaxCandidates = 50
	defaultConcurrency   = 4
)

// Progress is called after each candidate's extraction finishes.
type Progress func(done, total int)

// Extract runs findings extraction over the accepted candidates, capped at
// cfg.MaxCandidates by score descending then first-seen order. Extraction
// failure or unparseable output for one candidate yields zero findings for
// it and never aborts the others. The returned findings follow the capped
// candidate order.
func Extract(ctx context.Context, c llm.Completer, accepted []types.ScoredCandidate, cfg types.ExtractionConfig, w io.Writer, progress Progress) []types.Finding {
	selected := selectCandidates(accepted, cfg.MaxCandidates)

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	perCandidate := make([][]types.Finding, len(selected))
	var done atomic.Int64

	g := &errgroup.Group{}
	g.SetLimit(concurrency)
	for i, sc := range selected {
		g.Go(func() error {
			perCandidate[i] = extractOne(ctx, c, sc, cfg, w)
			if progress != nil {
				progress(int(done.Add(1)), len(selected))
			}
			return nil
		})
	}
	g.Wait()

	var findings []types.Finding
	for _, fs := range perCandidate {
		findings = append(findings, fs...)
	}
	return findings
}

// selectCandidates orders by score descending, ties broken by first-seen
// order, and truncates to the cap.
func selectCandidates(accepted []types.ScoredCandidate, max int) []types.ScoredCandidate {
	if max <= 0 {
		max = defaultMaxCandidates
	}

	selected := make([]types.ScoredCandidate, len(accepted))
	copy(selected, accepted)
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Score > selected[j].Score
	})

	if len(selected) > max {
		selected = selected[:max]
	}
	return selected
}

// extractOne issues one completion call and parses the findings JSON.
func extractOne(ctx context.Context, c llm.Completer, sc types.ScoredCandidate, cfg types.ExtractionConfig, w io.Writer) []types.Finding {
	prompt, err := renderPrompt(sc.Candidate)
	if err != nil {
		fmt.Fprintf(w, "warning: rendering extraction prompt for %q: %v\n", sc.Title, err)
		return nil
	}

	text, err := llm.CompleteWithRetry(ctx, c, prompt, cfg.MaxRetries)
	if err != nil {
		fmt.Fprintf(w, "warning: extraction failed for %q: %v\n", sc.Title, err)
		return nil
	}

	findings, err := parseFindings(text, sc.ExternalID)
	if err != nil {
		fmt.Fprintf(w, "warning: unparseable extraction output for %q: %v\n", sc.Title, err)
		return nil
	}
	return findings
}

// jsonBlobPattern locates the outermost JSON object in a response that may
// carry prose or code fences around it.
var jsonBlobPattern = regexp.MustCompile(`(?s)\{.*\}`)

// extractionResponse is the JSON shape the extraction prompt requests.
type extractionResponse struct {
	Findings []extractionFinding `json:"findings"`
}

type extractionFinding struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Modality string `json:"modality"`
}

// parseFindings decodes the response JSON and validates each finding
// against the category vocabulary. Findings with an unknown category or
// empty text are dropped individually; a response with no JSON object at
// all is an error the caller degrades to zero findings.
func parseFindings(text, candidateID string) ([]types.Finding, error) {
	blob := jsonBlobPattern.FindString(text)
	if blob == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var resp extractionResponse
	if err := json.Unmarshal([]byte(blob), &resp); err != nil {
		return nil, fmt.Errorf("decoding findings JSON: %w", err)
	}

	var findings []types.Finding
	for _, f := range resp.Findings {
		category := types.Category(strings.ToLower(strings.TrimSpace(f.Category)))
		if !types.ValidCategory(category) {
			continue
		}
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		findings = append(findings, types.Finding{
			CandidateID: candidateID,
			Text:        strings.TrimSpace(f.Text),
			Category:    category,
			Modality:    strings.ToLower(strings.TrimSpace(f.Modality)),
		})
	}
	return findings, nil
}
