// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fans queries out across academic API backends and merges
// the raw results into one identity-deduplicated candidate set.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

const (
	defaultScreeningCap = 80
	defaultConcurrency  = 4
)

// Backend searches a single academic API. Each backend (arXiv, Semantic
// Scholar, OpenAlex) implements this interface per the Strategy pattern.
// Results follow the backend's native relevance order.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.Candidate, error)
}

// Output holds the aggregated candidate set and discovery statistics.
type Output struct {
	Candidates    []types.Candidate
	DupsRemoved   int
	Truncated     int
	BackendErrors []string
}

// FanOut issues every (query, backend) combination independently, with at
// most cfg.Concurrency calls in flight, then deduplicates the union. One
// backend's outage never blocks the others: a failed call contributes an
// empty result and a recorded error. Candidate order is stable first-seen
// order, query-major then backend, so reruns over identical responses
// aggregate identically.
func FanOut(ctx context.Context, queries []types.Query, backends []Backend, cfg types.SearchConfig, w io.Writer) Output {
	type unit struct {
		query   types.Query
		backend Backend
	}

	var units []unit
	for _, q := range queries {
		for _, b := range backends {
			units = append(units, unit{query: q, backend: b})
		}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	// Each unit writes its own slot; slots are merged after the barrier,
	// so no shared state is touched while calls are in flight.
	results := make([][]types.Candidate, len(units))
	errs := make([]error, len(units))

	g := &errgroup.Group{}
	g.SetLimit(concurrency)
	for i, u := range units {
		g.Go(func() error {
			results[i], errs[i] = u.backend.Search(ctx, u.query.Text, cfg)
			return nil
		})
	}
	g.Wait()

	var all []types.Candidate
	var backendErrors []string
	for i, u := range units {
		if errs[i] != nil {
			msg := fmt.Sprintf("%s: %v", u.backend.Name(), errs[i])
			backendErrors = append(backendErrors, msg)
			fmt.Fprintf(w, "warning: backend %s failed for %q: %v\n", u.backend.Name(), u.query.Text, errs[i])
			continue
		}
		for _, c := range results[i] {
			c.Provenance = []types.Provenance{{Query: u.query.Text, Backend: u.backend.Name()}}
			all = append(all, c)
		}
	}

	deduped, removed := deduplicate(all)

	limit := cfg.ScreeningCap
	if limit <= 0 {
		limit = defaultScreeningCap
	}
	truncated := 0
	if len(deduped) > limit {
		truncated = len(deduped) - limit
		deduped = deduped[:limit]
		fmt.Fprintf(w, "warning: candidate set truncated to %d (dropped %d, coverage reduced)\n", limit, truncated)
	}

	return Output{
		Candidates:    deduped,
		DupsRemoved:   removed,
		Truncated:     truncated,
		BackendErrors: backendErrors,
	}
}

// deduplicate merges candidates that share an external identifier or a
// normalized (title, year) pair. Both keys are needed: backends use
// incompatible identifier schemes, so the same paper can surface with
// different IDs. The first-seen candidate keeps its identity fields; later
// duplicates only contribute provenance and fill gaps.
func deduplicate(candidates []types.Candidate) ([]types.Candidate, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.Candidate
	removed := 0

	for _, c := range candidates {
		idKey := ""
		if c.ExternalID != "" {
			idKey = "id:" + strings.ToLower(c.ExternalID)
		}
		titleKey := ""
		if norm := normalizeTitle(c.Title); norm != "" {
			titleKey = fmt.Sprintf("title:%s|%d", norm, c.Year)
		}

		if idx, ok := lookup(seen, idKey, titleKey); ok {
			mergeInto(&deduped[idx], c)
			removed++
			// Register the duplicate's keys too, so a third sighting
			// under either scheme still lands on the same entry.
			record(seen, idKey, titleKey, idx)
			continue
		}

		idx := len(deduped)
		deduped = append(deduped, c)
		record(seen, idKey, titleKey, idx)
	}
	return deduped, removed
}

func lookup(seen map[string]int, keys ...string) (int, bool) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if idx, ok := seen[k]; ok {
			return idx, true
		}
	}
	return 0, false
}

func record(seen map[string]int, idKey, titleKey string, idx int) {
	if idKey != "" {
		if _, ok := seen[idKey]; !ok {
			seen[idKey] = idx
		}
	}
	if titleKey != "" {
		if _, ok := seen[titleKey]; !ok {
			seen[titleKey] = idx
		}
	}
}

// mergeInto unions provenance into dst and fills fields dst is missing.
// Identity fields of the first-seen candidate always win.
func mergeInto(dst *types.Candidate, src types.Candidate) {
	for _, p := range src.Provenance {
		if !hasProvenance(dst.Provenance, p) {
			dst.Provenance = append(dst.Provenance, p)
		}
	}
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
	}
	if dst.Year == 0 && src.Year != 0 {
		dst.Year = src.Year
	}
	if dst.PDFURL == "" && src.PDFURL != "" {
		dst.PDFURL = src.PDFURL
	}
}

func hasProvenance(set []types.Provenance, p types.Provenance) bool {
	for _, q := range set {
		if q == p {
			return true
		}
	}
	return false
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FormatTable writes candidates as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Candidates) == 0 {
		fmt.Fprintln(w, "No candidates found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-4s  %-16s  %s\n",
		"Rank", "Title", "Year", "Backend", "Found via")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, c := range out.Candidates {
		title := c.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		year := ""
		if c.Year > 0 {
			year = fmt.Sprintf("%d", c.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-4s  %-16s  %d queries\n",
			i+1, title, year, c.Backend, len(c.Provenance))
	}

	fmt.Fprintf(w, "\n%d candidates", len(out.Candidates))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	if out.Truncated > 0 {
		fmt.Fprintf(w, " (%d truncated)", out.Truncated)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes candidates as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Candidates)
}
