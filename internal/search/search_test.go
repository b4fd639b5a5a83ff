// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	name       string
	candidates []types.Candidate
	err        error
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(_ context.Context, _ string, _ types.SearchConfig) ([]types.Candidate, error) {
	return m.candidates, m.err
}

func testCfg() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
		MaxPerBackend: 20,
		ScreeningCap:  80,
		Concurrency:   4,
	}
}

func queries(texts ...string) []types.Query {
	var qs []types.Query
	for _, t := range texts {
		qs = append(qs, types.Query{Text: t, Origin: types.OriginGenerated})
	}
	return qs
}

// --- Deduplication ---

func TestDeduplicateByExternalID(t *testing.T) {
	candidates := []types.Candidate{
		{ExternalID: "2301.07041", Title: "Paper A", Backend: "arxiv",
			Provenance: []types.Provenance{{Query: "q1", Backend: "arxiv"}}},
		{ExternalID: "2301.07041", Title: "Paper A (from S2)", Backend: "semantic_scholar",
			Provenance: []types.Provenance{{Query: "q2", Backend: "semantic_scholar"}}},
		{ExternalID: "2301.99999", Title: "Paper B", Backend: "arxiv",
			Provenance: []types.Provenance{{Query: "q1", Backend: "arxiv"}}},
	}

	deduped, removed := deduplicate(candidates)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(deduped) != 2 {
		t.Fatalf("len(deduped) = %d, want 2", len(deduped))
	}
	// First-seen identity fields are kept even when the duplicate's title
	// disagrees (backend data inconsistency).
	if deduped[0].Title != "Paper A" {
		t.Errorf("merged title = %q, want first-seen %q", deduped[0].Title, "Paper A")
	}
	if len(deduped[0].Provenance) != 2 {
		t.Errorf("merged provenance = %+v, want union of both sightings", deduped[0].Provenance)
	}
}

func TestDeduplicateByTitleAndYear(t *testing.T) {
	candidates := []types.Candidate{
		{ExternalID: "2301.07041", Title: "Measuring Robot Empathy", Year: 2023, Backend: "arxiv"},
		{ExternalID: "10.1145/999", Title: "measuring robot empathy!", Year: 2023, Backend: "openalex"},
		{ExternalID: "10.1145/888", Title: "Measuring Robot Empathy", Year: 2019, Backend: "openalex"},
	}

	deduped, removed := deduplicate(candidates)
	if removed != 1 {
		t.Errorf("removed = %d, want 1 (same title different year is a distinct paper)", removed)
	}
	if len(deduped) != 2 {
		t.Fatalf("len(deduped) = %d, want 2", len(deduped))
	}
}

func TestDeduplicateFillsMissingFields(t *testing.T) {
	candidates := []types.Candidate{
		{ExternalID: "2301.07041", Title: "Paper A", Backend: "arxiv"},
		{ExternalID: "2301.07041", Title: "Paper A", Year: 2023, Abstract: "An abstract.",
			PDFURL: "https://example.org/a.pdf", Backend: "semantic_scholar"},
	}

	deduped, _ := deduplicate(candidates)
	if len(deduped) != 1 {
		t.Fatalf("len(deduped) = %d, want 1", len(deduped))
	}
	if deduped[0].Abstract != "An abstract." || deduped[0].Year != 2023 || deduped[0].PDFURL == "" {
		t.Errorf("duplicate should fill gaps in the first-seen candidate: %+v", deduped[0])
	}
}

// --- FanOut ---

func TestFanOutMergesBackends(t *testing.T) {
	a := &mockBackend{name: "arxiv", candidates: []types.Candidate{
		{ExternalID: "2301.07041", Title: "Paper A", Backend: "arxiv"},
	}}
	b := &mockBackend{name: "openalex", candidates: []types.Candidate{
		{ExternalID: "10.1145/999", Title: "Paper B", Backend: "openalex"},
	}}

	var buf bytes.Buffer
	out := FanOut(context.Background(), queries("robot empathy"), []Backend{a, b}, testCfg(), &buf)

	if len(out.Candidates) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(out.Candidates))
	}
	for _, c := range out.Candidates {
		if len(c.Provenance) != 1 {
			t.Errorf("candidate %q provenance = %+v, want one entry", c.Title, c.Provenance)
		}
	}
}

func TestFanOutIsolatesBackendFailure(t *testing.T) {
	failing := &mockBackend{name: "semantic_scholar", err: fmt.Errorf("connection refused")}
	healthy := &mockBackend{name: "arxiv", candidates: []types.Candidate{
		{ExternalID: "2301.07041", Title: "Paper A", Backend: "arxiv"},
	}}

	var buf bytes.Buffer
	out := FanOut(context.Background(), queries("q1", "q2"), []Backend{failing, healthy}, testCfg(), &buf)

	if len(out.Candidates) != 1 {
		t.Fatalf("len(candidates) = %d, healthy backend results must survive", len(out.Candidates))
	}
	if len(out.BackendErrors) != 2 {
		t.Errorf("backend errors = %v, want one per failed (query, backend) call", out.BackendErrors)
	}
	if !strings.Contains(buf.String(), "semantic_scholar") {
		t.Errorf("failure should be logged, got %q", buf.String())
	}
}

func TestFanOutProvenanceUnionAcrossQueries(t *testing.T) {
	b := &mockBackend{name: "arxiv", candidates: []types.Candidate{
		{ExternalID: "2301.07041", Title: "Paper A", Backend: "arxiv"},
	}}

	var buf bytes.Buffer
	out := FanOut(context.Background(), queries("q1", "q2", "q3"), []Backend{b}, testCfg(), &buf)

	if len(out.Candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(out.Candidates))
	}
	if got := len(out.Candidates[0].Provenance); got != 3 {
		t.Errorf("provenance entries = %d, want 3 (one per discovering query)", got)
	}
	if out.DupsRemoved != 2 {
		t.Errorf("dups removed = %d, want 2", out.DupsRemoved)
	}
}

func TestFanOutAppliesScreeningCap(t *testing.T) {
	var many []types.Candidate
	for i := 0; i < 10; i++ {
		many = append(many, types.Candidate{
			ExternalID: fmt.Sprintf("2301.%05d", i),
			Title:      fmt.Sprintf("Paper %d", i),
			Backend:    "arxiv",
		})
	}
	b := &mockBackend{name: "arxiv", candidates: many}

	cfg := testCfg()
	cfg.ScreeningCap = 4

	var buf bytes.Buffer
	out := FanOut(context.Background(), queries("q1"), []Backend{b}, cfg, &buf)

	if len(out.Candidates) != 4 {
		t.Fatalf("len(candidates) = %d, want cap 4", len(out.Candidates))
	}
	if out.Truncated != 6 {
		t.Errorf("truncated = %d, want 6", out.Truncated)
	}
	// Earliest-discovered candidates survive.
	if out.Candidates[0].Title != "Paper 0" {
		t.Errorf("candidates[0] = %q, truncation must keep first-seen order", out.Candidates[0].Title)
	}
	if !strings.Contains(buf.String(), "truncated") {
		t.Errorf("truncation must be logged, got %q", buf.String())
	}
}

func TestFanOutNoBackendsNoQueries(t *testing.T) {
	var buf bytes.Buffer
	out := FanOut(context.Background(), nil, nil, testCfg(), &buf)
	if len(out.Candidates) != 0 || len(out.BackendErrors) != 0 {
		t.Errorf("empty input should produce empty output, got %+v", out)
	}
}

// --- Formatting ---

func TestFormatTable(t *testing.T) {
	out := Output{
		Candidates: []types.Candidate{
			{Title: "Measuring Robot Empathy", Year: 2023, Backend: "arxiv",
				Provenance: []types.Provenance{{Query: "q", Backend: "arxiv"}}},
		},
		DupsRemoved: 2,
	}

	var buf bytes.Buffer
	FormatTable(out, &buf)
	s := buf.String()
	if !strings.Contains(s, "Measuring Robot Empathy") || !strings.Contains(s, "2 duplicates removed") {
		t.Errorf("unexpected table output:\n%s", s)
	}
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(Output{}, &buf)
	if !strings.Contains(buf.String(), "No candidates found.") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
