// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/PayneLeee/EmpathyScale/internal/llm"
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// fixedCompleter returns a canned response or error.
type fixedCompleter struct {
	text string
	err  error
}

func (f *fixedCompleter) Complete(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func hospitalContext() types.StudyContext {
	return types.StudyContext{
		Scenario:   "hospital ward nurse assistance",
		Platform:   "humanoid with facial expressions",
		Modalities: "speech, gesture",
	}
}

func testCfg() types.SynthesisConfig {
	return types.SynthesisConfig{QueryCount: 6, MinUsable: 2}
}

func TestSynthesizeParsesGeneratedQueries(t *testing.T) {
	c := &fixedCompleter{text: `1. "robot empathy hospital nursing"
2. empathic humanoid facial expression patient care
3. empathy scale validation human-robot interaction
short
Generate more queries if needed
empathy measurement speech gesture modality`}

	var buf bytes.Buffer
	queries := Synthesize(context.Background(), c, hospitalContext(), testCfg(), &buf)

	if len(queries) != 4 {
		t.Fatalf("len(queries) = %d, want 4: %+v", len(queries), queries)
	}
	if queries[0].Text != "robot empathy hospital nursing" {
		t.Errorf("queries[0] = %q, numbering and quotes should be stripped", queries[0].Text)
	}
	for _, q := range queries {
		if q.Origin != types.OriginGenerated {
			t.Errorf("query %q origin = %q, want generated", q.Text, q.Origin)
		}
	}
}

func TestParseQueriesKeepsAbbreviatedTerms(t *testing.T) {
	text := `A.I. empathy measurement instruments
10) robot empathy hospital nursing
empathy scale validation wards`

	queries := parseQueries(text, 6)
	if len(queries) != 3 {
		t.Fatalf("len(queries) = %d, want 3: %+v", len(queries), queries)
	}
	if queries[0].Text != "A.I. empathy measurement instruments" {
		t.Errorf("queries[0] = %q, a dot inside a term is not list numbering", queries[0].Text)
	}
	if queries[1].Text != "robot empathy hospital nursing" {
		t.Errorf("queries[1] = %q, two-digit numbering should be stripped", queries[1].Text)
	}
}

func TestSynthesizeDeduplicatesNormalized(t *testing.T) {
	c := &fixedCompleter{text: `robot empathy hospital nursing
Robot  Empathy   Hospital Nursing
empathy scale construction wards`}

	var buf bytes.Buffer
	queries := Synthesize(context.Background(), c, hospitalContext(), testCfg(), &buf)

	if len(queries) != 2 {
		t.Fatalf("len(queries) = %d, want 2 after case/whitespace dedup", len(queries))
	}
}

func TestSynthesizeCapsAtQueryCount(t *testing.T) {
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("empathy query number %d terms", i))
	}
	c := &fixedCompleter{text: strings.Join(lines, "\n")}

	var buf bytes.Buffer
	cfg := testCfg()
	cfg.QueryCount = 5
	queries := Synthesize(context.Background(), c, hospitalContext(), cfg, &buf)

	if len(queries) != 5 {
		t.Errorf("len(queries) = %d, want 5", len(queries))
	}
}

func TestSynthesizeFallsBackWhenCollaboratorUnavailable(t *testing.T) {
	c := &fixedCompleter{err: llm.Transient(fmt.Errorf("service unavailable"))}

	var buf bytes.Buffer
	queries := Synthesize(context.Background(), c, hospitalContext(), testCfg(), &buf)

	if len(queries) == 0 {
		t.Fatal("fallback must produce at least one query")
	}
	found := false
	for _, q := range queries {
		text := strings.ToLower(q.Text)
		if strings.Contains(text, "hospital") || strings.Contains(text, "empathy") {
			found = true
		}
		if !strings.HasPrefix(string(q.Origin), "template:") && q.Origin != types.OriginFallback {
			t.Errorf("fallback query %q has origin %q", q.Text, q.Origin)
		}
	}
	if !found {
		t.Errorf("no fallback query mentions hospital or empathy: %+v", queries)
	}
	if !strings.Contains(buf.String(), "using templates") {
		t.Errorf("fallback should be logged, got %q", buf.String())
	}
}

func TestSynthesizeFallsBackOnTooFewUsable(t *testing.T) {
	c := &fixedCompleter{text: "only one usable empathy query"}

	var buf bytes.Buffer
	queries := Synthesize(context.Background(), c, hospitalContext(), testCfg(), &buf)

	for _, q := range queries {
		if q.Origin == types.OriginGenerated {
			t.Errorf("query %q is generated; below min_usable the template path should be taken", q.Text)
		}
	}
	if len(queries) < 2 {
		t.Errorf("len(queries) = %d, templates should fill from three populated fields", len(queries))
	}
}

func TestSynthesizeEmptyContextStillYieldsQuery(t *testing.T) {
	c := &fixedCompleter{err: fmt.Errorf("hard failure")}

	var buf bytes.Buffer
	queries := Synthesize(context.Background(), c, types.StudyContext{}, testCfg(), &buf)

	if len(queries) != 1 {
		t.Fatalf("len(queries) = %d, want exactly the generic fallback", len(queries))
	}
	if queries[0].Origin != types.OriginFallback {
		t.Errorf("origin = %q, want fallback", queries[0].Origin)
	}
	if queries[0].Text != genericFallback {
		t.Errorf("text = %q, want %q", queries[0].Text, genericFallback)
	}
}

func TestRenderPromptEmbedsContext(t *testing.T) {
	prompt, err := renderPrompt(hospitalContext(), 6)
	if err != nil {
		t.Fatalf("renderPrompt: %v", err)
	}
	for _, want := range []string{"hospital ward nurse assistance", "humanoid with facial expressions", "speech, gesture", "N/A"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
