// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query turns a study context into a diverse set of literature
// search queries. One completion call produces the candidate queries; a
// deterministic template library covers generation failure so downstream
// stages always have at least one query to work with.
package query

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PayneLeee/EmpathyScale/internal/llm"
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

const (
	defaultQueryCount = 6
	defaultMinUsable  = 2

	// minQueryLen discards prompt-echo fragments and stray punctuation
	// lines from the model output.
	minQueryLen = 10
)

// genericFallback is the query of last resort. Emitted when generation
// failed and no context field could fill a template.
const genericFallback = "robot empathy human-robot interaction"

// Synthesize produces an ordered, distinct query list for the given
// context. The completion collaborator is asked once; if the call fails or
// yields fewer than cfg.MinUsable parseable queries, the template library
// takes over. Synthesize never returns an empty slice and never returns an
// error for collaborator failure — only the degraded path is taken.
func Synthesize(ctx context.Context, c llm.Completer, study types.StudyContext, cfg types.SynthesisConfig, w io.Writer) []types.Query {
	count := cfg.QueryCount
	if count <= 0 {
		count = defaultQueryCount
	}
	minUsable := cfg.MinUsable
	if minUsable <= 0 {
		minUsable = defaultMinUsable
	}

	prompt, err := renderPrompt(study, count)
	if err != nil {
		fmt.Fprintf(w, "warning: rendering query prompt: %v\n", err)
		return fallbackQueries(study, count)
	}

	text, err := llm.CompleteWithRetry(ctx, c, prompt, cfg.MaxRetries)
	if err != nil {
		fmt.Fprintf(w, "warning: query generation failed, using templates: %v\n", err)
		return fallbackQueries(study, count)
	}

	queries := parseQueries(text, count)
	if len(queries) < minUsable {
		fmt.Fprintf(w, "warning: only %d usable generated queries, using templates\n", len(queries))
		return fallbackQueries(study, count)
	}
	return queries
}

// listNumbering matches "1. " and "12) " style list prefixes the model
// sometimes adds despite the prompt asking for bare lines.
var listNumbering = regexp.MustCompile(`^\d{1,2}[.)]\s+`)

// parseQueries extracts one query per response line, stripping list
// numbering and quotes, and deduplicates after case/whitespace
// normalization. Order follows the response.
func parseQueries(text string, limit int) []types.Query {
	seen := make(map[string]bool)
	var queries []types.Query

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		// Strip "1. ", "2) " style numbering and surrounding quotes. The
		// strip is anchored to a leading digit so a query that merely
		// contains an early dot (e.g. "A.I. empathy") survives intact.
		line = listNumbering.ReplaceAllString(line, "")
		line = strings.Trim(line, `"'`)
		line = strings.TrimSpace(line)

		if len(line) < minQueryLen {
			continue
		}
		if hasInstructionPrefix(line) {
			continue
		}

		key := normalize(line)
		if seen[key] {
			continue
		}
		seen[key] = true

		queries = append(queries, types.Query{Text: line, Origin: types.OriginGenerated})
		if len(queries) == limit {
			break
		}
	}
	return queries
}

// hasInstructionPrefix filters lines where the model echoed the prompt
// instructions instead of producing a query.
func hasInstructionPrefix(line string) bool {
	for _, p := range []string{"Query", "Format", "Generate", "Here", "Search"} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// normalize lowercases and collapses whitespace for distinctness checks.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// fallbackTemplate fills one canned query pattern from a context field.
type fallbackTemplate struct {
	name string
	// build returns the query text, or "" when the needed field is blank.
	build func(types.StudyContext) string
}

var fallbackTemplates = []fallbackTemplate{
	{"scale-construction", func(c types.StudyContext) string {
		if c.Scenario == "" {
			return ""
		}
		return c.Scenario + " empathy scale construction"
	}},
	{"platform-behavior", func(c types.StudyContext) string {
		if c.Platform == "" {
			return ""
		}
		return c.Platform + " empathy behavior"
	}},
	{"modality-interaction", func(c types.StudyContext) string {
		if c.Modalities == "" {
			return ""
		}
		return "empathic " + c.Modalities + " human-robot interaction"
	}},
	{"measurement", func(c types.StudyContext) string {
		if c.Scenario == "" {
			return ""
		}
		return "robot empathy measurement " + c.Scenario
	}},
	{"goal-focus", func(c types.StudyContext) string {
		if len(c.Goals) == 0 {
			return ""
		}
		return c.Goals[0] + " empathy assessment"
	}},
}

// fallbackQueries fills the template library from whatever context fields
// are populated. An entirely blank context still yields the generic query,
// so the result is never empty.
func fallbackQueries(study types.StudyContext, limit int) []types.Query {
	seen := make(map[string]bool)
	var queries []types.Query

	for _, tmpl := range fallbackTemplates {
		text := tmpl.build(study)
		if text == "" {
			continue
		}
		key := normalize(text)
		if seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, types.Query{Text: text, Origin: types.TemplateOrigin(tmpl.name)})
		if len(queries) == limit {
			return queries
		}
	}

	if len(queries) == 0 {
		queries = append(queries, types.Query{Text: genericFallback, Origin: types.OriginFallback})
	}
	return queries
}
