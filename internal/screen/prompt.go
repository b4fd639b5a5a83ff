// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"bytes"
	"text/template"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// screeningPromptTmpl embeds the candidate and both scoring criteria. The
// criteria are equally weighted and independent: a paper strong on either
// one alone merits a high score. The exact wording is a tunable; the
// parser relies only on the SCORE/REASON line structure.
var screeningPromptTmpl = template.Must(template.New("screening").Parse(`You are screening academic papers for an empathy scale design project in human-robot interaction.

Study scenario: {{.Scenario}}
Robot platform: {{.Platform}}

Paper title: {{.Title}}
Abstract: {{.Abstract}}

Rate the paper's relevance from 1 to 5 against these two equally weighted criteria:
A. Usefulness for constructing an empathy measurement scale (items, dimensions, validation methods, existing instruments).
B. Usefulness for understanding empathy in the study scenario (definitions, empathic behaviors, contextual factors).

A paper that strongly serves either criterion alone deserves a high score; it does not need to serve both.

Respond in exactly this format:
SCORE: <1-5>
REASON: <one or two sentences>`))

// maxAbstractChars bounds the abstract embedded in the prompt.
const maxAbstractChars = 500

type promptData struct {
	Scenario string
	Platform string
	Title    string
	Abstract string
}

func renderPrompt(study types.StudyContext, cand types.Candidate) (string, error) {
	abstract := cand.Abstract
	if len(abstract) > maxAbstractChars {
		abstract = abstract[:maxAbstractChars]
	}
	data := promptData{
		Scenario: orNA(study.Scenario),
		Platform: orNA(study.Platform),
		Title:    cand.Title,
		Abstract: abstract,
	}
	var buf bytes.Buffer
	if err := screeningPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
