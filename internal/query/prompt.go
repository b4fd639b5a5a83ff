// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"bytes"
	"text/template"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// synthesisPromptTmpl asks the model for one search query per line, covering
// the three finding categories the extractor tags. The exact wording is a
// tunable, not a contract; the parser only relies on line structure.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`You are assisting with the design of an empathy measurement scale for human-robot interaction research.

Study context:
- Assessment scenario: {{.Scenario}}
- Robot platform: {{.Platform}}
- Interaction modalities: {{.Modalities}}
- Assessment goals: {{.Goals}}

Produce {{.Count}} diverse academic literature search queries that together cover:
- how empathy is defined and conceptualized for this kind of scenario
- which empathic robot behaviors have been studied, including the listed modalities
- how empathy has been measured, and which scales or instruments exist

Write exactly one query per line. Use plain search terms only: no numbering, no quotes, no commentary.`))

// promptData carries the rendered context fields. Blank fields render as
// "N/A" so the model does not invent values for them.
type promptData struct {
	Scenario   string
	Platform   string
	Modalities string
	Goals      string
	Count      int
}

func renderPrompt(study types.StudyContext, count int) (string, error) {
	data := promptData{
		Scenario:   orNA(study.Scenario),
		Platform:   orNA(study.Platform),
		Modalities: orNA(study.Modalities),
		Goals:      study.GoalsLine(),
		Count:      count,
	}
	var buf bytes.Buffer
	if err := synthesisPromptTmpl.Execute(&buf, data); err != nil {
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
