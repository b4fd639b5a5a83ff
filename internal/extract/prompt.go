// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// extractionPromptTmpl asks for atomic findings tagged with the fixed
// category vocabulary. The category names in the prompt must match the
// validation set in parseFindings.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are extracting findings for an empathy scale design project. Analyze this paper's abstract and pull out every empathy-relevant insight.

Title: {{.Title}}
Abstract: {{.Abstract}}

For each insight, produce:
- text: the insight in one or two sentences
- category: exactly one of "definitions" (how empathy is defined or conceptualized), "behaviors" (empathic robot behaviors that were studied), "measurement" (scales, instruments, or measurement methods)
- modality: the interaction modality the insight concerns (e.g. "speech", "gesture", "facial-expression"), or "" when not tied to one

Respond with a JSON object containing a "findings" array. Each element must have all three fields. An abstract with nothing relevant gets an empty array. Do not include any text outside the JSON object.`))

type promptData struct {
	Title    string
	Abstract string
}

func renderPrompt(cand types.Candidate) (string, error) {
	var buf bytes.Buffer
	err := extractionPromptTmpl.Execute(&buf, promptData{Title: cand.Title, Abstract: cand.Abstract})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
