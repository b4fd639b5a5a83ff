// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the EmpathyScale
// literature pipeline: the study context produced by the interview stage,
// search queries and candidates, relevance scores, extracted findings,
// download outcomes, and the final findings index.
package types

import "strings"

// StudyContext is the structured interview summary that drives the
// literature pipeline. It is produced upstream and read-only here; fields
// may be empty strings but the object itself is required.
type StudyContext struct {
	// Scenario describes the assessment context (e.g. "hospital ward nurse
	// assistance").
	Scenario string `json:"scenario" yaml:"scenario"`

	// Platform describes the robot platform (e.g. "humanoid with facial
	// expressions").
	Platform string `json:"platform" yaml:"platform"`

	// Modalities describes the interaction modalities (e.g. "speech, gesture").
	Modalities string `json:"modalities" yaml:"modalities"`

	// Goals lists the assessment goals stated during the interview.
	Goals []string `json:"goals" yaml:"goals"`
}

// IsEmpty reports whether every context field is blank. An empty context is
// still a valid pipeline input; the synthesizer falls back to generic queries.
func (c StudyContext) IsEmpty() bool {
	return strings.TrimSpace(c.Scenario) == "" &&
		strings.TrimSpace(c.Platform) == "" &&
		strings.TrimSpace(c.Modalities) == "" &&
		len(c.Goals) == 0
}

// GoalsLine joins the goal list for prompt embedding, or "N/A" when no
// goals were recorded.
func (c StudyContext) GoalsLine() string {
	if len(c.Goals) == 0 {
		return "N/A"
	}
	return strings.Join(c.Goals, ", ")
}
