// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// QueryOrigin tags how a search query was produced.
type QueryOrigin string

const (
	// OriginGenerated marks queries produced by the language model.
	OriginGenerated QueryOrigin = "generated"

	// OriginFallback marks the generic query emitted when both generation
	// and templates fail to produce anything usable.
	OriginFallback QueryOrigin = "fallback"
)

// TemplateOrigin returns the origin tag for a query filled from the named
// fallback template (e.g. "template:scale-construction").
func TemplateOrigin(name string) QueryOrigin {
	return QueryOrigin("template:" + name)
}

// Query is one search string with provenance. Queries are immutable once
// produced by the synthesizer.
type Query struct {
	// Text is the search string sent to each backend.
	Text string `json:"text" yaml:"text"`

	// Origin records how the query was produced.
	Origin QueryOrigin `json:"origin" yaml:"origin"`
}

// Provenance records one (query, backend) pair through which a candidate
// was discovered. A candidate found via several queries or backends carries
// the union of its provenance entries.
type Provenance struct {
	Query   string `json:"query" yaml:"query"`
	Backend string `json:"backend" yaml:"backend"`
}

// Candidate is one discovered paper before relevance screening.
type Candidate struct {
	// ExternalID is the backend-assigned identifier (arXiv ID, DOI, or an
	// opaque paper ID). Identifier schemes differ across backends, so
	// deduplication also matches on (normalized title, year).
	ExternalID string `json:"external_id" yaml:"external_id"`

	// Title is the paper title as returned by the backend.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract or summary, possibly empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year" yaml:"year"`

	// Backend identifies the backend that first returned this candidate
	// (e.g. "arxiv", "semantic_scholar", "openalex").
	Backend string `json:"backend" yaml:"backend"`

	// PDFURL is the locator the downloader should fetch, when the backend
	// supplied one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Provenance lists every (query, backend) pair that discovered this
	// candidate. Aggregation keeps the first-seen identity fields and the
	// union of provenance.
	Provenance []Provenance `json:"provenance" yaml:"provenance"`
}

// ScoredCandidate is a candidate plus its relevance screening outcome.
// Immutable once created; rejected candidates are kept for auditing.
type ScoredCandidate struct {
	Candidate `yaml:",inline"`

	// Score is the screening score: 1-5 from the model, or 0 when the
	// response could not be parsed.
	Score int `json:"score" yaml:"score"`

	// Rationale is the model's free-text explanation for the score.
	Rationale string `json:"rationale" yaml:"rationale"`
}

// Accepted reports whether the candidate passed screening at the given
// threshold. Either scoring criterion alone can carry the score over the
// threshold; the rubric never requires both.
func (s ScoredCandidate) Accepted(threshold int) bool {
	return s.Score >= threshold
}
