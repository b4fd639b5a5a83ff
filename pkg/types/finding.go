// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Category labels a finding with one entry from the fixed vocabulary used
// to partition downloaded papers on disk.
type Category string

const (
	CategoryDefinitions Category = "definitions"
	CategoryBehaviors   Category = "behaviors"
	CategoryMeasurement Category = "measurement"
)

// Categories is the fixed category vocabulary in storage order.
var Categories = []Category{CategoryDefinitions, CategoryBehaviors, CategoryMeasurement}

// ValidCategory reports whether c belongs to the fixed vocabulary.
func ValidCategory(c Category) bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Finding is one atomic insight extracted from a candidate's abstract.
// Multiple findings may reference the same candidate; findings never
// mutate the candidate they reference.
type Finding struct {
	// CandidateID references the originating candidate's ExternalID.
	CandidateID string `json:"candidate_id" yaml:"candidate_id"`

	// Text is the extracted insight in the model's words.
	Text string `json:"text" yaml:"text"`

	// Category is the vocabulary label assigned by the extractor.
	Category Category `json:"category" yaml:"category"`

	// Modality is an optional interaction-modality sub-tag
	// (e.g. "speech", "gesture"). Empty when not applicable.
	Modality string `json:"modality,omitempty" yaml:"modality,omitempty"`
}

// DownloadStatus is the terminal outcome of one candidate's PDF fetch.
type DownloadStatus string

const (
	DownloadOK     DownloadStatus = "ok"
	DownloadFailed DownloadStatus = "failed"
)

// DownloadResult records the outcome of fetching one candidate's PDF.
// Terminal: the downloader never retries beyond its configured attempts.
type DownloadResult struct {
	// CandidateID references the candidate's ExternalID.
	CandidateID string `json:"candidate_id" yaml:"candidate_id"`

	// Status is "ok" or "failed".
	Status DownloadStatus `json:"status" yaml:"status"`

	// StoredPath is the category-partitioned path of the PDF, empty on failure.
	StoredPath string `json:"stored_path,omitempty" yaml:"stored_path,omitempty"`

	// Error holds the failure detail, empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Bytes is the size of the stored file, 0 on failure.
	Bytes int64 `json:"bytes" yaml:"bytes"`
}

// IndexEntry is one finding in the final index, cross-referenced to its
// candidate and, when the download succeeded, its stored PDF.
type IndexEntry struct {
	Finding `yaml:",inline"`

	// Title is the originating candidate's title, denormalized for readability.
	Title string `json:"title" yaml:"title"`

	// Year is the originating candidate's publication year.
	Year int `json:"year" yaml:"year"`

	// StoredPath points at the downloaded PDF. Absent when the download
	// failed or never ran; the finding stays in the index regardless.
	StoredPath string `json:"stored_path,omitempty" yaml:"stored_path,omitempty"`
}

// Summary holds the per-stage counters reported at the end of a run.
type Summary struct {
	QueriesGenerated int `json:"queries_generated" yaml:"queries_generated"`
	CandidatesFound  int `json:"candidates_found" yaml:"candidates_found"`
	Screened         int `json:"screened" yaml:"screened"`
	Accepted         int `json:"accepted" yaml:"accepted"`
	FindingsTotal    int `json:"findings_total" yaml:"findings_total"`
	Downloaded       int `json:"downloaded" yaml:"downloaded"`
	DownloadFailures int `json:"download_failures" yaml:"download_failures"`

	// PerCategory counts findings by category label.
	PerCategory map[Category]int `json:"per_category" yaml:"per_category"`

	// BackendErrors records search backend failures ("backend: error") so
	// one backend's outage stays visible in the run report.
	BackendErrors []string `json:"backend_errors,omitempty" yaml:"backend_errors,omitempty"`
}

// FindingsIndex is the final pipeline output: findings grouped by category
// (and modality sub-tag), cross-referenced to candidates and stored PDFs.
// Built once by the organizer, read-only thereafter.
type FindingsIndex struct {
	// ByCategory groups index entries under their category label.
	ByCategory map[Category][]IndexEntry `json:"by_category" yaml:"by_category"`

	// ByModality groups entries carrying a modality sub-tag.
	ByModality map[string][]IndexEntry `json:"by_modality,omitempty" yaml:"by_modality,omitempty"`

	// Summary holds the run counters.
	Summary Summary `json:"summary" yaml:"summary"`
}
