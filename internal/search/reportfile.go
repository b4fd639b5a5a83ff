// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// ReportFile is the on-disk representation of one search pass: the queries
// issued, the aggregated candidates, and discovery statistics. The
// researcher can save a search to a file and reload it later without
// re-querying APIs.
type ReportFile struct {
	Queries    []types.Query     `yaml:"queries"`
	Candidates []types.Candidate `yaml:"candidates"`
	Summary    ReportSummary     `yaml:"summary"`
}

// ReportSummary stores search statistics and a timestamp.
type ReportSummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	Truncated         int       `yaml:"truncated,omitempty"`
	BackendErrors     []string  `yaml:"backend_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteReportFile saves the queries and aggregated candidates to a YAML file.
func WriteReportFile(path string, queries []types.Query, out Output) error {
	rf := ReportFile{
		Queries:    queries,
		Candidates: out.Candidates,
		Summary: ReportSummary{
			Total:             len(out.Candidates),
			DuplicatesRemoved: out.DupsRemoved,
			Truncated:         out.Truncated,
			BackendErrors:     out.BackendErrors,
			Timestamp:         time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(rf)
	if err != nil {
		return fmt.Errorf("marshaling report file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}
	return nil
}

// ReadReportFile loads a previously saved search report.
func ReadReportFile(path string) (*ReportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report file: %w", err)
	}
	var rf ReportFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing report file: %w", err)
	}
	return &rf, nil
}
