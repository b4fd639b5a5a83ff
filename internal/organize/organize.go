// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package organize assembles the final findings index. Pure aggregation:
// no network, no model calls, deterministic for a given input.
package organize

import (
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// Build groups findings by category and modality, attaches stored paths
// from matching download results, and fills in the remaining summary
// counters. The base summary carries the counters only earlier stages
// know (queries generated, candidates found, screened, accepted, backend
// errors). Build never mutates its inputs; calling it twice on the same
// inputs produces an identical index.
func Build(accepted []types.ScoredCandidate, findings []types.Finding, downloads []types.DownloadResult, base types.Summary) types.FindingsIndex {
	titles := make(map[string]types.Candidate, len(accepted))
	for _, sc := range accepted {
		titles[sc.ExternalID] = sc.Candidate
	}

	stored := make(map[string]string, len(downloads))
	for _, d := range downloads {
		if d.Status == types.DownloadOK {
			stored[d.CandidateID] = d.StoredPath
		}
	}

	index := types.FindingsIndex{
		ByCategory: make(map[types.Category][]types.IndexEntry),
		ByModality: make(map[string][]types.IndexEntry),
	}

	summary := base
	summary.PerCategory = make(map[types.Category]int)
	summary.FindingsTotal = len(findings)

	for _, f := range findings {
		entry := types.IndexEntry{Finding: f}
		if cand, ok := titles[f.CandidateID]; ok {
			entry.Title = cand.Title
			entry.Year = cand.Year
		}
		// A failed or absent download leaves StoredPath empty; the
		// finding stays in the index regardless.
		entry.StoredPath = stored[f.CandidateID]

		index.ByCategory[f.Category] = append(index.ByCategory[f.Category], entry)
		summary.PerCategory[f.Category]++
		if f.Modality != "" {
			index.ByModality[f.Modality] = append(index.ByModality[f.Modality], entry)
		}
	}

	for _, d := range downloads {
		if d.Status == types.DownloadOK {
			summary.Downloaded++
		} else {
			summary.DownloadFailures++
		}
	}

	index.Summary = summary
	return index
}
