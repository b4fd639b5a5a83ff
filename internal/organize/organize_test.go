// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package organize

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

func fixtures() ([]types.ScoredCandidate, []types.Finding, []types.DownloadResult) {
	accepted := []types.ScoredCandidate{
		{Candidate: types.Candidate{ExternalID: "id-1", Title: "Paper One", Year: 2022}, Score: 5},
		{Candidate: types.Candidate{ExternalID: "id-2", Title: "Paper Two", Year: 2023}, Score: 4},
	}
	findings := []types.Finding{
		{CandidateID: "id-1", Text: "Empathy is affect sharing.", Category: types.CategoryDefinitions},
		{CandidateID: "id-1", Text: "Speech mirroring helps.", Category: types.CategoryBehaviors, Modality: "speech"},
		{CandidateID: "id-2", Text: "A validated scale exists.", Category: types.CategoryMeasurement},
	}
	downloads := []types.DownloadResult{
		{CandidateID: "id-1", Status: types.DownloadOK, StoredPath: "definitions/paper_01_2022.pdf", Bytes: 1024},
		{CandidateID: "id-2", Status: types.DownloadFailed, Error: "HTTP 502"},
	}
	return accepted, findings, downloads
}

func TestBuildGroupsByCategory(t *testing.T) {
	accepted, findings, downloads := fixtures()

	index := Build(accepted, findings, downloads, types.Summary{CandidatesFound: 10, Screened: 10, Accepted: 2})

	require.Len(t, index.ByCategory[types.CategoryDefinitions], 1)
	require.Len(t, index.ByCategory[types.CategoryBehaviors], 1)
	require.Len(t, index.ByCategory[types.CategoryMeasurement], 1)

	def := index.ByCategory[types.CategoryDefinitions][0]
	assert.Equal(t, "Paper One", def.Title)
	assert.Equal(t, 2022, def.Year)
	assert.Equal(t, "definitions/paper_01_2022.pdf", def.StoredPath)
}

func TestBuildCrossReferencesSingleStoredCopy(t *testing.T) {
	accepted, findings, downloads := fixtures()

	index := Build(accepted, findings, downloads, types.Summary{})

	// id-1 spans two categories but was stored once; both entries point
	// at the same path.
	beh := index.ByCategory[types.CategoryBehaviors][0]
	def := index.ByCategory[types.CategoryDefinitions][0]
	assert.Equal(t, def.StoredPath, beh.StoredPath)
}

func TestBuildFailedDownloadKeepsFinding(t *testing.T) {
	accepted, findings, downloads := fixtures()

	index := Build(accepted, findings, downloads, types.Summary{})

	meas := index.ByCategory[types.CategoryMeasurement][0]
	assert.Empty(t, meas.StoredPath, "failed download must leave stored_path absent")
	assert.Equal(t, "A validated scale exists.", meas.Text)
}

func TestBuildModalityGrouping(t *testing.T) {
	accepted, findings, downloads := fixtures()

	index := Build(accepted, findings, downloads, types.Summary{})

	require.Len(t, index.ByModality["speech"], 1)
	assert.Equal(t, types.CategoryBehaviors, index.ByModality["speech"][0].Category)
}

func TestBuildSummaryCounters(t *testing.T) {
	accepted, findings, downloads := fixtures()
	base := types.Summary{
		QueriesGenerated: 6,
		CandidatesFound:  40,
		Screened:         40,
		Accepted:         2,
		BackendErrors:    []string{"openalex: HTTP 503"},
	}

	index := Build(accepted, findings, downloads, base)

	s := index.Summary
	assert.Equal(t, 6, s.QueriesGenerated)
	assert.Equal(t, 40, s.CandidatesFound)
	assert.Equal(t, 3, s.FindingsTotal)
	assert.Equal(t, 1, s.Downloaded)
	assert.Equal(t, 1, s.DownloadFailures)
	assert.Equal(t, 1, s.PerCategory[types.CategoryDefinitions])
	assert.Equal(t, []string{"openalex: HTTP 503"}, s.BackendErrors)
}

func TestBuildIsIdempotent(t *testing.T) {
	accepted, findings, downloads := fixtures()
	base := types.Summary{Accepted: 2}

	first := Build(accepted, findings, downloads, base)
	second := Build(accepted, findings, downloads, base)

	if !reflect.DeepEqual(first, second) {
		t.Error("Build must be a pure function of its inputs")
	}
}

func TestBuildEmptyInputs(t *testing.T) {
	index := Build(nil, nil, nil, types.Summary{})

	assert.Empty(t, index.ByCategory)
	assert.Empty(t, index.ByModality)
	assert.Zero(t, index.Summary.FindingsTotal)
}
