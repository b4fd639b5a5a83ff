// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PayneLeee/EmpathyScale/internal/httputil"
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,year,externalIds,openAccessPdf"

// SemanticScholarBackend queries the Semantic Scholar API.
type SemanticScholarBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search queries the Semantic Scholar API and returns candidates in native
// relevance order. Missing fields are tolerated rather than rejected.
func (b *SemanticScholarBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	maxResults := cfg.MaxPerBackend
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", maxResults)},
		"fields": {semanticFields},
	}
	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var candidates []types.Candidate
	for _, paper := range sr.Data {
		c := types.Candidate{
			Title:    paper.Title,
			Abstract: paper.Abstract,
			Year:     paper.Year,
			Backend:  "semantic_scholar",
			PDFURL:   paper.OpenAccessPDF.URL,
		}

		// Prefer the arXiv ID, then DOI, then the opaque paper ID, so
		// cross-backend dedup has the best chance of matching.
		switch {
		case paper.ExternalIDs.ArXiv != "":
			c.ExternalID = paper.ExternalIDs.ArXiv
		case paper.ExternalIDs.DOI != "":
			c.ExternalID = paper.ExternalIDs.DOI
		default:
			c.ExternalID = paper.PaperID
		}

		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
	OpenAccessPDF semanticPDF         `json:"openAccessPdf"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

type semanticPDF struct {
	URL string `json:"url"`
}
