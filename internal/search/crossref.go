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

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// CrossrefBackend queries the Crossref REST API.
type CrossrefBackend struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the backend identifier.
func (b *CrossrefBackend) Name() string { return "crossref" }

// Search queries Crossref and returns candidates in native relevance
// order. Crossref carries no abstract or PDF locator for most works;
// downloads for its candidates resolve via DOI.
func (b *CrossrefBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty Crossref query")
	}

	maxResults := cfg.MaxPerBackend
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"query": {query},
		"rows":  {fmt.Sprintf("%d", maxResults)},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}
	reqURL := crossrefAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	var candidates []types.Candidate
	for _, item := range cr.Message.Items {
		if item.DOI == "" {
			continue
		}
		c := types.Candidate{
			ExternalID: item.DOI,
			Title:      strings.Join(item.Title, " "),
			Backend:    "crossref",
			Year:       item.year(),
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	Items []crossrefItem `json:"items"`
}

type crossrefItem struct {
	DOI            string       `json:"DOI"`
	Title          []string     `json:"title"`
	PublishedPrint crossrefDate `json:"published-print"`
	PublishedOnl   crossrefDate `json:"published-online"`
}

type crossrefDate struct {
	// DateParts is [[year, month, day]]; later parts may be absent.
	DateParts [][]int `json:"date-parts"`
}

// year returns the publication year, preferring the print date, 0 when
// neither date carries one.
func (i crossrefItem) year() int {
	for _, d := range []crossrefDate{i.PublishedPrint, i.PublishedOnl} {
		if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
			return d.DateParts[0][0]
		}
	}
	return 0
}
