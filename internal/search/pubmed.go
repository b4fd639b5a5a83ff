// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PayneLeee/EmpathyScale/internal/httputil"
	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// pubmedAPIBase is the NCBI E-utilities root. Declared as a var so tests
// can substitute an httptest server serving both endpoints.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// pubmedMaxIDs caps the esearch retmax; efetch takes the ID list in one
// comma-joined request.
const pubmedMaxIDs = 100

// PubMedBackend queries the NCBI E-utilities. PubMed search is two-step:
// esearch returns PMIDs, efetch returns article XML for those PMIDs.
type PubMedBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return "pubmed" }

// Search queries PubMed and returns candidates in native relevance order.
// PubMed supplies no PDF locator; downloads for its candidates resolve
// via DOI or not at all.
func (b *PubMedBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}

	maxResults := cfg.MaxPerBackend
	if maxResults <= 0 {
		maxResults = 20
	}
	if maxResults > pubmedMaxIDs {
		maxResults = pubmedMaxIDs
	}

	pmids, err := b.searchIDs(ctx, query, maxResults, cfg)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return nil, nil
	}
	return b.fetchArticles(ctx, pmids, cfg)
}

// searchIDs runs the esearch step and returns PMIDs in relevance order.
func (b *PubMedBackend) searchIDs(ctx context.Context, query string, maxResults int, cfg types.SearchConfig) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {fmt.Sprintf("%d", maxResults)},
		"retmode": {"json"},
	}
	reqURL := pubmedAPIBase + "/esearch.fcgi?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubMed esearch returned HTTP %d", resp.StatusCode)
	}

	var sr pubmedSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing PubMed esearch response: %w", err)
	}
	return sr.Result.IDList, nil
}

// fetchArticles runs the efetch step for the given PMIDs and parses the
// article XML into candidates.
func (b *PubMedBackend) fetchArticles(ctx context.Context, pmids []string, cfg types.SearchConfig) ([]types.Candidate, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"xml"},
	}
	reqURL := pubmedAPIBase + "/efetch.fcgi?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed efetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubMed efetch returned HTTP %d", resp.StatusCode)
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing PubMed efetch response: %w", err)
	}

	var candidates []types.Candidate
	for _, article := range set.Articles {
		if article.PMID == "" {
			continue
		}
		c := types.Candidate{
			ExternalID: article.PMID,
			Title:      strings.TrimSpace(article.Title),
			Abstract:   strings.TrimSpace(strings.Join(article.Abstract, " ")),
			Backend:    "pubmed",
		}
		if y, convErr := strconv.Atoi(article.Year); convErr == nil {
			c.Year = y
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// PubMed E-utilities structures.
type pubmedSearchResponse struct {
	Result pubmedSearchResult `json:"esearchresult"`
}

type pubmedSearchResult struct {
	IDList []string `json:"idlist"`
}

type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID     string   `xml:"MedlineCitation>PMID"`
	Title    string   `xml:"MedlineCitation>Article>ArticleTitle"`
	Abstract []string `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	Year     string   `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Year"`
}
