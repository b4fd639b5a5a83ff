// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"regexp"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// Base URLs for locator resolution. Declared as vars so tests can
// substitute httptest servers.
var (
	arxivPDFBase = "https://arxiv.org/pdf/"
	doiBase      = "https://doi.org/"
)

// arxivPattern matches arXiv IDs: "2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(?:v\d+)?$`)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// resolveLocator picks the URL to fetch for a candidate: the backend's PDF
// URL when present, else a URL derived from the external identifier. DOI
// resolution relies on the publisher redirect, which may or may not serve
// a PDF; a non-PDF response still counts as a download.
func resolveLocator(c types.Candidate) string {
	if c.PDFURL != "" {
		return c.PDFURL
	}
	if arxivPattern.MatchString(c.ExternalID) {
		return arxivPDFBase + c.ExternalID
	}
	if doiPattern.MatchString(c.ExternalID) {
		return doiBase + c.ExternalID
	}
	return ""
}
