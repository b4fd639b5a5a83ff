// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/http"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

// Enabled builds the backend list from the configuration flags. The same
// HTTP client is shared across backends; its timeout bounds every call.
func Enabled(cfg types.SearchConfig, client *http.Client) []Backend {
	var backends []Backend
	if cfg.EnableArxiv {
		backends = append(backends, &ArxivBackend{Client: client})
	}
	if cfg.EnableSemanticScholar {
		backends = append(backends, &SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableOpenAlex {
		backends = append(backends, &OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail})
	}
	if cfg.EnablePubMed {
		backends = append(backends, &PubMedBackend{Client: client})
	}
	if cfg.EnableCrossref {
		backends = append(backends, &CrossrefBackend{Client: client, Email: cfg.OpenAlexEmail})
	}
	return backends
}
