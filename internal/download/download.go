// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches PDFs for accepted candidates into a
// category-partitioned store. Each candidate is stored once, under its
// dominant finding category; a failed download is recorded and never
// leaves a partial file behind.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PayneLeee/EmpathyScale/pkg/types"
)

const (
	defaultMaxDownloads  = 50
	defaultRetryAttempts = 1
	defaultRetryDelay    = time.Second
	defaultConcurrency   = 4
)

// Progress is called after each candidate's download finishes, success or not.
type Progress func(done, total int)

// target pairs a candidate with its storage assignment.
type target struct {
	cand     types.Candidate
	category types.Category
	seq      int
}

// Download fetches the PDF for every candidate that has at least one
// finding — or every accepted candidate when no findings exist — capped at
// cfg.MaxDownloads. Files land at <baseDir>/<category>/paper_<seq>_<year>.pdf
// via a temp-file-then-rename publish, so a failure at any point leaves
// nothing at the target path. One DownloadResult is returned per attempted
// candidate, in target order.
func Download(ctx context.Context, client *http.Client, accepted []types.ScoredCandidate, findings []types.Finding, cfg types.DownloadConfig, baseDir string, w io.Writer, progress Progress) []types.DownloadResult {
	targets := assignTargets(accepted, findings, cfg.MaxDownloads)

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	results := make([]types.DownloadResult, len(targets))
	var done atomic.Int64

	g := &errgroup.Group{}
	g.SetLimit(concurrency)
	for i, tg := range targets {
		g.Go(func() error {
			results[i] = fetchOne(ctx, client, tg, cfg, baseDir, w)
			if progress != nil {
				progress(int(done.Add(1)), len(targets))
			}
			return nil
		})
	}
	g.Wait()

	return results
}

// assignTargets picks the candidates to download and assigns each its
// dominant category and sequence number. The dominant category is the
// first finding's category for that candidate; a candidate with findings
// in several categories is still stored exactly once. When no findings
// exist at all (extraction skipped), every accepted candidate is assigned
// a category round-robin over the vocabulary.
func assignTargets(accepted []types.ScoredCandidate, findings []types.Finding, max int) []target {
	if max <= 0 {
		max = defaultMaxDownloads
	}

	dominant := make(map[string]types.Category)
	for _, f := range findings {
		if _, ok := dominant[f.CandidateID]; !ok {
			dominant[f.CandidateID] = f.Category
		}
	}

	var targets []target
	for i, sc := range accepted {
		category, ok := dominant[sc.ExternalID]
		if !ok {
			if len(findings) > 0 {
				continue // extraction ran but found nothing here
			}
			category = types.Categories[i%len(types.Categories)]
		}
		targets = append(targets, target{cand: sc.Candidate, category: category, seq: len(targets) + 1})
		if len(targets) == max {
			break
		}
	}
	return targets
}

// fetchOne resolves the locator, downloads with retry, and records the outcome.
func fetchOne(ctx context.Context, client *http.Client, tg target, cfg types.DownloadConfig, baseDir string, w io.Writer) types.DownloadResult {
	result := types.DownloadResult{CandidateID: tg.cand.ExternalID, Status: types.DownloadFailed}

	locator := resolveLocator(tg.cand)
	if locator == "" {
		result.Error = "no PDF locator"
		fmt.Fprintf(w, "failed:  %s (no PDF locator)\n", tg.cand.ExternalID)
		return result
	}

	destPath := filepath.Join(baseDir, string(tg.category), filename(tg))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		result.Error = fmt.Sprintf("creating category directory: %v", err)
		return result
	}

	size, err := fetchWithRetry(ctx, client, locator, destPath, cfg, w)
	if err != nil {
		result.Error = err.Error()
		fmt.Fprintf(w, "failed:  %s (%v)\n", tg.cand.ExternalID, err)
		return result
	}

	result.Status = types.DownloadOK
	result.StoredPath = destPath
	result.Bytes = size
	fmt.Fprintf(w, "downloaded: %s/%s (%d bytes)\n", tg.category, filepath.Base(destPath), size)
	return result
}

// filename builds the stored name: paper_<seq>_<year>.pdf, with "unknown"
// standing in for a missing year.
func filename(tg target) string {
	year := "unknown"
	if tg.cand.Year > 0 {
		year = fmt.Sprintf("%d", tg.cand.Year)
	}
	return fmt.Sprintf("paper_%02d_%s.pdf", tg.seq, year)
}

// fetchWithRetry downloads once, then retries after cfg.RetryDelay on a
// transient failure. Permanent failures (4xx) return immediately.
func fetchWithRetry(ctx context.Context, client *http.Client, url, destPath string, cfg types.DownloadConfig, w io.Writer) (int64, error) {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var lastErr error
	for attempt := 0; attempt <= attempts; attempt++ {
		if attempt > 0 {
			fmt.Fprintf(w, "retrying: %s (attempt %d/%d)\n", url, attempt, attempts)
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		size, err := fetchFile(ctx, client, url, destPath, cfg)
		if err == nil {
			return size, nil
		}
		lastErr = err
		if !isTransient(err) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("after %d attempts: %w", attempts+1, lastErr)
}

// httpStatusError marks a non-200 response so retry classification can
// distinguish server-side failures from client-side ones.
type httpStatusError struct {
	code int
	url  string
}

func (e httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.code, e.url)
}

// isTransient reports whether the download failure is worth one retry:
// network errors, timeouts, HTTP 429 and 5xx.
func isTransient(err error) bool {
	var statusErr httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.code == http.StatusTooManyRequests || statusErr.code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// fetchFile downloads url to destPath using a temporary file in the target
// directory, renamed into place only after a complete write. A failure
// anywhere removes the temp file, so no truncated PDF is ever observable
// at destPath.
func fetchFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.DownloadConfig) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, httpStatusError{code: resp.StatusCode, url: url}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	size, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return size, nil
}
