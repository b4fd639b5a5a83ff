// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package run manages per-invocation data directories. Every pipeline
// invocation gets its own timestamped directory under <data>/runs/ so
// artifacts from different runs never collide, and a "latest" pointer
// file records the most recent run id for the query commands.
package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Subdirectories created inside every run directory.
const (
	QueriesDir  = "queries"
	SearchDir   = "search"
	ScreenDir   = "screening"
	FindingsDir = "findings"
	PapersDir   = "papers"
)

const latestFile = "latest"

// Metadata describes one run. Stored as metadata.json at the run root.
type Metadata struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
	Scenario  string    `json:"scenario,omitempty"`
}

// Run statuses recorded in metadata.
const (
	StatusInitialized = "initialized"
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusCancelled   = "cancelled"
)

// Store holds the runs root and hands out run directories.
type Store struct {
	runsDir string
}

// NewStore creates the runs directory under dataDir if needed.
func NewStore(dataDir string) (*Store, error) {
	runsDir := filepath.Join(dataDir, "runs")
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating runs directory: %w", err)
	}
	return &Store{runsDir: runsDir}, nil
}

// Dir is one run's directory on disk.
type Dir struct {
	ID   string
	Path string
}

// Create allocates a fresh run directory named by timestamp plus a short
// random suffix, so two runs started in the same second cannot collide.
func (s *Store) Create(scenario string) (*Dir, error) {
	id := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(s.runsDir, id)

	for _, sub := range []string{QueriesDir, SearchDir, ScreenDir, FindingsDir, PapersDir} {
		if err := os.MkdirAll(filepath.Join(path, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating run directory: %w", err)
		}
	}

	d := &Dir{ID: id, Path: path}
	meta := Metadata{
		RunID:     id,
		CreatedAt: time.Now().UTC(),
		Status:    StatusInitialized,
		Scenario:  scenario,
	}
	if err := d.WriteJSON("metadata.json", meta); err != nil {
		return nil, err
	}
	if err := s.setLatest(id); err != nil {
		return nil, err
	}
	return d, nil
}

// Open returns an existing run directory by id, or the most recent run
// when id is empty.
func (s *Store) Open(id string) (*Dir, error) {
	if id == "" {
		latest, err := s.Latest()
		if err != nil {
			return nil, err
		}
		id = latest
	}
	path := filepath.Join(s.runsDir, id)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("run %s not found: %w", id, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("run %s is not a directory", id)
	}
	return &Dir{ID: id, Path: path}, nil
}

// Latest reads the latest-run pointer.
func (s *Store) Latest() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.runsDir, latestFile))
	if err != nil {
		return "", fmt.Errorf("no runs recorded yet: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Store) setLatest(id string) error {
	return writeAtomic(filepath.Join(s.runsDir, latestFile), []byte(id+"\n"))
}

// List returns the metadata of all runs, newest first. Runs with
// unreadable metadata are skipped.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.runsDir)
	if err != nil {
		return nil, fmt.Errorf("reading runs directory: %w", err)
	}

	var runs []Metadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.runsDir, e.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta Metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// Prune deletes all but the newest keep runs.
func (s *Store) Prune(keep int) error {
	runs, err := s.List()
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	for _, meta := range runs[min(keep, len(runs)):] {
		if err := os.RemoveAll(filepath.Join(s.runsDir, meta.RunID)); err != nil {
			return fmt.Errorf("pruning run %s: %w", meta.RunID, err)
		}
	}
	return nil
}

// SetStatus rewrites the run's metadata with a new status.
func (d *Dir) SetStatus(status string) error {
	data, err := os.ReadFile(filepath.Join(d.Path, "metadata.json"))
	if err != nil {
		return fmt.Errorf("reading run metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("parsing run metadata: %w", err)
	}
	meta.Status = status
	return d.WriteJSON("metadata.json", meta)
}

// Join resolves a path inside the run directory.
func (d *Dir) Join(elem ...string) string {
	return filepath.Join(append([]string{d.Path}, elem...)...)
}

// WriteJSON marshals v with indentation and writes it atomically at the
// given run-relative path.
func (d *Dir) WriteJSON(rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", rel, err)
	}
	return d.WriteBytes(rel, append(data, '\n'))
}

// ReadJSON reads a run-relative JSON file into v.
func (d *Dir) ReadJSON(rel string, v any) error {
	data, err := os.ReadFile(d.Join(rel))
	if err != nil {
		return fmt.Errorf("reading %s: %w", rel, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", rel, err)
	}
	return nil
}

// WriteBytes writes data atomically at the given run-relative path.
func (d *Dir) WriteBytes(rel string, data []byte) error {
	return writeAtomic(d.Join(rel), data)
}

// writeAtomic writes to a temp file in the target's directory and
// renames it into place, so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
