// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package run

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMakesRunLayout(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	d, err := store.Create("hospital companion")
	require.NoError(t, err)

	for _, sub := range []string{QueriesDir, SearchDir, ScreenDir, FindingsDir, PapersDir} {
		info, err := os.Stat(d.Join(sub))
		require.NoError(t, err, sub)
		assert.True(t, info.IsDir())
	}

	var meta Metadata
	require.NoError(t, d.ReadJSON("metadata.json", &meta))
	assert.Equal(t, d.ID, meta.RunID)
	assert.Equal(t, StatusInitialized, meta.Status)
	assert.Equal(t, "hospital companion", meta.Scenario)
}

func TestCreateUpdatesLatest(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Create("")
	require.NoError(t, err)
	second, err := store.Create("")
	require.NoError(t, err)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestOpenEmptyIDResolvesLatest(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	created, err := store.Create("")
	require.NoError(t, err)

	opened, err := store.Open("")
	require.NoError(t, err)
	assert.Equal(t, created.ID, opened.ID)
	assert.Equal(t, created.Path, opened.Path)
}

func TestOpenMissingRun(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("20990101_000000_deadbeef")
	assert.Error(t, err)
}

func TestSetStatus(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	d, err := store.Create("")
	require.NoError(t, err)
	require.NoError(t, d.SetStatus(StatusCompleted))

	var meta Metadata
	require.NoError(t, d.ReadJSON("metadata.json", &meta))
	assert.Equal(t, StatusCompleted, meta.Status)
}

func TestWriteJSONRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	d, err := store.Create("")
	require.NoError(t, err)

	in := map[string]int{"accepted": 7}
	require.NoError(t, d.WriteJSON(filepath.Join(ScreenDir, "summary.json"), in))

	var out map[string]int
	require.NoError(t, d.ReadJSON(filepath.Join(ScreenDir, "summary.json"), &out))
	assert.Equal(t, in, out)
}

func TestWriteBytesLeavesNoTempFiles(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	d, err := store.Create("")
	require.NoError(t, err)

	require.NoError(t, d.WriteBytes("notes.txt", []byte("hello\n")))

	entries, err := os.ReadDir(d.Path)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".write-"), "temp file left behind: %s", e.Name())
	}
}

func TestListNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	a, err := store.Create("")
	require.NoError(t, err)
	b, err := store.Create("")
	require.NoError(t, err)

	// Force distinct creation times regardless of clock resolution.
	var metaA Metadata
	require.NoError(t, a.ReadJSON("metadata.json", &metaA))
	metaA.CreatedAt = metaA.CreatedAt.Add(-time.Minute)
	require.NoError(t, a.WriteJSON("metadata.json", metaA))

	runs, err := store.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, b.ID, runs[0].RunID)
	assert.Equal(t, a.ID, runs[1].RunID)
}

func TestPruneKeepsNewest(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	old, err := store.Create("")
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, old.ReadJSON("metadata.json", &meta))
	meta.CreatedAt = meta.CreatedAt.Add(-time.Minute)
	require.NoError(t, old.WriteJSON("metadata.json", meta))

	kept, err := store.Create("")
	require.NoError(t, err)

	require.NoError(t, store.Prune(1))

	runs, err := store.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, kept.ID, runs[0].RunID)

	_, err = os.Stat(old.Path)
	assert.True(t, os.IsNotExist(err))
}
