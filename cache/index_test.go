package cache

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateIndex_NewIndex(t *testing.T) {
	fs := memfs.New()

	index, err := loadOrCreateIndex(fs, "/cache/index.json")
	require.NoError(t, err)
	assert.Equal(t, indexVersion, index.Version)
	assert.Empty(t, index.Checkouts)
}

func TestIndex_SaveAndReload(t *testing.T) {
	fs := memfs.New()
	path := "/cache/index.json"

	index, err := loadOrCreateIndex(fs, path)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	index.record("abc", &Entry{
		URL:        "https://host/repo.git",
		Ref:        "main",
		Commit:     testCommit,
		Digest:     "abc",
		CreatedAt:  now,
		LastAccess: now,
	})
	require.NoError(t, index.save(fs, path))

	reloaded, err := loadOrCreateIndex(fs, path)
	require.NoError(t, err)
	require.Len(t, reloaded.Checkouts, 1)

	entry := reloaded.Checkouts["abc"]
	assert.Equal(t, "https://host/repo.git", entry.URL)
	assert.Equal(t, "main", entry.Ref)
	assert.Equal(t, testCommit, entry.Commit)
	assert.True(t, entry.CreatedAt.Equal(now))
}

func TestLoadOrCreateIndex_CorruptFile(t *testing.T) {
	fs := memfs.New()
	path := "/cache/index.json"
	require.NoError(t, util.WriteFile(fs, path, []byte("{not json"), 0o644))

	_, err := loadOrCreateIndex(fs, path)
	require.Error(t, err)
}

func TestLoadOrCreateIndex_VersionMismatch(t *testing.T) {
	fs := memfs.New()
	path := "/cache/index.json"
	require.NoError(t, util.WriteFile(fs, path, []byte(`{"version": "99", "checkouts": {}}`), 0o644))

	_, err := loadOrCreateIndex(fs, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported index version")
}

func TestIndex_TouchUpdatesLastAccess(t *testing.T) {
	index := &cacheIndex{Version: indexVersion, Checkouts: make(map[string]*Entry)}

	old := time.Now().Add(-time.Hour)
	index.record("k", &Entry{Digest: "k", CreatedAt: old, LastAccess: old})

	index.touch("k")
	assert.True(t, index.Checkouts["k"].LastAccess.After(old))

	// Touching an unknown key is a no-op.
	index.touch("missing")
}

func TestIndex_ListOrderedByCreation(t *testing.T) {
	index := &cacheIndex{Version: indexVersion, Checkouts: make(map[string]*Entry)}

	base := time.Now()
	index.record("c", &Entry{Digest: "c", CreatedAt: base.Add(2 * time.Minute)})
	index.record("a", &Entry{Digest: "a", CreatedAt: base})
	index.record("b", &Entry{Digest: "b", CreatedAt: base.Add(time.Minute)})

	entries := index.list()
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Digest)
	assert.Equal(t, "b", entries[1].Digest)
	assert.Equal(t, "c", entries[2].Digest)
}
