package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const indexVersion = "1"

// Entry records one completed checkout. The directory itself is the source
// of truth for existence; the index adds the provenance a content-addressed
// path no longer shows (which URL and ref produced which digest), for
// reporting and future cleanup tooling.
type Entry struct {
	URL        string    `json:"url"`
	Ref        string    `json:"ref"`
	Commit     string    `json:"commit"`
	Digest     string    `json:"digest"`
	CreatedAt  time.Time `json:"created_at"`
	LastAccess time.Time `json:"last_access"`
}

// cacheIndex is the JSON manifest of completed checkouts, keyed by entry
// digest. Access is thread-safe; persistence is atomic (write-temp, rename).
type cacheIndex struct {
	Version   string            `json:"version"`
	Checkouts map[string]*Entry `json:"checkouts"`
	mu        sync.RWMutex
}

// loadOrCreateIndex loads the index from disk, or returns a fresh empty one
// if no index file exists. A corrupt or version-mismatched file is an error.
func loadOrCreateIndex(fs billy.Filesystem, path string) (*cacheIndex, error) {
	if _, err := fs.Stat(path); os.IsNotExist(err) {
		return &cacheIndex{
			Version:   indexVersion,
			Checkouts: make(map[string]*Entry),
		}, nil
	}

	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var index cacheIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}

	if index.Version != indexVersion {
		return nil, fmt.Errorf("unsupported index version: %s (expected %s)", index.Version, indexVersion)
	}

	if index.Checkouts == nil {
		index.Checkouts = make(map[string]*Entry)
	}

	return &index, nil
}

// save writes the index to disk atomically.
func (idx *cacheIndex) save(fs billy.Filesystem, path string) error {
	idx.mu.RLock()
	data, err := json.MarshalIndent(idx, "", "  ")
	idx.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := util.WriteFile(fs, tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary index file: %w", err)
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename index file: %w", err)
	}
	return nil
}

// record registers a newly completed checkout.
func (idx *cacheIndex) record(key string, entry *Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.Checkouts[key] = entry
}

// touch updates the last-access time for an existing entry, if recorded.
func (idx *cacheIndex) touch(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if entry, ok := idx.Checkouts[key]; ok {
		entry.LastAccess = time.Now()
	}
}

// list returns all entries ordered by creation time.
func (idx *cacheIndex) list() []*Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entries := make([]*Entry, 0, len(idx.Checkouts))
	for _, entry := range idx.Checkouts {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries
}
