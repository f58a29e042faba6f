package cache

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/Darianopolis/git-cache/gitx"
)

// Cache is a content-addressed cache of git checkouts rooted at a single
// directory. All configuration is carried explicitly; there is no process
// global state, so multiple caches with distinct roots can coexist.
type Cache struct {
	root        string
	metadataDir string
	checkoutDir string
	indexPath   string

	git   gitx.Executor
	fs    billy.Filesystem // index I/O only
	index *cacheIndex
	log   *slog.Logger
}

// Option configures Cache creation.
type Option func(*options)

type options struct {
	git gitx.Executor
	fs  billy.Filesystem
	log *slog.Logger
}

// WithExecutor sets the git executor. Defaults to a subprocess executor
// invoking "git" from PATH.
func WithExecutor(git gitx.Executor) Option {
	return func(o *options) {
		o.git = git
	}
}

// WithFilesystem sets the billy filesystem used for index persistence.
// Defaults to the local filesystem. Primarily useful for testing with memfs.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New creates a cache rooted at root, creating the metadata/ and checkout/
// subtrees if needed and loading the checkout index.
func New(root string, opts ...Option) (*Cache, error) {
	if root == "" {
		return nil, fmt.Errorf("cache root must not be empty")
	}

	o := &options{
		git: gitx.New(),
		fs:  osfs.New("/"),
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache root: %w", err)
	}
	// Canonicalize so symlink-boundary checks compare resolved paths.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	c := &Cache{
		root:        abs,
		metadataDir: filepath.Join(abs, "metadata"),
		checkoutDir: filepath.Join(abs, "checkout"),
		indexPath:   filepath.Join(abs, "index.json"),
		git:         o.git,
		fs:          o.fs,
		log:         o.log,
	}

	if err := os.MkdirAll(c.metadataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}
	if err := os.MkdirAll(c.checkoutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkout directory: %w", err)
	}

	index, err := loadOrCreateIndex(c.fs, c.indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	c.index = index

	return c, nil
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Stats describes the current contents of the cache.
type Stats struct {
	MetadataRepos  int   // Number of metadata clones
	Checkouts      int   // Number of completed checkout entries
	MetadataSize   int64 // Disk usage of metadata/, in bytes
	CheckoutsSize  int64 // Disk usage of checkout/, in bytes
	TotalSize      int64
	OldestCheckout *time.Time
	NewestCheckout *time.Time
}

// Stats reports entry counts, disk usage, and entry age bounds.
func (c *Cache) Stats() (*Stats, error) {
	stats := &Stats{}

	metaEntries, err := os.ReadDir(c.metadataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata directory: %w", err)
	}
	for _, e := range metaEntries {
		if e.IsDir() {
			stats.MetadataRepos++
		}
	}

	stats.Checkouts = len(c.index.list())

	if size, err := dirSize(c.metadataDir); err == nil {
		stats.MetadataSize = size
	}
	if size, err := dirSize(c.checkoutDir); err == nil {
		stats.CheckoutsSize = size
	}
	stats.TotalSize = stats.MetadataSize + stats.CheckoutsSize

	for _, entry := range c.index.list() {
		if stats.OldestCheckout == nil || entry.CreatedAt.Before(*stats.OldestCheckout) {
			t := entry.CreatedAt
			stats.OldestCheckout = &t
		}
		if stats.NewestCheckout == nil || entry.CreatedAt.After(*stats.NewestCheckout) {
			t := entry.CreatedAt
			stats.NewestCheckout = &t
		}
	}

	return stats, nil
}

// Entries returns the completed checkouts recorded in the index.
func (c *Cache) Entries() []*Entry {
	return c.index.list()
}

// dirSize sums file sizes under dir without following symlinks, so shared
// checkout data linked from multiple places is counted once.
func dirSize(dir string) (int64, error) {
	var size int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// dirExists reports whether path exists as a directory. Entries are renamed
// into place only after full population, so existence implies completeness.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// renameIntoPlace atomically publishes tmp at final. If a concurrent
// populator won the race, tmp is discarded and the winner's entry is used.
func renameIntoPlace(tmp, final string) error {
	if err := os.Rename(tmp, final); err != nil {
		if dirExists(final) {
			_ = os.RemoveAll(tmp)
			return nil
		}
		return fmt.Errorf("failed to finalize %s: %w", final, err)
	}
	return nil
}
