// Package cache implements a content-addressed cache of git checkouts.
//
// # Overview
//
// Given a repository URL and a ref (branch, tag, or commit id), the cache
// produces a directory containing exactly that commit's tree, reusing
// previously fetched data wherever possible and resolving submodules
// recursively into the same cache. Submodule paths inside a checkout are
// symlinks to the submodule's own cache entry, so shared subtrees are stored
// once.
//
// # Layout
//
// The cache root contains two content-addressed subtrees plus an index:
//
//	$GIT_CACHE_DIR/
//	├── index.json                       # Manifest of completed checkouts
//	├── metadata/
//	│   └── <sha256(url)>/               # No-checkout clone, one per URL
//	└── checkout/
//	    └── <sha256(url@commit)>/        # Immutable working tree per commit
//
// Digests are computed over the exact URL string; two spellings of the same
// remote are distinct entries. Entries are populated into a temporary sibling
// and renamed into their key path only once complete, so a directory that
// exists is always usable.
//
// # Usage
//
//	c, err := cache.New(os.Getenv("GIT_CACHE_DIR"))
//	if err != nil {
//	    return err
//	}
//
//	path, err := c.Checkout(ctx, "https://github.com/my/repo.git", "main", true)
//	if err != nil {
//	    return err
//	}
//	// Symlink the result where the caller wants it:
//	err = c.Link(destination, path, false)
//
// Callers receive symlinks into the cache and must never write through them.
package cache
