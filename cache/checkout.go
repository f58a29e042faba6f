package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkout materializes a working tree for (url, ref) and returns its cache
// path. Previously materialized checkouts are returned without touching the
// network; fetch controls whether a named branch is refreshed from the
// remote before resolution. Submodules are resolved recursively into their
// own cache entries and linked into the parent tree; they are always pinned
// to the exact commit the parent records and never fetched.
//
// The returned directory is immutable and owned by the cache. Callers should
// link to it rather than write into it.
func (c *Cache) Checkout(ctx context.Context, url, ref string, fetch bool) (string, error) {
	seen := make(map[string]struct{})
	return c.checkout(ctx, url, ref, fetch, seen)
}

// checkout is one level of the recursive materialization. seen is keyed by
// final checkout path and guards repeated submodules within a single run;
// true cycles cannot occur since a submodule commit cannot reference its
// parent's working state.
func (c *Cache) checkout(ctx context.Context, url, ref string, fetch bool, seen map[string]struct{}) (string, error) {
	// Fast-path alias: a prior run materialized this ref directly, which can
	// only happen when the ref was already a full commit id.
	if aliasPath := c.checkoutPath(url, ref); dirExists(aliasPath) {
		seen[aliasPath] = struct{}{}
		c.index.touch(digest(url + "@" + ref))
		return aliasPath, nil
	}

	metaPath, err := c.metadataRepo(ctx, url)
	if err != nil {
		return "", err
	}

	commit, err := c.resolveRef(ctx, metaPath, url, ref, fetch)
	if err != nil {
		return "", err
	}

	final := c.checkoutPath(url, commit)
	if _, ok := seen[final]; ok {
		return final, nil
	}
	if dirExists(final) {
		seen[final] = struct{}{}
		c.index.touch(digest(url + "@" + commit))
		return final, nil
	}

	c.log.Info("checking out", "ref", ref, "commit", commit, "url", url)

	if err := c.materialize(ctx, metaPath, url, commit, final, seen); err != nil {
		return "", err
	}
	seen[final] = struct{}{}

	now := time.Now()
	c.index.record(digest(url+"@"+commit), &Entry{
		URL:        url,
		Ref:        ref,
		Commit:     commit,
		Digest:     digest(url + "@" + commit),
		CreatedAt:  now,
		LastAccess: now,
	})
	if err := c.index.save(c.fs, c.indexPath); err != nil {
		return "", err
	}

	return final, nil
}

// materialize populates the checkout entry for commit at final. The working
// tree is cloned from the local metadata entry (never a second network round
// trip for data already present), submodules are linked in, and only then is
// the tree renamed into its key path. A published entry therefore always
// reflects the pinned commit plus a fully recursive submodule layout.
func (c *Cache) materialize(ctx context.Context, metaPath, url, commit, final string, seen map[string]struct{}) error {
	tmp, err := os.MkdirTemp(c.checkoutDir, filepath.Base(final)+".partial-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	if _, err := c.git.Run(ctx, "clone", "--no-checkout", metaPath, tmp); err != nil {
		return fmt.Errorf("failed to clone from metadata repository: %w", err)
	}
	if _, err := c.git.WithDir(tmp).Run(ctx, "checkout", "--detach", commit); err != nil {
		return fmt.Errorf("failed to check out commit %s: %w", commit, err)
	}

	submodules, err := c.listSubmodules(ctx, metaPath, tmp, commit)
	if err != nil {
		return err
	}

	for _, sub := range submodules {
		subPath, err := c.checkout(ctx, sub.URL, sub.Commit, false, seen)
		if err != nil {
			return fmt.Errorf("failed to check out submodule %q: %w", sub.Name, err)
		}
		// Force replaces the empty directory git leaves at gitlink paths.
		if err := c.Link(filepath.Join(tmp, sub.Path), subPath, true); err != nil {
			return fmt.Errorf("failed to link submodule %q: %w", sub.Name, err)
		}
	}

	return renameIntoPlace(tmp, final)
}
