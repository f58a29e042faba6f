package cache

import (
	"context"
	"fmt"
	"os"
)

// metadataRepo returns the path of the no-checkout clone for url, cloning it
// on first access. The clone is the local source of truth for ref resolution
// and object data; it is never used as a working tree.
//
// The clone is populated into a temporary sibling and renamed into the key
// path only on success, so an existing directory is always a complete clone
// even if an earlier run was interrupted.
func (c *Cache) metadataRepo(ctx context.Context, url string) (string, error) {
	path := c.metadataPath(url)
	if dirExists(path) {
		return path, nil
	}

	c.log.Info("cloning metadata repository", "url", url)

	tmp, err := os.MkdirTemp(c.metadataDir, digest(url)+".partial-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	if _, err := c.git.Run(ctx, "clone", "--no-checkout", url, tmp); err != nil {
		return "", fmt.Errorf("failed to clone metadata repository for %s: %w", url, err)
	}

	if err := renameIntoPlace(tmp, path); err != nil {
		return "", err
	}
	return path, nil
}
