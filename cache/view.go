package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MakeView produces a plain directory tree at dst equivalent in content to
// the checkout at src, for tools that cannot tolerate cache-internal symlink
// boundaries. Submodule symlinks into the checkout cache are "exploded": the
// destination mirrors the submodule's contents as further per-file symlinks,
// so the result looks like one flat ordinary checkout while all file data
// stays shared through links.
//
// Walk rules:
//   - a symlink pointing outside the checkout cache is preserved as-is
//   - a symlink to a directory inside the checkout cache is a submodule
//     boundary; its target's children are replicated in its place
//   - a directory is recreated and its children replicated
//   - a regular file becomes a symlink to the source file (never a copy)
//
// The repository's own .git directory at the root is linked once directly
// rather than replicated.
//
// The view is built in a temporary sibling and renamed into place, so a
// failed run leaves dst untouched. An existing dst is an error unless force
// is set.
func (c *Cache) MakeView(src, dst string, force bool) error {
	if _, err := os.Lstat(dst); err == nil && !force {
		return &LinkConflictError{Path: dst}
	}

	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create view parent directory: %w", err)
	}

	tmp, err := os.MkdirTemp(parent, ".view-partial-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	c.log.Info("materializing view", "source", src, "destination", dst)
	if err := c.replicate(src, tmp, true); err != nil {
		return err
	}

	if _, err := os.Lstat(dst); err == nil {
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to replace existing destination: %w", err)
		}
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("failed to finalize view at %s: %w", dst, err)
	}
	return nil
}

// replicate mirrors the children of src into dst according to the view walk
// rules. root marks the top level of the view, where the .git directory gets
// linked once instead of walked.
func (c *Cache) replicate(src, dst string, root bool) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", src, err)
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dst, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if root && entry.Name() == ".git" {
			if err := os.Symlink(srcPath, dstPath); err != nil {
				return fmt.Errorf("failed to link metadata directory: %w", err)
			}
			continue
		}

		info, err := os.Lstat(srcPath)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", srcPath, err)
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			if err := c.replicateSymlink(srcPath, dstPath); err != nil {
				return err
			}
		case info.IsDir():
			if err := c.replicate(srcPath, dstPath, false); err != nil {
				return err
			}
		default:
			if err := os.Symlink(srcPath, dstPath); err != nil {
				return fmt.Errorf("failed to link file %s: %w", srcPath, err)
			}
		}
	}
	return nil
}

// replicateSymlink handles one symlink entry: submodule boundaries (links to
// directories inside the checkout cache) are expanded in place, anything
// else is preserved with its original target.
func (c *Cache) replicateSymlink(srcPath, dstPath string) error {
	target, err := os.Readlink(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", srcPath, err)
	}

	resolved, err := filepath.EvalSymlinks(srcPath)
	if err == nil && c.insideCheckoutCache(resolved) && dirExists(resolved) {
		return c.replicate(resolved, dstPath, false)
	}

	if err := os.Symlink(target, dstPath); err != nil {
		return fmt.Errorf("failed to preserve symlink %s: %w", srcPath, err)
	}
	return nil
}

// insideCheckoutCache reports whether path lies under the cache's checkout
// subtree.
func (c *Cache) insideCheckoutCache(path string) bool {
	rel, err := filepath.Rel(c.checkoutDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
