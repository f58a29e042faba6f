package cache

import (
	"fmt"
	"os"
	"path/filepath"
)

// Link idempotently creates path as a symlink to target's resolved absolute
// location.
//
//   - If path already resolves to the same file as target, Link is a no-op.
//   - An existing symlink pointing elsewhere is replaced unconditionally.
//   - A regular file or directory at path is replaced only when force is
//     set (directories recursively); otherwise *LinkConflictError is
//     returned and the existing entry is left intact.
//
// Parent directories are created as needed.
func (c *Cache) Link(path, target string, force bool) error {
	resolved, err := resolveTarget(target)
	if err != nil {
		return err
	}

	if info, err := os.Lstat(path); err == nil {
		if sameFile(path, resolved) {
			return nil
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			c.log.Debug("removing existing symlink", "path", path)
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove existing symlink: %w", err)
			}
		case force && info.IsDir():
			c.log.Debug("removing existing directory", "path", path)
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("failed to remove existing directory: %w", err)
			}
		case force:
			c.log.Debug("removing existing file", "path", path)
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove existing file: %w", err)
			}
		default:
			return &LinkConflictError{Path: path}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	c.log.Info("creating symlink", "path", path, "target", resolved)
	if err := os.Symlink(resolved, path); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}
	return nil
}

// resolveTarget returns the absolute location of target with any symlinks in
// it resolved, falling back to the absolute path when target does not exist
// yet or resolution fails.
func resolveTarget(target string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve link target %q: %w", target, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// sameFile reports whether both paths resolve to the same underlying file.
// Broken links resolve to nothing and are never the same file.
func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
