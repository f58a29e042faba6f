package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLink_CreatesSymlinkWithParents(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()

	target := filepath.Join(dir, "target")
	writeFile(t, target, "data")

	link := filepath.Join(dir, "a", "b", "link")
	require.NoError(t, c.Link(link, target, false))

	resolved, err := filepath.EvalSymlinks(link)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
}

func TestLink_Idempotent(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()

	target := filepath.Join(dir, "target")
	writeFile(t, target, "data")
	link := filepath.Join(dir, "link")

	require.NoError(t, c.Link(link, target, false))
	info1, err := os.Lstat(link)
	require.NoError(t, err)

	// Second call is a no-op: same final state, link not recreated.
	require.NoError(t, c.Link(link, target, false))
	info2, err := os.Lstat(link)
	require.NoError(t, err)
	assert.True(t, os.SameFile(info1, info2))
}

func TestLink_ReplacesExistingSymlink(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()

	oldTarget := filepath.Join(dir, "old")
	newTarget := filepath.Join(dir, "new")
	writeFile(t, oldTarget, "old")
	writeFile(t, newTarget, "new")

	link := filepath.Join(dir, "link")
	require.NoError(t, c.Link(link, oldTarget, false))

	// A symlink pointing elsewhere is replaced unconditionally, no force.
	require.NoError(t, c.Link(link, newTarget, false))

	data, err := os.ReadFile(link)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestLink_ReplacesBrokenSymlink(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()

	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), link))

	target := filepath.Join(dir, "target")
	writeFile(t, target, "data")

	require.NoError(t, c.Link(link, target, false))
	data, err := os.ReadFile(link)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestLink_FileConflictWithoutForce(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()

	link := filepath.Join(dir, "occupied")
	writeFile(t, link, "precious")
	target := filepath.Join(dir, "target")
	writeFile(t, target, "data")

	err := c.Link(link, target, false)
	var conflict *LinkConflictError
	require.True(t, errors.As(err, &conflict))

	// The conflicting file must be left intact.
	data, readErr := os.ReadFile(link)
	require.NoError(t, readErr)
	assert.Equal(t, "precious", string(data))
}

func TestLink_ForceReplacesFile(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()

	link := filepath.Join(dir, "occupied")
	writeFile(t, link, "old")
	target := filepath.Join(dir, "target")
	writeFile(t, target, "data")

	require.NoError(t, c.Link(link, target, true))
	data, err := os.ReadFile(link)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestLink_ForceReplacesDirectoryRecursively(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()

	occupied := filepath.Join(dir, "occupied")
	writeFile(t, filepath.Join(occupied, "nested", "file"), "x")
	target := filepath.Join(dir, "target")
	require.NoError(t, os.MkdirAll(target, 0o755))

	require.NoError(t, c.Link(occupied, target, true))

	info, err := os.Lstat(occupied)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)
}

func TestLink_SameFileViaDifferentSpelling(t *testing.T) {
	c := newTestCache(t)
	dir := t.TempDir()

	target := filepath.Join(dir, "target")
	writeFile(t, target, "data")
	link := filepath.Join(dir, "link")
	require.NoError(t, c.Link(link, target, false))

	// Pointing at the same file through a dot segment is still a no-op.
	require.NoError(t, c.Link(link, filepath.Join(dir, ".", "target"), false))
}
