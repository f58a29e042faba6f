package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// digest returns the lowercase hex SHA-256 of s. It is the sole
// disambiguator between cache entries, computed over the UTF-8 bytes of the
// exact input string. The layout below cache root is an interop contract
// shared with existing caches, so the scheme must not change.
func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// metadataPath returns the directory holding the no-checkout clone for url.
func (c *Cache) metadataPath(url string) string {
	return filepath.Join(c.metadataDir, digest(url))
}

// checkoutPath returns the directory holding the working tree for the given
// url at commit. The commit is normally a fully resolved id, but callers may
// probe with a raw ref to hit the alias left by a prior run whose ref was
// already a commit id.
func (c *Cache) checkoutPath(url, commit string) string {
	return filepath.Join(c.checkoutDir, digest(url+"@"+commit))
}
