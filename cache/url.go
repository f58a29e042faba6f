package cache

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// scpLikeRe matches scp-style git remotes such as git@github.com:org/repo.git.
var scpLikeRe = regexp.MustCompile(`^([^@]+)@([^:/]+):(.+)$`)

// normalizeSCPURL rewrites an scp-style remote into URL syntax so it can be
// parsed with standard URL semantics:
//
//	git@github.com:org/repo.git → ssh://git@github.com/org/repo.git
//
// URLs that already carry a scheme are returned unchanged.
func normalizeSCPURL(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	if m := scpLikeRe.FindStringSubmatch(raw); m != nil {
		return fmt.Sprintf("ssh://%s@%s/%s", m[1], m[2], m[3])
	}
	return raw
}

// resolveRelativeSubmoduleURL resolves a relative submodule URL (./x or
// ../x) against the parent repository's origin URL.
//
// By convention one leading "../" segment indicates "one level up from the
// submodule's own natural location", which is already accounted for by using
// the parent's directory as the base, so it is folded into "./" before the
// join. The remaining path is joined against the directory of the origin's
// path, preserving the origin's scheme, user, and host.
//
// Origins without a scheme (plain local paths) resolve to the joined path.
func resolveRelativeSubmoduleURL(parentURL, relative string) (string, error) {
	if strings.HasPrefix(relative, "../") {
		relative = relative[1:]
	}

	parsed, err := url.Parse(normalizeSCPURL(parentURL))
	if err != nil {
		return "", fmt.Errorf("failed to parse parent origin URL %q: %w", parentURL, err)
	}

	resolved := path.Join(path.Dir(parsed.Path), relative)

	if parsed.Scheme == "" {
		return resolved, nil
	}

	netloc := parsed.Host
	if parsed.User != nil {
		netloc = parsed.User.String() + "@" + netloc
	}
	return fmt.Sprintf("%s://%s%s", parsed.Scheme, netloc, resolved), nil
}
