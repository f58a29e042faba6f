package cache

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/Darianopolis/git-cache/gitx"
)

// refOutcome is the result of one resolution step. The fallback chain is an
// explicit state machine rather than error-driven control flow, so each step
// states whether it produced a commit, found nothing, or needs the remote.
type refOutcome int

const (
	outcomeResolved refOutcome = iota
	outcomeNotFound
	outcomeNeedsFetch
)

// resolveRef turns an arbitrary ref (commit id, branch, or tag) into a
// verified commit id using the metadata clone at metaPath.
//
// The ordering favors literal commit ids (verified locally at zero network
// cost), keeps named branches fresh when allowFetch is set, and tolerates
// refs the metadata clone has never seen by falling back to a single direct
// fetch. Only that one fallback is ever attempted; failure past it is final.
func (c *Cache) resolveRef(ctx context.Context, metaPath, url, ref string, allowFetch bool) (string, error) {
	git := c.git.WithDir(metaPath)

	// Literal commit id: verify the object directly, no ambiguity possible.
	if plumbing.IsHash(ref) {
		if c.commitExists(ctx, git, ref) {
			return ref, nil
		}
		// Fall through: a 40-char hex string can still be a branch or tag.
	}

	commit, outcome := c.resolveSymbolic(ctx, git, ref, allowFetch)
	switch outcome {
	case outcomeResolved:
		return commit, nil
	case outcomeNeedsFetch, outcomeNotFound:
		// Direct fetch covers refs not yet visible locally, e.g. freshly
		// pushed tags. On success the ref itself is the resolved identifier.
		c.log.Info("ref not found locally, attempting direct fetch", "ref", ref, "url", url)
		if _, err := git.Run(ctx, "fetch", "origin", ref); err != nil {
			return "", &UnresolvedRefError{URL: url, Ref: ref, Err: err}
		}
		return ref, nil
	}
	return "", &UnresolvedRefError{URL: url, Ref: ref}
}

// resolveSymbolic resolves ref as a symbolic name against the local metadata
// clone. When allowFetch is set and ref names a known remote branch, the
// branch is fetched first so long-lived branch refs stay current. Known
// remote branches resolve through their remote-tracking ref; the local
// branch a clone creates for the default branch never advances on fetch.
func (c *Cache) resolveSymbolic(ctx context.Context, git gitx.Executor, ref string, allowFetch bool) (string, refOutcome) {
	target := ref
	if c.isRemoteBranch(ctx, git, ref) {
		if allowFetch {
			c.log.Info("fetching updated branch content", "branch", ref)
			if _, err := git.Run(ctx, "fetch", "origin", ref); err != nil {
				return "", outcomeNotFound
			}
		}
		target = "refs/remotes/origin/" + ref
	}

	res, err := git.Run(ctx, "rev-parse", target)
	if err != nil {
		return "", outcomeNeedsFetch
	}
	commit := res.Out()

	if !c.commitExists(ctx, git, commit) {
		return "", outcomeNeedsFetch
	}
	return commit, outcomeResolved
}

// commitExists reports whether id names a commit object in the repository.
func (c *Cache) commitExists(ctx context.Context, git gitx.Executor, id string) bool {
	_, err := git.Run(ctx, "cat-file", "-e", id+"^{commit}")
	return err == nil
}

// isRemoteBranch reports whether ref matches a branch known on origin.
func (c *Cache) isRemoteBranch(ctx context.Context, git gitx.Executor, ref string) bool {
	res, err := git.Run(ctx, "branch", "-a")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		name, ok := strings.CutPrefix(strings.TrimSpace(line), "remotes/origin/")
		if ok && name == ref {
			return true
		}
	}
	return false
}
