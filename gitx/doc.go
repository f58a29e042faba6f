// Package gitx runs the external git tool as a subprocess.
//
// The cache engine never reimplements version-control semantics; every
// clone, fetch, resolution, and listing operation is delegated to git
// through an Executor. The Executor interface exists so higher layers can
// be tested against a scripted fake without a git binary present.
//
// Usage:
//
//	git := gitx.New()
//	res, err := git.WithDir(repoPath).Run(ctx, "rev-parse", "HEAD")
//	if err != nil {
//	    return err
//	}
//	commit := res.Out()
package gitx
