package cache

import "fmt"

// UnresolvedRefError reports a ref that could not be resolved to a commit by
// any strategy: local verification, rev-parse, or a direct fetch from the
// remote.
type UnresolvedRefError struct {
	URL string
	Ref string
	Err error
}

func (e *UnresolvedRefError) Error() string {
	return fmt.Sprintf("ref %q could not be resolved or fetched from %s", e.Ref, e.URL)
}

func (e *UnresolvedRefError) Unwrap() error {
	return e.Err
}

// SubmoduleStateError reports a .gitmodules entry whose path is absent from
// the resolved commit's tree. The descriptor and the parent's recorded tree
// disagree, which signals a corrupt or unsupported repository layout.
type SubmoduleStateError struct {
	Path   string
	Commit string
}

func (e *SubmoduleStateError) Error() string {
	return fmt.Sprintf("no pinned commit found for submodule path %q in commit %s", e.Path, e.Commit)
}

// LinkConflictError reports a link destination occupied by a regular file or
// directory when force was not requested. The existing entry is left intact.
type LinkConflictError struct {
	Path string
}

func (e *LinkConflictError) Error() string {
	return fmt.Sprintf("path %s already exists and is not a symlink", e.Path)
}
