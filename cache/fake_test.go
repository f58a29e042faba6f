package cache

import (
	"context"
	"sync"

	"github.com/Darianopolis/git-cache/gitx"
)

// fakeGit is a scripted gitx.Executor. Each Run is dispatched to handle with
// the working directory and argument list; every invocation is recorded so
// tests can assert on network activity (clone/fetch counts).
type fakeGit struct {
	rec    *callRecorder
	handle func(dir string, args []string) (string, error)
	dir    string
}

type fakeCall struct {
	Dir  string
	Args []string
}

type callRecorder struct {
	mu    sync.Mutex
	calls []fakeCall
}

func newFakeGit(handle func(dir string, args []string) (string, error)) *fakeGit {
	return &fakeGit{rec: &callRecorder{}, handle: handle}
}

func (f *fakeGit) WithDir(dir string) gitx.Executor {
	return &fakeGit{rec: f.rec, handle: f.handle, dir: dir}
}

func (f *fakeGit) Run(ctx context.Context, args ...string) (*gitx.Result, error) {
	f.rec.mu.Lock()
	f.rec.calls = append(f.rec.calls, fakeCall{Dir: f.dir, Args: args})
	f.rec.mu.Unlock()

	out, err := f.handle(f.dir, args)
	if err != nil {
		return &gitx.Result{Stderr: err.Error(), ExitCode: 1}, &gitx.GitError{
			Args:     args,
			ExitCode: 1,
			Stderr:   err.Error(),
			Err:      err,
		}
	}
	return &gitx.Result{Stdout: out}, nil
}

// countCalls returns how many recorded invocations start with verb.
func (f *fakeGit) countCalls(verb string) int {
	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()

	count := 0
	for _, call := range f.rec.calls {
		if len(call.Args) > 0 && call.Args[0] == verb {
			count++
		}
	}
	return count
}
