package cache

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	format "github.com/go-git/go-git/v5/plumbing/format/config"
)

// Submodule describes one submodule of a parent checkout: the configured
// name, path, and URL from .gitmodules, joined with the exact commit the
// parent's tree records for that path. The pinned commit always comes from
// the parent's tree listing, never from the submodule's own remote HEAD.
type Submodule struct {
	Name   string
	Path   string
	URL    string
	Commit string
}

// listSubmodules enumerates the submodules of the checkout at checkoutPath,
// resolved against commit. Relative submodule URLs are rewritten against the
// parent's origin URL, which is queried from the metadata clone lazily, once
// per parent. Results preserve .gitmodules order.
func (c *Cache) listSubmodules(ctx context.Context, metaPath, checkoutPath, commit string) ([]Submodule, error) {
	data, err := os.ReadFile(filepath.Join(checkoutPath, ".gitmodules"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitmodules: %w", err)
	}

	modules, err := parseGitmodules(data)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, nil
	}

	pinned, err := c.pinnedCommits(ctx, checkoutPath, commit)
	if err != nil {
		return nil, err
	}

	parentURL := ""
	for i := range modules {
		sub := &modules[i]

		sha, ok := pinned[sub.Path]
		if !ok {
			return nil, &SubmoduleStateError{Path: sub.Path, Commit: commit}
		}
		sub.Commit = sha

		if strings.HasPrefix(sub.URL, "./") || strings.HasPrefix(sub.URL, "../") {
			if parentURL == "" {
				res, err := c.git.WithDir(metaPath).Run(ctx, "remote", "get-url", "origin")
				if err != nil {
					return nil, fmt.Errorf("failed to query parent origin URL: %w", err)
				}
				parentURL = res.Out()
				c.log.Debug("resolved parent origin URL", "url", parentURL)
			}
			resolved, err := resolveRelativeSubmoduleURL(parentURL, sub.URL)
			if err != nil {
				return nil, err
			}
			sub.URL = resolved
		}
	}

	return modules, nil
}

// parseGitmodules parses the structural (name, path, url) triples from a
// .gitmodules file, preserving section order. Sections may be written with
// arbitrary leading whitespace, which is normalized to a single tab before
// structured parsing.
func parseGitmodules(data []byte) ([]Submodule, error) {
	cfg := format.New()
	if err := format.NewDecoder(bytes.NewReader(normalizeIndentation(data))).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse .gitmodules: %w", err)
	}

	var modules []Submodule
	for _, sub := range cfg.Section("submodule").Subsections {
		path := sub.Option("path")
		url := sub.Option("url")
		if path == "" || url == "" {
			continue
		}
		modules = append(modules, Submodule{
			Name: sub.Name,
			Path: path,
			URL:  url,
		})
	}
	return modules, nil
}

// normalizeIndentation rewrites any leading whitespace on continuation lines
// to a single tab.
func normalizeIndentation(data []byte) []byte {
	var out bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			out.WriteByte('\t')
			out.WriteString(strings.TrimLeft(line, " \t"))
		} else {
			out.WriteString(line)
		}
		out.WriteByte('\n')
	}
	return out.Bytes()
}

// pinnedCommits lists the full recursive tree of commit and maps each
// submodule pointer (tree entries of type "commit") to its recorded sha.
func (c *Cache) pinnedCommits(ctx context.Context, checkoutPath, commit string) (map[string]string, error) {
	res, err := c.git.WithDir(checkoutPath).Run(ctx, "ls-tree", "-r", commit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tree of %s: %w", commit, err)
	}

	pinned := make(map[string]string)
	for _, line := range strings.Split(res.Stdout, "\n") {
		// Format: <mode> SP <type> SP <object> TAB <path>
		meta, path, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) != 3 || fields[1] != "commit" {
			continue
		}
		pinned[path] = fields[2]
	}
	return pinned, nil
}
