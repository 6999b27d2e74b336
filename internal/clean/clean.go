// Package clean removes git-ignored build output from a project checkout,
// leaving only what is, or would be, committed.
package clean

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/format/gitignore"
)

type cleaner struct {
	root    string
	matcher gitignore.Matcher
	// tracked holds every file in the index and every directory containing one
	tracked map[string]bool
	removed []string
}

// Clean removes every untracked file matched by a .gitignore in the repository at root,
// then every directory left empty. Nested repositories and submodules are not entered.
// Removed directories are reported with a trailing slash. With dryRun nothing is deleted.
func Clean(root string, dryRun bool) ([]string, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	patterns, err := gitignore.ReadPatterns(wt.Filesystem, nil)
	if err != nil {
		return nil, err
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, err
	}

	c := &cleaner{
		root:    root,
		matcher: gitignore.NewMatcher(patterns),
		tracked: make(map[string]bool, len(idx.Entries)),
	}
	for _, entry := range idx.Entries {
		for p := entry.Name; p != "."; p = path.Dir(p) {
			c.tracked[p] = true
		}
	}

	if _, err := c.walk(""); err != nil {
		return nil, err
	}
	if dryRun {
		return c.removed, nil
	}

	// children always come before their parent directory
	for _, rel := range c.removed {
		full := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(rel, "/")))
		if strings.HasSuffix(rel, "/") {
			err = os.RemoveAll(full)
		} else {
			err = os.Remove(full)
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return c.removed, nil
}

// walk collects what to remove below rel and reports whether rel would end up empty
func (c *cleaner) walk(rel string) (bool, error) {
	entries, err := os.ReadDir(filepath.Join(c.root, filepath.FromSlash(rel)))
	if err != nil {
		return false, err
	}

	remaining := 0
	for _, entry := range entries {
		child := path.Join(rel, entry.Name())
		parts := strings.Split(child, "/")

		if !entry.IsDir() {
			if !c.tracked[child] && c.matcher.Match(parts, false) {
				c.removed = append(c.removed, child)
				continue
			}
			remaining++
			continue
		}

		if entry.Name() == ".git" || c.isRepo(child) {
			remaining++
			continue
		}
		if !c.tracked[child] && c.matcher.Match(parts, true) {
			c.removed = append(c.removed, child+"/")
			continue
		}
		empty, err := c.walk(child)
		if err != nil {
			return false, err
		}
		if empty {
			c.removed = append(c.removed, child+"/")
			continue
		}
		remaining++
	}
	return remaining == 0, nil
}

// isRepo reports whether rel is a nested repository or submodule checkout
func (c *cleaner) isRepo(rel string) bool {
	_, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(rel), ".git"))
	return err == nil
}
