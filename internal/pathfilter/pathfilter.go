// Package pathfilter decides which directory entries a traversal visits.
package pathfilter

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/monochromegane/go-gitignore"
	"github.com/taigrr/dirtree/internal/filesystem"
	"github.com/taigrr/dirtree/internal/types"
)

// ErrInvalidPattern is returned for glob patterns doublestar cannot parse.
var ErrInvalidPattern = errors.New("invalid pattern")

// PathFilter is the filter policy of a traversal. It holds no per-walk
// state and may be shared by any number of walks.
type PathFilter struct {
	all      bool
	dirsOnly bool
	maxDepth int
	ignored  []string
	matched  []string
	ignore   gitignore.IgnoreMatcher
}

// New builds a PathFilter from opts. When opts.GitIgnore is set, the
// .gitignore file directly under root is read from fsys if it exists.
func New(fsys filesystem.FileSystem, root string, opts types.Options) (*PathFilter, error) {
	ignored, err := splitPatterns(opts.Ignore)
	if err != nil {
		return nil, err
	}
	matched, err := splitPatterns(opts.Match)
	if err != nil {
		return nil, err
	}

	pf := &PathFilter{
		all:      opts.All,
		dirsOnly: opts.DirsOnly,
		maxDepth: opts.MaxDepth,
		ignored:  ignored,
		matched:  matched,
	}

	if opts.GitIgnore {
		gitIgnorePath := fsys.Join(root, ".gitignore")
		content, err := fsys.ReadFile(gitIgnorePath)
		switch {
		case err == nil:
			pf.ignore = gitignore.NewGitIgnoreFromReader(root, bytes.NewReader(content))
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read %s: %w", gitIgnorePath, err)
		}
	}

	return pf, nil
}

// splitPatterns expands "a|b" alternatives and validates every pattern.
func splitPatterns(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		for alt := range strings.SplitSeq(p, "|") {
			if alt == "" {
				continue
			}
			if !doublestar.ValidatePattern(alt) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, alt)
			}
			out = append(out, alt)
		}
	}
	return out, nil
}

// Accepts reports whether entry, found at depth (children of the root are
// at depth 1), should be printed, counted and descended into.
func (pf *PathFilter) Accepts(entry types.Entry, depth int) bool {
	if pf.maxDepth > 0 && depth > pf.maxDepth {
		return false
	}

	if !pf.AcceptsName(entry.Name) {
		return false
	}

	if pf.ignore != nil && pf.ignore.Match(entry.Path, entry.IsDir) {
		return false
	}

	// Directories are never rejected by the file rules below.
	if entry.IsDir {
		return true
	}

	if pf.dirsOnly {
		return false
	}

	if len(pf.matched) > 0 && !matchesAny(pf.matched, entry.Name) {
		return false
	}

	return true
}

// AcceptsName applies the rules that need nothing but the entry's name.
// Walkers use it to skip entries before classifying them.
func (pf *PathFilter) AcceptsName(name string) bool {
	if !pf.all && filesystem.IsHiddenName(name) {
		return false
	}
	return !matchesAny(pf.ignored, name)
}

// Descends reports whether the children of a directory at depth may be
// read. The root is at depth 0.
func (pf *PathFilter) Descends(depth int) bool {
	return pf.maxDepth <= 0 || depth < pf.maxDepth
}

// FilterEntries returns the entries at depth that Accepts keeps, in order.
func (pf *PathFilter) FilterEntries(entries []types.Entry, depth int) []types.Entry {
	var allowed []types.Entry
	for _, entry := range entries {
		if pf.Accepts(entry, depth) {
			allowed = append(allowed, entry)
		}
	}
	return allowed
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		// Patterns are validated in New, so Match cannot fail here.
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
