// Package walker renders a directory tree while counting what it visits.
//
// A walk prints the root path, one line per accepted entry in depth-first
// order, and a summary line. Siblings keep the order the filesystem returns
// them in unless sorting is requested. The last accepted sibling is drawn
// with an elbow; entries rejected by the filter never take part in that
// decision.
package walker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/taigrr/dirtree/internal/counter"
	"github.com/taigrr/dirtree/internal/filesystem"
	"github.com/taigrr/dirtree/internal/logging"
	"github.com/taigrr/dirtree/internal/pathfilter"
	"github.com/taigrr/dirtree/internal/render"
	"github.com/taigrr/dirtree/internal/types"
)

// Walker renders trees from one filesystem with one filter policy.
// A Walker may be reused; each call to Walk has its own counter.
type Walker struct {
	fsys     filesystem.FileSystem
	filter   *pathfilter.PathFilter
	out      io.Writer
	logger   *slog.Logger
	fullPath bool
	sortBy   string
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets the logger for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		w.logger = logger
	}
}

// WithFullPath prints each entry's full path instead of its name.
func WithFullPath(fullPath bool) Option {
	return func(w *Walker) {
		w.fullPath = fullPath
	}
}

// WithSort sets the sibling order, types.SortNone or types.SortName.
func WithSort(sortBy string) Option {
	return func(w *Walker) {
		w.sortBy = sortBy
	}
}

// New creates a Walker writing to out.
func New(fsys filesystem.FileSystem, filter *pathfilter.PathFilter, out io.Writer, opts ...Option) *Walker {
	w := &Walker{
		fsys:   fsys,
		filter: filter,
		out:    out,
		logger: logging.Discard(),
		sortBy: types.SortNone,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// traversal is the state of one Walk call.
type traversal struct {
	counter *counter.Counter
	errs    *multierror.Error
}

// Walk renders the tree rooted at root and returns the counts it took.
//
// If root cannot be stat'ed, nothing is written and the error is returned.
// Errors reading a directory or classifying an entry below root do not stop
// the walk: they are logged, collected, and returned together once the
// summary line has been written. The counter is valid in both cases.
// Failing to write output stops the walk immediately.
func (w *Walker) Walk(root string) (*counter.Counter, error) {
	t := &traversal{counter: counter.New()}

	isDir, err := filesystem.IsDirectory(w.fsys, root)
	if err != nil {
		return t.counter, err
	}

	if err := w.writeLine(root); err != nil {
		return t.counter, err
	}

	if isDir && w.filter.Descends(0) {
		if err := w.visit(t, root, "", 0); err != nil {
			return t.counter, err
		}
	}

	if err := w.writeLine(t.counter.String()); err != nil {
		return t.counter, err
	}

	w.logger.Debug("walk complete",
		"root", root,
		"directories", t.counter.Dirs(),
		"files", t.counter.Files(),
	)
	return t.counter, t.errs.ErrorOrNil()
}

// visit prints the accepted children of dir, which sits at depth, and
// recurses into the ones that are directories. Only output failures are
// returned; everything else is recorded on t.
func (w *Walker) visit(t *traversal, dir, prefix string, depth int) error {
	entries := w.children(t, dir, depth+1)

	for i, entry := range entries {
		isLast := i == len(entries)-1

		if err := w.writeLine(render.Line(prefix, isLast, w.displayName(entry))); err != nil {
			return err
		}
		t.counter.Record(entry.IsDir)

		if entry.IsDir && w.filter.Descends(depth+1) {
			if err := w.visit(t, entry.Path, render.ChildPrefix(prefix, isLast), depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}

// children reads, classifies, filters and orders the entries of dir.
func (w *Walker) children(t *traversal, dir string, depth int) []types.Entry {
	raw, err := filesystem.ReadDir(w.fsys, dir)
	if err != nil {
		w.fail(t, err)
		return nil
	}

	classified := make([]types.Entry, 0, len(raw))
	for _, d := range raw {
		// Hidden and ignored names are dropped before they cost a stat.
		if !w.filter.AcceptsName(d.Name()) {
			w.logger.Debug("skipping entry", "dir", dir, "name", d.Name())
			continue
		}

		entry, err := filesystem.Classify(w.fsys, dir, d)
		switch {
		case errors.Is(err, filesystem.ErrUnresolvedLink):
			w.logger.Debug("listing unresolved link as a file", logging.ErrAttr(err))
		case err != nil:
			w.fail(t, err)
			continue
		}
		classified = append(classified, entry)
	}

	entries := w.filter.FilterEntries(classified, depth)

	if w.sortBy == types.SortName {
		slices.SortStableFunc(entries, func(a, b types.Entry) int {
			return strings.Compare(a.Name, b.Name)
		})
	}

	return entries
}

// fail records a recoverable error for Walk to return.
func (w *Walker) fail(t *traversal, err error) {
	w.logger.Debug("skipping unreadable entry", logging.ErrAttr(err))
	t.errs = multierror.Append(t.errs, err)
}

func (w *Walker) displayName(entry types.Entry) string {
	if w.fullPath {
		return entry.Path
	}
	return entry.Name
}

func (w *Walker) writeLine(line string) error {
	if _, err := fmt.Fprintln(w.out, line); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
