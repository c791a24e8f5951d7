// Package filesystem reads directories and classifies their entries.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/taigrr/dirtree/internal/types"
)

// ErrUndisplayableName is returned for entry names that cannot be printed
// as a single line of text.
var ErrUndisplayableName = errors.New("name cannot be displayed")

// ErrUnresolvedLink is returned alongside a usable entry when a symlink's
// target cannot be stat'ed.
var ErrUnresolvedLink = errors.New("cannot resolve symlink")

// FileSystem is the read-only view of a directory tree used by a traversal.
type FileSystem interface {
	// ReadDir returns the entries of a directory in the order the
	// underlying driver yields them.
	ReadDir(name string) ([]fs.DirEntry, error)
	// Stat returns information about the named entry, following symlinks.
	Stat(name string) (fs.FileInfo, error)
	// ReadFile returns the contents of the named file.
	ReadFile(name string) ([]byte, error)
	// Join returns the path of name inside dir.
	Join(dir, name string) string
}

// OS is a FileSystem backed by the host operating system.
type OS struct{}

// ReadDir reads the directory without sorting its entries.
func (OS) ReadDir(name string) ([]fs.DirEntry, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.ReadDir(-1)
}

// Stat returns information about the named file.
func (OS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// ReadFile reads the named file.
func (OS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Join appends name to dir without cleaning dir, so "." stays "./name".
func (OS) Join(dir, name string) string {
	if strings.HasSuffix(dir, string(os.PathSeparator)) {
		return dir + name
	}
	return dir + string(os.PathSeparator) + name
}

// FromFS adapts an io/fs filesystem. Paths are slash-separated and relative
// to the root of fsys.
func FromFS(fsys fs.FS) FileSystem {
	return ioFS{fsys: fsys}
}

type ioFS struct {
	fsys fs.FS
}

func (f ioFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(f.fsys, name)
}

func (f ioFS) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(f.fsys, name)
}

func (f ioFS) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(f.fsys, name)
}

func (f ioFS) Join(dir, name string) string {
	return path.Join(dir, name)
}

// IsDirectory reports whether p resolves to a directory.
func IsDirectory(fsys FileSystem, p string) (bool, error) {
	info, err := fsys.Stat(p)
	if err != nil {
		return false, pathError("stat", p, err)
	}
	return info.IsDir(), nil
}

// IsHidden reports whether the final component of p starts with a dot.
func IsHidden(p string) bool {
	return IsHiddenName(filepath.Base(p))
}

// IsHiddenName reports whether name is a hidden entry name.
// The "." and ".." constructs are never hidden.
func IsHiddenName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// DisplayName returns name if it can be printed on a single line.
func DisplayName(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: %q is not valid UTF-8", ErrUndisplayableName, name)
	}
	if strings.ContainsFunc(name, unicode.IsControl) {
		return "", fmt.Errorf("%w: %q contains control characters", ErrUndisplayableName, name)
	}
	return name, nil
}

// Classify turns a directory entry of dir into a types.Entry. Symlinks and
// entries of unknown type are stat'ed so that links to directories count as
// directories.
//
// A symlink that cannot be stat'ed (dangling, looping or unreadable) is
// returned as a file together with an error wrapping ErrUnresolvedLink.
func Classify(fsys FileSystem, dir string, d fs.DirEntry) (types.Entry, error) {
	name := d.Name()
	p := fsys.Join(dir, name)

	if _, err := DisplayName(name); err != nil {
		return types.Entry{}, pathError("display", p, err)
	}

	entry := types.Entry{Name: name, Path: p, IsDir: d.IsDir()}
	if entry.IsDir || d.Type()&(fs.ModeSymlink|fs.ModeIrregular) == 0 {
		return entry, nil
	}

	isDir, err := IsDirectory(fsys, p)
	if err != nil {
		if d.Type()&fs.ModeSymlink != 0 {
			return entry, fmt.Errorf("%w: %w", ErrUnresolvedLink, err)
		}
		return types.Entry{}, err
	}
	entry.IsDir = isDir
	return entry, nil
}

// ReadDir reads the entries of dir, attributing any failure to dir.
func ReadDir(fsys FileSystem, dir string) ([]fs.DirEntry, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, pathError("read directory", dir, err)
	}
	return entries, nil
}

// pathError rewrites err so that it names p exactly once.
func pathError(op, p string, err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return &fs.PathError{Op: op, Path: p, Err: err}
}
