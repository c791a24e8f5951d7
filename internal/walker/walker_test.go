package walker

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/taigrr/dirtree/internal/filesystem"
	"github.com/taigrr/dirtree/internal/logging"
	"github.com/taigrr/dirtree/internal/pathfilter"
	"github.com/taigrr/dirtree/internal/render"
	"github.com/taigrr/dirtree/internal/types"
)

var dirMode = &fstest.MapFile{Mode: fs.ModeDir | 0o755}

func file(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

// runWalk walks root in fsys and returns the output lines.
func runWalk(t *testing.T, fsys filesystem.FileSystem, root string, opts types.Options) ([]string, error) {
	t.Helper()
	filter, err := pathfilter.New(fsys, root, opts)
	if err != nil {
		t.Fatalf("pathfilter.New() error = %v", err)
	}

	var buf bytes.Buffer
	w := New(fsys, filter, &buf, WithFullPath(opts.FullPath), WithSort(opts.Sort))
	_, err = w.Walk(root)
	out := strings.TrimSuffix(buf.String(), "\n")
	if out == "" {
		return nil, err
	}
	return strings.Split(out, "\n"), err
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("output mismatch\n got:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestWalk_EmptyDirAndFile(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"root/a": dirMode,
		"root/b": file("b"),
	})

	got, err := runWalk(t, fsys, "root", types.Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	assertLines(t, got, []string{
		"root",
		"├── a",
		"└── b",
		"1 directories, 1 files",
	})
}

func TestWalk_OnlyHiddenEntry(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"root/.hidden": file("secret"),
	})

	got, err := runWalk(t, fsys, "root", types.Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	assertLines(t, got, []string{
		"root",
		"0 directories, 0 files",
	})
}

func TestWalk_HiddenShownWithAll(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"root/.secret": file("s"),
		"root/plain":   file("p"),
	})

	got, err := runWalk(t, fsys, "root", types.Options{All: true})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	assertLines(t, got, []string{
		"root",
		"├── .secret",
		"└── plain",
		"0 directories, 2 files",
	})
}

func TestWalk_NestedPrefixes(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"root/a/x":     file("x"),
		"root/a/y/z":   file("z"),
		"root/b/c":     file("c"),
		"root/d":       file("d"),
		"root/b/empty": dirMode,
	})

	got, err := runWalk(t, fsys, "root", types.Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	assertLines(t, got, []string{
		"root",
		"├── a",
		"│   ├── x",
		"│   └── y",
		"│       └── z",
		"├── b",
		"│   ├── c",
		"│   └── empty",
		"└── d",
		"4 directories, 4 files",
	})
}

func TestWalk_LastSiblingUsesFilteredList(t *testing.T) {
	// .z comes last in the raw listing but is filtered out, so b takes the elbow.
	fsys := listFS{entries: map[string][]fs.DirEntry{
		"root": {fakeEntry{name: "a"}, fakeEntry{name: "b"}, fakeEntry{name: ".z"}},
	}}

	got, err := runWalk(t, fsys, "root", types.Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	assertLines(t, got, []string{
		"root",
		"├── a",
		"└── b",
		"0 directories, 2 files",
	})
}

func TestWalk_OneElbowPerListing(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"root/a/1":   file("1"),
		"root/a/2":   file("2"),
		"root/a/3":   file("3"),
		"root/b/4":   file("4"),
		"root/c":     file("c"),
		"root/b/d/5": file("5"),
		"root/b/d/6": file("6"),
	})

	got, err := runWalk(t, fsys, "root", types.Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	// Four non-empty directories are listed: root, a, b and b/d.
	elbows := 0
	for _, line := range got {
		elbows += strings.Count(line, render.Elbow)
	}
	if elbows != 4 {
		t.Errorf("found %d elbows, want 4\n%s", elbows, strings.Join(got, "\n"))
	}
}

func TestWalk_MaxDepth(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"root/a/deep/deeper": file("x"),
		"root/a/shallow":     file("y"),
		"root/b":             file("z"),
	})

	t.Run("level 1", func(t *testing.T) {
		got, err := runWalk(t, fsys, "root", types.Options{MaxDepth: 1})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		assertLines(t, got, []string{
			"root",
			"├── a",
			"└── b",
			"1 directories, 1 files",
		})
	})

	t.Run("level 2", func(t *testing.T) {
		got, err := runWalk(t, fsys, "root", types.Options{MaxDepth: 2})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		assertLines(t, got, []string{
			"root",
			"├── a",
			"│   ├── deep",
			"│   └── shallow",
			"└── b",
			"2 directories, 2 files",
		})
	})
}

func TestWalk_MaxDepthSkipsUnreadableDirsBelowLimit(t *testing.T) {
	base := filesystem.FromFS(fstest.MapFS{
		"root/locked/inner": file("x"),
	})
	fsys := failingFS{FileSystem: base, fail: map[string]error{"root/locked": fs.ErrPermission}}

	got, err := runWalk(t, fsys, "root", types.Options{MaxDepth: 1})
	if err != nil {
		t.Fatalf("Walk() error = %v, want nil since locked is never read", err)
	}
	assertLines(t, got, []string{
		"root",
		"└── locked",
		"1 directories, 0 files",
	})
}

func TestWalk_DirsOnly(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"root/docs/guide.md": file("g"),
		"root/docs/img":      dirMode,
		"root/main.go":       file("m"),
		"root/zz.txt":        file("z"),
	})

	got, err := runWalk(t, fsys, "root", types.Options{DirsOnly: true})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	assertLines(t, got, []string{
		"root",
		"└── docs",
		"    └── img",
		"2 directories, 0 files",
	})
}

func TestWalk_FullPath(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"root/a/b": file("b"),
	})

	got, err := runWalk(t, fsys, "root", types.Options{FullPath: true})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	assertLines(t, got, []string{
		"root",
		"└── root/a",
		"    └── root/a/b",
		"1 directories, 1 files",
	})
}

func TestWalk_RootIsFile(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"notes.txt": file("n"),
	})

	got, err := runWalk(t, fsys, "notes.txt", types.Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	assertLines(t, got, []string{
		"notes.txt",
		"0 directories, 0 files",
	})
}

func TestWalk_RootMissing(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{})

	got, err := runWalk(t, fsys, "missing", types.Options{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Walk() error = %v, want fs.ErrNotExist", err)
	}
	if len(got) != 0 {
		t.Errorf("Walk() wrote %q for a missing root", got)
	}
}

// failingFS fails ReadDir for selected directories.
type failingFS struct {
	filesystem.FileSystem
	fail map[string]error
}

func (f failingFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if err, ok := f.fail[name]; ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return f.FileSystem.ReadDir(name)
}

func TestWalk_UnreadableDirectoryIsSurfaced(t *testing.T) {
	base := filesystem.FromFS(fstest.MapFS{
		"root/a/one":    file("1"),
		"root/b/secret": file("s"),
		"root/c/two":    file("2"),
	})
	fsys := failingFS{FileSystem: base, fail: map[string]error{"root/b": fs.ErrPermission}}

	filter, err := pathfilter.New(fsys, "root", types.Options{})
	if err != nil {
		t.Fatalf("pathfilter.New() error = %v", err)
	}

	var buf, logs bytes.Buffer
	logger := logging.NewLogger(logging.WithOutput(&logs))
	c, err := New(fsys, filter, &buf, WithLogger(logger)).Walk("root")
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("Walk() error = %v, want fs.ErrPermission", err)
	}
	if !strings.Contains(err.Error(), "root/b") {
		t.Errorf("error %q does not name root/b", err)
	}

	// Siblings before and after the failing directory are still walked.
	assertLines(t, strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"), []string{
		"root",
		"├── a",
		"│   └── one",
		"├── b",
		"└── c",
		"    └── two",
		"3 directories, 2 files",
	})
	if c.Dirs() != 3 || c.Files() != 2 {
		t.Errorf("counter = %s, want 3 directories, 2 files", c)
	}
	// The error is returned to the caller, so it is not also logged at warn.
	if logs.Len() != 0 {
		t.Errorf("unexpected warn-level log output: %s", logs.String())
	}
}

func TestWalk_DebugLogging(t *testing.T) {
	base := filesystem.FromFS(fstest.MapFS{
		"root/a/x":  file("x"),
		"root/.dot": file("d"),
	})
	fsys := failingFS{FileSystem: base, fail: map[string]error{"root/a": fs.ErrPermission}}
	filter, err := pathfilter.New(fsys, "root", types.Options{})
	if err != nil {
		t.Fatalf("pathfilter.New() error = %v", err)
	}

	var buf, logs bytes.Buffer
	logger := logging.NewLogger(logging.WithOutput(&logs), logging.WithVerbose(true))
	if _, err := New(fsys, filter, &buf, WithLogger(logger)).Walk("root"); !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("Walk() error = %v, want fs.ErrPermission", err)
	}

	for _, want := range []string{
		"skipping unreadable entry",
		"skipping entry",
		"walk complete",
		"directories=1",
		"files=0",
	} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("debug log missing %q:\n%s", want, logs.String())
		}
	}
}

func TestWalk_LoopingSymlinkIsAFile(t *testing.T) {
	root := t.TempDir()
	if err := os.Symlink("loop", filepath.Join(root, "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "plain"), []byte("p"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	got, err := runWalk(t, filesystem.OS{}, root, types.Options{Sort: types.SortName})
	if err != nil {
		t.Fatalf("Walk() error = %v, want nil for an unresolvable link", err)
	}

	assertLines(t, got, []string{
		root,
		"├── loop",
		"└── plain",
		"0 directories, 2 files",
	})
}

func TestWalk_DanglingSymlinkIsAFile(t *testing.T) {
	root := t.TempDir()
	if err := os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "dangling")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := runWalk(t, filesystem.OS{}, root, types.Options{})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	assertLines(t, got, []string{
		root,
		"└── dangling",
		"0 directories, 1 files",
	})
}

func TestWalk_MultipleErrorsCollected(t *testing.T) {
	base := filesystem.FromFS(fstest.MapFS{
		"root/a/x": file("x"),
		"root/b/y": file("y"),
	})
	fsys := failingFS{FileSystem: base, fail: map[string]error{
		"root/a": fs.ErrPermission,
		"root/b": fs.ErrNotExist,
	}}

	_, err := runWalk(t, fsys, "root", types.Options{})
	if !errors.Is(err, fs.ErrPermission) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Walk() error = %v, want both failures", err)
	}
}

func TestWalk_UndisplayableName(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"root/good":      file("g"),
		"root/bad\nname": file("b"),
	})

	got, err := runWalk(t, fsys, "root", types.Options{Sort: types.SortName})
	if !errors.Is(err, filesystem.ErrUndisplayableName) {
		t.Fatalf("Walk() error = %v, want ErrUndisplayableName", err)
	}

	assertLines(t, got, []string{
		"root",
		"└── good",
		"0 directories, 1 files",
	})
}

func TestWalk_SortByName(t *testing.T) {
	entries := []fs.DirEntry{
		fakeEntry{name: "zeta"},
		fakeEntry{name: "alpha"},
		fakeEntry{name: "mid", dir: true},
	}
	fsys := listFS{entries: map[string][]fs.DirEntry{"root": entries, "root/mid": nil}}

	t.Run("driver order", func(t *testing.T) {
		got, err := runWalk(t, fsys, "root", types.Options{})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		assertLines(t, got, []string{
			"root",
			"├── zeta",
			"├── alpha",
			"└── mid",
			"1 directories, 2 files",
		})
	})

	t.Run("by name", func(t *testing.T) {
		got, err := runWalk(t, fsys, "root", types.Options{Sort: types.SortName})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		assertLines(t, got, []string{
			"root",
			"├── alpha",
			"├── mid",
			"└── zeta",
			"1 directories, 2 files",
		})
	})
}

func TestWalk_CountsMatchPrintedEntries(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{
		"root/a/b/c/d":   file("d"),
		"root/a/.h/e":    file("e"),
		"root/a/f":       file("f"),
		"root/g/h/i":     dirMode,
		"root/.j":        file("j"),
		"root/k.log":     file("k"),
		"root/l/m/n.txt": file("n"),
	})

	for _, opts := range []types.Options{
		{},
		{All: true},
		{DirsOnly: true},
		{MaxDepth: 2},
		{Ignore: []string{"*.log"}},
		{All: true, MaxDepth: 3, Match: []string{"*.txt"}},
	} {
		filter, err := pathfilter.New(fsys, "root", opts)
		if err != nil {
			t.Fatalf("pathfilter.New() error = %v", err)
		}

		var buf bytes.Buffer
		c, err := New(fsys, filter, &buf).Walk("root")
		if err != nil {
			t.Fatalf("Walk(%+v) error = %v", opts, err)
		}

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		entryLines := len(lines) - 2
		if c.Total() != entryLines {
			t.Errorf("Walk(%+v) counted %d entries but printed %d\n%s", opts, c.Total(), entryLines, buf.String())
		}
	}
}

func TestWalk_OSFilesystem(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "a"), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "b"), []byte("b"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	got, err := runWalk(t, filesystem.OS{}, root, types.Options{Sort: types.SortName})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	assertLines(t, got, []string{
		root,
		"├── a",
		"└── b",
		"1 directories, 1 files",
	})
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestWalk_WriteFailureStops(t *testing.T) {
	fsys := filesystem.FromFS(fstest.MapFS{"root/a": file("a")})
	filter, err := pathfilter.New(fsys, "root", types.Options{})
	if err != nil {
		t.Fatalf("pathfilter.New() error = %v", err)
	}

	_, err = New(fsys, filter, errWriter{}).Walk("root")
	if err == nil || !strings.Contains(err.Error(), "broken pipe") {
		t.Fatalf("Walk() error = %v, want write failure", err)
	}
}

// listFS serves fixed directory listings in the given order.
type listFS struct {
	entries map[string][]fs.DirEntry
}

func (l listFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, ok := l.entries[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return entries, nil
}

func (l listFS) Stat(name string) (fs.FileInfo, error) {
	if _, ok := l.entries[name]; ok {
		return fstest.MapFS{"d": dirMode}.Stat("d")
	}
	return nil, fs.ErrNotExist
}

func (l listFS) ReadFile(name string) ([]byte, error) {
	return nil, fs.ErrNotExist
}

func (l listFS) Join(dir, name string) string {
	return dir + "/" + name
}

type fakeEntry struct {
	name string
	dir  bool
}

func (e fakeEntry) Name() string { return e.name }
func (e fakeEntry) IsDir() bool  { return e.dir }
func (e fakeEntry) Type() fs.FileMode {
	if e.dir {
		return fs.ModeDir
	}
	return 0
}
func (e fakeEntry) Info() (fs.FileInfo, error) { return nil, fs.ErrInvalid }
