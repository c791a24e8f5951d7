// Package counter tallies the directories and files visited by a traversal.
package counter

import "fmt"

// Counter accumulates directory and file counts. The zero value is ready to use.
type Counter struct {
	dirs  int
	files int
}

// New returns an empty Counter.
func New() *Counter {
	return &Counter{}
}

// RecordDirectory counts one directory.
func (c *Counter) RecordDirectory() {
	c.dirs++
}

// RecordFile counts one file. Anything that is not a directory is a file.
func (c *Counter) RecordFile() {
	c.files++
}

// Record counts an entry as a directory or a file.
func (c *Counter) Record(isDir bool) {
	if isDir {
		c.RecordDirectory()
		return
	}
	c.RecordFile()
}

// Dirs returns the number of directories recorded.
func (c *Counter) Dirs() int {
	return c.dirs
}

// Files returns the number of files recorded.
func (c *Counter) Files() int {
	return c.files
}

// Total returns the number of entries recorded.
func (c *Counter) Total() int {
	return c.dirs + c.files
}

// String renders the summary line. Counts are never pluralised specially,
// so a single file reads "1 files".
func (c *Counter) String() string {
	return fmt.Sprintf("%d directories, %d files", c.dirs, c.files)
}
