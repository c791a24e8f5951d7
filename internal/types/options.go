// Package types defines the data structures shared across dirtree packages.
package types

// Sort orders for sibling entries.
const (
	SortNone = "none"
	SortName = "name"
)

type (
	// Options controls what a traversal visits and how entries are named.
	Options struct {
		All       bool     `json:"all,omitempty" yaml:"all"`
		DirsOnly  bool     `json:"dirsOnly,omitempty" yaml:"dirs_only"`
		FullPath  bool     `json:"fullPath,omitempty" yaml:"full_path"`
		MaxDepth  int      `json:"level,omitempty" yaml:"level"` // 0 means unlimited
		Ignore    []string `json:"ignore,omitempty" yaml:"ignore"`
		Match     []string `json:"pattern,omitempty" yaml:"pattern"`
		GitIgnore bool     `json:"gitignore,omitempty" yaml:"gitignore"`
		Sort      string   `json:"sort,omitempty" yaml:"sort"`
	}

	// Entry is a classified child of a directory.
	Entry struct {
		Name  string // final path component, as read from the directory
		Path  string // parent path joined with Name
		IsDir bool
	}
)
