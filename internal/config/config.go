// Package config resolves traversal options from command-line flags and an
// optional YAML defaults file. The file is only ever read.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/taigrr/dirtree/internal/types"
	"gopkg.in/yaml.v3"
)

// Flag names shared by the CLI and the defaults file.
const (
	FlagAll       = "all"
	FlagDirsOnly  = "dirs-only"
	FlagFullPath  = "full-path"
	FlagLevel     = "level"
	FlagIgnore    = "ignore"
	FlagPattern   = "pattern"
	FlagGitIgnore = "gitignore"
	FlagSort      = "sort"
)

var (
	// ErrInvalidLevel is returned for a depth limit below one.
	ErrInvalidLevel = errors.New("invalid level, must be greater than 0")
	// ErrInvalidSort is returned for an unknown sort order.
	ErrInvalidSort = errors.New("invalid sort order, must be one of: none, name")
)

// DefaultPath returns the defaults file location,
// $XDG_CONFIG_HOME/dirtree/config.yaml on most systems.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dirtree", "config.yaml")
}

// LoadFile reads options from a YAML file. A missing file yields zero
// options when optional is set.
func LoadFile(path string, optional bool) (types.Options, error) {
	if path == "" {
		return types.Options{}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return types.Options{}, nil
		}
		if errors.Is(err, fs.ErrPermission) {
			return types.Options{}, fmt.Errorf("permission denied: %s", path)
		}
		return types.Options{}, fmt.Errorf("failed to read config: %s - %w", path, err)
	}

	opts, err := Parse(content)
	if err != nil {
		return types.Options{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return opts, nil
}

// Parse decodes YAML options. Unknown keys are rejected.
func Parse(content []byte) (types.Options, error) {
	var opts types.Options
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return types.Options{}, err
	}
	return opts, nil
}

// Merge overlays the flags that were set on the command line onto the
// options from the defaults file. changed reports whether a flag was set.
func Merge(file, flags types.Options, changed func(name string) bool) types.Options {
	merged := file

	if changed(FlagAll) {
		merged.All = flags.All
	}
	if changed(FlagDirsOnly) {
		merged.DirsOnly = flags.DirsOnly
	}
	if changed(FlagFullPath) {
		merged.FullPath = flags.FullPath
	}
	if changed(FlagLevel) {
		merged.MaxDepth = flags.MaxDepth
	}
	if changed(FlagIgnore) {
		merged.Ignore = append(append([]string{}, file.Ignore...), flags.Ignore...)
	}
	if changed(FlagPattern) {
		merged.Match = flags.Match
	}
	if changed(FlagGitIgnore) {
		merged.GitIgnore = flags.GitIgnore
	}
	if changed(FlagSort) {
		merged.Sort = flags.Sort
	}

	if merged.Sort == "" {
		merged.Sort = types.SortNone
	}
	return merged
}

// Validate checks options before any traversal starts. levelSet reports
// whether the depth limit was given explicitly, in which case zero is
// rejected too.
func Validate(opts types.Options, levelSet bool) error {
	if opts.MaxDepth < 0 || (levelSet && opts.MaxDepth == 0) {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, opts.MaxDepth)
	}

	switch opts.Sort {
	case types.SortNone, types.SortName:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSort, opts.Sort)
	}

	return nil
}
