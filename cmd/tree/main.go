// Package main implements tree, a recursive directory listing program.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/dirtree/internal/config"
	"github.com/taigrr/dirtree/internal/filesystem"
	"github.com/taigrr/dirtree/internal/logging"
	"github.com/taigrr/dirtree/internal/pathfilter"
	"github.com/taigrr/dirtree/internal/types"
	"github.com/taigrr/dirtree/internal/walker"
)

// cliFlags holds the values bound to command-line flags.
type cliFlags struct {
	opts       types.Options
	configPath string
	verbose    bool
	logLevel   string
	logJSON    bool
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "tree [directory]",
		Short: "List contents of directories in a tree-like format",
		Long: `tree is a recursive directory listing program that produces a depth
indented listing of files. With no arguments, tree lists the files in the
current directory. Upon completion of listing all files and directories
found, tree prints the total number of files and directories listed.

Defaults for every listing flag may be kept in a YAML file, read from
$XDG_CONFIG_HOME/dirtree/config.yaml unless --config is given.`,
		Example: `tree
tree -L 2 ~/src
tree -a -I 'node_modules|*.log' --sort name`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, args, flags)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&flags.opts.All, config.FlagAll, "a", false, "Print all files, including hidden ones (names beginning with a dot)")
	f.BoolVarP(&flags.opts.DirsOnly, config.FlagDirsOnly, "d", false, "List directories only")
	f.BoolVarP(&flags.opts.FullPath, config.FlagFullPath, "f", false, "Print the full path prefix for each file")
	f.IntVarP(&flags.opts.MaxDepth, config.FlagLevel, "L", 0, "Max display depth of the directory tree")
	f.StringArrayVarP(&flags.opts.Ignore, config.FlagIgnore, "I", nil, "Do not list entries matching the pattern (alternatives separated by |)")
	f.StringArrayVarP(&flags.opts.Match, config.FlagPattern, "P", nil, "List only files matching the pattern")
	f.BoolVar(&flags.opts.GitIgnore, config.FlagGitIgnore, false, "Filter entries using the .gitignore file in the listed directory")
	f.StringVar(&flags.opts.Sort, config.FlagSort, types.SortNone, "Sibling order: none (as read from disk) or name")

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to a YAML file with default options")
	pf.BoolVar(&flags.verbose, "verbose", false, "Log skipped entries and other diagnostics to stderr")
	pf.StringVar(&flags.logLevel, "log-level", "", "Diagnostic log level: debug, info, warn or error (overrides --verbose)")
	pf.BoolVar(&flags.logJSON, "log-json", false, "Write diagnostics as JSON")

	cmd.AddCommand(newMCPCmd(flags))

	return cmd
}

func runTree(cmd *cobra.Command, args []string, flags *cliFlags) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	opts, err := resolveOptions(cmd, flags)
	if err != nil {
		return err
	}

	filter, err := pathfilter.New(filesystem.OS{}, root, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, flags)
	if err != nil {
		return err
	}

	w := walker.New(filesystem.OS{}, filter, cmd.OutOrStdout(),
		walker.WithLogger(logger),
		walker.WithFullPath(opts.FullPath),
		walker.WithSort(opts.Sort),
	)

	_, err = w.Walk(root)
	return err
}

// newLogger builds the diagnostic logger from the logging flags.
func newLogger(cmd *cobra.Command, flags *cliFlags) (*slog.Logger, error) {
	if flags.logLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", flags.logLevel, err)
		}
	}

	return logging.NewLogger(
		logging.WithVerbose(flags.verbose),
		logging.WithLevel(flags.logLevel),
		logging.WithJSON(flags.logJSON),
		logging.WithOutput(cmd.ErrOrStderr()),
	), nil
}

// resolveOptions merges the defaults file with the flags set on the command
// line and validates the result.
func resolveOptions(cmd *cobra.Command, flags *cliFlags) (types.Options, error) {
	fileOpts, err := loadDefaults(flags.configPath)
	if err != nil {
		return types.Options{}, err
	}

	changed := cmd.Flags().Changed
	opts := config.Merge(fileOpts, flags.opts, changed)
	if err := config.Validate(opts, changed(config.FlagLevel)); err != nil {
		return types.Options{}, err
	}

	return opts, nil
}

// loadDefaults reads the given defaults file, or the default location if
// it exists.
func loadDefaults(path string) (types.Options, error) {
	if path != "" {
		return config.LoadFile(path, false)
	}
	return config.LoadFile(config.DefaultPath(), true)
}
