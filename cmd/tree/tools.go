package main

import (
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/taigrr/dirtree/internal/types"
)

// TreeInput contains parameters for listing a directory tree. Unset fields
// fall back to the server defaults.
type TreeInput struct {
	Path     string   `json:"path,omitempty" jsonschema:"Directory to list, relative to the server root (default: the root itself)"`
	All      *bool    `json:"all,omitempty" jsonschema:"Include hidden entries whose names begin with a dot"`
	DirsOnly *bool    `json:"dirsOnly,omitempty" jsonschema:"List directories only"`
	FullPath *bool    `json:"fullPath,omitempty" jsonschema:"Print the full path of each entry instead of its name"`
	Level    *int     `json:"level,omitempty" jsonschema:"Maximum depth to list, 0 for unlimited"`
	Ignore   []string `json:"ignore,omitempty" jsonschema:"Glob patterns of entries to leave out, added to the server defaults"`
	Pattern  []string `json:"pattern,omitempty" jsonschema:"Glob patterns that listed files must match, replacing the server defaults"`
	Sort     string   `json:"sort,omitempty" jsonschema:"Sibling order: none or name"`
}

// options overlays the input onto the server defaults.
func (in TreeInput) options(defaults types.Options) types.Options {
	opts := defaults
	if in.All != nil {
		opts.All = *in.All
	}
	if in.DirsOnly != nil {
		opts.DirsOnly = *in.DirsOnly
	}
	if in.FullPath != nil {
		opts.FullPath = *in.FullPath
	}
	if in.Level != nil {
		opts.MaxDepth = *in.Level
	}
	opts.Ignore = append(append([]string{}, defaults.Ignore...), in.Ignore...)
	if len(in.Pattern) > 0 {
		opts.Match = in.Pattern
	}
	if in.Sort != "" {
		opts.Sort = in.Sort
	}
	if opts.Sort == "" {
		opts.Sort = types.SortNone
	}
	return opts
}

func newMCPCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp [root]",
		Short: "Serve directory trees over the Model Context Protocol",
		Long: `mcp runs a Model Context Protocol server on stdio exposing the
"tree" and "count" tools. Requests may only list directories inside root,
which defaults to the current directory.`,
		Example:      `tree mcp ~/src`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, args, flags)
		},
	}
}

func runServer(cmd *cobra.Command, args []string, flags *cliFlags) error {
	var root string
	if len(args) > 0 {
		root = args[0]
	} else {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	defaults, err := loadDefaults(flags.configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, flags)
	if err != nil {
		return err
	}

	svc, err := newTreeService(root, defaults, logger)
	if err != nil {
		return err
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "dirtree",
		Version: version,
	}, nil)

	registerTools(server, svc)

	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}

	return nil
}

func registerTools(server *mcp.Server, svc *treeService) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "tree",
		Description: "List a directory recursively as an indented tree, followed by a summary line with directory and file counts. Hidden entries are left out unless all=true.",
	}, svc.handleTree)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "count",
		Description: "Count the directories and files a tree listing with the same parameters would show, without listing them.",
	}, svc.handleCount)
}
