package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/taigrr/dirtree/internal/config"
	"github.com/taigrr/dirtree/internal/counter"
	"github.com/taigrr/dirtree/internal/filesystem"
	"github.com/taigrr/dirtree/internal/pathfilter"
	"github.com/taigrr/dirtree/internal/types"
	"github.com/taigrr/dirtree/internal/walker"
)

// treeService answers tool calls for directories below root.
type treeService struct {
	root     string
	defaults types.Options
	logger   *slog.Logger
}

func newTreeService(root string, defaults types.Options, logger *slog.Logger) (*treeService, error) {
	absRoot, err := filesystem.Resolve(root, "")
	if err != nil {
		return nil, err
	}

	isDir, err := filesystem.IsDirectory(filesystem.OS{}, absRoot)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	return &treeService{root: absRoot, defaults: defaults, logger: logger}, nil
}

// list walks the requested directory, writing the tree to out.
func (s *treeService) list(input TreeInput, out io.Writer) (*counter.Counter, error) {
	opts := input.options(s.defaults)
	if err := config.Validate(opts, false); err != nil {
		return nil, err
	}

	dir, err := filesystem.Resolve(s.root, input.Path)
	if err != nil {
		return nil, err
	}

	filter, err := pathfilter.New(filesystem.OS{}, dir, opts)
	if err != nil {
		return nil, err
	}

	w := walker.New(filesystem.OS{}, filter, out,
		walker.WithLogger(s.logger.With("tool", "tree")),
		walker.WithFullPath(opts.FullPath),
		walker.WithSort(opts.Sort),
	)
	return w.Walk(dir)
}

func (s *treeService) handleTree(ctx context.Context, req *mcp.CallToolRequest, input TreeInput) (*mcp.CallToolResult, any, error) {
	var buf bytes.Buffer
	c, err := s.list(input, &buf)
	if c == nil {
		return &mcp.CallToolResult{IsError: true}, nil, err
	}

	return textResult(buf.String(), err), nil, nil
}

func (s *treeService) handleCount(ctx context.Context, req *mcp.CallToolRequest, input TreeInput) (*mcp.CallToolResult, any, error) {
	c, err := s.list(input, io.Discard)
	if c == nil {
		return &mcp.CallToolResult{IsError: true}, nil, err
	}

	return textResult(c.String(), err), nil, nil
}

// textResult reports text, followed by err if the walk was incomplete.
func textResult(text string, err error) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
	if err != nil {
		result.IsError = true
		result.Content = append(result.Content, &mcp.TextContent{Text: err.Error()})
	}
	return result
}
