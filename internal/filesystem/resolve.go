package filesystem

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolve resolves relativePath inside root and rejects paths that escape it.
func Resolve(root, relativePath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	relativePath = strings.TrimSpace(relativePath)
	relativePath = strings.TrimPrefix(relativePath, "/")

	absPath, err := filepath.Abs(filepath.Join(absRoot, relativePath))
	if err != nil {
		return "", err
	}

	relPath, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal not allowed: %s", relativePath)
	}

	return absPath, nil
}
