package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var errOutsideAllowed = errors.New("file path not in allowed directories")

// resolveContentPath returns the real absolute path of p if it lies inside
// one of the allowed roots. Symlinks are resolved on both sides so a link
// inside a root cannot point out of it.
func resolveContentPath(p string, allowed []string) (string, error) {
	if strings.Contains(p, "..") {
		return "", fmt.Errorf("path traversal detected: '..' not allowed in file paths")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}

	for _, root := range allowed {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if r, err := filepath.EvalSymlinks(rootAbs); err == nil {
			rootAbs = r
		}
		rel, err := filepath.Rel(rootAbs, resolved)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%w: path must be within %s", errOutsideAllowed, strings.Join(allowed, ", "))
}

// readCapped reads path, failing when it is larger than limit bytes.
func readCapped(path string, limit int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > limit {
		return "", fmt.Errorf("file is %d bytes, limit is %d", info.Size(), limit)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
