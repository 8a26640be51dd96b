package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/pikia/internal/core/domain"
)

// SanitizePath turns user input into a clean absolute path.
// It strips a file:// prefix, expands a leading ~ and joins any extra
// path elements, such as an "output" subdirectory, onto the result.
func SanitizePath(path string, elem ...string) (string, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "file://")
	if path == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return filepath.Join(append([]string{abs}, elem...)...), nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}

// hiddenUnder reports whether path is hidden relative to the root that
// contains it, so a root that itself lives under a dot directory is still
// scanned.
func hiddenUnder(roots []string, path string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return isHidden(rel)
	}
	return isHidden(filepath.Base(path))
}
