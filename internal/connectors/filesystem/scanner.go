package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
	"github.com/custodia-labs/pikia/internal/logger"
)

// Ensure Scanner implements the interface.
var _ driven.FileScanner = (*Scanner)(nil)

// Scanner lists image files in local directories.
// Hidden files and directories are skipped.
type Scanner struct {
	extensions []string
}

// NewScanner creates a scanner matching the given extensions.
// An empty list uses domain.DefaultImageExtensions.
func NewScanner(extensions []string) *Scanner {
	if len(extensions) == 0 {
		extensions = domain.DefaultImageExtensions
	}
	return &Scanner{extensions: extensions}
}

// Scan returns absolute, deduplicated, sorted image paths under dirs.
func (s *Scanner) Scan(ctx context.Context, dirs []string, recursive bool) ([]string, error) {
	seen := make(map[string]struct{})
	for _, dir := range dirs {
		root, err := SanitizePath(dir)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
		}

		logger.Debug("Scanning %s (recursive=%t)", root, recursive)
		if recursive {
			err = s.walk(ctx, root, seen)
		} else {
			err = s.list(ctx, root, seen)
		}
		if err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	logger.Info("Found %d images", len(paths))
	return paths, nil
}

func (s *Scanner) walk(ctx context.Context, root string, seen map[string]struct{}) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, the root is not
			if path == root {
				return fmt.Errorf("reading %s: %w", root, err)
			}
			logger.Warn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && hiddenUnder([]string{root}, path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && s.matches(path) {
			seen[path] = struct{}{}
		}
		return nil
	})
}

func (s *Scanner) list(ctx context.Context, root string, seen map[string]struct{}) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Type().IsRegular() || isHidden(e.Name()) {
			continue
		}
		path := filepath.Join(root, e.Name())
		if s.matches(path) {
			seen[path] = struct{}{}
		}
	}
	return nil
}

func (s *Scanner) matches(path string) bool {
	return domain.HasImageExtension(path, s.extensions)
}
